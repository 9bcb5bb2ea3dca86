package common

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Redis    RedisConfig
	OCR      OCRConfig
	CloudOCR CloudOCRConfig
	DocIntel DocIntelConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	LogLevel slog.Level
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr      string
	GRPCAddr      string
	MaxUploadSize int64
}

// RedisConfig backs the result cache and the import queue. Empty Addr disables both.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	CacheTTL    time.Duration
	Concurrency int
}

// OCRConfig holds local rasterizer/OCR configuration
type OCRConfig struct {
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	TessdataDir   string
	DPI           int
}

// CloudOCRConfig holds the cloud image-OCR service configuration
type CloudOCRConfig struct {
	APIKey   string
	Language string
	URL      string
	Timeout  time.Duration
}

// DocIntelConfig holds the cloud document-analysis configuration
type DocIntelConfig struct {
	Endpoint     string
	APIKey       string
	ModelID      string
	APIVersion   string
	PollInterval time.Duration
	PollAttempts int
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider       string
	Model          string
	APIKey         string
	BaseURL        string
	AnthropicKey   string
	AnthropicModel string
	VertexProject  string
	VertexRegion   string
	VertexModel    string
	Temperature    float32
	Timeout        time.Duration
	MaxChars       int
}

// PipelineConfig holds extraction pipeline switches
type PipelineConfig struct {
	Debug          bool
	SignaturesFile string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:      getEnv("GRPC_ADDR", ":9090"),
			MaxUploadSize: int64(getEnvAsInt("MAX_UPLOAD_MB", 20)) << 20,
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			CacheTTL:    getEnvAsDuration("CACHE_TTL", 24*time.Hour),
			Concurrency: getEnvAsInt("WORKER_CONCURRENCY", 4),
		},
		OCR: OCRConfig{
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "hun"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
		},
		CloudOCR: CloudOCRConfig{
			APIKey:   getEnv("OCR_SPACE_API_KEY", ""),
			Language: getEnv("OCR_SPACE_LANGUAGE", "hun"),
			URL:      getEnv("OCR_SPACE_URL", "https://api.ocr.space/parse/image"),
			Timeout:  getEnvAsDuration("OCR_SPACE_TIMEOUT", 60*time.Second),
		},
		DocIntel: DocIntelConfig{
			Endpoint:     getEnv("AZURE_DOCINTEL_ENDPOINT", ""),
			APIKey:       getEnv("AZURE_DOCINTEL_KEY", ""),
			ModelID:      getEnv("AZURE_DOCINTEL_MODEL", "prebuilt-invoice"),
			APIVersion:   getEnv("AZURE_DOCINTEL_API_VERSION", "2023-07-31"),
			PollInterval: getEnvAsDuration("AZURE_DOCINTEL_POLL_INTERVAL", time.Second),
			PollAttempts: getEnvAsInt("AZURE_DOCINTEL_POLL_ATTEMPTS", 12),
		},
		LLM: LLMConfig{
			Provider:       strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("OPENAI_BASE_URL", ""),
			AnthropicKey:   getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicModel: getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
			VertexProject:  getEnv("VERTEX_PROJECT", ""),
			VertexRegion:   getEnv("VERTEX_REGION", "europe-west1"),
			VertexModel:    getEnv("VERTEX_MODEL", "gemini-1.5-flash"),
			Temperature:    getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:        getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
			MaxChars:       getEnvAsInt("LLM_MAX_CHARS", 15000),
		},
		Pipeline: PipelineConfig{
			Debug:          getEnvAsBool("INVOICE_DEBUG", false),
			SignaturesFile: getEnv("PROVIDER_SIGNATURES_FILE", ""),
		},
		LogLevel: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(value)); err == nil {
			return lvl
		}
	}
	return defaultValue
}

// Validate checks the combinations that would make a component half-configured.
// Missing credentials are not errors: the owning component is simply disabled.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfiguration, "HTTP_ADDR is required", ErrConfiguration)
	}
	if (c.DocIntel.Endpoint == "") != (c.DocIntel.APIKey == "") {
		return NewAppError(CodeConfiguration, "AZURE_DOCINTEL_ENDPOINT and AZURE_DOCINTEL_KEY must be set together", ErrConfiguration)
	}
	if c.DocIntel.PollAttempts <= 0 || c.DocIntel.PollInterval <= 0 {
		return NewAppError(CodeConfiguration, "document analysis poll budget must be positive", ErrConfiguration)
	}
	switch c.LLM.Provider {
	case "openai", "anthropic", "vertex":
	default:
		return NewAppError(CodeConfiguration, "LLM_PROVIDER must be one of openai|anthropic|vertex", ErrConfiguration)
	}
	if c.LLM.MaxChars <= 0 {
		return NewAppError(CodeConfiguration, "LLM_MAX_CHARS must be positive", ErrConfiguration)
	}
	return nil
}

// NewLogger builds the JSON slog logger every command installs as default.
func NewLogger(level slog.Level) *slog.Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo is NewLogger for commands whose stdout carries data.
func NewLoggerTo(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
