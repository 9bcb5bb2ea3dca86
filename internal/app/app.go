// Package app wires configuration into the extraction stack shared by every
// command.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/invoice-autofill/internal/cache"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/core"
	"github.com/joseph-ayodele/invoice-autofill/internal/docintel"
	"github.com/joseph-ayodele/invoice-autofill/internal/llm"
	"github.com/joseph-ayodele/invoice-autofill/internal/llm/anthropic"
	"github.com/joseph-ayodele/invoice-autofill/internal/llm/openai"
	"github.com/joseph-ayodele/invoice-autofill/internal/llm/vertex"
	"github.com/joseph-ayodele/invoice-autofill/internal/ocr"
	"github.com/joseph-ayodele/invoice-autofill/internal/pdftext"
	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
	"github.com/joseph-ayodele/invoice-autofill/internal/provider"
	"github.com/joseph-ayodele/invoice-autofill/internal/repository"
)

// InMemoryDSN keeps the job log for the lifetime of the process only.
const InMemoryDSN = "file::memory:?_pragma=foreign_keys(1)"

type Options struct {
	// JobLog opens and migrates the extraction_job database.
	JobLog bool
	// InMemory swaps the configured DSN for an in-memory sqlite database.
	InMemory bool
	// Cache connects the result cache when REDIS_ADDR is set.
	Cache bool
}

// App owns every long-lived resource; Close releases them in reverse order.
type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	Pipeline  *pipeline.Pipeline
	Processor *core.Processor
	DB        *repository.DB
	Redis     *redis.Client

	closers []func() error
}

func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger}

	p, err := a.buildPipeline(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Pipeline = p

	var jobs repository.ExtractionJobRepository
	if opts.JobLog {
		db, err := OpenJobLog(ctx, cfg.Database, opts.InMemory, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.DB = db
		a.closers = append(a.closers, func() error { db.Close(logger); return nil })
		jobs = repository.NewExtractionJobRepository(db, logger)
	}

	var resultCache *cache.ResultCache
	if opts.Cache && cfg.Redis.Addr != "" {
		a.Redis = cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		a.closers = append(a.closers, a.Redis.Close)
		resultCache = cache.NewResultCache(a.Redis, cfg.Redis.CacheTTL, logger)
		logger.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	a.Processor = core.NewProcessor(logger, p, jobs, resultCache)
	return a, nil
}

func (a *App) buildPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	cfg, logger := a.Config, a.Logger

	var extra []provider.Signature
	if cfg.Pipeline.SignaturesFile != "" {
		sigs, err := loadSignatures(cfg.Pipeline.SignaturesFile)
		if err != nil {
			return nil, err
		}
		extra = sigs
		logger.Info("provider signatures loaded", "file", cfg.Pipeline.SignaturesFile, "count", len(sigs))
	}

	ocrCfg := ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
	}
	runner := ocr.NewExecRunner(logger)
	raster := ocr.NewRasterizer(ocrCfg, runner, logger)
	chain := ocr.NewChain(
		ocr.NewLocalEngine(ocrCfg, runner, raster, logger),
		ocr.NewCloudClient(ocr.CloudConfig{
			APIKey:   cfg.CloudOCR.APIKey,
			Language: cfg.CloudOCR.Language,
			URL:      cfg.CloudOCR.URL,
			Timeout:  cfg.CloudOCR.Timeout,
		}, nil, logger),
		raster,
		logger,
	)

	doc := docintel.NewClient(docintel.Config{
		Endpoint:     cfg.DocIntel.Endpoint,
		APIKey:       cfg.DocIntel.APIKey,
		ModelID:      cfg.DocIntel.ModelID,
		APIVersion:   cfg.DocIntel.APIVersion,
		PollInterval: cfg.DocIntel.PollInterval,
		PollAttempts: cfg.DocIntel.PollAttempts,
	}, nil, nil, logger)
	if !doc.Configured() {
		logger.Warn("document analysis not configured, cloud document fields will be skipped")
	}

	completer, closeFn, err := NewCompleter(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}
	if closeFn != nil {
		a.closers = append(a.closers, closeFn)
	}
	extractor := llm.NewExtractor(completer, llm.Config{
		MaxChars:    cfg.LLM.MaxChars,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	return pipeline.NewPipeline(pipeline.Deps{
		Text:     pdftext.NewReader(logger),
		OCR:      chain,
		Detector: provider.NewDetector(extra...),
		AI:       pipeline.AISource(extractor),
		Document: pipeline.DocumentSource(doc),
	}, pipeline.Config{
		Debug:       cfg.Pipeline.Debug,
		CustomModel: doc.CustomModel(),
	}, logger), nil
}

// NewCompleter picks the LLM backend named by LLM_PROVIDER. A backend without
// credentials yields a nil completer, which disables AI extraction without
// failing startup.
func NewCompleter(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, func() error, error) {
	switch cfg.Provider {
	case "", "openai":
		if cfg.APIKey == "" {
			logger.Warn("OpenAI API key not configured, AI extraction will be skipped")
			return nil, nil, nil
		}
		c, err := openai.NewClient(openai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("LLM backend initialized", "provider", c.Name(), "model", cfg.Model)
		return c, nil, nil

	case "anthropic":
		if cfg.AnthropicKey == "" {
			logger.Warn("Anthropic API key not configured, AI extraction will be skipped")
			return nil, nil, nil
		}
		c, err := anthropic.NewClient(anthropic.Config{
			APIKey: cfg.AnthropicKey,
			Model:  cfg.AnthropicModel,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("LLM backend initialized", "provider", c.Name(), "model", cfg.AnthropicModel)
		return c, nil, nil

	case "vertex":
		if cfg.VertexProject == "" {
			logger.Warn("Vertex project not configured, AI extraction will be skipped")
			return nil, nil, nil
		}
		c, err := vertex.NewClient(ctx, vertex.Config{
			Project: cfg.VertexProject,
			Region:  cfg.VertexRegion,
			Model:   cfg.VertexModel,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("LLM backend initialized", "provider", c.Name(), "model", cfg.VertexModel)
		return c, c.Close, nil
	}
	return nil, nil, common.NewAppError(common.CodeConfiguration,
		fmt.Sprintf("unknown LLM_PROVIDER %q", cfg.Provider), common.ErrConfiguration)
}

// OpenJobLog opens the job log database and creates its table.
func OpenJobLog(ctx context.Context, cfg common.DatabaseConfig, inMemory bool, logger *slog.Logger) (*repository.DB, error) {
	dsn := cfg.DSN
	switch {
	case inMemory:
		dsn = InMemoryDSN
	case dsn == "":
		dsn = repository.DefaultSQLiteDSN
	}
	db, err := repository.Open(ctx, repository.Config{
		DSN:              dsn,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: open job log: %v", common.ErrDatabase, err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close(logger)
		return nil, fmt.Errorf("%w: migrate job log: %v", common.ErrDatabase, err)
	}
	return db, nil
}

func loadSignatures(path string) ([]provider.Signature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewAppError(common.CodeConfiguration, "cannot open PROVIDER_SIGNATURES_FILE", err)
	}
	defer f.Close()
	sigs, err := provider.LoadSignatures(f)
	if err != nil {
		return nil, common.NewAppError(common.CodeConfiguration, "invalid PROVIDER_SIGNATURES_FILE", err)
	}
	return sigs, nil
}

// Ping checks the job log and redis, whichever are wired.
func (a *App) Ping(ctx context.Context, timeout time.Duration) map[string]string {
	checks := map[string]string{}
	if a.DB != nil {
		if err := a.DB.HealthCheck(ctx, timeout); err != nil {
			checks["database"] = err.Error()
		} else {
			checks["database"] = "ok"
		}
	}
	if a.Redis != nil {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := a.Redis.Ping(cctx).Err(); err != nil {
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}
	return checks
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close failed", "err", err)
		}
	}
	a.closers = nil
}
