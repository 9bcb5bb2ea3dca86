package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-autofill/internal/common"
)

// Engine selects the recognition model of the cloud OCR service.
type Engine int

const (
	EngineA Engine = 1
	EngineB Engine = 2
)

type CloudConfig struct {
	APIKey   string
	Language string
	URL      string
	Timeout  time.Duration
}

// CloudClient talks to an OCR.space compatible parse endpoint.
type CloudClient struct {
	cfg    CloudConfig
	http   *http.Client
	logger *slog.Logger
}

func NewCloudClient(cfg CloudConfig, httpClient *http.Client, logger *slog.Logger) *CloudClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = "hun"
	}
	if cfg.URL == "" {
		cfg.URL = "https://api.ocr.space/parse/image"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &CloudClient{cfg: cfg, http: httpClient, logger: logger}
}

// Configured reports whether an API key is present.
func (c *CloudClient) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

type cloudResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// Recognize uploads one file and returns the parsed text of all results joined
// by newlines.
func (c *CloudClient) Recognize(ctx context.Context, data []byte, filename string, engine Engine) (string, error) {
	if !c.Configured() {
		return "", common.ConfigurationError("cloud OCR")
	}
	start := time.Now()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"apikey":            c.cfg.APIKey,
		"language":          c.cfg.Language,
		"OCREngine":         strconv.Itoa(int(engine)),
		"isOverlayRequired": "false",
		"scale":             "true",
		"filetype":          fileType(filename),
	} {
		if err := mw.WriteField(k, v); err != nil {
			return "", err
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", common.TransportError("cloud OCR request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", common.TransportError("cloud OCR response unreadable", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", common.TransportError(fmt.Sprintf("cloud OCR returned HTTP %d", resp.StatusCode), nil)
	}

	var parsed cloudResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", common.TransportError("cloud OCR response is not JSON", err)
	}
	if parsed.IsErroredOnProcessing {
		return "", common.ExtractionError("cloud OCR: "+errorMessage(parsed.ErrorMessage), nil)
	}

	parts := make([]string, 0, len(parsed.ParsedResults))
	for _, r := range parsed.ParsedResults {
		if t := strings.TrimSpace(r.ParsedText); t != "" {
			parts = append(parts, t)
		}
	}
	text := Normalize(strings.Join(parts, "\n"))
	c.logger.Info("ocr.cloud.pass",
		"req_id", common.RequestIDFromContext(ctx),
		"engine", int(engine),
		"chars", len([]rune(text)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func fileType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "PDF"
	case ".jpg", ".jpeg":
		return "JPG"
	default:
		return "PNG"
	}
}

// errorMessage decodes the service's ErrorMessage, which is either a string or
// a list of strings.
func errorMessage(raw json.RawMessage) string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	return "processing failed"
}
