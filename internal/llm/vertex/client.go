// Package vertex is the Gemini-on-Vertex backend for invoice field extraction.
package vertex

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"

	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/llm"
)

type Config struct {
	Project string
	Region  string
	Model   string
}

type Client struct {
	cfg    Config
	base   *genai.Client
	logger *slog.Logger
}

var _ llm.Completer = (*Client)(nil)

// NewClient uses application default credentials for the project.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Project == "" {
		return nil, common.ConfigurationError("VERTEX_PROJECT")
	}
	if cfg.Region == "" {
		cfg.Region = "europe-west1"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}
	base, err := genai.NewClient(ctx, cfg.Project, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &Client{cfg: cfg, base: base, logger: logger}, nil
}

func (c *Client) Close() error {
	return c.base.Close()
}

func (c *Client) Name() string { return "vertex" }

func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	model := c.base.GenerativeModel(c.cfg.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.System + "\n\n" + llm.SchemaInstruction(req.Schema))},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(req.Temperature),
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return "", fmt.Errorf("vertex generate: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	c.logger.Debug("llm.vertex.ok",
		"req_id", common.RequestIDFromContext(ctx),
		"model", c.cfg.Model,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("vertex returned no candidates")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("vertex returned no text parts")
	}
	return strings.TrimSpace(b.String()), nil
}
