// Package docintel calls a cloud document-analysis service that returns
// invoice fields straight from PDF bytes. The service is asynchronous: the
// document is submitted, then the returned operation is polled on a fixed
// interval until it succeeds, fails or the attempt budget runs out.
package docintel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
)

type Config struct {
	Endpoint     string
	APIKey       string
	ModelID      string
	APIVersion   string
	PollInterval time.Duration
	PollAttempts int
}

// Clock abstracts the wait between polls.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type Client struct {
	cfg    Config
	http   *http.Client
	clock  Clock
	logger *slog.Logger
}

var _ extract.DocumentAnalyzer = (*Client)(nil)

func NewClient(cfg Config, httpClient *http.Client, clock Clock, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if clock == nil {
		clock = realClock{}
	}
	if cfg.ModelID == "" {
		cfg.ModelID = constants.DefaultDocIntelModelID
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2023-07-31"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 12
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &Client{cfg: cfg, http: httpClient, clock: clock, logger: logger}
}

// Configured reports whether both endpoint and key are set.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.Endpoint != "" && c.cfg.APIKey != ""
}

// CustomModel reports whether a model other than the generic invoice model is in use.
func (c *Client) CustomModel() bool {
	return c != nil && c.cfg.ModelID != constants.DefaultDocIntelModelID
}

// Analyze runs the whole submit/poll cycle. The error is a ConfigurationError,
// TransportError, ExtractionError (the service reported failure) or
// TimeoutError (attempts exhausted or ctx done).
func (c *Client) Analyze(ctx context.Context, pdf []byte) (fields.FieldSet, error) {
	if !c.Configured() {
		return fields.FieldSet{}, common.ConfigurationError("document analysis")
	}
	reqID := common.RequestIDFromContext(ctx)
	start := time.Now()

	m := newMachine(c.cfg.PollAttempts)
	var opURL string
	var final *analyzeResponse
	for {
		switch m.state {
		case StateSubmitted:
			u, err := c.submit(ctx, pdf)
			if err != nil {
				c.logger.Warn("docintel.submit.failed", "req_id", reqID, "error", err)
				return fields.FieldSet{}, err
			}
			opURL = u
			m.state = StatePolling

		case StatePolling:
			select {
			case <-ctx.Done():
				return fields.FieldSet{}, requestError(ctx, "document analysis cancelled", nil)
			case <-c.clock.After(c.cfg.PollInterval):
			}
			resp, err := c.poll(ctx, opURL)
			if err != nil {
				c.logger.Warn("docintel.poll.failed", "req_id", reqID, "attempt", m.attempts+1, "error", err)
				return fields.FieldSet{}, err
			}
			m.observe(resp.Status)
			c.logger.Debug("docintel.poll.status", "req_id", reqID, "attempt", m.attempts, "status", resp.Status)
			if m.state != StatePolling {
				final = resp
			}

		case StateSucceeded:
			fs := final.fieldSet()
			c.logger.Info("docintel.analyze.ok",
				"req_id", reqID,
				"model", c.cfg.ModelID,
				"attempts", m.attempts,
				"duration_ms", time.Since(start).Milliseconds(),
				"has_amount", fs.Amount != nil,
				"has_due", fs.DueDate != nil,
				"has_name", fs.ProviderName != nil,
			)
			return fs, nil

		case StateFailed:
			msg := "document analysis failed"
			if final != nil && final.Error != nil && final.Error.Message != "" {
				msg += ": " + final.Error.Message
			}
			c.logger.Warn("docintel.analyze.failed", "req_id", reqID, "attempts", m.attempts, "message", msg)
			return fields.FieldSet{}, common.ExtractionError(msg, nil)

		case StateTimeout:
			c.logger.Warn("docintel.analyze.timeout", "req_id", reqID, "attempts", m.attempts)
			return fields.FieldSet{}, common.TimeoutError(fmt.Sprintf("document analysis did not finish after %d polls", m.attempts))
		}
	}
}

func (c *Client) submit(ctx context.Context, pdf []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze?api-version=%s",
		c.cfg.Endpoint, url.PathEscape(c.cfg.ModelID), url.QueryEscape(c.cfg.APIVersion))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(pdf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", constants.MimePDF)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", requestError(ctx, "document analysis submit failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return "", common.TransportError(fmt.Sprintf("document analysis submit returned HTTP %d", resp.StatusCode), nil)
	}
	op := resp.Header.Get("Operation-Location")
	if op == "" {
		return "", common.TransportError("document analysis returned no operation handle", nil)
	}
	return op, nil
}

func (c *Client) poll(ctx context.Context, opURL string) (*analyzeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, requestError(ctx, "document analysis poll failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, common.TransportError(fmt.Sprintf("document analysis poll returned HTTP %d", resp.StatusCode), nil)
	}
	var out analyzeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(&out); err != nil {
		return nil, requestError(ctx, "document analysis response is not JSON", err)
	}
	return &out, nil
}

// requestError classifies a failed round trip: once ctx is done the failure
// is a timeout whatever the transport reported.
func requestError(ctx context.Context, message string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		cause := errors.Join(common.ErrTimeout, ctxErr)
		if err != nil {
			cause = errors.Join(cause, err)
		}
		return common.NewAppError(common.CodeTimeout, message, cause)
	}
	return common.TransportError(message, err)
}
