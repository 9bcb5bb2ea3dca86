package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
)

// DefaultMaxChars is how much invoice text is sent to the model.
const DefaultMaxChars = 15000

// Config tunes a single extraction call.
type Config struct {
	MaxChars    int
	Temperature float32
	Timeout     time.Duration
}

// Extractor asks a Completer for the five invoice fields and keeps only
// values that survive schema validation and local normalization.
type Extractor struct {
	completer Completer
	cfg       Config
	schema    map[string]any
	validator *jsonschema.Schema
	logger    *slog.Logger
}

var _ extract.FieldExtractor = (*Extractor)(nil)

// NewExtractor accepts a nil completer; Extract then reports a configuration error.
func NewExtractor(completer Completer, cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	e := &Extractor{
		completer: completer,
		cfg:       cfg,
		schema:    BuildInvoiceJSONSchema(),
		logger:    logger,
	}
	validator, err := CompileSchema(e.schema)
	if err != nil {
		logger.Error("llm.schema.compile_failed", "error", err)
		e.completer = nil
		return e
	}
	e.validator = validator
	return e
}

// Configured reports whether a backend is wired.
func (e *Extractor) Configured() bool {
	return e != nil && e.completer != nil
}

func (e *Extractor) Extract(ctx context.Context, text string) (fields.FieldSet, error) {
	if !e.Configured() {
		return fields.FieldSet{}, common.ConfigurationError("AI field extraction")
	}
	ctx, reqID := common.EnsureRequestID(ctx)

	prepared := PrepareText(text, e.cfg.MaxChars)
	if prepared == "" {
		return fields.FieldSet{}, nil
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	e.logger.Info("llm.extract.start",
		"req_id", reqID,
		"backend", e.completer.Name(),
		"chars", len([]rune(prepared)),
	)

	raw, err := e.completer.Complete(ctx, CompletionRequest{
		System:      SystemPrompt,
		User:        BuildUserPrompt(prepared),
		SchemaName:  SchemaName,
		Schema:      e.schema,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		e.logger.Error("llm.extract.call_failed", "req_id", reqID, "backend", e.completer.Name(), "error", err)
		if ctx.Err() != nil {
			return fields.FieldSet{}, &common.AppError{
				Code:    common.CodeTimeout,
				Message: "AI request did not finish in time",
				Cause:   errors.Join(common.ErrTimeout, ctx.Err()),
			}
		}
		return fields.FieldSet{}, common.TransportError("AI request failed", err)
	}

	content := []byte(StripCodeFences(raw))
	if err := ValidateReply(e.validator, content); err != nil {
		fixed, changed, sErr := NormalizeAndSanitizeJSON(content, e.logger)
		if sErr != nil {
			e.logger.Error("llm.extract.unparsable", "req_id", reqID, "error", sErr)
			return fields.FieldSet{}, common.ExtractionError("the AI response could not be processed", sErr)
		}
		if vErr := ValidateReply(e.validator, fixed); vErr != nil {
			e.logger.Error("llm.extract.schema_invalid", "req_id", reqID, "error", vErr)
			return fields.FieldSet{}, common.ExtractionError("the AI response could not be processed", vErr)
		}
		e.logger.Warn("llm.extract.lenient_sanitize_applied", "req_id", reqID, "changed", changed)
		content = fixed
	}

	var out InvoiceFields
	dec := json.NewDecoder(strings.NewReader(string(content)))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return fields.FieldSet{}, common.ExtractionError("the AI response could not be processed", err)
	}

	fs, rejected := toFieldSet(out)
	if len(rejected) > 0 {
		e.logger.Warn("llm.extract.fields_rejected", "req_id", reqID, "fields", rejected)
	}
	e.logger.Info("llm.extract.ok",
		"req_id", reqID,
		"backend", e.completer.Name(),
		"dur_ms", time.Since(start).Milliseconds(),
		"has_amount", fs.Amount != nil,
		"has_due", fs.DueDate != nil,
		"has_name", fs.ProviderName != nil,
	)
	return fs, nil
}

// toFieldSet drops anything the model returned that does not fit the field
// rules. A null from the model and a rejected value look the same downstream;
// the names of the rejected format checks are returned for logging.
func toFieldSet(in InvoiceFields) (fields.FieldSet, []string) {
	var fs fields.FieldSet
	if in.Amount != nil {
		if d, err := decimal.NewFromString(in.Amount.String()); err == nil && d.IsPositive() {
			fs.Amount = &d
		}
	}
	if in.Currency != nil {
		fs.Currency = fields.String(strings.ToUpper(strings.TrimSpace(*in.Currency)))
	}
	fs.DueDate = fields.NormalizeDatePtr(in.DueDate)
	if in.Name != nil {
		fs.ProviderName = fields.String(strings.TrimSpace(*in.Name))
	}
	if in.Type != nil {
		if ct, ok := constants.CanonicalizeChargeType(*in.Type); ok {
			fs.ChargeType = fields.Type(ct)
		}
	}

	v := common.NewValidator().
		Field("currency", fs.Currency, common.CurrencyCode).
		Field("due_date", fs.DueDate, common.ISODate)
	rejected := v.Fields()
	for _, f := range rejected {
		switch f {
		case "currency":
			fs.Currency = nil
		case "due_date":
			fs.DueDate = nil
		}
	}
	return fs, rejected
}
