package pipeline

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
	"github.com/joseph-ayodele/invoice-autofill/internal/provider"
)

// InvoiceRecord is the arbitrated output. Amount, DueDate and ProviderName
// are always set; ChargeType may be nil when no source named one.
type InvoiceRecord struct {
	Amount       decimal.Decimal       `json:"amount"`
	Currency     string                `json:"currency"`
	DueDate      string                `json:"due_date"`
	ProviderName string                `json:"name"`
	ChargeType   *constants.ChargeType `json:"type"`
}

// MarshalJSON writes the amount as a JSON number.
func (r InvoiceRecord) MarshalJSON() ([]byte, error) {
	type alias InvoiceRecord
	return json.Marshal(struct {
		alias
		Amount json.Number `json:"amount"`
	}{alias: alias(r), Amount: json.Number(r.Amount.String())})
}

// ExtractionResult is the wire shape every surface returns.
type ExtractionResult struct {
	OK    bool           `json:"ok"`
	Data  *InvoiceRecord `json:"data,omitempty"`
	Error string         `json:"error,omitempty"`
	Code  string         `json:"code,omitempty"`
	Debug *Diagnostics   `json:"debug,omitempty"`
}

// SourceReport is what one field source returned, for diagnostics.
type SourceReport struct {
	Fields fields.FieldSet   `json:"fields"`
	Steps  map[string]string `json:"steps,omitempty"`
	Error  string            `json:"error,omitempty"`
	Code   string            `json:"code,omitempty"`
}

// Diagnostics is only attached when the debug flag is on.
type Diagnostics struct {
	RequestID    string                       `json:"req_id"`
	TextSample   string                       `json:"text_sample"`
	Provenance   constants.TextProvenance     `json:"provenance"`
	PageCount    *int                         `json:"page_count,omitempty"`
	Warnings     []string                     `json:"warnings,omitempty"`
	OCRErrors    []string                     `json:"ocr_errors,omitempty"`
	Hint         *provider.Hint               `json:"hint,omitempty"`
	Telecom      bool                         `json:"telecom"`
	PayableLabel bool                         `json:"payable_label"`
	Sources      map[SourceKind]*SourceReport `json:"sources"`
	DurationMS   int64                        `json:"duration_ms"`
}

// TextSampleLimit caps Diagnostics.TextSample in runes.
const TextSampleLimit = 2000

func sample(s string) string {
	r := []rune(s)
	if len(r) > TextSampleLimit {
		return string(r[:TextSampleLimit])
	}
	return s
}
