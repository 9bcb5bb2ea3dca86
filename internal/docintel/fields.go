package docintel

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
	"github.com/joseph-ayodele/invoice-autofill/internal/textnorm"
)

type analyzeResponse struct {
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	AnalyzeResult *struct {
		Documents []struct {
			Fields map[string]docField `json:"fields"`
		} `json:"documents"`
		KeyValuePairs []struct {
			Key struct {
				Content string `json:"content"`
			} `json:"key"`
			Value *struct {
				Content string `json:"content"`
			} `json:"value"`
		} `json:"keyValuePairs"`
	} `json:"analyzeResult,omitempty"`
}

type docField struct {
	Type          string       `json:"type"`
	Content       string       `json:"content"`
	ValueString   *string      `json:"valueString"`
	ValueNumber   *json.Number `json:"valueNumber"`
	ValueDate     *string      `json:"valueDate"`
	ValueCurrency *struct {
		Amount       *json.Number `json:"amount"`
		CurrencyCode string       `json:"currencyCode"`
	} `json:"valueCurrency"`
}

// lookup is one wanted field: exact model names first, then folded labels
// matched against field names of custom models and key-value pairs.
type lookup struct {
	exact  []string
	labels []string
}

var (
	vendorLookup = lookup{
		exact:  []string{"VendorName"},
		labels: []string{"vendor name", "szolgaltato neve", "szolgaltato", "elado", "kibocsato"},
	}
	amountLookup = lookup{
		exact:  []string{"AmountDue", "InvoiceTotal"},
		labels: []string{"amount due", "fizetendo osszeg", "fizetendo", "invoice total", "vegosszeg", "osszesen"},
	}
	dueLookup = lookup{
		exact:  []string{"DueDate"},
		labels: []string{"due date", "fizetesi hatarido", "hatarido"},
	}
)

func (r *analyzeResponse) fieldSet() fields.FieldSet {
	var fs fields.FieldSet
	if r == nil || r.AnalyzeResult == nil {
		return fs
	}
	docFields := map[string]docField{}
	for _, d := range r.AnalyzeResult.Documents {
		for k, v := range d.Fields {
			if _, seen := docFields[k]; !seen {
				docFields[k] = v
			}
		}
	}
	// key-value pairs only fill names the document fields do not carry
	for _, kv := range r.AnalyzeResult.KeyValuePairs {
		if kv.Value == nil || strings.TrimSpace(kv.Value.Content) == "" {
			continue
		}
		if _, seen := docFields[kv.Key.Content]; !seen {
			docFields[kv.Key.Content] = docField{Type: "string", Content: kv.Value.Content}
		}
	}

	if f, ok := find(docFields, vendorLookup); ok {
		fs.ProviderName = f.text()
	}
	if f, ok := find(docFields, amountLookup); ok {
		fs.Amount, fs.Currency = f.amount()
	}
	if f, ok := find(docFields, dueLookup); ok {
		fs.DueDate = f.date()
	}
	return fs
}

func find(m map[string]docField, l lookup) (docField, bool) {
	for _, name := range l.exact {
		if f, ok := m[name]; ok && !f.empty() {
			return f, true
		}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, label := range l.labels {
		for _, k := range keys {
			if f := m[k]; textnorm.Fold(k) == label && !f.empty() {
				return f, true
			}
		}
	}
	for _, label := range l.labels {
		for _, k := range keys {
			if f := m[k]; strings.Contains(textnorm.Fold(k), label) && !f.empty() {
				return f, true
			}
		}
	}
	return docField{}, false
}

func (f docField) empty() bool {
	return f.ValueString == nil && f.ValueNumber == nil && f.ValueDate == nil &&
		f.ValueCurrency == nil && strings.TrimSpace(f.Content) == ""
}

func (f docField) text() *string {
	if f.ValueString != nil && strings.TrimSpace(*f.ValueString) != "" {
		return fields.String(strings.TrimSpace(*f.ValueString))
	}
	return fields.String(textnorm.CollapseWhitespace(f.Content))
}

// amount prefers the structured number; the raw content is parsed with
// Hungarian separators only when there is none.
func (f docField) amount() (*decimal.Decimal, *string) {
	var currency *string
	if f.ValueCurrency != nil && f.ValueCurrency.CurrencyCode != "" {
		currency = fields.String(strings.ToUpper(f.ValueCurrency.CurrencyCode))
	}

	var num *json.Number
	switch {
	case f.ValueCurrency != nil && f.ValueCurrency.Amount != nil:
		num = f.ValueCurrency.Amount
	case f.ValueNumber != nil:
		num = f.ValueNumber
	}
	if num != nil {
		if d, err := decimal.NewFromString(num.String()); err == nil && d.IsPositive() {
			if currency == nil {
				currency = fields.InferCurrency(f.Content)
			}
			return &d, currency
		}
	}

	raw := f.Content
	if f.ValueString != nil {
		raw = *f.ValueString
	}
	amt := fields.PositiveAmount(raw)
	if amt == nil {
		return nil, currency
	}
	if currency == nil {
		currency = fields.InferCurrency(raw)
	}
	return amt, currency
}

func (f docField) date() *string {
	if f.ValueDate != nil {
		if iso, ok := fields.NormalizeDate(*f.ValueDate); ok {
			return &iso
		}
	}
	raw := f.Content
	if f.ValueString != nil {
		raw = *f.ValueString
	}
	if iso, ok := fields.NormalizeDate(strings.TrimSpace(raw)); ok {
		return &iso
	}
	return nil
}
