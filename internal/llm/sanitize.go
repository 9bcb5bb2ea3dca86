package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
)

var invoiceKeys = []string{"amount", "currency", "due_date", "name", "type"}

// StripCodeFences removes a surrounding ```json ... ``` block if the model added one.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// NormalizeAndSanitizeJSON repairs a near-miss answer so it fits the invoice schema:
//   - renames known synonyms (dueDate -> due_date, vendor -> name)
//   - removes unknown keys
//   - coerces Hungarian-formatted amount strings to numbers
//   - turns blank or unusable values into null
//   - adds missing keys as null
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	changed := make([]string, 0, 8)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			changed = append(changed, from+"->"+to)
		}
	}

	renamed("dueDate", "due_date")
	renamed("due", "due_date")
	renamed("payment_deadline", "due_date")
	renamed("total", "amount")
	renamed("vendor", "name")
	renamed("provider_name", "name")
	renamed("provider", "name")
	renamed("charge_type", "type")
	renamed("currency_code", "currency")

	allowed := map[string]struct{}{}
	for _, k := range invoiceKeys {
		allowed[k] = struct{}{}
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			changed = append(changed, k+"(unknown)")
		}
	}

	nullify := func(k, why string) {
		m[k] = nil
		changed = append(changed, k+"("+why+")")
	}

	switch v := m["amount"].(type) {
	case nil, float64:
	case string:
		if d, ok := fields.ParseAmount(v); ok {
			m["amount"] = json.Number(d.String())
			changed = append(changed, "amount(coerced)")
		} else {
			nullify("amount", "unparsable")
		}
	default:
		nullify("amount", "type")
	}

	for _, k := range []string{"currency", "due_date", "name", "type"} {
		v, present := m[k]
		if !present || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			nullify(k, "type")
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			nullify(k, "empty")
			continue
		}
		m[k] = s
	}

	if s, ok := m["currency"].(string); ok {
		m["currency"] = strings.ToUpper(s)
	}
	if s, ok := m["due_date"].(string); ok {
		if iso, ok := fields.NormalizeDate(s); ok {
			m["due_date"] = iso
		} else {
			nullify("due_date", "unparsable")
		}
	}
	if s, ok := m["type"].(string); ok {
		if ct, ok := constants.CanonicalizeChargeType(s); ok {
			m["type"] = string(ct)
		} else {
			nullify("type", "unknown")
		}
	}

	for _, k := range invoiceKeys {
		if _, ok := m[k]; !ok {
			m[k] = nil
			changed = append(changed, k+"(missing)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "changed", changed)
	}
	return out, changed, nil
}
