// Package fields holds the nullable field shape every extraction source produces
// and the locale-aware parsers used to fill it.
package fields

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-autofill/constants"
)

// FieldSet is the shared output of every field source. A nil field means the
// source did not find the value with confidence; it never means zero or empty.
type FieldSet struct {
	Amount       *decimal.Decimal      `json:"amount"`
	Currency     *string               `json:"currency"`
	DueDate      *string               `json:"due_date"`
	ProviderName *string               `json:"name"`
	ChargeType   *constants.ChargeType `json:"type"`
}

// IsEmpty reports whether no field is set.
func (f FieldSet) IsEmpty() bool {
	return f.Amount == nil && f.Currency == nil && f.DueDate == nil && f.ProviderName == nil && f.ChargeType == nil
}

// MarshalJSON writes the amount as a JSON number rather than decimal's quoted default.
func (f FieldSet) MarshalJSON() ([]byte, error) {
	type alias FieldSet
	return json.Marshal(struct {
		alias
		Amount *json.Number `json:"amount"`
	}{alias: alias(f), Amount: Number(f.Amount)})
}

// Number renders an optional decimal as a JSON number.
func Number(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := json.Number(d.String())
	return &n
}

// String returns a pointer to s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Type returns a pointer to ct.
func Type(ct constants.ChargeType) *constants.ChargeType {
	return &ct
}

// Decimal returns a pointer to d.
func Decimal(d decimal.Decimal) *decimal.Decimal {
	return &d
}
