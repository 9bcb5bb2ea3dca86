package fields

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-autofill/constants"
)

var (
	reCurrencyUnit = regexp.MustCompile(`(?i)ft|huf`)
	reNotAmount    = regexp.MustCompile(`[^\d,.\-]`)
	reGroupedDots  = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
)

// ParseAmount reads an amount written with Hungarian conventions. Currency
// units and whitespace are dropped; with a comma present dots are thousands
// separators and the comma is the decimal point; dot-grouped thousands
// without a comma lose their dots. "1.234,56 Ft" is 1234.56, "12 000 Ft" is 12000.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Decimal{}, false
	}
	cleaned := reCurrencyUnit.ReplaceAllString(raw, "")
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, cleaned)
	digits := reNotAmount.ReplaceAllString(cleaned, "")
	// "12 500,-" and a sentence-final "12500." are common on invoices
	digits = strings.TrimRight(digits, ".,-")

	normalized := digits
	if strings.Contains(digits, ",") {
		normalized = strings.ReplaceAll(digits, ".", "")
		normalized = strings.Replace(normalized, ",", ".", 1)
	} else if reGroupedDots.MatchString(digits) {
		normalized = strings.ReplaceAll(digits, ".", "")
	}
	if normalized == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// PositiveAmount is ParseAmount restricted to values above zero.
func PositiveAmount(raw string) *decimal.Decimal {
	d, ok := ParseAmount(raw)
	if !ok || !d.IsPositive() {
		return nil
	}
	return &d
}

// InferCurrency returns HUF when the raw amount text carries a forint unit.
func InferCurrency(raw string) *string {
	if reCurrencyUnit.MatchString(raw) {
		return String(constants.DefaultCurrency)
	}
	return nil
}
