package constants

import (
	"strings"
)

// ChargeType classifies a billing obligation created from an invoice.
type ChargeType string

const (
	ChargeRent       ChargeType = "RENT"
	ChargeUtility    ChargeType = "UTILITY"
	ChargeCommonCost ChargeType = "COMMON_COST"
	ChargeOther      ChargeType = "OTHER"
)

var allChargeTypes = []ChargeType{
	ChargeRent,
	ChargeUtility,
	ChargeCommonCost,
	ChargeOther,
}

func ChargeTypesAsStrings() []string {
	result := make([]string, len(allChargeTypes))
	for i, ct := range allChargeTypes {
		result[i] = string(ct)
	}
	return result
}

// CanonicalizeChargeType maps a model or config supplied label to a ChargeType.
// The second return value is false when the input did not name a known type.
func CanonicalizeChargeType(input string) (ChargeType, bool) {
	if input == "" {
		return ChargeOther, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// hungarian synonyms seen on invoices
	synonyms := map[string]ChargeType{
		"berleti dij":   ChargeRent,
		"berlet":        ChargeRent,
		"rezsi":         ChargeUtility,
		"kozuzem":       ChargeUtility,
		"kozos koltseg": ChargeCommonCost,
		"common cost":   ChargeCommonCost,
	}

	if ct, ok := synonyms[normalized]; ok {
		return ct, true
	}

	for _, ct := range allChargeTypes {
		if normalized == strings.ToLower(string(ct)) {
			return ct, true
		}
	}

	return ChargeOther, false
}
