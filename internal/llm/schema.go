package llm

import "github.com/joseph-ayodele/invoice-autofill/constants"

// SchemaName names the structured output for backends that need one.
const SchemaName = "invoice_extract"

// BuildInvoiceJSONSchema returns the five-field, all-required, all-nullable
// schema. It is sent to the model and used to validate the answer locally.
func BuildInvoiceJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"amount":   nullable(map[string]any{"type": "number"}),
			"currency": nullable(map[string]any{"type": "string"}),
			"due_date": nullable(map[string]any{"type": "string"}),
			"name":     nullable(map[string]any{"type": "string"}),
			"type": nullable(map[string]any{
				"type": "string",
				"enum": constants.ChargeTypesAsStrings(),
			}),
		},
		"required": []string{"amount", "currency", "due_date", "name", "type"},
	}
}

func nullable(s map[string]any) map[string]any {
	return map[string]any{"anyOf": []any{s, map[string]any{"type": "null"}}}
}
