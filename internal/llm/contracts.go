package llm

import (
	"context"
	"encoding/json"
)

// InvoiceFields is the object the model must return. Every field is required
// and nullable; null means the value is not explicitly present in the text.
type InvoiceFields struct {
	Amount   *json.Number `json:"amount"`
	Currency *string      `json:"currency"`
	DueDate  *string      `json:"due_date"`
	Name     *string      `json:"name"`
	Type     *string      `json:"type"`
}

// CompletionRequest is one structured-output call.
type CompletionRequest struct {
	System      string
	User        string
	SchemaName  string
	Schema      map[string]any
	Temperature float32
}

// Completer is a model backend returning the raw JSON text of its answer.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
