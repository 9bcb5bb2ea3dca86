package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/llm"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	if !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("want configuration error, got %v", err)
	}
}

func TestComplete(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		System   []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []json.RawMessage `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "ak-test" {
			t.Errorf("x-api-key = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [
				{"type": "text", "text": "{\"amount\": null,"},
				{"type": "text", "text": " \"name\": \"ELMŰ\"}"}
			],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 8}
		}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "ak-test", BaseURL: srv.URL}, nil, option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	got, err := c.Complete(context.Background(), llm.CompletionRequest{
		System: llm.SystemPrompt,
		User:   llm.BuildUserPrompt("Fizetendő: 100 Ft"),
		Schema: llm.BuildInvoiceJSONSchema(),
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != `{"amount": null, "name": "ELMŰ"}` {
		t.Errorf("content = %q", got)
	}
	if body.Model != "claude-3-5-haiku-latest" {
		t.Errorf("model = %q", body.Model)
	}
	if len(body.System) != 1 || !strings.Contains(body.System[0].Text, `"due_date"`) {
		t.Errorf("system prompt should carry the schema: %+v", body.System)
	}
	if len(body.Messages) != 1 {
		t.Errorf("messages = %d", len(body.Messages))
	}
}
