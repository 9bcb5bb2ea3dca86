package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
)

type fakeCompleter struct {
	reply string
	err   error
	got   CompletionRequest
	block bool
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.got = req
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		amount   string
		currency string
		due      string
		provider string
		typ      constants.ChargeType
	}{
		{
			name:     "strict answer",
			reply:    `{"amount": 12500, "currency": "HUF", "due_date": "2025-03-15", "name": "ELMŰ Nyrt.", "type": "UTILITY"}`,
			amount:   "12500",
			currency: "HUF",
			due:      "2025-03-15",
			provider: "ELMŰ Nyrt.",
			typ:      constants.ChargeUtility,
		},
		{
			name:  "all null",
			reply: `{"amount": null, "currency": null, "due_date": null, "name": null, "type": null}`,
		},
		{
			name:     "fenced and sloppy",
			reply:    "```json\n{\"total\": \"1 234,56 Ft\", \"currency\": \"huf\", \"dueDate\": \"2025.03.15.\", \"vendor\": \"Főtáv Zrt.\", \"confidence\": 0.8}\n```",
			amount:   "1234.56",
			currency: "HUF",
			due:      "2025-03-15",
			provider: "Főtáv Zrt.",
		},
		{
			name:  "non positive amount and bad currency dropped",
			reply: `{"amount": -5, "currency": "forint", "due_date": null, "name": "  ", "type": "OTHER"}`,
			typ:   constants.ChargeOther,
		},
		{
			name:  "unknown type nulled",
			reply: `{"amount": null, "currency": null, "due_date": "not a date", "name": null, "type": "GROCERY"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fc := &fakeCompleter{reply: tc.reply}
			ex := NewExtractor(fc, Config{}, nil)
			got, err := ex.Extract(context.Background(), "Fizetendő összeg: 12 500 Ft")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.amount == "" {
				if got.Amount != nil {
					t.Errorf("amount = %s, want nil", got.Amount)
				}
			} else if got.Amount == nil || got.Amount.String() != tc.amount {
				t.Errorf("amount = %v, want %s", got.Amount, tc.amount)
			}
			if fields.Deref(got.Currency) != tc.currency {
				t.Errorf("currency = %q, want %q", fields.Deref(got.Currency), tc.currency)
			}
			if fields.Deref(got.DueDate) != tc.due {
				t.Errorf("due = %q, want %q", fields.Deref(got.DueDate), tc.due)
			}
			if fields.Deref(got.ProviderName) != tc.provider {
				t.Errorf("name = %q, want %q", fields.Deref(got.ProviderName), tc.provider)
			}
			var typ constants.ChargeType
			if got.ChargeType != nil {
				typ = *got.ChargeType
			}
			if typ != tc.typ {
				t.Errorf("type = %q, want %q", typ, tc.typ)
			}
		})
	}
}

func TestExtractRequestShape(t *testing.T) {
	fc := &fakeCompleter{reply: `{"amount": null, "currency": null, "due_date": null, "name": null, "type": null}`}
	ex := NewExtractor(fc, Config{MaxChars: 10, Temperature: 0}, nil)

	if _, err := ex.Extract(context.Background(), "  abc   def  \n\n\nghijklmnopqrstuvwxyz"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.got.User != "Számla szöveg:\nabc def\ngh" {
		t.Errorf("user prompt = %q", fc.got.User)
	}
	if fc.got.System != SystemPrompt {
		t.Error("system prompt not sent")
	}
	if fc.got.SchemaName != "invoice_extract" {
		t.Errorf("schema name = %q", fc.got.SchemaName)
	}
	if fc.got.Schema["additionalProperties"] != false {
		t.Error("schema must forbid additional properties")
	}
}

func TestExtractErrors(t *testing.T) {
	t.Run("no backend", func(t *testing.T) {
		_, err := NewExtractor(nil, Config{}, nil).Extract(context.Background(), "x")
		if !errors.Is(err, common.ErrConfiguration) {
			t.Fatalf("want configuration error, got %v", err)
		}
	})

	t.Run("empty text skips the call", func(t *testing.T) {
		fc := &fakeCompleter{err: errors.New("must not be called")}
		got, err := NewExtractor(fc, Config{}, nil).Extract(context.Background(), " \n ")
		if err != nil || !got.IsEmpty() {
			t.Fatalf("got %+v, %v", got, err)
		}
	})

	t.Run("transport", func(t *testing.T) {
		fc := &fakeCompleter{err: errors.New("connection refused")}
		_, err := NewExtractor(fc, Config{}, nil).Extract(context.Background(), "x")
		if !errors.Is(err, common.ErrTransport) {
			t.Fatalf("want transport error, got %v", err)
		}
	})

	t.Run("not json", func(t *testing.T) {
		fc := &fakeCompleter{reply: "Sorry, I cannot help with that."}
		_, err := NewExtractor(fc, Config{}, nil).Extract(context.Background(), "x")
		if !errors.Is(err, common.ErrExtraction) {
			t.Fatalf("want extraction error, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		fc := &fakeCompleter{block: true}
		_, err := NewExtractor(fc, Config{Timeout: 10 * time.Millisecond}, nil).Extract(context.Background(), "x")
		if !errors.Is(err, common.ErrTimeout) {
			t.Fatalf("want timeout error, got %v", err)
		}
	})
}

func TestNormalizeAndSanitizeJSON(t *testing.T) {
	out, changed, err := NormalizeAndSanitizeJSON([]byte(`{"provider_name": "", "amount": "abc", "extra": 1}`), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateReply(mustCompile(t), out); err != nil {
		t.Fatalf("sanitized output does not validate: %v (%s)", err, out)
	}
	joined := strings.Join(changed, ",")
	for _, want := range []string{"provider_name->name", "extra(unknown)", "amount(unparsable)", "name(empty)", "due_date(missing)"} {
		if !strings.Contains(joined, want) {
			t.Errorf("changed %v misses %q", changed, want)
		}
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"{}":                  "{}",
		"```json\n{}\n```":    "{}",
		"```\n{\"a\":1}\n```": `{"a":1}`,
		"  {} ":               "{}",
	}
	for in, want := range cases {
		if got := StripCodeFences(in); got != want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func mustCompile(t *testing.T) *jsonschema.Schema {
	t.Helper()
	schema, err := CompileSchema(BuildInvoiceJSONSchema())
	if err != nil {
		t.Fatalf("CompileSchema: %v", err)
	}
	return schema
}

func TestSchemaRejectsMissingKeys(t *testing.T) {
	schema := mustCompile(t)
	if err := ValidateReply(schema, []byte(`{"amount": 1}`)); err == nil {
		t.Fatal("expected missing keys to fail validation")
	}
	if err := ValidateReply(schema, []byte(`not json`)); err == nil {
		t.Fatal("expected non-JSON reply to fail validation")
	}
	ok := `{"amount": 1, "currency": null, "due_date": null, "name": null, "type": null}`
	if err := ValidateReply(schema, []byte(ok)); err != nil {
		t.Fatalf("valid reply rejected: %v", err)
	}
}

func TestNewExtractorCompilesSchemaOnce(t *testing.T) {
	ex := NewExtractor(&fakeCompleter{}, Config{}, nil)
	if ex.validator == nil {
		t.Fatal("schema not compiled at construction")
	}
	if !ex.Configured() {
		t.Fatal("extractor with a completer reports unconfigured")
	}
}

func TestToFieldSetRejectsBadFormats(t *testing.T) {
	cur, due := "eur ", "2025-02-30"
	fs, rejected := toFieldSet(InvoiceFields{Currency: &cur, DueDate: &due})
	if fs.Currency == nil || *fs.Currency != "EUR" {
		t.Errorf("currency = %v", fs.Currency)
	}
	if fs.DueDate != nil {
		t.Errorf("impossible date kept: %s", *fs.DueDate)
	}
	if len(rejected) != 0 {
		t.Errorf("rejected = %v", rejected)
	}

	bad := "Ft"
	fs, rejected = toFieldSet(InvoiceFields{Currency: &bad})
	if fs.Currency != nil || len(rejected) != 1 || rejected[0] != "currency" {
		t.Errorf("currency = %v, rejected = %v", fs.Currency, rejected)
	}
}
