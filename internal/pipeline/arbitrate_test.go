package pipeline

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
	"github.com/joseph-ayodele/invoice-autofill/internal/provider"
)

func amt(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func str(s string) *string { return &s }

func complete(fs fields.FieldSet) fields.FieldSet {
	if fs.Amount == nil {
		fs.Amount = amt("100")
	}
	if fs.DueDate == nil {
		fs.DueDate = str("2025-03-01")
	}
	if fs.ProviderName == nil {
		fs.ProviderName = str("Label Kft.")
	}
	return fs
}

func TestArbitratePrecedence(t *testing.T) {
	tests := []struct {
		name  string
		in    Inputs
		check func(t *testing.T, r InvoiceRecord)
	}{
		{
			name: "label amount beats AI amount",
			in: Inputs{Evidence: map[SourceKind]Evidence{
				SourceLabels: {Fields: complete(fields.FieldSet{Amount: amt("12500")})},
				SourceAI:     {Fields: fields.FieldSet{Amount: amt("99999"), Currency: str("HUF")}},
			}},
			check: func(t *testing.T, r InvoiceRecord) {
				if r.Amount.String() != "12500" {
					t.Errorf("amount = %s", r.Amount)
				}
			},
		},
		{
			name: "AI amount needs a currency",
			in: Inputs{Evidence: map[SourceKind]Evidence{
				SourceLabels:        {Fields: fields.FieldSet{DueDate: str("2025-03-01"), ProviderName: str("X Kft.")}},
				SourceAI:            {Fields: fields.FieldSet{Amount: amt("500")}},
				SourceCloudDocument: {Fields: fields.FieldSet{Amount: amt("700")}},
			}},
			check: nil, // no amount: validation error
		},
		{
			name: "AI amount with currency",
			in: Inputs{Evidence: map[SourceKind]Evidence{
				SourceLabels: {Fields: fields.FieldSet{DueDate: str("2025-03-01"), ProviderName: str("X Kft.")}},
				SourceAI:     {Fields: fields.FieldSet{Amount: amt("500"), Currency: str("EUR")}},
			}},
			check: func(t *testing.T, r InvoiceRecord) {
				if r.Amount.String() != "500" || r.Currency != "EUR" {
					t.Errorf("amount = %s %s", r.Amount, r.Currency)
				}
			},
		},
		{
			name: "cloud amount trusted with payable label",
			in: Inputs{Evidence: map[SourceKind]Evidence{
				SourceLabels:        {PayableLabel: true, Fields: fields.FieldSet{DueDate: str("2025-03-01"), ProviderName: str("X Kft.")}},
				SourceCloudDocument: {Fields: fields.FieldSet{Amount: amt("700"), Currency: str("HUF")}},
			}},
			check: func(t *testing.T, r InvoiceRecord) {
				if r.Amount.String() != "700" {
					t.Errorf("amount = %s", r.Amount)
				}
			},
		},
		{
			name: "cloud amount trusted for fallback provider on a custom model",
			in: Inputs{
				Evidence: map[SourceKind]Evidence{
					SourceCloudDocument: {Fields: fields.FieldSet{Amount: amt("700"), DueDate: str("2025-02-01")}},
				},
				Hint:        &provider.Hint{Name: "MIHŐ", DefaultType: constants.ChargeUtility, RequiresFallback: true},
				CustomModel: true,
			},
			check: func(t *testing.T, r InvoiceRecord) {
				if r.Amount.String() != "700" || r.ProviderName != "MIHŐ" || r.DueDate != "2025-02-01" {
					t.Errorf("record = %+v", r)
				}
			},
		},
		{
			name: "currency: cloud first, then label, default HUF",
			in: Inputs{Evidence: map[SourceKind]Evidence{
				SourceLabels:        {Fields: complete(fields.FieldSet{Currency: str("HUF")})},
				SourceCloudDocument: {Fields: fields.FieldSet{Currency: str("EUR")}},
			}},
			check: func(t *testing.T, r InvoiceRecord) {
				if r.Currency != "EUR" {
					t.Errorf("currency = %s", r.Currency)
				}
			},
		},
		{
			name: "label amount without unit defaults to HUF over AI currency",
			in: Inputs{Evidence: map[SourceKind]Evidence{
				SourceLabels: {Fields: complete(fields.FieldSet{})},
				SourceAI:     {Fields: fields.FieldSet{Currency: str("USD")}},
			}},
			check: func(t *testing.T, r InvoiceRecord) {
				if r.Currency != "HUF" {
					t.Errorf("currency = %s", r.Currency)
				}
			},
		},
		{
			name: "implausible due dates are skipped",
			in: Inputs{Evidence: map[SourceKind]Evidence{
				SourceLabels:        {Fields: fields.FieldSet{Amount: amt("1"), ProviderName: str("X Kft."), DueDate: str("2019-03-01")}},
				SourceCloudDocument: {Fields: fields.FieldSet{DueDate: str("2031-01-01")}},
				SourceAI:            {Fields: fields.FieldSet{DueDate: str("2025-04-30")}},
			}},
			check: func(t *testing.T, r InvoiceRecord) {
				if r.DueDate != "2025-04-30" {
					t.Errorf("due = %s", r.DueDate)
				}
			},
		},
		{
			name: "cloud name beats hint and label",
			in: Inputs{
				Evidence: map[SourceKind]Evidence{
					SourceLabels:        {Fields: complete(fields.FieldSet{})},
					SourceCloudDocument: {Fields: fields.FieldSet{ProviderName: str("Cloud Zrt.")}},
				},
				Hint: &provider.Hint{Name: "MVM", DefaultType: constants.ChargeUtility},
			},
			check: func(t *testing.T, r InvoiceRecord) {
				if r.ProviderName != "Cloud Zrt." {
					t.Errorf("name = %s", r.ProviderName)
				}
			},
		},
		{
			name: "AI name accepted with a legal suffix",
			in: Inputs{Evidence: map[SourceKind]Evidence{
				SourceLabels: {Fields: fields.FieldSet{Amount: amt("1"), DueDate: str("2025-03-01")}},
				SourceAI:     {Fields: fields.FieldSet{ProviderName: str("Főtáv Zrt."), ChargeType: fields.Type(constants.ChargeCommonCost)}},
			}},
			check: func(t *testing.T, r InvoiceRecord) {
				if r.ProviderName != "Főtáv Zrt." {
					t.Errorf("name = %s", r.ProviderName)
				}
				if r.ChargeType == nil || *r.ChargeType != constants.ChargeCommonCost {
					t.Errorf("type = %v", r.ChargeType)
				}
			},
		},
		{
			name: "AI name without a legal suffix is rejected",
			in: Inputs{Evidence: map[SourceKind]Evidence{
				SourceLabels: {Fields: fields.FieldSet{Amount: amt("1"), DueDate: str("2025-03-01")}},
				SourceAI:     {Fields: fields.FieldSet{ProviderName: str("Kovács János")}},
			}},
			check: nil,
		},
		{
			name: "telecom override wins",
			in: Inputs{
				Evidence: map[SourceKind]Evidence{
					SourceLabels:        {Fields: complete(fields.FieldSet{})},
					SourceCloudDocument: {Fields: fields.FieldSet{ProviderName: str("Cloud Zrt.")}},
				},
				Telecom: true,
			},
			check: func(t *testing.T, r InvoiceRecord) {
				if r.ProviderName != constants.CanonicalTelecomName {
					t.Errorf("name = %s", r.ProviderName)
				}
			},
		},
		{
			name: "hint type wins over AI type",
			in: Inputs{
				Evidence: map[SourceKind]Evidence{
					SourceLabels: {Fields: complete(fields.FieldSet{})},
					SourceAI:     {Fields: fields.FieldSet{ChargeType: fields.Type(constants.ChargeRent)}},
				},
				Hint: &provider.Hint{Name: "Bérbeadó", DefaultType: constants.ChargeRent},
			},
			check: func(t *testing.T, r InvoiceRecord) {
				if r.ChargeType == nil || *r.ChargeType != constants.ChargeRent {
					t.Errorf("type = %v", r.ChargeType)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.Now = fixedNow
			rec, err := Arbitrate(tc.in)
			if tc.check == nil {
				if !errors.Is(err, common.ErrValidation) {
					t.Fatalf("want validation error, got %v (%+v)", err, rec)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tc.check(t, rec)
		})
	}
}

func TestArbitrateIsDeterministic(t *testing.T) {
	in := Inputs{
		Now: fixedNow,
		Evidence: map[SourceKind]Evidence{
			SourceLabels: {Fields: complete(fields.FieldSet{Amount: amt("12500")})},
			SourceAI:     {Fields: fields.FieldSet{Amount: amt("11000"), Currency: str("HUF")}},
		},
	}
	first, _ := Arbitrate(in)
	for i := 0; i < 10; i++ {
		again, _ := Arbitrate(in)
		if !again.Amount.Equal(first.Amount) || again.ProviderName != first.ProviderName {
			t.Fatalf("run %d differs: %+v vs %+v", i, again, first)
		}
	}
}

func TestIsLegalEntityName(t *testing.T) {
	cases := map[string]bool{
		"ELMŰ Nyrt.":        true,
		"Pelda Bt":          true,
		"Vízmű Szolgáltató": true,
		"Kft":               true,
		"Bt":                false,
		"Kovács János":      false,
		"Kftx Consulting":   false,
	}
	for name, want := range cases {
		if got := isLegalEntityName(name); got != want {
			t.Errorf("isLegalEntityName(%q) = %v, want %v", name, got, want)
		}
	}
}
