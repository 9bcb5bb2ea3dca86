package labels

import (
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
	"github.com/joseph-ayodele/invoice-autofill/internal/textnorm"
)

func shifted(t *testing.T, s string) string {
	t.Helper()
	b, err := charmap.Windows1250.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encode %q: %v", s, err)
	}
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune((int(c) - textnorm.ShiftOffset + 256) & 0xff)
	}
	return string(r)
}

type want struct {
	amount     string
	currency   string
	due        string
	name       string
	amountStep Step
	dueStep    Step
	nameStep   Step
}

func check(t *testing.T, got Result, w want) {
	t.Helper()
	amount := ""
	if got.Fields.Amount != nil {
		amount = got.Fields.Amount.String()
	}
	if amount != w.amount {
		t.Errorf("amount = %q, want %q", amount, w.amount)
	}
	if c := fields.Deref(got.Fields.Currency); c != w.currency {
		t.Errorf("currency = %q, want %q", c, w.currency)
	}
	if d := fields.Deref(got.Fields.DueDate); d != w.due {
		t.Errorf("due = %q, want %q", d, w.due)
	}
	if n := fields.Deref(got.Fields.ProviderName); n != w.name {
		t.Errorf("name = %q, want %q", n, w.name)
	}
	if got.AmountStep != w.amountStep {
		t.Errorf("amount step = %q, want %q", got.AmountStep, w.amountStep)
	}
	if got.DueStep != w.dueStep {
		t.Errorf("due step = %q, want %q", got.DueStep, w.dueStep)
	}
	if got.NameStep != w.nameStep {
		t.Errorf("name step = %q, want %q", got.NameStep, w.nameStep)
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want want
	}{
		{
			name: "labels on one line each",
			raw:  "Szolgáltató neve: Példa Energia Kft.\nFizetendő összeg: 12 500 Ft\nFizetési határidő: 2025.03.15.",
			want: want{
				amount: "12500", currency: "HUF", due: "2025-03-15", name: "Példa Energia Kft.",
				amountStep: StepPlain, dueStep: StepPlain, nameStep: StepLine,
			},
		},
		{
			name: "values below the labels",
			raw:  "Fizetendő összeg (bruttó)\n12 500 Ft\nFizetési határidő (napon belül)\n2025-04-01",
			want: want{
				amount: "12500", currency: "HUF", due: "2025-04-01",
				amountStep: StepLookahead, dueStep: StepLookahead,
			},
		},
		{
			name: "unparseable value falls through to a later step",
			raw:  "Fizetendő összeg: -\nFizetendő összeg (bruttó)\n9 990 Ft",
			want: want{amount: "9990", currency: "HUF", amountStep: StepLookahead},
		},
		{
			name: "provider name on the next line",
			raw:  "Szolgáltató neve:\nMiskolci Hőszolgáltató Kft.\nÖsszesen: 1000",
			want: want{name: "Miskolci Hőszolgáltató Kft.", nameStep: StepLine},
		},
		{
			name: "amount without unit has no currency",
			raw:  "Fizetendő összeg: 1.234,56",
			want: want{amount: "1234.56", amountStep: StepPlain},
		},
		{
			name: "encoded amount and due date",
			raw:  ")L]HWHQG5 VV]HJ: 12.500\n)L]HWpVL KDWiULG: 2025.06.30",
			want: want{
				amount: "12500", currency: "HUF", due: "2025-06-30",
				amountStep: StepEncodedASCII, dueStep: StepEncodedASCII,
			},
		},
		{
			name: "encoded amount split across lines",
			raw:  ")L]HWHN\nVegosszeg: 45.000",
			want: want{amount: "45000", currency: "HUF", amountStep: StepEncodedRaw},
		},
		{
			name: "value stops at the end of its line",
			raw:  "Fizetendő összeg: 12 500\n1117 Budapest, Fő utca 1.\nFizetési határidő: 2025.03.15",
			want: want{
				amount: "12500", due: "2025-03-15",
				amountStep: StepPlain, dueStep: StepPlain,
			},
		},
		{
			name: "due date does not absorb the next line",
			raw:  "Fizetési határidő: 2025.03.15\n12 Ft kezelési díj\nFizetendő összeg: 3 000 Ft",
			want: want{
				amount: "3000", currency: "HUF", due: "2025-03-15",
				amountStep: StepPlain, dueStep: StepPlain,
			},
		},
		{
			name: "readable text containing 090",
			raw:  "Szolgaltato neve: ABC Energia Kft.\nFizetendo osszeg: 12 090 Ft\nFizetesi hatarido: 2025.03.15",
			want: want{
				amount: "12090", currency: "HUF", due: "2025-03-15", name: "ABC Energia Kft.",
				amountStep: StepPlain, dueStep: StepPlain, nameStep: StepLine,
			},
		},
		{
			name: "no labels",
			raw:  "Köszönjük, hogy minket választott.",
			want: want{},
		},
		{
			name: "blank input",
			raw:  "   \n  ",
			want: want{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check(t, Extract(tt.raw), tt.want)
		})
	}
}

func TestExtractShiftedTextLayer(t *testing.T) {
	raw := shifted(t, "Fizetendő összeg: 8 990 Ft\nFizetési határidő: 2025.05.20.")
	got := Extract(raw)
	check(t, got, want{
		amount: "8990", currency: "HUF", due: "2025-05-20",
		amountStep: StepDeShifted, dueStep: StepDeShifted,
	})
	if !got.HasPayableLabel {
		t.Error("HasPayableLabel = false for a shifted payable label")
	}
}

func TestHasPayableLabel(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"Fizetendő összeg: 100 Ft", true},
		{"FIZETENDŐ: 100 Ft", true},
		{"Számla összesen: 100 Ft", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Extract(tt.raw).HasPayableLabel; got != tt.want {
			t.Errorf("Extract(%q).HasPayableLabel = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
