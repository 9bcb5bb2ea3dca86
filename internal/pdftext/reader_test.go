package pdftext

import (
	"errors"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/pdftext/pdffixture"
)

func TestReadTextLayer(t *testing.T) {
	r := NewReader(nil)
	got, err := r.Read(pdffixture.TextPDF(
		"Szolgaltato neve: Pelda Kft.",
		"Fizetendo osszeg: 12 500 Ft",
		"Fizetesi hatarido: 2025.03.15",
	))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Provenance != constants.ProvenanceTextLayer {
		t.Errorf("provenance = %q", got.Provenance)
	}
	if got.PageCount == nil || *got.PageCount != 1 {
		t.Errorf("page count = %v, want 1", got.PageCount)
	}
	lines := strings.Split(got.Content, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), got.Content)
	}
	if !strings.Contains(lines[0], "Szolgaltato neve") || !strings.Contains(lines[1], "12 500 Ft") {
		t.Errorf("rows out of order: %q", got.Content)
	}
}

func TestReadImageOnly(t *testing.T) {
	got, err := NewReader(nil).Read(pdffixture.ImageOnlyPDF())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !got.Empty() {
		t.Errorf("expected empty text layer, got %q", got.Content)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":     nil,
		"not a pdf": []byte("this is plain text, not a PDF"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewReader(nil).Read(data)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, common.ErrExtraction) {
				t.Errorf("error %v is not an extraction error", err)
			}
		})
	}
}

func TestJoinRow(t *testing.T) {
	tests := []struct {
		name  string
		texts []pdfText
		want  string
	}{
		{"separate words", []pdfText{{"Fizetendo", 10}, {"osszeg:", 80}}, "Fizetendo osszeg:"},
		{"kerned fragments", []pdfText{{"Fizet", 10}, {"endo", 10}}, "Fizetendo"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinRow(toTexts(tt.texts)); got != tt.want {
				t.Errorf("joinRow = %q, want %q", got, tt.want)
			}
		})
	}
}

type pdfText struct {
	s string
	x float64
}

func toTexts(in []pdfText) []pdf.Text {
	out := make([]pdf.Text, 0, len(in))
	for _, t := range in {
		out = append(out, pdf.Text{S: t.s, X: t.x})
	}
	return out
}
