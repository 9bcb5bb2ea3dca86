// Package extract holds the value types and stage interfaces shared by the
// text sources and the field extractors.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
)

// RawDocument is one uploaded file. It is never mutated.
type RawDocument struct {
	Bytes    []byte
	MimeType string
	Filename string
}

// ExtractedText is the output of one text source.
type ExtractedText struct {
	Content    string
	Provenance constants.TextProvenance
	PageCount  *int
	Duration   time.Duration
	Confidence float32 // OCR only, 0..1
	Warnings   []string
}

// Empty reports whether the text carries anything but whitespace.
func (t ExtractedText) Empty() bool {
	return strings.TrimSpace(t.Content) == ""
}

// TextLayerReader is Stage 1: PDF bytes -> embedded text.
type TextLayerReader interface {
	Read(pdf []byte) (ExtractedText, error)
}

// OCR covers both fallback paths: the whole PDF when there is no text layer,
// and the first page as an image when the provider needs it.
type OCR interface {
	FromPDF(ctx context.Context, pdf []byte) (ExtractedText, []string)
	FromFirstPage(ctx context.Context, pdf []byte) (ExtractedText, []string)
}

// DocumentAnalyzer is the cloud service that returns fields directly from the PDF.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, pdf []byte) (fields.FieldSet, error)
}

// FieldExtractor is Stage 2: text -> fields (LLM).
type FieldExtractor interface {
	Extract(ctx context.Context, text string) (fields.FieldSet, error)
}
