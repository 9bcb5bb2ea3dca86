package pipeline

import (
	"context"

	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
	"github.com/joseph-ayodele/invoice-autofill/internal/labels"
)

// SourceKind is the closed set of field producers the arbitrator knows.
type SourceKind string

const (
	SourceLabels        SourceKind = "labels"
	SourceAI            SourceKind = "ai"
	SourceCloudDocument SourceKind = "cloud-document"
)

// SourceInput is everything a field source may read.
type SourceInput struct {
	Document extract.RawDocument
	Text     string
}

// Evidence is one source's contribution.
type Evidence struct {
	Kind   SourceKind
	Fields fields.FieldSet
	// PayableLabel is only reported by the label source.
	PayableLabel bool
	Steps        map[string]string
}

// FieldSource is implemented by the label scanner, the AI extractor and the
// cloud document service. Tests substitute synthetic sources.
type FieldSource interface {
	Kind() SourceKind
	Produce(ctx context.Context, in SourceInput) (Evidence, error)
}

type labelSource struct{}

// LabelSource scans the text for the Hungarian billing labels.
func LabelSource() FieldSource { return labelSource{} }

func (labelSource) Kind() SourceKind { return SourceLabels }

func (labelSource) Produce(_ context.Context, in SourceInput) (Evidence, error) {
	res := labels.Extract(in.Text)
	steps := map[string]string{}
	for k, v := range map[string]labels.Step{"amount": res.AmountStep, "due_date": res.DueStep, "name": res.NameStep} {
		if v != "" {
			steps[k] = string(v)
		}
	}
	return Evidence{Kind: SourceLabels, Fields: res.Fields, PayableLabel: res.HasPayableLabel, Steps: steps}, nil
}

type aiSource struct {
	ex extract.FieldExtractor
}

// AISource wraps a FieldExtractor. A nil extractor reports a configuration error.
func AISource(ex extract.FieldExtractor) FieldSource { return aiSource{ex: ex} }

func (aiSource) Kind() SourceKind { return SourceAI }

func (s aiSource) Produce(ctx context.Context, in SourceInput) (Evidence, error) {
	if s.ex == nil {
		return Evidence{Kind: SourceAI}, common.ConfigurationError("AI field extraction")
	}
	fs, err := s.ex.Extract(ctx, in.Text)
	return Evidence{Kind: SourceAI, Fields: fs}, err
}

type documentSource struct {
	an extract.DocumentAnalyzer
}

// DocumentSource wraps the cloud document service, which reads the PDF bytes
// rather than the text.
func DocumentSource(an extract.DocumentAnalyzer) FieldSource { return documentSource{an: an} }

func (documentSource) Kind() SourceKind { return SourceCloudDocument }

func (s documentSource) Produce(ctx context.Context, in SourceInput) (Evidence, error) {
	if s.an == nil {
		return Evidence{Kind: SourceCloudDocument}, common.ConfigurationError("document analysis")
	}
	fs, err := s.an.Analyze(ctx, in.Document.Bytes)
	return Evidence{Kind: SourceCloudDocument, Fields: fs}, err
}
