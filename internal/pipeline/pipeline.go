// Package pipeline turns one uploaded PDF into an invoice record: text layer,
// OCR fallbacks, field sources, then arbitration.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
	"github.com/joseph-ayodele/invoice-autofill/internal/pdftext"
	"github.com/joseph-ayodele/invoice-autofill/internal/provider"
)

// Config is injected by the caller; the pipeline never reads the environment.
type Config struct {
	Debug bool
	// CustomModel mirrors the document service's model id being non-default.
	CustomModel bool
	Now         func() time.Time
}

// Deps are the collaborators. Any of them may be nil: Text defaults to the
// PDF text-layer reader, a nil OCR reports itself as not configured.
type Deps struct {
	Text     extract.TextLayerReader
	OCR      extract.OCR
	Detector *provider.Detector
	Labels   FieldSource
	AI       FieldSource
	Document FieldSource
}

type Pipeline struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
}

func NewPipeline(deps Deps, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if deps.Text == nil {
		deps.Text = pdftext.NewReader(logger)
	}
	if deps.OCR == nil {
		deps.OCR = unconfiguredOCR{}
	}
	if deps.Detector == nil {
		deps.Detector = provider.NewDetector()
	}
	if deps.Labels == nil {
		deps.Labels = LabelSource()
	}
	if deps.AI == nil {
		deps.AI = AISource(nil)
	}
	if deps.Document == nil {
		deps.Document = DocumentSource(nil)
	}
	return &Pipeline{cfg: cfg, deps: deps, logger: logger}
}

// Extract never returns an error: every failure is folded into the result.
func (p *Pipeline) Extract(ctx context.Context, doc extract.RawDocument) ExtractionResult {
	ctx, reqID := common.EnsureRequestID(ctx)
	start := time.Now()
	diag := &Diagnostics{RequestID: reqID, Sources: map[SourceKind]*SourceReport{}}

	p.logger.Info("pipeline.extract.start",
		"req_id", reqID,
		"filename", doc.Filename,
		"mime", doc.MimeType,
		"bytes", len(doc.Bytes),
	)

	rec, err := p.run(ctx, doc, diag)
	diag.DurationMS = time.Since(start).Milliseconds()

	var res ExtractionResult
	if err != nil {
		res = ExtractionResult{OK: false, Error: common.UserMessage(err), Code: common.CodeOf(err)}
		p.logger.Warn("pipeline.extract.failed",
			"req_id", reqID,
			"code", res.Code,
			"error", err,
			"duration_ms", diag.DurationMS,
		)
	} else {
		res = ExtractionResult{OK: true, Data: &rec}
		p.logger.Info("pipeline.extract.ok",
			"req_id", reqID,
			"provenance", diag.Provenance,
			"provider", rec.ProviderName,
			"duration_ms", diag.DurationMS,
		)
	}
	if p.cfg.Debug {
		res.Debug = diag
	}
	return res
}

func (p *Pipeline) run(ctx context.Context, doc extract.RawDocument, diag *Diagnostics) (InvoiceRecord, error) {
	if !constants.IsPDFMime(doc.MimeType) {
		return InvoiceRecord{}, common.TypeMismatchError(doc.MimeType)
	}

	layer, err := p.deps.Text.Read(doc.Bytes)
	if err != nil {
		return InvoiceRecord{}, err
	}
	text := layer
	diag.Warnings = append(diag.Warnings, layer.Warnings...)

	hint, hasHint := p.deps.Detector.Detect(layer.Content)

	if text.Empty() {
		ocrText, errs := p.deps.OCR.FromPDF(ctx, doc.Bytes)
		diag.OCRErrors = append(diag.OCRErrors, errs...)
		if !ocrText.Empty() {
			text = withPageCount(ocrText, layer.PageCount)
		}
	}

	// OCR text can reveal a provider the text layer hid
	if !hasHint && !text.Empty() {
		hint, hasHint = p.deps.Detector.Detect(text.Content)
	}

	requiresFallback := hasHint && hint.RequiresFallback
	if requiresFallback && !text.Empty() {
		img, errs := p.deps.OCR.FromFirstPage(ctx, doc.Bytes)
		diag.OCRErrors = append(diag.OCRErrors, errs...)
		if !img.Empty() {
			text = withPageCount(img, layer.PageCount)
		}
	}

	in := SourceInput{Document: doc, Text: text.Content}
	evidence := map[SourceKind]Evidence{}

	if text.Empty() || requiresFallback {
		p.produce(ctx, p.deps.Document, in, evidence, diag)
	}
	if text.Empty() && evidence[SourceCloudDocument].Fields.IsEmpty() {
		diag.Provenance = constants.ProvenanceNone
		return InvoiceRecord{}, common.ExtractionError("no readable text could be obtained from the document", nil)
	}

	if !text.Empty() {
		p.produce(ctx, p.deps.Labels, in, evidence, diag)
		p.produce(ctx, p.deps.AI, in, evidence, diag)
	}

	diag.TextSample = sample(text.Content)
	diag.Provenance = text.Provenance
	diag.PageCount = text.PageCount
	diag.PayableLabel = evidence[SourceLabels].PayableLabel
	diag.Telecom = p.deps.Detector.IsTelecom(layer.Content) || p.deps.Detector.IsTelecom(text.Content)

	inputs := Inputs{
		Evidence:    evidence,
		Telecom:     diag.Telecom,
		CustomModel: p.cfg.CustomModel,
		Now:         p.cfg.Now(),
	}
	if hasHint {
		h := hint
		inputs.Hint = &h
		diag.Hint = &h
	}
	return Arbitrate(inputs)
}

// produce runs one source and records its outcome. Source errors are never fatal.
func (p *Pipeline) produce(ctx context.Context, src FieldSource, in SourceInput, evidence map[SourceKind]Evidence, diag *Diagnostics) {
	ev, err := src.Produce(ctx, in)
	report := &SourceReport{Fields: ev.Fields, Steps: ev.Steps}
	if err != nil {
		report.Error = common.UserMessage(err)
		report.Code = common.CodeOf(err)
		p.logger.Warn("pipeline.source.failed",
			"req_id", common.RequestIDFromContext(ctx),
			"source", src.Kind(),
			"code", report.Code,
			"error", err,
		)
		ev = Evidence{Kind: src.Kind()}
	}
	evidence[src.Kind()] = ev
	diag.Sources[src.Kind()] = report
}

type unconfiguredOCR struct{}

func (unconfiguredOCR) FromPDF(context.Context, []byte) (extract.ExtractedText, []string) {
	return extract.ExtractedText{}, []string{"ocr: not configured"}
}

func (unconfiguredOCR) FromFirstPage(context.Context, []byte) (extract.ExtractedText, []string) {
	return extract.ExtractedText{}, []string{"ocr: not configured"}
}

func withPageCount(t extract.ExtractedText, pages *int) extract.ExtractedText {
	if t.PageCount == nil {
		t.PageCount = pages
	}
	return t
}
