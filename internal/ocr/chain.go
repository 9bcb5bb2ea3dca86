package ocr

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
	"github.com/joseph-ayodele/invoice-autofill/internal/textnorm"
)

// billingToken is the folded stem of "Fizetendő"; when cloud engine A misses it
// engine B gets a second pass.
const billingToken = "fizetend"

type pdfRecognizer interface {
	RecognizePDF(ctx context.Context, pdf []byte) (string, error)
}

type cloudRecognizer interface {
	Configured() bool
	Recognize(ctx context.Context, data []byte, filename string, engine Engine) (string, error)
}

type firstPageRasterizer interface {
	RasterizeFirstPage(ctx context.Context, pdf []byte) []byte
}

// Chain orders the OCR engines. Every method returns the best text it found
// plus the errors of the engines that failed; it never returns an error itself.
type Chain struct {
	local  pdfRecognizer
	cloud  cloudRecognizer
	raster firstPageRasterizer
	logger *slog.Logger
}

var _ extract.OCR = (*Chain)(nil)

// NewChain accepts nil engines; a missing engine is skipped and reported.
func NewChain(local pdfRecognizer, cloud cloudRecognizer, raster firstPageRasterizer, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{local: local, cloud: cloud, raster: raster, logger: logger}
}

// FromPDF runs the local engine on the PDF, then the cloud service on the
// original bytes.
func (c *Chain) FromPDF(ctx context.Context, pdf []byte) (extract.ExtractedText, []string) {
	var errs []string
	start := time.Now()
	reqID := common.RequestIDFromContext(ctx)

	if c.local != nil {
		text, err := c.local.RecognizePDF(ctx, pdf)
		switch {
		case err != nil:
			errs = append(errs, "local ocr: "+err.Error())
		case strings.TrimSpace(text) != "":
			c.logger.Info("ocr.local.ok", "req_id", reqID, "chars", len([]rune(text)))
			return ocrText(text, constants.ProvenanceOCRLocal, start), errs
		}
	} else {
		errs = append(errs, "local ocr: "+common.ConfigurationError("local OCR").Message)
	}

	if ctx.Err() != nil {
		return extract.ExtractedText{}, append(errs, ctx.Err().Error())
	}
	if !c.cloudReady(&errs) {
		return extract.ExtractedText{}, errs
	}
	text, err := c.cloud.Recognize(ctx, pdf, "invoice.pdf", EngineA)
	if err != nil {
		errs = append(errs, "cloud ocr: "+common.UserMessage(err))
		return extract.ExtractedText{}, errs
	}
	if strings.TrimSpace(text) == "" {
		return extract.ExtractedText{}, errs
	}
	return ocrText(text, constants.ProvenanceOCRCloudA, start), errs
}

// FromImage runs cloud engine A on a page image and adds engine B's output
// when the billing label is not found in A's text.
func (c *Chain) FromImage(ctx context.Context, png []byte) (extract.ExtractedText, []string) {
	var errs []string
	start := time.Now()
	if !c.cloudReady(&errs) {
		return extract.ExtractedText{}, errs
	}

	a, err := c.cloud.Recognize(ctx, png, "page.png", EngineA)
	if err != nil {
		errs = append(errs, "cloud ocr engine A: "+common.UserMessage(err))
	}
	if strings.Contains(textnorm.Fold(a), billingToken) {
		return ocrText(a, constants.ProvenanceOCRCloudA, start), errs
	}
	if ctx.Err() != nil {
		errs = append(errs, ctx.Err().Error())
		return nonEmpty(a, constants.ProvenanceOCRCloudA, start), errs
	}

	b, err := c.cloud.Recognize(ctx, png, "page.png", EngineB)
	if err != nil {
		errs = append(errs, "cloud ocr engine B: "+common.UserMessage(err))
	}
	if strings.TrimSpace(b) == "" {
		return nonEmpty(a, constants.ProvenanceOCRCloudA, start), errs
	}
	joined := strings.TrimSpace(strings.Join(nonBlank(a, b), "\n"))
	c.logger.Info("ocr.cloud.second_pass", "req_id", common.RequestIDFromContext(ctx), "chars", len([]rune(joined)))
	return ocrText(joined, constants.ProvenanceOCRCloudB, start), errs
}

// FromFirstPage rasterizes page 1 and hands the image to FromImage.
func (c *Chain) FromFirstPage(ctx context.Context, pdf []byte) (extract.ExtractedText, []string) {
	if c.raster == nil {
		return extract.ExtractedText{}, []string{"rasterize: " + common.ConfigurationError("rasterizer").Message}
	}
	png := c.raster.RasterizeFirstPage(ctx, pdf)
	if png == nil {
		return extract.ExtractedText{}, []string{"rasterize: " + errNoImage.Error()}
	}
	return c.FromImage(ctx, png)
}

func (c *Chain) cloudReady(errs *[]string) bool {
	if c.cloud == nil || !c.cloud.Configured() {
		*errs = append(*errs, "cloud ocr: "+common.ConfigurationError("cloud OCR").Message)
		return false
	}
	return true
}

func ocrText(text string, prov constants.TextProvenance, start time.Time) extract.ExtractedText {
	return extract.ExtractedText{
		Content:    text,
		Provenance: prov,
		Duration:   time.Since(start),
		Confidence: heuristicConfidence(text),
	}
}

func nonEmpty(text string, prov constants.TextProvenance, start time.Time) extract.ExtractedText {
	if strings.TrimSpace(text) == "" {
		return extract.ExtractedText{}
	}
	return ocrText(text, prov, start)
}

func nonBlank(parts ...string) []string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
