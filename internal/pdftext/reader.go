// Package pdftext reads the embedded text layer of a PDF.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
)

var disableConfigDir sync.Once

// Reader extracts text rows with ledongthuc/pdf and validates structure and
// page count with pdfcpu. The document is rejected only when neither parser
// can open it.
type Reader struct {
	logger *slog.Logger
}

func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	// pdfcpu otherwise writes a config directory under $HOME on first use
	disableConfigDir.Do(api.DisableConfigDir)
	return &Reader{logger: logger}
}

// Read returns the text of every page, rows top to bottom, pages separated by
// a blank line. An image-only PDF yields empty content and no error.
func (r *Reader) Read(data []byte) (extract.ExtractedText, error) {
	start := time.Now()
	res := extract.ExtractedText{Provenance: constants.ProvenanceTextLayer}
	if len(data) == 0 {
		return res, common.ExtractionError("empty PDF", nil)
	}

	pages, structErr := pageCount(data)
	content, n, textErr := textLayer(data)

	switch {
	case structErr != nil && textErr != nil:
		r.logger.Error("pdftext.read.failed", "struct_error", structErr, "text_error", textErr)
		return res, common.ExtractionError("the PDF could not be parsed", errors.Join(structErr, textErr))
	case textErr != nil:
		// structurally sound but the text layer is unreadable; OCR takes over
		res.Warnings = append(res.Warnings, "text layer: "+textErr.Error())
		content = ""
	case structErr != nil:
		res.Warnings = append(res.Warnings, "structure: "+structErr.Error())
		pages = n
	}

	res.Content = content
	res.PageCount = &pages
	res.Duration = time.Since(start)
	r.logger.Debug("pdftext.read.ok",
		"pages", pages,
		"chars", len([]rune(content)),
		"duration_ms", res.Duration.Milliseconds(),
		"warnings", len(res.Warnings),
	)
	return res, nil
}

func pageCount(data []byte) (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdfcpu panic: %v", rec)
		}
	}()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx.PageCount, nil
}

func textLayer(data []byte) (text string, pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf panic: %v", rec)
		}
	}()
	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	pages = rd.NumPage()
	var out []string
	for i := 1; i <= pages; i++ {
		page := rd.Page(i)
		if page.V.IsNull() {
			continue
		}
		if t := pageText(page); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n\n"), pages, nil
}

// pageText prefers positioned rows so that label and value stay on the same
// line; the plain-text walk is the fallback when no rows come back.
func pageText(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			if line := joinRow(row.Content); strings.TrimSpace(line) != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			return strings.Join(lines, "\n")
		}
	}
	plain, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(plain)
}

// joinRow glues fragments that share an x position (kerned TJ pieces) and
// separates the rest with a space.
func joinRow(texts []pdf.Text) string {
	var b strings.Builder
	for i, t := range texts {
		if i > 0 && t.X != texts[i-1].X {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
	}
	return strings.TrimSpace(b.String())
}
