// Package export writes batch extraction outcomes as an XLSX report.
package export

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
)

const sheet = "Invoices"

// Row is one processed file.
type Row struct {
	Path    string
	JobID   uuid.UUID
	Skipped bool // already had a finished job
	Result  pipeline.ExtractionResult
	Err     error
}

var headers = []string{
	"File",
	"Status",
	"Provider",
	"Amount",
	"Currency",
	"Due Date",
	"Type",
	"Error Code",
	"Error",
	"Job ID",
}

// WriteXLSX renders rows into one sheet and writes the workbook to w.
func WriteXLSX(w io.Writer, rows []Row, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}

	for i, r := range rows {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.Path)
		write(2, status(r))
		if r.JobID != uuid.Nil {
			write(10, r.JobID.String())
		}
		if r.Err != nil {
			write(9, truncate(r.Err.Error(), 240))
			continue
		}
		if d := r.Result.Data; r.Result.OK && d != nil {
			write(3, d.ProviderName)
			amount, _ := d.Amount.Float64()
			write(4, amount)
			write(5, d.Currency)
			write(6, d.DueDate)
			if d.ChargeType != nil {
				write(7, string(*d.ChargeType))
			}
			continue
		}
		write(8, r.Result.Code)
		write(9, truncate(r.Result.Error, 240))
	}

	_ = f.SetColWidth(sheet, "A", "A", 48) // path
	_ = f.SetColWidth(sheet, "B", "B", 12)
	_ = f.SetColWidth(sheet, "C", "C", 36) // provider
	_ = f.SetColWidth(sheet, "D", "G", 14)
	_ = f.SetColWidth(sheet, "H", "H", 20)
	_ = f.SetColWidth(sheet, "I", "I", 60) // error
	_ = f.SetColWidth(sheet, "J", "J", 38)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func status(r Row) string {
	switch {
	case r.Skipped:
		return "SKIPPED"
	case r.Err != nil, !r.Result.OK:
		return "FAILED"
	default:
		return "OK"
	}
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	if n <= 1 {
		return string(rs[:n])
	}
	return string(rs[:n-1]) + "…"
}
