package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
)

func TestWriteXLSX(t *testing.T) {
	jobID := uuid.New()
	rows := []Row{
		{
			Path:  "/in/mvm.pdf",
			JobID: jobID,
			Result: pipeline.ExtractionResult{OK: true, Data: &pipeline.InvoiceRecord{
				Amount:       decimal.RequireFromString("15230"),
				Currency:     "HUF",
				DueDate:      "2025-03-05",
				ProviderName: "MVM Next Energiakereskedelmi Zrt.",
				ChargeType:   fields.Type(constants.ChargeUtility),
			}},
		},
		{
			Path:   "/in/scan.pdf",
			Result: pipeline.ExtractionResult{OK: false, Code: common.CodeValidation, Error: "due_date is required"},
		},
		{Path: "/in/broken.pdf", Err: errors.New("open failed")},
		{Path: "/in/old.pdf", Skipped: true},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, rows, nil); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	got, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("rows = %d, want 5", len(got))
	}
	if got[0][0] != "File" || got[0][9] != "Job ID" {
		t.Errorf("header = %v", got[0])
	}

	cells := []struct {
		cell, want string
	}{
		{"B2", "OK"},
		{"C2", "MVM Next Energiakereskedelmi Zrt."},
		{"D2", "15230"},
		{"F2", "2025-03-05"},
		{"G2", "UTILITY"},
		{"J2", jobID.String()},
		{"B3", "FAILED"},
		{"H3", common.CodeValidation},
		{"I3", "due_date is required"},
		{"I4", "open failed"},
		{"B5", "SKIPPED"},
	}
	for _, c := range cells {
		v, err := f.GetCellValue(sheet, c.cell)
		if err != nil {
			t.Fatalf("%s: %v", c.cell, err)
		}
		if v != c.want {
			t.Errorf("%s = %q, want %q", c.cell, v, c.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("árvíztűrő", 4); got != "árv…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
}
