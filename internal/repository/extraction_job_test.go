package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: "file::memory:?_pragma=foreign_keys(1)"}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close(nil) })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestExtractionJobLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractionJobRepository(openTestDB(t), nil)

	job, err := repo.Start(ctx, "invoice.pdf", "abc123")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if job.Status != constants.JobStatusRunning {
		t.Errorf("status = %s", job.Status)
	}

	res := pipeline.ExtractionResult{OK: true, Data: &pipeline.InvoiceRecord{
		Amount:       decimal.RequireFromString("12500"),
		Currency:     "HUF",
		DueDate:      "2025-03-15",
		ProviderName: "ABC Energia Kft.",
		ChargeType:   fields.Type(constants.ChargeUtility),
	}}
	if err := repo.Finish(ctx, job.ID, res); err != nil {
		t.Fatalf("finish: %v", err)
	}

	got, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != constants.JobStatusSucceeded || !got.Finished() {
		t.Errorf("status = %s", got.Status)
	}
	if fields.Deref(got.Amount) != "12500" || fields.Deref(got.Provider) != "ABC Energia Kft." ||
		fields.Deref(got.ChargeType) != "UTILITY" || fields.Deref(got.DueDate) != "2025-03-15" {
		t.Errorf("job = %+v", got)
	}
	if got.FinishedAt == nil {
		t.Error("finished_at not set")
	}
	var decoded pipeline.ExtractionResult
	if err := json.Unmarshal(got.ResultJSON, &decoded); err != nil || !decoded.OK || decoded.Data.Amount.String() != "12500" {
		t.Errorf("result json = %s (%v)", got.ResultJSON, err)
	}
}

func TestExtractionJobFailure(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractionJobRepository(openTestDB(t), nil)

	job, err := repo.Enqueue(ctx, "scan.pdf", "def456")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if job.Status != constants.JobStatusQueued {
		t.Errorf("status = %s", job.Status)
	}
	if err := repo.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	fail := pipeline.ExtractionResult{Error: "no readable text could be obtained from the document", Code: common.CodeExtraction}
	if err := repo.Finish(ctx, job.ID, fail); err != nil {
		t.Fatalf("finish: %v", err)
	}
	got, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != constants.JobStatusFailed || fields.Deref(got.ErrorCode) != common.CodeExtraction {
		t.Errorf("job = %+v", got)
	}
	if got.Amount != nil || got.Provider != nil {
		t.Error("failed job must not carry record fields")
	}
}

func TestExtractionJobLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractionJobRepository(openTestDB(t), nil)

	if _, err := repo.Get(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("get missing: %v", err)
	}
	if _, err := repo.LatestByHash(ctx, "nope"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("latest missing: %v", err)
	}
	if err := repo.MarkRunning(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("mark running missing: %v", err)
	}

	first, _ := repo.Start(ctx, "a.pdf", "same")
	second, _ := repo.Start(ctx, "b.pdf", "same")
	_, _ = repo.Start(ctx, "c.pdf", "other")

	latest, err := repo.LatestByHash(ctx, "same")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != second.ID && latest.ID != first.ID {
		t.Errorf("latest = %s", latest.ID)
	}
	if latest.Filename == "c.pdf" {
		t.Error("hash filter ignored")
	}

	all, err := repo.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("list len = %d", len(all))
	}
}
