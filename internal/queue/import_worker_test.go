package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
)

type fakeImporter struct {
	gotID  uuid.UUID
	gotDoc extract.RawDocument
	reqID  string
	err    error
}

func (f *fakeImporter) ProcessQueued(ctx context.Context, jobID uuid.UUID, doc extract.RawDocument) (pipeline.ExtractionResult, error) {
	f.gotID, f.gotDoc = jobID, doc
	f.reqID = common.RequestIDFromContext(ctx)
	return pipeline.ExtractionResult{OK: false, Code: common.CodeValidation}, f.err
}

func TestImportWorkerProcessTask(t *testing.T) {
	jobID := uuid.New()
	task, err := NewImportTask(ImportPayload{
		JobID:    jobID.String(),
		Filename: "a.pdf",
		MimeType: constants.MimePDF,
		PDF:      []byte("%PDF-1.4"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if task.Type() != TypeInvoiceImport {
		t.Fatalf("type = %s", task.Type())
	}

	imp := &fakeImporter{}
	if err := NewImportWorker(imp, nil).ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if imp.gotID != jobID || string(imp.gotDoc.Bytes) != "%PDF-1.4" || imp.gotDoc.Filename != "a.pdf" {
		t.Fatalf("importer got %v %+v", imp.gotID, imp.gotDoc)
	}
	if imp.reqID != jobID.String() {
		t.Errorf("request id = %q", imp.reqID)
	}
}

func TestImportWorkerErrors(t *testing.T) {
	valid, _ := NewImportTask(ImportPayload{JobID: uuid.NewString(), Filename: "a.pdf"})
	tests := []struct {
		name      string
		task      *asynq.Task
		importErr error
		skipRetry bool
	}{
		{name: "bad json", task: asynq.NewTask(TypeInvoiceImport, []byte("{")), skipRetry: true},
		{name: "bad job id", task: asynq.NewTask(TypeInvoiceImport, []byte(`{"job_id":"nope"}`)), skipRetry: true},
		{name: "unknown job", task: valid, importErr: common.ErrNotFound, skipRetry: true},
		{name: "database down", task: valid, importErr: common.ErrDatabase, skipRetry: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewImportWorker(&fakeImporter{err: tt.importErr}, nil)
			err := w.ProcessTask(context.Background(), tt.task)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, asynq.SkipRetry); got != tt.skipRetry {
				t.Fatalf("SkipRetry = %v, want %v (err %v)", got, tt.skipRetry, err)
			}
		})
	}
}
