package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
)

// Importer runs a job recorded as QUEUED. *core.Processor implements it.
type Importer interface {
	ProcessQueued(ctx context.Context, jobID uuid.UUID, doc extract.RawDocument) (pipeline.ExtractionResult, error)
}

type ImportWorker struct {
	importer Importer
	logger   *slog.Logger
}

func NewImportWorker(importer Importer, logger *slog.Logger) *ImportWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportWorker{importer: importer, logger: logger}
}

// ProcessTask returns an error only when the job log could not be updated.
// A failed extraction is a finished job, so it is not retried.
func (w *ImportWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		return fmt.Errorf("parse job ID: %v: %w", err, asynq.SkipRetry)
	}

	ctx = common.WithRequestID(ctx, jobID.String())
	w.logger.Info("queue.import.start", "job_id", jobID, "filename", payload.Filename)

	res, err := w.importer.ProcessQueued(ctx, jobID, extract.RawDocument{
		Bytes:    payload.PDF,
		MimeType: payload.MimeType,
		Filename: payload.Filename,
	})
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("job %s: %v: %w", jobID, err, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("import job %s: %w", jobID, err)
	}
	w.logger.Info("queue.import.done", "job_id", jobID, "ok", res.OK, "code", res.Code)
	return nil
}
