package async

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
)

// Job is one document waiting for extraction.
type Job struct {
	Path        string
	Doc         extract.RawDocument
	SubmittedAt time.Time
}

// Outcome is reported once per job, from the worker goroutine that ran it.
type Outcome struct {
	Job    Job
	JobID  uuid.UUID
	Result pipeline.ExtractionResult
	Err    error
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
