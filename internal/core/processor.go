package core

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-autofill/internal/cache"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/entity"
	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
	"github.com/joseph-ayodele/invoice-autofill/internal/repository"
)

// Extractor is satisfied by *pipeline.Pipeline.
type Extractor interface {
	Extract(ctx context.Context, doc extract.RawDocument) pipeline.ExtractionResult
}

// Processor coordinates the result cache, the pipeline and the job log.
type Processor struct {
	logger    *slog.Logger
	extractor Extractor
	jobs      repository.ExtractionJobRepository
	cache     *cache.ResultCache
}

// NewProcessor wires the collaborators. jobs and resultCache may be nil:
// without a job log only Extract is usable, without a cache every call runs
// the pipeline.
func NewProcessor(
	logger *slog.Logger,
	extractor Extractor,
	jobs repository.ExtractionJobRepository,
	resultCache *cache.ResultCache,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:    logger,
		extractor: extractor,
		jobs:      jobs,
		cache:     resultCache,
	}
}

// Extract runs one document through the cache and the pipeline. Cache
// failures are logged and never fail the request.
func (p *Processor) Extract(ctx context.Context, doc extract.RawDocument) pipeline.ExtractionResult {
	hash := cache.ContentHash(doc.Bytes)
	if res, hit, err := p.cache.Get(ctx, hash); err != nil {
		p.logger.Warn("processor.cache.get_failed", "hash", hash, "err", err)
	} else if hit {
		p.logger.Info("processor.cache.hit", "hash", hash, "filename", doc.Filename)
		return res
	}

	res := p.extractor.Extract(ctx, doc)
	if err := p.cache.Put(ctx, hash, res); err != nil {
		p.logger.Warn("processor.cache.put_failed", "hash", hash, "err", err)
	}
	return res
}

// Process records a RUNNING job, extracts, and finishes the job with the
// outcome. The returned error covers the job log only; extraction failures
// travel in the result.
func (p *Processor) Process(ctx context.Context, doc extract.RawDocument) (uuid.UUID, pipeline.ExtractionResult, error) {
	if p.jobs == nil {
		return uuid.Nil, pipeline.ExtractionResult{}, common.ConfigurationError("job log")
	}
	job, err := p.jobs.Start(ctx, doc.Filename, cache.ContentHash(doc.Bytes))
	if err != nil {
		return uuid.Nil, pipeline.ExtractionResult{}, err
	}
	res, err := p.finish(ctx, job.ID, doc)
	return job.ID, res, err
}

// Enqueue records a QUEUED job for a document the import worker will run.
func (p *Processor) Enqueue(ctx context.Context, doc extract.RawDocument) (uuid.UUID, error) {
	if p.jobs == nil {
		return uuid.Nil, common.ConfigurationError("job log")
	}
	job, err := p.jobs.Enqueue(ctx, doc.Filename, cache.ContentHash(doc.Bytes))
	if err != nil {
		return uuid.Nil, err
	}
	p.logger.Info("processor.job.queued", "job_id", job.ID, "filename", doc.Filename)
	return job.ID, nil
}

// ProcessQueued runs a job previously recorded by Enqueue.
func (p *Processor) ProcessQueued(ctx context.Context, jobID uuid.UUID, doc extract.RawDocument) (pipeline.ExtractionResult, error) {
	if p.jobs == nil {
		return pipeline.ExtractionResult{}, common.ConfigurationError("job log")
	}
	if err := p.jobs.MarkRunning(ctx, jobID); err != nil {
		return pipeline.ExtractionResult{}, err
	}
	return p.finish(ctx, jobID, doc)
}

func (p *Processor) finish(ctx context.Context, jobID uuid.UUID, doc extract.RawDocument) (pipeline.ExtractionResult, error) {
	res := p.Extract(ctx, doc)
	if err := p.jobs.Finish(ctx, jobID, res); err != nil {
		p.logger.Error("processor.job.finish_failed", "job_id", jobID, "err", err)
		return res, err
	}
	p.logger.Info("processor.job.finished",
		"job_id", jobID,
		"filename", doc.Filename,
		"ok", res.OK,
		"code", res.Code,
	)
	return res, nil
}

// Job returns a job log row.
func (p *Processor) Job(ctx context.Context, jobID uuid.UUID) (*entity.ExtractionJob, error) {
	if p.jobs == nil {
		return nil, common.ConfigurationError("job log")
	}
	return p.jobs.Get(ctx, jobID)
}

// Seen reports whether the content hash already has a finished job.
func (p *Processor) Seen(ctx context.Context, contentHash string) (bool, error) {
	if p.jobs == nil {
		return false, nil
	}
	job, err := p.jobs.LatestByHash(ctx, contentHash)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return job.Finished(), nil
}
