package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/entity"
	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
)

const jobTable = "extraction_job"

var jobSelectColumns = []string{
	"id", "filename", "content_hash", "status", "provider", "amount", "currency",
	"due_date", "charge_type", "error_code", "error_message", "result_json",
	"started_at", "finished_at",
}

type ExtractionJobRepository interface {
	// Start records a RUNNING job.
	Start(ctx context.Context, filename, contentHash string) (*entity.ExtractionJob, error)
	// Enqueue records a QUEUED job for the import worker.
	Enqueue(ctx context.Context, filename, contentHash string) (*entity.ExtractionJob, error)
	MarkRunning(ctx context.Context, jobID uuid.UUID) error
	Finish(ctx context.Context, jobID uuid.UUID, res pipeline.ExtractionResult) error
	Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractionJob, error)
	// LatestByHash returns the newest job for the content hash, or ErrNotFound.
	LatestByHash(ctx context.Context, contentHash string) (*entity.ExtractionJob, error)
	List(ctx context.Context, limit int) ([]entity.ExtractionJob, error)
}

type extractionJobRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewExtractionJobRepository(db *DB, log *slog.Logger) ExtractionJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractionJobRepo{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (r *extractionJobRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

func (r *extractionJobRepo) Start(ctx context.Context, filename, contentHash string) (*entity.ExtractionJob, error) {
	return r.create(ctx, filename, contentHash, constants.JobStatusRunning)
}

func (r *extractionJobRepo) Enqueue(ctx context.Context, filename, contentHash string) (*entity.ExtractionJob, error) {
	return r.create(ctx, filename, contentHash, constants.JobStatusQueued)
}

func (r *extractionJobRepo) create(ctx context.Context, filename, contentHash string, status constants.JobStatus) (*entity.ExtractionJob, error) {
	job := &entity.ExtractionJob{
		ID:          uuid.New(),
		Filename:    filename,
		ContentHash: contentHash,
		Status:      status,
		StartedAt:   r.now(),
	}
	query, args := r.builder().Insert(jobTable).
		Columns("id", "filename", "content_hash", "status", "started_at").
		Values(job.ID.String(), job.Filename, job.ContentHash, string(job.Status), job.StartedAt).
		Query()
	if _, err := r.db.SQL().ExecContext(ctx, query, args...); err != nil {
		r.log.Error("extraction_job start failed", "filename", filename, "err", err)
		return nil, fmt.Errorf("%w: insert job: %v", common.ErrDatabase, err)
	}
	r.log.Info("extraction_job started", "job_id", job.ID, "filename", filename, "status", status)
	return job, nil
}

func (r *extractionJobRepo) MarkRunning(ctx context.Context, jobID uuid.UUID) error {
	query, args := r.builder().Update(jobTable).
		Set("status", string(constants.JobStatusRunning)).
		Set("started_at", r.now()).
		Where(entsql.EQ("id", jobID.String())).
		Query()
	return r.exec(ctx, jobID, query, args)
}

// Finish stores the outcome. Record fields are only filled for ok results.
func (r *extractionJobRepo) Finish(ctx context.Context, jobID uuid.UUID, res pipeline.ExtractionResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	upd := r.builder().Update(jobTable).
		Set("result_json", string(raw)).
		Set("finished_at", r.now())

	if res.OK && res.Data != nil {
		d := res.Data
		upd = upd.Set("status", string(constants.JobStatusSucceeded)).
			Set("provider", d.ProviderName).
			Set("amount", d.Amount.String()).
			Set("currency", d.Currency).
			Set("due_date", d.DueDate)
		if d.ChargeType != nil {
			upd = upd.Set("charge_type", string(*d.ChargeType))
		}
	} else {
		upd = upd.Set("status", string(constants.JobStatusFailed)).
			Set("error_code", res.Code).
			Set("error_message", res.Error)
	}
	query, args := upd.Where(entsql.EQ("id", jobID.String())).Query()
	if err := r.exec(ctx, jobID, query, args); err != nil {
		return err
	}
	if res.OK {
		r.log.Info("extraction_job finished (SUCCEEDED)", "job_id", jobID)
	} else {
		r.log.Warn("extraction_job finished (FAILED)", "job_id", jobID, "error", res.Error)
	}
	return nil
}

func (r *extractionJobRepo) exec(ctx context.Context, jobID uuid.UUID, query string, args []any) error {
	out, err := r.db.SQL().ExecContext(ctx, query, args...)
	if err != nil {
		r.log.Error("extraction_job update failed", "job_id", jobID, "err", err)
		return fmt.Errorf("%w: update job: %v", common.ErrDatabase, err)
	}
	if n, err := out.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	return nil
}

func (r *extractionJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractionJob, error) {
	b := r.builder()
	query, args := b.Select(jobSelectColumns...).
		From(b.Table(jobTable)).
		Where(entsql.EQ("id", jobID.String())).
		Query()
	return r.one(ctx, query, args)
}

func (r *extractionJobRepo) LatestByHash(ctx context.Context, contentHash string) (*entity.ExtractionJob, error) {
	b := r.builder()
	query, args := b.Select(jobSelectColumns...).
		From(b.Table(jobTable)).
		Where(entsql.EQ("content_hash", contentHash)).
		OrderBy(entsql.Desc("started_at")).
		Limit(1).
		Query()
	return r.one(ctx, query, args)
}

func (r *extractionJobRepo) List(ctx context.Context, limit int) ([]entity.ExtractionJob, error) {
	if limit <= 0 {
		limit = 100
	}
	b := r.builder()
	query, args := b.Select(jobSelectColumns...).
		From(b.Table(jobTable)).
		OrderBy(entsql.Desc("started_at")).
		Limit(limit).
		Query()
	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list jobs: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []entity.ExtractionJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

func (r *extractionJobRepo) one(ctx context.Context, query string, args []any) (*entity.ExtractionJob, error) {
	job, err := scanJob(r.db.SQL().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return job, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*entity.ExtractionJob, error) {
	var (
		job                                         entity.ExtractionJob
		id, status                                  string
		provider, amount, currency, due, chargeType sql.NullString
		errCode, errMsg, result                     sql.NullString
		finished                                    sql.NullTime
	)
	err := row.Scan(&id, &job.Filename, &job.ContentHash, &status, &provider, &amount, &currency,
		&due, &chargeType, &errCode, &errMsg, &result, &job.StartedAt, &finished)
	if err != nil {
		return nil, err
	}
	if job.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("job id %q: %w", id, err)
	}
	job.Status = constants.JobStatus(status)
	job.Provider = nullable(provider)
	job.Amount = nullable(amount)
	job.Currency = nullable(currency)
	job.DueDate = nullable(due)
	job.ChargeType = nullable(chargeType)
	job.ErrorCode = nullable(errCode)
	job.ErrorMessage = nullable(errMsg)
	if result.Valid {
		job.ResultJSON = json.RawMessage(result.String)
	}
	if finished.Valid {
		t := finished.Time
		job.FinishedAt = &t
	}
	return &job, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
