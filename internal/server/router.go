// Package server exposes the extraction pipeline over HTTP and gRPC.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-autofill/internal/entity"
	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
	"github.com/joseph-ayodele/invoice-autofill/internal/queue"
)

// InvoiceService is implemented by *core.Processor.
type InvoiceService interface {
	Extract(ctx context.Context, doc extract.RawDocument) pipeline.ExtractionResult
	Process(ctx context.Context, doc extract.RawDocument) (uuid.UUID, pipeline.ExtractionResult, error)
	Enqueue(ctx context.Context, doc extract.RawDocument) (uuid.UUID, error)
	ProcessQueued(ctx context.Context, jobID uuid.UUID, doc extract.RawDocument) (pipeline.ExtractionResult, error)
	Job(ctx context.Context, jobID uuid.UUID) (*entity.ExtractionJob, error)
}

// Enqueuer is implemented by *queue.Client.
type Enqueuer interface {
	EnqueueImport(payload queue.ImportPayload) error
}

type Deps struct {
	Service InvoiceService
	// Queue may be nil; imports then run inline.
	Queue Enqueuer
	// Ping reports dependency health for /readyz.
	Ping          func(ctx context.Context) map[string]string
	MaxUploadSize int64
	Logger        *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxUploadSize <= 0 {
		d.MaxUploadSize = 20 << 20
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogging(d.Logger))
	r.Use(chimiddleware.Recoverer)

	health := &healthHandler{ping: d.Ping}
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	inv := &invoiceHandler{svc: d.Service, queue: d.Queue, maxUpload: d.MaxUploadSize, logger: d.Logger}
	r.Route("/api", func(r chi.Router) {
		r.Post("/invoices/extract", inv.Extract)
		r.Post("/invoices/import", inv.Import)
		r.Get("/jobs/{id}", inv.GetJob)
	})
	return r
}
