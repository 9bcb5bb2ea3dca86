package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
	"github.com/joseph-ayodele/invoice-autofill/internal/queue"
)

type invoiceHandler struct {
	svc       InvoiceService
	queue     Enqueuer
	maxUpload int64
	logger    *slog.Logger
}

// Extract serves the upload form: the result is returned inline and not logged as a job.
func (h *invoiceHandler) Extract(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	res := h.svc.Extract(r.Context(), doc)
	writeJSON(w, resultStatus(res), res)
}

// Import records a job and hands the document to the worker queue, or runs
// it inline when no queue is configured.
func (h *invoiceHandler) Import(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if h.queue == nil {
		jobID, res, err := h.svc.Process(ctx, doc)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, resultStatus(res), importResponse{JobID: jobID.String(), Status: jobStatus(res), Result: &res})
		return
	}

	jobID, err := h.svc.Enqueue(ctx, doc)
	if err != nil {
		h.writeError(w, err)
		return
	}
	err = h.queue.EnqueueImport(queue.ImportPayload{
		JobID:    jobID.String(),
		Filename: doc.Filename,
		MimeType: doc.MimeType,
		PDF:      doc.Bytes,
	})
	if err != nil {
		h.logger.Warn("import.enqueue_failed", "fallback", "inline", "job_id", jobID, "err", err)
		res, err := h.svc.ProcessQueued(ctx, jobID, doc)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, resultStatus(res), importResponse{JobID: jobID.String(), Status: jobStatus(res), Result: &res})
		return
	}
	writeJSON(w, http.StatusAccepted, importResponse{JobID: jobID.String(), Status: constants.JobStatusQueued})
}

func (h *invoiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job id"})
		return
	}
	job, err := h.svc.Job(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type importResponse struct {
	JobID  string                     `json:"job_id"`
	Status constants.JobStatus        `json:"status"`
	Result *pipeline.ExtractionResult `json:"result,omitempty"`
}

func jobStatus(res pipeline.ExtractionResult) constants.JobStatus {
	if res.OK {
		return constants.JobStatusSucceeded
	}
	return constants.JobStatusFailed
}

// readUpload pulls the multipart "file" part. Non-PDF declarations are
// rejected here with the same body the pipeline would produce.
func (h *invoiceHandler) readUpload(w http.ResponseWriter, r *http.Request) (extract.RawDocument, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
			return extract.RawDocument{}, false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return extract.RawDocument{}, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file required"})
		return extract.RawDocument{}, false
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !constants.IsPDFMime(mimeType) {
		err := common.TypeMismatchError(mimeType)
		writeJSON(w, http.StatusUnsupportedMediaType, pipeline.ExtractionResult{
			OK:    false,
			Error: common.UserMessage(err),
			Code:  common.CodeOf(err),
		})
		return extract.RawDocument{}, false
	}
	if header.Size > h.maxUpload {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
		return extract.RawDocument{}, false
	}
	b, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot read file"})
		return extract.RawDocument{}, false
	}
	return extract.RawDocument{Bytes: b, MimeType: mimeType, Filename: header.Filename}, true
}

func (h *invoiceHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case common.CodeOf(err) == common.CodeConfiguration:
		status = http.StatusServiceUnavailable
	default:
		h.logger.Error("http.request.failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": common.UserMessage(err)})
}

// resultStatus maps an extraction outcome onto an HTTP status. The body is
// always the ExtractionResult.
func resultStatus(res pipeline.ExtractionResult) int {
	if res.OK {
		return http.StatusOK
	}
	switch res.Code {
	case common.CodeTypeMismatch:
		return http.StatusUnsupportedMediaType
	case common.CodeValidation, common.CodeExtraction:
		return http.StatusUnprocessableEntity
	case common.CodeTransport, common.CodeTimeout, common.CodeConfiguration:
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}
