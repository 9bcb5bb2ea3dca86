package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-autofill/constants"
)

// ExtractionJob is one row of the job log, for data transfer between layers.
type ExtractionJob struct {
	ID           uuid.UUID           `json:"id"`
	Filename     string              `json:"filename"`
	ContentHash  string              `json:"content_hash"`
	Status       constants.JobStatus `json:"status"`
	Provider     *string             `json:"provider,omitempty"`
	Amount       *string             `json:"amount,omitempty"`
	Currency     *string             `json:"currency,omitempty"`
	DueDate      *string             `json:"due_date,omitempty"`
	ChargeType   *string             `json:"charge_type,omitempty"`
	ErrorCode    *string             `json:"error_code,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	ResultJSON   json.RawMessage     `json:"result,omitempty"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
}

// Finished reports whether the job reached a terminal status.
func (j ExtractionJob) Finished() bool {
	return j.Status == constants.JobStatusSucceeded || j.Status == constants.JobStatusFailed
}
