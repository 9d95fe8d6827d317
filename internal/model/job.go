// internal/model/job.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the outcome of a print attempt
type JobStatus string

const (
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// PrintJob is a journal entry for one print attempt
type PrintJob struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	Kind         PrinterKind `json:"kind" db:"kind"`
	RequestType  RequestType `json:"request_type" db:"request_type"`
	Bytes        int         `json:"bytes" db:"bytes"`
	Status       JobStatus   `json:"status" db:"status"`
	ErrorMessage *string     `json:"error_message,omitempty" db:"error_message"`
	DurationMs   int         `json:"duration_ms" db:"duration_ms"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// NewPrintJob creates a journal entry for a request about to be written
func NewPrintJob(kind PrinterKind, requestType RequestType, size int) *PrintJob {
	return &PrintJob{
		ID:          uuid.New(),
		Kind:        kind,
		RequestType: requestType,
		Bytes:       size,
		CreatedAt:   time.Now(),
	}
}

// Complete records the outcome of the job
func (j *PrintJob) Complete(duration time.Duration, err error) {
	j.DurationMs = int(duration.Milliseconds())
	if err != nil {
		msg := err.Error()
		j.ErrorMessage = &msg
		j.Status = JobStatusFailed
		return
	}
	j.Status = JobStatusSuccess
}
