// internal/repository/interfaces.go
package repository

import (
	"context"

	"printer-service/internal/model"
)

// JobRepository defines print job journal operations
type JobRepository interface {
	Create(ctx context.Context, job *model.PrintJob) error
	List(ctx context.Context, limit int) ([]*model.PrintJob, error)
	Stats(ctx context.Context) (*JobStats, error)
}

// JobStats summarizes the journal
type JobStats struct {
	Total        int64 `json:"total"`
	Succeeded    int64 `json:"succeeded"`
	Failed       int64 `json:"failed"`
	BytesWritten int64 `json:"bytes_written"`
}

// DefaultListLimit is used when a caller passes a non-positive limit
const DefaultListLimit = 50

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
