// internal/repository/memory_repository.go
package repository

import (
	"context"
	"sync"

	"printer-service/internal/model"
)

// memoryJobRepository keeps the newest jobs in a fixed-size ring
type memoryJobRepository struct {
	mu    sync.RWMutex
	jobs  []*model.PrintJob
	next  int
	full  bool
	stats JobStats
}

// NewMemoryJobRepository creates an in-memory journal holding up to capacity jobs.
// Stats cover every job recorded, including evicted ones.
func NewMemoryJobRepository(capacity int) JobRepository {
	if capacity <= 0 {
		capacity = 1000
	}
	return &memoryJobRepository{jobs: make([]*model.PrintJob, capacity)}
}

func (r *memoryJobRepository) Create(ctx context.Context, job *model.PrintJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *job
	r.jobs[r.next] = &stored
	r.next = (r.next + 1) % len(r.jobs)
	if r.next == 0 {
		r.full = true
	}

	r.stats.Total++
	if job.Status == model.JobStatusSuccess {
		r.stats.Succeeded++
		r.stats.BytesWritten += int64(job.Bytes)
	} else {
		r.stats.Failed++
	}
	return nil
}

func (r *memoryJobRepository) List(ctx context.Context, limit int) ([]*model.PrintJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	size := r.next
	if r.full {
		size = len(r.jobs)
	}

	limit = normalizeLimit(limit)
	if limit > size {
		limit = size
	}

	out := make([]*model.PrintJob, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.jobs)) % len(r.jobs)
		job := *r.jobs[idx]
		out = append(out, &job)
	}
	return out, nil
}

func (r *memoryJobRepository) Stats(ctx context.Context) (*JobStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := r.stats
	return &stats, nil
}
