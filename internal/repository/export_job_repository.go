package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ExportJobRepository keeps export job metadata in memory. Jobs share the lifetime of the
// timetables they render, so they are not written to the database.
type ExportJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]models.ExportJob
}

// NewExportJobRepository constructs the repository.
func NewExportJobRepository() *ExportJobRepository {
	return &ExportJobRepository{jobs: make(map[string]models.ExportJob)}
}

// Create stores a new job with generated defaults.
func (r *ExportJobRepository) Create(_ context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("create export job: duplicate id %s", job.ID)
	}
	r.jobs[job.ID] = *job
	return nil
}

// GetByID returns a job by its identifier. Unknown ids yield sql.ErrNoRows.
func (r *ExportJobRepository) GetByID(_ context.Context, id string) (*models.ExportJob, error) {
	r.mu.RLock()
	job, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get export job: %w", sql.ErrNoRows)
	}
	return &job, nil
}

// UpdateExportJobParams defines the mutable fields.
type UpdateExportJobParams struct {
	Status       *models.ExportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update applies the non-nil fields of params.
func (r *ExportJobRepository) Update(_ context.Context, id string, params UpdateExportJobParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("update export job: %w", sql.ErrNoRows)
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		url := *params.ResultURL
		job.ResultURL = &url
	}
	if params.ErrorMessage != nil {
		if *params.ErrorMessage == "" {
			job.ErrorMessage = nil
		} else {
			msg := *params.ErrorMessage
			job.ErrorMessage = &msg
		}
	}
	if params.FinishedAt != nil {
		finished := *params.FinishedAt
		job.FinishedAt = &finished
	}
	r.jobs[id] = job
	return nil
}

// ListFinishedBefore returns finished or failed jobs completed before cutoff, oldest first.
func (r *ExportJobRepository) ListFinishedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	r.mu.RLock()
	out := make([]models.ExportJob, 0)
	for _, job := range r.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, job)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].FinishedAt.Before(*out[j].FinishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete forgets a job.
func (r *ExportJobRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.jobs, id)
	r.mu.Unlock()
	return nil
}
