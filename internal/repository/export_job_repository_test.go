package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestExportJobRepositoryLifecycle(t *testing.T) {
	repo := NewExportJobRepository()
	ctx := context.Background()

	job := &models.ExportJob{TimetableID: "tt-1", Format: models.ExportFormatCSV}
	require.NoError(t, repo.Create(ctx, job))
	require.NotEmpty(t, job.ID)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	require.Error(t, repo.Create(ctx, job))

	finished := models.ExportStatusFinished
	progress := 100
	url := "/api/v1/exports/download?token=abc"
	errMsg := "transient"
	done := time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, repo.Update(ctx, job.ID, UpdateExportJobParams{ErrorMessage: &errMsg}))
	empty := ""
	require.NoError(t, repo.Update(ctx, job.ID, UpdateExportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &empty,
		FinishedAt:   &done,
	}))

	stored, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, stored.Status)
	assert.Equal(t, url, *stored.ResultURL)
	assert.Nil(t, stored.ErrorMessage)

	old, err := repo.ListFinishedBefore(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Len(t, old, 1)
	recent, err := repo.ListFinishedBefore(ctx, time.Now().Add(-3*time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)

	require.NoError(t, repo.Delete(ctx, job.ID))
	_, err = repo.GetByID(ctx, job.ID)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.ErrorIs(t, repo.Update(ctx, job.ID, UpdateExportJobParams{}), sql.ErrNoRows)
}
