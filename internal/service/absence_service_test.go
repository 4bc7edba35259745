package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func newAbsenceFixture(t *testing.T) *AbsenceService {
	t.Helper()
	repo := &countingCatalogRepo{catalog: timetable.Catalog{Teachers: []models.Teacher{
		{ID: "t-alice", Name: "Alice"},
		{ID: "t-bob", Name: "Bob"},
	}}}
	svc := NewAbsenceService(NewCatalogService(repo, nil, nil, 0, nil), nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestAbsenceServiceIsDateScoped(t *testing.T) {
	svc := newAbsenceFixture(t)
	ctx := context.Background()

	resp, err := svc.MarkAbsent(ctx, "t-alice", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", resp.Date)
	assert.Equal(t, []string{"t-alice"}, resp.TeacherIDs)

	_, err = svc.MarkAbsent(ctx, "t-bob", "2024-03-05")
	require.NoError(t, err)

	today := svc.Snapshot("2024-03-04")
	assert.True(t, today.Absent["t-alice"])
	assert.False(t, today.Absent["t-bob"])

	tomorrow, err := svc.List(ctx, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, []string{"t-bob"}, tomorrow.TeacherIDs)
}

func TestAbsenceServiceMarkIsIdempotent(t *testing.T) {
	svc := newAbsenceFixture(t)
	ctx := context.Background()

	_, err := svc.MarkAbsent(ctx, "t-alice", "2024-03-04")
	require.NoError(t, err)
	resp, err := svc.MarkAbsent(ctx, "t-alice", "2024-03-04")
	require.NoError(t, err)
	assert.Len(t, resp.TeacherIDs, 1)
}

func TestAbsenceServiceSnapshotIsDetached(t *testing.T) {
	svc := newAbsenceFixture(t)
	ctx := context.Background()

	snapshot := svc.Snapshot("2024-03-04")
	_, err := svc.MarkAbsent(ctx, "t-alice", "2024-03-04")
	require.NoError(t, err)
	assert.False(t, snapshot.Absent["t-alice"])
}

func TestAbsenceServiceValidation(t *testing.T) {
	svc := newAbsenceFixture(t)
	ctx := context.Background()

	_, err := svc.MarkAbsent(ctx, "t-zed", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.MarkAbsent(ctx, "t-alice", "04/03/2024")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.MarkAbsent(ctx, " ", "")
	require.Error(t, err)
}

func TestAbsenceServiceSurfacesDirectoryErrors(t *testing.T) {
	catalog := NewCatalogService(&countingCatalogRepo{err: errors.New("db down")}, nil, nil, 0, nil)
	svc := NewAbsenceService(catalog, nil)

	_, err := svc.MarkAbsent(context.Background(), "t-alice", "2024-03-04")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	list, err := svc.List(context.Background(), "2024-03-04")
	require.NoError(t, err)
	assert.Empty(t, list.TeacherIDs)
}
