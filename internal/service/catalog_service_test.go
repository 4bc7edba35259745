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

type countingCatalogRepo struct {
	catalog timetable.Catalog
	err     error
	loads   int
}

func (r *countingCatalogRepo) Load(context.Context) (timetable.Catalog, error) {
	r.loads++
	return r.catalog, r.err
}

func TestCatalogServiceReadsThroughCache(t *testing.T) {
	repo := &countingCatalogRepo{catalog: timetable.Catalog{
		Classes:  []models.Class{{Name: "10A", Grade: "10"}},
		Teachers: []models.Teacher{{ID: "t-alice", Name: "Alice", Subjects: []string{"Mathematics"}}},
	}}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewCatalogService(repo, cache, nil, time.Minute, nil)
	ctx := context.Background()

	first, err := svc.Get(ctx)
	require.NoError(t, err)
	second, err := svc.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.loads)
	assert.Equal(t, first, second)
	assert.NotNil(t, second.Rooms)

	repo.catalog.Classes = append(repo.catalog.Classes, models.Class{Name: "10B", Grade: "10"})
	refreshed, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.loads)
	assert.Len(t, refreshed.Classes, 2)

	_, err = svc.Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.loads)
}

func TestCatalogServiceRefreshKeepsSnapshots(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	repo := &countingCatalogRepo{catalog: timetable.Catalog{Classes: []models.Class{{Name: "10A", Grade: "10"}}}}
	svc := NewCatalogService(repo, cache, nil, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, catalogCacheKey+":v1", []string{"stale"}, 0))
	require.NoError(t, cache.Set(ctx, timetableCachePrefix+"tt-1", []string{"kept"}, 0))
	_, err := svc.Catalog(ctx)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx)
	require.NoError(t, err)

	assert.NotContains(t, cacheRepo.items, catalogCacheKey+":v1")
	assert.Contains(t, cacheRepo.items, timetableCachePrefix+"tt-1")
	assert.Contains(t, cacheRepo.items, catalogCacheKey)
}

func TestCatalogServiceWithoutCache(t *testing.T) {
	repo := &countingCatalogRepo{catalog: timetable.Catalog{
		Teachers: []models.Teacher{{ID: "t-alice", Name: "Alice"}},
	}}
	svc := NewCatalogService(repo, nil, nil, 0, nil)

	teacher, err := svc.Teacher(context.Background(), "t-alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", teacher.Name)

	_, err = svc.Teacher(context.Background(), "t-zed")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 2, repo.loads)
}

func TestCatalogServiceWrapsRepositoryErrors(t *testing.T) {
	svc := NewCatalogService(&countingCatalogRepo{err: errors.New("db down")}, nil, nil, 0, nil)

	_, err := svc.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
