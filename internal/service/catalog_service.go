package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const catalogCacheKey = "timetable:catalog"

type catalogRepository interface {
	Load(ctx context.Context) (timetable.Catalog, error)
}

// CatalogService serves the reference data the engine schedules against.
type CatalogService struct {
	repo    catalogRepository
	cache   *CacheService
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewCatalogService constructs the catalog service. cache may be nil.
func NewCatalogService(repo catalogRepository, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// Catalog returns the current catalog, read through the cache when enabled.
func (s *CatalogService) Catalog(ctx context.Context) (timetable.Catalog, error) {
	var catalog timetable.Catalog
	if hit, err := s.cache.Get(ctx, catalogCacheKey, &catalog); err == nil && hit {
		return catalog, nil
	}

	start := time.Now()
	catalog, err := s.repo.Load(ctx)
	s.metrics.ObserveDBQuery("catalog_load", time.Since(start))
	if err != nil {
		return timetable.Catalog{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog")
	}

	if err := s.cache.Set(ctx, catalogCacheKey, catalog, s.ttl); err != nil {
		s.logger.Debug("catalog cache write skipped", zap.Error(err))
	}
	return catalog, nil
}

// Get returns the catalog in its response shape.
func (s *CatalogService) Get(ctx context.Context) (*dto.CatalogResponse, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.CatalogResponse{
		Classes:  nonNil(catalog.Classes),
		Subjects: nonNil(catalog.Subjects),
		Teachers: nonNil(catalog.Teachers),
		Rooms:    nonNil(catalog.Rooms),
	}, nil
}

// Teacher looks a teacher up by id.
func (s *CatalogService) Teacher(ctx context.Context, id string) (*models.Teacher, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	for i := range catalog.Teachers {
		if catalog.Teachers[i].ID == id {
			teacher := catalog.Teachers[i]
			return &teacher, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
}

// Refresh invalidates every cached catalog entry and reloads the catalog from the repository.
func (s *CatalogService) Refresh(ctx context.Context) (*dto.CatalogResponse, error) {
	if err := s.cache.Invalidate(ctx, catalogCacheKey+"*"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate catalog cache")
	}
	s.logger.Info("catalog cache invalidated")
	return s.Get(ctx)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
