package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
)

const timetableCachePrefix = "timetable:snapshot:"

// TimetableSnapshot is a generated timetable together with everything needed to keep editing it.
type TimetableSnapshot struct {
	ID          string             `json:"id"`
	Date        string             `json:"date"`
	Settings    timetable.Settings `json:"settings"`
	Timetable   models.Timetable   `json:"timetable"`
	Conflicts   []models.Conflict  `json:"conflicts"`
	Stats       timetable.Stats    `json:"stats"`
	GeneratedAt time.Time          `json:"generated_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// TimetableStore keeps snapshots for a bounded time. Get returns (nil, nil) for unknown or
// expired ids.
type TimetableStore interface {
	Save(ctx context.Context, snapshot *TimetableSnapshot) error
	Get(ctx context.Context, id string) (*TimetableSnapshot, error)
	Delete(ctx context.Context, id string) error
	TTL() time.Duration
}

type memoryTimetableStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]TimetableSnapshot
}

// NewMemoryTimetableStore keeps snapshots in process memory.
func NewMemoryTimetableStore(ttl time.Duration) TimetableStore {
	return newMemoryTimetableStore(ttl, time.Now)
}

func newMemoryTimetableStore(ttl time.Duration, now func() time.Time) *memoryTimetableStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &memoryTimetableStore{
		ttl:   ttl,
		now:   now,
		items: make(map[string]TimetableSnapshot),
	}
}

func (s *memoryTimetableStore) Save(_ context.Context, snapshot *TimetableSnapshot) error {
	copied := *snapshot
	copied.Timetable = snapshot.Timetable.Clone()
	copied.Conflicts = append([]models.Conflict(nil), snapshot.Conflicts...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.items[snapshot.ID] = copied
	return nil
}

// sweepLocked drops expired snapshots. Callers hold s.mu.
func (s *memoryTimetableStore) sweepLocked() {
	now := s.now()
	for id, snapshot := range s.items {
		if now.Sub(snapshot.UpdatedAt) > s.ttl {
			delete(s.items, id)
		}
	}
}

func (s *memoryTimetableStore) Get(ctx context.Context, id string) (*TimetableSnapshot, error) {
	s.mu.RLock()
	snapshot, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.now().Sub(snapshot.UpdatedAt) > s.ttl {
		_ = s.Delete(ctx, id)
		return nil, nil
	}
	snapshot.Timetable = snapshot.Timetable.Clone()
	snapshot.Conflicts = append([]models.Conflict(nil), snapshot.Conflicts...)
	return &snapshot, nil
}

func (s *memoryTimetableStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

func (s *memoryTimetableStore) TTL() time.Duration {
	return s.ttl
}

type cacheTimetableStore struct {
	cache *CacheService
	ttl   time.Duration
}

// NewCacheTimetableStore keeps snapshots in the shared cache (Redis) with a TTL refreshed on
// every save.
func NewCacheTimetableStore(cache *CacheService, ttl time.Duration) TimetableStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &cacheTimetableStore{cache: cache, ttl: ttl}
}

func (s *cacheTimetableStore) Save(ctx context.Context, snapshot *TimetableSnapshot) error {
	return s.cache.Set(ctx, timetableCachePrefix+snapshot.ID, snapshot, s.ttl)
}

func (s *cacheTimetableStore) Get(ctx context.Context, id string) (*TimetableSnapshot, error) {
	var snapshot TimetableSnapshot
	hit, err := s.cache.Get(ctx, timetableCachePrefix+id, &snapshot)
	if err != nil {
		return nil, err
	}
	if !hit {
		return nil, nil
	}
	return &snapshot, nil
}

func (s *cacheTimetableStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, timetableCachePrefix+id)
}

func (s *cacheTimetableStore) TTL() time.Duration {
	return s.ttl
}
