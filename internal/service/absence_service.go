package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type teacherDirectory interface {
	Teacher(ctx context.Context, id string) (*models.Teacher, error)
}

// AbsenceService records which teachers are absent on which dates. Generation and substitute
// lookups read an immutable snapshot for one date, so marking an absence never changes a run
// that already started.
type AbsenceService struct {
	directory teacherDirectory
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.RWMutex
	byDate map[string]map[string]struct{}
}

// NewAbsenceService constructs the absence registry.
func NewAbsenceService(directory teacherDirectory, logger *zap.Logger) *AbsenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbsenceService{
		directory: directory,
		logger:    logger,
		now:       time.Now,
		byDate:    make(map[string]map[string]struct{}),
	}
}

// MarkAbsent records teacherID as absent on date (YYYY-MM-DD, empty means today). Marking the
// same teacher twice is a no-op.
func (s *AbsenceService) MarkAbsent(ctx context.Context, teacherID, date string) (*dto.AbsenceResponse, error) {
	teacherID = strings.TrimSpace(teacherID)
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	day, err := s.ResolveDate(date)
	if err != nil {
		return nil, err
	}
	if s.directory != nil {
		if _, err := s.directory.Teacher(ctx, teacherID); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	ids, ok := s.byDate[day]
	if !ok {
		ids = make(map[string]struct{})
		s.byDate[day] = ids
	}
	ids[teacherID] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("teacher marked absent", zap.String("teacher_id", teacherID), zap.String("date", day))
	return s.List(ctx, day)
}

// List returns the absent teacher ids for date, sorted.
func (s *AbsenceService) List(_ context.Context, date string) (*dto.AbsenceResponse, error) {
	day, err := s.ResolveDate(date)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	ids := make([]string, 0, len(s.byDate[day]))
	for id := range s.byDate[day] {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return &dto.AbsenceResponse{Date: day, TeacherIDs: ids}, nil
}

// Snapshot copies the absences for an already resolved date into an engine availability context.
func (s *AbsenceService) Snapshot(date string) timetable.Availability {
	s.mu.RLock()
	defer s.mu.RUnlock()
	absent := make(map[string]bool, len(s.byDate[date]))
	for id := range s.byDate[date] {
		absent[id] = true
	}
	return timetable.Availability{Absent: absent}
}

// ResolveDate validates a YYYY-MM-DD date, defaulting to today.
func (s *AbsenceService) ResolveDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.now().Format(dateLayout), nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return "", appErrors.Validation(err, "date must use YYYY-MM-DD")
	}
	return parsed.Format(dateLayout), nil
}
