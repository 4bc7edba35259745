package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type catalogProvider interface {
	Catalog(ctx context.Context) (timetable.Catalog, error)
}

type absenceProvider interface {
	ResolveDate(raw string) (string, error)
	Snapshot(date string) timetable.Availability
}

// TimetableServiceConfig carries engine defaults applied when a request leaves a setting empty.
type TimetableServiceConfig struct {
	PeriodDuration int
	PeriodsPerDay  int
	StartTime      string
	Policy         string
}

// TimetableService runs the engine for HTTP callers and keeps the resulting snapshots.
type TimetableService struct {
	catalog   catalogProvider
	absences  absenceProvider
	store     TimetableStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	defaults  timetable.Settings
	now       func() time.Time

	// serialises read-modify-write cycles on snapshots
	mu sync.Mutex
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	catalog catalogProvider,
	absences absenceProvider,
	store TimetableStore,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryTimetableStore(0)
	}
	defaults := timetable.DefaultSettings()
	if cfg.PeriodDuration > 0 {
		defaults.PeriodDuration = cfg.PeriodDuration
	}
	if cfg.PeriodsPerDay > 0 {
		defaults.PeriodsPerDay = cfg.PeriodsPerDay
	}
	if cfg.StartTime != "" {
		defaults.StartTime = cfg.StartTime
	}
	if cfg.Policy != "" {
		defaults.Policy = timetable.Policy(cfg.Policy)
	}
	return &TimetableService{
		catalog:   catalog,
		absences:  absences,
		store:     store,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		defaults:  defaults,
		now:       time.Now,
	}
}

// Generate builds a timetable for the catalog and stores it as a new snapshot. Unplaced periods
// are reported as conflicts, never as an error.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid timetable generation payload")
	}
	settings, err := s.settingsFrom(req)
	if err != nil {
		return nil, err
	}
	date, err := s.absences.ResolveDate(req.Date)
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	engine, err := timetable.New(catalog, s.absences.Snapshot(date), settings)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := engine.Generate()
	s.metrics.ObserveGeneration("generate", result.Stats, time.Since(start))

	now := s.now().UTC()
	snapshot := &TimetableSnapshot{
		ID:          uuid.NewString(),
		Date:        date,
		Settings:    engine.Settings(),
		Timetable:   result.Timetable,
		Conflicts:   result.Conflicts,
		Stats:       result.Stats,
		GeneratedAt: now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable")
	}

	s.logger.Info("timetable generated",
		zap.String("timetable_id", snapshot.ID),
		zap.String("date", date),
		zap.Int("requested", result.Stats.Requested),
		zap.Int("placed", result.Stats.Placed),
		zap.Int("conflicts", len(result.Conflicts)),
	)
	return s.toResponse(snapshot), nil
}

// Get returns a stored timetable.
func (s *TimetableService) Get(ctx context.Context, id string) (*dto.TimetableResponse, error) {
	snapshot, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(snapshot), nil
}

// Snapshot returns the stored snapshot itself.
func (s *TimetableService) Snapshot(ctx context.Context, id string) (*TimetableSnapshot, error) {
	return s.load(ctx, id)
}

// Delete discards a stored timetable.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	return nil
}

// AddSubject places an extra subject for one class on top of a stored timetable. Existing lessons
// keep their slots; new conflicts are appended to the snapshot.
func (s *TimetableService) AddSubject(ctx context.Context, id string, req dto.AddSubjectRequest) (*dto.TimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid add subject payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, engine, err := s.engineFor(ctx, id, "")
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := engine.AddSubject(req.ClassName, req.SubjectName, req.PeriodsPerWeek, req.RequiresSpecialRoom, snapshot.Timetable)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveGeneration("add_subject", result.Stats, time.Since(start))

	snapshot.Timetable = result.Timetable
	snapshot.Conflicts = append(snapshot.Conflicts, result.Conflicts...)
	snapshot.Stats.Merge(result.Stats)
	if err := s.save(ctx, snapshot); err != nil {
		return nil, err
	}

	s.logger.Info("subject added to timetable",
		zap.String("timetable_id", id),
		zap.String("class", req.ClassName),
		zap.String("subject", req.SubjectName),
		zap.Int("placed", result.Stats.Placed),
		zap.Int("conflicts", len(result.Conflicts)),
	)
	return s.toResponse(snapshot), nil
}

// CheckConflict reports whether placing teacherID/roomID for className at (day, period) would
// clash with the stored timetable.
func (s *TimetableService) CheckConflict(ctx context.Context, id string, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid conflict check payload")
	}
	day, err := parseDay(req.Day)
	if err != nil {
		return nil, err
	}
	snapshot, engine, err := s.engineFor(ctx, id, "")
	if err != nil {
		return nil, err
	}
	check, err := engine.CheckForConflict(day, *req.Period, req.TeacherID, req.RoomID, req.ClassName, snapshot.Timetable)
	if err != nil {
		return nil, err
	}
	return &dto.ConflictCheckResponse{HasConflict: check.HasConflict, Type: string(check.Kind), Message: check.Message}, nil
}

// ApplySlotEdit replaces the lesson a class has at (day, period). The edit is refused with
// CONFLICT when the teacher or room is busy elsewhere, unless Force is set.
func (s *TimetableService) ApplySlotEdit(ctx context.Context, id string, req dto.SlotEditRequest) (*dto.TimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid slot edit payload")
	}
	day, err := parseDay(req.Day)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, engine, err := s.engineFor(ctx, id, "")
	if err != nil {
		return nil, err
	}
	period := *req.Period
	slot, err := engine.Settings().Slot(day, period)
	if err != nil {
		return nil, err
	}
	week, ok := snapshot.Timetable[req.ClassName]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %s is not part of this timetable", req.ClassName))
	}

	without := snapshot.Timetable.Clone()
	without[req.ClassName][day] = removePeriod(without[req.ClassName][day], period)
	check, err := engine.CheckForConflict(day, period, req.TeacherID, req.RoomID, req.ClassName, without)
	if err != nil {
		return nil, err
	}
	if check.HasConflict {
		if !req.Force {
			return nil, appErrors.Clone(appErrors.ErrConflict, check.Message)
		}
		s.logger.Warn("forced slot edit over conflict",
			zap.String("timetable_id", id),
			zap.String("class", req.ClassName),
			zap.String("type", string(check.Kind)),
			zap.String("message", check.Message),
		)
	}

	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	entry := models.Entry{
		Period:      period,
		TimeRange:   slot.TimeRange,
		Kind:        models.EntryLesson,
		SubjectID:   req.SubjectID,
		SubjectName: req.Subject,
		TeacherID:   req.TeacherID,
		TeacherName: teacherName(catalog, req.TeacherID),
		RoomID:      req.RoomID,
		RoomName:    roomName(catalog, req.RoomID),
	}
	entries := append(removePeriod(week[day], period), entry)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Period < entries[j].Period })
	snapshot.Timetable[req.ClassName][day] = entries

	if err := s.save(ctx, snapshot); err != nil {
		return nil, err
	}
	s.logger.Info("timetable slot edited",
		zap.String("timetable_id", id),
		zap.String("class", req.ClassName),
		zap.String("day", string(day)),
		zap.Int("period", period),
		zap.Bool("forced", req.Force && check.HasConflict),
	)
	return s.toResponse(snapshot), nil
}

// Substitutes lists teachers able to cover subject at (day, period) in the stored timetable,
// using the absences of query.Date (default: the timetable's date).
func (s *TimetableService) Substitutes(ctx context.Context, id string, query dto.SubstituteQuery) ([]dto.TeacherSummary, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid substitute query")
	}
	day, err := parseDay(query.Day)
	if err != nil {
		return nil, err
	}
	snapshot, engine, err := s.engineFor(ctx, id, query.Date)
	if err != nil {
		return nil, err
	}
	teachers, err := engine.AvailableSubstitutes(query.Subject, day, *query.Period, snapshot.Timetable)
	if err != nil {
		return nil, err
	}
	return summarise(teachers), nil
}

// FindSubstitutes is the slot-agnostic lookup: every present teacher of the subject other than
// the absent one. Day and period are accepted but do not filter.
func (s *TimetableService) FindSubstitutes(ctx context.Context, query dto.SimpleSubstituteQuery) ([]dto.TeacherSummary, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid substitute query")
	}
	date, err := s.absences.ResolveDate("")
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	var day models.Weekday
	if strings.TrimSpace(query.Day) != "" {
		if day, err = parseDay(query.Day); err != nil {
			return nil, err
		}
	}
	period := 0
	if query.Period != nil {
		period = *query.Period
	}
	engine, err := timetable.New(catalog, s.absences.Snapshot(date), s.defaults)
	if err != nil {
		return nil, err
	}
	return summarise(engine.FindSubstituteTeachers(query.AbsentTeacher, query.Subject, period, day)), nil
}

func (s *TimetableService) load(ctx context.Context, id string) (*TimetableSnapshot, error) {
	snapshot, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if snapshot == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found or expired")
	}
	return snapshot, nil
}

func (s *TimetableService) save(ctx context.Context, snapshot *TimetableSnapshot) error {
	snapshot.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, snapshot); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable")
	}
	return nil
}

// engineFor rebuilds an engine with the snapshot's settings. date overrides the snapshot date
// for the absence context.
func (s *TimetableService) engineFor(ctx context.Context, id, date string) (*TimetableSnapshot, *timetable.Engine, error) {
	snapshot, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if date == "" {
		date = snapshot.Date
	} else if date, err = s.absences.ResolveDate(date); err != nil {
		return nil, nil, err
	}
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, nil, err
	}
	engine, err := timetable.New(catalog, s.absences.Snapshot(date), snapshot.Settings)
	if err != nil {
		return nil, nil, err
	}
	return snapshot, engine, nil
}

func (s *TimetableService) settingsFrom(req dto.GenerateTimetableRequest) (timetable.Settings, error) {
	settings := s.defaults
	settings.Breaks = append([]timetable.Break(nil), s.defaults.Breaks...)
	settings.Days = append([]models.Weekday(nil), s.defaults.Days...)
	if req.PeriodDuration > 0 {
		settings.PeriodDuration = req.PeriodDuration
	}
	if req.PeriodsPerDay > 0 {
		settings.PeriodsPerDay = req.PeriodsPerDay
	}
	if req.StartTime != "" {
		settings.StartTime = req.StartTime
	}
	if req.Policy != "" {
		settings.Policy = timetable.Policy(req.Policy)
	}
	settings.SelectedClass = strings.TrimSpace(req.SelectedClass)
	settings.SelectedSubjects = req.SelectedSubjects
	if len(req.Days) > 0 {
		settings.Days = make([]models.Weekday, 0, len(req.Days))
		for _, raw := range req.Days {
			settings.Days = append(settings.Days, models.Weekday(raw))
		}
	}
	if req.Breaks != nil {
		settings.Breaks = make([]timetable.Break, 0, len(req.Breaks))
		for _, b := range req.Breaks {
			settings.Breaks = append(settings.Breaks, timetable.Break{Period: b.Period, Kind: models.EntryKind(b.Kind), Label: b.Label})
		}
	}
	return settings.Normalize()
}

func (s *TimetableService) toResponse(snapshot *TimetableSnapshot) *dto.TimetableResponse {
	conflicts := snapshot.Conflicts
	if conflicts == nil {
		conflicts = make([]models.Conflict, 0)
	}
	return &dto.TimetableResponse{
		ID:        snapshot.ID,
		Date:      snapshot.Date,
		Timetable: snapshot.Timetable,
		Conflicts: conflicts,
		Stats: dto.TimetableStats{
			Requested:        snapshot.Stats.Requested,
			Placed:           snapshot.Stats.Placed,
			TeacherConflicts: snapshot.Stats.TeacherConflicts,
			RoomConflicts:    snapshot.Stats.RoomConflicts,
			ClassConflicts:   snapshot.Stats.ClassConflicts,
		},
		Settings: dto.TimetableSettings{
			PeriodDuration: snapshot.Settings.PeriodDuration,
			PeriodsPerDay:  snapshot.Settings.PeriodsPerDay,
			StartTime:      snapshot.Settings.StartTime,
			Days:           snapshot.Settings.Days,
			Policy:         string(snapshot.Settings.Policy),
		},
		GeneratedAt: snapshot.GeneratedAt,
		UpdatedAt:   snapshot.UpdatedAt,
		ExpiresAt:   snapshot.UpdatedAt.Add(s.store.TTL()),
	}
}

func parseDay(raw string) (models.Weekday, error) {
	day, ok := models.ParseWeekday(raw)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrInvalidSlot, fmt.Sprintf("unknown day %q", raw))
	}
	return day, nil
}

func removePeriod(entries []models.Entry, period int) []models.Entry {
	out := make([]models.Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsLesson() && entry.Period == period {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func teacherName(catalog timetable.Catalog, id string) string {
	for _, teacher := range catalog.Teachers {
		if teacher.ID == id {
			return teacher.Name
		}
	}
	return id
}

func roomName(catalog timetable.Catalog, id string) string {
	for _, room := range catalog.Rooms {
		if room.ID == id {
			return room.Name
		}
	}
	return id
}

func summarise(teachers []models.Teacher) []dto.TeacherSummary {
	out := make([]dto.TeacherSummary, 0, len(teachers))
	for _, teacher := range teachers {
		out = append(out, dto.TeacherSummary{ID: teacher.ID, Name: teacher.Name, Subjects: teacher.Subjects})
	}
	return out
}
