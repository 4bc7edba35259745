package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type timetableFixture struct {
	svc      *TimetableService
	absences *AbsenceService
	store    *memoryTimetableStore
	clock    *time.Time
}

func newTimetableFixture(t *testing.T, catalog timetable.Catalog) *timetableFixture {
	t.Helper()
	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	clock := &now
	directory := NewCatalogService(&countingCatalogRepo{catalog: catalog}, nil, nil, 0, nil)
	absences := NewAbsenceService(directory, nil)
	absences.now = func() time.Time { return *clock }
	store := newMemoryTimetableStore(time.Hour, func() time.Time { return *clock })
	svc := NewTimetableService(directory, absences, store, NewMetricsService(), nil, nil, TimetableServiceConfig{})
	svc.now = func() time.Time { return *clock }
	return &timetableFixture{svc: svc, absences: absences, store: store, clock: clock}
}

func serviceCatalog() timetable.Catalog {
	return timetable.Catalog{
		Classes:  []models.Class{{Name: "10A", Grade: "10"}, {Name: "10B", Grade: "10"}},
		Subjects: []models.Subject{{ID: "math", Name: "Mathematics", PeriodsPerWeek: 3}},
		Teachers: []models.Teacher{
			{ID: "t-alice", Name: "Alice", Subjects: []string{"Mathematics"}, Classes: []string{"10A", "10B"}},
			{ID: "t-bob", Name: "Bob", Subjects: []string{"Mathematics"}, Classes: []string{"10A", "10B"}},
			{ID: "t-mia", Name: "Mia", Subjects: []string{"Music"}, Classes: []string{"10A"}},
		},
		Rooms: []models.Room{
			{ID: "r-101", Name: "Room 101", Type: models.RoomTypeRegular},
			{ID: "r-102", Name: "Room 102", Type: models.RoomTypeRegular},
			{ID: "music-1", Name: "Music Room", Type: models.RoomTypeMusic},
		},
	}
}

func intPtr(v int) *int {
	return &v
}

func TestTimetableServiceGenerateStoresSnapshot(t *testing.T) {
	f := newTimetableFixture(t, serviceCatalog())
	ctx := context.Background()

	resp, err := f.svc.Generate(ctx, dto.GenerateTimetableRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, "2024-03-04", resp.Date)
	assert.Equal(t, dto.TimetableStats{Requested: 6, Placed: 6}, resp.Stats)
	assert.Empty(t, resp.Conflicts)
	assert.NotNil(t, resp.Conflicts)
	assert.Equal(t, 45, resp.Settings.PeriodDuration)
	assert.Equal(t, f.clock.Add(time.Hour), resp.ExpiresAt)

	stored, err := f.svc.Get(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Timetable, stored.Timetable)
}

func TestTimetableServiceGenerateUsesDateScopedAbsences(t *testing.T) {
	f := newTimetableFixture(t, serviceCatalog())
	ctx := context.Background()
	_, err := f.absences.MarkAbsent(ctx, "t-alice", "2024-03-05")
	require.NoError(t, err)

	today, err := f.svc.Generate(ctx, dto.GenerateTimetableRequest{})
	require.NoError(t, err)
	tomorrow, err := f.svc.Generate(ctx, dto.GenerateTimetableRequest{Date: "2024-03-05"})
	require.NoError(t, err)

	assert.Contains(t, teachersIn(today.Timetable), "t-alice")
	assert.NotContains(t, teachersIn(tomorrow.Timetable), "t-alice")
	assert.Equal(t, 6, tomorrow.Stats.Placed)
}

func TestTimetableServiceGenerateValidation(t *testing.T) {
	f := newTimetableFixture(t, serviceCatalog())
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, dto.GenerateTimetableRequest{Policy: "random"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Generate(ctx, dto.GenerateTimetableRequest{Days: []string{"Sunday"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidSlot.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Generate(ctx, dto.GenerateTimetableRequest{SelectedClass: "12Z"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Generate(ctx, dto.GenerateTimetableRequest{SelectedSubjects: []string{"Astrology"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceGenerateWithoutTeachersReportsConflicts(t *testing.T) {
	catalog := serviceCatalog()
	catalog.Teachers = nil
	f := newTimetableFixture(t, catalog)

	resp, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 6, resp.Stats.Requested)
	assert.Equal(t, 0, resp.Stats.Placed)
	require.Len(t, resp.Conflicts, 6)
	for _, conflict := range resp.Conflicts {
		assert.Equal(t, models.ConflictTeacher, conflict.Kind)
	}
	_, err = f.svc.Get(context.Background(), resp.ID)
	require.NoError(t, err)

	empty := newTimetableFixture(t, timetable.Catalog{})
	resp, err = empty.svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Conflicts)
	assert.Zero(t, resp.Stats.Requested)
}

func TestTimetableServiceGenerateCustomDay(t *testing.T) {
	f := newTimetableFixture(t, serviceCatalog())

	resp, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		PeriodsPerDay:  4,
		PeriodDuration: 50,
		StartTime:      "07:00",
		Days:           []string{"monday"},
		Breaks:         []dto.BreakRequest{{Period: 2, Kind: "break", Label: "Recess"}},
		SelectedClass:  "10A",
	})
	require.NoError(t, err)

	monday := resp.Timetable["10A"][models.Monday]
	require.Len(t, monday, 4)
	assert.Equal(t, "Recess", monday[2].Label)
	assert.Equal(t, "08:40 - 09:30", monday[2].TimeRange)
	assert.Equal(t, dto.TimetableStats{Requested: 3, Placed: 3}, resp.Stats)
	assert.NotContains(t, resp.Timetable, "10B")
}

func TestTimetableServiceGetExpired(t *testing.T) {
	f := newTimetableFixture(t, serviceCatalog())
	ctx := context.Background()
	resp, err := f.svc.Generate(ctx, dto.GenerateTimetableRequest{})
	require.NoError(t, err)

	*f.clock = f.clock.Add(2 * time.Hour)
	_, err = f.svc.Get(ctx, resp.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceDelete(t *testing.T) {
	f := newTimetableFixture(t, serviceCatalog())
	ctx := context.Background()
	resp, err := f.svc.Generate(ctx, dto.GenerateTimetableRequest{})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, resp.ID))
	err = f.svc.Delete(ctx, resp.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceAddSubject(t *testing.T) {
	f := newTimetableFixture(t, serviceCatalog())
	ctx := context.Background()
	resp, err := f.svc.Generate(ctx, dto.GenerateTimetableRequest{})
	require.NoError(t, err)

	updated, err := f.svc.AddSubject(ctx, resp.ID, dto.AddSubjectRequest{
		ClassName:           "10A",
		SubjectName:         "Music",
		PeriodsPerWeek:      2,
		RequiresSpecialRoom: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Stats.Requested)
	assert.Equal(t, 8, updated.Stats.Placed)

	music := 0
	for _, entries := range updated.Timetable["10A"] {
		for _, entry := range entries {
			if entry.SubjectName == "Music" {
				music++
				assert.Equal(t, "music-1", entry.RoomID)
			}
		}
	}
	assert.Equal(t, 2, music)

	_, err = f.svc.AddSubject(ctx, resp.ID, dto.AddSubjectRequest{ClassName: "10A"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

// interleavingStore runs onGet once, the first time a snapshot is read after it is armed.
type interleavingStore struct {
	*memoryTimetableStore
	once  sync.Once
	onGet func()
}

func (s *interleavingStore) Get(ctx context.Context, id string) (*TimetableSnapshot, error) {
	snapshot, err := s.memoryTimetableStore.Get(ctx, id)
	if s.onGet != nil {
		s.once.Do(s.onGet)
	}
	return snapshot, err
}

func TestTimetableServiceDeleteDuringAddSubjectStaysDeleted(t *testing.T) {
	catalog := NewCatalogService(&countingCatalogRepo{catalog: serviceCatalog()}, nil, nil, 0, nil)
	absences := NewAbsenceService(catalog, nil)
	store := &interleavingStore{memoryTimetableStore: newMemoryTimetableStore(time.Hour, time.Now)}
	svc := NewTimetableService(catalog, absences, store, NewMetricsService(), nil, nil, TimetableServiceConfig{})
	ctx := context.Background()

	resp, err := svc.Generate(ctx, dto.GenerateTimetableRequest{})
	require.NoError(t, err)

	deleted := make(chan error, 1)
	store.onGet = func() {
		go func() { deleted <- svc.Delete(ctx, resp.ID) }()
		select {
		case <-deleted:
			t.Error("delete finished while add subject held the snapshot")
		case <-time.After(50 * time.Millisecond):
		}
	}

	_, err = svc.AddSubject(ctx, resp.ID, dto.AddSubjectRequest{ClassName: "10A", SubjectName: "Music", PeriodsPerWeek: 1})
	require.NoError(t, err)
	require.NoError(t, <-deleted)

	_, err = svc.Get(ctx, resp.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceCheckConflict(t *testing.T) {
	f := newTimetableFixture(t, serviceCatalog())
	ctx := context.Background()
	resp, err := f.svc.Generate(ctx, dto.GenerateTimetableRequest{})
	require.NoError(t, err)

	first := resp.Timetable["10A"][models.Monday][0]
	check, err := f.svc.CheckConflict(ctx, resp.ID, dto.ConflictCheckRequest{
		Day:       "monday",
		Period:    intPtr(0),
		TeacherID: first.TeacherID,
		ClassName: "10B",
	})
	require.NoError(t, err)
	assert.True(t, check.HasConflict)
	assert.Equal(t, "teacher", check.Type)

	_, err = f.svc.CheckConflict(ctx, resp.ID, dto.ConflictCheckRequest{
		Day:       "Monday",
		Period:    intPtr(3),
		TeacherID: "t-bob",
		ClassName: "10B",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidSlot.Code, appErrors.FromError(err).Code)

	_, err = f.svc.CheckConflict(ctx, resp.ID, dto.ConflictCheckRequest{Day: "Monday", TeacherID: "t-bob", ClassName: "10B"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceApplySlotEdit(t *testing.T) {
	f := newTimetableFixture(t, serviceCatalog())
	ctx := context.Background()
	resp, err := f.svc.Generate(ctx, dto.GenerateTimetableRequest{})
	require.NoError(t, err)

	busy := resp.Timetable["10A"][models.Monday][0]
	edit := dto.SlotEditRequest{
		ClassName: "10B",
		Day:       "Monday",
		Period:    intPtr(0),
		Subject:   "Mathematics",
		TeacherID: busy.TeacherID,
		RoomID:    "r-102",
	}
	_, err = f.svc.ApplySlotEdit(ctx, resp.ID, edit)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	edit.Force = true
	forced, err := f.svc.ApplySlotEdit(ctx, resp.ID, edit)
	require.NoError(t, err)
	monday := forced.Timetable["10B"][models.Monday]
	require.NotEmpty(t, monday)
	assert.Equal(t, 0, monday[0].Period)
	assert.Equal(t, busy.TeacherID, monday[0].TeacherID)
	assert.Equal(t, "Room 102", monday[0].RoomName)

	own := dto.SlotEditRequest{
		ClassName: "10A",
		Day:       "Monday",
		Period:    intPtr(0),
		Subject:   "Music",
		TeacherID: "t-mia",
		RoomID:    busy.RoomID,
	}
	replaced, err := f.svc.ApplySlotEdit(ctx, resp.ID, own)
	require.NoError(t, err, "replacing a class's own lesson is not a conflict")
	lessons := 0
	for _, entry := range replaced.Timetable["10A"][models.Monday] {
		if entry.IsLesson() && entry.Period == 0 {
			lessons++
		}
	}
	assert.Equal(t, 1, lessons)

	_, err = f.svc.ApplySlotEdit(ctx, resp.ID, dto.SlotEditRequest{ClassName: "12Z", Day: "Monday", Period: intPtr(1), Subject: "Art", TeacherID: "t-bob"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceSubstitutes(t *testing.T) {
	f := newTimetableFixture(t, serviceCatalog())
	ctx := context.Background()
	resp, err := f.svc.Generate(ctx, dto.GenerateTimetableRequest{SelectedClass: "10A"})
	require.NoError(t, err)
	busy := resp.Timetable["10A"][models.Monday][0].TeacherID

	subs, err := f.svc.Substitutes(ctx, resp.ID, dto.SubstituteQuery{Subject: "Mathematics", Day: "Monday", Period: intPtr(0)})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.NotEqual(t, busy, subs[0].ID)

	_, err = f.absences.MarkAbsent(ctx, subs[0].ID, "2024-03-08")
	require.NoError(t, err)
	subs, err = f.svc.Substitutes(ctx, resp.ID, dto.SubstituteQuery{Subject: "Mathematics", Day: "Monday", Period: intPtr(0), Date: "2024-03-08"})
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestTimetableServiceFindSubstitutes(t *testing.T) {
	f := newTimetableFixture(t, serviceCatalog())
	ctx := context.Background()

	subs, err := f.svc.FindSubstitutes(ctx, dto.SimpleSubstituteQuery{AbsentTeacher: "Alice", Subject: "Mathematics", Day: "Monday", Period: intPtr(2)})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Bob", subs[0].Name)

	_, err = f.absences.MarkAbsent(ctx, "t-bob", "")
	require.NoError(t, err)
	subs, err = f.svc.FindSubstitutes(ctx, dto.SimpleSubstituteQuery{AbsentTeacher: "Alice", Subject: "Mathematics"})
	require.NoError(t, err)
	assert.Empty(t, subs)

	_, err = f.svc.FindSubstitutes(ctx, dto.SimpleSubstituteQuery{AbsentTeacher: "Alice", Subject: "Mathematics", Day: "Someday"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidSlot.Code, appErrors.FromError(err).Code)
}

func teachersIn(t models.Timetable) map[string]bool {
	out := map[string]bool{}
	for _, week := range t {
		for _, entries := range week {
			for _, entry := range entries {
				if entry.IsLesson() {
					out[entry.TeacherID] = true
				}
			}
		}
	}
	return out
}
