package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func TestEngineGenerateSingleSubject(t *testing.T) {
	engine := newEngineFixture(t, singleSubjectCatalog(), Availability{}, Settings{})

	result := engine.Generate()

	require.Len(t, result.Assignments, 6)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, Stats{Requested: 6, Placed: 6}, result.Stats)
	seen := make(map[slotKey]bool)
	for _, a := range result.Assignments {
		key := slotKey{Day: a.Slot.Day, Period: a.Slot.Period}
		assert.False(t, seen[key], "slot %v used twice", key)
		seen[key] = true
		_, reserved := engine.Settings().Reserved(a.Slot.Period)
		assert.False(t, reserved, "lesson placed on a break period")
	}
}

func TestEngineGenerateAbsentTeacher(t *testing.T) {
	engine := newEngineFixture(t, singleSubjectCatalog(), Availability{Absent: map[string]bool{"t-alice": true}}, Settings{})

	result := engine.Generate()

	assert.Empty(t, result.Assignments)
	require.Len(t, result.Conflicts, 6)
	for _, c := range result.Conflicts {
		assert.Equal(t, models.ConflictTeacher, c.Kind)
		assert.Equal(t, "10A", c.ClassName)
		assert.Equal(t, "Mathematics", c.Subject)
		assert.NotEmpty(t, c.Resolution)
	}
	assert.Equal(t, 6, result.Stats.TeacherConflicts)
}

func TestEngineGenerateCatalogAbsentFlag(t *testing.T) {
	catalog := singleSubjectCatalog()
	catalog.Teachers[0].Absent = true
	engine := newEngineFixture(t, catalog, Availability{}, Settings{})

	result := engine.Generate()

	assert.Empty(t, result.Assignments)
	assert.Len(t, result.Conflicts, 6)
}

func TestEngineGenerateRoomConflict(t *testing.T) {
	catalog := singleSubjectCatalog()
	catalog.Subjects = []models.Subject{{ID: "sci", Name: "Science", PeriodsPerWeek: 3, RequiresSpecialRoom: true}}
	catalog.Teachers[0].Subjects = []string{"Science"}
	engine := newEngineFixture(t, catalog, Availability{}, Settings{})

	result := engine.Generate()

	assert.Empty(t, result.Assignments)
	require.Len(t, result.Conflicts, 3)
	for _, c := range result.Conflicts {
		assert.Equal(t, models.ConflictRoom, c.Kind)
	}
}

func TestEngineGenerateClassConflictWhenWeekIsFull(t *testing.T) {
	catalog := singleSubjectCatalog()
	catalog.Subjects[0].PeriodsPerWeek = 3
	engine := newEngineFixture(t, catalog, Availability{}, Settings{
		PeriodsPerDay: 2,
		Days:          []models.Weekday{models.Monday},
	})

	result := engine.Generate()

	assert.Len(t, result.Assignments, 2)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, models.ConflictClass, result.Conflicts[0].Kind)
	assert.Equal(t, Stats{Requested: 3, Placed: 2, ClassConflicts: 1}, result.Stats)
}

func TestEngineGenerateSchoolInvariants(t *testing.T) {
	catalog := schoolCatalog()
	engine := newEngineFixture(t, catalog, Availability{Absent: map[string]bool{"t-dana": true}}, Settings{})

	result := engine.Generate()

	type slot struct {
		day    models.Weekday
		period int
		id     string
	}
	teachers := map[slot]bool{}
	rooms := map[slot]bool{}
	classes := map[slot]bool{}
	placed := map[[2]string]int{}
	for _, a := range result.Assignments {
		tk := slot{a.Slot.Day, a.Slot.Period, a.Teacher.ID}
		rk := slot{a.Slot.Day, a.Slot.Period, a.Room.ID}
		ck := slot{a.Slot.Day, a.Slot.Period, a.ClassName}
		require.False(t, teachers[tk], "teacher double-booked: %+v", tk)
		require.False(t, rooms[rk], "room double-booked: %+v", rk)
		require.False(t, classes[ck], "class double-booked: %+v", ck)
		teachers[tk], rooms[rk], classes[ck] = true, true, true
		assert.NotEqual(t, "t-dana", a.Teacher.ID, "absent teacher must never be selected")
		placed[[2]string{a.ClassName, a.Subject.Name}]++
	}

	missing := map[[2]string]int{}
	for _, c := range result.Conflicts {
		missing[[2]string{c.ClassName, c.Subject}]++
	}
	for _, class := range catalog.Classes {
		for _, subject := range catalog.Subjects {
			key := [2]string{class.Name, subject.Name}
			assert.Equal(t, subject.PeriodsPerWeek, placed[key]+missing[key], "periods of %v not accounted for", key)
			if missing[key] == 0 {
				assert.Equal(t, subject.PeriodsPerWeek, placed[key])
			}
		}
	}
	assert.Equal(t, result.Stats.Requested, result.Stats.Placed+len(result.Conflicts))
}

func TestEngineGenerateHonoursUnavailable(t *testing.T) {
	catalog := singleSubjectCatalog()
	catalog.Teachers[0].Unavailable = []models.TeacherUnavailableSlot{{DayOfWeek: "MONDAY", Periods: "0-2"}}
	engine := newEngineFixture(t, catalog, Availability{}, Settings{})

	result := engine.Generate()

	require.Len(t, result.Assignments, 6)
	for _, a := range result.Assignments {
		if a.Slot.Day == models.Monday {
			assert.GreaterOrEqual(t, a.Slot.Period, 3)
		}
	}
}

func TestEngineGenerateLeastLoadedPolicy(t *testing.T) {
	catalog := singleSubjectCatalog()
	catalog.Subjects[0].PeriodsPerWeek = 4
	catalog.Teachers = append(catalog.Teachers, models.Teacher{ID: "t-bob", Name: "Bob", Subjects: []string{"Mathematics"}, Classes: []string{"10A"}})

	firstFit := newEngineFixture(t, catalog, Availability{}, Settings{}).Generate()
	for _, a := range firstFit.Assignments {
		assert.Equal(t, "t-alice", a.Teacher.ID)
	}

	balanced := newEngineFixture(t, catalog, Availability{}, Settings{Policy: PolicyLeastLoaded}).Generate()
	load := map[string]int{}
	for _, a := range balanced.Assignments {
		load[a.Teacher.ID]++
	}
	assert.Equal(t, map[string]int{"t-alice": 2, "t-bob": 2}, load)
}

func TestEngineGenerateScopedSelection(t *testing.T) {
	catalog := schoolCatalog()
	engine := newEngineFixture(t, catalog, Availability{}, Settings{
		SelectedClass:    "10B",
		SelectedSubjects: []string{"English"},
	})

	result := engine.Generate()

	require.Len(t, result.Timetable, 1)
	require.NotEmpty(t, result.Assignments)
	for _, a := range result.Assignments {
		assert.Equal(t, "10B", a.ClassName)
		assert.Equal(t, "English", a.Subject.Name)
	}
	assert.Equal(t, 4, result.Stats.Requested)
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	_, err := New(Catalog{}, Availability{}, Settings{PeriodsPerDay: 40})
	require.Error(t, err)
}

func TestNewRejectsUnknownSelection(t *testing.T) {
	_, err := New(schoolCatalog(), Availability{}, Settings{SelectedClass: "12Z"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "12Z")

	_, err = New(schoolCatalog(), Availability{}, Settings{SelectedSubjects: []string{"English", "Astrology"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "Astrology")
}

// --- Fixtures ---

func newEngineFixture(t *testing.T, catalog Catalog, availability Availability, settings Settings) *Engine {
	t.Helper()
	engine, err := New(catalog, availability, settings)
	require.NoError(t, err)
	return engine
}

func singleSubjectCatalog() Catalog {
	return Catalog{
		Classes:  []models.Class{{Name: "10A", Grade: "10"}},
		Subjects: []models.Subject{{ID: "math", Name: "Mathematics", PeriodsPerWeek: 6}},
		Teachers: []models.Teacher{{ID: "t-alice", Name: "Alice", Subjects: []string{"Mathematics"}, Classes: []string{"10A"}}},
		Rooms:    []models.Room{{ID: "r-101", Name: "Room 101", Type: models.RoomTypeRegular}},
	}
}

func schoolCatalog() Catalog {
	all := []string{"10A", "10B", "11A"}
	return Catalog{
		Classes: []models.Class{{Name: "10A", Grade: "10"}, {Name: "10B", Grade: "10"}, {Name: "11A", Grade: "11"}},
		Subjects: []models.Subject{
			{ID: "math", Name: "Mathematics", PeriodsPerWeek: 5},
			{ID: "eng", Name: "English", PeriodsPerWeek: 4},
			{ID: "sci", Name: "Science", PeriodsPerWeek: 3, RequiresSpecialRoom: true},
			{ID: "pe", Name: "Physical Education", PeriodsPerWeek: 2, RequiresSpecialRoom: true},
			{ID: "art", Name: "Art", PeriodsPerWeek: 2, RequiresSpecialRoom: true},
		},
		Teachers: []models.Teacher{
			{ID: "t-alice", Name: "Alice", Subjects: []string{"Mathematics"}, Classes: all},
			{ID: "t-bob", Name: "Bob", Subjects: []string{"English"}, Classes: []string{"10A", "10B"}},
			{ID: "t-carol", Name: "Carol", Subjects: []string{"Science", "Mathematics"}, Classes: all},
			{ID: "t-dana", Name: "Dana", Subjects: []string{"Physical Education", "English"}, Classes: all},
			{ID: "t-eve", Name: "Eve", Subjects: []string{"Physical Education"}, Classes: []string{"10A"}},
		},
		Rooms: []models.Room{
			{ID: "r-101", Name: "Room 101", Type: models.RoomTypeRegular},
			{ID: "r-102", Name: "Room 102", Type: models.RoomTypeRegular},
			{ID: "lab-1", Name: "Science Lab", Type: models.RoomTypeLab},
			{ID: "field", Name: "Playground", Type: models.RoomTypePlayground},
		},
	}
}
