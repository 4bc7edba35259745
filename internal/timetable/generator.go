// Package timetable builds weekly class timetables with a greedy first-fit search and
// reports the periods it could not place.
package timetable

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// Catalog is the reference data a run schedules against. Slice order is significant:
// classes and subjects are scheduled in order, and resolvers prefer earlier teachers and rooms.
type Catalog struct {
	Classes  []models.Class   `json:"classes"`
	Subjects []models.Subject `json:"subjects"`
	Teachers []models.Teacher `json:"teachers"`
	Rooms    []models.Room    `json:"rooms"`
}

// Stats summarises a run.
type Stats struct {
	Requested        int `json:"requested"`
	Placed           int `json:"placed"`
	TeacherConflicts int `json:"teacher_conflicts"`
	RoomConflicts    int `json:"room_conflicts"`
	ClassConflicts   int `json:"class_conflicts"`
}

func (s *Stats) count(conflicts []models.Conflict) {
	for _, c := range conflicts {
		switch c.Kind {
		case models.ConflictTeacher:
			s.TeacherConflicts++
		case models.ConflictRoom:
			s.RoomConflicts++
		case models.ConflictClass:
			s.ClassConflicts++
		}
	}
}

// Merge folds the counters of a follow-up run into s.
func (s *Stats) Merge(other Stats) {
	s.Requested += other.Requested
	s.Placed += other.Placed
	s.TeacherConflicts += other.TeacherConflicts
	s.RoomConflicts += other.RoomConflicts
	s.ClassConflicts += other.ClassConflicts
}

// Result is a best-effort schedule plus the diagnostics for what could not be placed.
type Result struct {
	Timetable   models.Timetable    `json:"timetable"`
	Assignments []models.Assignment `json:"assignments"`
	Conflicts   []models.Conflict   `json:"conflicts"`
	Stats       Stats               `json:"stats"`
}

// Engine runs scheduling operations over one catalog, absence snapshot and settings.
type Engine struct {
	catalog      Catalog
	availability Availability
	settings     Settings
}

// New validates settings against the catalog and returns an engine. A selected class or
// subject that the catalog does not know is a VALIDATION_ERROR.
func New(catalog Catalog, availability Availability, settings Settings) (*Engine, error) {
	normalized, err := settings.Normalize()
	if err != nil {
		return nil, err
	}
	if err := checkSelection(catalog, normalized); err != nil {
		return nil, err
	}
	return &Engine{catalog: catalog, availability: availability, settings: normalized}, nil
}

func checkSelection(catalog Catalog, settings Settings) error {
	if settings.SelectedClass != "" {
		known := false
		for _, class := range catalog.Classes {
			if class.Name == settings.SelectedClass {
				known = true
				break
			}
		}
		if !known {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown class %q", settings.SelectedClass))
		}
	}
	for _, name := range settings.SelectedSubjects {
		known := false
		for _, subject := range catalog.Subjects {
			if subject.Name == name {
				known = true
				break
			}
		}
		if !known {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown subject %q", name))
		}
	}
	return nil
}

// Settings returns the normalized settings of the engine.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Generate schedules every selected class and subject from an empty week.
func (e *Engine) Generate() Result {
	ledger := NewLedger(nil)
	classes := e.classes()
	var stats Stats
	conflicts := make([]models.Conflict, 0)
	for _, class := range classes {
		for _, subject := range e.subjects() {
			conflicts = append(conflicts, e.placeSubject(ledger, class.Name, subject, &stats)...)
		}
	}
	stats.count(conflicts)

	names := make([]string, 0, len(classes))
	for _, class := range classes {
		names = append(names, class.Name)
	}
	assignments := ledger.Assignments()
	return Result{
		Timetable:   e.Format(assignments, names...),
		Assignments: assignments,
		Conflicts:   conflicts,
		Stats:       stats,
	}
}

// placeSubject places every weekly period of the subject for the class. Once a full sweep of
// the week fails, it gives up and reports one conflict per period still missing.
func (e *Engine) placeSubject(ledger *Ledger, className string, subject models.Subject, stats *Stats) []models.Conflict {
	stats.Requested += subject.PeriodsPerWeek
	for assigned := 0; assigned < subject.PeriodsPerWeek; assigned++ {
		kind, ok := e.placePeriod(ledger, className, subject)
		if ok {
			stats.Placed++
			continue
		}
		conflicts := make([]models.Conflict, 0, subject.PeriodsPerWeek-assigned)
		for missing := assigned + 1; missing <= subject.PeriodsPerWeek; missing++ {
			conflicts = append(conflicts, newConflict(kind, className, subject, missing))
		}
		return conflicts
	}
	return nil
}

// placePeriod sweeps the week once. On failure it returns the strongest reason seen:
// room (a teacher was found but no room), then teacher (the class was free but nobody could
// teach), then class (the class had no free period left).
func (e *Engine) placePeriod(ledger *Ledger, className string, subject models.Subject) (models.ConflictKind, bool) {
	reason := models.ConflictClass
	for _, day := range e.settings.Days {
		for period := 0; period < e.settings.PeriodsPerDay; period++ {
			if _, reserved := e.settings.Reserved(period); reserved {
				continue
			}
			if ledger.ClassBusy(day, period, className) {
				continue
			}
			teacher := e.TeacherForSubject(subject, className, day, period, ledger)
			if teacher == nil {
				if reason == models.ConflictClass {
					reason = models.ConflictTeacher
				}
				continue
			}
			room := e.SuitableRoom(subject, day, period, ledger)
			if room == nil {
				reason = models.ConflictRoom
				continue
			}
			ledger.Add(models.Assignment{
				ClassName: className,
				Subject:   subject,
				Teacher:   *teacher,
				Room:      *room,
				Slot:      models.TimeSlot{Day: day, Period: period, TimeRange: e.settings.TimeRange(period)},
			})
			return "", true
		}
	}
	return reason, false
}

func newConflict(kind models.ConflictKind, className string, subject models.Subject, period int) models.Conflict {
	conflict := models.Conflict{
		Kind:      kind,
		ClassName: className,
		Subject:   subject.Name,
	}
	switch kind {
	case models.ConflictTeacher:
		conflict.Description = fmt.Sprintf("No available teacher for %s in class %s (period %d of %d)", subject.Name, className, period, subject.PeriodsPerWeek)
		conflict.Resolution = "Assign another qualified teacher to the class or free up teacher time"
	case models.ConflictRoom:
		conflict.Description = fmt.Sprintf("No suitable room for %s in class %s (period %d of %d)", subject.Name, className, period, subject.PeriodsPerWeek)
		conflict.Resolution = "Free up a suitable room or add one to the catalog"
	default:
		conflict.Description = fmt.Sprintf("Could not assign all periods of %s for class %s (period %d of %d)", subject.Name, className, period, subject.PeriodsPerWeek)
		conflict.Resolution = "Reduce weekly periods or lengthen the school day"
	}
	return conflict
}

func (e *Engine) classes() []models.Class {
	if e.settings.SelectedClass == "" {
		return e.catalog.Classes
	}
	for _, class := range e.catalog.Classes {
		if class.Name == e.settings.SelectedClass {
			return []models.Class{class}
		}
	}
	return nil
}

func (e *Engine) subjects() []models.Subject {
	if len(e.settings.SelectedSubjects) == 0 {
		return e.catalog.Subjects
	}
	selected := make(map[string]bool, len(e.settings.SelectedSubjects))
	for _, name := range e.settings.SelectedSubjects {
		selected[name] = true
	}
	result := make([]models.Subject, 0, len(selected))
	for _, subject := range e.catalog.Subjects {
		if selected[subject.Name] {
			result = append(result, subject)
		}
	}
	return result
}
