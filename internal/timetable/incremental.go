package timetable

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// ConflictCheck is the advisory outcome of a manual placement check.
type ConflictCheck struct {
	HasConflict bool                `json:"has_conflict"`
	Kind        models.ConflictKind `json:"type,omitempty"`
	Message     string              `json:"message"`
}

// AddSubject layers a subject onto an existing timetable for one class. The input timetable is
// left untouched; already placed lessons keep their slots.
func (e *Engine) AddSubject(className, subjectName string, periodsPerWeek int, requiresSpecialRoom bool, existing models.Timetable) (Result, error) {
	className = strings.TrimSpace(className)
	subjectName = strings.TrimSpace(subjectName)
	if className == "" || subjectName == "" {
		return Result{}, appErrors.Clone(appErrors.ErrValidation, "className and subjectName are required")
	}
	if periodsPerWeek < 1 {
		return Result{}, appErrors.Clone(appErrors.ErrValidation, "periodsPerWeek must be > 0")
	}

	subject := e.lookupSubject(subjectName)
	subject.PeriodsPerWeek = periodsPerWeek
	subject.RequiresSpecialRoom = requiresSpecialRoom

	ledger := LedgerFromTimetable(existing)
	var stats Stats
	conflicts := e.placeSubject(ledger, className, subject, &stats)
	if conflicts == nil {
		conflicts = make([]models.Conflict, 0)
	}
	stats.count(conflicts)

	names := make([]string, 0, len(existing)+1)
	for name := range existing {
		names = append(names, name)
	}
	names = append(names, className)
	assignments := ledger.Assignments()
	return Result{
		Timetable:   e.Format(assignments, names...),
		Assignments: assignments,
		Conflicts:   conflicts,
		Stats:       stats,
	}, nil
}

// CheckForConflict tests a manual placement against the timetable. Teacher clashes with another
// class are reported first, then room clashes with another class, then the class's own occupancy.
func (e *Engine) CheckForConflict(day models.Weekday, period int, teacherID, roomID, className string, existing models.Timetable) (ConflictCheck, error) {
	if err := e.settings.validateLessonSlot(day, period); err != nil {
		return ConflictCheck{}, err
	}

	var teacherHit, roomHit, classHit *ConflictCheck
	for _, other := range sortedClassNames(existing) {
		for _, entry := range existing[other][day] {
			if !entry.IsLesson() || entry.Period != period {
				continue
			}
			if other != className {
				if teacherHit == nil && teacherID != "" && entry.TeacherID == teacherID {
					teacherHit = &ConflictCheck{
						HasConflict: true,
						Kind:        models.ConflictTeacher,
						Message:     fmt.Sprintf("Teacher %s is already teaching %s in class %s on %s period %d", displayName(entry.TeacherName, teacherID), entry.SubjectName, other, day, period),
					}
				}
				if roomHit == nil && roomID != "" && entry.RoomID == roomID {
					roomHit = &ConflictCheck{
						HasConflict: true,
						Kind:        models.ConflictRoom,
						Message:     fmt.Sprintf("Room %s is already booked by class %s on %s period %d", displayName(entry.RoomName, roomID), other, day, period),
					}
				}
				continue
			}
			if classHit == nil {
				classHit = &ConflictCheck{
					HasConflict: true,
					Kind:        models.ConflictClass,
					Message:     fmt.Sprintf("Class %s already has %s on %s period %d", className, entry.SubjectName, day, period),
				}
			}
		}
	}

	for _, hit := range []*ConflictCheck{teacherHit, roomHit, classHit} {
		if hit != nil {
			return *hit, nil
		}
	}
	return ConflictCheck{Message: "No conflicts"}, nil
}

// AvailableSubstitutes lists teachers of the subject who are present and free at the slot.
func (e *Engine) AvailableSubstitutes(subjectName string, day models.Weekday, period int, existing models.Timetable) ([]models.Teacher, error) {
	if err := e.settings.validateLessonSlot(day, period); err != nil {
		return nil, err
	}
	ledger := LedgerFromTimetable(existing)
	result := make([]models.Teacher, 0)
	for _, teacher := range e.catalog.Teachers {
		if !teacher.Teaches(subjectName) {
			continue
		}
		if IsTeacherAvailable(teacher, day, period, ledger, e.availability) {
			result = append(result, teacher)
		}
	}
	return result, nil
}

// FindSubstituteTeachers lists present teachers of the subject other than the absent one,
// without checking their timetable. period and day identify the slot being covered but do not
// filter the result; AvailableSubstitutes is the slot-aware lookup.
func (e *Engine) FindSubstituteTeachers(absentTeacherName, subjectName string, period int, day models.Weekday) []models.Teacher {
	result := make([]models.Teacher, 0)
	for _, teacher := range e.catalog.Teachers {
		if teacher.Name == absentTeacherName || !teacher.Teaches(subjectName) {
			continue
		}
		if e.availability.IsAbsent(teacher) {
			continue
		}
		result = append(result, teacher)
	}
	return result
}

func (e *Engine) lookupSubject(name string) models.Subject {
	for _, subject := range e.catalog.Subjects {
		if subject.Name == name {
			return subject
		}
	}
	return models.Subject{ID: slugify(name), Name: name}
}

func sortedClassNames(t models.Timetable) []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func displayName(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
