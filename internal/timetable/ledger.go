package timetable

import (
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

type slotKey struct {
	Day    models.Weekday
	Period int
	ID     string
}

// Ledger is the working assignment set of a run, indexed for occupancy lookups.
type Ledger struct {
	assignments []models.Assignment
	teachers    map[slotKey]struct{}
	rooms       map[slotKey]struct{}
	classes     map[slotKey]struct{}
	teacherLoad map[string]int
	roomLoad    map[string]int
}

// NewLedger indexes the given assignments.
func NewLedger(assignments []models.Assignment) *Ledger {
	l := &Ledger{
		teachers:    make(map[slotKey]struct{}),
		rooms:       make(map[slotKey]struct{}),
		classes:     make(map[slotKey]struct{}),
		teacherLoad: make(map[string]int),
		roomLoad:    make(map[string]int),
	}
	for _, a := range assignments {
		l.Add(a)
	}
	return l
}

// LedgerFromTimetable rebuilds assignments from the lesson entries of a rendered timetable.
// Classes are visited in name order and days in week order so the result is deterministic.
func LedgerFromTimetable(t models.Timetable) *Ledger {
	classNames := make([]string, 0, len(t))
	for name := range t {
		classNames = append(classNames, name)
	}
	sort.Strings(classNames)

	l := NewLedger(nil)
	for _, className := range classNames {
		week := t[className]
		for _, day := range models.Weekdays {
			for _, entry := range week[day] {
				if !entry.IsLesson() {
					continue
				}
				l.Add(models.Assignment{
					ClassName: className,
					Subject:   models.Subject{ID: entry.SubjectID, Name: entry.SubjectName},
					Teacher:   models.Teacher{ID: entry.TeacherID, Name: entry.TeacherName},
					Room:      models.Room{ID: entry.RoomID, Name: entry.RoomName},
					Slot:      models.TimeSlot{Day: day, Period: entry.Period, TimeRange: entry.TimeRange},
				})
			}
		}
	}
	return l
}

// Add records an assignment.
func (l *Ledger) Add(a models.Assignment) {
	l.assignments = append(l.assignments, a)
	day, period := a.Slot.Day, a.Slot.Period
	if a.Teacher.ID != "" {
		l.teachers[slotKey{Day: day, Period: period, ID: a.Teacher.ID}] = struct{}{}
		l.teacherLoad[a.Teacher.ID]++
	}
	if a.Room.ID != "" {
		l.rooms[slotKey{Day: day, Period: period, ID: a.Room.ID}] = struct{}{}
		l.roomLoad[a.Room.ID]++
	}
	l.classes[slotKey{Day: day, Period: period, ID: a.ClassName}] = struct{}{}
}

// Assignments returns a copy of the recorded assignments in insertion order.
func (l *Ledger) Assignments() []models.Assignment {
	return append([]models.Assignment(nil), l.assignments...)
}

// Len returns the number of assignments.
func (l *Ledger) Len() int {
	return len(l.assignments)
}

func (l *Ledger) teacherBusy(day models.Weekday, period int, teacherID string) bool {
	_, ok := l.teachers[slotKey{Day: day, Period: period, ID: teacherID}]
	return ok
}

func (l *Ledger) roomBusy(day models.Weekday, period int, roomID string) bool {
	_, ok := l.rooms[slotKey{Day: day, Period: period, ID: roomID}]
	return ok
}

// ClassBusy reports whether the class already has a lesson at the slot.
func (l *Ledger) ClassBusy(day models.Weekday, period int, className string) bool {
	_, ok := l.classes[slotKey{Day: day, Period: period, ID: className}]
	return ok
}

// TeacherLoad returns how many lessons the teacher holds.
func (l *Ledger) TeacherLoad(teacherID string) int {
	return l.teacherLoad[teacherID]
}

// RoomLoad returns how many lessons the room hosts.
func (l *Ledger) RoomLoad(roomID string) int {
	return l.roomLoad[roomID]
}
