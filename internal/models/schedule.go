package models

import "strings"

// Weekday names a teaching day.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
)

// Weekdays lists the teaching week in scan order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var weekdayIndex = map[string]Weekday{
	"MONDAY":    Monday,
	"TUESDAY":   Tuesday,
	"WEDNESDAY": Wednesday,
	"THURSDAY":  Thursday,
	"FRIDAY":    Friday,
	"SATURDAY":  Saturday,
}

// ParseWeekday resolves a day name case-insensitively.
func ParseWeekday(raw string) (Weekday, bool) {
	day, ok := weekdayIndex[strings.ToUpper(strings.TrimSpace(raw))]
	return day, ok
}

// Index returns the zero-based position of the day in the week, or -1.
func (d Weekday) Index() int {
	for i, day := range Weekdays {
		if day == d {
			return i
		}
	}
	return -1
}

// TimeSlot is a (day, period) coordinate with its rendered time range.
type TimeSlot struct {
	Day       Weekday `json:"day"`
	Period    int     `json:"period"`
	TimeRange string  `json:"time_range"`
}

// Assignment is one scheduled lesson.
type Assignment struct {
	ClassName string   `json:"class_name"`
	Subject   Subject  `json:"subject"`
	Teacher   Teacher  `json:"teacher"`
	Room      Room     `json:"room"`
	Slot      TimeSlot `json:"slot"`
}

// ConflictKind classifies why a period could not be placed.
type ConflictKind string

const (
	ConflictTeacher ConflictKind = "teacher"
	ConflictRoom    ConflictKind = "room"
	ConflictClass   ConflictKind = "class"
)

// Conflict is a diagnostic for a period the generator could not place.
type Conflict struct {
	Kind        ConflictKind `json:"type"`
	ClassName   string       `json:"class_name"`
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	Resolution  string       `json:"resolution"`
}

// EntryKind distinguishes lessons from fixed pauses.
type EntryKind string

const (
	EntryLesson EntryKind = "lesson"
	EntryBreak  EntryKind = "break"
	EntryLunch  EntryKind = "lunch"
)

// Entry is a rendered row in a class's day.
type Entry struct {
	Period      int       `json:"period"`
	TimeRange   string    `json:"time_range"`
	Kind        EntryKind `json:"kind"`
	Label       string    `json:"label,omitempty"`
	SubjectID   string    `json:"subject_id,omitempty"`
	SubjectName string    `json:"subject_name,omitempty"`
	TeacherID   string    `json:"teacher_id,omitempty"`
	TeacherName string    `json:"teacher_name,omitempty"`
	RoomID      string    `json:"room_id,omitempty"`
	RoomName    string    `json:"room_name,omitempty"`
}

// IsLesson reports whether the entry occupies the class with a lesson.
func (e Entry) IsLesson() bool {
	return e.Kind == EntryLesson
}

// ClassSchedule is a class's week keyed by day.
type ClassSchedule map[Weekday][]Entry

// Timetable holds every class's week keyed by class name.
type Timetable map[string]ClassSchedule

// Clone returns a deep copy so callers can mutate without touching the source.
func (t Timetable) Clone() Timetable {
	out := make(Timetable, len(t))
	for className, week := range t {
		copied := make(ClassSchedule, len(week))
		for day, entries := range week {
			copied[day] = append([]Entry(nil), entries...)
		}
		out[className] = copied
	}
	return out
}
