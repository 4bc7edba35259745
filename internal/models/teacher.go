package models

// TeacherUnavailableSlot describes a blocked teaching window. Periods holds a single
// period index ("2") or an inclusive range ("2-4").
type TeacherUnavailableSlot struct {
	DayOfWeek string `json:"day_of_week"`
	Periods   string `json:"periods"`
}

// Teacher represents an instructor together with what and whom they may teach.
type Teacher struct {
	ID          string                   `db:"id" json:"id"`
	Name        string                   `db:"name" json:"name"`
	Subjects    []string                 `db:"-" json:"subjects"`
	Classes     []string                 `db:"-" json:"classes"`
	Unavailable []TeacherUnavailableSlot `db:"-" json:"unavailable,omitempty"`
	Absent      bool                     `db:"absent" json:"absent"`
}

// Teaches reports whether the teacher covers the subject name.
func (t Teacher) Teaches(subject string) bool {
	for _, name := range t.Subjects {
		if name == subject {
			return true
		}
	}
	return false
}

// EligibleFor reports whether the teacher may teach the class.
func (t Teacher) EligibleFor(className string) bool {
	for _, name := range t.Classes {
		if name == className {
			return true
		}
	}
	return false
}
