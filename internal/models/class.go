package models

// Class is a student group. Name doubles as the identifier used across the timetable.
type Class struct {
	Name  string `db:"name" json:"name"`
	Grade string `db:"grade" json:"grade"`
}
