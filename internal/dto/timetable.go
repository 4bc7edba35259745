package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// BreakRequest reserves a period index for a pause.
type BreakRequest struct {
	Period int    `json:"period" validate:"min=0,max=15"`
	Kind   string `json:"kind" validate:"required,oneof=break lunch"`
	Label  string `json:"label"`
}

// GenerateTimetableRequest instructs the engine to build a weekly timetable.
type GenerateTimetableRequest struct {
	PeriodDuration   int            `json:"periodDuration" validate:"omitempty,min=1,max=240"`
	PeriodsPerDay    int            `json:"periodsPerDay" validate:"omitempty,min=1,max=16"`
	StartTime        string         `json:"startTime" validate:"omitempty,len=5"`
	SelectedClass    string         `json:"selectedClass"`
	SelectedSubjects []string       `json:"selectedSubjects" validate:"omitempty,dive,required"`
	Days             []string       `json:"days" validate:"omitempty,dive,required"`
	Breaks           []BreakRequest `json:"breaks" validate:"omitempty,dive"`
	Policy           string         `json:"policy" validate:"omitempty,oneof=first-fit least-loaded"`
	// Date selects the absence snapshot (YYYY-MM-DD). Defaults to today.
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// TimetableStats summarises a generation or incremental run.
type TimetableStats struct {
	Requested        int `json:"requested"`
	Placed           int `json:"placed"`
	TeacherConflicts int `json:"teacherConflicts"`
	RoomConflicts    int `json:"roomConflicts"`
	ClassConflicts   int `json:"classConflicts"`
}

// TimetableResponse is the stored snapshot returned to clients.
type TimetableResponse struct {
	ID          string            `json:"id"`
	Date        string            `json:"date"`
	Timetable   models.Timetable  `json:"timetable"`
	Conflicts   []models.Conflict `json:"conflicts"`
	Stats       TimetableStats    `json:"stats"`
	Settings    TimetableSettings `json:"settings"`
	GeneratedAt time.Time         `json:"generatedAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	ExpiresAt   time.Time         `json:"expiresAt"`
}

// TimetableSettings echoes the effective settings of a snapshot.
type TimetableSettings struct {
	PeriodDuration int              `json:"periodDuration"`
	PeriodsPerDay  int              `json:"periodsPerDay"`
	StartTime      string           `json:"startTime"`
	Days           []models.Weekday `json:"days"`
	Policy         string           `json:"policy"`
}

// AddSubjectRequest places an extra subject into an existing timetable.
type AddSubjectRequest struct {
	ClassName           string `json:"className" validate:"required"`
	SubjectName         string `json:"subjectName" validate:"required"`
	PeriodsPerWeek      int    `json:"periodsPerWeek" validate:"required,min=1,max=96"`
	RequiresSpecialRoom bool   `json:"requiresSpecialRoom"`
}

// ConflictCheckRequest asks whether a single slot is free.
type ConflictCheckRequest struct {
	Day       string `json:"day" validate:"required"`
	Period    *int   `json:"period" validate:"required"`
	TeacherID string `json:"teacherId" validate:"required"`
	RoomID    string `json:"roomId"`
	ClassName string `json:"className" validate:"required"`
}

// ConflictCheckResponse reports the first conflict found at the slot.
type ConflictCheckResponse struct {
	HasConflict bool   `json:"hasConflict"`
	Type        string `json:"type,omitempty"`
	Message     string `json:"message"`
}

// SlotEditRequest manually sets one lesson in a class's day.
type SlotEditRequest struct {
	ClassName string `json:"className" validate:"required"`
	Day       string `json:"day" validate:"required"`
	Period    *int   `json:"period" validate:"required"`
	SubjectID string `json:"subjectId"`
	Subject   string `json:"subject" validate:"required"`
	TeacherID string `json:"teacherId" validate:"required"`
	RoomID    string `json:"roomId"`
	Force     bool   `json:"force"`
}

// SubstituteQuery filters slot-aware substitute lookups.
type SubstituteQuery struct {
	Subject string `form:"subject" validate:"required"`
	Day     string `form:"day" validate:"required"`
	Period  *int   `form:"period" validate:"required"`
	Date    string `form:"date" validate:"omitempty,datetime=2006-01-02"`
}

// SimpleSubstituteQuery filters the slot-agnostic substitute lookup.
type SimpleSubstituteQuery struct {
	AbsentTeacher string `form:"absentTeacher" validate:"required"`
	Subject       string `form:"subject" validate:"required"`
	Day           string `form:"day"`
	Period        *int   `form:"period"`
}

// TeacherSummary is the public view of a substitute candidate.
type TeacherSummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Subjects []string `json:"subjects"`
}

// MarkAbsentRequest registers a teacher absence for a date.
type MarkAbsentRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// AbsenceResponse lists absent teachers for a date.
type AbsenceResponse struct {
	Date       string   `json:"date"`
	TeacherIDs []string `json:"teacherIds"`
}

// CatalogResponse exposes reference data used by the generator.
type CatalogResponse struct {
	Classes  []models.Class   `json:"classes"`
	Subjects []models.Subject `json:"subjects"`
	Teachers []models.Teacher `json:"teachers"`
	Rooms    []models.Room    `json:"rooms"`
}

// ExportRequest captures POST /timetables/:id/exports payload.
type ExportRequest struct {
	Format    models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	ClassName string              `json:"className"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
