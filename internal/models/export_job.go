package models

import "time"

// ExportFormat enumerates supported timetable export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// Valid reports whether the format can be rendered.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatCSV || f == ExportFormatPDF
}

// ExportStatus captures background job lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob tracks an asynchronous timetable export.
type ExportJob struct {
	ID           string       `json:"id"`
	TimetableID  string       `json:"timetable_id"`
	ClassName    string       `json:"class_name,omitempty"`
	Format       ExportFormat `json:"format"`
	Status       ExportStatus `json:"status"`
	Progress     int          `json:"progress"`
	ResultURL    *string      `json:"result_url,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
}
