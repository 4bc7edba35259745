package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

type snapshotSource interface {
	Snapshot(ctx context.Context, id string) (*TimetableSnapshot, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders stored timetables and persists the files.
type ExportService struct {
	timetables snapshotSource
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
	now        func() time.Time
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

var (
	timetableExportHeaders = []string{"Class", "Day", "Period", "Time", "Kind", "Subject", "Teacher", "Room"}
	timetableExportWidths  = []float64{1, 1.4, 0.8, 1.4, 0.9, 2.2, 2, 1.3}
)

// NewExportService constructs an ExportService.
func NewExportService(timetables snapshotSource, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		timetables: timetables,
		storage:    storage,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Generate renders the job's timetable and stores the result behind a signed download URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	snapshot, err := s.timetables.Snapshot(ctx, job.TimetableID)
	if err != nil {
		return nil, err
	}
	dataset, err := BuildTimetableDataset(snapshot.Timetable, job.ClassName)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, exportTitle(snapshot, job.ClassName))
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Debug("timetable export rendered",
		zap.String("job_id", job.ID),
		zap.String("timetable_id", job.TimetableID),
		zap.Int("bytes", len(payload)),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download?token=%s", prefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// BuildTimetableDataset flattens a timetable into export rows ordered by class, day and period.
// A non-empty className restricts the rows to that class.
func BuildTimetableDataset(tt models.Timetable, className string) (export.Dataset, error) {
	classes := make([]string, 0, len(tt))
	for name := range tt {
		if className == "" || name == className {
			classes = append(classes, name)
		}
	}
	if className != "" && len(classes) == 0 {
		return export.Dataset{}, fmt.Errorf("class %s not in timetable", className)
	}
	sort.Strings(classes)

	rows := make([]map[string]string, 0)
	for _, name := range classes {
		week := tt[name]
		for _, day := range models.Weekdays {
			for _, entry := range week[day] {
				row := map[string]string{
					"Class":  name,
					"Day":    string(day),
					"Period": strconv.Itoa(entry.Period),
					"Time":   entry.TimeRange,
					"Kind":   string(entry.Kind),
				}
				if entry.IsLesson() {
					row["Subject"] = entry.SubjectName
					row["Teacher"] = entry.TeacherName
					row["Room"] = entry.RoomName
				} else {
					row["Subject"] = entry.Label
				}
				rows = append(rows, row)
			}
		}
	}
	return export.Dataset{
		Headers: timetableExportHeaders,
		Rows:    rows,
		Widths:  timetableExportWidths,
		Shade:   func(row map[string]string) bool { return row["Kind"] == string(models.EntryBreak) },
	}, nil
}

func exportTitle(snapshot *TimetableSnapshot, className string) string {
	if className != "" {
		return fmt.Sprintf("Timetable %s %s", className, snapshot.Date)
	}
	return fmt.Sprintf("Timetable %s", snapshot.Date)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	scope := sanitizeFilename(job.ClassName)
	if job.ClassName == "" {
		scope = "all"
	}
	return fmt.Sprintf("timetable_%s_%s_%s.%s", sanitizeFilename(job.TimetableID), scope, timestamp, job.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
