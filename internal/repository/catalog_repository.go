package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
)

// CatalogRepository reads timetable reference data from Postgres. Rows are returned in a stable
// order because the generator prefers earlier teachers and rooms.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new repository instance.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

type teacherLinkRow struct {
	TeacherID string `db:"teacher_id"`
	Value     string `db:"value"`
}

type teacherWindowRow struct {
	TeacherID string `db:"teacher_id"`
	DayOfWeek string `db:"day_of_week"`
	Periods   string `db:"periods"`
}

// Load returns the full catalog.
func (r *CatalogRepository) Load(ctx context.Context) (timetable.Catalog, error) {
	var catalog timetable.Catalog

	if err := r.db.SelectContext(ctx, &catalog.Classes, "SELECT name, grade FROM classes ORDER BY sort_order, name"); err != nil {
		return timetable.Catalog{}, fmt.Errorf("list classes: %w", err)
	}
	if err := r.db.SelectContext(ctx, &catalog.Subjects, "SELECT id, name, periods_per_week, requires_special_room, COALESCE(room_type, '') AS room_type FROM subjects ORDER BY sort_order, name"); err != nil {
		return timetable.Catalog{}, fmt.Errorf("list subjects: %w", err)
	}
	if err := r.db.SelectContext(ctx, &catalog.Rooms, "SELECT id, name, room_type FROM rooms ORDER BY sort_order, id"); err != nil {
		return timetable.Catalog{}, fmt.Errorf("list rooms: %w", err)
	}

	teachers, err := r.loadTeachers(ctx)
	if err != nil {
		return timetable.Catalog{}, err
	}
	catalog.Teachers = teachers

	return catalog, nil
}

func (r *CatalogRepository) loadTeachers(ctx context.Context) ([]models.Teacher, error) {
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, "SELECT id, name, absent FROM teachers ORDER BY sort_order, id"); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}

	var subjects []teacherLinkRow
	if err := r.db.SelectContext(ctx, &subjects, "SELECT ts.teacher_id, s.name AS value FROM teacher_subjects ts JOIN subjects s ON s.id = ts.subject_id ORDER BY ts.teacher_id, s.name"); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}

	var classes []teacherLinkRow
	if err := r.db.SelectContext(ctx, &classes, "SELECT teacher_id, class_name AS value FROM teacher_classes ORDER BY teacher_id, class_name"); err != nil {
		return nil, fmt.Errorf("list teacher classes: %w", err)
	}

	var windows []teacherWindowRow
	if err := r.db.SelectContext(ctx, &windows, "SELECT teacher_id, day_of_week, periods FROM teacher_unavailable_slots ORDER BY teacher_id, day_of_week, periods"); err != nil {
		return nil, fmt.Errorf("list teacher unavailable slots: %w", err)
	}

	index := make(map[string]int, len(teachers))
	for i := range teachers {
		index[teachers[i].ID] = i
	}
	for _, row := range subjects {
		if i, ok := index[row.TeacherID]; ok {
			teachers[i].Subjects = append(teachers[i].Subjects, row.Value)
		}
	}
	for _, row := range classes {
		if i, ok := index[row.TeacherID]; ok {
			teachers[i].Classes = append(teachers[i].Classes, row.Value)
		}
	}
	for _, row := range windows {
		if i, ok := index[row.TeacherID]; ok {
			teachers[i].Unavailable = append(teachers[i].Unavailable, models.TeacherUnavailableSlot{
				DayOfWeek: row.DayOfWeek,
				Periods:   row.Periods,
			})
		}
	}

	return teachers, nil
}
