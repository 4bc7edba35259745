package repository

import (
	"context"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
)

// MemoryCatalogRepository serves a fixed catalog held in memory.
type MemoryCatalogRepository struct {
	catalog timetable.Catalog
}

// NewMemoryCatalogRepository wraps catalog; a zero catalog falls back to the bundled seed.
func NewMemoryCatalogRepository(catalog timetable.Catalog) *MemoryCatalogRepository {
	if len(catalog.Classes) == 0 && len(catalog.Subjects) == 0 && len(catalog.Teachers) == 0 && len(catalog.Rooms) == 0 {
		catalog = SeedCatalog()
	}
	return &MemoryCatalogRepository{catalog: catalog}
}

// Load returns a copy of the held catalog.
func (r *MemoryCatalogRepository) Load(ctx context.Context) (timetable.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return timetable.Catalog{}, err
	}
	teachers := make([]models.Teacher, len(r.catalog.Teachers))
	for i, t := range r.catalog.Teachers {
		t.Subjects = append([]string(nil), t.Subjects...)
		t.Classes = append([]string(nil), t.Classes...)
		t.Unavailable = append([]models.TeacherUnavailableSlot(nil), t.Unavailable...)
		teachers[i] = t
	}
	return timetable.Catalog{
		Classes:  append([]models.Class(nil), r.catalog.Classes...),
		Subjects: append([]models.Subject(nil), r.catalog.Subjects...),
		Teachers: teachers,
		Rooms:    append([]models.Room(nil), r.catalog.Rooms...),
	}, nil
}

// SeedCatalog is a small senior-high catalog used for local runs and demos.
func SeedCatalog() timetable.Catalog {
	tenth := []string{"10A", "10B"}
	eleventh := []string{"11A", "11B"}
	all := append(append([]string(nil), tenth...), eleventh...)

	return timetable.Catalog{
		Classes: []models.Class{
			{Name: "10A", Grade: "10"},
			{Name: "10B", Grade: "10"},
			{Name: "11A", Grade: "11"},
			{Name: "11B", Grade: "11"},
		},
		Subjects: []models.Subject{
			{ID: "math", Name: "Mathematics", PeriodsPerWeek: 5},
			{ID: "eng", Name: "English", PeriodsPerWeek: 4},
			{ID: "ind", Name: "Indonesian", PeriodsPerWeek: 4},
			{ID: "sci", Name: "Science", PeriodsPerWeek: 3, RequiresSpecialRoom: true},
			{ID: "hist", Name: "History", PeriodsPerWeek: 2},
			{ID: "cs", Name: "Computer Science", PeriodsPerWeek: 2, RequiresSpecialRoom: true},
			{ID: "art", Name: "Art", PeriodsPerWeek: 2, RequiresSpecialRoom: true},
			{ID: "music", Name: "Music", PeriodsPerWeek: 1, RequiresSpecialRoom: true},
			{ID: "pe", Name: "Physical Education", PeriodsPerWeek: 2, RequiresSpecialRoom: true},
		},
		Teachers: []models.Teacher{
			{ID: "t-001", Name: "Ahmad Fauzi", Subjects: []string{"Mathematics"}, Classes: tenth},
			{ID: "t-002", Name: "Siti Rahma", Subjects: []string{"Mathematics"}, Classes: eleventh},
			{ID: "t-003", Name: "Budi Santoso", Subjects: []string{"English", "History"}, Classes: all},
			{ID: "t-004", Name: "Dewi Lestari", Subjects: []string{"Indonesian"}, Classes: all},
			{ID: "t-005", Name: "Rina Wulandari", Subjects: []string{"Science"}, Classes: all,
				Unavailable: []models.TeacherUnavailableSlot{{DayOfWeek: "FRIDAY", Periods: "4-6"}}},
			{ID: "t-006", Name: "Agus Pratama", Subjects: []string{"Computer Science", "Mathematics"}, Classes: all},
			{ID: "t-007", Name: "Maya Sari", Subjects: []string{"Art", "Music"}, Classes: all},
			{ID: "t-008", Name: "Joko Widodo", Subjects: []string{"Physical Education"}, Classes: all},
			{ID: "t-009", Name: "Lina Marlina", Subjects: []string{"English", "Indonesian"}, Classes: all},
		},
		Rooms: []models.Room{
			{ID: "r-101", Name: "Room 101", Type: models.RoomTypeRegular},
			{ID: "r-102", Name: "Room 102", Type: models.RoomTypeRegular},
			{ID: "r-103", Name: "Room 103", Type: models.RoomTypeRegular},
			{ID: "r-104", Name: "Room 104", Type: models.RoomTypeRegular},
			{ID: "lab-1", Name: "Science Lab", Type: models.RoomTypeLab},
			{ID: "clab-1", Name: "Computer Lab", Type: models.RoomTypeComputerLab},
			{ID: "art-1", Name: "Art Studio", Type: models.RoomTypeArt},
			{ID: "music-1", Name: "Music Room", Type: models.RoomTypeMusic},
			{ID: "field", Name: "Sports Field", Type: models.RoomTypePlayground},
		},
	}
}
