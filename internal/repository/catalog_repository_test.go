package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func newCatalogRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCatalogRepositoryLoad(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, grade FROM classes")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "grade"}).AddRow("10A", "10").AddRow("10B", "10"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects ORDER BY")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "periods_per_week", "requires_special_room", "room_type"}).
			AddRow("math", "Mathematics", 5, false, "").
			AddRow("sci", "Science", 3, true, "lab"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, room_type FROM rooms")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "room_type"}).AddRow("r-101", "Room 101", "regular"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, absent FROM teachers")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "absent"}).
			AddRow("t-1", "Alice", false).
			AddRow("t-2", "Bob", true))
	mock.ExpectQuery(regexp.QuoteMeta("FROM teacher_subjects")).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "value"}).
			AddRow("t-1", "Mathematics").
			AddRow("t-2", "Science").
			AddRow("t-9", "Art"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM teacher_classes")).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "value"}).
			AddRow("t-1", "10A").
			AddRow("t-1", "10B"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM teacher_unavailable_slots")).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "day_of_week", "periods"}).
			AddRow("t-1", "MONDAY", "0-1"))

	catalog, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, catalog.Classes, 2)
	require.Len(t, catalog.Subjects, 2)
	assert.Equal(t, models.RoomTypeLab, catalog.Subjects[1].RoomType)
	assert.Equal(t, models.RoomTypeRegular, catalog.Rooms[0].Type)
	require.Len(t, catalog.Teachers, 2)
	assert.Equal(t, []string{"Mathematics"}, catalog.Teachers[0].Subjects)
	assert.Equal(t, []string{"10A", "10B"}, catalog.Teachers[0].Classes)
	assert.Equal(t, []models.TeacherUnavailableSlot{{DayOfWeek: "MONDAY", Periods: "0-1"}}, catalog.Teachers[0].Unavailable)
	assert.True(t, catalog.Teachers[1].Absent)
	assert.Empty(t, catalog.Teachers[1].Classes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryLoadPropagatesErrors(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, grade FROM classes")).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list classes")
	assert.NoError(t, mock.ExpectationsWereMet())
}
