package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func lesson(className, teacherID, roomID string, day models.Weekday, period int) models.Assignment {
	return models.Assignment{
		ClassName: className,
		Teacher:   models.Teacher{ID: teacherID},
		Room:      models.Room{ID: roomID},
		Slot:      models.TimeSlot{Day: day, Period: period},
	}
}

func TestSuitableRoomMatchesRoomType(t *testing.T) {
	engine := newEngineFixture(t, schoolCatalog(), Availability{}, DefaultSettings())
	ledger := NewLedger(nil)

	room := engine.SuitableRoom(models.Subject{Name: "Science", RequiresSpecialRoom: true}, models.Monday, 0, ledger)
	require.NotNil(t, room)
	assert.Equal(t, "lab-1", room.ID)

	room = engine.SuitableRoom(models.Subject{Name: "Mathematics"}, models.Monday, 0, ledger)
	require.NotNil(t, room)
	assert.Equal(t, "r-101", room.ID)

	assert.Nil(t, engine.SuitableRoom(models.Subject{Name: "Music", RequiresSpecialRoom: true}, models.Monday, 0, ledger))
	assert.Nil(t, engine.SuitableRoom(models.Subject{Name: "Pottery", RequiresSpecialRoom: true}, models.Monday, 0, ledger))

	override := models.Subject{Name: "Robotics", RequiresSpecialRoom: true, RoomType: models.RoomTypeLab}
	room = engine.SuitableRoom(override, models.Monday, 0, ledger)
	require.NotNil(t, room)
	assert.Equal(t, "lab-1", room.ID)
}

func TestSuitableRoomSkipsOccupied(t *testing.T) {
	engine := newEngineFixture(t, schoolCatalog(), Availability{}, DefaultSettings())
	ledger := NewLedger([]models.Assignment{lesson("10A", "t-alice", "r-101", models.Monday, 0)})

	room := engine.SuitableRoom(models.Subject{Name: "English"}, models.Monday, 0, ledger)
	require.NotNil(t, room)
	assert.Equal(t, "r-102", room.ID)

	ledger.Add(lesson("10B", "t-bob", "r-102", models.Monday, 0))
	assert.Nil(t, engine.SuitableRoom(models.Subject{Name: "English"}, models.Monday, 0, ledger))
}

func TestTeacherForSubjectFiltersEligibility(t *testing.T) {
	engine := newEngineFixture(t, schoolCatalog(), Availability{Absent: map[string]bool{"t-dana": true}}, DefaultSettings())
	ledger := NewLedger(nil)
	pe := models.Subject{Name: "Physical Education", RequiresSpecialRoom: true}

	teacher := engine.TeacherForSubject(pe, "10A", models.Monday, 0, ledger)
	require.NotNil(t, teacher)
	assert.Equal(t, "t-eve", teacher.ID)

	assert.Nil(t, engine.TeacherForSubject(pe, "11A", models.Monday, 0, ledger))

	english := models.Subject{Name: "English"}
	assert.Nil(t, engine.TeacherForSubject(english, "11A", models.Monday, 0, ledger))
}

func TestTeacherForSubjectLeastLoaded(t *testing.T) {
	settings := DefaultSettings()
	settings.Policy = PolicyLeastLoaded
	engine := newEngineFixture(t, schoolCatalog(), Availability{}, settings)
	math := models.Subject{Name: "Mathematics"}

	ledger := NewLedger([]models.Assignment{
		lesson("10A", "t-alice", "r-101", models.Monday, 0),
		lesson("10B", "t-alice", "r-101", models.Monday, 1),
	})
	teacher := engine.TeacherForSubject(math, "11A", models.Tuesday, 0, ledger)
	require.NotNil(t, teacher)
	assert.Equal(t, "t-carol", teacher.ID)

	firstFit := newEngineFixture(t, schoolCatalog(), Availability{}, DefaultSettings())
	teacher = firstFit.TeacherForSubject(math, "11A", models.Tuesday, 0, ledger)
	require.NotNil(t, teacher)
	assert.Equal(t, "t-alice", teacher.ID)
}
