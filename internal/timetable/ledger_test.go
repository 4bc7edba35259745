package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestLedgerTracksOccupancyAndLoad(t *testing.T) {
	ledger := NewLedger([]models.Assignment{
		lesson("10A", "t-alice", "r-101", models.Monday, 0),
		lesson("10B", "t-alice", "r-102", models.Monday, 1),
	})

	assert.Equal(t, 2, ledger.Len())
	assert.True(t, ledger.teacherBusy(models.Monday, 0, "t-alice"))
	assert.False(t, ledger.teacherBusy(models.Monday, 2, "t-alice"))
	assert.True(t, ledger.roomBusy(models.Monday, 1, "r-102"))
	assert.True(t, ledger.ClassBusy(models.Monday, 0, "10A"))
	assert.False(t, ledger.ClassBusy(models.Monday, 0, "10B"))
	assert.Equal(t, 2, ledger.TeacherLoad("t-alice"))
	assert.Equal(t, 1, ledger.RoomLoad("r-101"))

	copied := ledger.Assignments()
	copied[0].ClassName = "mutated"
	assert.Equal(t, "10A", ledger.Assignments()[0].ClassName)
}

func TestLedgerFromTimetableSkipsBreaks(t *testing.T) {
	tt := models.Timetable{
		"10B": models.ClassSchedule{
			models.Tuesday: {
				{Period: 2, Kind: models.EntryLesson, SubjectName: "English", TeacherID: "t-bob", RoomID: "r-102"},
			},
		},
		"10A": models.ClassSchedule{
			models.Monday: {
				{Period: 0, Kind: models.EntryLesson, SubjectName: "Mathematics", TeacherID: "t-alice", RoomID: "r-101"},
				{Period: 3, Kind: models.EntryBreak, Label: "Break"},
			},
		},
	}

	ledger := LedgerFromTimetable(tt)
	require.Equal(t, 2, ledger.Len())
	assignments := ledger.Assignments()
	assert.Equal(t, "10A", assignments[0].ClassName)
	assert.Equal(t, 0, assignments[0].Slot.Period)
	assert.Equal(t, "10B", assignments[1].ClassName)
	assert.True(t, ledger.teacherBusy(models.Tuesday, 2, "t-bob"))
	assert.False(t, ledger.ClassBusy(models.Monday, 3, "10A"))
}
