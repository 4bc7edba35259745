package timetable

import (
	"strconv"
	"strings"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Availability is the absence snapshot a run operates on, keyed by teacher ID.
type Availability struct {
	Absent map[string]bool
}

// IsAbsent reports whether the teacher is flagged absent in the catalog or in the snapshot.
func (a Availability) IsAbsent(teacher models.Teacher) bool {
	return teacher.Absent || a.Absent[teacher.ID]
}

// IsTeacherAvailable reports whether the teacher can take a lesson at the slot.
func IsTeacherAvailable(teacher models.Teacher, day models.Weekday, period int, ledger *Ledger, availability Availability) bool {
	if availability.IsAbsent(teacher) {
		return false
	}
	if blockedAt(teacher, day, period) {
		return false
	}
	return !ledger.teacherBusy(day, period, teacher.ID)
}

// IsRoomAvailable reports whether the room is free at the slot.
func IsRoomAvailable(room models.Room, day models.Weekday, period int, ledger *Ledger) bool {
	return !ledger.roomBusy(day, period, room.ID)
}

func blockedAt(teacher models.Teacher, day models.Weekday, period int) bool {
	for _, window := range teacher.Unavailable {
		windowDay, ok := models.ParseWeekday(window.DayOfWeek)
		if !ok || windowDay != day {
			continue
		}
		for _, blocked := range expandPeriodRange(window.Periods) {
			if blocked == period {
				return true
			}
		}
	}
	return false
}

func expandPeriodRange(raw string) []int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.Contains(raw, "-") {
		parts := strings.SplitN(raw, "-", 2)
		start, okStart := parsePeriod(parts[0])
		end, okEnd := parsePeriod(parts[1])
		if !okStart || !okEnd || end < start {
			return nil
		}
		periods := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			periods = append(periods, i)
		}
		return periods
	}
	value, ok := parsePeriod(raw)
	if !ok {
		return nil
	}
	return []int{value}
}

func parsePeriod(raw string) (int, bool) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}
