package timetable

import (
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// SuitableRoom returns a free room of the type the subject needs, or nil.
func (e *Engine) SuitableRoom(subject models.Subject, day models.Weekday, period int, ledger *Ledger) *models.Room {
	roomType, known := subject.RequiredRoomType()
	if !known {
		return nil
	}
	var best *models.Room
	for i := range e.catalog.Rooms {
		room := &e.catalog.Rooms[i]
		if room.Type != roomType || !IsRoomAvailable(*room, day, period, ledger) {
			continue
		}
		if e.settings.Policy != PolicyLeastLoaded {
			return room
		}
		if best == nil || ledger.RoomLoad(room.ID) < ledger.RoomLoad(best.ID) {
			best = room
		}
	}
	return best
}

// TeacherForSubject returns a free teacher qualified for the subject and eligible for the class, or nil.
func (e *Engine) TeacherForSubject(subject models.Subject, className string, day models.Weekday, period int, ledger *Ledger) *models.Teacher {
	var best *models.Teacher
	for i := range e.catalog.Teachers {
		teacher := &e.catalog.Teachers[i]
		if !teacher.Teaches(subject.Name) || !teacher.EligibleFor(className) {
			continue
		}
		if !IsTeacherAvailable(*teacher, day, period, ledger, e.availability) {
			continue
		}
		if e.settings.Policy != PolicyLeastLoaded {
			return teacher
		}
		if best == nil || ledger.TeacherLoad(teacher.ID) < ledger.TeacherLoad(best.ID) {
			best = teacher
		}
	}
	return best
}
