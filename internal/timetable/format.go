package timetable

import (
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Format groups assignments into a per-class, per-day timetable ordered by period and places
// the configured breaks at their reserved periods. Every listed class and every class with
// assignments gets a full week, even when a day has no lessons.
func (e *Engine) Format(assignments []models.Assignment, classNames ...string) models.Timetable {
	result := make(models.Timetable)
	ensure := func(className string) models.ClassSchedule {
		week, ok := result[className]
		if ok {
			return week
		}
		week = make(models.ClassSchedule, len(e.settings.Days))
		for _, day := range e.settings.Days {
			week[day] = e.breakEntries()
		}
		result[className] = week
		return week
	}

	for _, name := range classNames {
		ensure(name)
	}
	for _, a := range assignments {
		week := ensure(a.ClassName)
		week[a.Slot.Day] = append(week[a.Slot.Day], lessonEntry(a, e.settings.TimeRange(a.Slot.Period)))
	}

	for _, week := range result {
		for _, entries := range week {
			sort.SliceStable(entries, func(i, j int) bool {
				return entries[i].Period < entries[j].Period
			})
		}
	}
	return result
}

func (e *Engine) breakEntries() []models.Entry {
	entries := make([]models.Entry, 0, len(e.settings.Breaks))
	for period := 0; period < e.settings.PeriodsPerDay; period++ {
		br, reserved := e.settings.Reserved(period)
		if !reserved {
			continue
		}
		entries = append(entries, models.Entry{
			Period:    period,
			TimeRange: e.settings.TimeRange(period),
			Kind:      br.Kind,
			Label:     br.Label,
		})
	}
	return entries
}

func lessonEntry(a models.Assignment, timeRange string) models.Entry {
	return models.Entry{
		Period:      a.Slot.Period,
		TimeRange:   timeRange,
		Kind:        models.EntryLesson,
		SubjectID:   a.Subject.ID,
		SubjectName: a.Subject.Name,
		TeacherID:   a.Teacher.ID,
		TeacherName: a.Teacher.Name,
		RoomID:      a.Room.ID,
		RoomName:    a.Room.Name,
	}
}
