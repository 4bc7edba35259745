package timetable

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const (
	DefaultPeriodDuration = 45
	DefaultPeriodsPerDay  = 8
	DefaultStartTime      = "08:00"

	maxPeriodsPerDay  = 16
	maxPeriodDuration = 240
	clockLayout       = "15:04"
)

// Policy selects how resolvers pick among several eligible teachers or rooms.
type Policy string

const (
	// PolicyFirstFit returns the first eligible candidate in catalog order.
	PolicyFirstFit Policy = "first-fit"
	// PolicyLeastLoaded prefers the candidate with the fewest assignments so far.
	PolicyLeastLoaded Policy = "least-loaded"
)

// Break reserves a period index for a fixed pause.
type Break struct {
	Period int              `json:"period"`
	Kind   models.EntryKind `json:"kind"`
	Label  string           `json:"label"`
}

// DefaultBreaks matches the canonical eight-period day.
func DefaultBreaks() []Break {
	return []Break{
		{Period: 3, Kind: models.EntryBreak, Label: "Break"},
		{Period: 7, Kind: models.EntryLunch, Label: "Lunch"},
	}
}

// Settings drive a generation run.
type Settings struct {
	PeriodDuration   int              `json:"period_duration"`
	PeriodsPerDay    int              `json:"periods_per_day"`
	StartTime        string           `json:"start_time"`
	SelectedClass    string           `json:"selected_class,omitempty"`
	SelectedSubjects []string         `json:"selected_subjects,omitempty"`
	Breaks           []Break          `json:"breaks"`
	Days             []models.Weekday `json:"days"`
	Policy           Policy           `json:"policy"`
}

// DefaultSettings returns the canonical school day.
func DefaultSettings() Settings {
	return Settings{
		PeriodDuration: DefaultPeriodDuration,
		PeriodsPerDay:  DefaultPeriodsPerDay,
		StartTime:      DefaultStartTime,
		Breaks:         DefaultBreaks(),
		Days:           append([]models.Weekday(nil), models.Weekdays...),
		Policy:         PolicyFirstFit,
	}
}

// Normalize fills zero values with defaults and validates the result.
func (s Settings) Normalize() (Settings, error) {
	if s.PeriodDuration == 0 {
		s.PeriodDuration = DefaultPeriodDuration
	}
	if s.PeriodsPerDay == 0 {
		s.PeriodsPerDay = DefaultPeriodsPerDay
	}
	if s.StartTime == "" {
		s.StartTime = DefaultStartTime
	}
	if s.Breaks == nil {
		s.Breaks = DefaultBreaks()
	}
	if s.Policy == "" {
		s.Policy = PolicyFirstFit
	}
	days, err := normalizeDays(s.Days)
	if err != nil {
		return Settings{}, err
	}
	s.Days = days

	if s.PeriodsPerDay < 1 || s.PeriodsPerDay > maxPeriodsPerDay {
		return Settings{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("periodsPerDay must be between 1 and %d", maxPeriodsPerDay))
	}
	if s.PeriodDuration < 1 || s.PeriodDuration > maxPeriodDuration {
		return Settings{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("periodDuration must be between 1 and %d minutes", maxPeriodDuration))
	}
	start, err := time.Parse(clockLayout, s.StartTime)
	if err != nil {
		return Settings{}, appErrors.Clone(appErrors.ErrValidation, "startTime must use HH:MM")
	}
	end := start.Add(time.Duration(s.PeriodsPerDay*s.PeriodDuration) * time.Minute)
	if end.Day() != start.Day() {
		return Settings{}, appErrors.Clone(appErrors.ErrValidation, "school day must end before midnight")
	}
	if s.Policy != PolicyFirstFit && s.Policy != PolicyLeastLoaded {
		return Settings{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown policy %q", s.Policy))
	}

	seen := make(map[int]bool, len(s.Breaks))
	for _, br := range s.Breaks {
		if br.Period < 0 {
			return Settings{}, appErrors.Clone(appErrors.ErrValidation, "break period must not be negative")
		}
		if seen[br.Period] {
			return Settings{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("break period %d declared twice", br.Period))
		}
		if br.Kind != models.EntryBreak && br.Kind != models.EntryLunch {
			return Settings{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("break period %d has unknown kind %q", br.Period, br.Kind))
		}
		seen[br.Period] = true
	}
	return s, nil
}

// Reserved returns the break occupying the period, if any. Breaks past the end of the day are ignored.
func (s Settings) Reserved(period int) (Break, bool) {
	if period >= s.PeriodsPerDay {
		return Break{}, false
	}
	for _, br := range s.Breaks {
		if br.Period == period {
			return br, true
		}
	}
	return Break{}, false
}

// TeachingPeriods counts the lesson periods available per day.
func (s Settings) TeachingPeriods() int {
	count := 0
	for period := 0; period < s.PeriodsPerDay; period++ {
		if _, reserved := s.Reserved(period); !reserved {
			count++
		}
	}
	return count
}

// TimeRange renders the zero-padded "HH:MM - HH:MM" range of a period.
func (s Settings) TimeRange(period int) string {
	start, err := time.Parse(clockLayout, s.StartTime)
	if err != nil {
		start, _ = time.Parse(clockLayout, DefaultStartTime)
	}
	from := start.Add(time.Duration(period*s.PeriodDuration) * time.Minute)
	to := from.Add(time.Duration(s.PeriodDuration) * time.Minute)
	return fmt.Sprintf("%s - %s", from.Format(clockLayout), to.Format(clockLayout))
}

// Slot builds the time slot for a lesson period, rejecting coordinates outside the grid.
func (s Settings) Slot(day models.Weekday, period int) (models.TimeSlot, error) {
	if err := s.validateLessonSlot(day, period); err != nil {
		return models.TimeSlot{}, err
	}
	return models.TimeSlot{Day: day, Period: period, TimeRange: s.TimeRange(period)}, nil
}

func (s Settings) validateLessonSlot(day models.Weekday, period int) error {
	if !s.hasDay(day) {
		return appErrors.Clone(appErrors.ErrInvalidSlot, fmt.Sprintf("unknown day %q", day))
	}
	if period < 0 || period >= s.PeriodsPerDay {
		return appErrors.Clone(appErrors.ErrInvalidSlot, fmt.Sprintf("period %d outside 0-%d", period, s.PeriodsPerDay-1))
	}
	if br, reserved := s.Reserved(period); reserved {
		return appErrors.Clone(appErrors.ErrInvalidSlot, fmt.Sprintf("period %d is reserved for %s", period, br.Label))
	}
	return nil
}

func (s Settings) hasDay(day models.Weekday) bool {
	for _, d := range s.Days {
		if d == day {
			return true
		}
	}
	return false
}

func normalizeDays(days []models.Weekday) ([]models.Weekday, error) {
	if len(days) == 0 {
		return append([]models.Weekday(nil), models.Weekdays...), nil
	}
	unique := make(map[models.Weekday]struct{}, len(days))
	for _, day := range days {
		parsed, ok := models.ParseWeekday(string(day))
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidSlot, fmt.Sprintf("unknown day %q", day))
		}
		unique[parsed] = struct{}{}
	}
	result := make([]models.Weekday, 0, len(unique))
	for day := range unique {
		result = append(result, day)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Index() < result[j].Index()
	})
	return result, nil
}
