package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitt/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// ValidateTimeFormat checks if the string matches the standard time format (HH:MM).
func ValidateTimeFormat(timeStr string) bool {
	_, err := time.Parse(constants.TimeFormat, timeStr)
	return err == nil
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayKey returns the calendar day of t in loc as YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(constants.DateFormat)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
// Time of day is ignored.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the number of calendar days from a to b in loc.
// The result is positive when b is later than a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	// UTC avoids DST-shortened days skewing the division
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// AddDays moves t by n calendar days, keeping it at midnight in loc.
func AddDays(t time.Time, n int, loc *time.Location) time.Time {
	d := StartOfDay(t, loc)
	return time.Date(d.Year(), d.Month(), d.Day()+n, 0, 0, 0, 0, loc)
}

// WeekStart returns midnight of the Monday beginning t's week in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	d := StartOfDay(t, loc)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return AddDays(d, -offset, loc)
}

// WeekDays returns the seven days of the week beginning at weekStart's Monday.
func WeekDays(weekStart time.Time, loc *time.Location) []time.Time {
	start := WeekStart(weekStart, loc)
	days := make([]time.Time, 0, constants.DaysPerWeek)
	for i := 0; i < constants.DaysPerWeek; i++ {
		days = append(days, AddDays(start, i, loc))
	}
	return days
}

// InWeek reports whether t falls within [weekStart, weekStart+7 days).
func InWeek(t, weekStart time.Time, loc *time.Location) bool {
	start := WeekStart(weekStart, loc)
	end := AddDays(start, constants.DaysPerWeek, loc)
	return !t.Before(start) && t.Before(end)
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) in the specified timezone.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// ParseFlexibleDate parses either a plain date (YYYY-MM-DD) or an RFC 3339
// timestamp, returning midnight of the resulting calendar day in loc.
func ParseFlexibleDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := ParseDateInLocation(s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	return StartOfDay(t, loc), nil
}

// ParseWeekStart parses a date and returns the Monday of its week in loc.
func ParseWeekStart(s string, loc *time.Location) (time.Time, error) {
	t, err := ParseFlexibleDate(s, loc)
	if err != nil {
		return time.Time{}, err
	}
	return WeekStart(t, loc), nil
}

// WeekKey returns the YYYY-MM-DD key of the Monday beginning t's week.
func WeekKey(t time.Time, loc *time.Location) string {
	return WeekStart(t, loc).Format(constants.DateFormat)
}
