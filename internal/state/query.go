package state

import (
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/utils"
)

// ListHabitsForWeek returns the habits whose week starts on the Monday of
// weekStart's week, in store order.
func ListHabitsForWeek(s models.Snapshot, weekStart time.Time, loc *time.Location) []models.Habit {
	target := utils.WeekKey(weekStart, loc)
	var habits []models.Habit
	for _, h := range s.Habits {
		ws, err := utils.ParseWeekStart(h.WeekStartDate, loc)
		if err != nil {
			continue
		}
		if utils.WeekKey(ws, loc) == target {
			habits = append(habits, h)
		}
	}
	return habits
}

// ListLogsForHabitOnDay returns the habit's logs recorded on day's calendar
// date. The store holds at most one, but callers get a slice so an empty
// result needs no sentinel.
func ListLogsForHabitOnDay(s models.Snapshot, habitID string, day time.Time, loc *time.Location) []models.HabitLog {
	var logs []models.HabitLog
	for _, l := range s.HabitLogs {
		if l.HabitID == habitID && utils.SameDay(l.Date, day, loc) {
			logs = append(logs, l)
		}
	}
	return logs
}

// ListLogsInWeek returns logs dated within [weekStart, weekStart+7 days).
func ListLogsInWeek(s models.Snapshot, weekStart time.Time, loc *time.Location) []models.HabitLog {
	var logs []models.HabitLog
	for _, l := range s.HabitLogs {
		if utils.InWeek(l.Date, weekStart, loc) {
			logs = append(logs, l)
		}
	}
	return logs
}

// LogsForHabit returns all logs of one habit, newest first
func LogsForHabit(s models.Snapshot, habitID string) []models.HabitLog {
	var logs []models.HabitLog
	for _, l := range s.HabitLogs {
		if l.HabitID == habitID {
			logs = append(logs, l)
		}
	}
	slices.SortStableFunc(logs, func(a, b models.HabitLog) int {
		return b.Date.Compare(a.Date)
	})
	return logs
}

// FindHabit looks a habit up by ID
func FindHabit(s models.Snapshot, id string) (models.Habit, bool) {
	idx := indexHabit(s.Habits, id)
	if idx < 0 {
		return models.Habit{}, false
	}
	return s.Habits[idx], true
}

// FindHabitByName returns the habit with the given name (case-insensitive)
// in weekStart's week, falling back to the most recently created habit of
// that name in any week.
func FindHabitByName(s models.Snapshot, name string, weekStart time.Time, loc *time.Location) (models.Habit, bool) {
	for _, h := range ListHabitsForWeek(s, weekStart, loc) {
		if strings.EqualFold(h.Name, name) {
			return h, true
		}
	}

	var found models.Habit
	ok := false
	for _, h := range s.Habits {
		if strings.EqualFold(h.Name, name) && (!ok || h.CreatedAt.After(found.CreatedAt)) {
			found, ok = h, true
		}
	}
	return found, ok
}

// FindTimerSession looks a timer session up by ID
func FindTimerSession(s models.Snapshot, id string) (models.TimerSession, bool) {
	idx := indexSession(s.TimerSessions, id)
	if idx < 0 {
		return models.TimerSession{}, false
	}
	return s.TimerSessions[idx], true
}

// ActiveTimerSessions returns running sessions; an empty habitID matches all habits
func ActiveTimerSessions(s models.Snapshot, habitID string) []models.TimerSession {
	var sessions []models.TimerSession
	for _, ts := range s.TimerSessions {
		if ts.IsActive && (habitID == "" || ts.HabitID == habitID) {
			sessions = append(sessions, ts)
		}
	}
	return sessions
}
