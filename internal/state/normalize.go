package state

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/utils"
)

// Normalize returns a copy of s that satisfies the store invariants:
//
//   - every log and timer session references an existing habit
//   - IDs are unique within each collection
//   - at most one log exists per habit and calendar day
//
// When two records collide, the later one wins and takes the position of
// the first. Negative or non-finite values and durations become zero.
func Normalize(s models.Snapshot, loc *time.Location) models.Snapshot {
	out := Empty()

	habitIdx := make(map[string]int, len(s.Habits))
	for _, h := range s.Habits {
		if h.ID == "" {
			continue
		}
		if h.WeekStartDate != "" {
			if ws, err := utils.ParseWeekStart(h.WeekStartDate, loc); err == nil {
				h.WeekStartDate = ws.Format(constants.DateFormat)
			}
		}
		h.ReminderTime = cloneString(h.ReminderTime)
		if i, ok := habitIdx[h.ID]; ok {
			out.Habits[i] = h
			continue
		}
		habitIdx[h.ID] = len(out.Habits)
		out.Habits = append(out.Habits, h)
	}

	logIdx := make(map[string]int, len(s.HabitLogs))
	dayIdx := make(map[string]int, len(s.HabitLogs))
	for _, l := range s.HabitLogs {
		if l.ID == "" {
			continue
		}
		if _, ok := habitIdx[l.HabitID]; !ok {
			continue
		}
		l.CompletedValue = clampValue(l.CompletedValue)
		l.Notes = cloneString(l.Notes)

		dayKey := l.HabitID + "|" + utils.DayKey(l.Date, loc)
		if i, ok := dayIdx[dayKey]; ok {
			// keep the first ID so references to the surviving log stay valid
			l.ID = out.HabitLogs[i].ID
			out.HabitLogs[i] = l
			continue
		}
		if i, ok := logIdx[l.ID]; ok {
			delete(dayIdx, out.HabitLogs[i].HabitID+"|"+utils.DayKey(out.HabitLogs[i].Date, loc))
			dayIdx[dayKey] = i
			out.HabitLogs[i] = l
			continue
		}
		logIdx[l.ID] = len(out.HabitLogs)
		dayIdx[dayKey] = len(out.HabitLogs)
		out.HabitLogs = append(out.HabitLogs, l)
	}

	sessionIdx := make(map[string]int, len(s.TimerSessions))
	for _, ts := range s.TimerSessions {
		if ts.ID == "" {
			continue
		}
		if _, ok := habitIdx[ts.HabitID]; !ok {
			continue
		}
		ts.EndTime = cloneTime(ts.EndTime)
		ts.Duration = clampValue(ts.Duration)
		if i, ok := sessionIdx[ts.ID]; ok {
			out.TimerSessions[i] = ts
			continue
		}
		sessionIdx[ts.ID] = len(out.TimerSessions)
		out.TimerSessions = append(out.TimerSessions, ts)
	}

	return out
}

// Check reports every invariant violation found in s without modifying it.
// A snapshot produced by the reducer always yields an empty result.
func Check(s models.Snapshot, loc *time.Location) []string {
	var problems []string

	habits := make(map[string]bool, len(s.Habits))
	for _, h := range s.Habits {
		switch {
		case h.ID == "":
			problems = append(problems, fmt.Sprintf("habit %q has an empty id", h.Name))
		case habits[h.ID]:
			problems = append(problems, fmt.Sprintf("duplicate habit id %s", h.ID))
		}
		habits[h.ID] = true
	}

	logIDs := make(map[string]bool, len(s.HabitLogs))
	days := make(map[string]bool, len(s.HabitLogs))
	for _, l := range s.HabitLogs {
		if logIDs[l.ID] {
			problems = append(problems, fmt.Sprintf("duplicate habit log id %s", l.ID))
		}
		logIDs[l.ID] = true

		if !habits[l.HabitID] {
			problems = append(problems, fmt.Sprintf("habit log %s references missing habit %s", l.ID, l.HabitID))
		}
		key := l.HabitID + "|" + utils.DayKey(l.Date, loc)
		if days[key] {
			problems = append(problems, fmt.Sprintf("more than one log for habit %s on %s", l.HabitID, utils.DayKey(l.Date, loc)))
		}
		days[key] = true
		if l.CompletedValue < 0 || !finite(l.CompletedValue) {
			problems = append(problems, fmt.Sprintf("habit log %s has invalid value %g", l.ID, l.CompletedValue))
		}
	}

	sessionIDs := make(map[string]bool, len(s.TimerSessions))
	for _, ts := range s.TimerSessions {
		if sessionIDs[ts.ID] {
			problems = append(problems, fmt.Sprintf("duplicate timer session id %s", ts.ID))
		}
		sessionIDs[ts.ID] = true
		if !habits[ts.HabitID] {
			problems = append(problems, fmt.Sprintf("timer session %s references missing habit %s", ts.ID, ts.HabitID))
		}
		if ts.Duration < 0 || !finite(ts.Duration) {
			problems = append(problems, fmt.Sprintf("timer session %s has invalid duration %g", ts.ID, ts.Duration))
		}
	}

	return problems
}
