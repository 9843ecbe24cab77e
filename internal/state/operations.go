package state

import (
	"math"
	"slices"
	"time"

	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/utils"
)

// AddHabit appends a new habit with a generated ID and creation time
type AddHabit struct {
	Input models.HabitInput
}

func (AddHabit) Name() string { return "add_habit" }

func (op AddHabit) apply(r *Reducer, s models.Snapshot) (models.Snapshot, bool) {
	now := r.Now()
	in := op.Input

	habit := models.Habit{
		ID:            r.newID(),
		Name:          in.Name,
		Description:   in.Description,
		Color:         in.Color,
		Icon:          in.Icon,
		CreatedAt:     now,
		WeekStartDate: normalizeWeekStart(in.WeekStartDate, now, r.loc),
		IsActive:      in.IsActive,
		ReminderTime:  cloneString(in.ReminderTime),
	}
	if habit.Color == "" {
		habit.Color = constants.DefaultHabitColor
	}
	if habit.Icon == "" {
		habit.Icon = constants.DefaultHabitIcon
	}

	s.Habits = append(slices.Clone(s.Habits), habit)
	return s, true
}

// UpdateHabit replaces the habit with the same ID. The stored ID and
// creation time are kept.
type UpdateHabit struct {
	Habit models.Habit
}

func (UpdateHabit) Name() string { return "update_habit" }

func (op UpdateHabit) apply(r *Reducer, s models.Snapshot) (models.Snapshot, bool) {
	idx := indexHabit(s.Habits, op.Habit.ID)
	if idx < 0 {
		return s, false
	}

	existing := s.Habits[idx]
	updated := op.Habit
	updated.CreatedAt = existing.CreatedAt
	if updated.WeekStartDate == "" {
		updated.WeekStartDate = existing.WeekStartDate
	} else {
		updated.WeekStartDate = normalizeWeekStart(updated.WeekStartDate, r.Now(), r.loc)
	}
	updated.ReminderTime = cloneString(op.Habit.ReminderTime)

	habits := slices.Clone(s.Habits)
	habits[idx] = updated
	s.Habits = habits
	return s, true
}

// DeleteHabit removes a habit together with every log and timer session
// that references it.
type DeleteHabit struct {
	HabitID string
}

func (DeleteHabit) Name() string { return "delete_habit" }

func (op DeleteHabit) apply(_ *Reducer, s models.Snapshot) (models.Snapshot, bool) {
	if indexHabit(s.Habits, op.HabitID) < 0 {
		return s, false
	}

	s.Habits = slices.DeleteFunc(slices.Clone(s.Habits), func(h models.Habit) bool {
		return h.ID == op.HabitID
	})
	s.HabitLogs = slices.DeleteFunc(slices.Clone(s.HabitLogs), func(l models.HabitLog) bool {
		return l.HabitID == op.HabitID
	})
	s.TimerSessions = slices.DeleteFunc(slices.Clone(s.TimerSessions), func(ts models.TimerSession) bool {
		return ts.HabitID == op.HabitID
	})
	return s, true
}

// UpsertHabitLog records a completion for a habit on a calendar day. An
// existing log for that day is overwritten in place and keeps its ID; notes
// are only replaced when the input carries them. NaN and infinite values are
// ignored, negative ones are stored as zero.
type UpsertHabitLog struct {
	Input models.HabitLogInput
}

func (UpsertHabitLog) Name() string { return "upsert_habit_log" }

func (op UpsertHabitLog) apply(r *Reducer, s models.Snapshot) (models.Snapshot, bool) {
	in := op.Input
	if indexHabit(s.Habits, in.HabitID) < 0 || !finite(in.CompletedValue) {
		return s, false
	}

	value := clampValue(in.CompletedValue)

	idx := indexLogOnDay(s.HabitLogs, in.HabitID, in.Date, r.loc)
	logs := slices.Clone(s.HabitLogs)
	if idx >= 0 {
		merged := logs[idx]
		merged.Date = in.Date
		merged.CompletedValue = value
		if in.Notes != nil {
			merged.Notes = cloneString(in.Notes)
		}
		logs[idx] = merged
	} else {
		logs = append(logs, models.HabitLog{
			ID:             r.newID(),
			HabitID:        in.HabitID,
			Date:           in.Date,
			CompletedValue: value,
			Notes:          cloneString(in.Notes),
		})
	}

	s.HabitLogs = logs
	return s, true
}

// DeleteHabitLog removes a habit's log for the calendar day of Date
type DeleteHabitLog struct {
	HabitID string
	Date    time.Time
}

func (DeleteHabitLog) Name() string { return "delete_habit_log" }

func (op DeleteHabitLog) apply(r *Reducer, s models.Snapshot) (models.Snapshot, bool) {
	idx := indexLogOnDay(s.HabitLogs, op.HabitID, op.Date, r.loc)
	if idx < 0 {
		return s, false
	}
	s.HabitLogs = slices.Delete(slices.Clone(s.HabitLogs), idx, idx+1)
	return s, true
}

// ToggleHabitLog removes the day's log when one exists and otherwise records
// a default completion for that day.
type ToggleHabitLog struct {
	HabitID string
	Date    time.Time
	Notes   *string
}

func (ToggleHabitLog) Name() string { return "toggle_habit_log" }

func (op ToggleHabitLog) apply(r *Reducer, s models.Snapshot) (models.Snapshot, bool) {
	if indexHabit(s.Habits, op.HabitID) < 0 {
		return s, false
	}
	if indexLogOnDay(s.HabitLogs, op.HabitID, op.Date, r.loc) >= 0 {
		return DeleteHabitLog{HabitID: op.HabitID, Date: op.Date}.apply(r, s)
	}
	return UpsertHabitLog{Input: models.HabitLogInput{
		HabitID:        op.HabitID,
		Date:           op.Date,
		CompletedValue: constants.DefaultCompletedValue,
		Notes:          op.Notes,
	}}.apply(r, s)
}

// AddTimerSession stores a caller-identified timer session. Adding a session
// whose ID already exists replaces it, so each ID appears at most once.
type AddTimerSession struct {
	Session models.TimerSession
}

func (AddTimerSession) Name() string { return "add_timer_session" }

func (op AddTimerSession) apply(_ *Reducer, s models.Snapshot) (models.Snapshot, bool) {
	ts := op.Session
	if ts.ID == "" || indexHabit(s.Habits, ts.HabitID) < 0 || !finite(ts.Duration) {
		return s, false
	}
	ts.EndTime = cloneTime(ts.EndTime)

	sessions := slices.Clone(s.TimerSessions)
	if idx := indexSession(sessions, ts.ID); idx >= 0 {
		sessions[idx] = ts
	} else {
		sessions = append(sessions, ts)
	}
	s.TimerSessions = sessions
	return s, true
}

// UpdateTimerSession replaces the session with the same ID, typically to
// record its end time and final duration.
type UpdateTimerSession struct {
	Session models.TimerSession
}

func (UpdateTimerSession) Name() string { return "update_timer_session" }

func (op UpdateTimerSession) apply(_ *Reducer, s models.Snapshot) (models.Snapshot, bool) {
	ts := op.Session
	idx := indexSession(s.TimerSessions, ts.ID)
	if idx < 0 || indexHabit(s.Habits, ts.HabitID) < 0 || !finite(ts.Duration) {
		return s, false
	}
	ts.EndTime = cloneTime(ts.EndTime)

	sessions := slices.Clone(s.TimerSessions)
	sessions[idx] = ts
	s.TimerSessions = sessions
	return s, true
}

// LoadState replaces the whole store. The payload is normalized first so a
// snapshot read from storage can never break the store's invariants.
type LoadState struct {
	Snapshot models.Snapshot
}

func (LoadState) Name() string { return "load_state" }

func (op LoadState) apply(r *Reducer, _ models.Snapshot) (models.Snapshot, bool) {
	return Normalize(op.Snapshot, r.loc), true
}

func indexHabit(habits []models.Habit, id string) int {
	return slices.IndexFunc(habits, func(h models.Habit) bool { return h.ID == id })
}

func indexSession(sessions []models.TimerSession, id string) int {
	return slices.IndexFunc(sessions, func(ts models.TimerSession) bool { return ts.ID == id })
}

func indexLogOnDay(logs []models.HabitLog, habitID string, day time.Time, loc *time.Location) int {
	return slices.IndexFunc(logs, func(l models.HabitLog) bool {
		return l.HabitID == habitID && utils.SameDay(l.Date, day, loc)
	})
}

// normalizeWeekStart maps any parseable date to the Monday of its week. An
// empty or unparseable value falls back to the week containing now.
func normalizeWeekStart(raw string, now time.Time, loc *time.Location) string {
	if raw != "" {
		if ws, err := utils.ParseWeekStart(raw, loc); err == nil {
			return ws.Format(constants.DateFormat)
		}
	}
	return utils.WeekKey(now, loc)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// clampValue maps negative and non-finite measures to zero
func clampValue(v float64) float64 {
	if v < 0 || !finite(v) {
		return 0
	}
	return v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
