package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/utils"
)

// wireDocument is the exported snapshot format. Keys are camelCase and dates
// ISO-8601 strings so documents stay interchangeable with browser exports.
type wireDocument struct {
	Habits        []wireHabit   `json:"habits"`
	HabitLogs     []wireLog     `json:"habitLogs"`
	TimerSessions []wireSession `json:"timerSessions"`
}

type wireHabit struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Color         string  `json:"color"`
	Icon          string  `json:"icon"`
	CreatedAt     string  `json:"createdAt"`
	WeekStartDate string  `json:"weekStartDate"`
	IsActive      *bool   `json:"isActive,omitempty"`
	ReminderTime  *string `json:"reminderTime,omitempty"`
}

type wireLog struct {
	ID             string   `json:"id"`
	HabitID        string   `json:"habitId"`
	Date           string   `json:"date"`
	CompletedValue *float64 `json:"completedValue,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
}

type wireSession struct {
	ID        string  `json:"id"`
	HabitID   string  `json:"habitId"`
	StartTime string  `json:"startTime"`
	EndTime   *string `json:"endTime,omitempty"`
	Duration  float64 `json:"duration"`
	IsActive  bool    `json:"isActive"`
}

// EncodeSnapshot renders snap as an indented wire document
func EncodeSnapshot(snap models.Snapshot) ([]byte, error) {
	doc := wireDocument{
		Habits:        make([]wireHabit, 0, len(snap.Habits)),
		HabitLogs:     make([]wireLog, 0, len(snap.HabitLogs)),
		TimerSessions: make([]wireSession, 0, len(snap.TimerSessions)),
	}

	for _, h := range snap.Habits {
		active := h.IsActive
		doc.Habits = append(doc.Habits, wireHabit{
			ID:            h.ID,
			Name:          h.Name,
			Description:   h.Description,
			Color:         h.Color,
			Icon:          h.Icon,
			CreatedAt:     formatTime(h.CreatedAt),
			WeekStartDate: h.WeekStartDate,
			IsActive:      &active,
			ReminderTime:  h.ReminderTime,
		})
	}
	for _, l := range snap.HabitLogs {
		value := l.CompletedValue
		doc.HabitLogs = append(doc.HabitLogs, wireLog{
			ID:             l.ID,
			HabitID:        l.HabitID,
			Date:           formatTime(l.Date),
			CompletedValue: &value,
			Notes:          l.Notes,
		})
	}
	for _, ts := range snap.TimerSessions {
		ws := wireSession{
			ID:        ts.ID,
			HabitID:   ts.HabitID,
			StartTime: formatTime(ts.StartTime),
			Duration:  ts.Duration,
			IsActive:  ts.IsActive,
		}
		if ts.EndTime != nil {
			end := formatTime(*ts.EndTime)
			ws.EndTime = &end
		}
		doc.TimerSessions = append(doc.TimerSessions, ws)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a wire document. Unknown fields are ignored and
// missing optional ones defaulted; date-only values are read as midnight in
// loc. The result is not normalized.
func DecodeSnapshot(data []byte, loc *time.Location) (models.Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Snapshot{}, Corrupt("empty document")
	}

	var doc wireDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Snapshot{}, Corrupt("%v", err)
	}

	snap := models.Snapshot{
		Habits:        make([]models.Habit, 0, len(doc.Habits)),
		HabitLogs:     make([]models.HabitLog, 0, len(doc.HabitLogs)),
		TimerSessions: make([]models.TimerSession, 0, len(doc.TimerSessions)),
	}

	for i, wh := range doc.Habits {
		created, err := parseTime(wh.CreatedAt, loc)
		if err != nil {
			return models.Snapshot{}, Corrupt("habit %d (%s) createdAt: %v", i, wh.ID, err)
		}
		active := true
		if wh.IsActive != nil {
			active = *wh.IsActive
		}
		snap.Habits = append(snap.Habits, models.Habit{
			ID:            wh.ID,
			Name:          wh.Name,
			Description:   wh.Description,
			Color:         wh.Color,
			Icon:          wh.Icon,
			CreatedAt:     created,
			WeekStartDate: wh.WeekStartDate,
			IsActive:      active,
			ReminderTime:  wh.ReminderTime,
		})
	}

	for i, wl := range doc.HabitLogs {
		date, err := parseTime(wl.Date, loc)
		if err != nil {
			return models.Snapshot{}, Corrupt("habit log %d (%s) date: %v", i, wl.ID, err)
		}
		value := constants.DefaultCompletedValue
		if wl.CompletedValue != nil {
			value = *wl.CompletedValue
		}
		snap.HabitLogs = append(snap.HabitLogs, models.HabitLog{
			ID:             wl.ID,
			HabitID:        wl.HabitID,
			Date:           date,
			CompletedValue: value,
			Notes:          wl.Notes,
		})
	}

	for i, ws := range doc.TimerSessions {
		start, err := parseTime(ws.StartTime, loc)
		if err != nil {
			return models.Snapshot{}, Corrupt("timer session %d (%s) startTime: %v", i, ws.ID, err)
		}
		ts := models.TimerSession{
			ID:        ws.ID,
			HabitID:   ws.HabitID,
			StartTime: start,
			Duration:  ws.Duration,
			IsActive:  ws.IsActive,
		}
		if ws.EndTime != nil && *ws.EndTime != "" {
			end, err := parseTime(*ws.EndTime, loc)
			if err != nil {
				return models.Snapshot{}, Corrupt("timer session %d (%s) endTime: %v", i, ws.ID, err)
			}
			ts.EndTime = &end
		}
		snap.TimerSessions = append(snap.TimerSessions, ts)
	}

	return snap, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing value")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return utils.ParseDateInLocation(s, loc)
}
