package models

import "time"

// Habit represents a practice tracked for a single Monday-to-Sunday week
type Habit struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Color         string    `json:"color"`
	Icon          string    `json:"icon"`
	CreatedAt     time.Time `json:"created_at"`
	WeekStartDate string    `json:"week_start_date"` // YYYY-MM-DD, always a Monday
	IsActive      bool      `json:"is_active"`
	ReminderTime  *string   `json:"reminder_time,omitempty"` // HH:MM format
}

// HabitInput holds the caller-supplied fields of a new habit
type HabitInput struct {
	Name          string
	Description   string
	Color         string
	Icon          string
	WeekStartDate string
	IsActive      bool
	ReminderTime  *string
}

// HabitLog records that a habit was performed on a calendar day
type HabitLog struct {
	ID             string    `json:"id"`
	HabitID        string    `json:"habit_id"`
	Date           time.Time `json:"date"`
	CompletedValue float64   `json:"completed_value"` // count or minutes
	Notes          *string   `json:"notes,omitempty"`
}

// HabitLogInput holds the fields of a log to upsert; the ID is assigned by the store
type HabitLogInput struct {
	HabitID        string
	Date           time.Time
	CompletedValue float64
	Notes          *string
}

// TimerSession is one timed focus interval for a habit
type TimerSession struct {
	ID        string     `json:"id"`
	HabitID   string     `json:"habit_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  float64    `json:"duration"` // minutes
	IsActive  bool       `json:"is_active"`
}

// HabitStats is derived from a habit's logs and never persisted
type HabitStats struct {
	TotalCompletions int     `json:"total_completions"`
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
	CompletionRate   float64 `json:"completion_rate"`
	AverageValue     float64 `json:"average_value"`
	TotalTime        float64 `json:"total_time"`
}
