// Package stats derives read-only statistics from habit logs. Every function
// is total: empty input yields zeroed results.
package stats

import (
	"math"
	"slices"
	"time"

	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/utils"
)

// ComputeHabitStats summarizes the logs belonging to habit as of today.
// Logs of other habits are ignored, so callers may pass the full log set.
func ComputeHabitStats(habit models.Habit, logs []models.HabitLog, today time.Time, loc *time.Location) models.HabitStats {
	mine := logsFor(habit.ID, logs)
	if len(mine) == 0 {
		return models.HabitStats{}
	}

	var total float64
	for _, l := range mine {
		total += l.CompletedValue
	}

	days := logDays(mine, loc)

	return models.HabitStats{
		TotalCompletions: len(mine),
		CurrentStreak:    currentStreak(days, today, loc),
		LongestStreak:    longestStreak(days, loc),
		CompletionRate:   completionRate(days, today, loc),
		AverageValue:     round2(total / float64(len(mine))),
		TotalTime:        total,
	}
}

// DayProgress returns 100 when the habit's values on day sum to more than
// zero, otherwise 0.
func DayProgress(habit models.Habit, logs []models.HabitLog, day time.Time, loc *time.Location) float64 {
	var sum float64
	for _, l := range logs {
		if l.HabitID == habit.ID && utils.SameDay(l.Date, day, loc) {
			sum += l.CompletedValue
		}
	}
	if sum > 0 {
		return 100
	}
	return 0
}

func logsFor(habitID string, logs []models.HabitLog) []models.HabitLog {
	var out []models.HabitLog
	for _, l := range logs {
		if l.HabitID == habitID {
			out = append(out, l)
		}
	}
	return out
}

// logDays returns the distinct calendar days (midnight in loc) covered by
// logs, newest first.
func logDays(logs []models.HabitLog, loc *time.Location) []time.Time {
	seen := make(map[string]bool, len(logs))
	days := make([]time.Time, 0, len(logs))
	for _, l := range logs {
		key := utils.DayKey(l.Date, loc)
		if seen[key] {
			continue
		}
		seen[key] = true
		days = append(days, utils.StartOfDay(l.Date, loc))
	}
	slices.SortFunc(days, func(a, b time.Time) int { return b.Compare(a) })
	return days
}

func currentStreak(days []time.Time, today time.Time, loc *time.Location) int {
	logged := make(map[string]bool, len(days))
	for _, d := range days {
		logged[utils.DayKey(d, loc)] = true
	}

	streak := 0
	for i := 0; i < constants.StreakHorizonDays; i++ {
		if !logged[utils.DayKey(utils.AddDays(today, -i, loc), loc)] {
			break
		}
		streak++
	}
	return streak
}

// longestStreak expects days newest first
func longestStreak(days []time.Time, loc *time.Location) int {
	if len(days) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if utils.DaysBetween(days[i], days[i-1], loc) == 1 {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	return longest
}

// completionRate counts logged days in the window ending today
func completionRate(days []time.Time, today time.Time, loc *time.Location) float64 {
	count := 0
	for _, d := range days {
		ago := utils.DaysBetween(d, today, loc)
		if ago >= 0 && ago < constants.CompletionWindowDays {
			count++
		}
	}
	rate := round2(float64(count) / float64(constants.CompletionWindowDays) * 100)
	return math.Min(rate, 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
