package stats

import (
	"testing"
	"time"

	"github.com/julianstephens/habitt/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func logsOn(habitID string, days ...time.Time) []models.HabitLog {
	logs := make([]models.HabitLog, 0, len(days))
	for i, d := range days {
		logs = append(logs, models.HabitLog{
			ID:             habitID + "-" + d.Format("20060102") + "-" + string(rune('a'+i)),
			HabitID:        habitID,
			Date:           d,
			CompletedValue: 1,
		})
	}
	return logs
}

func TestComputeHabitStatsScenario(t *testing.T) {
	h1 := models.Habit{ID: "h1", Name: "H1", WeekStartDate: "2024-06-03"}
	logs := logsOn("h1", date(2024, 6, 3), date(2024, 6, 4))

	got := ComputeHabitStats(h1, logs, date(2024, 6, 4), time.UTC)

	if got.TotalCompletions != 2 {
		t.Errorf("TotalCompletions = %d, want 2", got.TotalCompletions)
	}
	if got.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", got.CurrentStreak)
	}
	if got.LongestStreak != 2 {
		t.Errorf("LongestStreak = %d, want 2", got.LongestStreak)
	}
	if got.CompletionRate != 6.67 {
		t.Errorf("CompletionRate = %v, want 6.67", got.CompletionRate)
	}
	if got.AverageValue != 1 || got.TotalTime != 2 {
		t.Errorf("AverageValue = %v, TotalTime = %v", got.AverageValue, got.TotalTime)
	}
}

func TestComputeHabitStatsEmpty(t *testing.T) {
	h := models.Habit{ID: "h1"}
	other := logsOn("h2", date(2024, 6, 4))

	got := ComputeHabitStats(h, other, date(2024, 6, 4), time.UTC)
	if got != (models.HabitStats{}) {
		t.Errorf("expected zero stats, got %+v", got)
	}
}

func TestCurrentStreak(t *testing.T) {
	today := date(2024, 6, 10)
	h := models.Habit{ID: "h"}

	tests := []struct {
		name string
		days []time.Time
		want int
	}{
		{name: "no log today", days: []time.Time{date(2024, 6, 9), date(2024, 6, 8)}, want: 0},
		{name: "today only", days: []time.Time{date(2024, 6, 10)}, want: 1},
		{name: "gap caps the run", days: []time.Time{date(2024, 6, 10), date(2024, 6, 9), date(2024, 6, 7), date(2024, 6, 6)}, want: 2},
		{name: "future logs ignored", days: []time.Time{date(2024, 6, 11), date(2024, 6, 10)}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeHabitStats(h, logsOn("h", tt.days...), today, time.UTC)
			if got.CurrentStreak != tt.want {
				t.Errorf("CurrentStreak = %d, want %d", got.CurrentStreak, tt.want)
			}
		})
	}
}

func TestCurrentStreakMonotonic(t *testing.T) {
	today := date(2024, 6, 10)
	h := models.Habit{ID: "h"}

	for k := 1; k <= 40; k++ {
		var days []time.Time
		for i := 0; i < k; i++ {
			days = append(days, today.AddDate(0, 0, -i))
		}
		got := ComputeHabitStats(h, logsOn("h", days...), today, time.UTC)
		if got.CurrentStreak < k {
			t.Fatalf("k=%d: CurrentStreak = %d", k, got.CurrentStreak)
		}

		if k < 3 {
			continue
		}
		gap := k / 2
		withGap := append(append([]time.Time{}, days[:gap]...), days[gap+1:]...)
		got = ComputeHabitStats(h, logsOn("h", withGap...), today, time.UTC)
		if got.CurrentStreak != gap {
			t.Fatalf("k=%d gap at %d: CurrentStreak = %d, want %d", k, gap, got.CurrentStreak, gap)
		}
	}
}

func TestCurrentStreakHorizon(t *testing.T) {
	today := date(2024, 12, 31)
	var days []time.Time
	for i := 0; i < 400; i++ {
		days = append(days, today.AddDate(0, 0, -i))
	}
	got := ComputeHabitStats(models.Habit{ID: "h"}, logsOn("h", days...), today, time.UTC)
	if got.CurrentStreak != 365 {
		t.Errorf("CurrentStreak = %d, want 365", got.CurrentStreak)
	}
	if got.LongestStreak != 400 {
		t.Errorf("LongestStreak = %d, want 400", got.LongestStreak)
	}
}

func TestLongestStreak(t *testing.T) {
	h := models.Habit{ID: "h"}
	days := []time.Time{
		date(2024, 5, 1), date(2024, 5, 2), date(2024, 5, 3), date(2024, 5, 4),
		date(2024, 5, 10), date(2024, 5, 11),
		date(2024, 6, 1),
	}
	got := ComputeHabitStats(h, logsOn("h", days...), date(2024, 6, 1), time.UTC)
	if got.LongestStreak != 4 {
		t.Errorf("LongestStreak = %d, want 4", got.LongestStreak)
	}
}

func TestLongestStreakAcrossMonthsAndDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	// 2024-03-10 is a 23-hour day in New York
	days := []time.Time{
		time.Date(2024, 3, 9, 23, 0, 0, 0, loc),
		time.Date(2024, 3, 10, 1, 0, 0, 0, loc),
		time.Date(2024, 3, 11, 0, 30, 0, 0, loc),
	}
	got := ComputeHabitStats(models.Habit{ID: "h"}, logsOn("h", days...), days[2], loc)
	if got.LongestStreak != 3 || got.CurrentStreak != 3 {
		t.Errorf("streaks = %d/%d, want 3/3", got.CurrentStreak, got.LongestStreak)
	}
}

func TestCompletionRateBounds(t *testing.T) {
	today := date(2024, 6, 30)
	h := models.Habit{ID: "h"}

	tests := []struct {
		name string
		days int
		want float64
	}{
		{name: "one day", days: 1, want: 3.33},
		{name: "fifteen days", days: 15, want: 50},
		{name: "full window", days: 30, want: 100},
		{name: "longer history", days: 90, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var days []time.Time
			for i := 0; i < tt.days; i++ {
				days = append(days, today.AddDate(0, 0, -i))
			}
			got := ComputeHabitStats(h, logsOn("h", days...), today, time.UTC)
			if got.CompletionRate != tt.want {
				t.Errorf("CompletionRate = %v, want %v", got.CompletionRate, tt.want)
			}
			if got.CompletionRate < 0 || got.CompletionRate > 100 {
				t.Errorf("CompletionRate %v out of bounds", got.CompletionRate)
			}
		})
	}
}

func TestAverageValueRounding(t *testing.T) {
	h := models.Habit{ID: "h"}
	logs := logsOn("h", date(2024, 6, 1), date(2024, 6, 2), date(2024, 6, 3))
	logs[0].CompletedValue = 1
	logs[1].CompletedValue = 2
	logs[2].CompletedValue = 2

	got := ComputeHabitStats(h, logs, date(2024, 6, 3), time.UTC)
	if got.AverageValue != 1.67 {
		t.Errorf("AverageValue = %v, want 1.67", got.AverageValue)
	}
	if got.TotalTime != 5 {
		t.Errorf("TotalTime = %v, want 5", got.TotalTime)
	}
}

func TestDayProgress(t *testing.T) {
	h := models.Habit{ID: "h"}
	logs := logsOn("h", date(2024, 6, 3))
	zero := logsOn("h", date(2024, 6, 4))
	zero[0].CompletedValue = 0
	logs = append(logs, zero...)

	if got := DayProgress(h, logs, date(2024, 6, 3), time.UTC); got != 100 {
		t.Errorf("DayProgress(logged) = %v, want 100", got)
	}
	if got := DayProgress(h, logs, date(2024, 6, 4), time.UTC); got != 0 {
		t.Errorf("DayProgress(zero value) = %v, want 0", got)
	}
	if got := DayProgress(h, logs, date(2024, 6, 5), time.UTC); got != 0 {
		t.Errorf("DayProgress(no log) = %v, want 0", got)
	}
}
