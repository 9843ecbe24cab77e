package stats

import (
	"testing"
	"time"

	"github.com/julianstephens/habitt/internal/models"
)

func weekFixture() ([]models.Habit, []models.HabitLog) {
	habits := []models.Habit{
		{ID: "read", Name: "Read", WeekStartDate: "2024-06-03"},
		{ID: "run", Name: "Run", WeekStartDate: "2024-06-03"},
		{ID: "old", Name: "Old", WeekStartDate: "2024-05-27"},
	}
	logs := []models.HabitLog{
		{ID: "1", HabitID: "read", Date: date(2024, 6, 3), CompletedValue: 1},
		{ID: "2", HabitID: "read", Date: date(2024, 6, 4), CompletedValue: 1},
		{ID: "3", HabitID: "run", Date: date(2024, 6, 4), CompletedValue: 3},
		{ID: "4", HabitID: "run", Date: time.Date(2024, 6, 9, 23, 59, 0, 0, time.UTC), CompletedValue: 1},
		{ID: "5", HabitID: "run", Date: date(2024, 6, 10), CompletedValue: 1},
		// belongs to last week's habit, so it stays out of this week's series
		{ID: "6", HabitID: "old", Date: date(2024, 6, 5), CompletedValue: 1},
	}
	return habits, logs
}

func TestComputeWeeklySeries(t *testing.T) {
	habits, logs := weekFixture()

	got := ComputeWeeklySeries(habits, logs, date(2024, 6, 6), time.UTC)

	if !got.WeekStart.Equal(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("WeekStart = %v", got.WeekStart)
	}
	if len(got.Days) != 7 {
		t.Fatalf("len(Days) = %d, want 7", len(got.Days))
	}
	wantCompleted := []int{1, 2, 0, 0, 0, 0, 1}
	for i, d := range got.Days {
		if d.Expected != 2 {
			t.Errorf("day %d Expected = %d, want 2", i, d.Expected)
		}
		if d.Completed != wantCompleted[i] {
			t.Errorf("day %d Completed = %d, want %d", i, d.Completed, wantCompleted[i])
		}
	}
	if got.Days[0].Date.Weekday() != time.Monday {
		t.Errorf("series starts on %v", got.Days[0].Date.Weekday())
	}
	if got.TotalHabits != 2 || got.TotalCompletions != 4 {
		t.Errorf("totals = %d habits, %d completions", got.TotalHabits, got.TotalCompletions)
	}
	if got.CompletionRate != 28.57 {
		t.Errorf("CompletionRate = %v, want 28.57", got.CompletionRate)
	}
}

func TestComputeWeeklySeriesEmpty(t *testing.T) {
	got := ComputeWeeklySeries(nil, nil, date(2024, 6, 3), time.UTC)
	if got.CompletionRate != 0 || got.TotalHabits != 0 {
		t.Errorf("expected zero report, got %+v", got)
	}
	if len(got.Days) != 7 {
		t.Errorf("len(Days) = %d, want 7", len(got.Days))
	}
}

func TestHabitWeekGrid(t *testing.T) {
	habits, logs := weekFixture()

	rows := HabitWeekGrid(habits, logs, date(2024, 6, 3), time.UTC)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}

	read, run := rows[0], rows[1]
	if read.Habit.ID != "read" || run.Habit.ID != "run" {
		t.Fatalf("unexpected row order: %s, %s", read.Habit.ID, run.Habit.ID)
	}
	if !read.Days[0] || !read.Days[1] || read.Days[2] || read.Completed != 2 {
		t.Errorf("read row = %+v", read)
	}
	if !run.Days[1] || !run.Days[6] || run.Completed != 2 || run.Values[1] != 3 {
		t.Errorf("run row = %+v", run)
	}
}
