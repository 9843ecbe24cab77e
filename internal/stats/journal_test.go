package stats

import (
	"testing"
	"time"

	"github.com/julianstephens/habitt/internal/models"
)

func note(s string) *string { return &s }

func TestJournal(t *testing.T) {
	logs := []models.HabitLog{
		{ID: "a", HabitID: "h1", Date: time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC), Notes: note("slow start")},
		{ID: "b", HabitID: "h2", Date: time.Date(2024, 6, 4, 7, 0, 0, 0, time.UTC), Notes: note("  ")},
		{ID: "c", HabitID: "h1", Date: time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC), Notes: note("better")},
		{ID: "d", HabitID: "h2", Date: time.Date(2024, 6, 4, 20, 0, 0, 0, time.UTC), Notes: note("evening run")},
		{ID: "e", HabitID: "h2", Date: time.Date(2024, 6, 5, 8, 0, 0, 0, time.UTC)},
	}

	days := Journal(logs, time.UTC)
	if len(days) != 2 {
		t.Fatalf("len(days) = %d, want 2", len(days))
	}
	if days[0].Date.Day() != 4 || days[1].Date.Day() != 3 {
		t.Errorf("days out of order: %v, %v", days[0].Date, days[1].Date)
	}
	if len(days[0].Entries) != 2 || days[0].Entries[0].ID != "d" || days[0].Entries[1].ID != "c" {
		t.Errorf("2024-06-04 entries = %+v", days[0].Entries)
	}
	if Journal(nil, time.UTC) != nil {
		t.Error("Journal(nil) should be empty")
	}
}

func TestTimerTotals(t *testing.T) {
	sessions := []models.TimerSession{
		{ID: "1", HabitID: "h1", Duration: 25},
		{ID: "2", HabitID: "h2", Duration: 10},
		{ID: "3", HabitID: "h1", Duration: 15.5},
		{ID: "4", HabitID: "h1", Duration: 99, IsActive: true},
	}

	got := TimerTotals(sessions)
	if len(got) != 2 {
		t.Fatalf("len(totals) = %d, want 2", len(got))
	}
	if got[0].HabitID != "h1" || got[0].Sessions != 2 || got[0].Minutes != 40.5 {
		t.Errorf("h1 total = %+v", got[0])
	}
	if got[1].HabitID != "h2" || got[1].Sessions != 1 || got[1].Minutes != 10 {
		t.Errorf("h2 total = %+v", got[1])
	}
}
