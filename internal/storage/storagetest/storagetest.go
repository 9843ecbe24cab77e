// Package storagetest holds conformance checks shared by every Gateway
// implementation's tests.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/storage"
)

// Fixture returns a small normalized snapshot exercising every field
func Fixture() models.Snapshot {
	notes := "felt good"
	reminder := "07:30"
	end := time.Date(2024, 6, 4, 9, 25, 0, 0, time.UTC)

	return models.Snapshot{
		Habits: []models.Habit{
			{
				ID: "h1", Name: "Read", Description: "20 pages", Color: "#2196F3", Icon: "📚",
				CreatedAt:     time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC),
				WeekStartDate: "2024-06-03", IsActive: true, ReminderTime: &reminder,
			},
			{
				ID: "h2", Name: "Run", Color: "#4CAF50", Icon: "🏃",
				CreatedAt:     time.Date(2024, 6, 3, 8, 5, 0, 0, time.UTC),
				WeekStartDate: "2024-06-03", IsActive: false,
			},
		},
		HabitLogs: []models.HabitLog{
			{ID: "l1", HabitID: "h1", Date: time.Date(2024, 6, 3, 21, 0, 0, 0, time.UTC), CompletedValue: 1},
			{ID: "l2", HabitID: "h1", Date: time.Date(2024, 6, 4, 7, 15, 0, 0, time.UTC), CompletedValue: 2.5, Notes: &notes},
			{ID: "l3", HabitID: "h2", Date: time.Date(2024, 6, 4, 6, 0, 0, 0, time.UTC), CompletedValue: 0},
		},
		TimerSessions: []models.TimerSession{
			{ID: "t1", HabitID: "h1", StartTime: time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC), EndTime: &end, Duration: 25},
			{ID: "t2", HabitID: "h2", StartTime: time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC), IsActive: true},
		},
	}
}

// RunGatewayTests checks the Gateway contract against a fresh store from newGateway
func RunGatewayTests(t *testing.T, newGateway func(t *testing.T) storage.Gateway) {
	t.Helper()
	ctx := context.Background()

	t.Run("load before save reports absent", func(t *testing.T) {
		g := newGateway(t)
		snap, ok, err := g.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if ok && !snap.IsEmpty() {
			t.Errorf("Load() on a fresh store returned data: %+v", snap)
		}
	})

	t.Run("save then load round trips", func(t *testing.T) {
		g := newGateway(t)
		want := Fixture()
		if err := g.Save(ctx, want); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, ok, err := g.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !ok {
			t.Fatal("Load() reported absent after Save()")
		}
		AssertSnapshotsEqual(t, want, got)
	})

	t.Run("save replaces previous snapshot", func(t *testing.T) {
		g := newGateway(t)
		if err := g.Save(ctx, Fixture()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		smaller := Fixture()
		smaller.Habits = smaller.Habits[:1]
		smaller.HabitLogs = smaller.HabitLogs[:2]
		smaller.TimerSessions = smaller.TimerSessions[:1]
		if err := g.Save(ctx, smaller); err != nil {
			t.Fatalf("second Save() error = %v", err)
		}

		got, _, err := g.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		AssertSnapshotsEqual(t, smaller, got)
	})

	t.Run("empty snapshot", func(t *testing.T) {
		g := newGateway(t)
		if err := g.Save(ctx, models.Snapshot{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, _, err := g.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !got.IsEmpty() {
			t.Errorf("expected empty snapshot, got %+v", got)
		}
	})
}

// AssertSnapshotsEqual compares snapshots field by field, using time.Equal for instants
func AssertSnapshotsEqual(t *testing.T, want, got models.Snapshot) {
	t.Helper()

	if len(got.Habits) != len(want.Habits) {
		t.Fatalf("habits: got %d, want %d", len(got.Habits), len(want.Habits))
	}
	for i, w := range want.Habits {
		g := got.Habits[i]
		if g.ID != w.ID || g.Name != w.Name || g.Description != w.Description ||
			g.Color != w.Color || g.Icon != w.Icon || g.WeekStartDate != w.WeekStartDate ||
			g.IsActive != w.IsActive || !g.CreatedAt.Equal(w.CreatedAt) || !equalStr(g.ReminderTime, w.ReminderTime) {
			t.Errorf("habit %d: got %+v, want %+v", i, g, w)
		}
	}

	if len(got.HabitLogs) != len(want.HabitLogs) {
		t.Fatalf("logs: got %d, want %d", len(got.HabitLogs), len(want.HabitLogs))
	}
	for i, w := range want.HabitLogs {
		g := got.HabitLogs[i]
		if g.ID != w.ID || g.HabitID != w.HabitID || !g.Date.Equal(w.Date) ||
			g.CompletedValue != w.CompletedValue || !equalStr(g.Notes, w.Notes) {
			t.Errorf("log %d: got %+v, want %+v", i, g, w)
		}
	}

	if len(got.TimerSessions) != len(want.TimerSessions) {
		t.Fatalf("sessions: got %d, want %d", len(got.TimerSessions), len(want.TimerSessions))
	}
	for i, w := range want.TimerSessions {
		g := got.TimerSessions[i]
		if g.ID != w.ID || g.HabitID != w.HabitID || !g.StartTime.Equal(w.StartTime) ||
			g.Duration != w.Duration || g.IsActive != w.IsActive || !equalTime(g.EndTime, w.EndTime) {
			t.Errorf("session %d: got %+v, want %+v", i, g, w)
		}
	}
}

func equalStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
