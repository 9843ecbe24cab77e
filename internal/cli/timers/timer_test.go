package timers

import (
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitt/internal/cli/clitest"
	"github.com/julianstephens/habitt/internal/models"
)

func seed() models.Snapshot {
	return models.Snapshot{Habits: []models.Habit{clitest.Habit("h1", "Read"), clitest.Habit("h2", "Run")}}
}

func TestTimerStartStop(t *testing.T) {
	env := clitest.New(t, seed())

	if err := (&TimerStartCmd{Habit: "Read"}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	sessions := env.Stored(t).TimerSessions
	if len(sessions) != 1 || !sessions[0].IsActive || sessions[0].ID == "" {
		t.Fatalf("started session = %+v", sessions)
	}
	if !sessions[0].StartTime.Equal(clitest.Now) {
		t.Errorf("StartTime = %v, want %v", sessions[0].StartTime, clitest.Now)
	}

	if err := (&TimerStartCmd{Habit: "Read"}).Run(env.Ctx); err == nil {
		t.Error("starting a second timer for the same habit should fail")
	}

	env.SetNow(clitest.Now.Add(25*time.Minute + 20*time.Second))
	if err := (&TimerStopCmd{Log: true, Note: "focused"}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}

	stored := env.Stored(t)
	ts := stored.TimerSessions[0]
	if ts.IsActive || ts.EndTime == nil || ts.Duration != 25 {
		t.Errorf("stopped session = %+v", ts)
	}
	if len(stored.HabitLogs) != 1 {
		t.Fatalf("stored %d logs, want 1", len(stored.HabitLogs))
	}
	l := stored.HabitLogs[0]
	if l.HabitID != "h1" || l.CompletedValue != 25 || l.Notes == nil || *l.Notes != "focused" {
		t.Errorf("recorded log = %+v", l)
	}
	out := env.Out.String()
	if !strings.Contains(out, "after 25m") || !strings.Contains(out, "Logged 25 minutes") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestTimerStopErrors(t *testing.T) {
	env := clitest.New(t, seed())

	if err := (&TimerStopCmd{}).Run(env.Ctx); err == nil || !strings.Contains(err.Error(), "no running timer") {
		t.Errorf("expected no running timer error, got %v", err)
	}

	for _, h := range []string{"Read", "Run"} {
		if err := (&TimerStartCmd{Habit: h}).Run(env.Ctx); err != nil {
			t.Fatal(err)
		}
	}
	if err := (&TimerStopCmd{}).Run(env.Ctx); err == nil {
		t.Error("stopping without a habit should fail when two timers run")
	}
	if err := (&TimerStopCmd{Habit: "Run"}).Run(env.Ctx); err != nil {
		t.Errorf("stopping a named timer failed: %v", err)
	}
}

func TestTimerListCmd(t *testing.T) {
	s := seed()
	s.TimerSessions = []models.TimerSession{
		{ID: "t1", HabitID: "h1", StartTime: clitest.Day(3), Duration: 50},
		{ID: "t2", HabitID: "h1", StartTime: clitest.Day(4), Duration: 40},
		{ID: "t3", HabitID: "h2", StartTime: clitest.Day(4), IsActive: true},
	}
	env := clitest.New(t, s)

	if err := (&TimerListCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	out := env.Out.String()
	for _, want := range []string{"running", "2 session(s), 1h 30m"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	env.Out.Reset()
	if err := (&TimerListCmd{Habit: "Run"}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(env.Out.String(), "1h 30m") {
		t.Errorf("filter by habit leaked other sessions:\n%s", env.Out.String())
	}
}

func TestElapsedMinutes(t *testing.T) {
	start := clitest.Now
	tests := []struct {
		end  time.Time
		want float64
	}{
		{start.Add(90 * time.Second), 2},
		{start.Add(29 * time.Second), 0},
		{start.Add(-time.Minute), 0},
		{start.Add(time.Hour), 60},
	}
	for _, tt := range tests {
		if got := elapsedMinutes(start, tt.end); got != tt.want {
			t.Errorf("elapsedMinutes(%v) = %v, want %v", tt.end.Sub(start), got, tt.want)
		}
	}
}
