package reports

import (
	"strings"
	"testing"

	"github.com/julianstephens/habitt/internal/cli/clitest"
	"github.com/julianstephens/habitt/internal/models"
)

func strPtr(s string) *string { return &s }

func seed() models.Snapshot {
	return models.Snapshot{
		Habits: []models.Habit{clitest.Habit("h1", "Read")},
		HabitLogs: []models.HabitLog{
			{ID: "l1", HabitID: "h1", Date: clitest.Day(2), CompletedValue: 3},
			{ID: "l2", HabitID: "h1", Date: clitest.Day(3), CompletedValue: 1, Notes: strPtr("slow start")},
			{ID: "l3", HabitID: "h1", Date: clitest.Day(4), CompletedValue: 2, Notes: strPtr("finished the book")},
		},
	}
}

func assertContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStatsCmd(t *testing.T) {
	env := clitest.New(t, seed())

	if err := (&StatsCmd{Habit: "Read"}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	assertContains(t, env.Out.String(),
		"Total completions:  3",
		"Current streak:     3 day(s)",
		"Longest streak:     3 day(s)",
		"Completion rate:    10.00%",
		"Average value:      2",
		"Total time:         6m",
	)
}

func TestStatsCmdAsOfDate(t *testing.T) {
	env := clitest.New(t, seed())

	if err := (&StatsCmd{Date: "2024-06-07"}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	// two days without a log break the current streak
	assertContains(t, env.Out.String(), "Current streak:     0 day(s)", "Longest streak:     3 day(s)")

	env.Out.Reset()
	if err := (&StatsCmd{Date: "2024-06-12"}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	assertContains(t, env.Out.String(), "No habits found.")
}

func TestWeekCmd(t *testing.T) {
	env := clitest.New(t, seed())

	if err := (&WeekCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	assertContains(t, env.Out.String(),
		"Week of 2024-06-03",
		"2/7",
		"Completions: 2, completion rate 28.57%",
	)

	env.Out.Reset()
	if err := (&WeekCmd{Date: "2024-05-30"}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	assertContains(t, env.Out.String(), "Week of 2024-05-27", "No habits for this week.")
}

func TestJournalCmd(t *testing.T) {
	env := clitest.New(t, seed())

	if err := (&JournalCmd{Limit: 14}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	out := env.Out.String()
	assertContains(t, out, "Tuesday, 2024-06-04", "finished the book", "Monday, 2024-06-03", "slow start")
	if strings.Index(out, "finished the book") > strings.Index(out, "slow start") {
		t.Errorf("journal should list the newest day first:\n%s", out)
	}

	env.Out.Reset()
	if err := (&JournalCmd{Limit: 1}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(env.Out.String(), "slow start") {
		t.Errorf("limit not applied:\n%s", env.Out.String())
	}
}

func TestJournalCmdEmpty(t *testing.T) {
	env := clitest.New(t, models.Snapshot{Habits: []models.Habit{clitest.Habit("h1", "Read")}})

	if err := (&JournalCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	assertContains(t, env.Out.String(), "No journal entries yet")
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 22); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate() = %q, want abc…", got)
	}
}
