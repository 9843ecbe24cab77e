// Package reports holds the read-only commands that render derived statistics.
package reports

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitt/internal/cli"
	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/state"
	"github.com/julianstephens/habitt/internal/stats"
	"github.com/julianstephens/habitt/internal/utils"
)

type StatsCmd struct {
	Habit string `arg:"" optional:"" help:"Habit ID or name (default: every habit this week)."`
	Date  string `help:"Compute as of this date (default: today)."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	today, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	loc := ctx.Location()
	snap := ctx.Snapshot()

	var habits []models.Habit
	if c.Habit != "" {
		habit, err := ctx.ResolveHabit(c.Habit, today)
		if err != nil {
			return err
		}
		habits = []models.Habit{habit}
	} else {
		habits = state.ListHabitsForWeek(snap, today, loc)
	}

	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	for i, h := range habits {
		if i > 0 {
			ctx.Println()
		}
		st := stats.ComputeHabitStats(h, snap.HabitLogs, today, loc)
		ctx.Println(cli.HeaderStyle.Render(fmt.Sprintf("%s %s", h.Icon, h.Name)))
		ctx.Printf("  Total completions:  %d\n", st.TotalCompletions)
		ctx.Printf("  Current streak:     %d day(s)\n", st.CurrentStreak)
		ctx.Printf("  Longest streak:     %d day(s)\n", st.LongestStreak)
		ctx.Printf("  Completion rate:    %.2f%% (last %d days)\n", st.CompletionRate, constants.CompletionWindowDays)
		ctx.Printf("  Average value:      %s\n", cli.FormatValue(st.AverageValue))
		ctx.Printf("  Total time:         %s\n", cli.FormatDuration(st.TotalTime))
	}
	return nil
}

type WeekCmd struct {
	Date string `help:"Any date in the week to show (default: this week)."`
}

func (c *WeekCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	loc := ctx.Location()
	snap := ctx.Snapshot()
	weekStart := utils.WeekStart(day, loc)

	report := stats.ComputeWeeklySeries(snap.Habits, snap.HabitLogs, weekStart, loc)
	ctx.Println(cli.HeaderStyle.Render("Week of " + report.WeekStart.Format(constants.DateFormat)))

	if report.TotalHabits == 0 {
		ctx.Println("No habits for this week.")
		return nil
	}

	var header strings.Builder
	header.WriteString(fmt.Sprintf("%-24s", ""))
	for _, d := range utils.WeekDays(weekStart, loc) {
		header.WriteString(" " + d.Format("Mon")[:2])
	}
	ctx.Println(cli.MutedStyle.Render(header.String()))

	for _, row := range stats.HabitWeekGrid(snap.Habits, snap.HabitLogs, weekStart, loc) {
		var line strings.Builder
		line.WriteString(fmt.Sprintf("%s %-22s", row.Habit.Icon, truncate(row.Habit.Name, 22)))
		for _, done := range row.Days {
			line.WriteString("  " + cli.Check(done))
		}
		line.WriteString(fmt.Sprintf("  %d/%d", row.Completed, constants.DaysPerWeek))
		ctx.Println(line.String())
	}

	ctx.Println()
	var counts []string
	for _, p := range report.Days {
		counts = append(counts, fmt.Sprintf("%s %d/%d", p.Date.Format("Mon"), p.Completed, p.Expected))
	}
	ctx.Println(cli.MutedStyle.Render(strings.Join(counts, "  ")))
	ctx.Printf("Completions: %d, completion rate %.2f%%\n", report.TotalCompletions, report.CompletionRate)
	return nil
}

type JournalCmd struct {
	Habit string `help:"Only show notes of this habit."`
	Limit int    `help:"Maximum number of days to show (0 for all)." default:"14"`
}

func (c *JournalCmd) Run(ctx *cli.Context) error {
	snap := ctx.Snapshot()
	loc := ctx.Location()

	logs := snap.HabitLogs
	if c.Habit != "" {
		habit, err := ctx.ResolveHabit(c.Habit, ctx.Now())
		if err != nil {
			return err
		}
		logs = state.LogsForHabit(snap, habit.ID)
	}

	days := stats.Journal(logs, loc)
	if len(days) == 0 {
		ctx.Println("No journal entries yet. Add notes with 'habitt log mark --note'.")
		return nil
	}
	if c.Limit > 0 && len(days) > c.Limit {
		days = days[:c.Limit]
	}

	for i, d := range days {
		if i > 0 {
			ctx.Println()
		}
		ctx.Println(cli.HeaderStyle.Render(d.Date.Format("Monday, " + constants.DateFormat)))
		for _, l := range d.Entries {
			name := l.HabitID
			icon := ""
			if h, ok := state.FindHabit(snap, l.HabitID); ok {
				name, icon = h.Name, h.Icon
			}
			ctx.Printf("  %s %s %s\n", icon, name, cli.MutedStyle.Render(l.Date.In(loc).Format(constants.TimeFormat)))
			ctx.Printf("    %s\n", *l.Notes)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
