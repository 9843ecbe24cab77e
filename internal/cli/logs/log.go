package logs

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/julianstephens/habitt/internal/cli"
	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/state"
	"github.com/julianstephens/habitt/internal/stats"
	"github.com/julianstephens/habitt/internal/utils"
)

type LogCmd struct {
	Mark   LogMarkCmd   `cmd:"" help:"Toggle a habit's completion for a day."`
	Set    LogSetCmd    `cmd:"" help:"Record a completion value for a day."`
	Unmark LogUnmarkCmd `cmd:"" help:"Remove a habit's log for a day."`
	Show   LogShowCmd   `cmd:"" help:"Show a habit's log history."`
}

type LogMarkCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
	Date  string `help:"Date in YYYY-MM-DD format (default: today)."`
	Note  string `help:"Optional note for this entry."`
}

func (c *LogMarkCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	habit, err := ctx.ResolveHabit(c.Habit, day)
	if err != nil {
		return err
	}

	op := state.ToggleHabitLog{HabitID: habit.ID, Date: ctx.LogTime(day)}
	if c.Note != "" {
		note := c.Note
		op.Notes = &note
	}

	snap, _, err := ctx.Dispatch(op)
	if err != nil {
		return err
	}

	dayKey := utils.DayKey(day, ctx.Location())
	if len(state.ListLogsForHabitOnDay(snap, habit.ID, day, ctx.Location())) > 0 {
		ctx.Printf("%s Marked %s for %s\n", cli.SuccessStyle.Render("✓"), habit.Name, dayKey)
	} else {
		ctx.Printf("Unmarked %s for %s\n", habit.Name, dayKey)
	}
	return nil
}

type LogSetCmd struct {
	Habit string  `arg:"" help:"Habit ID or name."`
	Value float64 `arg:"" help:"Completed value (count or minutes)."`
	Date  string  `help:"Date in YYYY-MM-DD format (default: today)."`
	Note  *string `help:"Note for this entry; omit to keep the existing note."`
}

func (c *LogSetCmd) Run(ctx *cli.Context) error {
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		return fmt.Errorf("completed value must be a finite number, got %g", c.Value)
	}
	if c.Value < 0 {
		return errors.New("completed value cannot be negative")
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	habit, err := ctx.ResolveHabit(c.Habit, day)
	if err != nil {
		return err
	}

	_, _, err = ctx.Dispatch(state.UpsertHabitLog{Input: models.HabitLogInput{
		HabitID:        habit.ID,
		Date:           ctx.LogTime(day),
		CompletedValue: c.Value,
		Notes:          c.Note,
	}})
	if err != nil {
		return err
	}

	ctx.Printf("%s Logged %s for %s on %s\n", cli.SuccessStyle.Render("✓"),
		cli.FormatValue(c.Value), habit.Name, utils.DayKey(day, ctx.Location()))
	return nil
}

type LogUnmarkCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
	Date  string `help:"Date in YYYY-MM-DD format (default: today)."`
}

func (c *LogUnmarkCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	habit, err := ctx.ResolveHabit(c.Habit, day)
	if err != nil {
		return err
	}

	_, changed, err := ctx.Dispatch(state.DeleteHabitLog{HabitID: habit.ID, Date: day})
	if err != nil {
		return err
	}

	dayKey := utils.DayKey(day, ctx.Location())
	if !changed {
		ctx.Printf("No log for %s on %s\n", habit.Name, dayKey)
		return nil
	}
	ctx.Printf("Removed log for %s on %s\n", habit.Name, dayKey)
	return nil
}

type LogShowCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
	Date  string `help:"Show only this day's entry."`
	Days  int    `help:"Number of days of history to show." default:"14"`
}

func (c *LogShowCmd) Run(ctx *cli.Context) error {
	loc := ctx.Location()
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	habit, err := ctx.ResolveHabit(c.Habit, day)
	if err != nil {
		return err
	}
	snap := ctx.Snapshot()

	if c.Date != "" {
		entries := state.ListLogsForHabitOnDay(snap, habit.ID, day, loc)
		if len(entries) == 0 {
			ctx.Printf("No log for %s on %s\n", habit.Name, utils.DayKey(day, loc))
			return nil
		}
		for _, l := range entries {
			ctx.Println(formatEntry(l, ctx))
		}
		return nil
	}

	if c.Days <= 0 {
		return fmt.Errorf("days must be positive, got %d", c.Days)
	}

	ctx.Println(cli.HeaderStyle.Render(fmt.Sprintf("%s %s, last %d days", habit.Icon, habit.Name, c.Days)))
	var bar strings.Builder
	for i := c.Days - 1; i >= 0; i-- {
		d := utils.AddDays(day, -i, loc)
		bar.WriteString(cli.Check(stats.DayProgress(habit, snap.HabitLogs, d, loc) > 0))
	}
	ctx.Println(bar.String())

	for _, l := range state.LogsForHabit(snap, habit.ID) {
		if utils.DaysBetween(l.Date, day, loc) >= c.Days {
			break
		}
		ctx.Println(formatEntry(l, ctx))
	}
	return nil
}

func formatEntry(l models.HabitLog, ctx *cli.Context) string {
	line := fmt.Sprintf("  %s  %s", l.Date.In(ctx.Location()).Format(constants.DateFormat+" "+constants.TimeFormat), cli.FormatValue(l.CompletedValue))
	if l.Notes != nil && *l.Notes != "" {
		line += "  " + cli.MutedStyle.Render(*l.Notes)
	}
	return line
}
