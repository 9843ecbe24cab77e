package timers

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitt/internal/cli"
	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/state"
	"github.com/julianstephens/habitt/internal/stats"
)

type TimerCmd struct {
	Start TimerStartCmd `cmd:"" help:"Start a timer for a habit."`
	Stop  TimerStopCmd  `cmd:"" help:"Stop a running timer."`
	List  TimerListCmd  `cmd:"" help:"List timer sessions." default:"1"`
}

type TimerStartCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
}

func (c *TimerStartCmd) Run(ctx *cli.Context) error {
	now := ctx.Now()
	habit, err := ctx.ResolveHabit(c.Habit, now)
	if err != nil {
		return err
	}

	if active := state.ActiveTimerSessions(ctx.Snapshot(), habit.ID); len(active) > 0 {
		return fmt.Errorf("a timer for %s is already running since %s",
			habit.Name, active[0].StartTime.In(ctx.Location()).Format(constants.TimeFormat))
	}

	session := models.TimerSession{
		ID:        uuid.New().String(),
		HabitID:   habit.ID,
		StartTime: now,
		IsActive:  true,
	}
	if _, _, err := ctx.Dispatch(state.AddTimerSession{Session: session}); err != nil {
		return err
	}

	ctx.Printf("%s Started timer for %s at %s\n", cli.SuccessStyle.Render("✓"), habit.Name,
		now.In(ctx.Location()).Format(constants.TimeFormat))
	return nil
}

type TimerStopCmd struct {
	Habit string `arg:"" optional:"" help:"Habit ID or name (required when several timers run)."`
	Log   bool   `help:"Record the elapsed minutes as today's log."`
	Note  string `help:"Note for the recorded log."`
}

func (c *TimerStopCmd) Run(ctx *cli.Context) error {
	now := ctx.Now()
	snap := ctx.Snapshot()

	habitID := ""
	if c.Habit != "" {
		habit, err := ctx.ResolveHabit(c.Habit, now)
		if err != nil {
			return err
		}
		habitID = habit.ID
	}

	active := state.ActiveTimerSessions(snap, habitID)
	switch {
	case len(active) == 0:
		return errors.New("no running timer")
	case len(active) > 1:
		return fmt.Errorf("%d timers are running; name the habit to stop", len(active))
	}

	session := active[0]
	habit, _ := state.FindHabit(snap, session.HabitID)
	end := now
	session.EndTime = &end
	session.Duration = elapsedMinutes(session.StartTime, end)
	session.IsActive = false

	if _, _, err := ctx.Dispatch(state.UpdateTimerSession{Session: session}); err != nil {
		return err
	}
	ctx.Printf("%s Stopped timer for %s after %s\n", cli.SuccessStyle.Render("✓"), habit.Name, cli.FormatDuration(session.Duration))

	if c.Log {
		input := models.HabitLogInput{
			HabitID:        habit.ID,
			Date:           now,
			CompletedValue: session.Duration,
		}
		if c.Note != "" {
			note := c.Note
			input.Notes = &note
		}
		if _, _, err := ctx.Dispatch(state.UpsertHabitLog{Input: input}); err != nil {
			return err
		}
		ctx.Printf("  Logged %s minutes for today\n", cli.FormatValue(session.Duration))
	}
	return nil
}

// elapsedMinutes rounds to whole minutes and never goes negative
func elapsedMinutes(start, end time.Time) float64 {
	return math.Max(0, math.Round(end.Sub(start).Minutes()))
}

type TimerListCmd struct {
	Habit string `help:"Only show sessions of this habit."`
}

func (c *TimerListCmd) Run(ctx *cli.Context) error {
	snap := ctx.Snapshot()
	loc := ctx.Location()

	sessions := snap.TimerSessions
	if c.Habit != "" {
		habit, err := ctx.ResolveHabit(c.Habit, ctx.Now())
		if err != nil {
			return err
		}
		sessions = nil
		for _, ts := range snap.TimerSessions {
			if ts.HabitID == habit.ID {
				sessions = append(sessions, ts)
			}
		}
	}

	if len(sessions) == 0 {
		ctx.Println("No timer sessions found.")
		return nil
	}

	names := map[string]string{}
	for _, h := range snap.Habits {
		names[h.ID] = h.Name
	}

	for _, ts := range sessions {
		start := ts.StartTime.In(loc).Format(constants.DateFormat + " " + constants.TimeFormat)
		if ts.IsActive {
			ctx.Printf("  %s  %-20s %s\n", start, names[ts.HabitID], cli.WarningStyle.Render("running"))
			continue
		}
		ctx.Printf("  %s  %-20s %s\n", start, names[ts.HabitID], cli.FormatDuration(ts.Duration))
	}

	ctx.Println()
	ctx.Println(cli.HeaderStyle.Render("Totals"))
	for _, total := range stats.TimerTotals(sessions) {
		ctx.Printf("  %-20s %d session(s), %s\n", names[total.HabitID], total.Sessions, cli.FormatDuration(total.Minutes))
	}
	return nil
}
