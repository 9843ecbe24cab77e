package habits

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/habitt/internal/cli"
	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/state"
	"github.com/julianstephens/habitt/internal/stats"
	"github.com/julianstephens/habitt/internal/utils"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a habit to a week."`
	List   HabitListCmd   `cmd:"" help:"List habits for a week." default:"1"`
	Edit   HabitEditCmd   `cmd:"" help:"Edit an existing habit."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit with its logs and timer sessions."`
}

type HabitAddCmd struct {
	Name        string `arg:"" help:"Habit name."`
	Description string `help:"Short description."`
	Color       string `help:"Display color (hex)." default:"${default_color}"`
	Icon        string `help:"Display icon." default:"${default_icon}"`
	Week        string `help:"Any date in the habit's week (default: this week)."`
	Reminder    string `help:"Reminder time in HH:MM format."`
	Inactive    bool   `help:"Create the habit paused."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return errors.New("habit name cannot be empty")
	}

	week, err := ctx.ParseDay(c.Week)
	if err != nil {
		return err
	}

	for _, h := range state.ListHabitsForWeek(ctx.Snapshot(), week, ctx.Location()) {
		if strings.EqualFold(h.Name, name) {
			return fmt.Errorf("habit with name %q already exists for the week of %s", name, h.WeekStartDate)
		}
	}

	input := models.HabitInput{
		Name:          name,
		Description:   c.Description,
		Color:         c.Color,
		Icon:          c.Icon,
		WeekStartDate: week.Format(constants.DateFormat),
		IsActive:      !c.Inactive,
	}
	if c.Reminder != "" {
		if !utils.ValidateTimeFormat(c.Reminder) {
			return fmt.Errorf("invalid reminder time %q (expected HH:MM)", c.Reminder)
		}
		reminder := c.Reminder
		input.ReminderTime = &reminder
	}

	snap, _, err := ctx.Dispatch(state.AddHabit{Input: input})
	if err != nil {
		return err
	}
	added := snap.Habits[len(snap.Habits)-1]

	ctx.Printf("%s Added habit %s %s (week of %s)\n", cli.SuccessStyle.Render("✓"), added.Icon, added.Name, added.WeekStartDate)
	return nil
}

type HabitListCmd struct {
	Week string `help:"Any date in the week to list (default: this week)."`
	All  bool   `help:"List habits of every week."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	week, err := ctx.ParseDay(c.Week)
	if err != nil {
		return err
	}

	snap := ctx.Snapshot()
	habits := snap.Habits
	if !c.All {
		habits = state.ListHabitsForWeek(snap, week, ctx.Location())
	}

	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	today := ctx.Now()
	if c.All {
		ctx.Println(cli.HeaderStyle.Render("All habits"))
	} else {
		ctx.Println(cli.HeaderStyle.Render("Habits for the week of " + utils.WeekKey(week, ctx.Location())))
	}
	for _, h := range habits {
		st := stats.ComputeHabitStats(h, snap.HabitLogs, today, ctx.Location())
		status := ""
		if !h.IsActive {
			status = cli.MutedStyle.Render(" [PAUSED]")
		}
		ctx.Printf("%s %s %s %-20s %s streak %d, %d total%s\n",
			cli.MutedStyle.Render(cli.ShortID(h.ID)), cli.Swatch(h.Color), h.Icon, h.Name,
			cli.MutedStyle.Render(h.WeekStartDate), st.CurrentStreak, st.TotalCompletions, status)
		if h.Description != "" {
			ctx.Printf("           %s\n", cli.MutedStyle.Render(h.Description))
		}
	}
	return nil
}

type HabitEditCmd struct {
	Habit         string  `arg:"" help:"Habit ID or name."`
	Name          *string `help:"New name."`
	Description   *string `help:"New description."`
	Color         *string `help:"New color."`
	Icon          *string `help:"New icon."`
	Week          string  `help:"Move the habit to the week containing this date."`
	Reminder      *string `help:"Reminder time in HH:MM format."`
	ClearReminder bool    `help:"Remove the reminder."`
	Activate      bool    `help:"Mark the habit active." xor:"active"`
	Pause         bool    `help:"Mark the habit paused." xor:"active"`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit, ctx.Now())
	if err != nil {
		return err
	}

	updated := habit
	if c.Name != nil {
		name := strings.TrimSpace(*c.Name)
		if name == "" {
			return errors.New("habit name cannot be empty")
		}
		updated.Name = name
	}
	if c.Description != nil {
		updated.Description = *c.Description
	}
	if c.Color != nil {
		updated.Color = *c.Color
	}
	if c.Icon != nil {
		updated.Icon = *c.Icon
	}
	if c.Week != "" {
		week, err := ctx.ParseDay(c.Week)
		if err != nil {
			return err
		}
		updated.WeekStartDate = week.Format(constants.DateFormat)
	}
	if c.Reminder != nil {
		if !utils.ValidateTimeFormat(*c.Reminder) {
			return fmt.Errorf("invalid reminder time %q (expected HH:MM)", *c.Reminder)
		}
		reminder := *c.Reminder
		updated.ReminderTime = &reminder
	}
	if c.ClearReminder {
		updated.ReminderTime = nil
	}
	if c.Activate {
		updated.IsActive = true
	}
	if c.Pause {
		updated.IsActive = false
	}

	if _, _, err := ctx.Dispatch(state.UpdateHabit{Habit: updated}); err != nil {
		return err
	}

	ctx.Printf("%s Updated habit %s\n", cli.SuccessStyle.Render("✓"), updated.Name)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit, ctx.Now())
	if err != nil {
		return err
	}

	snap := ctx.Snapshot()
	logCount := len(state.LogsForHabit(snap, habit.ID))

	ctx.PerformAutomaticBackup()
	if _, _, err := ctx.Dispatch(state.DeleteHabit{HabitID: habit.ID}); err != nil {
		return err
	}

	ctx.Printf("%s Deleted habit %s and %d log(s)\n", cli.SuccessStyle.Render("✓"), habit.Name, logCount)
	return nil
}
