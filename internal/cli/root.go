package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitt/internal/backup"
	"github.com/julianstephens/habitt/internal/config"
	"github.com/julianstephens/habitt/internal/logger"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/state"
	"github.com/julianstephens/habitt/internal/storage"
	"github.com/julianstephens/habitt/internal/tracker"
	"github.com/julianstephens/habitt/internal/utils"
)

// Context is handed to every command's Run method
type Context struct {
	Config     config.Config
	ConfigPath string
	Gateway    storage.Gateway
	Tracker    *tracker.Tracker
	Backups    *backup.Manager
	Out        io.Writer
	In         io.Reader
	// Loc is used by commands that run without a tracker
	Loc *time.Location
}

// Printf writes to the command output
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

// Println writes a line to the command output
func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Confirm asks a yes/no question on the command input; anything but y/yes is no
func (c *Context) Confirm(prompt string) (bool, error) {
	c.Printf("%s [y/N]: ", prompt)
	response, err := bufio.NewReader(c.Input()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// Replace installs snap as the whole state and waits for it to be saved
func (c *Context) Replace(snap models.Snapshot) (models.Snapshot, error) {
	next := c.Tracker.Replace(snap)
	if err := c.Tracker.Flush(context.Background()); err != nil {
		return next, fmt.Errorf("failed to save changes: %w", err)
	}
	return next, nil
}

// Input returns the command input, stdin by default
func (c *Context) Input() io.Reader {
	if c.In == nil {
		return os.Stdin
	}
	return c.In
}

// Location returns the timezone used for calendar days
func (c *Context) Location() *time.Location {
	switch {
	case c.Tracker != nil:
		return c.Tracker.Location()
	case c.Loc != nil:
		return c.Loc
	default:
		return time.Local
	}
}

// Now returns the reducer's clock
func (c *Context) Now() time.Time {
	if c.Tracker == nil {
		return time.Now().In(c.Location())
	}
	return c.Tracker.Reducer().Now()
}

// Snapshot returns the current snapshot
func (c *Context) Snapshot() models.Snapshot {
	return c.Tracker.Snapshot()
}

// Dispatch applies op and waits for it to be persisted. Commands are
// short-lived so a failed save is reported instead of left to the background.
func (c *Context) Dispatch(op state.Operation) (models.Snapshot, bool, error) {
	snap, changed := c.Tracker.Dispatch(op)
	if !changed {
		return snap, false, nil
	}
	if err := c.Tracker.Flush(context.Background()); err != nil {
		return snap, true, fmt.Errorf("failed to save changes: %w", err)
	}
	return snap, true, nil
}

// PerformAutomaticBackup backs up the current snapshot before destructive
// commands and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if c.Backups == nil || c.Config.Backups.Disabled {
		return
	}
	snap := c.Snapshot()
	if snap.IsEmpty() {
		return
	}
	if _, err := c.Backups.CreateBackup(snap); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ParseDay parses a YYYY-MM-DD or RFC 3339 date. An empty string means today.
func (c *Context) ParseDay(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return utils.StartOfDay(c.Now(), c.Location()), nil
	}
	return utils.ParseFlexibleDate(s, c.Location())
}

// LogTime returns the timestamp recorded for a log on day: the current time
// when day is today, otherwise midnight of day
func (c *Context) LogTime(day time.Time) time.Time {
	now := c.Now()
	if utils.SameDay(day, now, c.Location()) {
		return now
	}
	return utils.StartOfDay(day, c.Location())
}

// ResolveHabit finds a habit by ID, unique ID prefix or name within the week of day
func (c *Context) ResolveHabit(ref string, day time.Time) (models.Habit, error) {
	snap := c.Snapshot()
	if h, ok := state.FindHabit(snap, ref); ok {
		return h, nil
	}
	if h, ok := state.FindHabitByName(snap, ref, day, c.Location()); ok {
		return h, nil
	}

	var matches []models.Habit
	if len(ref) >= 4 {
		for _, h := range snap.Habits {
			if strings.HasPrefix(h.ID, ref) {
				matches = append(matches, h)
			}
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.Habit{}, fmt.Errorf("habit not found: %s", ref)
	default:
		return models.Habit{}, fmt.Errorf("ambiguous habit ID prefix %q matches %d habits", ref, len(matches))
	}
}

// ShortID trims an ID for table output
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// FormatValue prints a completed value without trailing zeros
func FormatValue(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// FormatDuration renders minutes as "1h 05m" or "25m"
func FormatDuration(minutes float64) string {
	total := int(math.Round(minutes))
	if total >= 60 {
		return fmt.Sprintf("%dh %02dm", total/60, total%60)
	}
	return fmt.Sprintf("%dm", total)
}
