package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitt/internal/cli"
	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/keyring"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/state"
	"github.com/julianstephens/habitt/internal/storage"
	"github.com/julianstephens/habitt/internal/utils"
)

// staleTimerAge flags running timers that were most likely forgotten
const staleTimerAge = 24 * time.Hour

// schemaReporter is implemented by the SQL-backed stores
type schemaReporter interface {
	SchemaVersion(ctx context.Context) (current, latest int, err error)
}

type DoctorCmd struct {
	Fix bool `help:"Repair invariant violations and save the cleaned data (a backup is taken first)."`
}

type doctorRun struct {
	ctx      *cli.Context
	hasError bool
}

func (d *doctorRun) pass(name string) {
	d.ctx.Printf("%s %s: OK\n", cli.SuccessStyle.Render("✓"), name)
}

func (d *doctorRun) fail(name string, err error) {
	d.ctx.Printf("%s %s: FAIL\n", cli.DangerStyle.Render("❌"), name)
	d.ctx.Printf("   Error: %v\n", err)
	d.hasError = true
}

func (d *doctorRun) warn(name string, err error) {
	d.ctx.Printf("%s %s: WARNING\n", cli.WarningStyle.Render("⚠"), name)
	d.ctx.Printf("   %v\n", err)
}

func (d *doctorRun) skip(name, reason string) {
	d.ctx.Printf("⊘ %s: SKIPPED (%s)\n", name, reason)
}

func (d *doctorRun) check(name string, err error) {
	if err != nil {
		d.fail(name, err)
		return
	}
	d.pass(name)
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	bg := context.Background()
	d := &doctorRun{ctx: ctx}
	loc := ctx.Location()

	// Check 1: store reachable and snapshot readable
	snap, found, loadErr := ctx.Gateway.Load(bg)
	reachable := loadErr == nil || errors.Is(loadErr, storage.ErrCorruptSnapshot)
	switch {
	case errors.Is(loadErr, storage.ErrCorruptSnapshot):
		d.pass("Store reachable")
		d.fail("Snapshot readable", loadErr)
	case loadErr != nil:
		d.fail("Store reachable", loadErr)
		d.skip("Snapshot readable", "store not reachable")
	case !found:
		d.pass("Store reachable")
		d.warn("Snapshot readable", fmt.Errorf("no data stored yet - run 'habitt init'"))
	default:
		d.pass("Store reachable")
		d.pass("Snapshot readable")
	}

	// Check 2: schema version (SQL stores only)
	if reporter, ok := ctx.Gateway.(schemaReporter); ok {
		if reachable && found {
			d.check("Schema version", checkSchemaVersion(bg, reporter))
		} else {
			d.skip("Schema version", "no database schema")
		}
	}

	// Check 3: invariants
	problems := state.Check(snap, loc)
	if loadErr == nil && found {
		if len(problems) == 0 {
			d.pass("Data integrity")
		} else {
			d.fail("Data integrity", fmt.Errorf("%d problem(s) found", len(problems)))
			for _, p := range problems {
				ctx.Printf("   - %s\n", p)
			}
		}
		checkTimers(d, snap, ctx.Now())
	} else {
		d.skip("Data integrity", "no readable snapshot")
	}

	// Check 4: backups present (warning only)
	if backups, err := ctx.Backups.ListBackups(); err != nil {
		d.warn("Backups present", fmt.Errorf("failed to list backups: %w", err))
	} else if len(backups) == 0 {
		d.warn("Backups present", errors.New("no backups found - consider creating one with 'habitt backup create'"))
	} else {
		d.pass("Backups present")
	}

	// Check 5: clock and timezone
	d.check("Clock/timezone", checkClockTimezone(ctx.Config.Timezone))

	// Check 6: keyring (PostgreSQL only)
	if ctx.Config.ResolvedBackend() == constants.BackendPostgres {
		if keyring.IsAvailable() {
			d.pass("OS keyring")
		} else {
			d.warn("OS keyring", errors.New("not available; use "+constants.EnvDBConnection+" or .pgpass"))
		}
	}

	if cmd.Fix && len(problems) > 0 && loadErr == nil && found {
		if err := repair(ctx, snap); err != nil {
			return err
		}
		ctx.Println()
		ctx.Printf("%s Repaired %d problem(s)\n", cli.SuccessStyle.Render("✓"), len(problems))
		return nil
	}

	ctx.Println()
	if d.hasError {
		return errors.New("one or more checks failed")
	}
	ctx.Println("All checks passed.")
	return nil
}

func checkSchemaVersion(ctx context.Context, r schemaReporter) error {
	current, latest, err := r.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, latest)
	}
	if current < latest {
		return fmt.Errorf("%d pending migration(s) (at %d, latest %d) - run 'habitt init'", latest-current, current, latest)
	}
	return nil
}

func checkTimers(d *doctorRun, snap models.Snapshot, now time.Time) {
	var stale int
	for _, ts := range state.ActiveTimerSessions(snap, "") {
		if now.Sub(ts.StartTime) > staleTimerAge {
			stale++
		}
	}
	if stale > 0 {
		d.warn("Running timers", fmt.Errorf("%d timer(s) running for over %s - stop them with 'habitt timer stop'", stale, staleTimerAge))
		return
	}
	d.pass("Running timers")
}

func checkClockTimezone(timezone string) error {
	now, err := utils.NowInTimezone(timezone)
	if err != nil {
		return err
	}
	// Check if time is in a reasonable range (after 2020 and before 2100)
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func repair(ctx *cli.Context, snap models.Snapshot) error {
	if _, err := ctx.Backups.CreateBackup(snap); err != nil {
		return fmt.Errorf("failed to back up before repair: %w", err)
	}
	if err := ctx.Gateway.Save(context.Background(), state.Normalize(snap, ctx.Location())); err != nil {
		return fmt.Errorf("failed to save repaired data: %w", err)
	}
	return nil
}
