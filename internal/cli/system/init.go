package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/habitt/internal/cli"
	"github.com/julianstephens/habitt/internal/config"
	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/state"
	"github.com/julianstephens/habitt/internal/storage"
	"github.com/julianstephens/habitt/internal/storage/postgres"
)

type InitCmd struct {
	Force       bool   `help:"Force reset by deleting existing data before initialization."`
	Source      string `help:"Source store path or connection string to copy data from."`
	WriteConfig bool   `help:"Save the effective configuration to the config file."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	backend := ctx.Config.ResolvedBackend()

	if c.Force {
		if err := c.reset(ctx, backend); err != nil {
			return err
		}
	}

	if err := ctx.Gateway.Init(bg); err != nil {
		return err
	}
	if c.Force && backend == constants.BackendPostgres {
		if err := ctx.Gateway.Save(bg, state.Empty()); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}
	}
	ctx.Printf("Initialized habitt storage (%s) at: %s\n", backend, ctx.Gateway.Describe())

	if c.Source != "" {
		ctx.Printf("Migrating data from: %s\n", c.Source)
		if err := c.migrateData(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Println("Migration completed successfully!")
	}

	if c.WriteConfig {
		if err := config.Write(ctx.ConfigPath, ctx.Config); err != nil {
			return err
		}
		ctx.Printf("Wrote configuration to: %s\n", config.ExpandPath(ctx.ConfigPath))
	}
	return nil
}

// reset removes a file-backed store. PostgreSQL data is cleared after Init instead.
func (c *InitCmd) reset(ctx *cli.Context, backend string) error {
	if backend == constants.BackendPostgres {
		return nil
	}

	path := ctx.Config.StorePath()
	if c.Source != "" {
		// Normalize paths to absolute for accurate comparison
		absPath, err := filepath.Abs(path)
		if err == nil {
			path = absPath
		}
		absSource, err := filepath.Abs(config.ExpandPath(c.Source))
		if err == nil && absSource == path {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", path)
		}
	}

	if _, err := os.Stat(path); err == nil {
		// close first to release file locks
		if err := ctx.Gateway.Close(); err != nil {
			return fmt.Errorf("failed to close existing store: %w", err)
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to delete existing store: %w", err)
		}
		ctx.Printf("Deleted existing store at: %s\n", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to access existing store: %w", err)
	}
	return nil
}

func (c *InitCmd) migrateData(ctx *cli.Context) error {
	bg := context.Background()
	loc := ctx.Location()

	source, err := openSource(ctx.Config, c.Source, loc)
	if err != nil {
		return err
	}
	defer source.Close()

	snap, ok, err := source.Load(bg)
	if err != nil {
		return fmt.Errorf("failed to load source store: %w", err)
	}
	if !ok {
		return errors.New("source store holds no data")
	}

	normalized := state.Normalize(snap, loc)
	if dropped := len(state.Check(snap, loc)); dropped > 0 {
		ctx.Printf("  Repaired %d problem(s) in the source data\n", dropped)
	}
	if err := ctx.Gateway.Save(bg, normalized); err != nil {
		return fmt.Errorf("failed to save to destination: %w", err)
	}

	ctx.Printf("    Migrated %d habits\n", len(normalized.Habits))
	ctx.Printf("    Migrated %d habit logs\n", len(normalized.HabitLogs))
	ctx.Printf("    Migrated %d timer sessions\n", len(normalized.TimerSessions))
	return nil
}

// openSource opens the store to migrate from. A PostgreSQL source is used as
// given rather than resolved through the keyring.
func openSource(base config.Config, source string, loc *time.Location) (storage.Gateway, error) {
	if config.DetectBackend(source) == constants.BackendPostgres {
		if valid, err := postgres.ValidateConnString(source); !valid {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, errors.New("PostgreSQL source connection string contains embedded credentials. Use environment variables or .pgpass instead")
			}
			return nil, err
		}
		return postgres.New(source, loc), nil
	}

	srcCfg := base
	srcCfg.Store = source
	srcCfg.Backend = ""
	return cli.OpenGateway(srcCfg, loc)
}
