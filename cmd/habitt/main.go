package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitt/internal/backup"
	"github.com/julianstephens/habitt/internal/cli"
	"github.com/julianstephens/habitt/internal/cli/backups"
	"github.com/julianstephens/habitt/internal/cli/habits"
	"github.com/julianstephens/habitt/internal/cli/logs"
	"github.com/julianstephens/habitt/internal/cli/reports"
	"github.com/julianstephens/habitt/internal/cli/system"
	"github.com/julianstephens/habitt/internal/cli/timers"
	"github.com/julianstephens/habitt/internal/config"
	"github.com/julianstephens/habitt/internal/constants"
	apperrors "github.com/julianstephens/habitt/internal/errors"
	"github.com/julianstephens/habitt/internal/logger"
	"github.com/julianstephens/habitt/internal/state"
	"github.com/julianstephens/habitt/internal/tracker"
)

type habittCLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Config file path." type:"path" env:"HABITT_CONFIG" default:"${config_file}"`
	Store    string `help:"Store path or PostgreSQL connection string. For PostgreSQL, credentials must NOT be embedded in the connection string. Use environment variables, .pgpass, or OS keyring instead."`
	Backend  string `help:"Storage backend (sqlite, postgres, json, badger). Inferred from --store when omitted."`
	Timezone string `help:"IANA timezone used to decide calendar days."`
	Debug    bool   `help:"Enable debug logging to stderr."`

	Init    system.InitCmd     `cmd:"" help:"Initialize habitt storage."`
	Doctor  system.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Keyring system.KeyringCmd  `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Habit   habits.HabitCmd    `cmd:"" help:"Manage habits."`
	Log     logs.LogCmd        `cmd:"" help:"Record and inspect habit completions."`
	Timer   timers.TimerCmd    `cmd:"" help:"Time focus sessions for a habit."`
	Stats   reports.StatsCmd   `cmd:"" help:"Show streaks and completion rates."`
	Week    reports.WeekCmd    `cmd:"" help:"Show the weekly completion grid." default:"1"`
	Journal reports.JournalCmd `cmd:"" help:"Show notes grouped by day."`
	Backup  backups.BackupCmd  `cmd:"" help:"Manage snapshot backups."`
	Export  backups.ExportCmd  `cmd:"" help:"Export all data as JSON."`
	Import  backups.ImportCmd  `cmd:"" help:"Replace all data with an exported JSON file."`
}

// commands that run against the raw gateway, or without one
var (
	noTracker = map[string]bool{"init": true, "doctor": true, "keyring": true}
	noStore   = map[string]bool{"keyring": true}
)

func options() []kong.Option {
	return []kong.Option{
		kong.Name(constants.AppName),
		kong.Description("Weekly habit tracker with streaks, timers and a notes journal"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":       constants.Version,
			"config_file":   constants.DefaultConfigFile,
			"default_color": constants.DefaultHabitColor,
			"default_icon":  constants.DefaultHabitIcon,
		},
	}
}

func main() {
	var args habittCLI
	parser := kong.Must(&args, options()...)
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := run(kctx, &args, os.Stdout, os.Stdin); err != nil {
		apperrors.Fatal(err)
	}
}

// run wires config, storage and the tracker around the parsed command
func run(kctx *kong.Context, args *habittCLI, stdout io.Writer, stdin io.Reader) error {
	cfg, err := config.Load(args.Config)
	if err != nil {
		return err
	}
	cfg = cfg.Apply(config.Overrides{
		Store:    args.Store,
		Backend:  args.Backend,
		Timezone: args.Timezone,
		Debug:    args.Debug,
	})
	if err := cfg.Validate(); err != nil {
		return apperrors.WithHint(err, "check "+config.ExpandPath(args.Config)+" and the command-line flags")
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: cfg.Dir()}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	defer logger.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	appCtx := &cli.Context{
		Config:     cfg,
		ConfigPath: args.Config,
		Backups:    backup.NewManager(cfg.Dir(), cfg.Backups.Max, loc),
		Out:        stdout,
		In:         stdin,
		Loc:        loc,
	}

	command := strings.Fields(kctx.Command())[0]
	if !noStore[command] {
		gw, err := cli.OpenGateway(cfg, loc)
		if err != nil {
			return err
		}
		appCtx.Gateway = gw
	}

	if appCtx.Gateway != nil && !noTracker[command] {
		tr, err := tracker.Open(context.Background(), appCtx.Gateway,
			tracker.WithReducer(state.NewReducer(state.WithLocation(loc))),
		)
		if err != nil {
			_ = appCtx.Gateway.Close()
			return apperrors.WithHint(err, "run 'habitt doctor' to diagnose the store")
		}
		if recovered := tr.RecoveredFrom(); recovered != nil {
			fmt.Fprintf(os.Stderr, "Warning: stored data could not be read and was ignored: %v\n", recovered)
			fmt.Fprintln(os.Stderr, "         Restore a backup with 'habitt backup restore' before making changes.")
		}
		appCtx.Tracker = tr
	}

	runErr := kctx.Run(appCtx)
	closeErr := closeContext(appCtx)
	if runErr != nil {
		return runErr
	}
	return closeErr
}

func closeContext(appCtx *cli.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), constants.SnapshotSaveLimit+5*time.Second)
	defer cancel()

	switch {
	case appCtx.Tracker != nil:
		return appCtx.Tracker.Close(ctx)
	case appCtx.Gateway != nil:
		return appCtx.Gateway.Close()
	default:
		return nil
	}
}
