package backups

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitt/internal/cli"
	"github.com/julianstephens/habitt/internal/storage"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
	List    BackupListCmd    `cmd:"" help:"List available backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	backupPath, err := ctx.Backups.CreateBackup(ctx.Snapshot())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	ctx.Printf("%s Backup created: %s\n", cli.SuccessStyle.Render("✓"), filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Backups
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", mgr.GetBackupDir())
		return nil
	}

	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), mgr.MaxBackups())
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		timestamp := b.Timestamp.Format("2006-01-02 15:04:05")
		ctx.Printf("  %s  %s  (%.1f KB)\n", timestamp, filepath.Base(b.Path), sizeKB)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.GetBackupDir())

	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Backups
	backupPath, err := mgr.Resolve(c.BackupFile)
	if err != nil {
		return err
	}

	if !c.Yes {
		ctx.Println(cli.WarningStyle.Render("WARNING: This will replace all habits, logs and timer sessions with the backup."))
		ctx.Println("A backup of the current state will be created before restoring.")
		ctx.Printf("\nRestore from: %s\n", backupPath)
		ok, err := ctx.Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	snap, err := mgr.RestoreBackup(backupPath, ctx.Snapshot())
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	restored, err := ctx.Replace(snap)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	ctx.Printf("%s Restored %d habit(s), %d log(s) and %d timer session(s)\n", cli.SuccessStyle.Render("✓"),
		len(restored.Habits), len(restored.HabitLogs), len(restored.TimerSessions))
	return nil
}

type ExportCmd struct {
	File string `arg:"" help:"Destination file, or - for stdout."`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	data, err := storage.EncodeSnapshot(ctx.Snapshot())
	if err != nil {
		return err
	}

	if c.File == "-" {
		ctx.Printf("%s\n", data)
		return nil
	}
	if err := os.WriteFile(c.File, data, 0600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	ctx.Printf("%s Exported to %s\n", cli.SuccessStyle.Render("✓"), c.File)
	return nil
}

type ImportCmd struct {
	File string `arg:"" help:"Exported JSON file, or - for stdin."`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	var (
		data []byte
		err  error
	)
	if c.File == "-" {
		data, err = io.ReadAll(ctx.Input())
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return fmt.Errorf("failed to read import: %w", err)
	}

	snap, err := storage.DecodeSnapshot(data, ctx.Location())
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if !c.Yes && !ctx.Snapshot().IsEmpty() && c.File != "-" {
		ok, err := ctx.Confirm(fmt.Sprintf("Replace the current state with %d habit(s) from %s?", len(snap.Habits), c.File))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Import cancelled.")
			return nil
		}
	}

	ctx.PerformAutomaticBackup()
	imported, err := ctx.Replace(snap)
	if err != nil {
		return err
	}

	ctx.Printf("%s Imported %d habit(s), %d log(s) and %d timer session(s)\n", cli.SuccessStyle.Render("✓"),
		len(imported.Habits), len(imported.HabitLogs), len(imported.TimerSessions))
	return nil
}
