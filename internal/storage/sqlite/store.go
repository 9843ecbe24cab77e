package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitt/internal/logger"
	"github.com/julianstephens/habitt/internal/migration"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/storage"
	"github.com/julianstephens/habitt/migrations"
)

const backend = "sqlite"

// Store keeps snapshots in normalized SQLite tables
type Store struct {
	path     string
	loc      *time.Location
	db       *sql.DB
	migrated bool
}

// New returns a store for the database file at path. Log days are keyed in
// loc so the (habit, day) uniqueness constraint matches the reducer's.
func New(path string, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		path: path,
		loc:  loc,
	}
}

func (s *Store) Init(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return storage.Wrap("init", backend, fmt.Errorf("failed to create config directory: %w", err))
	}

	if err := s.open(ctx); err != nil {
		return storage.Wrap("init", backend, err)
	}

	if err := s.runMigrations(); err != nil {
		return storage.Wrap("init", backend, fmt.Errorf("failed to run migrations: %w", err))
	}
	s.migrated = true
	return nil
}

func (s *Store) Load(ctx context.Context) (models.Snapshot, bool, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return models.Snapshot{}, false, nil
	}
	if err := s.ensureReady(ctx); err != nil {
		return models.Snapshot{}, false, storage.Wrap("load", backend, err)
	}

	initialized, err := s.tableExists(ctx, "habits")
	if err != nil {
		return models.Snapshot{}, false, storage.Wrap("load", backend, err)
	}
	if !initialized {
		return models.Snapshot{}, false, nil
	}

	snap, err := s.readSnapshot(ctx)
	if err != nil {
		return models.Snapshot{}, false, storage.Wrap("load", backend, err)
	}
	return snap, true, nil
}

func (s *Store) Save(ctx context.Context, snap models.Snapshot) error {
	if !s.migrated {
		if err := s.Init(ctx); err != nil {
			return err
		}
	}
	return storage.Wrap("save", backend, s.writeSnapshot(ctx, snap))
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.migrated = false
		return err
	}
	return nil
}

func (s *Store) Describe() string {
	return s.path
}

// DB returns the underlying connection, or nil before Init/Load
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) open(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps the foreign_keys pragma in effect
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s.db = db
	return nil
}

// ensureReady opens an existing database and checks that its schema is not
// newer than this binary understands
func (s *Store) ensureReady(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	if err := s.open(ctx); err != nil {
		return err
	}
	return s.validateSchemaVersion()
}

// tableExists checks if a table exists in the SQLite database.
// The check is case-insensitive to match SQLite's behavior.
func (s *Store) tableExists(ctx context.Context, tableName string) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name COLLATE NOCASE = ?", tableName)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS, migration.DriverSQLite), nil
}

func (s *Store) runMigrations() error {
	runner, err := s.runner()
	if err != nil {
		return err
	}
	_, err = runner.ApplyMigrations(func(msg string) {
		logger.Debug(msg, "backend", backend)
	})
	return err
}

func (s *Store) validateSchemaVersion() error {
	runner, err := s.runner()
	if err != nil {
		return err
	}
	return runner.ValidateVersion()
}

// SchemaVersion reports the applied and the latest known migration version
func (s *Store) SchemaVersion(ctx context.Context) (current, latest int, err error) {
	if err := s.open(ctx); err != nil {
		return 0, 0, storage.Wrap("schema", backend, err)
	}
	runner, err := s.runner()
	if err != nil {
		return 0, 0, err
	}
	if current, err = runner.GetCurrentVersion(); err != nil {
		return 0, 0, storage.Wrap("schema", backend, err)
	}
	if latest, err = runner.GetLatestVersion(); err != nil {
		return 0, 0, err
	}
	return current, latest, nil
}
