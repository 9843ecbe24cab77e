// Package badger stores snapshots as a single wire document in a BadgerDB
// key-value store.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"

	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/storage"
)

const backend = "badger"

var savedAtKey = []byte(constants.SnapshotBlobKey + ":saved_at")

// Config controls how the database is opened
type Config struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in memory; used by tests.
	InMemory bool

	SyncWrites bool

	// Logger receives BadgerDB's internal messages. Nil disables them.
	Logger *log.Logger

	// GCInterval is how often value log garbage collection runs; 0 disables it.
	GCInterval     time.Duration
	GCDiscardRatio float64

	// Location keys date-only values when decoding documents.
	Location *time.Location
}

func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

func InMemoryConfig() Config {
	return Config{
		InMemory:   true,
		SyncWrites: false,
	}
}

// badgerLogger adapts a charmbracelet logger to badger.Logger
type badgerLogger struct {
	logger *log.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// Store implements storage.Gateway on top of BadgerDB
type Store struct {
	cfg  Config
	db   *badger.DB
	gc   *gcRunner
	loc  *time.Location
	opts badger.Options
}

func New(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Store{cfg: cfg, loc: loc, opts: opts}, nil
}

func (s *Store) open() error {
	if s.db != nil {
		return nil
	}
	if !s.cfg.InMemory {
		if err := os.MkdirAll(s.cfg.Path, 0700); err != nil {
			return fmt.Errorf("create database directory %s: %w", s.cfg.Path, err)
		}
	}

	db, err := badger.Open(s.opts)
	if err != nil {
		return fmt.Errorf("open badger database: %w", err)
	}
	s.db = db

	if s.cfg.GCInterval > 0 && !s.cfg.InMemory {
		s.gc = newGCRunner(db, s.cfg.GCInterval, s.cfg.GCDiscardRatio, s.cfg.Logger)
		s.gc.start()
	}
	return nil
}

func (s *Store) Init(ctx context.Context) error {
	return storage.Wrap("init", backend, s.open())
}

func (s *Store) Load(ctx context.Context) (models.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, false, err
	}
	if !s.cfg.InMemory {
		if _, err := os.Stat(s.cfg.Path); errors.Is(err, os.ErrNotExist) {
			return models.Snapshot{}, false, nil
		}
	}
	if err := s.open(); err != nil {
		return models.Snapshot{}, false, storage.Wrap("load", backend, err)
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(constants.SnapshotBlobKey))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Snapshot{}, false, nil
	}
	if err != nil {
		return models.Snapshot{}, false, storage.Wrap("load", backend, err)
	}

	snap, err := storage.DecodeSnapshot(data, s.loc)
	if err != nil {
		return models.Snapshot{}, false, storage.Wrap("load", backend, err)
	}
	return snap, true, nil
}

func (s *Store) Save(ctx context.Context, snap models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.open(); err != nil {
		return storage.Wrap("save", backend, err)
	}

	data, err := storage.EncodeSnapshot(snap)
	if err != nil {
		return storage.Wrap("save", backend, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(constants.SnapshotBlobKey), data); err != nil {
			return err
		}
		stamp, err := time.Now().UTC().MarshalText()
		if err != nil {
			return err
		}
		return txn.Set(savedAtKey, stamp)
	})
	return storage.Wrap("save", backend, err)
}

// SavedAt returns when the snapshot was last written, or the zero time
func (s *Store) SavedAt() (time.Time, error) {
	if err := s.open(); err != nil {
		return time.Time{}, err
	}

	var savedAt time.Time
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(savedAtKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return savedAt.UnmarshalText(val)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return time.Time{}, nil
	}
	return savedAt, err
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if s.gc != nil {
		s.gc.stop()
		s.gc = nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Describe() string {
	if s.cfg.InMemory {
		return "badger (in-memory)"
	}
	return s.cfg.Path
}
