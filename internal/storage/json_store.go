package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/habitt/internal/models"
)

// JSONStore keeps the whole snapshot as one wire document on disk
type JSONStore struct {
	path string
	loc  *time.Location
}

func NewJSONStore(path string, loc *time.Location) *JSONStore {
	if loc == nil {
		loc = time.Local
	}
	return &JSONStore{
		path: path,
		loc:  loc,
	}
}

func (s *JSONStore) Init(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return Wrap("init", "json", fmt.Errorf("failed to create config directory: %w", err))
	}

	if _, err := os.Stat(s.path); err == nil {
		return nil
	}

	return Wrap("init", "json", s.write(models.Snapshot{}))
}

func (s *JSONStore) Load(ctx context.Context) (models.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, false, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Snapshot{}, false, nil
		}
		return models.Snapshot{}, false, Wrap("load", "json", fmt.Errorf("failed to read storage: %w", err))
	}

	snap, err := DecodeSnapshot(data, s.loc)
	if err != nil {
		return models.Snapshot{}, false, Wrap("load", "json", err)
	}
	return snap, true, nil
}

func (s *JSONStore) Save(ctx context.Context, snap models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return Wrap("save", "json", s.write(snap))
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) Describe() string {
	return s.path
}

// write replaces the file atomically through a temp file in the same directory
func (s *JSONStore) write(snap models.Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".habitt-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	return nil
}
