package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/habitt/internal/storage"
	"github.com/julianstephens/habitt/internal/storage/storagetest"
)

func TestJSONStoreGateway(t *testing.T) {
	storagetest.RunGatewayTests(t, func(t *testing.T) storage.Gateway {
		return storage.NewJSONStore(filepath.Join(t.TempDir(), "habitt.json"), time.UTC)
	})
}

func TestJSONStoreInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "habitt.json")
	store := storage.NewJSONStore(path, time.UTC)
	ctx := context.Background()

	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("store file not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	if err := store.Save(ctx, storagetest.Fixture()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	// a second Init must keep existing data
	if err := store.Init(ctx); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	snap, ok, err := store.Load(ctx)
	if err != nil || !ok || len(snap.Habits) != 2 {
		t.Errorf("Load() after re-init = %d habits, ok=%v, err=%v", len(snap.Habits), ok, err)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the store file in the directory, found %d entries", len(entries))
	}
}

func TestJSONStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	_, _, err := storage.NewJSONStore(path, time.UTC).Load(context.Background())
	if !errors.Is(err, storage.ErrCorruptSnapshot) {
		t.Fatalf("Load() error = %v, want ErrCorruptSnapshot", err)
	}
	var pe *storage.PersistenceError
	if !errors.As(err, &pe) || pe.Op != "load" {
		t.Errorf("Load() error should be a load PersistenceError, got %v", err)
	}
}

func TestJSONStoreCanceledContext(t *testing.T) {
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "habitt.json"), time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Save(ctx, storagetest.Fixture()); !errors.Is(err, context.Canceled) {
		t.Errorf("Save() error = %v, want context.Canceled", err)
	}
}

func TestMemoryStore(t *testing.T) {
	storagetest.RunGatewayTests(t, func(t *testing.T) storage.Gateway {
		return storage.NewMemoryStore()
	})

	m := storage.NewMemoryStore()
	m.SetSaveError(errors.New("quota exceeded"))
	err := m.Save(context.Background(), storagetest.Fixture())
	var pe *storage.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("Save() error = %v, want PersistenceError", err)
	}
	if m.Saves() != 0 {
		t.Errorf("Saves() = %d after failure", m.Saves())
	}

	corrupt := storage.NewMemoryStoreWithData([]byte("garbage"))
	if _, _, err := corrupt.Load(context.Background()); !errors.Is(err, storage.ErrCorruptSnapshot) {
		t.Errorf("Load() error = %v, want ErrCorruptSnapshot", err)
	}
}
