package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/storage"
	"github.com/julianstephens/habitt/internal/storage/storagetest"
	"github.com/julianstephens/habitt/internal/tracker"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := New(filepath.Join(t.TempDir(), "habitt.db"), time.UTC)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGateway(t *testing.T) {
	storagetest.RunGatewayTests(t, func(t *testing.T) storage.Gateway {
		return setupTestStore(t)
	})
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	store := New(path, time.UTC)
	defer store.Close()

	_, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok {
		t.Error("Load() reported data for a missing database")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Load() created the database file")
	}
}

func TestInitIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, storagetest.Fixture()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Init(ctx); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}

	snap, _, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	storagetest.AssertSnapshotsEqual(t, storagetest.Fixture(), snap)
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitt.db")
	ctx := context.Background()

	first := New(path, time.UTC)
	if err := first.Save(ctx, storagetest.Fixture()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	first.Close()

	second := New(path, time.UTC)
	defer second.Close()
	snap, ok, err := second.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load() ok=%v err=%v", ok, err)
	}
	storagetest.AssertSnapshotsEqual(t, storagetest.Fixture(), snap)
}

func TestDuplicateDayRejected(t *testing.T) {
	store := setupTestStore(t)

	snap := storagetest.Fixture()
	snap.HabitLogs = append(snap.HabitLogs, models.HabitLog{
		ID: "dup", HabitID: "h1", Date: time.Date(2024, 6, 3, 23, 0, 0, 0, time.UTC), CompletedValue: 1,
	})

	err := store.Save(context.Background(), snap)
	var pe *storage.PersistenceError
	if !errors.As(err, &pe) || pe.Op != "save" {
		t.Fatalf("Save() error = %v, want save PersistenceError", err)
	}

	// the failed transaction must leave no partial rows
	got, _, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("expected empty store after rolled back save, got %d habits", len(got.Habits))
	}
}

func TestDayKeyUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	store := New(filepath.Join(t.TempDir(), "habitt.db"), loc)
	defer store.Close()
	ctx := context.Background()

	// same UTC date, different local dates
	snap := models.Snapshot{
		Habits: []models.Habit{{ID: "h", Name: "x", WeekStartDate: "2024-06-03", CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), IsActive: true}},
		HabitLogs: []models.HabitLog{
			{ID: "a", HabitID: "h", Date: time.Date(2024, 6, 2, 1, 0, 0, 0, time.UTC), CompletedValue: 1},
			{ID: "b", HabitID: "h", Date: time.Date(2024, 6, 2, 20, 0, 0, 0, time.UTC), CompletedValue: 1},
		},
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var day string
	if err := store.DB().QueryRow("SELECT day FROM habit_logs WHERE id = 'b'").Scan(&day); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if day != "2024-06-03" {
		t.Errorf("day = %s, want 2024-06-03", day)
	}
}

func TestTableExists(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, table := range []string{"habits", "HABIT_LOGS", "timer_sessions", "schema_version"} {
		exists, err := store.tableExists(ctx, table)
		if err != nil {
			t.Fatalf("tableExists(%s) error = %v", table, err)
		}
		if !exists {
			t.Errorf("tableExists(%s) = false", table)
		}
	}

	exists, err := store.tableExists(ctx, "plans")
	if err != nil || exists {
		t.Errorf("tableExists(plans) = %v, %v", exists, err)
	}
}

func TestSchemaVersion(t *testing.T) {
	store := setupTestStore(t)

	current, latest, err := store.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if latest < 1 {
		t.Errorf("latest = %d, want at least 1", latest)
	}
	if current != latest {
		t.Errorf("current = %d, latest = %d after Init", current, latest)
	}
}

func TestLoadCorruptRows(t *testing.T) {
	tests := []struct {
		name   string
		tamper string
	}{
		{"habit created_at", "UPDATE habits SET created_at = 'garbage' WHERE id = 'h1'"},
		{"log timestamp", "UPDATE habit_logs SET logged_at = 'yesterday' WHERE id = 'l2'"},
		{"session start", "UPDATE timer_sessions SET start_time = '' WHERE id = 't2'"},
		{"session end", "UPDATE timer_sessions SET end_time = '9am' WHERE id = 't1'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			ctx := context.Background()
			if err := store.Save(ctx, storagetest.Fixture()); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if _, err := store.DB().Exec(tt.tamper); err != nil {
				t.Fatalf("tamper failed: %v", err)
			}

			_, _, err := store.Load(ctx)
			if !errors.Is(err, storage.ErrCorruptSnapshot) {
				t.Errorf("Load() error = %v, want ErrCorruptSnapshot", err)
			}
		})
	}
}

func TestTrackerRecoversFromCorruptRows(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	if err := store.Save(ctx, storagetest.Fixture()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := store.DB().Exec("UPDATE habits SET created_at = 'garbage' WHERE id = 'h1'"); err != nil {
		t.Fatal(err)
	}

	tr, err := tracker.Open(ctx, store)
	if err != nil {
		t.Fatalf("tracker.Open() error = %v, want fallback to an empty snapshot", err)
	}
	defer tr.Close(ctx)

	if !errors.Is(tr.RecoveredFrom(), storage.ErrCorruptSnapshot) {
		t.Errorf("RecoveredFrom() = %v", tr.RecoveredFrom())
	}
	if !tr.Snapshot().IsEmpty() {
		t.Error("tracker should start from an empty snapshot")
	}
}
