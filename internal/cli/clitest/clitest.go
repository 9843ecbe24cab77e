// Package clitest builds command contexts backed by an in-memory store.
package clitest

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/julianstephens/habitt/internal/backup"
	"github.com/julianstephens/habitt/internal/cli"
	"github.com/julianstephens/habitt/internal/config"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/state"
	"github.com/julianstephens/habitt/internal/storage"
	"github.com/julianstephens/habitt/internal/tracker"
)

// Now is the fixed clock of every test context: Tuesday 2024-06-04 18:00 UTC
var Now = time.Date(2024, 6, 4, 18, 0, 0, 0, time.UTC)

// Env is a command context plus handles to inspect it
type Env struct {
	Ctx   *cli.Context
	Out   *bytes.Buffer
	Store *storage.MemoryStore
	clock *atomic.Pointer[time.Time]
}

// New returns an Env whose tracker starts from seed
func New(t *testing.T, seed models.Snapshot) *Env {
	t.Helper()

	store := storage.NewMemoryStore()
	if !seed.IsEmpty() {
		if err := store.Save(context.Background(), seed); err != nil {
			t.Fatal(err)
		}
	}

	clock := &atomic.Pointer[time.Time]{}
	now := Now
	clock.Store(&now)
	var n atomic.Int64
	reducer := state.NewReducer(
		state.WithClock(func() time.Time { return *clock.Load() }),
		state.WithIDGenerator(func() string { return fmt.Sprintf("id-%04d", n.Add(1)) }),
		state.WithLocation(time.UTC),
	)

	tr, err := tracker.Open(context.Background(), store, tracker.WithReducer(reducer))
	if err != nil {
		t.Fatalf("tracker.Open() error = %v", err)
	}
	t.Cleanup(func() { tr.Close(context.Background()) })

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store = dir + "/habitt.json"
	cfg.Timezone = "UTC"

	var out bytes.Buffer
	return &Env{
		Ctx: &cli.Context{
			Config:     cfg,
			ConfigPath: dir + "/config.yaml",
			Gateway:    store,
			Tracker:    tr,
			Backups:    backup.NewManager(dir, 0, time.UTC),
			Out:        &out,
			In:         strings.NewReader(""),
			Loc:        time.UTC,
		},
		Out:   &out,
		Store: store,
		clock: clock,
	}
}

// SetNow moves the reducer clock
func (e *Env) SetNow(t time.Time) {
	e.clock.Store(&t)
}

// Stored loads what the gateway last saved
func (e *Env) Stored(t *testing.T) models.Snapshot {
	t.Helper()
	snap, _, err := e.Store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

// Habit returns a normalized habit in the 2024-06-03 week
func Habit(id, name string) models.Habit {
	return models.Habit{
		ID:            id,
		Name:          name,
		Color:         "#2196F3",
		Icon:          "🎯",
		CreatedAt:     time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC),
		WeekStartDate: "2024-06-03",
		IsActive:      true,
	}
}

// Day returns noon UTC on the given June 2024 day
func Day(d int) time.Time {
	return time.Date(2024, 6, d, 12, 0, 0, 0, time.UTC)
}
