// Package tracker owns the live snapshot of a running session. Mutations are
// applied in order under a mutex and persisted in the background.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/logger"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/state"
	"github.com/julianstephens/habitt/internal/storage"
)

// Tracker serializes mutations and publishes each resulting snapshot.
// Readers never block: Snapshot returns the latest published value.
type Tracker struct {
	mu       sync.Mutex
	reducer  *state.Reducer
	gateway  storage.Gateway
	current  atomic.Pointer[models.Snapshot]
	saver    *saver
	loaded   bool
	recovery error
}

// Option configures a Tracker
type Option func(*options)

type options struct {
	reducer     *state.Reducer
	onSaveError func(error)
	saveTimeout time.Duration
}

// WithReducer sets the reducer; the default uses wall-clock time in time.Local
func WithReducer(r *state.Reducer) Option {
	return func(o *options) { o.reducer = r }
}

// WithOnSaveError registers a callback invoked from the saver goroutine
// after each failed save
func WithOnSaveError(fn func(error)) Option {
	return func(o *options) { o.onSaveError = fn }
}

// WithSaveTimeout bounds each background save
func WithSaveTimeout(d time.Duration) Option {
	return func(o *options) { o.saveTimeout = d }
}

// Open loads the stored snapshot through gw and starts the background saver.
// A corrupt snapshot is logged and replaced by an empty one; any other load
// failure is returned.
func Open(ctx context.Context, gw storage.Gateway, opts ...Option) (*Tracker, error) {
	o := options{saveTimeout: constants.SnapshotSaveLimit}
	for _, opt := range opts {
		opt(&o)
	}
	if o.reducer == nil {
		o.reducer = state.NewReducer()
	}

	t := &Tracker{
		reducer: o.reducer,
		gateway: gw,
	}
	initial := state.Empty()
	t.current.Store(&initial)

	snap, ok, err := gw.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrCorruptSnapshot):
		logger.Named("tracker").Warn("Stored snapshot is corrupt, starting empty", "store", gw.Describe(), "error", err)
		t.recovery = err
	case err != nil:
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	case ok:
		t.Dispatch(state.LoadState{Snapshot: snap})
		t.loaded = true
	}

	t.saver = newSaver(gw, o.saveTimeout, o.onSaveError)
	return t, nil
}

// Snapshot returns the current snapshot. It must be treated as read-only.
func (t *Tracker) Snapshot() models.Snapshot {
	return *t.current.Load()
}

// Reducer returns the reducer used for mutations
func (t *Tracker) Reducer() *state.Reducer {
	return t.reducer
}

// Location returns the timezone in which calendar days are compared
func (t *Tracker) Location() *time.Location {
	return t.reducer.Location()
}

// Loaded reports whether Open found a stored snapshot
func (t *Tracker) Loaded() bool {
	return t.loaded
}

// RecoveredFrom returns the corruption error Open recovered from, if any
func (t *Tracker) RecoveredFrom() error {
	return t.recovery
}

// Dispatch applies op to the current snapshot and publishes the result. A
// changed snapshot is queued for saving unless op is a LoadState. Dispatch
// never waits for persistence.
func (t *Tracker) Dispatch(op state.Operation) (models.Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, changed := t.reducer.Step(*t.current.Load(), op)
	if !changed {
		logger.Named("tracker").Debug("Operation left snapshot unchanged", "op", opName(op))
		return next, false
	}

	t.current.Store(&next)
	logger.Named("tracker").Debug("Applied operation", "op", op.Name(),
		"habits", len(next.Habits), "logs", len(next.HabitLogs), "sessions", len(next.TimerSessions))

	if _, isLoad := op.(state.LoadState); !isLoad && t.saver != nil {
		t.saver.enqueue(next)
	}
	return next, true
}

// Replace swaps in snap, normalized like a load, and persists it. Import and
// restore go through here since a plain LoadState dispatch is never saved.
func (t *Tracker) Replace(snap models.Snapshot) models.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.reducer.Apply(*t.current.Load(), state.LoadState{Snapshot: snap})
	t.current.Store(&next)
	logger.Named("tracker").Info("Replaced snapshot", "habits", len(next.Habits), "logs", len(next.HabitLogs))
	if t.saver != nil {
		t.saver.enqueue(next)
	}
	return next
}

// Flush waits until every queued snapshot has been written and returns the
// error of the most recent save, if it failed.
func (t *Tracker) Flush(ctx context.Context) error {
	return t.saver.flush(ctx)
}

// LastSaveError returns the error of the most recent save attempt, or nil
// when it succeeded
func (t *Tracker) LastSaveError() error {
	return t.saver.lastError()
}

// Close flushes pending saves, stops the saver and closes the gateway
func (t *Tracker) Close(ctx context.Context) error {
	flushErr := t.saver.flush(ctx)
	t.saver.stop()
	closeErr := t.gateway.Close()
	return errors.Join(flushErr, closeErr)
}

func opName(op state.Operation) string {
	if op == nil {
		return "<nil>"
	}
	return op.Name()
}
