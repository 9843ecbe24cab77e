package state

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitt/internal/models"
)

// Operation is one transition of the habit state machine. The set of
// operations is closed: only types declared in this package implement it.
type Operation interface {
	// Name identifies the operation in logs
	Name() string
	apply(r *Reducer, s models.Snapshot) (models.Snapshot, bool)
}

// Reducer applies operations to snapshots. It carries the clock, ID generator
// and reference location used for calendar-day comparisons, but never holds a
// snapshot itself, so one Reducer may be shared freely.
type Reducer struct {
	now   func() time.Time
	newID func() string
	loc   *time.Location
}

// Option configures a Reducer
type Option func(*Reducer)

// WithClock overrides the time source used for CreatedAt and default weeks
func WithClock(now func() time.Time) Option {
	return func(r *Reducer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides the generator used for new habit and log IDs
func WithIDGenerator(newID func() string) Option {
	return func(r *Reducer) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// WithLocation sets the timezone in which calendar days are compared
func WithLocation(loc *time.Location) Option {
	return func(r *Reducer) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// NewReducer creates a reducer using wall-clock time, random UUIDs and the
// local timezone unless overridden by opts.
func NewReducer(opts ...Option) *Reducer {
	r := &Reducer{
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the reference timezone for day comparisons
func (r *Reducer) Location() *time.Location {
	return r.loc
}

// Now returns the reducer's current time in its reference location
func (r *Reducer) Now() time.Time {
	return r.now().In(r.loc)
}

// Apply returns the snapshot produced by op. Operations that would violate an
// invariant, or that reference unknown IDs, return s unchanged.
func (r *Reducer) Apply(s models.Snapshot, op Operation) models.Snapshot {
	next, _ := r.Step(s, op)
	return next
}

// Step is Apply that also reports whether the snapshot changed.
func (r *Reducer) Step(s models.Snapshot, op Operation) (models.Snapshot, bool) {
	if op == nil {
		return s, false
	}
	return op.apply(r, s)
}

// Empty returns the initial snapshot with no entities
func Empty() models.Snapshot {
	return models.Snapshot{
		Habits:        []models.Habit{},
		HabitLogs:     []models.HabitLog{},
		TimerSessions: []models.TimerSession{},
	}
}
