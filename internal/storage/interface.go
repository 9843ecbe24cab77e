package storage

import (
	"context"

	"github.com/julianstephens/habitt/internal/models"
)

// Gateway persists whole snapshots. Implementations must be safe for use by
// one writer and any number of readers.
type Gateway interface {
	// Init prepares an empty store (directories, schema). Calling it on an
	// initialized store is not an error.
	Init(ctx context.Context) error
	// Load returns the stored snapshot. The bool is false when nothing has
	// been saved yet; undecodable content yields ErrCorruptSnapshot.
	Load(ctx context.Context) (models.Snapshot, bool, error)
	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap models.Snapshot) error
	Close() error
	// Describe returns a non-sensitive identifier of the store for display.
	Describe() string
}
