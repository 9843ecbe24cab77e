package storage

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/habitt/internal/models"
)

// MemoryStore holds the encoded snapshot in memory. It round-trips through
// the wire codec so callers observe the same normalization as on disk.
type MemoryStore struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	saveErr error
	loadErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWithData seeds the store with raw document bytes
func NewMemoryStoreWithData(data []byte) *MemoryStore {
	return &MemoryStore{data: append([]byte(nil), data...)}
}

func (m *MemoryStore) Init(context.Context) error { return nil }

func (m *MemoryStore) Load(ctx context.Context) (models.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return models.Snapshot{}, false, Wrap("load", "memory", m.loadErr)
	}
	if m.data == nil {
		return models.Snapshot{}, false, nil
	}
	snap, err := DecodeSnapshot(m.data, time.UTC)
	if err != nil {
		return models.Snapshot{}, false, Wrap("load", "memory", err)
	}
	return snap, true, nil
}

func (m *MemoryStore) Save(ctx context.Context, snap models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return Wrap("save", "memory", m.saveErr)
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return Wrap("save", "memory", err)
	}
	m.data = data
	m.saves++
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Describe() string { return "memory" }

// SetSaveError makes subsequent saves fail with err; nil restores them
func (m *MemoryStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// SetLoadError makes subsequent loads fail with err; nil restores them
func (m *MemoryStore) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// Saves returns the number of successful saves
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Bytes returns a copy of the stored document
func (m *MemoryStore) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}
