package storage

import (
	"errors"
	"fmt"
)

// ErrCorruptSnapshot is returned by Load when stored content cannot be
// decoded into entities.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// PersistenceError wraps a gateway failure with the operation and backend it
// came from.
type PersistenceError struct {
	Op      string // "load", "save", "init"
	Backend string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Wrap returns err wrapped in a PersistenceError, or nil when err is nil.
// An error that already is a PersistenceError is returned unchanged.
func Wrap(op, backend string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Backend: backend, Err: err}
}

// Corrupt reports stored content that cannot be decoded. The result matches
// ErrCorruptSnapshot.
func Corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptSnapshot, fmt.Sprintf(format, args...))
}
