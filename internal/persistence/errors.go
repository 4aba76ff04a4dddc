package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrConstraintViolation is returned when a check constraint is violated.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrConflict is returned when an insert would overlap an active
	// reservation on the same room.
	ErrConflict = errors.New("persistence: reservation conflict")
)

// ConflictError identifies the active reservation that blocked an insert. It
// matches ErrConflict under errors.Is.
type ConflictError struct {
	ConflictingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("persistence: reservation conflicts with %s", e.ConflictingID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
