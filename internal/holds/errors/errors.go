package errors

import "errors"

var (
	ErrNotFound = errors.New("hold not found")

	ErrInvalidID = errors.New("invalid hold ID format")

	// ErrDuplicateSlot is returned when the partial unique index on held slots rejects an insert.
	ErrDuplicateSlot = errors.New("slot already held")

	// ErrNotHeld means a conditional update matched no HELD, unexpired row.
	ErrNotHeld = errors.New("hold is no longer held")
)
