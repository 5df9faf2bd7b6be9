package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a write violates a uniqueness or
	// state constraint (duplicate registration, second ongoing trip,
	// append to a finished trip).
	ErrConflict = errors.New("constraint conflict")

	// ErrUnavailable is returned when the backing store cannot be
	// reached. Callers surface it distinctly so transport can retry.
	ErrUnavailable = errors.New("store unavailable")
)
