package repository

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when an insert violates a uniqueness
	// constraint, e.g. two concurrent reaction inserts for the same
	// (author, reactable) pair.
	ErrDuplicateKey = errors.New("duplicate key")
)
