package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	// ErrReferenced is returned when a row is still referenced by another.
	ErrReferenced = errors.New("still referenced")
)
