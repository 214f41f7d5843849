package domain

import "errors"

var (
	// ErrValidation marks malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown session.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolation marks a rejected write: unknown session reference or bad sender.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrStorage marks an I/O failure of the store.
	ErrStorage = errors.New("storage error")
)
