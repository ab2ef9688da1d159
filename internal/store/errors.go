package store

import "errors"

var (
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrInvalidWindow  = errors.New("window start must be before end")
	ErrDuplicateEmail = errors.New("email already registered")
)
