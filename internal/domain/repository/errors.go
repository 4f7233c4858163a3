package repository

import "errors"

// Storage-level errors. Implementations wrap driver errors into one of these.
var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicate   = errors.New("duplicate")
	ErrUnavailable = errors.New("storage unavailable")
)
