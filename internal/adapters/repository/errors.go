package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidPage = errors.New("invalid page")
	ErrConstraint  = errors.New("constraint violation")
	ErrClosed      = errors.New("store closed")
)
