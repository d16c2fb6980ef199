package model

import "errors"

// Sentinel errors for model loading and scoring.
var (
	// ErrModelUnavailable means the artifact could not be read, parsed or validated.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrDimension means an input row does not match the model's width.
	ErrDimension = errors.New("feature dimension mismatch")
)
