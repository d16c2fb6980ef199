package prediction

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the Predictor.
var (
	// ErrEncodingMismatch means the encoded columns cannot be reconciled with
	// what the model expects.
	ErrEncodingMismatch = errors.New("encoding mismatch")
	// ErrModelFailure wraps any error raised while scoring.
	ErrModelFailure = errors.New("model failure")
)

// RecordError attributes a batch failure to one input record.
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
