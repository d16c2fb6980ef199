package features

import "errors"

// ErrInvalidSchema reports an unreadable or inconsistent encoding schema.
var ErrInvalidSchema = errors.New("invalid encoding schema")
