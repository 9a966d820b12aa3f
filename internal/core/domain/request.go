package domain

import "errors"

// ErrDuplicateRequest is returned when an idempotency key has already been used.
var ErrDuplicateRequest = errors.New("duplicate request")
