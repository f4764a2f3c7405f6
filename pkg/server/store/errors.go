package store

import "errors"

// ErrNotFound is returned when a record doesn't exist or is soft deleted.
var ErrNotFound = errors.New("record not found")
