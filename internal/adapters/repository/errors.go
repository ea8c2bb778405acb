package repository

import "errors"

// Sentinel kinds for stage store errors.
var (
	ErrNotFound = errors.New("stage output not found")
)
