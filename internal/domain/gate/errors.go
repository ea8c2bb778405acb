package gate

import "errors"

// Sentinel error kinds for the passing gate.
var (
	ErrInvalidThreshold = errors.New("invalid passing threshold")
)
