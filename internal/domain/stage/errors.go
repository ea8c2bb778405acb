package stage

import "errors"

// Sentinel error kinds for stage mapping.
var (
	ErrInvalidCap   = errors.New("invalid cap")
	ErrInvalidScore = errors.New("invalid score")
)
