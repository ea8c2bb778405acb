package caps

import "errors"

// Sentinel error kinds for cap resolution.
var (
	ErrIncompleteCaps = errors.New("incomplete caps")
)
