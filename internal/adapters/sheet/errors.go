package sheet

import (
	"errors"
)

// Sentinel error kinds for this package.
var (
	ErrUnsupportedFormat = errors.New("unsupported sheet format")
	ErrDecode            = errors.New("decode sheet failed")
	ErrEncode            = errors.New("encode sheet failed")
	ErrNoSheets          = errors.New("no sheets to encode")
)
