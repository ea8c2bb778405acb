package service

import (
	"context"
	"errors"

	"github.com/okian/marks/internal/adapters/sheet"
	"github.com/okian/marks/internal/domain/caps"
	"github.com/okian/marks/internal/domain/gate"
	"github.com/okian/marks/internal/domain/stage"
)

// Sentinel error kinds for this package.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrEmptyDataset = errors.New("no dataset loaded")
	ErrNoResult     = errors.New("no conversion result")
	ErrStaleResult  = errors.New("result is stale")
	ErrSuperseded   = errors.New("run superseded by a newer run")
	ErrUnknownStage = errors.New("unknown export stage")
)

// Error kinds reported in snapshots, metrics and API responses.
const (
	KindIncompleteCaps    = "incomplete_caps"
	KindInvalidCap        = "invalid_cap"
	KindInvalidThreshold  = "invalid_threshold"
	KindInvalidScore      = "invalid_score"
	KindEmptyDataset      = "empty_dataset"
	KindNoResult          = "no_result"
	KindStaleResult       = "stale_result"
	KindSuperseded        = "superseded"
	KindUnsupportedFormat = "unsupported_format"
	KindNotStarted        = "not_started"
	KindCancelled         = "cancelled"
	KindInternal          = "internal"
)

// ErrorKind classifies err by the sentinel it wraps.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, caps.ErrIncompleteCaps):
		return KindIncompleteCaps
	case errors.Is(err, stage.ErrInvalidCap):
		return KindInvalidCap
	case errors.Is(err, gate.ErrInvalidThreshold):
		return KindInvalidThreshold
	case errors.Is(err, stage.ErrInvalidScore):
		return KindInvalidScore
	case errors.Is(err, ErrNotStarted):
		return KindNotStarted
	case errors.Is(err, ErrEmptyDataset):
		return KindEmptyDataset
	case errors.Is(err, ErrNoResult):
		return KindNoResult
	case errors.Is(err, ErrStaleResult):
		return KindStaleResult
	case errors.Is(err, ErrSuperseded):
		return KindSuperseded
	case errors.Is(err, sheet.ErrUnsupportedFormat), errors.Is(err, ErrUnknownStage):
		return KindUnsupportedFormat
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindInternal
	}
}
