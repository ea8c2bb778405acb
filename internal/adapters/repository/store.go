// Package repository caches stage mapping outputs so that a threshold change
// only re-runs gating and grading.
package repository

import (
	"context"

	"github.com/okian/marks/internal/domain/model"
)

// Key identifies the stage outputs of one dataset under one cap set.
type Key struct {
	SessionID string
	Caps      model.CapSet
}

// Stages holds both mapped datasets for a key.
type Stages struct {
	First model.Dataset
	Final model.Dataset
}

// Store provides access to cached stage outputs.
type Store interface {
	// Get returns the cached stages for key or ErrNotFound.
	Get(ctx context.Context, key Key) (Stages, error)

	// Put stores stages for key, evicting the oldest entry when full.
	Put(ctx context.Context, key Key, stages Stages) error

	// DeleteSession drops every entry belonging to sessionID.
	DeleteSession(ctx context.Context, sessionID string) int

	// Len returns the number of cached entries.
	Len(ctx context.Context) int
}
