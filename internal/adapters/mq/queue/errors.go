package queue

import "errors"

var (
	// ErrClosed is returned by Push after Close.
	ErrClosed = errors.New("queue closed")
	// ErrFull is returned by Push when the buffer has no room.
	ErrFull = errors.New("queue full")
)
