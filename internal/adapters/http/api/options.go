package api

import (
	"time"

	"github.com/okian/marks/pkg/logger"
)

const defaultMaxUploadBytes = 10 << 20

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxUploadBytes bounds POST /datasets bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for download names.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}
