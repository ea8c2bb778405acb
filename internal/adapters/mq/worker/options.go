package worker

import "github.com/okian/marks/pkg/logger"

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used by the pool and its workers.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithChunkSize fixes the number of records per job. By default jobs are
// sized from the record count and pool size.
func WithChunkSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.chunk = n
		}
	}
}
