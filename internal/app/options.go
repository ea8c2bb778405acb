package service

import (
	"github.com/okian/marks/internal/adapters/mq/worker"
	"github.com/okian/marks/internal/adapters/repository"
	"github.com/okian/marks/internal/domain/caps"
	"github.com/okian/marks/pkg/logger"
)

// PipelineOption applies a configuration option to a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets the pipeline logger.
func WithPipelineLogger(l logger.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPool fans stage mapping out over pool for large datasets.
func WithPool(pool *worker.Pool) PipelineOption {
	return func(p *Pipeline) {
		p.pool = pool
	}
}

// WithParallelThreshold sets the dataset size from which the pool is used.
func WithParallelThreshold(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.parallelThreshold = n
		}
	}
}

// WithStageCache caches stage outputs per session and cap set.
func WithStageCache(store repository.Store) PipelineOption {
	return func(p *Pipeline) {
		p.cache = store
	}
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of mapping workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithParallelMappingThreshold sets the dataset size from which mapping runs
// on the worker pool.
func WithParallelMappingThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelThreshold = n
		}
	}
}

// WithStageCacheSize bounds the stage cache.
func WithStageCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.stageCacheSize = size
		}
	}
}

// WithDefaultPassingPercentage is used when a request carries none.
func WithDefaultPassingPercentage(p float64) Option {
	return func(s *Service) {
		s.defaultPercentage = p
	}
}

// WithDefaultCaps sets caps applied beneath request caps.
func WithDefaultCaps(c caps.Explicit) Option {
	return func(s *Service) {
		s.defaultCaps = c
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
