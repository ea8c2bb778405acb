// Package worker maps record positions across a fixed set of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/marks/internal/adapters/mq/queue"
	"github.com/okian/marks/pkg/logger"
	"github.com/okian/marks/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	jobsPerWorker           = 4
	minChunk                = 64
)

// Handler processes the record at index. Handlers for different indices run
// concurrently and must only write to their own slot.
type Handler func(ctx context.Context, index int) error

// Pool runs a fixed number of workers per Map call.
type Pool struct {
	size   int
	chunk  int
	logger logger.Logger
}

// NewPool creates a pool of size workers. A size below one defaults to twice
// the CPU count.
func NewPool(size int, opts ...Option) *Pool {
	if size < 1 {
		size = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{size: size}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}
	metrics.UpdateWorkerCount(size)
	return p
}

// Size returns the number of workers used per Map call.
func (p *Pool) Size() int { return p.size }

// chunkSize spreads n records over roughly jobsPerWorker jobs per worker.
func (p *Pool) chunkSize(n int) int {
	if p.chunk > 0 {
		return p.chunk
	}
	c := n / (p.size * jobsPerWorker)
	return max(c, min(minChunk, n))
}

// Map calls handle once for every index in [0, n) and waits for all workers.
// The first error cancels the remaining jobs and is returned.
func (p *Pool) Map(ctx context.Context, n int, handle Handler) error {
	if n <= 0 {
		return nil
	}
	jobs := queue.Split(n, p.chunkSize(n))
	q, err := queue.Load(ctx, jobs)
	if err != nil {
		return fmt.Errorf("schedule %d records: %w", n, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for i, workers := 0, min(p.size, len(jobs)); i < workers; i++ {
		name := "worker-" + strconv.Itoa(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.drain(runCtx, name, q, handle); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// drain runs jobs from q until it is empty, ctx ends or a handler fails.
func (p *Pool) drain(ctx context.Context, name string, q queue.Queue, handle Handler) error {
	for job := range q.Jobs() {
		start := time.Now()
		for i := job.Start; i < job.End; i++ {
			if err := ctx.Err(); err != nil {
				return err //nolint:wrapcheck // cancellation is reported as is
			}
			if err := handle(ctx, i); err != nil {
				metrics.RecordErrorByComponent("worker", "handler_error")
				p.logger.Debug(ctx, "record failed",
					logger.String("worker", name),
					logger.Int("index", i),
					logger.Error(err),
				)
				return fmt.Errorf("%s: record %d: %w", name, i, err)
			}
		}
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000 / float64(job.Size()))
	}
	return nil
}
