// Package queue holds the pending record ranges of one parallel mapping.
//
// A job covers a half-open range of record positions. Workers read and
// write records by position, so results land in input order whatever order
// the jobs finish in.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/marks/pkg/metrics"
)

// Job is the range [Start, End) of record positions.
type Job struct {
	Start int
	End   int
}

// Size returns the number of records the job covers.
func (j Job) Size() int { return j.End - j.Start }

// Split cuts [0, n) into consecutive jobs of at most size records.
func Split(n, size int) []Job {
	if n <= 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}
	jobs := make([]Job, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		jobs = append(jobs, Job{Start: start, End: min(start+size, n)})
	}
	return jobs
}

// Queue delivers jobs to workers.
type Queue interface {
	// Push adds a job. It returns ErrFull or ErrClosed when the job was
	// not accepted.
	Push(ctx context.Context, j Job) error

	// Jobs returns the delivery channel. It is closed by Close once
	// drained.
	Jobs() <-chan Job

	// Pending returns the number of undelivered jobs.
	Pending() int

	// Close stops accepting jobs.
	Close()
}

// Buffered is a fixed-capacity Queue backed by a channel.
type Buffered struct {
	mu     sync.RWMutex
	jobs   chan Job
	closed bool
}

// NewBuffered returns a queue that holds up to capacity jobs.
func NewBuffered(capacity int) *Buffered {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffered{jobs: make(chan Job, capacity)}
}

// Load returns a closed queue already holding jobs, ready to be drained.
func Load(ctx context.Context, jobs []Job) (*Buffered, error) {
	q := NewBuffered(len(jobs))
	defer q.Close()
	for _, j := range jobs {
		if err := q.Push(ctx, j); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// Push implements Queue without blocking.
func (q *Buffered) Push(ctx context.Context, j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("push [%d,%d): %w", j.Start, j.End, err)
	}

	select {
	case q.jobs <- j:
		return nil
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Jobs implements Queue.
func (q *Buffered) Jobs() <-chan Job { return q.jobs }

// Pending implements Queue.
func (q *Buffered) Pending() int { return len(q.jobs) }

// Close implements Queue. Closing twice is a no-op.
func (q *Buffered) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
}
