// Package service holds the grading session behind the HTTP API and the
// offline converter.
package service

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/marks/internal/adapters/mq/worker"
	"github.com/okian/marks/internal/adapters/repository"
	"github.com/okian/marks/internal/adapters/sheet"
	"github.com/okian/marks/internal/domain/caps"
	"github.com/okian/marks/internal/domain/model"
	"github.com/okian/marks/internal/domain/stage"
	"github.com/okian/marks/internal/domain/types"
	"github.com/okian/marks/pkg/logger"
	"github.com/okian/marks/pkg/metrics"
)

// Export stages.
const (
	ExportFirst  = stage.NameFirst
	ExportFinal  = stage.NameFinal
	ExportGrades = "grades"
	ExportAll    = "all"
)

// SessionInfo describes a loaded dataset.
type SessionInfo struct {
	ID         string             `json:"sessionId"`
	Records    int                `json:"records"`
	Headers    []string           `json:"headers"`
	HeaderCaps map[string]float64 `json:"headerCaps"`
	LoadedAt   time.Time          `json:"loadedAt"`
}

// Snapshot is the latest published state of the session. A failed run
// leaves the last good Result in place and marks it Stale.
type Snapshot struct {
	SessionID  string    `json:"sessionId"`
	Generation uint64    `json:"generation"`
	Result     *Result   `json:"result,omitempty"`
	Stale      bool      `json:"stale"`
	LastError  string    `json:"lastError,omitempty"`
	ErrorKind  string    `json:"errorKind,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type session struct {
	id       string
	headers  []string
	dataset  model.Dataset
	loadedAt time.Time

	// Parameters of the last successful run.
	lastCaps caps.Explicit
}

// Service owns one grading session at a time.
type Service struct {
	mu sync.RWMutex

	// Core components
	pipeline *Pipeline
	store    repository.Store
	pool     *worker.Pool

	// Configuration
	workerCount       int
	parallelThreshold int
	stageCacheSize    int
	defaultPercentage float64
	defaultCaps       caps.Explicit

	// State
	started    bool
	session    *session
	snapshot   Snapshot
	generation uint64
	published  uint64

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU(),
		parallelThreshold: defaultParallelThreshold,
		stageCacheSize:    16,
		defaultPercentage: 40,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the stage cache, the worker pool and the pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.store = repository.NewMemoryStore(repository.WithMaxEntries(s.stageCacheSize))
	s.pool = worker.NewPool(s.workerCount, worker.WithLogger(s.logger.Named("worker-pool")))
	s.pipeline = NewPipeline(
		WithPipelineLogger(s.logger.Named("pipeline")),
		WithPool(s.pool),
		WithParallelThreshold(s.parallelThreshold),
		WithStageCache(s.store),
	)

	s.started = true
	s.logger.Info(ctx, "grading service started",
		logger.Int("workers", s.workerCount),
		logger.Int("parallelThreshold", s.parallelThreshold),
		logger.Int("stageCacheSize", s.stageCacheSize),
	)
	return nil
}

// Stop drops the current session.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.dropSessionLocked(context.Background())
	s.started = false
	s.logger.Info(context.Background(), "grading service stopped")
}

// Load replaces the current session with a new dataset. Prior results and
// cached stages are discarded and in-flight runs can no longer publish.
func (s *Service) Load(ctx context.Context, headers []string, ds model.Dataset) (SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return SessionInfo{}, ErrNotStarted
	}
	s.dropSessionLocked(ctx)

	sess := &session{
		id:       uuid.NewString(),
		headers:  append([]string(nil), headers...),
		dataset:  ds.Clone(),
		loadedAt: time.Now(),
	}
	if sess.dataset == nil {
		sess.dataset = model.Dataset{}
	}
	s.session = sess
	s.snapshot = Snapshot{SessionID: sess.id, Generation: s.generation, UpdatedAt: sess.loadedAt}
	metrics.UpdateDatasetSize(len(sess.dataset))

	headerCaps := make(map[string]float64)
	for comp, v := range caps.FromHeaders(sess.headers) {
		headerCaps[comp.String()] = v
	}
	s.logger.Info(ctx, "dataset loaded",
		logger.String("session", sess.id),
		logger.Int("records", len(sess.dataset)),
		logger.Int("headerCaps", len(headerCaps)),
	)
	return SessionInfo{
		ID:         sess.id,
		Records:    len(sess.dataset),
		Headers:    sess.headers,
		HeaderCaps: headerCaps,
		LoadedAt:   sess.loadedAt,
	}, nil
}

// Clear drops the current session and its cached stages.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	s.dropSessionLocked(ctx)
	return nil
}

func (s *Service) dropSessionLocked(ctx context.Context) {
	if s.session != nil {
		removed := s.store.DeleteSession(ctx, s.session.id)
		s.logger.Debug(ctx, "session dropped",
			logger.String("session", s.session.id),
			logger.Int("cachedStages", removed),
		)
	}
	s.session = nil
	s.generation++
	s.published = s.generation
	s.snapshot = Snapshot{Generation: s.generation, UpdatedAt: time.Now()}
	metrics.UpdateDatasetSize(0)
}

// Convert runs the pipeline with explicit caps layered over the configured
// defaults. A nil percentage falls back to the default.
func (s *Service) Convert(ctx context.Context, explicit caps.Explicit, percentage *float64) (Snapshot, error) {
	s.mu.Lock()
	merged := explicit.Over(s.defaultCaps)
	s.mu.Unlock()

	return s.execute(ctx, func(*session) caps.Explicit { return merged }, percentage)
}

// Regrade re-runs with the caps of the last successful conversion, or the
// defaults when there was none. Stage outputs come from the cache.
func (s *Service) Regrade(ctx context.Context, percentage *float64) (Snapshot, error) {
	return s.execute(ctx, func(sess *session) caps.Explicit {
		if sess.lastCaps != nil {
			return sess.lastCaps
		}
		return maps.Clone(s.defaultCaps)
	}, percentage)
}

func (s *Service) execute(ctx context.Context, capsFor func(*session) caps.Explicit, percentage *float64) (Snapshot, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return Snapshot{}, ErrNotStarted
	}
	sess := s.session
	if sess == nil {
		s.mu.Unlock()
		return Snapshot{}, ErrEmptyDataset
	}
	s.generation++
	gen := s.generation
	explicit := capsFor(sess)
	p := s.defaultPercentage
	if percentage != nil {
		p = *percentage
	}
	pipeline := s.pipeline
	s.mu.Unlock()

	res, err := pipeline.Run(ctx, Input{
		SessionID:         sess.id,
		Dataset:           sess.dataset,
		Headers:           sess.headers,
		Caps:              explicit,
		PassingPercentage: p,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != sess || gen < s.published {
		s.logger.Debug(ctx, "discarding superseded run",
			logger.String("session", sess.id),
			logger.Int64("generation", int64(gen)),
		)
		return s.snapshot, fmt.Errorf("generation %d: %w", gen, ErrSuperseded)
	}
	s.published = gen

	now := time.Now()
	if err != nil {
		s.snapshot.Generation = gen
		s.snapshot.Stale = s.snapshot.Result != nil
		s.snapshot.LastError = err.Error()
		s.snapshot.ErrorKind = ErrorKind(err)
		s.snapshot.UpdatedAt = now
		return s.snapshot, err
	}

	sess.lastCaps = explicit
	s.snapshot = Snapshot{
		SessionID:  sess.id,
		Generation: gen,
		Result:     res,
		UpdatedAt:  now,
	}
	return s.snapshot, nil
}

// Snapshot returns the latest published state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Session returns the loaded session, or ErrEmptyDataset.
func (s *Service) Session() (SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return SessionInfo{}, ErrEmptyDataset
	}
	headerCaps := make(map[string]float64)
	for comp, v := range caps.FromHeaders(s.session.headers) {
		headerCaps[comp.String()] = v
	}
	return SessionInfo{
		ID:         s.session.id,
		Records:    len(s.session.dataset),
		Headers:    s.session.headers,
		HeaderCaps: headerCaps,
		LoadedAt:   s.session.loadedAt,
	}, nil
}

// Export returns the sheets of the latest current result for the given
// stage: first, final, grades or all.
func (s *Service) Export(_ context.Context, which string) ([]sheet.Sheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil, ErrEmptyDataset
	}
	if s.snapshot.Result == nil {
		return nil, ErrNoResult
	}
	if s.snapshot.Stale {
		return nil, fmt.Errorf("%w: %s", ErrStaleResult, s.snapshot.LastError)
	}
	return Sheets(s.snapshot.Result, which)
}

// Sheets converts res into export sheets for the given stage.
func Sheets(res *Result, which string) ([]sheet.Sheet, error) {
	first := sheet.Sheet{Name: sheet.NameFirst, Rows: types.Rows(res.First)}
	final := sheet.Sheet{Name: sheet.NameFinal, Rows: types.Rows(res.Final)}
	grades := sheet.Sheet{Name: sheet.NameGrades, Rows: types.GradedRows(res.Graded), Graded: true}

	switch which {
	case ExportFirst:
		return []sheet.Sheet{first}, nil
	case ExportFinal:
		return []sheet.Sheet{final}, nil
	case ExportGrades:
		return []sheet.Sheet{grades}, nil
	case ExportAll:
		return []sheet.Sheet{first, final, grades}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, which)
	}
}

// Template returns an upload template whose headers carry the default caps.
func (s *Service) Template() sheet.Sheet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var set model.CapSet
	for comp, v := range s.defaultCaps {
		set[comp] = v
	}
	return sheet.Template(set)
}

// DefaultPassingPercentage returns the percentage used when none is given.
func (s *Service) DefaultPassingPercentage() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultPercentage
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"workerCount":       s.workerCount,
		"parallelThreshold": s.parallelThreshold,
		"stageCacheSize":    s.stageCacheSize,
		"generation":        s.generation,
		"hasSession":        s.session != nil,
		"hasResult":         s.snapshot.Result != nil,
		"stale":             s.snapshot.Stale,
	}

	if s.started {
		stats["stageCacheEntries"] = s.store.Len(context.Background())
	}
	if s.session != nil {
		stats["sessionId"] = s.session.id
		stats["records"] = len(s.session.dataset)
	}
	if s.snapshot.ErrorKind != "" {
		stats["lastErrorKind"] = s.snapshot.ErrorKind
	}
	return stats
}
