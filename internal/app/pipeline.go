package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/marks/internal/adapters/mq/worker"
	"github.com/okian/marks/internal/adapters/repository"
	"github.com/okian/marks/internal/domain/caps"
	"github.com/okian/marks/internal/domain/gate"
	"github.com/okian/marks/internal/domain/grading"
	"github.com/okian/marks/internal/domain/model"
	"github.com/okian/marks/internal/domain/stage"
	"github.com/okian/marks/internal/domain/types"
	"github.com/okian/marks/pkg/logger"
	"github.com/okian/marks/pkg/metrics"
)

const defaultParallelThreshold = 2_000

// Input is everything one grading run needs.
type Input struct {
	// SessionID keys the stage cache. Empty disables caching.
	SessionID         string
	Dataset           model.Dataset
	Headers           []string
	Caps              caps.Explicit
	PassingPercentage float64
}

// Result is the complete output of one run. It is never mutated after Run
// returns.
type Result struct {
	Caps              model.CapSet          `json:"-"`
	PassingPercentage float64               `json:"passingPercentage"`
	First             model.Dataset         `json:"-"`
	Final             model.Dataset         `json:"-"`
	Graded            []model.GradedRecord  `json:"-"`
	Stats             types.Stats           `json:"stats"`
	Distribution      map[model.Grade]int   `json:"distribution"`
	Violations        []caps.Violation      `json:"violations"`
	Summary           []types.ColumnSummary `json:"summary"`
	CacheHit          bool                  `json:"cacheHit"`
}

// Pipeline runs cap resolution, both stage mappings, gating and grading.
type Pipeline struct {
	logger            logger.Logger
	pool              *worker.Pool
	parallelThreshold int
	cache             repository.Store
}

// NewPipeline creates a Pipeline. Without options it maps sequentially and
// caches nothing.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{parallelThreshold: defaultParallelThreshold}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("pipeline")
	}
	return p
}

// Run grades in.Dataset. Any failing step aborts the run and its sentinel
// error is returned unchanged for errors.Is. Graded records come back in
// original dataset order.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	res, err := p.run(ctx, in)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordRunDuration(elapsed)

	if err != nil {
		kind := ErrorKind(err)
		metrics.RecordRun(metrics.OutcomeFailure)
		metrics.RecordRunError(kind)
		p.logger.Warn(ctx, "grading run failed",
			logger.String("session", in.SessionID),
			logger.String("kind", kind),
			logger.Error(err),
		)
		return nil, err
	}

	metrics.RecordRun(metrics.OutcomeSuccess)
	metrics.UpdateDatasetSize(res.Stats.TotalStudents)
	metrics.UpdatePartition(res.Stats.GradingCount, res.Stats.ESEFailingCount)
	for g, n := range res.Distribution {
		metrics.RecordGrades(string(g), n)
	}
	p.logger.Info(ctx, "grading run finished",
		logger.String("session", in.SessionID),
		logger.Int("records", res.Stats.TotalStudents),
		logger.Int("failing", res.Stats.ESEFailingCount),
		logger.Bool("cacheHit", res.CacheHit),
		logger.Float64("ms", elapsed),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, in Input) (*Result, error) {
	capSet, err := caps.Resolve(in.Headers, in.Caps)
	if err != nil {
		return nil, err
	}

	stages, hit, err := p.stages(ctx, in.SessionID, in.Dataset, capSet)
	if err != nil {
		return nil, err
	}

	passing, failing, err := gate.Partition(stages.Final, in.PassingPercentage)
	if err != nil {
		return nil, err
	}
	ranked := grading.Assign(passing)
	graded := merge(len(stages.Final), ranked, failing)

	// Partition already validated the percentage.
	threshold, _ := gate.Threshold(in.PassingPercentage)
	highest := highestTotal(stages.Final)

	return &Result{
		Caps:              capSet,
		PassingPercentage: in.PassingPercentage,
		First:             stages.First,
		Final:             stages.Final,
		Graded:            graded,
		Stats: types.Stats{
			TotalStudents:   len(in.Dataset),
			ESEFailingCount: len(failing),
			GradingCount:    len(passing),
			HighestTotal:    highest,
			PassingMarks:    threshold,
			PassingTotal:    model.Round2(in.PassingPercentage / 100 * highest),
		},
		Distribution: grading.Distribution(graded),
		Violations:   caps.Audit(in.Dataset, capSet),
		Summary:      types.Summarise(stages.Final),
		CacheHit:     hit,
	}, nil
}

func (p *Pipeline) stages(ctx context.Context, sessionID string, ds model.Dataset, capSet model.CapSet) (repository.Stages, bool, error) {
	key := repository.Key{SessionID: sessionID, Caps: capSet}
	useCache := p.cache != nil && sessionID != ""
	if useCache {
		cached, err := p.cache.Get(ctx, key)
		if err == nil {
			return cached, true, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return repository.Stages{}, false, fmt.Errorf("stage cache: %w", err)
		}
	}

	first, err := p.mapStage(ctx, stage.First(capSet), ds)
	if err != nil {
		return repository.Stages{}, false, err
	}
	final, err := p.mapStage(ctx, stage.Final(), first)
	if err != nil {
		return repository.Stages{}, false, err
	}
	out := repository.Stages{First: first, Final: final}

	if useCache {
		if err := p.cache.Put(ctx, key, out); err != nil {
			p.logger.Warn(ctx, "stage cache put failed", logger.Error(err))
		}
	}
	return out, false, nil
}

// mapStage maps ds sequentially, or on the pool once ds reaches the
// parallel threshold. Each worker writes only its own index.
func (p *Pipeline) mapStage(ctx context.Context, s stage.Stage, ds model.Dataset) (model.Dataset, error) {
	if p.pool == nil || len(ds) < p.parallelThreshold {
		return s.MapDataset(ds)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	out := make(model.Dataset, len(ds))
	err := p.pool.Map(ctx, len(ds), func(_ context.Context, i int) error {
		mapped, err := s.Apply(ds[i])
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = mapped
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// merge places ranked and failing records back at their original indices.
func merge(n int, ranked, failing []model.GradedRecord) []model.GradedRecord {
	out := make([]model.GradedRecord, n)
	for _, g := range ranked {
		out[g.Index] = g
	}
	for _, g := range failing {
		out[g.Index] = g
	}
	return out
}

func highestTotal(ds model.Dataset) float64 {
	var highest float64
	for i, r := range ds {
		if t := r.Total(); i == 0 || t > highest {
			highest = t
		}
	}
	return highest
}
