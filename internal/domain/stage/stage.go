// Package stage rescales component scores from one range to another.
//
// A Stage maps every component of a record linearly from its source cap to
// its target cap and rounds to two decimals. Stages are pure: the same record
// always maps to the same output and records never affect one another.
package stage

import (
	"fmt"
	"math"

	"github.com/okian/marks/internal/domain/model"
)

// Stage names used in logs and exports.
const (
	NameFirst = "first"
	NameFinal = "final"
)

// Stage describes one rescaling step.
type Stage struct {
	Name   string
	Source model.CapSet
	Target model.CapSet
}

// First maps raw scores against rawCaps into the first-stage targets.
func First(rawCaps model.CapSet) Stage {
	return Stage{Name: NameFirst, Source: rawCaps, Target: model.FirstStageTargets}
}

// Final maps first-stage scores into the final-stage targets.
func Final() Stage {
	return Stage{Name: NameFinal, Source: model.FirstStageTargets, Target: model.FinalStageTargets}
}

// Validate reports ErrInvalidCap when any source or target cap is not a
// positive finite number.
func (s Stage) Validate() error {
	for _, comp := range model.Components {
		if err := checkCap(s.Source[comp]); err != nil {
			return fmt.Errorf("%s stage source %s: %w", s.Name, comp, err)
		}
		if err := checkCap(s.Target[comp]); err != nil {
			return fmt.Errorf("%s stage target %s: %w", s.Name, comp, err)
		}
	}
	return nil
}

// Apply maps a single record.
func (s Stage) Apply(r model.Record) (model.Record, error) {
	var out model.Record
	for _, comp := range model.Components {
		v, err := MapValue(r[comp], s.Source[comp], s.Target[comp])
		if err != nil {
			return model.Record{}, fmt.Errorf("%s stage %s: %w", s.Name, comp, err)
		}
		out[comp] = v
	}
	return out, nil
}

// MapDataset applies the stage to every record, preserving order.
func (s Stage) MapDataset(ds model.Dataset) (model.Dataset, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	out := make(model.Dataset, len(ds))
	for i, r := range ds {
		mapped, err := s.Apply(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = mapped
	}
	return out, nil
}

// MapValue rescales x from [0, sourceCap] to [0, targetCap] and rounds to two
// decimals. A NaN or infinite x is ErrInvalidScore.
func MapValue(x, sourceCap, targetCap float64) (float64, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidScore, x)
	}
	if err := checkCap(sourceCap); err != nil {
		return 0, err
	}
	if err := checkCap(targetCap); err != nil {
		return 0, err
	}
	return model.Round2(x / sourceCap * targetCap), nil
}

func checkCap(c float64) error {
	if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidCap, c)
	}
	return nil
}
