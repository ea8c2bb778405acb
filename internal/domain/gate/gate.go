// Package gate splits final-stage records into passing and failing sets on
// the end semester exam score.
package gate

import (
	"fmt"
	"math"

	"github.com/okian/marks/internal/domain/model"
)

// Valid passing percentage domain, inclusive.
const (
	MinPercentage = 30
	MaxPercentage = 70
)

// Gating is the component compared against the threshold.
const Gating = model.ESE

// Candidate is a passing record waiting for a relative grade.
type Candidate struct {
	Index  int
	Scores model.Record
	Total  float64
}

// Threshold converts a passing percentage into the minimum final-stage ESE
// score.
func Threshold(p float64) (float64, error) {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < MinPercentage || p > MaxPercentage {
		return 0, fmt.Errorf("%w: %v not in [%d, %d]", ErrInvalidThreshold, p, MinPercentage, MaxPercentage)
	}
	return p * model.FinalStageTargets[Gating] / 100, nil
}

// Partition gates every final-stage record. Failing records are graded F on
// the spot; both slices keep each record's original index.
func Partition(final model.Dataset, p float64) ([]Candidate, []model.GradedRecord, error) {
	t, err := Threshold(p)
	if err != nil {
		return nil, nil, err
	}

	passing := make([]Candidate, 0, len(final))
	var failing []model.GradedRecord
	for i, r := range final {
		if r[Gating] >= t {
			passing = append(passing, Candidate{Index: i, Scores: r, Total: r.Total()})
			continue
		}
		failing = append(failing, model.GradedRecord{
			Index:  i,
			Scores: r,
			Total:  r.Total(),
			Grade:  model.GradeF,
		})
	}
	return passing, failing, nil
}
