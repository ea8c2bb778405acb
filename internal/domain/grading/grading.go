// Package grading assigns relative letter grades to passing records.
//
// Passing records are ranked by total and split into eight fixed-size
// buckets, one per grade. When the count does not divide by eight, the
// leftover slots go to buckets in RemainderPriority order. Records with equal
// totals keep their upload order, so a tie can straddle two buckets.
package grading

import (
	"sort"

	"github.com/okian/marks/internal/domain/gate"
	"github.com/okian/marks/internal/domain/model"
)

// NumBuckets is the number of passing grades.
const NumBuckets = 8

// Scale lists the passing grades from best to worst.
var Scale = [NumBuckets]model.Grade{
	model.GradeO,
	model.GradeAPlus,
	model.GradeA,
	model.GradeBPlus,
	model.GradeB,
	model.GradeC,
	model.GradeD,
	model.GradeP,
}

// RemainderPriority is the order in which leftover slots are handed out.
// It is not derivable from Scale and must stay exactly as listed.
var RemainderPriority = [NumBuckets]model.Grade{
	model.GradeBPlus,
	model.GradeA,
	model.GradeAPlus,
	model.GradeO,
	model.GradeD,
	model.GradeC,
	model.GradeB,
	model.GradeP,
}

// BucketCounts returns how many of n passing records receive each grade,
// indexed like Scale.
func BucketCounts(n int) [NumBuckets]int {
	var counts [NumBuckets]int
	if n <= 0 {
		return counts
	}
	base := n / NumBuckets
	remainder := n - base*NumBuckets
	for i := range counts {
		counts[i] = base
	}
	for i := 0; i < remainder; i++ {
		counts[scaleIndex(RemainderPriority[i])]++
	}
	return counts
}

// Assign grades every candidate. The output is ordered by rank, best first,
// and carries each record's original index for re-merging.
func Assign(passing []gate.Candidate) []model.GradedRecord {
	if len(passing) == 0 {
		return []model.GradedRecord{}
	}

	ranked := make([]gate.Candidate, len(passing))
	copy(ranked, passing)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		return ranked[i].Index < ranked[j].Index
	})

	counts := BucketCounts(len(ranked))
	out := make([]model.GradedRecord, 0, len(ranked))
	bucket, used := 0, 0
	for _, c := range ranked {
		for used >= counts[bucket] {
			bucket++
			used = 0
		}
		out = append(out, model.GradedRecord{
			Index:  c.Index,
			Scores: c.Scores,
			Total:  c.Total,
			Grade:  Scale[bucket],
		})
		used++
	}
	return out
}

// Distribution counts graded records per grade, F included.
func Distribution(graded []model.GradedRecord) map[model.Grade]int {
	out := make(map[model.Grade]int, NumBuckets+1)
	for _, g := range Scale {
		out[g] = 0
	}
	out[model.GradeF] = 0
	for _, r := range graded {
		out[r.Grade]++
	}
	return out
}

func scaleIndex(g model.Grade) int {
	for i, s := range Scale {
		if s == g {
			return i
		}
	}
	return -1
}
