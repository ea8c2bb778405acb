package model

// Grade is a letter grade label.
type Grade string

// Grade labels from best to worst. F is only ever assigned by the passing gate.
const (
	GradeO     Grade = "O"
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeP     Grade = "P"
	GradeF     Grade = "F"
)

// Rank returns 1 for O through 8 for P, 9 for F and 0 for unknown labels.
func (g Grade) Rank() int {
	switch g {
	case GradeO:
		return 1
	case GradeAPlus:
		return 2
	case GradeA:
		return 3
	case GradeBPlus:
		return 4
	case GradeB:
		return 5
	case GradeC:
		return 6
	case GradeD:
		return 7
	case GradeP:
		return 8
	case GradeF:
		return 9
	default:
		return 0
	}
}

// GradedRecord is a final-stage record with its total and grade.
type GradedRecord struct {
	Index  int     // position in the uploaded dataset
	Scores Record  // final-stage scores
	Total  float64 // Scores.Total()
	Grade  Grade
}
