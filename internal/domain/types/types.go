// Package types contains the read shapes handed to display and export
// collaborators.
package types

import "github.com/okian/marks/internal/domain/model"

// Row is one record as shown in a table or written to a sheet. Total and
// Grade are empty for stage datasets.
type Row struct {
	ESE   float64  `json:"ESE"`
	IA    float64  `json:"IA"`
	CSE   float64  `json:"CSE"`
	TW    float64  `json:"TW"`
	VIVA  float64  `json:"VIVA"`
	Total *float64 `json:"Total,omitempty"`
	Grade string   `json:"Grade,omitempty"`
}

// Stats summarises one grading run.
type Stats struct {
	TotalStudents   int     `json:"totalStudents"`
	ESEFailingCount int     `json:"eseFailingCount"`
	GradingCount    int     `json:"gradingCount"`
	HighestTotal    float64 `json:"highestTotal"`
	PassingMarks    float64 `json:"passingMarks"`
	// PassingTotal is the passing percentage applied to HighestTotal.
	PassingTotal float64 `json:"passingTotal"`
}

// ColumnSummary holds the per-column extremes used for table highlighting.
type ColumnSummary struct {
	Column string  `json:"column"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// RowFromRecord converts a stage record.
func RowFromRecord(r model.Record) Row {
	return Row{
		ESE:  r[model.ESE],
		IA:   r[model.IA],
		CSE:  r[model.CSE],
		TW:   r[model.TW],
		VIVA: r[model.VIVA],
	}
}

// RowFromGraded converts a graded record.
func RowFromGraded(g model.GradedRecord) Row {
	row := RowFromRecord(g.Scores)
	total := g.Total
	row.Total = &total
	row.Grade = string(g.Grade)
	return row
}

// Rows converts a dataset, keeping order.
func Rows(ds model.Dataset) []Row {
	out := make([]Row, len(ds))
	for i, r := range ds {
		out[i] = RowFromRecord(r)
	}
	return out
}

// GradedRows converts graded records, keeping order.
func GradedRows(graded []model.GradedRecord) []Row {
	out := make([]Row, len(graded))
	for i, g := range graded {
		out[i] = RowFromGraded(g)
	}
	return out
}

// Summarise returns the min and max of every component and of the total.
// An empty dataset yields zeroes.
func Summarise(ds model.Dataset) []ColumnSummary {
	out := make([]ColumnSummary, 0, model.NumComponents+1)
	for _, comp := range model.Components {
		out = append(out, summarise(comp.String(), ds, func(r model.Record) float64 { return r[comp] }))
	}
	return append(out, summarise("Total", ds, model.Record.Total))
}

func summarise(column string, ds model.Dataset, value func(model.Record) float64) ColumnSummary {
	s := ColumnSummary{Column: column}
	for i, r := range ds {
		v := value(r)
		if i == 0 || v < s.Min {
			s.Min = v
		}
		if i == 0 || v > s.Max {
			s.Max = v
		}
	}
	return s
}
