package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/okian/marks/internal/domain/model"
	"github.com/okian/marks/internal/domain/types"
	"github.com/okian/marks/pkg/metrics"
)

// Worksheet names.
const (
	NameFirst  = "First Stage Mapping"
	NameFinal  = "Final Stage Mapping"
	NameGrades = "Final Grades"
)

// Sheet is one named dataset to write. Graded sheets carry Total and Grade
// columns.
type Sheet struct {
	Name   string
	Rows   []types.Row
	Graded bool
	// Labels replaces the default header when set.
	Labels []string
}

// Template returns an empty upload sheet whose headers carry caps, e.g.
// "ESE(100)". Components without a positive cap get a bare name.
func Template(set model.CapSet) Sheet {
	labels := make([]string, 0, model.NumComponents)
	for _, c := range model.Components {
		if set[c] > 0 {
			labels = append(labels, fmt.Sprintf("%s(%s)", c, formatFloat(set[c])))
			continue
		}
		labels = append(labels, c.String())
	}
	return Sheet{Name: "Marks", Labels: labels}
}

// Header returns the column labels of s.
func (s Sheet) Header() []string {
	if len(s.Labels) > 0 {
		return s.Labels
	}
	h := make([]string, 0, model.NumComponents+2)
	for _, c := range model.Components {
		h = append(h, c.String())
	}
	if s.Graded {
		h = append(h, "Total", "Grade")
	}
	return h
}

// Encode writes sheets to w. xlsx output holds one worksheet per sheet in
// order; csv output holds only the first sheet.
func Encode(w io.Writer, f Format, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return ErrNoSheets
	}
	var err error
	switch f {
	case FormatXLSX:
		err = writeXLSX(w, sheets)
	case FormatCSV:
		err = writeCSV(w, sheets[0])
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	metrics.RecordSheetEncoded(string(f))
	return nil
}

func writeXLSX(w io.Writer, sheets []Sheet) error {
	book := excelize.NewFile()
	defer func() { _ = book.Close() }()

	for i, s := range sheets {
		if i == 0 {
			if err := book.SetSheetName(book.GetSheetName(0), s.Name); err != nil {
				return err
			}
		} else if _, err := book.NewSheet(s.Name); err != nil {
			return err
		}
		for r, values := range cells(s) {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := book.SetSheetRow(s.Name, cell, &values); err != nil {
				return err
			}
		}
	}
	book.SetActiveSheet(0)
	_, err := book.WriteTo(w)
	return err
}

func cells(s Sheet) [][]any {
	out := make([][]any, 0, len(s.Rows)+1)
	header := s.Header()
	hrow := make([]any, len(header))
	for i, h := range header {
		hrow[i] = h
	}
	out = append(out, hrow)
	for _, row := range s.Rows {
		values := []any{row.ESE, row.IA, row.CSE, row.TW, row.VIVA}
		if s.Graded {
			var total float64
			if row.Total != nil {
				total = *row.Total
			}
			values = append(values, total, row.Grade)
		}
		out = append(out, values)
	}
	return out
}

func writeCSV(w io.Writer, s Sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Header()); err != nil {
		return err
	}
	for _, row := range s.Rows {
		record := []string{
			formatFloat(row.ESE),
			formatFloat(row.IA),
			formatFloat(row.CSE),
			formatFloat(row.TW),
			formatFloat(row.VIVA),
		}
		if s.Graded {
			var total float64
			if row.Total != nil {
				total = *row.Total
			}
			record = append(record, formatFloat(total), row.Grade)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
