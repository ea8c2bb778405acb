// Package sheet reads uploaded mark sheets and writes mapped and graded
// datasets back out as xlsx or csv.
package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/marks/internal/domain/caps"
	"github.com/okian/marks/internal/domain/model"
	"github.com/okian/marks/pkg/metrics"
)

// Table is the first worksheet of an upload.
type Table struct {
	Headers []string
	Dataset model.Dataset
}

// Decode reads the first worksheet of r. The first row holds the headers.
// A column feeds a component when its header is the component name or
// carries a cap such as "ESE(100)"; the first such column wins. Empty and
// non-numeric cells read as zero and blank rows are skipped.
func Decode(r io.Reader, f Format) (*Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch f {
	case FormatXLSX:
		rows, err = readXLSX(r)
	case FormatCSV:
		rows, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	metrics.RecordSheetDecoded(string(f))
	return fromRows(rows), nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = book.Close() }()

	names := book.GetSheetList()
	if len(names) == 0 {
		return nil, nil
	}
	return book.GetRows(names[0])
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func fromRows(rows [][]string) *Table {
	t := &Table{Dataset: model.Dataset{}}
	if len(rows) == 0 {
		return t
	}

	t.Headers = make([]string, len(rows[0]))
	columns := make(map[model.Component]int, model.NumComponents)
	for j, h := range rows[0] {
		t.Headers[j] = strings.TrimSpace(h)
		comp, ok := bindColumn(t.Headers[j])
		if !ok {
			continue
		}
		if _, bound := columns[comp]; !bound {
			columns[comp] = j
		}
	}

	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		var rec model.Record
		for comp, j := range columns {
			if j < len(row) {
				rec[comp] = number(row[j])
			}
		}
		t.Dataset = append(t.Dataset, rec)
	}
	return t
}

func bindColumn(header string) (model.Component, bool) {
	if comp, ok := model.ParseComponent(header); ok {
		return comp, true
	}
	comp, _, ok := caps.ParseHeader(header)
	return comp, ok
}

func number(cell string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
