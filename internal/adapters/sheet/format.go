package sheet

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Format is a spreadsheet file format.
type Format string

// Supported formats.
const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name such as "xlsx" or ".CSV".
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")); f {
	case FormatXLSX, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatFromName derives the format from a file name extension.
func FormatFromName(filename string) (Format, error) {
	return ParseFormat(filepath.Ext(filename))
}

// ContentType returns the MIME type used for downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// FileName builds a download name such as
// first_stage_mapping_2024-05-01T10-20-30-000Z.xlsx.
func FileName(stage string, f Format, now time.Time) string {
	ts := strings.NewReplacer(":", "-", ".", "-").Replace(now.UTC().Format("2006-01-02T15:04:05.000Z"))
	return fmt.Sprintf("%s_stage_mapping_%s.%s", stage, ts, f)
}
