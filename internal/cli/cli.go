// Package cli implements the offline converter: read a mark sheet, grade it
// and write the mapped and graded datasets to a file.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v3"

	service "github.com/okian/marks/internal/app"
	"github.com/okian/marks/internal/domain/caps"
	"github.com/okian/marks/internal/domain/model"
)

// EnvPrefix prefixes environment overrides, e.g. MARKS_CONVERT_PASS.
const EnvPrefix = "MARKS_CONVERT"

// Default option values.
const (
	defaultPassingPercentage = 40
	defaultParallelThreshold = 2_000
	defaultTimeout           = 2 * time.Minute
)

// ErrUsage reports invalid command line options.
var ErrUsage = errors.New("invalid usage")

// Parse reads flags, then MARKS_CONVERT_* env vars, then an optional
// -config file of "name value" lines.
func Parse(args []string, stderr io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		_        = fs.String("config", "", "config file (optional), one 'flag value' per line")
		in       = fs.String("in", "", "input sheet (.xlsx or .csv)")
		out      = fs.String("out", "", "output file (default: <stage>_stage_mapping_<timestamp>.xlsx)")
		stage    = fs.String("stage", service.ExportAll, "datasets to write: first, final, grades or all")
		pass     = fs.Float64("pass", defaultPassingPercentage, "ESE passing percentage, 30 to 70")
		workers  = fs.Int("workers", runtime.NumCPU(), "mapping workers")
		parallel = fs.Int("parallel-threshold", defaultParallelThreshold, "dataset size from which mapping uses workers")
		timeout  = fs.Duration("timeout", defaultTimeout, "run timeout")
		logLevel = fs.String("log-level", "warn", "log level: debug, info, warn, error")
		capFlags = make(map[model.Component]*float64, model.NumComponents)
	)
	for _, c := range model.Components {
		capFlags[c] = fs.Float64(strings.ToLower(c.String()), 0, fmt.Sprintf("raw cap of %s (0: read from the %s(<cap>) header)", c, c))
	}
	fs.Usage = func() { usage(fs) }

	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix(EnvPrefix),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if *in == "" {
		return nil, fmt.Errorf("%w: -in is required", ErrUsage)
	}

	explicit := make(caps.Explicit)
	for c, v := range capFlags {
		if *v != 0 {
			explicit[c] = *v
		}
	}
	return &Config{
		In:                *in,
		Out:               *out,
		Stage:             *stage,
		PassingPercentage: *pass,
		Caps:              explicit,
		Workers:           *workers,
		ParallelThreshold: *parallel,
		Timeout:           *timeout,
		LogLevel:          *logLevel,
	}, nil
}

func usage(fs *flag.FlagSet) {
	_, _ = io.WriteString(fs.Output(), `Marks Converter
===============

Maps a mark sheet through both stages, gates it on ESE and assigns relative
grades.

Usage:
  convert -in marks.xlsx [options]

Options:
`)
	fs.PrintDefaults()
	_, _ = io.WriteString(fs.Output(), `
Every option can also be set as MARKS_CONVERT_<NAME>, e.g. MARKS_CONVERT_PASS=45.

Examples:
  convert -in marks.xlsx -pass 40
  convert -in marks.csv -ese 100 -ia 40 -cse 20 -tw 25 -viva 25 -out grades.csv -stage grades
`)
}
