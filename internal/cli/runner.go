package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/okian/marks/internal/adapters/mq/worker"
	"github.com/okian/marks/internal/adapters/sheet"
	service "github.com/okian/marks/internal/app"
	"github.com/okian/marks/internal/domain/model"
	"github.com/okian/marks/pkg/logger"
)

// File permission constants.
const (
	outputFilePermission = 0o600
	directoryPermission  = 0o750
)

// Run converts cfg.In and writes the result to cfg.Out. A summary is
// printed to stdout.
func Run(ctx context.Context, cfg *Config, stdout io.Writer) error {
	log := logger.Get().Named("convert")

	inFormat, err := sheet.FormatFromName(cfg.In)
	if err != nil {
		return err
	}
	table, err := readTable(cfg.In, inFormat)
	if err != nil {
		return err
	}
	log.Info(ctx, "sheet read",
		logger.String("file", cfg.In),
		logger.Int("records", len(table.Dataset)),
		logger.Any("headers", table.Headers),
	)

	pipeline := service.NewPipeline(
		service.WithPipelineLogger(log.Named("pipeline")),
		service.WithPool(worker.NewPool(cfg.Workers)),
		service.WithParallelThreshold(cfg.ParallelThreshold),
	)
	res, err := pipeline.Run(ctx, service.Input{
		Dataset:           table.Dataset,
		Headers:           table.Headers,
		Caps:              cfg.Caps,
		PassingPercentage: cfg.PassingPercentage,
	})
	if err != nil {
		return err
	}

	out := cfg.Out
	if out == "" {
		out = sheet.FileName(cfg.Stage, sheet.FormatXLSX, time.Now())
	}
	outFormat, err := sheet.FormatFromName(out)
	if err != nil {
		return err
	}
	sheets, err := service.Sheets(res, cfg.Stage)
	if err != nil {
		return err
	}
	if err := writeSheets(out, outFormat, sheets); err != nil {
		return err
	}
	log.Info(ctx, "result written", logger.String("file", out))

	return printSummary(stdout, out, res)
}

func readTable(path string, f sheet.Format) (*sheet.Table, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = file.Close() }()
	return sheet.Decode(file, f)
}

func writeSheets(path string, f sheet.Format, sheets []sheet.Sheet) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFilePermission)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := sheet.Encode(file, f, sheets...); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func printSummary(w io.Writer, out string, res *service.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	s := res.Stats
	_, _ = fmt.Fprintf(tw, "Output\t%s\n", out)
	_, _ = fmt.Fprintf(tw, "Students\t%d\n", s.TotalStudents)
	_, _ = fmt.Fprintf(tw, "Failing ESE\t%d\n", s.ESEFailingCount)
	_, _ = fmt.Fprintf(tw, "Graded\t%d\n", s.GradingCount)
	_, _ = fmt.Fprintf(tw, "Highest total\t%.2f\n", s.HighestTotal)
	_, _ = fmt.Fprintf(tw, "ESE cutoff\t%.2f\n", s.PassingMarks)

	grades := make([]model.Grade, 0, len(res.Distribution))
	for g := range res.Distribution {
		grades = append(grades, g)
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].Rank() < grades[j].Rank() })
	for _, g := range grades {
		_, _ = fmt.Fprintf(tw, "Grade %s\t%d\n", g, res.Distribution[g])
	}
	if n := len(res.Violations); n > 0 {
		_, _ = fmt.Fprintf(tw, "Out of range cells\t%d\n", n)
	}
	return tw.Flush()
}
