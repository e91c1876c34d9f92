package annotate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zjy-dev/covbr-annotate/internal/logger"
	"github.com/zjy-dev/covbr-annotate/internal/report"
)

// DefaultSummaryName is the summary written next to the annotated output.
const DefaultSummaryName = "annotated-summary.txt"

// maxLineSize bounds a single covbr line; generated sources can be very wide.
const maxLineSize = 16 * 1024 * 1024

var (
	// ErrInputOpen is returned when the covbr report cannot be opened.
	ErrInputOpen = errors.New("cannot open input file")
	// ErrOutputExists is returned when the annotated output is already present.
	ErrOutputExists = errors.New("output file already exists")
	// ErrOutputOpen is returned when either destination cannot be created.
	ErrOutputOpen = errors.New("cannot open output file")
)

// Request describes one annotation run.
type Request struct {
	InputPath  string
	OutputPath string

	// SummaryName is the file name of the summary, created in the directory
	// of OutputPath. Defaults to DefaultSummaryName.
	SummaryName string

	// Sink, if set, receives every flushed function record.
	Sink report.RecordSink
}

// Result describes a completed run.
type Result struct {
	OutputPath  string
	SummaryPath string
	Totals      report.Totals
}

// Analyze reads a covbr report from in and writes the annotated copy and the
// summary. It does not close any of the streams.
func Analyze(in io.Reader, annotated, summary io.Writer, opts ...report.Option) (report.Totals, error) {
	agg := report.NewAggregator(annotated, summary, opts...)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	files := 0
	for scanner.Scan() {
		if err := agg.Feed(scanner.Text()); err != nil {
			return agg.Totals(), err
		}
		if n := agg.Totals().Files; n != files {
			files = n
			logger.Debug("File section %d: %s", n, agg.State().FileName)
		}
	}
	if err := scanner.Err(); err != nil {
		return agg.Totals(), fmt.Errorf("failed to read input: %w", err)
	}
	if err := agg.Finish(); err != nil {
		return agg.Totals(), err
	}
	return agg.Totals(), nil
}

// Run opens the files named by req, runs Analyze over them and closes them.
// The annotated output must not exist yet; its directory is created when
// missing, and it is removed again if the run fails. The summary is always
// overwritten.
func Run(req Request) (res *Result, err error) {
	inputPath, err := filepath.Abs(req.InputPath)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInputOpen, req.InputPath, err)
	}
	outputPath, err := filepath.Abs(req.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrOutputOpen, req.OutputPath, err)
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInputOpen, inputPath, err)
	}
	defer closeInto(in, &err)

	if err := CheckOutput(outputPath); err != nil {
		return nil, err
	}

	outDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrOutputOpen, outputPath, err)
	}

	out, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, outputPath)
		}
		return nil, fmt.Errorf("%w %s: %v", ErrOutputOpen, outputPath, err)
	}
	// Drop a partial output on failure.
	defer func() {
		if err != nil {
			os.Remove(outputPath)
		}
	}()
	defer closeInto(out, &err)

	summaryName := req.SummaryName
	if summaryName == "" {
		summaryName = DefaultSummaryName
	}
	summaryPath := filepath.Join(outDir, summaryName)
	sum, err := os.Create(summaryPath)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrOutputOpen, summaryPath, err)
	}
	defer closeInto(sum, &err)

	logger.Debug("Annotating %s -> %s (summary %s)", inputPath, outputPath, summaryPath)

	annotatedBuf := bufio.NewWriter(out)
	summaryBuf := bufio.NewWriter(sum)

	var opts []report.Option
	if req.Sink != nil {
		opts = append(opts, report.WithSink(req.Sink))
	}
	totals, err := Analyze(in, annotatedBuf, summaryBuf, opts...)
	if err != nil {
		return nil, err
	}
	if err := annotatedBuf.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	if err := summaryBuf.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", summaryPath, err)
	}

	logger.Info("Processed %d lines in %d file sections: %d functions (%d incomplete, %d without coverage)",
		totals.Lines, totals.Files, totals.Functions, totals.Incomplete, totals.NoCoverage)

	return &Result{
		OutputPath:  outputPath,
		SummaryPath: summaryPath,
		Totals:      totals,
	}, nil
}

// CheckOutput fails with ErrOutputExists if path is already present.
func CheckOutput(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrOutputExists, path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w %s: %v", ErrOutputOpen, path, err)
	}
	return nil
}

// closeInto closes c and records its error in errp unless an earlier error
// is already there.
func closeInto(c io.Closer, errp *error) {
	if cerr := c.Close(); cerr != nil && *errp == nil {
		*errp = fmt.Errorf("failed to close file: %w", cerr)
	}
}
