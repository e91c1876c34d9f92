package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/zjy-dev/covbr-annotate/internal/covbr"
)

// RecordSink receives every file section and function record as the
// Aggregator flushes them.
type RecordSink interface {
	BeginFile(path string)
	Record(rec FunctionRecord)
}

// Totals counts what a run has seen.
type Totals struct {
	Lines      int
	Files      int
	Functions  int
	Incomplete int
	NoCoverage int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSink forwards flushed records to sink.
func WithSink(sink RecordSink) Option {
	return func(a *Aggregator) {
		a.sink = sink
	}
}

// Aggregator consumes a covbr stream line by line and writes the annotated
// output and the cross-file summary.
//
// Function statistics and raw lines are buffered per file and written when
// the next file section starts or when Finish is called.
type Aggregator struct {
	annotated io.Writer
	summary   io.Writer
	sink      RecordSink

	state *covbr.ParseState

	functionReport []string
	rawEchoLines   []string

	totals Totals
	err    error
}

// NewAggregator creates an Aggregator writing to the two destinations.
func NewAggregator(annotated, summary io.Writer, opts ...Option) *Aggregator {
	a := &Aggregator{
		annotated: annotated,
		summary:   summary,
		state:     covbr.NewParseState(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State exposes the parse cursor.
func (a *Aggregator) State() *covbr.ParseState {
	return a.state
}

// Totals returns the counters accumulated so far.
func (a *Aggregator) Totals() Totals {
	return a.totals
}

// Feed processes one input line. Trailing whitespace is removed before the
// line is classified and echoed. The returned error is the first write error
// seen; once set, later calls keep returning it.
func (a *Aggregator) Feed(line string) error {
	if a.err != nil {
		return a.err
	}
	line = strings.TrimRight(line, " \t\r\n\v\f")
	a.totals.Lines++

	st := a.state
	wasPending := st.PendingFor
	c := covbr.Classify(line, st)

	switch c.Kind {
	case covbr.FileBoundary:
		a.flushOpenFunction()
		if st.InFile {
			a.flushFile()
		}
		st.EnterFile(c.Path)
		a.totals.Files++
		if a.sink != nil {
			a.sink.BeginFile(c.Path)
		}
		header := fmt.Sprintf("\nFile: %s\n", c.Path)
		a.write(a.annotated, header)
		a.write(a.summary, header)

	case covbr.UncoveredFunction:
		a.flushOpenFunction()
		st.EnterFunction(c.Name, c.Line)
		st.Branches.Add(covbr.MarkerIncomplete, c.Line)

	case covbr.FunctionHeader:
		a.flushOpenFunction()
		st.EnterFunction(c.Name, c.Line)

	case covbr.ForStatement:
		st.BeginFor(c.Depth)

	case covbr.BranchLine:
		st.Branches.Add(c.Branch, c.Line)
	}

	if wasPending && c.Kind != covbr.ForStatement && c.Kind != covbr.FileBoundary {
		st.ContinueFor(line)
	}

	a.rawEchoLines = append(a.rawEchoLines, line)
	return a.err
}

// Finish flushes a still-open function and the last file section.
// It must be called once after the final Feed.
func (a *Aggregator) Finish() error {
	if a.err != nil {
		return a.err
	}
	a.flushOpenFunction()
	a.flushFile()
	return a.err
}

// FlushFunction renders the statistics of one function into the function
// report of the current file.
func (a *Aggregator) FlushFunction(name string, branches covbr.BranchCounts, line string) FunctionRecord {
	rec := NewFunctionRecord(a.state.FileName, name, line, branches)

	a.totals.Functions++
	switch rec.Status {
	case StatusIncomplete:
		a.totals.Incomplete++
	case StatusNoCoverage:
		a.totals.NoCoverage++
	}

	a.functionReport = append(a.functionReport, rec.Render())
	if a.sink != nil {
		a.sink.Record(rec)
	}
	return rec
}

func (a *Aggregator) flushOpenFunction() {
	st := a.state
	if !st.InFunction {
		return
	}
	a.FlushFunction(st.FunctionName, st.Branches, st.FunctionLine)
	st.ResetFunction()
	st.InFunction = false
}

// flushFile writes the function report to both outputs and the raw lines to
// the annotated output only, then clears both buffers.
func (a *Aggregator) flushFile() {
	report := ZeroCoverageNotice
	if len(a.functionReport) > 0 {
		report = strings.Join(a.functionReport, "")
	}
	a.write(a.annotated, report+"\n")
	a.write(a.summary, report+"\n")

	for _, line := range a.rawEchoLines {
		a.write(a.annotated, line+"\n")
	}

	a.functionReport = nil
	a.rawEchoLines = nil
}

func (a *Aggregator) write(w io.Writer, s string) {
	if a.err != nil {
		return
	}
	if _, err := io.WriteString(w, s); err != nil {
		a.err = fmt.Errorf("failed to write report: %w", err)
	}
}
