package report

import (
	"fmt"
	"strings"

	"github.com/zjy-dev/covbr-annotate/internal/covbr"
)

const (
	branchMsg = "        Total branches = %d, Branches NOT taken (F) = %d, Branches taken (T) = %d,\n" +
		"        %%F branches = %f, %%T branches = %f\n"
	incompleteMsg = "        Function at line: %s has incomplete coverage\n"
	noCoverageMsg = "        Function at line: %s was INVOKED but no coverage information\n"
	functionMsg   = "\n\tFunction: %s\n"
	lineListMsg   = "\t\tLine numbers for branch-condition = %s are %s\n"

	// ZeroCoverageNotice replaces the function report of a file in which no
	// function was found.
	ZeroCoverageNotice = "\tZero coverage for this file\n\n"
)

// Stats holds the branch arithmetic for one function.
// A TF line counts as one taken and one not-taken outcome.
type Stats struct {
	Taken           int     `yaml:"t"`
	NotTaken        int     `yaml:"f"`
	BothWays        int     `yaml:"tf"`
	Total           int     `yaml:"total"`
	TakenTotal      int     `yaml:"taken"`
	NotTakenTotal   int     `yaml:"not_taken"`
	PercentTaken    float64 `yaml:"percent_taken"`
	PercentNotTaken float64 `yaml:"percent_not_taken"`
}

// ComputeStats derives Stats from the branch lists of a function.
func ComputeStats(b covbr.BranchCounts) Stats {
	t := b.Count(covbr.BranchTaken)
	f := b.Count(covbr.BranchNotTaken)
	tf := b.Count(covbr.BranchBoth)

	s := Stats{
		Taken:         t,
		NotTaken:      f,
		BothWays:      tf,
		Total:         t + f + 2*tf,
		TakenTotal:    t + tf,
		NotTakenTotal: f + tf,
	}
	if s.Total > 0 {
		s.PercentTaken = float64(t+tf) / float64(s.Total) * 100.0
		s.PercentNotTaken = float64(f+tf) / float64(s.Total) * 100.0
	}
	return s
}

// RecordStatus says which form a FunctionRecord renders as.
type RecordStatus string

const (
	StatusCovered    RecordStatus = "covered"
	StatusIncomplete RecordStatus = "incomplete"
	StatusNoCoverage RecordStatus = "no_coverage"
)

// FunctionRecord is the flushed result of one function.
type FunctionRecord struct {
	File   string
	Name   string
	Line   string
	Status RecordStatus

	// IncompleteLine is the line the incomplete-coverage marker cites.
	IncompleteLine string

	Branches covbr.BranchCounts
	Stats    Stats
}

// NewFunctionRecord snapshots branches into a record for the named function.
func NewFunctionRecord(file, name, line string, branches covbr.BranchCounts) FunctionRecord {
	rec := FunctionRecord{File: file, Name: name, Line: line}

	if len(branches) == 0 {
		rec.Status = StatusNoCoverage
		return rec
	}
	if at, ok := branches.Incomplete(); ok {
		rec.Status = StatusIncomplete
		rec.IncompleteLine = at
		return rec
	}

	rec.Status = StatusCovered
	rec.Branches = branches.Clone()
	rec.Stats = ComputeStats(rec.Branches)
	return rec
}

// Render returns the text fragment appended to the function report.
func (r FunctionRecord) Render() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, functionMsg, r.Name)

	switch r.Status {
	case StatusNoCoverage:
		fmt.Fprintf(&sb, noCoverageMsg, r.Line)
	case StatusIncomplete:
		fmt.Fprintf(&sb, incompleteMsg, r.IncompleteLine)
	default:
		fmt.Fprintf(&sb, branchMsg, r.Stats.Total, r.Stats.NotTakenTotal, r.Stats.TakenTotal,
			r.Stats.PercentNotTaken, r.Stats.PercentTaken)
		for _, kind := range covbr.ReportOrder {
			lines := r.Branches[kind]
			if len(lines) == 0 {
				continue
			}
			fmt.Fprintf(&sb, lineListMsg, kind, strings.Join(lines, ", "))
		}
	}
	return sb.String()
}
