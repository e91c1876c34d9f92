package report

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zjy-dev/covbr-annotate/internal/covbr"
)

// FunctionStats is the structured form of a FunctionRecord.
type FunctionStats struct {
	Name           string       `yaml:"name"`
	Line           string       `yaml:"line"`
	Status         RecordStatus `yaml:"status"`
	IncompleteLine string       `yaml:"incomplete_line,omitempty"`
	Stats          *Stats       `yaml:"stats,omitempty"`

	// Line labels per branch kind, in input order.
	F  []string `yaml:"f_lines,omitempty"`
	T  []string `yaml:"t_lines,omitempty"`
	TF []string `yaml:"tf_lines,omitempty"`
}

// FileStats groups the functions of one file section.
type FileStats struct {
	Path      string          `yaml:"path"`
	Functions []FunctionStats `yaml:"functions"`
}

// StatsDocument is the top-level YAML document.
type StatsDocument struct {
	Files []FileStats `yaml:"files"`
}

// StatsCollector is a RecordSink that keeps every record for a structured
// export once the run completes.
type StatsCollector struct {
	doc StatsDocument
}

// NewStatsCollector creates an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{doc: StatsDocument{Files: make([]FileStats, 0)}}
}

// BeginFile implements RecordSink.
func (c *StatsCollector) BeginFile(path string) {
	c.doc.Files = append(c.doc.Files, FileStats{Path: path, Functions: make([]FunctionStats, 0)})
}

// Record implements RecordSink.
func (c *StatsCollector) Record(rec FunctionRecord) {
	if len(c.doc.Files) == 0 {
		// Functions are only recognized inside a file section, but keep the
		// record if a caller feeds one directly.
		c.BeginFile(rec.File)
	}
	fs := FunctionStats{
		Name:           rec.Name,
		Line:           rec.Line,
		Status:         rec.Status,
		IncompleteLine: rec.IncompleteLine,
	}
	if rec.Status == StatusCovered {
		stats := rec.Stats
		fs.Stats = &stats
		fs.F = rec.Branches[covbr.BranchNotTaken]
		fs.T = rec.Branches[covbr.BranchTaken]
		fs.TF = rec.Branches[covbr.BranchBoth]
	}
	last := &c.doc.Files[len(c.doc.Files)-1]
	last.Functions = append(last.Functions, fs)
}

// Document returns the collected statistics.
func (c *StatsCollector) Document() StatsDocument {
	return c.doc
}

// WriteYAML encodes the collected statistics to w.
func (c *StatsCollector) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.doc); err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	return enc.Close()
}

// SaveYAML writes the collected statistics to path, replacing any existing file.
func (c *StatsCollector) SaveYAML(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create stats file: %w", err)
	}
	if err := c.WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadStatsYAML reads a document written by SaveYAML.
func LoadStatsYAML(r io.Reader) (StatsDocument, error) {
	var doc StatsDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return StatsDocument{}, fmt.Errorf("failed to decode stats: %w", err)
	}
	return doc, nil
}
