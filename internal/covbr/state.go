package covbr

import "strings"

// BranchKind identifies the outcome recorded for a decision line.
type BranchKind string

const (
	// BranchTaken marks a decision that was only ever true.
	BranchTaken BranchKind = "T"
	// BranchNotTaken marks a decision that was only ever false.
	BranchNotTaken BranchKind = "F"
	// BranchBoth marks a decision observed both ways.
	BranchBoth BranchKind = "TF"

	// MarkerIncomplete is stored alongside the branch kinds to flag a function
	// that was invoked but never instrumented.
	MarkerIncomplete BranchKind = "INCOMP"
)

// ReportOrder is the order in which per-kind line lists are rendered.
var ReportOrder = []BranchKind{BranchNotTaken, BranchTaken, BranchBoth}

// BranchCounts maps a branch kind to the line labels seen for it, in input order.
// Line labels such as "543a" are kept as opaque strings.
type BranchCounts map[BranchKind][]string

// Add appends a line label under kind.
func (b BranchCounts) Add(kind BranchKind, line string) {
	b[kind] = append(b[kind], line)
}

// Count returns the number of labels recorded for kind.
func (b BranchCounts) Count(kind BranchKind) int {
	return len(b[kind])
}

// Incomplete reports whether the incomplete-coverage marker is present and
// returns the line it was recorded at.
func (b BranchCounts) Incomplete() (string, bool) {
	lines, ok := b[MarkerIncomplete]
	if !ok || len(lines) == 0 {
		return "", false
	}
	return lines[0], true
}

// Clone returns a deep copy so callers can keep a snapshot after a reset.
func (b BranchCounts) Clone() BranchCounts {
	out := make(BranchCounts, len(b))
	for k, v := range b {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ParseState is the cursor over a covbr stream.
type ParseState struct {
	InFile       bool
	InFunction   bool
	FileName     string
	FunctionName string
	FunctionLine string

	// PendingFor is set after a "for (" line while the loop condition is
	// still open; function detection is suppressed until it clears.
	PendingFor bool
	forDepth   int
	forLines   int

	Branches BranchCounts
}

// NewParseState returns the state at the start of a stream.
func NewParseState() *ParseState {
	return &ParseState{Branches: make(BranchCounts)}
}

// EnterFile starts a new file section and drops any function state.
func (s *ParseState) EnterFile(name string) {
	s.InFile = true
	s.FileName = name
	s.ResetFunction()
	s.InFunction = false
	s.clearFor()
}

// EnterFunction opens a new function and starts a fresh accumulation.
func (s *ParseState) EnterFunction(name, line string) {
	s.InFunction = true
	s.FunctionName = name
	s.FunctionLine = line
	s.Branches = make(BranchCounts)
}

// ResetFunction clears the function-scoped fields.
func (s *ParseState) ResetFunction() {
	s.FunctionName = ""
	s.FunctionLine = ""
	s.Branches = make(BranchCounts)
}

// maxForLines caps how many lines after a for statement may stay suppressed.
const maxForLines = 4

// BeginFor marks a for statement whose condition has depth unclosed parentheses.
func (s *ParseState) BeginFor(depth int) {
	s.PendingFor = true
	s.forDepth = depth
	s.forLines = 0
}

// ContinueFor consumes a line that followed a for statement. The line right
// after the for line is always suppressed. After that the flag stays up only
// while the condition's parentheses are unbalanced, no loop body has been
// opened and fewer than maxForLines lines have passed.
func (s *ParseState) ContinueFor(line string) {
	if !s.PendingFor {
		return
	}
	s.forLines++
	if s.forDepth <= 0 || s.forLines >= maxForLines {
		s.clearFor()
		return
	}
	code := stripLiterals(line)
	s.forDepth += parenDelta(code)
	if s.forDepth <= 0 || strings.Contains(code, "{") {
		s.clearFor()
	}
}

func (s *ParseState) clearFor() {
	s.PendingFor = false
	s.forDepth = 0
	s.forLines = 0
}

// parenDelta counts unclosed parentheses in code with literals already removed.
func parenDelta(code string) int {
	return strings.Count(code, "(") - strings.Count(code, ")")
}

// stripLiterals drops character and string literals and comments from a
// line of C or C++ so that only code punctuation is left. An unterminated
// literal or block comment runs to the end of the line.
func stripLiterals(line string) string {
	var sb strings.Builder
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\'' || c == '"':
			for i++; i < len(line) && line[i] != c; i++ {
				if line[i] == '\\' {
					i++
				}
			}
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return sb.String()
		case c == '/' && i+1 < len(line) && line[i+1] == '*':
			end := strings.Index(line[i+2:], "*/")
			if end < 0 {
				return sb.String()
			}
			i += end + 3
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
