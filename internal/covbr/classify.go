package covbr

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is the classification of a single covbr line.
type Kind int

const (
	Plain Kind = iota
	FileBoundary
	ForStatement
	UncoveredFunction
	FunctionHeader
	BranchLine
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case FileBoundary:
		return "file"
	case ForStatement:
		return "for"
	case UncoveredFunction:
		return "uncovered-function"
	case FunctionHeader:
		return "function"
	case BranchLine:
		return "branch"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Classification is the tagged result of Classify. Only the fields relevant
// to Kind are set.
type Classification struct {
	Kind Kind

	// Path is the source file named by a FileBoundary line.
	Path string

	// Name and Line identify the function for UncoveredFunction and
	// FunctionHeader, and Line is the decision line for BranchLine.
	Name string
	Line string

	// Branch is the outcome of a BranchLine.
	Branch BranchKind

	// Depth is the number of unclosed parentheses left by a ForStatement.
	Depth int
}

// Line shapes emitted by covbr:
//
//	/home/user/src/llvm/lib/Analysis/AliasAnalysis.cpp:
//	X       540  bool llvm::isIdentifiedObject(const Value *V) {
//	-->   46374  Intrinsic::ID Intrinsic::getIntrinsicForGCCBuiltin(const char *Pre,
//	TF      543a   if (
//	  tf    543b       isa<GlobalValue>(V) &&
//	  -->t  543c                              !isa<GlobalAlias>(V))
var (
	fileRe       = regexp.MustCompile(`^([/.].*?):$`)
	forRe        = regexp.MustCompile(`\s+\S+\s+for\s*\(`)
	uncoveredRe  = regexp.MustCompile(`^-->\s+(\d+[a-z]?)\s+(.*?)\s*(\S+)\s*\(`)
	functionRe   = regexp.MustCompile(`^X\s+(\d+[a-z]?)\s+(.*?)(\S+)\s*\(`)
	branchLineRe = regexp.MustCompile(`^(\s*tf|TF|\s*-->[TFtf])\s+(\w+)\s*(.*)`)
)

var (
	uncoveredIdentExcludes  = []string{"if", "while", "return"}
	uncoveredPrefixExcludes = []string{"default:", "default :", " case ", " return", " if("}
)

type matcher func(line string, st *ParseState) (Classification, bool)

// matchers run in precedence order; the first match wins.
var matchers = []matcher{
	matchFile,
	matchFor,
	matchUncovered,
	matchFunction,
	matchBranch,
}

// Classify determines what line means given the current parse state.
// The line is expected to have its trailing whitespace removed already.
// Classify never mutates st.
func Classify(line string, st *ParseState) Classification {
	for _, m := range matchers {
		if c, ok := m(line, st); ok {
			return c
		}
	}
	return Classification{Kind: Plain}
}

// IsForStatement reports whether line looks like the start of a for loop.
func IsForStatement(line string) bool {
	return forRe.MatchString(line)
}

func matchFile(line string, _ *ParseState) (Classification, bool) {
	m := fileRe.FindStringSubmatch(line)
	if m == nil {
		return Classification{}, false
	}
	return Classification{Kind: FileBoundary, Path: m[1]}, true
}

func matchFor(line string, st *ParseState) (Classification, bool) {
	if !st.InFile || !st.InFunction {
		return Classification{}, false
	}
	loc := forRe.FindStringIndex(line)
	if loc == nil {
		return Classification{}, false
	}
	// The match ends on the opening parenthesis of the condition.
	code := stripLiterals(line[loc[1]-1:])
	depth := parenDelta(code)
	if strings.Contains(code, "{") {
		depth = 0
	}
	return Classification{Kind: ForStatement, Depth: depth}, true
}

func matchUncovered(line string, st *ParseState) (Classification, bool) {
	if !st.InFile || st.PendingFor {
		return Classification{}, false
	}
	m := uncoveredRe.FindStringSubmatch(line)
	if m == nil || IsForStatement(line) {
		return Classification{}, false
	}
	lineNo, prefix, ident := m[1], m[2], m[3]
	for _, kw := range uncoveredIdentExcludes {
		if ident == kw {
			return Classification{}, false
		}
	}
	// The prefix is matched after the line label's whitespace, so put one
	// space back to let " case " and friends match at its start. This makes
	// "case 3: foo(" and "return foo(" at the start of the code column plain
	// lines rather than incomplete functions, on purpose.
	prefix = " " + prefix
	for _, s := range uncoveredPrefixExcludes {
		if strings.Contains(prefix, s) {
			return Classification{}, false
		}
	}
	return Classification{Kind: UncoveredFunction, Name: ident, Line: lineNo}, true
}

func matchFunction(line string, st *ParseState) (Classification, bool) {
	if !st.InFile || st.PendingFor {
		return Classification{}, false
	}
	m := functionRe.FindStringSubmatch(line)
	if m == nil {
		return Classification{}, false
	}
	lineNo, prefix, ident := m[1], m[2], m[3]
	// X      119410    case 4: return (Subtarget->hasSSE2());
	if ident == "return" || strings.Contains(prefix, "case ") {
		return Classification{}, false
	}
	return Classification{Kind: FunctionHeader, Name: ident, Line: lineNo}, true
}

func matchBranch(line string, st *ParseState) (Classification, bool) {
	if !st.InFile || !st.InFunction {
		return Classification{}, false
	}
	m := branchLineRe.FindStringSubmatch(line)
	if m == nil {
		return Classification{}, false
	}
	kind := BranchKind(strings.ToUpper(strings.Trim(m[1], " \t->")))
	return Classification{Kind: BranchLine, Branch: kind, Line: m[2]}, true
}
