package covbr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inFileState() *ParseState {
	st := NewParseState()
	st.EnterFile("/src/lib/AliasAnalysis.cpp")
	return st
}

func inFunctionState() *ParseState {
	st := inFileState()
	st.EnterFunction("isIdentifiedObject", "540")
	return st
}

func TestClassify_FileBoundary(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Classification
	}{
		{
			name: "absolute path",
			line: "/cygwin64/home/user/work/include/llvm/IR/Intrinsics.gen:",
			want: Classification{Kind: FileBoundary, Path: "/cygwin64/home/user/work/include/llvm/IR/Intrinsics.gen"},
		},
		{
			name: "relative path",
			line: "./lib/Analysis/AliasAnalysis.cpp:",
			want: Classification{Kind: FileBoundary, Path: "./lib/Analysis/AliasAnalysis.cpp"},
		},
		{
			name: "path without trailing colon",
			line: "/src/foo.cpp",
			want: Classification{Kind: Plain},
		},
		{
			name: "path with trailing content",
			line: "/src/foo.cpp: warning",
			want: Classification{Kind: Plain},
		},
		{
			name: "not rooted",
			line: "src/foo.cpp:",
			want: Classification{Kind: Plain},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// File boundaries are recognized in every state.
			for _, st := range []*ParseState{NewParseState(), inFileState(), inFunctionState()} {
				assert.Equal(t, tt.want, Classify(tt.line, st))
			}
		})
	}
}

func TestClassify_OutsideFileIsPlain(t *testing.T) {
	st := NewParseState()
	lines := []string{
		"X       540  bool llvm::isIdentifiedObject(const Value *V) {",
		"-->   46374  Intrinsic::ID Intrinsic::getIntrinsicForGCCBuiltin(const char *Pre,",
		"TF      541    if (isa<AllocaInst>(V))",
	}
	for _, line := range lines {
		assert.Equal(t, Plain, Classify(line, st).Kind, line)
	}
}

func TestClassify_FunctionHeader(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantKind Kind
		wantName string
		wantLine string
	}{
		{
			name:     "method definition",
			line:     "X       540  bool llvm::isIdentifiedObject(const Value *V) {",
			wantKind: FunctionHeader,
			wantName: "llvm::isIdentifiedObject",
			wantLine: "540",
		},
		{
			name:     "suffixed line label",
			line:     "X       863a  static bool CC_X86_64_C(unsigned ValNo, MVT ValVT,",
			wantKind: FunctionHeader,
			wantName: "CC_X86_64_C",
			wantLine: "863a",
		},
		{
			name:     "space before parenthesis",
			line:     "X        12  int main (int argc, char **argv)",
			wantKind: FunctionHeader,
			wantName: "main",
			wantLine: "12",
		},
		{
			name:     "return statement excluded",
			line:     "X      1200    return (x + y);",
			wantKind: Plain,
		},
		{
			name:     "case label excluded",
			line:     "X      119410    case 4: return (Subtarget->hasSSE2());",
			wantKind: Plain,
		},
		{
			name:     "executed line without call",
			line:     "X      16776    case 'm':",
			wantKind: Plain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.line, inFileState())
			assert.Equal(t, tt.wantKind, got.Kind)
			if tt.wantKind == FunctionHeader {
				assert.Equal(t, tt.wantName, got.Name)
				assert.Equal(t, tt.wantLine, got.Line)
			}
		})
	}
}

func TestClassify_UncoveredFunction(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantKind Kind
		wantName string
		wantLine string
	}{
		{
			name:     "invoked but not covered",
			line:     "-->    46374  Intrinsic::ID Intrinsic::getIntrinsicForGCCBuiltin(const char *Pre,",
			wantKind: UncoveredFunction,
			wantName: "Intrinsic::getIntrinsicForGCCBuiltin",
			wantLine: "46374",
		},
		{
			name:     "suffixed line label",
			line:     "-->    17b  static void helper(int x)",
			wantKind: UncoveredFunction,
			wantName: "helper",
			wantLine: "17b",
		},
		{
			name:     "if identifier",
			line:     "-->     8927      if (NameR.startswith(\"MDGPU.trig.preop.\"))",
			wantKind: Plain,
		},
		{
			name:     "while identifier",
			line:     "-->     8930      while (x)",
			wantKind: Plain,
		},
		{
			name:     "return identifier",
			line:     "-->     8931      return (x);",
			wantKind: Plain,
		},
		{
			name:     "default label",
			line:     "-->    42036      default: llvm_unreachable(\"Invalid attribute number\");",
			wantKind: Plain,
		},
		{
			name:     "default label with space",
			line:     "-->    42037      default : llvm_unreachable(\"Invalid\");",
			wantKind: Plain,
		},
		{
			name:     "case label",
			line:     "-->    42038      case 3: foo(x);",
			wantKind: Plain,
		},
		{
			name:     "return of a call",
			line:     "-->    42039      return foo(x);",
			wantKind: Plain,
		},
		{
			name:     "for statement",
			line:     "-->    42041      for (int i = 0; i < n; ++i)",
			wantKind: Plain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.line, inFileState())
			assert.Equal(t, tt.wantKind, got.Kind)
			if tt.wantKind == UncoveredFunction {
				assert.Equal(t, tt.wantName, got.Name)
				assert.Equal(t, tt.wantLine, got.Line)
			}
		})
	}
}

func TestClassify_BranchLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantKind BranchKind
		wantLine string
	}{
		{"both ways", "TF      541    if (isa<AllocaInst>(V))", BranchBoth, "541"},
		{"compound condition", "  tf    543b       isa<GlobalValue>(V) &&", BranchBoth, "543b"},
		{"compound condition at column zero", "tf    873        LocVT == MVT::i16) {", BranchBoth, "873"},
		{"taken lower case", "  -->t  543c                              !isa<GlobalAlias>(V))", BranchTaken, "543c"},
		{"taken", "-->T   16780      if (NameR.startswith(\"emcpy.\")) return Intrinsic::memcpy;", BranchTaken, "16780"},
		{"not taken", "-->F   16777      if (NameR.startswith(\"innum.\")) return Intrinsic::minnum;", BranchNotTaken, "16777"},
		{"not taken lower case", "  -->f  875      if (ArgFlags.isSExt())", BranchNotTaken, "875"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.line, inFunctionState())
			require.Equal(t, BranchLine, got.Kind)
			assert.Equal(t, tt.wantKind, got.Branch)
			assert.Equal(t, tt.wantLine, got.Line)
		})
	}

	t.Run("ignored outside a function", func(t *testing.T) {
		got := Classify("TF      541    if (isa<AllocaInst>(V))", inFileState())
		assert.Equal(t, Plain, got.Kind)
	})

	t.Run("unmarked source line", func(t *testing.T) {
		got := Classify("        542      return true;", inFunctionState())
		assert.Equal(t, Plain, got.Kind)
	})
}

func TestClassify_ForStatement(t *testing.T) {
	t.Run("inside a function", func(t *testing.T) {
		got := Classify("TF      600    for (unsigned i = 0,", inFunctionState())
		assert.Equal(t, ForStatement, got.Kind)
		assert.Equal(t, 1, got.Depth)
	})

	t.Run("single line loop is balanced", func(t *testing.T) {
		got := Classify("X       601    for (i = 0; i < n; ++i) {", inFunctionState())
		assert.Equal(t, ForStatement, got.Kind)
		assert.Equal(t, 0, got.Depth)
	})

	t.Run("outside a function", func(t *testing.T) {
		got := Classify("TF      600    for (unsigned i = 0,", inFileState())
		assert.NotEqual(t, ForStatement, got.Kind)
	})

	t.Run("parenthesis in a character literal", func(t *testing.T) {
		got := Classify("TF      11    for (; *p != '('; p++) {", inFunctionState())
		assert.Equal(t, ForStatement, got.Kind)
		assert.Equal(t, 0, got.Depth)
	})

	t.Run("parenthesis in a comment", func(t *testing.T) {
		got := Classify("TF      12    for (i = 0; i < n; i++) // (see above", inFunctionState())
		assert.Equal(t, ForStatement, got.Kind)
		assert.Equal(t, 0, got.Depth)
	})

	t.Run("loop body opened on an unbalanced line", func(t *testing.T) {
		got := Classify("TF      13    for (i = 0; i < count(n; i++) {", inFunctionState())
		assert.Equal(t, ForStatement, got.Kind)
		assert.Equal(t, 0, got.Depth)
	})
}

func TestClassify_PendingForSuppressesFunctionDetection(t *testing.T) {
	st := inFunctionState()
	st.BeginFor(1)

	got := Classify("X       602         e = getNumOperands(); i != e;", st)
	assert.Equal(t, Plain, got.Kind)

	got = Classify("-->     603         helper(i)) {", st)
	assert.Equal(t, Plain, got.Kind)

	got = Classify("  -->t  604         i < limit(x);", st)
	assert.Equal(t, BranchLine, got.Kind, "branch markers still count while a for condition is open")
}

func TestParseState_ContinueFor(t *testing.T) {
	t.Run("line after a balanced for is consumed", func(t *testing.T) {
		st := inFunctionState()
		st.BeginFor(0)
		st.ContinueFor("X       11  foo(")
		assert.False(t, st.PendingFor)
	})

	t.Run("stays pending until parentheses balance", func(t *testing.T) {
		st := inFunctionState()
		st.BeginFor(1)
		st.ContinueFor("X       11      e = size(v);")
		assert.True(t, st.PendingFor)
		st.ContinueFor("        12      ++i) {")
		assert.False(t, st.PendingFor)
	})

	t.Run("literals on continuation lines are ignored", func(t *testing.T) {
		st := inFunctionState()
		st.BeginFor(1)
		st.ContinueFor("        601         *p != '(' && *p != \"((\";")
		assert.True(t, st.PendingFor)
		st.ContinueFor("        602         ++p)")
		assert.False(t, st.PendingFor)
	})

	t.Run("opening the loop body clears the flag", func(t *testing.T) {
		st := inFunctionState()
		st.BeginFor(2)
		st.ContinueFor("        11      i < n;")
		assert.True(t, st.PendingFor)
		st.ContinueFor("        12      ++i) {")
		assert.False(t, st.PendingFor)
	})

	t.Run("suppression is bounded", func(t *testing.T) {
		st := inFunctionState()
		st.BeginFor(5)
		for i := 1; i < maxForLines; i++ {
			st.ContinueFor("        20      a,")
			require.True(t, st.PendingFor, "line %d", i)
		}
		st.ContinueFor("        24      b,")
		assert.False(t, st.PendingFor)
	})

	t.Run("entering a file clears the flag", func(t *testing.T) {
		st := inFunctionState()
		st.BeginFor(3)
		st.EnterFile("/src/other.cpp")
		assert.False(t, st.PendingFor)
		assert.False(t, st.InFunction)
	})
}

func TestBranchCounts(t *testing.T) {
	b := make(BranchCounts)
	b.Add(BranchTaken, "10")
	b.Add(BranchTaken, "10")
	b.Add(BranchBoth, "543a")

	assert.Equal(t, 2, b.Count(BranchTaken), "repeated visits are retained")
	assert.Equal(t, []string{"10", "10"}, b[BranchTaken])
	assert.Equal(t, 0, b.Count(BranchNotTaken))

	_, ok := b.Incomplete()
	assert.False(t, ok)

	clone := b.Clone()
	b.Add(BranchTaken, "11")
	assert.Len(t, clone[BranchTaken], 2)

	b.Add(MarkerIncomplete, "99")
	line, ok := b.Incomplete()
	assert.True(t, ok)
	assert.Equal(t, "99", line)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "branch", BranchLine.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestStripLiterals(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"plain code", "for (i = 0; i < n; i++) {", "for (i = 0; i < n; i++) {"},
		{"character literal", "*p != '('", "*p != "},
		{"escaped quote", `c == '\'' || s == "a\")"`, "c ==  || s == "},
		{"string literal", `strcmp(s, "((")`, "strcmp(s, )"},
		{"line comment", "i++) // (", "i++) "},
		{"block comment", "i /* ( */ < n", "i  < n"},
		{"unterminated block comment", "i < n /* (", "i < n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripLiterals(tt.line))
		})
	}
}
