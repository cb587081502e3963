package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerTokenizesLabelDirectiveInstruction(t *testing.T) {
	toks := lineTokens("start: rdax ADCL, 1.0 ; comment")
	require.Len(t, toks, 6)
	assert.Equal(t, TokenIdentifier, toks[0].Type)
	assert.Equal(t, "start", toks[0].Literal)
	assert.Equal(t, TokenColon, toks[1].Type)
	assert.Equal(t, "rdax", toks[2].Literal)
	assert.Equal(t, "ADCL", toks[3].Literal)
	assert.Equal(t, TokenComma, toks[4].Type)
	assert.Equal(t, "1.0", toks[5].Literal)
}

func TestLexerTrailingHashAndCaretAreIdentifierChars(t *testing.T) {
	toks := lineTokens("rda BUF#, 0.5")
	require.Len(t, toks, 4)
	assert.Equal(t, "BUF#", toks[1].Literal)

	toks = lineTokens("rda BUF^, 0.5")
	assert.Equal(t, "BUF^", toks[1].Literal)
}

func TestParseNumberLiteralFormats(t *testing.T) {
	v, err := ParseNumberLiteral("$FF")
	require.NoError(t, err)
	assert.Equal(t, float64(255), v)

	v, err = ParseNumberLiteral("%1010")
	require.NoError(t, err)
	assert.Equal(t, float64(10), v)

	v, err = ParseNumberLiteral("0.5")
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	v, err = ParseNumberLiteral("1_000")
	require.NoError(t, err)
	assert.Equal(t, float64(1000), v)
}

func evalText(t *testing.T, text string, resolve Resolve) float64 {
	t.Helper()
	toks := lineTokens(text)
	expr, err := NewExprParser(toks).Parse()
	require.NoError(t, err)
	v, err := Eval(expr, resolve)
	require.NoError(t, err)
	return v
}

func TestExpressionPrecedence(t *testing.T) {
	noResolve := func(string) (float64, bool) { return 0, false }

	assert.Equal(t, float64(14), evalText(t, "2 + 3 * 4", noResolve))
	assert.Equal(t, float64(20), evalText(t, "(2 + 3) * 4", noResolve))
	assert.Equal(t, float64(3), evalText(t, "1 | 2 & 3", noResolve)) // & binds same tier as |, left-to-right: (1|2)&3
	assert.Equal(t, float64(-5), evalText(t, "-5", noResolve))
	assert.Equal(t, float64(4), evalText(t, "1 < 2", noResolve)) // left shift
	assert.Equal(t, float64(2), evalText(t, "8 > 2", noResolve)) // right shift
}

func TestDoubleNegationStacksMultiplicatively(t *testing.T) {
	noResolve := func(string) (float64, bool) { return 0, false }
	assert.Equal(t, 0.5, evalText(t, "--0.5", noResolve))
	assert.Equal(t, -0.5, evalText(t, "-+0.5", noResolve))
}

func TestSymbolTableDuplicateEquWarnsAndReplaces(t *testing.T) {
	st := NewSymbolTable()
	diags := &Diagnostics{}
	st.DefineEqu("FOO", "1", 1, diags)
	st.DefineEqu("FOO", "2", 2, diags)

	v, ok := st.Lookup("FOO")
	require.True(t, ok)
	assert.Equal(t, float64(2), v)
	assert.False(t, diags.HasFatal())
	assert.Len(t, diags.All(), 1)
}

func TestSymbolTableIterativeSubstitution(t *testing.T) {
	st := NewSymbolTable()
	diags := &Diagnostics{}
	// A is defined before B; B's definition should retroactively fold into A.
	st.DefineEqu("A", "B + 1", 1, diags)
	st.DefineEqu("B", "2", 2, diags)

	require.False(t, diags.HasFatal())
	v, ok := st.Lookup("A")
	require.True(t, ok, "A should fold once B is known")
	assert.Equal(t, float64(3), v)
}

func TestMemAllocatorBugModeMatchesScenario(t *testing.T) {
	diags := &Diagnostics{}
	a := NewMemAllocator(32768, true)
	buf1 := a.Allocate("BUF1", 100, 1, diags)
	buf2 := a.Allocate("BUF2", 200, 2, diags)
	require.False(t, diags.HasFatal())

	assert.Equal(t, 0, buf1.Start)
	assert.Equal(t, 100, buf1.AddressEnd(true))
	assert.Equal(t, 101, buf2.Start)
	assert.Equal(t, 301, buf2.AddressEnd(true))
}

func TestMemAllocatorNoBugModeMatchesScenario(t *testing.T) {
	diags := &Diagnostics{}
	a := NewMemAllocator(32768, false)
	a.Allocate("BUF1", 100, 1, diags)
	buf2 := a.Allocate("BUF2", 200, 2, diags)
	require.False(t, diags.HasFatal())

	assert.Equal(t, 100, buf2.Start)
	assert.Equal(t, 299, buf2.AddressEnd(false))
}

func TestMemAllocatorCapacityExceeded(t *testing.T) {
	diags := &Diagnostics{}
	a := NewMemAllocator(100, false)
	a.Allocate("BIG", 200, 1, diags)
	assert.True(t, diags.HasFatal())
}

func TestIndexLabelsSkipsDirectivesAndBareLabels(t *testing.T) {
	stmts, diags := ParseStatements("foo:\nrdax ADCL, 1.0\nbar:\nwrax DACL, 0\n")
	require.Empty(t, diags.All())

	labels := IndexLabels(stmts, &Diagnostics{})
	assert.Equal(t, 0, labels["foo"])
	assert.Equal(t, 1, labels["bar"])
}

func TestDuplicateLabelIsFatal(t *testing.T) {
	stmts, _ := ParseStatements("foo:\nnop\nfoo:\nnop\n")
	diags := &Diagnostics{}
	IndexLabels(stmts, diags)
	assert.True(t, diags.HasFatal())
}

func TestEquCollidingWithLabelIsFatal(t *testing.T) {
	diags := &Diagnostics{}
	stmts, _ := ParseStatements("foo:\nnop\nfoo equ 1\n")
	ResolveDirectives(stmts, DefaultOptions(), diags)
	assert.True(t, diags.HasFatal())
}

func TestBuildProgramWordOrderDirectiveFlexibility(t *testing.T) {
	diags := &Diagnostics{}
	prog := BuildProgram("FOO EQU 5\nEQU BAR 6\n", DefaultOptions(), diags)
	require.False(t, diags.HasFatal())

	v, ok := prog.Symbols.Lookup("FOO")
	require.True(t, ok)
	assert.Equal(t, float64(5), v)

	v, ok = prog.Symbols.Lookup("BAR")
	require.True(t, ok)
	assert.Equal(t, float64(6), v)
}
