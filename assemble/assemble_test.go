package assemble

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinlab/fv1asm/encoder"
	"github.com/spinlab/fv1asm/parser"
)

func TestAssembleEmptyProgramIsAllNopPadding(t *testing.T) {
	res := Assemble("", parser.DefaultOptions())
	require.Empty(t, res.Problems)
	require.Len(t, res.Program, 128)
	for _, w := range res.Program {
		assert.Equal(t, encoder.NOPWord, w)
	}
}

func TestAssembleSimplePassthroughEncodesTwoInstructions(t *testing.T) {
	res := Assemble("rdax ADCL, 1.0\nwrax DACL, 1.0\n", parser.DefaultOptions())
	for _, p := range res.Problems {
		require.False(t, p.Fatal, p.Message)
	}
	require.Len(t, res.Program, 128)
	assert.NotEqual(t, encoder.NOPWord, res.Program[0])
	assert.NotEqual(t, encoder.NOPWord, res.Program[1])
	assert.Equal(t, encoder.NOPWord, res.Program[2])
}

func TestAssembleMemAllocationReportedWithBugModeOn(t *testing.T) {
	opts := parser.DefaultOptions()
	opts.MemBug = true
	res := Assemble("BUF1 MEM 100\nBUF2 MEM 200\n", opts)
	for _, p := range res.Problems {
		require.False(t, p.Fatal, p.Message)
	}
	require.Len(t, res.Memories, 2)

	var buf1, buf2 MemInfo
	for _, m := range res.Memories {
		switch m.Name {
		case "BUF1":
			buf1 = m
		case "BUF2":
			buf2 = m
		}
	}
	assert.Equal(t, 0, buf1.Start)
	assert.Equal(t, 101, buf2.Start)
}

func TestAssembleMemAllocationReportedWithBugModeOff(t *testing.T) {
	opts := parser.DefaultOptions()
	opts.MemBug = false
	res := Assemble("BUF1 MEM 100\nBUF2 MEM 200\n", opts)
	for _, p := range res.Problems {
		require.False(t, p.Fatal, p.Message)
	}

	var buf2 MemInfo
	for _, m := range res.Memories {
		if m.Name == "BUF2" {
			buf2 = m
		}
	}
	assert.Equal(t, 100, buf2.Start)
}

func TestAssembleSkpOverLabelledBlock(t *testing.T) {
	res := Assemble("skp RUN, skip\nand 0\nskip:\nnop\n", parser.DefaultOptions())
	for _, p := range res.Problems {
		require.False(t, p.Fatal, p.Message)
	}
	require.GreaterOrEqual(t, len(res.Program), 3)
	skpWord := res.Program[0]
	assert.Equal(t, uint32(1), (skpWord>>21)&0x3F)
}

func TestAssembleFatalErrorYieldsEmptyProgramButReportsProblem(t *testing.T) {
	res := Assemble("frobnicate 1, 2\n", parser.DefaultOptions())
	assert.Empty(t, res.Program)
	require.NotEmpty(t, res.Problems)
	assert.True(t, res.Problems[0].Fatal)
}

func TestAssembleDuplicateEquIsNonFatalWarning(t *testing.T) {
	res := Assemble("FOO EQU 0.25\nFOO EQU 1.0\nsof FOO, 0\n", parser.DefaultOptions())
	require.NotEmpty(t, res.Problems)
	for _, p := range res.Problems {
		assert.False(t, p.Fatal)
	}
	require.Len(t, res.Program, 128)
	assert.NotEqual(t, encoder.NOPWord, res.Program[0])
}

func TestWriteImageProducesBigEndianWords(t *testing.T) {
	var buf bytes.Buffer
	err := WriteImage(&buf, []uint32{0x00000011, 0xDEADBEEF})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x11, 0xDE, 0xAD, 0xBE, 0xEF}, buf.Bytes())
}

func TestFormatListingRendersOneLinePerInstruction(t *testing.T) {
	listing := FormatListing([]uint32{0x00000011, 0xDEADBEEF})
	assert.Equal(t, "0000\t00000011\n0001\tDEADBEEF\n", listing)
}
