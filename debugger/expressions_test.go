package debugger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinlab/fv1asm/sim"
)

func testMetadata() Metadata {
	return NewMetadata(
		map[string]float64{
			"ADCL":  0x14,
			"DACL":  0x16,
			"GAIN":  5, // user EQU resolving to a register index
			"RDA":   0, // CHO selector, must NOT resolve as a register
			"RUN":   0x80000000,
		},
		map[string]MemInfo{
			"BUF": {Start: 10, Middle: 15, End: 19},
		},
		true,
	)
}

func TestEvaluateAccPaccLR(t *testing.T) {
	st := sim.NewState()
	st.ACC = 0.5
	st.PACC = -0.25
	st.LR = 0.125
	delay := sim.NewDelay(32)

	_, v, err := Evaluate("ACC", st, delay, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	_, v, err = Evaluate("PACC", st, delay, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, -0.25, v)

	_, v, err = Evaluate("LR", st, delay, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, 0.125, v)
}

func TestEvaluateRegisterNameDereferencesLiveValue(t *testing.T) {
	st := sim.NewState()
	st.Reg[0x14] = 0.75
	delay := sim.NewDelay(32)

	_, v, err := Evaluate("ADCL", st, delay, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, 0.75, v)
}

func TestEvaluateUserSymbolAsRegisterIndex(t *testing.T) {
	st := sim.NewState()
	st.Reg[5] = 0.333
	delay := sim.NewDelay(32)

	_, v, err := Evaluate("GAIN", st, delay, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, 0.333, v)
}

func TestEvaluateChoSelectorSymbolDoesNotDereferenceRegister(t *testing.T) {
	st := sim.NewState()
	st.Reg[0] = 0.999
	delay := sim.NewDelay(32)

	_, v, err := Evaluate("RDA", st, delay, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, float64(0), v)
}

func TestEvaluateMemNameVariants(t *testing.T) {
	st := sim.NewState()
	delay := sim.NewDelay(32)
	delay.Write(10, 1.5)
	delay.Write(15, 2.5)
	delay.Write(20, 3.5)

	_, v, err := Evaluate("BUF", st, delay, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	_, v, err = Evaluate("BUF^", st, delay, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	_, v, err = Evaluate("BUF#", st, delay, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, 3.5, v) // End=19, bug mode -> delay RAM at End+1
}

func TestEvaluateDelayIndex(t *testing.T) {
	st := sim.NewState()
	delay := sim.NewDelay(32)
	delay.Write(0, 0.42)

	_, v, err := Evaluate("DELAY[0]", st, delay, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, 0.42, v)
}

func TestEvaluateUndefinedIdentifierErrors(t *testing.T) {
	st := sim.NewState()
	delay := sim.NewDelay(32)

	_, _, err := Evaluate("NOPE", st, delay, testMetadata())
	assert.Error(t, err)
}

func TestEvaluateArithmeticExpression(t *testing.T) {
	st := sim.NewState()
	st.Reg[0x16] = 3
	delay := sim.NewDelay(32)

	_, v, err := Evaluate("DACL + 2 * 3", st, delay, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, float64(9), v)
}
