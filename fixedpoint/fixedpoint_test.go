package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		f    Format
		x    float64
	}{
		{"S1.14 zero", S1_14, 0},
		{"S1.14 positive", S1_14, 1.5},
		{"S1.14 negative", S1_14, -1.75},
		{"S.15 near max", S0_15, 0.999},
		{"S1.9 negative", S1_9, -1.25},
		{"S.10 fraction", S0_10, 0.5},
		{"S4.6 large", S4_6, 15.5},
		{"S4.6 min", S4_6, -16},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bits, err := Encode(tc.f, tc.x, false)
			require.NoError(t, err)

			got := Decode(tc.f, bits)
			lsb := 1.0 / float64(int64(1)<<uint(tc.f.Frac))
			assert.InDelta(t, tc.x, got, lsb)
		})
	}
}

func TestEncodeOutOfRangeFailsWithoutClamp(t *testing.T) {
	_, err := Encode(S1_14, 3.0, false)
	require.Error(t, err)
	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
}

func TestEncodeClampsWhenRequested(t *testing.T) {
	bits, err := Encode(S1_14, 3.0, true)
	require.NoError(t, err)
	assert.InDelta(t, S1_14.Max(), Decode(S1_14, bits), 1.0/16384)

	bits, err = Encode(S1_14, -3.0, true)
	require.NoError(t, err)
	assert.Equal(t, S1_14.Min(), Decode(S1_14, bits))
}

func TestDoubleNegativeSignsStackMultiplicatively(t *testing.T) {
	// "--0.5" is parsed upstream as Unary(-, Unary(-, 0.5)) == +0.5; verify
	// the codec itself is agnostic to sign folding, only the evaluator does it.
	bits, err := Encode(S0_15, 0.5, false)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, Decode(S0_15, bits), 1.0/32768)
}

func TestMask24Truncates(t *testing.T) {
	assert.Equal(t, uint32(0x00FFFFFF), Mask24(0xFFFFFFFF))
	assert.Equal(t, uint32(0), Mask24(0))
	assert.Equal(t, uint32(0x123456), Mask24(0x123456))
}

func TestWidthAndBounds(t *testing.T) {
	assert.Equal(t, 16, S1_14.Width())
	assert.Equal(t, -2.0, S1_14.Min())
	assert.InDelta(t, 2.0-1.0/16384, S1_14.Max(), 1e-12)

	assert.Equal(t, 11, S4_6.Width())
	assert.Equal(t, -16.0, S4_6.Min())
}
