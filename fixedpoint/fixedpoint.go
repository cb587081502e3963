// Package fixedpoint implements the signed fixed-point formats used by the
// FV-1 instruction set (S1.14, S.15, S1.9, S.10, S4.6) plus the 24-bit
// integer masks used by AND/OR/XOR.
package fixedpoint

import (
	"fmt"
	"math"
)

// Format describes one of the chip's signed fixed-point encodings: one sign
// bit, Int integer bits, and Frac fractional bits.
type Format struct {
	Name string
	Int  int
	Frac int
}

// Width is the total bit width of the encoded field (sign + integer + fraction).
func (f Format) Width() int { return 1 + f.Int + f.Frac }

// Min and Max are the representable real-valued bounds, inclusive.
func (f Format) Min() float64 { return -math.Pow(2, float64(f.Int)) }
func (f Format) Max() float64 {
	return math.Pow(2, float64(f.Int)) - math.Pow(2, -float64(f.Frac))
}

var (
	S1_14 = Format{Name: "S1.14", Int: 1, Frac: 14}
	S0_15 = Format{Name: "S.15", Int: 0, Frac: 15}
	S1_9  = Format{Name: "S1.9", Int: 1, Frac: 9}
	S0_10 = Format{Name: "S.10", Int: 0, Frac: 10}
	S4_6  = Format{Name: "S4.6", Int: 4, Frac: 6}
)

// RangeError reports that a literal fell outside a format's representable
// range and clamping was not requested.
type RangeError struct {
	Format Format
	Value  float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("value %g out of range for %s [%g, %g]", e.Value, e.Format.Name, e.Format.Min(), e.Format.Max())
}

// Encode converts a real value into the unsigned two's-complement bit
// pattern for f, in the low Width() bits of the returned word. Values
// outside [Min, Max] are clamped if clamp is true, otherwise Encode returns
// a *RangeError.
func Encode(f Format, x float64, clamp bool) (uint32, error) {
	if x < f.Min() || x > f.Max() {
		if !clamp {
			return 0, &RangeError{Format: f, Value: x}
		}
		if x < f.Min() {
			x = f.Min()
		} else {
			x = f.Max()
		}
	}

	scaled := x * math.Pow(2, float64(f.Frac))
	k := int64(math.Trunc(scaled))

	width := uint(f.Width())
	mask := uint64(1)<<width - 1
	return uint32(uint64(k) & mask), nil
}

// Decode sign-extends a Width()-bit field and returns the real value it
// represents under format f.
func Decode(f Format, bits uint32) float64 {
	width := uint(f.Width())
	mask := uint32(1)<<width - 1
	v := bits & mask

	signBit := uint32(1) << (width - 1)
	var signed int64
	if v&signBit != 0 {
		signed = int64(v) - int64(1<<width)
	} else {
		signed = int64(v)
	}

	return float64(signed) / math.Pow(2, float64(f.Frac))
}

// Mask24 parses an unsigned 24-bit literal, truncating to the low 24 bits.
func Mask24(x float64) uint32 {
	return uint32(int64(math.Trunc(x))) & 0x00FFFFFF
}
