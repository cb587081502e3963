package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDelayAtAndWriteAreRelativeToPointer(t *testing.T) {
	d := NewDelay(8)
	d.Write(0, 1.5)
	assert.Equal(t, 1.5, d.At(0))
	assert.Equal(t, 0.0, d.At(1))
}

func TestDelayAdvanceDecrementsPointerModCapacity(t *testing.T) {
	d := NewDelay(4)
	assert.Equal(t, 0, d.Pointer())
	d.Advance()
	assert.Equal(t, 3, d.Pointer())
	d.Advance()
	d.Advance()
	d.Advance()
	assert.Equal(t, 0, d.Pointer())
}

func TestDelayOffsetsWrapAroundCapacity(t *testing.T) {
	d := NewDelay(4)
	d.Write(-1, 9.0)
	assert.Equal(t, 9.0, d.At(3))
	assert.Equal(t, 9.0, d.Raw(3))
}

func TestDelayLen(t *testing.T) {
	d := NewDelay(32768)
	assert.Equal(t, 32768, d.Len())
}
