package debugger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakpointManagerAddAssignsSequentialIDs(t *testing.T) {
	bm := NewBreakpointManager()

	bp1 := bm.Add(4, false, "")
	bp2 := bm.Add(10, true, "ACC == 0")

	require.NotNil(t, bp1)
	require.NotNil(t, bp2)
	assert.Equal(t, 1, bp1.ID)
	assert.Equal(t, 2, bp2.ID)
	assert.True(t, bp1.Enabled)
	assert.True(t, bp2.Temporary)
	assert.Equal(t, "ACC == 0", bp2.Condition)
}

func TestBreakpointManagerAddAtSameIndexReplaces(t *testing.T) {
	bm := NewBreakpointManager()
	bm.Add(4, false, "")
	bp := bm.Add(4, true, "LR > 0")

	assert.Equal(t, 1, bp.ID)
	assert.True(t, bp.Temporary)
	assert.Equal(t, "LR > 0", bp.Condition)
	assert.Equal(t, 1, len(bm.All()))
}

func TestBreakpointManagerRemove(t *testing.T) {
	bm := NewBreakpointManager()
	bm.Add(4, false, "")

	require.NoError(t, bm.Remove(4))
	assert.False(t, bm.Has(4))
	assert.Error(t, bm.Remove(4))
}

func TestBreakpointManagerSetAllReplacesSet(t *testing.T) {
	bm := NewBreakpointManager()
	bm.Add(1, false, "")

	bm.SetAll(map[int]bool{5: true, 9: true})

	assert.False(t, bm.Has(1))
	assert.True(t, bm.Has(5))
	assert.True(t, bm.Has(9))
	assert.Equal(t, 2, len(bm.All()))
}

func TestBreakpointManagerProcessHitRemovesTemporary(t *testing.T) {
	bm := NewBreakpointManager()
	bm.Add(7, true, "")

	hit := bm.ProcessHit(7)
	require.NotNil(t, hit)
	assert.Equal(t, 1, hit.HitCount)
	assert.False(t, bm.Has(7))
}

func TestBreakpointManagerProcessHitKeepsPermanent(t *testing.T) {
	bm := NewBreakpointManager()
	bm.Add(7, false, "")

	bm.ProcessHit(7)
	bm.ProcessHit(7)

	bp := bm.Get(7)
	require.NotNil(t, bp)
	assert.Equal(t, 2, bp.HitCount)
}

func TestBreakpointManagerIndicesOnlyIncludesEnabled(t *testing.T) {
	bm := NewBreakpointManager()
	bm.Add(2, false, "")
	bp := bm.Add(3, false, "")
	bp.Enabled = false

	indices := bm.Indices()
	assert.True(t, indices[2])
	assert.False(t, indices[3])
}
