package debugger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinlab/fv1asm/assemble"
	"github.com/spinlab/fv1asm/parser"
	"github.com/spinlab/fv1asm/sim"
)

func assembleOrFail(t *testing.T, src string) *assemble.Result {
	t.Helper()
	res := assemble.Assemble(src, parser.DefaultOptions())
	for _, p := range res.Problems {
		require.False(t, p.Fatal, p.Message)
	}
	return res
}

func TestDebuggerStepAdvancesPC(t *testing.T) {
	res := assembleOrFail(t, "rdax ADCL, 1.0\nwrax DACL, 0\n")

	s := sim.NewSim(32768)
	d := NewDebugger(s)
	d.Load(res.Program, res.AddressToLine, Metadata{})

	assert.Equal(t, 0, s.State.PC)
	d.Step()
	assert.Equal(t, 1, s.State.PC)
	d.Step()
	assert.Equal(t, 2, s.State.PC)
}

func TestDebuggerRunUntilBreakStopsAtBreakpoint(t *testing.T) {
	res := assembleOrFail(t, "sof 0,0\nsof 0,0\nsof 0,0\nwrax DACL, 0\n")

	s := sim.NewSim(32768)
	d := NewDebugger(s)
	d.Load(res.Program, res.AddressToLine, Metadata{})
	d.AddBreakpoint(2, false, "")

	feed := func(i int) (float64, float64) { return 0, 0 }
	_, _, hit := d.RunSamples(feed, 1, 0, 0, 0)

	assert.True(t, hit)
	assert.Equal(t, 2, s.State.PC)
	assert.Equal(t, sim.StateBreakpoint, s.RunState)
}

func TestDebuggerRunUntilBreakCompletesWithoutBreakpoint(t *testing.T) {
	res := assembleOrFail(t, "rdax ADCL, 1.0\nwrax DACL, 0\n")

	s := sim.NewSim(32768)
	d := NewDebugger(s)
	d.Load(res.Program, res.AddressToLine, Metadata{})

	feed := func(i int) (float64, float64) { return 0.25, -0.25 }
	outL, _, hit := d.RunSamples(feed, 3, 0, 0, 0)

	assert.False(t, hit)
	require.Len(t, outL, 3)
	assert.InDelta(t, 0.25, outL[0], 1e-9)
}

func TestDebuggerSetRegisterIgnoresOutOfRange(t *testing.T) {
	s := sim.NewSim(32768)
	d := NewDebugger(s)
	d.Load(make([]uint32, 128), nil, Metadata{})

	d.SetRegister(-1, 1.0)
	d.SetRegister(sim.RegCount, 1.0)
	d.SetRegister(3, 0.5)

	assert.Equal(t, 0.5, s.State.Reg[3])
}

func TestDebuggerSetACCSaturates(t *testing.T) {
	s := sim.NewSim(32768)
	d := NewDebugger(s)
	d.Load(make([]uint32, 128), nil, Metadata{})

	d.SetACC(5.0)
	assert.Equal(t, sim.MaxACC, s.State.ACC)
}

func TestDebuggerGetStateSnapshot(t *testing.T) {
	s := sim.NewSim(32768)
	d := NewDebugger(s)
	d.Load(make([]uint32, 128), nil, Metadata{})
	s.State.ACC = 0.1

	snap := d.GetState()
	assert.Equal(t, 0.1, snap.ACC)
	assert.Equal(t, 0, snap.PC)
}
