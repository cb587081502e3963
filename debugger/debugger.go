package debugger

import (
	"fmt"

	"github.com/spinlab/fv1asm/sim"
)

// Debugger wraps a sim.Sim with breakpoint management, step/run control,
// and live expression evaluation (spec.md §4.9), grounded on the teacher's
// debugger/debugger.go glue struct (VM + BreakpointManager + Evaluator),
// trimmed to what a single-threaded sample interpreter needs — FV-1 has no
// call stack, so there is no step-over/step-out distinction to track.
type Debugger struct {
	Sim         *sim.Sim
	Breakpoints *BreakpointManager
	Metadata    Metadata

	// paused is read between sample boundaries by RunUntilBreak's caller
	// loop so a live-audio host can cancel a run without tearing down the
	// session (spec.md §5: "a pause action that clears a run-loop flag
	// read between sample boundaries").
	paused bool
}

// NewDebugger creates a debug session around an already-constructed
// simulator.
func NewDebugger(s *sim.Sim) *Debugger {
	return &Debugger{
		Sim:         s,
		Breakpoints: NewBreakpointManager(),
	}
}

// Load installs a program image and metadata, resetting runtime state and
// the breakpoint set's binding to instruction indices is left untouched —
// breakpoints persist across reloads of the same program the way the
// teacher's debugger keeps breakpoints across a VM reset.
func (d *Debugger) Load(words []uint32, addressToLine map[int]int, meta Metadata) {
	d.Sim.Load(words, addressToLine)
	d.Metadata = meta
	d.syncBreakpoints()
}

// syncBreakpoints copies the manager's enabled set into the simulator's
// plain map, which the interpreter's run loop checks every instruction.
func (d *Debugger) syncBreakpoints() {
	d.Sim.State.Breakpoints = d.Breakpoints.Indices()
}

// SetBreakpoints replaces the full breakpoint set (spec.md §6:
// "set_breakpoints").
func (d *Debugger) SetBreakpoints(indices map[int]bool) {
	d.Breakpoints.SetAll(indices)
	d.syncBreakpoints()
}

// AddBreakpoint installs one breakpoint and keeps the simulator's fast-path
// set in sync.
func (d *Debugger) AddBreakpoint(index int, temporary bool, condition string) *Breakpoint {
	bp := d.Breakpoints.Add(index, temporary, condition)
	d.syncBreakpoints()
	return bp
}

// RemoveBreakpoint deletes one breakpoint.
func (d *Debugger) RemoveBreakpoint(index int) error {
	if err := d.Breakpoints.Remove(index); err != nil {
		return err
	}
	d.syncBreakpoints()
	return nil
}

// Pause requests that an in-progress RunUntilBreak stop at the next sample
// boundary (spec.md §5).
func (d *Debugger) Pause() { d.paused = true }

// Resume clears a previously requested pause.
func (d *Debugger) Resume() { d.paused = false }

// Step executes a single instruction via the underlying simulator (spec.md
// §4.9: "step_one() runs a single instruction, wrapping to sample boundary
// when PC reaches program_capacity").
func (d *Debugger) Step() {
	d.Sim.StepOne()
}

// RunSamples runs whole samples, honoring breakpoints and the pause flag,
// until budget samples complete, a breakpoint trips, or the session is
// paused (spec.md §4.9: "run_until_break(budget)").
func (d *Debugger) RunSamples(feed func(i int) (float64, float64), budget int, pot0, pot1, pot2 float64) (outL, outR []float64, hitBreak bool) {
	d.Resume()
	outL = make([]float64, 0, budget)
	outR = make([]float64, 0, budget)

	for i := 0; i < budget; i++ {
		if d.paused {
			return outL, outR, false
		}
		inL, inR := feed(i)
		one := func(j int) (float64, float64) { return inL, inR }
		l, r, hit := d.Sim.RunUntilBreak(one, 1, pot0, pot1, pot2)
		outL = append(outL, l...)
		outR = append(outR, r...)
		if hit {
			if bp := d.Breakpoints.ProcessHit(d.Sim.State.PC); bp != nil {
				d.syncBreakpoints()
			}
			return outL, outR, true
		}
	}
	return outL, outR, false
}

// Evaluate resolves an expression over the live simulator state (spec.md
// §4.9, §6: "evaluate(expression) -> (label, value)?").
func (d *Debugger) Evaluate(expr string) (label string, value float64, err error) {
	return Evaluate(expr, d.Sim.State, d.Sim.Delay, d.Metadata)
}

// SetRegister writes a register, ignoring out-of-range indices (spec.md
// §7: "out-of-range indices to set_register are ignored").
func (d *Debugger) SetRegister(index int, value float64) {
	if index < 0 || index >= sim.RegCount {
		return
	}
	d.Sim.State.Reg[index] = value
}

// SetACC writes the accumulator directly, saturating it the way any other
// write does (spec.md §6: "set_acc").
func (d *Debugger) SetACC(value float64) {
	d.Sim.State.ACC = sim.Clamp(value)
}

// StateSnapshot is an immutable read of the simulator's runtime state for a
// debug client (spec.md §6: "get_state").
type StateSnapshot struct {
	ACC, PACC, LR float64
	PC            int
	Registers     [sim.RegCount]float64
	DelayPointer  int
	RunState      sim.RunState
	FirstRun      bool
}

// GetState snapshots the simulator's current runtime state.
func (d *Debugger) GetState() StateSnapshot {
	st := d.Sim.State
	return StateSnapshot{
		ACC:          st.ACC,
		PACC:         st.PACC,
		LR:           st.LR,
		PC:           st.PC,
		Registers:    st.Reg,
		DelayPointer: d.Sim.Delay.Pointer(),
		RunState:     d.Sim.RunState,
		FirstRun:     st.FirstRun,
	}
}

// String renders a one-line human-readable status, used by the CLI's
// interactive mode and in test failure messages.
func (s StateSnapshot) String() string {
	return fmt.Sprintf("PC=%d ACC=%.6f PACC=%.6f LR=%.6f dptr=%d", s.PC, s.ACC, s.PACC, s.LR, s.DelayPointer)
}
