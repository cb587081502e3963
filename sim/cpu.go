package sim

import (
	"math"

	"github.com/spinlab/fv1asm/encoder"
	"github.com/spinlab/fv1asm/fixedpoint"
)

// Register file addresses predefined by the assembler's symbol table
// (parser.PredefinedSymbols), shared here so decode and the debug surface
// agree with the encoder on where ADC/DAC/pot values live.
const (
	RegPOT0    = 0x10
	RegPOT1    = 0x11
	RegPOT2    = 0x12
	RegADCL    = 0x14
	RegADCR    = 0x15
	RegDACL    = 0x16
	RegDACR    = 0x17
	RegADDRPTR = 0x18
)

// ProgSize is the fixed program image length (spec.md §3).
const ProgSize = 128

// RunState mirrors the teacher's VM execution-state enum, trimmed to what
// a single-threaded sample interpreter needs.
type RunState int

const (
	StateHalted RunState = iota
	StateRunning
	StateBreakpoint
)

// Sim is the FV-1 cycle-accurate interpreter: a fixed program image driven
// sample-by-sample against a State and a Delay line.
type Sim struct {
	Program       [ProgSize]uint32
	AddressToLine map[int]int

	State *State
	Delay *Delay

	RunState RunState
}

// NewSim builds a simulator with a delay line of the given capacity
// (spec.md §3: default 32768).
func NewSim(delayCapacity int) *Sim {
	return &Sim{
		State: NewState(),
		Delay: NewDelay(delayCapacity),
	}
}

// Load installs a program image, resetting all runtime state (spec.md §6:
// "load resets state and installs the image"). Words beyond ProgSize are
// ignored; a shorter slice leaves the remainder as whatever was already
// loaded (callers should pass an already-NOP-padded image).
func (s *Sim) Load(words []uint32, addressToLine map[int]int) {
	n := len(words)
	if n > ProgSize {
		n = ProgSize
	}
	for i := 0; i < n; i++ {
		s.Program[i] = words[i]
	}
	s.AddressToLine = addressToLine
	s.State.ResetForLoad()
	s.RunState = StateHalted
}

// quantizePot rounds a pot value in [0,1) to 10-bit resolution (spec.md
// §4.7: "Begin").
func quantizePot(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 1-1.0/1024 {
		v = 1 - 1.0/1024
	}
	return math.Floor(v*1024) / 1024
}

func satADC(v float64) float64 {
	return Clamp(v)
}

// Sample runs one full pass of the program against one set of inputs,
// returning the (DACL, DACR) outputs (spec.md §4.7).
func (s *Sim) Sample(inL, inR, pot0, pot1, pot2 float64) (outL, outR float64) {
	st := s.State

	st.Reg[RegADCL] = satADC(inL)
	st.Reg[RegADCR] = satADC(inR)
	st.Reg[RegPOT0] = quantizePot(pot0)
	st.Reg[RegPOT1] = quantizePot(pot1)
	st.Reg[RegPOT2] = quantizePot(pot2)
	st.ACC, st.LR, st.PACC = 0, 0, 0
	st.PC = 0

	for st.PC < ProgSize {
		s.step()
	}

	st.AdvanceLFOs()
	s.Delay.Advance()
	st.FirstRun = false

	return st.Reg[RegDACL], st.Reg[RegDACR]
}

// ProcessBlock advances len(inL) samples, honoring no breakpoints (spec.md
// §6: "process_block").
func (s *Sim) ProcessBlock(inL, inR []float64, pot0, pot1, pot2 float64) (outL, outR []float64) {
	n := len(inL)
	outL = make([]float64, n)
	outR = make([]float64, n)
	for i := 0; i < n; i++ {
		outL[i], outR[i] = s.Sample(inL[i], inR[i], pot0, pot1, pot2)
	}
	return outL, outR
}

// StepOne executes a single instruction, wrapping to a new sample boundary
// when PC reaches ProgSize (spec.md §4.9). Call BeginSample first for a
// fresh sample's inputs; StepOne itself performs the End-of-sample work
// (LFO advance, dptr decrement, DACL/DACR already written by the program)
// as soon as PC reaches ProgSize, and leaves PC there so a caller can see
// the sample finished; the next StepOne call restarts at PC 0.
func (s *Sim) StepOne() {
	st := s.State
	if st.PC >= ProgSize {
		st.PC = 0
	}
	s.step()
	if st.PC >= ProgSize {
		st.AdvanceLFOs()
		s.Delay.Advance()
		st.FirstRun = false
	}
}

// BeginSample performs the per-sample Begin step (spec.md §4.7) without
// running any instructions, for single-stepped debug sessions.
func (s *Sim) BeginSample(inL, inR, pot0, pot1, pot2 float64) {
	st := s.State
	st.Reg[RegADCL] = satADC(inL)
	st.Reg[RegADCR] = satADC(inR)
	st.Reg[RegPOT0] = quantizePot(pot0)
	st.Reg[RegPOT1] = quantizePot(pot1)
	st.Reg[RegPOT2] = quantizePot(pot2)
	st.ACC, st.LR, st.PACC = 0, 0, 0
	st.PC = 0
}

// RunUntilBreak runs whole samples from the given input source until a
// breakpoint trips or budget samples have been produced, whichever first
// (spec.md §4.9). feed supplies (inL, inR) for each sample index; the
// sample in progress when a break occurs is reported incomplete: its
// outputs are not appended, so len(outL) is less than budget.
func (s *Sim) RunUntilBreak(feed func(i int) (float64, float64), budget int, pot0, pot1, pot2 float64) (outL, outR []float64, hitBreak bool) {
	outL = make([]float64, 0, budget)
	outR = make([]float64, 0, budget)

	for i := 0; i < budget; i++ {
		inL, inR := feed(i)
		s.BeginSample(inL, inR, pot0, pot1, pot2)
		s.RunState = StateRunning

		for s.State.PC < ProgSize {
			if s.State.Breakpoints[s.State.PC] {
				s.RunState = StateBreakpoint
				return outL, outR, true
			}
			s.step()
		}

		s.State.AdvanceLFOs()
		s.Delay.Advance()
		s.State.FirstRun = false

		outL = append(outL, s.State.Reg[RegDACL])
		outR = append(outR, s.State.Reg[RegDACR])
	}

	s.RunState = StateHalted
	return outL, outR, false
}

// step executes the instruction at the current PC and advances PC
// (spec.md §4.7: "Execute").
func (s *Sim) step() {
	st := s.State
	word := s.Program[st.PC]

	pre := st.ACC
	skip := s.execute(word)

	op := encoder.Opcode(word & 0x1F)
	if op != encoder.OpSKP {
		st.PACC = pre
	}

	st.PC += 1 + skip
}

// execute decodes and runs one instruction word, returning the additional
// PC advance a taken SKP contributes (0 for every other instruction).
func (s *Sim) execute(word uint32) int {
	st := s.State
	op := encoder.Opcode(word & 0x1F)

	switch op {
	case encoder.OpSOF:
		c := fixedpoint.Decode(fixedpoint.S1_14, word>>16)
		d := fixedpoint.Decode(fixedpoint.S0_10, word>>5)
		st.ACC = Clamp(st.ACC*c + d)

	case encoder.OpEXP:
		c := fixedpoint.Decode(fixedpoint.S1_14, word>>16)
		d := fixedpoint.Decode(fixedpoint.S0_10, word>>5)
		st.ACC = Clamp(math.Pow(2, st.ACC*16)*c + d)

	case encoder.OpLOG:
		c := fixedpoint.Decode(fixedpoint.S1_14, word>>16)
		d := fixedpoint.Decode(fixedpoint.S4_6, word>>5)
		mag := math.Abs(st.ACC)
		if mag < math.Pow(2, -16) {
			mag = math.Pow(2, -16)
		}
		st.ACC = Clamp((math.Log2(mag)*c + d) / 16)

	case encoder.OpAND:
		m := (word >> 8) & 0xFFFFFF
		st.ACC = bitwiseACC(st.ACC, func(a uint32) uint32 { return a & m })
	case encoder.OpOR:
		m := (word >> 8) & 0xFFFFFF
		st.ACC = bitwiseACC(st.ACC, func(a uint32) uint32 { return a | m })
	case encoder.OpXOR:
		m := (word >> 8) & 0xFFFFFF
		st.ACC = bitwiseACC(st.ACC, func(a uint32) uint32 { return a ^ m })

	case encoder.OpRDAX:
		c := fixedpoint.Decode(fixedpoint.S1_14, word>>16)
		a := (word >> 5) & 0x3F
		st.ACC = Clamp(st.ACC + st.Reg[a]*c)
	case encoder.OpWRAX:
		c := fixedpoint.Decode(fixedpoint.S1_14, word>>16)
		a := (word >> 5) & 0x3F
		st.Reg[a] = st.ACC
		st.ACC = Clamp(st.ACC * c)
	case encoder.OpMAXX:
		c := fixedpoint.Decode(fixedpoint.S1_14, word>>16)
		a := (word >> 5) & 0x3F
		st.ACC = Clamp(math.Max(math.Abs(st.ACC), math.Abs(st.Reg[a]*c)))
	case encoder.OpRDFX:
		c := fixedpoint.Decode(fixedpoint.S1_14, word>>16)
		a := (word >> 5) & 0x3F
		st.ACC = Clamp((st.ACC-st.Reg[a])*c + st.Reg[a])
	case encoder.OpWRLX:
		c := fixedpoint.Decode(fixedpoint.S1_14, word>>16)
		a := (word >> 5) & 0x3F
		st.Reg[a] = st.ACC
		st.ACC = Clamp((st.PACC-st.ACC)*c + st.PACC)
	case encoder.OpWRHX:
		c := fixedpoint.Decode(fixedpoint.S1_14, word>>16)
		a := (word >> 5) & 0x3F
		st.Reg[a] = st.ACC
		st.ACC = Clamp(st.PACC + st.ACC*c)
	case encoder.OpMULX:
		a := (word >> 5) & 0x3F
		st.ACC = Clamp(st.ACC * st.Reg[a])

	case encoder.OpRDA:
		c := fixedpoint.Decode(fixedpoint.S1_9, word>>21)
		addr := int((word >> 5) & 0xFFFF)
		v := s.Delay.At(addr)
		st.LR = v
		st.ACC = Clamp(st.ACC + v*c)
	case encoder.OpWRA:
		c := fixedpoint.Decode(fixedpoint.S1_9, word>>21)
		addr := int((word >> 5) & 0xFFFF)
		s.Delay.Write(addr, st.ACC)
		st.ACC = Clamp(st.ACC * c)
	case encoder.OpWRAP:
		c := fixedpoint.Decode(fixedpoint.S1_9, word>>21)
		addr := int((word >> 5) & 0xFFFF)
		s.Delay.Write(addr, st.ACC)
		st.ACC = Clamp(st.ACC*c + st.LR)
	case encoder.OpRMPA:
		c := fixedpoint.Decode(fixedpoint.S1_9, word>>21)
		addr := int(st.Reg[RegADDRPTR])
		v := s.Delay.At(addr)
		st.LR = v
		st.ACC = Clamp(st.ACC + v*c)

	case encoder.OpWLD:
		s.executeWLD(word)
	case encoder.OpJAM:
		sel := int((word >> 6) & 1)
		st.JAM(sel)

	case encoder.OpCHO:
		s.executeCHO(word)

	case encoder.OpSKP:
		flags := word & 0xF8000000
		n := int((word >> 21) & 0x3F)
		if skipConditionMet(st, flags) {
			return n
		}
	}

	return 0
}

func bitwiseACC(acc float64, f func(uint32) uint32) float64 {
	bits := uint32(int64(math.Floor(acc*8388608))) & 0xFFFFFF
	result := f(bits) & 0xFFFFFF
	signed := int32(result << 8) >> 8
	return Clamp(float64(signed) / 8388608)
}

func skipConditionMet(st *State, flags uint32) bool {
	if flags == 0 {
		return true
	}
	cond := false
	if flags&encoder.FlagRUN != 0 {
		cond = cond || !st.FirstRun
	}
	if flags&encoder.FlagZRC != 0 {
		cond = cond || (st.ACC > 0 && st.PACC < 0) || (st.ACC < 0 && st.PACC > 0)
	}
	if flags&encoder.FlagZRO != 0 {
		cond = cond || st.ACC == 0
	}
	if flags&encoder.FlagGEZ != 0 {
		cond = cond || st.ACC >= 0
	}
	if flags&encoder.FlagNEG != 0 {
		cond = cond || st.ACC < 0
	}
	return cond
}

func (s *Sim) executeWLD(word uint32) {
	st := s.State
	if word&(1<<30) == 0 {
		nbit := int((word >> 29) & 1)
		f := float64((word >> 20) & 0x1FF)
		a := float64((word >> 5) & 0x7FFF)
		st.WLDS(nbit, f, a)
		return
	}

	nbit := int((word >> 29) & 1)
	raw := uint16((word >> 13) & 0xFFFF)
	fField := int32(int16(raw)) // sign-extend the 16-bit frequency field
	a := (word >> 5) & 0x3
	amplitudes := [4]float64{4096, 2048, 1024, 512}
	st.WLDR(nbit, float64(fField), amplitudes[a])
}

func (s *Sim) executeCHO(word uint32) {
	st := s.State
	const rdalMarker = uint32(1) << 31
	const sofMarker = uint32(1) << 30

	if word&rdalMarker != 0 {
		n := int((word >> 21) & 0xF)
		v, _ := st.lfoValue(n)
		st.ACC = Clamp(v)
		return
	}

	flags := (word >> 24) & 0x3F
	n := int((word >> 21) & 0x3)

	if word&sofMarker != 0 {
		d := fixedpoint.Decode(fixedpoint.S0_15, word>>5)
		v, _ := st.choSample(n, flags)
		st.ACC = Clamp(v*st.ACC + d)
		return
	}

	addr := int((word >> 5) & 0xFFFF)
	v, rng := st.choSample(n, flags)
	pos := rng * v
	base := int(math.Floor(pos))
	frac := pos - float64(base)
	s0 := s.Delay.At(addr + base)
	s1 := s.Delay.At(addr + base + 1)
	sample := s0*(1-frac) + s1*frac
	st.LR = sample
	st.ACC = Clamp(st.ACC + sample)
}
