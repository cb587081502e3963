package sim

import "math"

// LFO selector values, matching the predefined CHO-mode symbol table
// (parser.PredefinedSymbols): SIN0=0, SIN1=1, RMP0=2, RMP1=3, COS0=8, COS1=9.
const (
	SelSin0 = 0
	SelSin1 = 1
	SelRmp0 = 2
	SelRmp1 = 3
	SelCos0 = 8
	SelCos1 = 9
)

// CHO flag bits, matching parser.PredefinedSymbols.
const (
	FlagREG   = 1 << 1
	FlagCOMPC = 1 << 2
	FlagCOMPA = 1 << 3
	FlagRPTR2 = 1 << 4
	FlagNA    = 1 << 5
)

// AdvanceLFOs runs one sample's worth of LFO phase update (spec.md §4.8),
// called once per sample after the program runs.
func (s *State) AdvanceLFOs() {
	s.advanceSine(&s.Sin0Phase, &s.Cos0Phase, s.Sin0.Rate)
	s.advanceSine(&s.Sin1Phase, &s.Cos1Phase, s.Sin1.Rate)
	s.Rmp0Phase = advanceRamp(s.Rmp0Phase, s.Rmp0.Rate)
	s.Rmp1Phase = advanceRamp(s.Rmp1Phase, s.Rmp1.Rate)
}

func (s *State) advanceSine(sinPhase, cosPhase *float64, rate float64) {
	k := rate / 256
	newCos := *cosPhase + k*(*sinPhase)
	newSin := *sinPhase - k*newCos
	*sinPhase, *cosPhase = newSin, newCos
}

func advanceRamp(phase, rate float64) float64 {
	phase -= rate / 4096
	for phase < -1 {
		phase += 2
	}
	for phase >= 1 {
		phase -= 2
	}
	return phase
}

// WLDS installs a sine LFO's rate/range (spec.md §4.8). sel is 0 (SIN0) or
// 1 (SIN1), already collapsed by the encoder's N&1.
func (s *State) WLDS(sel int, f, a float64) {
	pair := LFOPair{Rate: f / 511, Range: a / 32767}
	if sel == 0 {
		s.Sin0 = pair
	} else {
		s.Sin1 = pair
	}
}

// WLDR installs a ramp LFO's rate/range (spec.md §4.8). sel is 0 (RMP0) or
// 1 (RMP1).
func (s *State) WLDR(sel int, f, a float64) {
	pair := LFOPair{Rate: f / 16384, Range: a / 8192}
	if sel == 0 {
		s.Rmp0 = pair
	} else {
		s.Rmp1 = pair
	}
}

// JAM resets a ramp LFO's phase to zero. sel is 0 (RMP0) or 1 (RMP1).
func (s *State) JAM(sel int) {
	if sel == 0 {
		s.Rmp0Phase = 0
	} else {
		s.Rmp1Phase = 0
	}
}

// lfoValue returns the selected LFO's live instantaneous value and its
// Range parameter (spec.md §4.6).
func (s *State) lfoValue(selector int) (value, rng float64) {
	switch selector {
	case SelSin0:
		return s.Sin0Phase, s.Sin0.Range
	case SelSin1:
		return s.Sin1Phase, s.Sin1.Range
	case SelRmp0:
		return s.Rmp0Phase, s.Rmp0.Range
	case SelRmp1:
		return s.Rmp1Phase, s.Rmp1.Range
	case SelCos0:
		return s.Cos0Phase, s.Sin0.Range
	case SelCos1:
		return s.Cos1Phase, s.Sin1.Range
	}
	return 0, 0
}

// choSample resolves a CHO operation's LFO value honoring the flags field
// (spec.md §4.6, §9). This implementation's resolution of the flag
// semantics (undocumented at the bit level in spec.md): REG, when set,
// reuses the hidden per-selector latch instead of resampling the live
// phase, so multiple CHO ops against the same LFO within one sample agree
// on the value; when clear, the live phase is sampled and stored into the
// latch for any later REG read this sample. COMPA/COMPC/RPTR2/NA are then
// applied to that value in the order spec.md §4.6 lists them.
func (s *State) choSample(selector int, flags uint32) (value, rng float64) {
	var v float64
	v, rng = s.lfoValue(selector)

	if flags&FlagREG != 0 {
		v = s.choLatch[selector]
	} else {
		s.choLatch[selector] = v
	}

	if flags&FlagCOMPA != 0 {
		v = -v
	}
	if flags&FlagCOMPC != 0 {
		v = 1 - v
	}
	if flags&FlagRPTR2 != 0 {
		v += 0.5
		for v >= 1 {
			v -= 2
		}
	}
	if flags&FlagNA != 0 {
		v = clip(4*math.Min(v, 1-v)-0.5, 0, 1)
	}

	return v, rng
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
