package encoder

import "github.com/spinlab/fv1asm/parser"

// encodeWLDS handles WLDS N,F,A: a sine LFO's rate and range (spec.md §4.6).
func (e *Encoder) encodeWLDS(s *parser.Statement) (uint32, error) {
	if err := requireOperands(s, 3); err != nil {
		return 0, err
	}
	n, err := e.encodeInt(s.OperandToks[0])
	if err != nil {
		return 0, err
	}
	f, err := e.encodeInt(s.OperandToks[1])
	if err != nil {
		return 0, err
	}
	a, err := e.encodeInt(s.OperandToks[2])
	if err != nil {
		return 0, err
	}

	if f < 0 || f > 511 {
		return 0, errf(s.Line, "WLDS: rate %d out of range [0,511]", f)
	}
	if a < 0 || a > 32767 {
		return 0, errf(s.Line, "WLDS: range %d out of range [0,32767]", a)
	}

	nbit := uint32(n) & 1
	return uint32(OpWLD) | nbit<<29 | (uint32(f)&0x1FF)<<20 | (uint32(a)&0x7FFF)<<5, nil
}

// encodeWLDR handles WLDR N,F,A: a ramp LFO's rate and range (spec.md §4.6).
func (e *Encoder) encodeWLDR(s *parser.Statement) (uint32, error) {
	if err := requireOperands(s, 3); err != nil {
		return 0, err
	}
	n, err := e.encodeInt(s.OperandToks[0])
	if err != nil {
		return 0, err
	}
	f, err := e.encodeInt(s.OperandToks[1])
	if err != nil {
		return 0, err
	}
	a, err := e.encodeInt(s.OperandToks[2])
	if err != nil {
		return 0, err
	}

	if f < -16384 || f > 32767 {
		return 0, errf(s.Line, "WLDR: frequency %d out of documented range [-16384,32767]", f)
	}
	acode, ok := wldrAmplitudeCodes[int(a)]
	if !ok {
		return 0, errf(s.Line, "WLDR: amplitude %d must be one of 512, 1024, 2048, 4096", a)
	}

	nbit := uint32(n) & 1
	fField := uint32(f) & 0xFFFF

	return uint32(OpWLD) | 1<<30 | nbit<<29 | fField<<13 | acode<<5, nil
}

// encodeJAM handles JAM N: resets a ramp LFO's phase to zero (spec.md §4.6,
// §4.8).
func (e *Encoder) encodeJAM(s *parser.Statement) (uint32, error) {
	if err := requireOperands(s, 1); err != nil {
		return 0, err
	}
	n, err := e.encodeInt(s.OperandToks[0])
	if err != nil {
		return 0, err
	}
	nbit := uint32(n) & 1
	return uint32(OpJAM) | nbit<<6, nil
}
