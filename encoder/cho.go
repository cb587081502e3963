package encoder

import (
	"github.com/spinlab/fv1asm/fixedpoint"
	"github.com/spinlab/fv1asm/parser"
)

// CHO word layout (spec.md §4.6 gives the per-mode field list but not a full
// bit map; the mode-disambiguation bits below are this implementation's own
// resolution of that gap, recorded in DESIGN.md):
//
//	bit 31       RDAL marker (1 = RDAL encoding, 0 = RDA/SOF encoding)
//	bit 30       (RDA/SOF only) 0 = RDA, 1 = SOF
//	bits 24:21   (RDAL only) LFO selector N, 4 bits (covers {0,1,2,3,8,9})
//	bits 22:21   (RDA/SOF only) LFO selector N, 2 bits
//	bits 29:24   (RDA/SOF only) flags, 6 bits
//	bits 20:5    (RDA) addr, 16 bits; (SOF) D, S.15, 16 bits
//
// The markers live in bits 30/31, outside the flags field (bits 24:29), so
// that no combination of the documented CHO flags (spec.md §4.7: REG,
// COMPC, COMPA, RPTR2, NA at bits 1:5 of the flags field) can ever alias a
// mode marker.
const (
	choRDALMarker = uint32(1) << 31
	choSOFMarker  = uint32(1) << 30
)

// encodeCHO dispatches on the mode symbol in the first operand (spec.md
// §4.6).
func (e *Encoder) encodeCHO(s *parser.Statement) (uint32, error) {
	if len(s.OperandToks) == 0 {
		return 0, errf(s.Line, "CHO: missing mode operand")
	}

	modeVal, err := e.eval(s.OperandToks[0])
	if err != nil {
		return 0, err
	}

	switch int(modeVal) {
	case 0: // RDA
		return e.encodeChoRDA(s)
	case 2: // SOF
		return e.encodeChoSOF(s)
	case 3: // RDAL
		return e.encodeChoRDAL(s)
	default:
		return 0, errf(s.Line, "CHO: invalid mode selector %v", modeVal)
	}
}

func (e *Encoder) encodeChoRDA(s *parser.Statement) (uint32, error) {
	if err := requireOperands(s, 4); err != nil {
		return 0, err
	}
	n, err := e.encodeInt(s.OperandToks[1])
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 3 {
		return 0, errf(s.Line, "CHO RDA: LFO selector %d out of range [0,3]", n)
	}
	flags, err := e.encodeInt(s.OperandToks[2])
	if err != nil {
		return 0, err
	}
	addr, err := e.encodeInt(s.OperandToks[3])
	if err != nil {
		return 0, err
	}

	return uint32(OpCHO) | (uint32(flags)&0x3F)<<24 | (uint32(n)&0x3)<<21 | (uint32(addr)&0xFFFF)<<5, nil
}

func (e *Encoder) encodeChoSOF(s *parser.Statement) (uint32, error) {
	if err := requireOperands(s, 4); err != nil {
		return 0, err
	}
	n, err := e.encodeInt(s.OperandToks[1])
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 3 {
		return 0, errf(s.Line, "CHO SOF: LFO selector %d out of range [0,3]", n)
	}
	flags, err := e.encodeInt(s.OperandToks[2])
	if err != nil {
		return 0, err
	}
	d, err := e.encodeFixed(fixedpoint.S0_15, s.OperandToks[3])
	if err != nil {
		return 0, err
	}

	return uint32(OpCHO) | choSOFMarker | (uint32(flags)&0x3F)<<24 | (uint32(n)&0x3)<<21 | d<<5, nil
}

func (e *Encoder) encodeChoRDAL(s *parser.Statement) (uint32, error) {
	if err := requireOperands(s, 2); err != nil {
		return 0, err
	}
	n, err := e.encodeInt(s.OperandToks[1])
	if err != nil {
		return 0, err
	}
	if !rdalSelectors[int(n)] {
		return 0, errf(s.Line, "CHO RDAL: invalid LFO selector %d", n)
	}

	return uint32(OpCHO) | choRDALMarker | (uint32(n)&0xF)<<21, nil
}
