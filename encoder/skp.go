package encoder

import "github.com/spinlab/fv1asm/parser"

const skpFlagMask = uint32(0xF8000000)

// encodeSKP handles SKP flags, N — N may be a label, in which case it is
// converted to a relative skip count against the next instruction (spec.md
// §4.6).
func (e *Encoder) encodeSKP(s *parser.Statement, idx int) (uint32, error) {
	if err := requireOperands(s, 2); err != nil {
		return 0, err
	}

	flagsVal, err := e.eval(s.OperandToks[0])
	if err != nil {
		return 0, err
	}

	n, err := e.resolveSkipTarget(s.OperandToks[1], idx)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 63 {
		return 0, errf(s.Line, "SKP: skip count %d out of range [0,63]", n)
	}

	return uint32(OpSKP) | (uint32(int64(flagsVal))&skpFlagMask) | uint32(n)<<21, nil
}

// encodeJMP is an alias of SKP with flags=0 (spec.md §4.6).
func (e *Encoder) encodeJMP(s *parser.Statement, idx int) (uint32, error) {
	if err := requireOperands(s, 1); err != nil {
		return 0, err
	}
	n, err := e.resolveSkipTarget(s.OperandToks[0], idx)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 63 {
		return 0, errf(s.Line, "JMP: skip count %d out of range [0,63]", n)
	}
	return uint32(OpSKP) | uint32(n)<<21, nil
}

// resolveSkipTarget evaluates a SKP/JMP target: a bare label identifier is
// relative to the instruction after this one; anything else is a literal
// skip count.
func (e *Encoder) resolveSkipTarget(toks []parser.Token, idx int) (int64, error) {
	if len(toks) == 1 && toks[0].Type == parser.TokenIdentifier {
		if target, ok := e.labels[toks[0].Literal]; ok {
			return int64(target - (idx + 1)), nil
		}
	}
	return e.encodeInt(toks)
}
