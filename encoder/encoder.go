package encoder

import (
	"strings"

	"github.com/spinlab/fv1asm/fixedpoint"
	"github.com/spinlab/fv1asm/parser"
)

// Result is the output of pass 3 (spec.md §4.4): one word per emitted
// instruction, its source line, and the set of user register addresses
// (0x20-0x3F) the program touches.
type Result struct {
	Words         []uint32
	AddressToLine map[int]int
	UsedRegisters map[int]bool
}

// Encoder converts parsed instruction statements into FV-1 machine words.
type Encoder struct {
	resolver parser.Resolve
	opts     parser.Options
	labels   map[string]int
}

func NewEncoder(symtab *parser.SymbolTable, mems *parser.MemAllocator, labels map[string]int, opts parser.Options) *Encoder {
	return &Encoder{
		resolver: parser.BuildResolver(symtab, mems, labels, opts.MemBug),
		opts:     opts,
		labels:   labels,
	}
}

// EncodeAll runs pass 3 over prog's statements (spec.md §4.4). Individual
// instruction errors are collected as fatal diagnostics and encoding
// continues so multiple problems surface in one run; the only early exit is
// program-capacity overflow, reported once at the overflowing line.
func EncodeAll(prog *parser.Program, opts parser.Options, diags *parser.Diagnostics) *Result {
	enc := NewEncoder(prog.Symbols, prog.Mems, prog.Labels, opts)

	res := &Result{AddressToLine: make(map[int]int), UsedRegisters: make(map[int]bool)}
	idx := 0

	for _, s := range prog.Statements {
		if s.Kind != parser.StmtInstruction {
			continue
		}

		if idx >= opts.ProgSize {
			diags.Fatal(parser.Position{Line: s.Line}, parser.DiagProgramOverflow,
				"program exceeds capacity of %d instructions", opts.ProgSize)
			break
		}

		word, err := enc.encodeOne(s, idx, res.UsedRegisters)
		if err != nil {
			diags.Fatal(parser.Position{Line: s.Line}, parser.DiagOutOfRange, "%v", err)
			word = 0
		}

		res.Words = append(res.Words, word)
		res.AddressToLine[idx] = s.Line
		idx++
	}

	return res
}

func (e *Encoder) eval(toks []parser.Token) (float64, error) {
	expr, err := parser.NewExprParser(toks).Parse()
	if err != nil {
		return 0, err
	}
	return parser.Eval(expr, e.resolver)
}

func (e *Encoder) encodeFixed(f fixedpoint.Format, toks []parser.Token) (uint32, error) {
	v, err := e.eval(toks)
	if err != nil {
		return 0, err
	}
	return fixedpoint.Encode(f, v, e.opts.ClampReals)
}

func (e *Encoder) encodeInt(toks []parser.Token) (int64, error) {
	v, err := e.eval(toks)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

func requireOperands(s *parser.Statement, n int) error {
	if len(s.OperandToks) != n {
		return errf(s.Line, "%s: expected %d operand(s), got %d", s.Mnemonic, n, len(s.OperandToks))
	}
	return nil
}

func (e *Encoder) encodeOne(s *parser.Statement, idx int, used map[int]bool) (uint32, error) {
	m := strings.ToUpper(s.Mnemonic)

	switch m {
	case "SOF":
		return e.encodeCD(s, OpSOF, fixedpoint.S1_14, fixedpoint.S0_10)
	case "EXP":
		return e.encodeCD(s, OpEXP, fixedpoint.S1_14, fixedpoint.S0_10)
	case "LOG":
		return e.encodeCD(s, OpLOG, fixedpoint.S1_14, fixedpoint.S4_6)

	case "AND":
		return e.encodeMask(s, OpAND)
	case "OR":
		return e.encodeMask(s, OpOR)
	case "XOR":
		return e.encodeMask(s, OpXOR)

	case "CLR":
		if err := requireOperands(s, 0); err != nil {
			return 0, err
		}
		return uint32(OpAND), nil
	case "NOT":
		if err := requireOperands(s, 0); err != nil {
			return 0, err
		}
		return uint32(OpXOR), nil
	case "ABSA":
		if err := requireOperands(s, 0); err != nil {
			return 0, err
		}
		return uint32(OpMAXX), nil

	case "RDAX", "WRAX", "MAXX", "WRLX", "WRHX":
		return e.encodeCRegA(s, opcodeFor(m), used)
	case "RDFX":
		return e.encodeCRegA(s, OpRDFX, used)
	case "LDAX":
		if err := requireOperands(s, 1); err != nil {
			return 0, err
		}
		a, err := e.encodeInt(s.OperandToks[0])
		if err != nil {
			return 0, err
		}
		addr := int(a) & 0x3F
		if addr >= 0x20 {
			used[addr] = true
		}
		return uint32(OpRDFX) | (uint32(a)&0x3F)<<5, nil
	case "MULX":
		if err := requireOperands(s, 1); err != nil {
			return 0, err
		}
		a, err := e.encodeInt(s.OperandToks[0])
		if err != nil {
			return 0, err
		}
		addr := int(a) & 0x3F
		if addr >= 0x20 {
			used[addr] = true
		}
		return uint32(OpMULX) | (uint32(a)&0x3F)<<5, nil

	case "RDA", "WRA", "WRAP":
		return e.encodeDelay(s, opcodeFor(m))
	case "RMPA":
		return e.encodeRMPA(s)

	case "WLDS":
		return e.encodeWLDS(s)
	case "WLDR":
		return e.encodeWLDR(s)
	case "JAM":
		return e.encodeJAM(s)

	case "SKP":
		return e.encodeSKP(s, idx)
	case "JMP":
		return e.encodeJMP(s, idx)
	case "NOP":
		if err := requireOperands(s, 0); err != nil {
			return 0, err
		}
		return NOPWord, nil

	case "CHO":
		return e.encodeCHO(s)

	default:
		return 0, errf(s.Line, "unknown mnemonic %q", s.Mnemonic)
	}
}

func opcodeFor(mnemonic string) Opcode {
	switch mnemonic {
	case "RDAX":
		return OpRDAX
	case "WRAX":
		return OpWRAX
	case "MAXX":
		return OpMAXX
	case "WRLX":
		return OpWRLX
	case "WRHX":
		return OpWRHX
	case "RDA":
		return OpRDA
	case "WRA":
		return OpWRA
	case "WRAP":
		return OpWRAP
	}
	return 0
}

// encodeCD handles the common SOF/EXP/LOG shape: C:<<16, D:<<5.
func (e *Encoder) encodeCD(s *parser.Statement, op Opcode, cf, df fixedpoint.Format) (uint32, error) {
	if err := requireOperands(s, 2); err != nil {
		return 0, err
	}
	c, err := e.encodeFixed(cf, s.OperandToks[0])
	if err != nil {
		return 0, err
	}
	d, err := e.encodeFixed(df, s.OperandToks[1])
	if err != nil {
		return 0, err
	}
	return uint32(op) | c<<16 | d<<5, nil
}

func (e *Encoder) encodeMask(s *parser.Statement, op Opcode) (uint32, error) {
	if err := requireOperands(s, 1); err != nil {
		return 0, err
	}
	v, err := e.eval(s.OperandToks[0])
	if err != nil {
		return 0, err
	}
	return uint32(op) | fixedpoint.Mask24(v)<<8, nil
}

// encodeCRegA handles RDAX/WRAX/MAXX/RDFX/WRLX/WRHX: operands are the
// register address then the coefficient; C:S1.14<<16, A:6<<5.
func (e *Encoder) encodeCRegA(s *parser.Statement, op Opcode, used map[int]bool) (uint32, error) {
	if err := requireOperands(s, 2); err != nil {
		return 0, err
	}
	c, err := e.encodeFixed(fixedpoint.S1_14, s.OperandToks[1])
	if err != nil {
		return 0, err
	}
	a, err := e.encodeInt(s.OperandToks[0])
	if err != nil {
		return 0, err
	}
	addr := int(a) & 0x3F
	if addr >= 0x20 {
		used[addr] = true
	}
	return uint32(op) | c<<16 | uint32(addr)<<5, nil
}

// encodeDelay handles RDA/WRA/WRAP: operands are the delay address then the
// coefficient; C:S1.9<<21, A:16<<5.
func (e *Encoder) encodeDelay(s *parser.Statement, op Opcode) (uint32, error) {
	if err := requireOperands(s, 2); err != nil {
		return 0, err
	}
	c, err := e.encodeFixed(fixedpoint.S1_9, s.OperandToks[1])
	if err != nil {
		return 0, err
	}
	a, err := e.encodeInt(s.OperandToks[0])
	if err != nil {
		return 0, err
	}
	return uint32(op) | c<<21 | (uint32(a)&0xFFFF)<<5, nil
}

func (e *Encoder) encodeRMPA(s *parser.Statement) (uint32, error) {
	if err := requireOperands(s, 1); err != nil {
		return 0, err
	}
	c, err := e.encodeFixed(fixedpoint.S1_9, s.OperandToks[0])
	if err != nil {
		return 0, err
	}
	return uint32(OpRMPA) | c<<21, nil
}
