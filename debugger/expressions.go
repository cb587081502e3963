package debugger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spinlab/fv1asm/parser"
	"github.com/spinlab/fv1asm/sim"
)

// Metadata is the read-only symbol/memory information the assembler hands
// to a debug session (spec.md §3: "Metadata shared between them... is held
// by value by both after assembly; the simulator treats it as read-only"),
// grounded on assemble.Result's Symbols/Memories fields.
type Metadata struct {
	Symbols map[string]float64
	Memory  map[string]MemInfo
	MemBug  bool
}

// MemInfo is the subset of parser.MemRegion an evaluate() expression needs.
type MemInfo struct {
	Start, Middle, End int
}

// NewMetadata builds a Metadata snapshot from assembled symbol/memory
// tables, the values an api session caches alongside a loaded program.
func NewMetadata(symbols map[string]float64, mems map[string]MemInfo, memBug bool) Metadata {
	return Metadata{Symbols: symbols, Memory: mems, MemBug: memBug}
}

var delayIndexRe = regexp.MustCompile(`(?i)^DELAY\[(.+)\]$`)

// Evaluate resolves a single debug-session expression against live
// simulator state (spec.md §4.9): register names, ACC/PACC/LR, EQU symbol
// names (dereferenced when their value is a register index), MEM_NAME /
// MEM_NAME^ / MEM_NAME# (dereferenced into delay RAM), and DELAY[idx].
// Grounded on the teacher's debugger/expressions.go ExpressionEvaluator,
// generalized from ARM register/memory references to FV-1's register file
// plus circular delay RAM.
func Evaluate(expr string, st *sim.State, delay *sim.Delay, meta Metadata) (label string, value float64, err error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", 0, fmt.Errorf("empty expression")
	}

	if m := delayIndexRe.FindStringSubmatch(expr); m != nil {
		idxLabel, idxVal, err := Evaluate(m[1], st, delay, meta)
		if err != nil {
			return "", 0, fmt.Errorf("DELAY[%s]: %w", idxLabel, err)
		}
		return expr, delay.Raw(int(idxVal)), nil
	}

	toks := parser.NewLexer(expr).Tokenize()
	ast, err := parser.NewExprParser(stripNewlines(toks)).Parse()
	if err != nil {
		return "", 0, err
	}

	v, err := parser.Eval(ast, resolver(st, delay, meta))
	if err != nil {
		return "", 0, err
	}
	return expr, v, nil
}

func stripNewlines(toks []parser.Token) []parser.Token {
	out := make([]parser.Token, 0, len(toks))
	for _, t := range toks {
		if t.Type == parser.TokenNewline {
			continue
		}
		out = append(out, t)
	}
	return out
}

// resolver builds the identifier lookup used by the live expression
// evaluator: register names and EQU symbols that address the register
// file resolve to REG[n]'s current value; ACC/PACC/LR read directly off
// state; MEM names dereference into delay RAM at start/middle/end.
func resolver(st *sim.State, delay *sim.Delay, meta Metadata) parser.Resolve {
	return func(name string) (float64, bool) {
		upper := strings.ToUpper(name)

		switch upper {
		case "ACC":
			return st.ACC, true
		case "PACC":
			return st.PACC, true
		case "LR":
			return st.LR, true
		}

		if strings.HasSuffix(name, "#") {
			base := strings.TrimSuffix(name, "#")
			if m, ok := meta.Memory[base]; ok {
				if meta.MemBug {
					return delay.Raw(m.End + 1), true
				}
				return delay.Raw(m.End), true
			}
			return 0, false
		}
		if strings.HasSuffix(name, "^") {
			base := strings.TrimSuffix(name, "^")
			if m, ok := meta.Memory[base]; ok {
				return float64(delay.Raw(m.Middle)), true
			}
			return 0, false
		}
		if m, ok := meta.Memory[name]; ok {
			return float64(delay.Raw(m.Start)), true
		}

		if idx, ok := registerIndex(name, meta); ok {
			return st.Reg[idx], true
		}

		if v, ok := meta.Symbols[name]; ok {
			return v, true
		}

		return 0, false
	}
}

// registerIndex reports whether name denotes a register file address
// in [0, sim.RegCount), either as a predefined register name or an EQU
// symbol whose folded value falls in that range (spec.md §4.9: "EQU
// symbol names (dereferenced if their value is a register index in
// [0,63])").
func registerIndex(name string, meta Metadata) (int, bool) {
	v, ok := meta.Symbols[name]
	if !ok {
		return 0, false
	}
	if v != float64(int(v)) || v < 0 || v >= sim.RegCount {
		return 0, false
	}
	// Flag/selector predefined symbols (RUN, ZRC, ...) and CHO-mode
	// selectors (RDA, SOF, RDAL) also fold into small integers but are not
	// register addresses; exclude the ones the predefined table defines
	// outside the register-file's address space by name.
	switch name {
	case "RUN", "ZRC", "ZRO", "GEZ", "NEG", "RDA", "SOF", "RDAL",
		"REG", "COMPC", "COMPA", "RPTR2", "NA",
		"SIN0", "SIN1", "RMP0", "RMP1", "COS0", "COS1":
		return 0, false
	}
	return int(v), true
}

// FormatValue renders a numeric evaluate() result the way a debug client
// displays it: integral values as decimal, fractional accumulator-range
// values with fixed precision.
func FormatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
