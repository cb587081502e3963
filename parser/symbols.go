package parser

import (
	"fmt"
	"strings"
)

// Symbol is a named EQU binding. Value is kept as source text (spec.md §3)
// because re-substitution of later definitions into earlier ones requires
// re-folding the text, not just the last numeric result.
type Symbol struct {
	Name   string
	Value  string
	Line   int
	Number float64
	Folded bool
}

// SymbolTable holds predefined names plus user EQU bindings, in definition
// order, so that the iterative substitution pass (spec.md §4.4, §9) can walk
// them in the same order SpinASM does.
type SymbolTable struct {
	order  []string
	byName map[string]*Symbol
}

func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{byName: make(map[string]*Symbol)}
	for name, val := range PredefinedSymbols() {
		st.order = append(st.order, name)
		st.byName[name] = &Symbol{Name: name, Value: formatNumber(val), Number: val, Folded: true, Line: 0}
	}
	return st
}

// formatNumber renders a float as compact decimal text for re-substitution.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

// Order returns symbol names in definition order (predefined names first).
func (st *SymbolTable) Order() []string { return st.order }

// Get returns the full Symbol record for name, or nil.
func (st *SymbolTable) Get(name string) *Symbol { return st.byName[name] }

// Has reports whether name is bound (predefined or user EQU).
func (st *SymbolTable) Has(name string) bool {
	_, ok := st.byName[name]
	return ok
}

// Lookup returns the folded numeric value of name, if known.
func (st *SymbolTable) Lookup(name string) (float64, bool) {
	sym, ok := st.byName[name]
	if !ok || !sym.Folded {
		return 0, false
	}
	return sym.Number, true
}

// DefineEqu installs or replaces an EQU binding. Duplicate EQU is a warning
// that replaces the prior value (spec.md §4.4); callers must check label/MEM
// collisions themselves before calling this (fatal per spec.md §3).
func (st *SymbolTable) DefineEqu(name, exprText string, line int, diags *Diagnostics) {
	if sym, exists := st.byName[name]; exists && sym.Line != 0 {
		diags.Warn(Position{Line: line}, DiagDuplicateSymbol, "duplicate EQU %q, replacing previous value", name)
	}

	newSym := &Symbol{Name: name, Value: exprText, Line: line}
	if _, exists := st.byName[name]; !exists {
		st.order = append(st.order, name)
	}
	st.byName[name] = newSym

	// Re-substitute the new name into every prior symbol's text, then
	// re-fold everything in definition order (spec.md §4.4, §9: iterative
	// fixpoint over EQU values, bounded number of passes).
	for pass := 0; pass < len(st.order)+1; pass++ {
		changed := false
		for _, other := range st.order {
			sym := st.byName[other]
			substituted := substituteToken(sym.Value, name, newSym.Value)
			if substituted != sym.Value {
				sym.Value = substituted
				sym.Folded = false
				changed = true
			}
		}
		for _, other := range st.order {
			sym := st.byName[other]
			if sym.Folded {
				continue
			}
			if v, ok := st.tryFold(sym.Value); ok {
				sym.Number = v
				sym.Folded = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}

// tryFold attempts to parse and evaluate text as a constant expression
// against the symbols already folded in this table.
func (st *SymbolTable) tryFold(text string) (float64, bool) {
	toks := NewLexer(text).Tokenize()
	var filtered []Token
	for _, t := range toks {
		if t.Type != TokenNewline {
			filtered = append(filtered, t)
		}
	}
	expr, err := NewExprParser(filtered).Parse()
	if err != nil {
		return 0, false
	}
	v, err := Eval(expr, func(name string) (float64, bool) { return st.Lookup(name) })
	if err != nil {
		return 0, false
	}
	return v, true
}

// substituteToken replaces whole-token occurrences of name in text with
// replacement. "Whole token" uses the same identifier-character class as the
// lexer (letters, digits, underscore, '#', '^') so e.g. "FOO" never matches
// inside "FOOBAR" or "FOO#" (spec.md §9).
func substituteToken(text, name, replacement string) string {
	if name == "" {
		return text
	}
	var sb strings.Builder
	i := 0
	for {
		idx := strings.Index(text[i:], name)
		if idx < 0 {
			sb.WriteString(text[i:])
			break
		}
		start := i + idx
		end := start + len(name)

		beforeOK := start == 0 || !isIdentChar(rune(text[start-1]))
		afterOK := end == len(text) || !isIdentChar(rune(text[end]))

		sb.WriteString(text[i:start])
		if beforeOK && afterOK {
			sb.WriteString("(")
			sb.WriteString(replacement)
			sb.WriteString(")")
		} else {
			sb.WriteString(name)
		}
		i = end
	}
	return sb.String()
}

// PredefinedSymbols returns the fixed register/flag name mapping installed
// before any user EQU (spec.md §3).
func PredefinedSymbols() map[string]float64 {
	m := map[string]float64{
		"SIN0_RATE": 0x00, "SIN0_RANGE": 0x01,
		"SIN1_RATE": 0x02, "SIN1_RANGE": 0x03,
		"RMP0_RATE": 0x04, "RMP0_RANGE": 0x05,
		"RMP1_RATE": 0x06, "RMP1_RANGE": 0x07,
		"POT0": 0x10, "POT1": 0x11, "POT2": 0x12,
		"ADCL": 0x14, "ADCR": 0x15,
		"DACL": 0x16, "DACR": 0x17,
		"ADDR_PTR": 0x18,

		"RUN": 0x80000000,
		"ZRC": 0x40000000,
		"ZRO": 0x20000000,
		"GEZ": 0x10000000,
		"NEG": 0x08000000,

		"SIN0": 0, "SIN1": 1, "RMP0": 2, "RMP1": 3,
		"COS0": 8, "COS1": 9,

		"RDA": 0, "SOF": 2, "RDAL": 3,

		"REG": 1 << 1,
		"COMPC": 1 << 2,
		"COMPA": 1 << 3,
		"RPTR2": 1 << 4,
		"NA":    1 << 5,
	}
	for i := 0; i <= 31; i++ {
		m[fmt.Sprintf("REG%d", i)] = float64(0x20 + i)
	}

	// SpinASM identifiers are case-insensitive (only mnemonics are folded
	// elsewhere, in encoder.encodeOne's strings.ToUpper(s.Mnemonic)); register
	// every predefined name's lowercase form too so operands like
	// "cho rdal, sin0" resolve the same as "CHO RDAL, SIN0".
	type entry struct {
		name string
		val  float64
	}
	lowered := make([]entry, 0, len(m))
	for name, val := range m {
		lowered = append(lowered, entry{strings.ToLower(name), val})
	}
	for _, e := range lowered {
		if _, exists := m[e.name]; !exists {
			m[e.name] = e.val
		}
	}
	return m
}
