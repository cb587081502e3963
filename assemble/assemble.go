// Package assemble ties the parser and encoder packages together into the
// assembler's three-pass pipeline (spec.md §4.4) and produces the final
// padded program image plus diagnostics (spec.md §6: "Assembler result").
// It plays the role the teacher repo's loader.LoadProgramIntoVM plays
// between parser and encoder, except the result here is a standalone image
// rather than a live VM load.
package assemble

import (
	"github.com/spinlab/fv1asm/encoder"
	"github.com/spinlab/fv1asm/parser"
)

// LabelInfo describes where a label was defined and which instruction it
// points to.
type LabelInfo struct {
	Line             int
	InstructionIndex int
}

// SymbolInfo is the externally visible form of a resolved EQU symbol
// (spec.md §3, §6).
type SymbolInfo struct {
	Name       string
	Value      string
	SourceLine int
}

// MemInfo is the externally visible form of an allocated MEM region.
type MemInfo struct {
	Name   string
	Size   int
	Start  int
	Middle int
	End    int
	Line   int
}

// Result is the full "Assembler result" described in spec.md §6.
type Result struct {
	Program           []uint32
	Problems          []Problem
	Labels            map[string]LabelInfo
	Symbols           []SymbolInfo
	Memories          []MemInfo
	AddressToLine     map[int]int
	UsedRegisterCount int
}

// Problem is one diagnostic line/fatal flag/message triple.
type Problem struct {
	Message string
	Fatal   bool
	Line    int
}

// Assemble runs the full pipeline over source and returns the program image
// plus diagnostics. Any fatal diagnostic causes Program to be empty (spec.md
// §7); non-fatal diagnostics (warnings, duplicate EQU) never suppress
// emission.
func Assemble(source string, opts parser.Options) *Result {
	diags := &parser.Diagnostics{}

	prog := parser.BuildProgram(source, opts, diags)
	encRes := encoder.EncodeAll(prog, opts, diags)

	result := &Result{
		Labels:        make(map[string]LabelInfo, len(prog.Labels)),
		AddressToLine: make(map[int]int),
	}

	for name, idx := range prog.Labels {
		result.Labels[name] = LabelInfo{Line: prog.LabelLines[name], InstructionIndex: idx}
	}

	for _, sym := range userSymbols(prog.Symbols) {
		result.Symbols = append(result.Symbols, SymbolInfo{Name: sym.Name, Value: sym.Value, SourceLine: sym.Line})
	}

	for _, m := range prog.Mems.All() {
		result.Memories = append(result.Memories, MemInfo{
			Name: m.Name, Size: m.Size, Start: m.Start, Middle: m.Middle, End: m.End, Line: m.Line,
		})
	}

	for _, d := range diags.All() {
		result.Problems = append(result.Problems, Problem{Message: d.Message, Fatal: d.Fatal, Line: d.Pos.Line})
	}

	if diags.HasFatal() {
		return result
	}

	result.AddressToLine = encRes.AddressToLine
	result.UsedRegisterCount = len(encRes.UsedRegisters)
	result.Program = padImage(encRes.Words, opts.ProgSize)

	return result
}

// padImage pads words with the NOP encoding up to size words (spec.md §3,
// §8). The encoder already enforces the capacity bound, so words is never
// longer than size here.
func padImage(words []uint32, size int) []uint32 {
	img := make([]uint32, size)
	copy(img, words)
	for i := len(words); i < size; i++ {
		img[i] = encoder.NOPWord
	}
	return img
}

// userSymbols returns only the symbols a program actually defined, in
// definition order, excluding the fixed predefined register/flag names.
func userSymbols(st *parser.SymbolTable) []*parser.Symbol {
	var out []*parser.Symbol
	for _, name := range st.Order() {
		sym := st.Get(name)
		if sym.Line > 0 {
			out = append(out, sym)
		}
	}
	return out
}
