package parser

import "strings"

// Program is the result of pass 1 (directives) and pass 2 (labels): the
// statement list plus the fully resolved symbol/MEM/label tables that pass 3
// (encoder.EncodeAll) consumes.
type Program struct {
	Statements []*Statement
	Symbols    *SymbolTable
	Mems       *MemAllocator
	Labels     map[string]int
	LabelLines map[string]int
}

// Options controls allocator capacity and the SpinASM-compatibility quirks
// (spec.md §6: "Assembler options").
type Options struct {
	MemBug     bool
	ClampReals bool
	RegCount   int
	ProgSize   int
	DelaySize  int
}

// DefaultOptions matches spec.md §6's stated defaults.
func DefaultOptions() Options {
	return Options{
		MemBug:     true,
		ClampReals: false,
		RegCount:   32,
		ProgSize:   128,
		DelaySize:  32768,
	}
}

func tokensToText(toks []Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.Literal
	}
	return strings.Join(parts, " ")
}

// ResolveDirectives runs pass 1: installs predefined symbols, then for each
// EQU/MEM statement installs or allocates the binding (spec.md §4.4).
func ResolveDirectives(stmts []*Statement, opts Options, diags *Diagnostics) (*SymbolTable, *MemAllocator) {
	symtab := NewSymbolTable()
	mems := NewMemAllocator(opts.DelaySize, opts.MemBug)

	labelNames := make(map[string]bool)
	for _, s := range stmts {
		if s.Kind == StmtLabel {
			labelNames[s.Label] = true
		}
	}

	for _, s := range stmts {
		if s.Kind != StmtDirective {
			continue
		}

		switch s.DirKind {
		case DirEqu:
			if mems.Has(s.Name) {
				diags.Fatal(Position{Line: s.Line}, DiagInvalidEqu, "EQU %q collides with an existing MEM region", s.Name)
				continue
			}
			if labelNames[s.Name] {
				diags.Fatal(Position{Line: s.Line}, DiagSymbolCollision, "EQU %q collides with a label", s.Name)
				continue
			}
			symtab.DefineEqu(s.Name, tokensToText(s.ValueToks), s.Line, diags)

		case DirMem:
			if symtab.Has(s.Name) {
				diags.Fatal(Position{Line: s.Line}, DiagSymbolCollision, "MEM %q collides with an existing EQU symbol", s.Name)
				continue
			}
			if labelNames[s.Name] {
				diags.Fatal(Position{Line: s.Line}, DiagSymbolCollision, "MEM %q collides with a label", s.Name)
				continue
			}

			expr, err := NewExprParser(s.ValueToks).Parse()
			if err != nil {
				diags.Fatal(Position{Line: s.Line}, DiagInvalidMemSize, "MEM %q: %v", s.Name, err)
				continue
			}
			size, err := Eval(expr, func(name string) (float64, bool) { return symtab.Lookup(name) })
			if err != nil {
				diags.Fatal(Position{Line: s.Line}, DiagInvalidMemSize, "MEM %q: %v", s.Name, err)
				continue
			}

			mems.Allocate(s.Name, int(size), s.Line, diags)
		}
	}

	return symtab, mems
}

// IndexLabels runs pass 2: assigns each label the zero-based instruction
// index of the next instruction to be emitted (spec.md §4.4). Directives and
// bare labels do not advance the index.
func IndexLabels(stmts []*Statement, diags *Diagnostics) map[string]int {
	labels := make(map[string]int)
	idx := 0

	for _, s := range stmts {
		switch s.Kind {
		case StmtLabel:
			if _, exists := labels[s.Label]; exists {
				diags.Fatal(Position{Line: s.Line}, DiagDuplicateSymbol, "duplicate label %q", s.Label)
				continue
			}
			labels[s.Label] = idx
		case StmtInstruction:
			idx++
		}
	}

	return labels
}

// BuildProgram runs passes 1 and 2 and assembles the Program the encoder
// consumes.
func BuildProgram(source string, opts Options, diags *Diagnostics) *Program {
	stmts, parseDiags := ParseStatements(source)
	diags.items = append(diags.items, parseDiags.items...)

	symtab, mems := ResolveDirectives(stmts, opts, diags)
	labels := IndexLabels(stmts, diags)

	labelLines := make(map[string]int)
	for _, s := range stmts {
		if s.Kind == StmtLabel {
			labelLines[s.Label] = s.Line
		}
	}

	return &Program{Statements: stmts, Symbols: symtab, Mems: mems, Labels: labels, LabelLines: labelLines}
}
