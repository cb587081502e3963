package parser

import "strings"

// BuildResolver returns a Resolve function usable with Eval for instruction
// operand expressions: it understands plain EQU/predefined symbols, label
// addresses (instruction index), and MEM region references where a trailing
// '#' means the region's end address and '^' means its middle address
// (spec.md §4.4: "NAME^ and NAME# take precedence over NAME").
func BuildResolver(symtab *SymbolTable, mems *MemAllocator, labels map[string]int, bugMode bool) Resolve {
	return func(name string) (float64, bool) {
		if strings.HasSuffix(name, "#") {
			base := strings.TrimSuffix(name, "#")
			if r, ok := mems.Lookup(base); ok {
				return float64(r.AddressEnd(bugMode)), true
			}
			return 0, false
		}
		if strings.HasSuffix(name, "^") {
			base := strings.TrimSuffix(name, "^")
			if r, ok := mems.Lookup(base); ok {
				return float64(r.Middle), true
			}
			return 0, false
		}
		if r, ok := mems.Lookup(name); ok {
			return float64(r.Start), true
		}
		if idx, ok := labels[name]; ok {
			return float64(idx), true
		}
		if v, ok := symtab.Lookup(name); ok {
			return v, true
		}
		return 0, false
	}
}
