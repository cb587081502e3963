package parser

import (
	"fmt"
	"strings"
)

// Position is a location in a source file.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// DiagKind categorizes a diagnostic per spec.md §7.
type DiagKind int

const (
	DiagSyntax DiagKind = iota
	DiagUnterminatedExpr
	DiagEmptyLabel
	DiagDuplicateSymbol
	DiagSymbolCollision
	DiagUndefinedIdentifier
	DiagInvalidMemSize
	DiagMemCapacityExceeded
	DiagInvalidEqu
	DiagWrongOperandCount
	DiagOutOfRange
	DiagUnknownMnemonic
	DiagInvalidChoMode
	DiagInvalidWldr
	DiagInvalidJam
	DiagProgramOverflow
	DiagInternal
)

// Diagnostic is a single error or warning produced during assembly.
type Diagnostic struct {
	Pos     Position
	Kind    DiagKind
	Message string
	Fatal   bool
}

func (d *Diagnostic) String() string {
	sev := "warning"
	if d.Fatal {
		sev = "error"
	}
	return fmt.Sprintf("%s: %s: %s", d.Pos, sev, d.Message)
}

// Diagnostics collects every diagnostic raised in an assembly run so that
// multiple problems can be reported from a single pass (spec.md §4.4, §7).
type Diagnostics struct {
	items []*Diagnostic
}

func (d *Diagnostics) Fatal(pos Position, kind DiagKind, format string, args ...any) {
	d.items = append(d.items, &Diagnostic{Pos: pos, Kind: kind, Message: fmt.Sprintf(format, args...), Fatal: true})
}

func (d *Diagnostics) Warn(pos Position, kind DiagKind, format string, args ...any) {
	d.items = append(d.items, &Diagnostic{Pos: pos, Kind: kind, Message: fmt.Sprintf(format, args...), Fatal: false})
}

func (d *Diagnostics) HasFatal() bool {
	for _, it := range d.items {
		if it.Fatal {
			return true
		}
	}
	return false
}

func (d *Diagnostics) All() []*Diagnostic { return d.items }

func (d *Diagnostics) Error() string {
	var sb strings.Builder
	for _, it := range d.items {
		sb.WriteString(it.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
