package parser

import "strings"

// StmtKind tags the variant of a Statement (spec.md §3).
type StmtKind int

const (
	StmtLabel StmtKind = iota
	StmtDirective
	StmtInstruction
)

// DirKind distinguishes EQU from MEM directives.
type DirKind int

const (
	DirEqu DirKind = iota
	DirMem
)

// Statement is a single parsed line element. Only the fields relevant to
// Kind are populated (spec.md §3, §9: tagged variant, not a class hierarchy).
type Statement struct {
	Kind StmtKind
	Line int

	// StmtLabel
	Label string

	// StmtDirective
	DirKind   DirKind
	Name      string
	ValueToks []Token

	// StmtInstruction
	Mnemonic    string
	OperandToks [][]Token
}

func isDirectiveWord(lit string) (DirKind, bool) {
	switch strings.ToUpper(lit) {
	case "EQU":
		return DirEqu, true
	case "MEM":
		return DirMem, true
	}
	return 0, false
}

// ParseStatements tokenizes source line by line and produces the statement
// list (spec.md §4.3). A label line may be followed by a second statement
// on the same physical line ("any text following a label... is treated as a
// second statement", spec.md §4.3).
func ParseStatements(source string) ([]*Statement, *Diagnostics) {
	diags := &Diagnostics{}
	var stmts []*Statement

	lines := strings.Split(source, "\n")
	for i, line := range lines {
		lineNo := i + 1
		toks := lineTokens(line)
		parseLine(toks, lineNo, &stmts, diags)
	}

	return stmts, diags
}

// lineTokens tokenizes one physical line, stripping the trailing EOF/newline
// markers the Lexer otherwise appends.
func lineTokens(line string) []Token {
	toks := NewLexer(line).Tokenize()
	var out []Token
	for _, t := range toks {
		if t.Type == TokenEOF || t.Type == TokenNewline {
			continue
		}
		out = append(out, t)
	}
	return out
}

func parseLine(toks []Token, lineNo int, stmts *[]*Statement, diags *Diagnostics) {
	if len(toks) == 0 {
		return
	}

	if toks[0].Type == TokenColon {
		diags.Fatal(toks[0].Pos, DiagEmptyLabel, "empty label")
		return
	}

	// Label: IDENTIFIER ':' [rest...]
	if toks[0].Type == TokenIdentifier && len(toks) > 1 && toks[1].Type == TokenColon {
		*stmts = append(*stmts, &Statement{Kind: StmtLabel, Line: lineNo, Label: toks[0].Literal})
		rest := toks[2:]
		if len(rest) > 0 {
			parseLine(rest, lineNo, stmts, diags)
		}
		return
	}

	// Directive: "NAME EQU|MEM EXPR" or "EQU|MEM NAME EXPR"
	if len(toks) >= 2 {
		if kind, ok := isDirectiveWord(toks[0].Literal); ok && toks[0].Type == TokenIdentifier {
			if len(toks) < 2 {
				diags.Fatal(toks[0].Pos, DiagSyntax, "%s: missing name", toks[0].Literal)
				return
			}
			*stmts = append(*stmts, &Statement{
				Kind: StmtDirective, Line: lineNo, DirKind: kind,
				Name: toks[1].Literal, ValueToks: toks[2:],
			})
			return
		}
		if kind, ok := isDirectiveWord(toks[1].Literal); ok && toks[1].Type == TokenIdentifier {
			*stmts = append(*stmts, &Statement{
				Kind: StmtDirective, Line: lineNo, DirKind: kind,
				Name: toks[0].Literal, ValueToks: toks[2:],
			})
			return
		}
	}

	// Instruction: MNEMONIC [operand [, operand ...]]
	mnemonic := toks[0].Literal
	operands := splitOperands(toks[1:])
	*stmts = append(*stmts, &Statement{Kind: StmtInstruction, Line: lineNo, Mnemonic: mnemonic, OperandToks: operands})
}

// splitOperands splits a token slice on top-level commas, respecting
// parenthesis nesting.
func splitOperands(toks []Token) [][]Token {
	if len(toks) == 0 {
		return nil
	}

	var operands [][]Token
	var cur []Token
	depth := 0
	for _, t := range toks {
		switch t.Type {
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--
		case TokenComma:
			if depth == 0 {
				operands = append(operands, cur)
				cur = nil
				continue
			}
		}
		cur = append(cur, t)
	}
	operands = append(operands, cur)
	return operands
}
