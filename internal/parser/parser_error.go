package parser

import (
	"fmt"

	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/lexer"
)

// Error is a structured parse error: the offending token, its location,
// and what was expected (spec.md section 4.2, "Fails with ParseError
// referring to the offending token's location").
type Error struct {
	Pos      ast.Pos
	Message  string
	Got      lexer.Token
	Expected string
}

func (e *Error) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("parse error at %s: %s (expected %s, got %q)", e.Pos, e.Message, e.Expected, e.Got.Literal)
	}
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Message)
}
