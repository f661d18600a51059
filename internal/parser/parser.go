// Package parser implements the recursive-descent, operator-precedence
// parser specified in spec.md section 4.2: token stream in, an ast.Pool
// plus top-level statement list out. The parser is strict — it stops at
// the first Error rather than attempting recovery.
package parser

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/lexer"
)

// Parser consumes tokens from a lexer.Lexer one at a time with one token
// of lookahead, building nodes into an ast.Pool.
type Parser struct {
	l    *lexer.Lexer
	pool *ast.Pool
	path string

	cur  lexer.Token
	peek lexer.Token

	// allowFuncDef gates the `func` literal/definition atom to "extended"
	// language mode, per spec.md section 4.2 ("function-definition, extended
	// mode only").
	allowFuncDef bool
}

// Parse tokenizes and parses src as a complete statement sequence (a file
// or a subdir()-included source). Returns the first error encountered.
func Parse(src []byte, path string, allowFuncDef bool) (*ast.File, error) {
	p := &Parser{
		l:            lexer.New(lexer.Normalize(src), path),
		pool:         ast.NewPool(),
		path:         path,
		allowFuncDef: allowFuncDef,
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	stmts, err := p.parseStatements(lexer.EOF)
	if err != nil {
		return nil, err
	}
	return &ast.File{Pool: p.pool, Statements: stmts, Path: path}, nil
}

func (p *Parser) next() error {
	p.cur = p.peek
	tok, err := p.l.NextToken()
	if err != nil {
		if le, ok := err.(*lexer.Error); ok {
			return &Error{Pos: le.Pos, Message: le.Message}
		}
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) pos() ast.Pos { return p.cur.Pos }

func (p *Parser) at(k lexer.TokenKind) bool { return p.cur.Kind == k }

func (p *Parser) expect(k lexer.TokenKind, what string) (lexer.Token, error) {
	if p.cur.Kind != k {
		return lexer.Token{}, &Error{Pos: p.pos(), Message: "unexpected token", Got: p.cur, Expected: what}
	}
	tok := p.cur
	return tok, p.next()
}

// skipNewlines consumes zero or more NEWLINE tokens (blank lines).
func (p *Parser) skipNewlines() error {
	for p.at(lexer.NEWLINE) {
		if err := p.next(); err != nil {
			return err
		}
	}
	return nil
}

// parseStatements parses statements until `end` is the current token
// (EOF, or a block-closing keyword like KW_ENDIF/KW_ENDFOREACH/KW_ELSE/
// KW_ELIF).
func (p *Parser) parseStatements(end lexer.TokenKind) ([]ast.Ref, error) {
	var stmts []ast.Ref
	for {
		if err := p.skipNewlines(); err != nil {
			return nil, err
		}
		if p.at(end) {
			return stmts, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if !p.at(end) {
			if _, err := p.expect(lexer.NEWLINE, "newline"); err != nil {
				return nil, err
			}
		}
	}
}

// parseBlockUntilAny parses statements until the current token is one of
// `ends`, returning which one stopped it.
func (p *Parser) parseBlockUntilAny(ends ...lexer.TokenKind) ([]ast.Ref, lexer.TokenKind, error) {
	var stmts []ast.Ref
	for {
		if err := p.skipNewlines(); err != nil {
			return nil, 0, err
		}
		for _, e := range ends {
			if p.at(e) {
				return stmts, e, nil
			}
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, 0, err
		}
		stmts = append(stmts, stmt)
		isEnd := false
		for _, e := range ends {
			if p.at(e) {
				isEnd = true
			}
		}
		if !isEnd {
			if _, err := p.expect(lexer.NEWLINE, "newline"); err != nil {
				return nil, 0, err
			}
		}
	}
}

func (p *Parser) parseStatement() (ast.Ref, error) {
	switch p.cur.Kind {
	case lexer.KW_IF:
		return p.parseIf()
	case lexer.KW_FOREACH:
		return p.parseForeach()
	case lexer.KW_CONTINUE:
		pos := p.pos()
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		return p.pool.Add(ast.Node{Kind: ast.KindContinue, Pos: pos}), nil
	case lexer.KW_BREAK:
		pos := p.pos()
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		return p.pool.Add(ast.Node{Kind: ast.KindBreak, Pos: pos}), nil
	case lexer.KW_RETURN:
		return p.parseReturn()
	default:
		return p.parseExprOrAssignStatement()
	}
}

func (p *Parser) parseIf() (ast.Ref, error) {
	pos := p.pos()
	var branches []ast.IfBranch
	if err := p.next(); err != nil { // consume 'if'
		return ast.NoRef, err
	}
	for {
		cond, err := p.parseExpr(LOWEST)
		if err != nil {
			return ast.NoRef, err
		}
		if _, err := p.expect(lexer.NEWLINE, "newline"); err != nil {
			return ast.NoRef, err
		}
		body, stop, err := p.parseBlockUntilAny(lexer.KW_ELIF, lexer.KW_ELSE, lexer.KW_ENDIF)
		if err != nil {
			return ast.NoRef, err
		}
		branches = append(branches, ast.IfBranch{Cond: cond, Body: body})
		if stop == lexer.KW_ELIF {
			if err := p.next(); err != nil {
				return ast.NoRef, err
			}
			continue
		}
		break
	}
	var elseBody []ast.Ref
	if p.at(lexer.KW_ELSE) {
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		if _, err := p.expect(lexer.NEWLINE, "newline"); err != nil {
			return ast.NoRef, err
		}
		body, _, err := p.parseBlockUntilAny(lexer.KW_ENDIF)
		if err != nil {
			return ast.NoRef, err
		}
		elseBody = body
	}
	if _, err := p.expect(lexer.KW_ENDIF, "endif"); err != nil {
		return ast.NoRef, err
	}
	return p.pool.Add(ast.Node{Kind: ast.KindIf, Pos: pos, Branches: branches, List: elseBody}), nil
}

func (p *Parser) parseForeach() (ast.Ref, error) {
	pos := p.pos()
	if err := p.next(); err != nil { // consume 'foreach'
		return ast.NoRef, err
	}
	nameTok, err := p.expect(lexer.IDENT, "loop variable")
	if err != nil {
		return ast.NoRef, err
	}
	vars := []string{nameTok.Literal}
	if p.at(lexer.COMMA) {
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		n2, err := p.expect(lexer.IDENT, "second loop variable")
		if err != nil {
			return ast.NoRef, err
		}
		vars = append(vars, n2.Literal)
	}
	if _, err := p.expect(lexer.COLON, ":"); err != nil {
		return ast.NoRef, err
	}
	iterable, err := p.parseExpr(LOWEST)
	if err != nil {
		return ast.NoRef, err
	}
	if _, err := p.expect(lexer.NEWLINE, "newline"); err != nil {
		return ast.NoRef, err
	}
	body, _, err := p.parseBlockUntilAny(lexer.KW_ENDFOREACH)
	if err != nil {
		return ast.NoRef, err
	}
	if _, err := p.expect(lexer.KW_ENDFOREACH, "endforeach"); err != nil {
		return ast.NoRef, err
	}
	return p.pool.Add(ast.Node{Kind: ast.KindForeach, Pos: pos, Vars: vars, A: iterable, List: body}), nil
}

func (p *Parser) parseReturn() (ast.Ref, error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return ast.NoRef, err
	}
	if p.at(lexer.NEWLINE) || p.at(lexer.EOF) {
		return p.pool.Add(ast.Node{Kind: ast.KindReturn, Pos: pos, HasValue: false}), nil
	}
	val, err := p.parseExpr(LOWEST)
	if err != nil {
		return ast.NoRef, err
	}
	return p.pool.Add(ast.Node{Kind: ast.KindReturn, Pos: pos, A: val, HasValue: true}), nil
}

func (p *Parser) parseExprOrAssignStatement() (ast.Ref, error) {
	pos := p.pos()
	lhs, err := p.parseExpr(LOWEST)
	if err != nil {
		return ast.NoRef, err
	}
	switch p.cur.Kind {
	case lexer.ASSIGN, lexer.PLUS_EQ, lexer.MINUS_EQ, lexer.STAR_EQ, lexer.SLASH_EQ, lexer.PERCENT_EQ:
		assignOp := p.cur.Kind
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		rhs, err := p.parseExpr(LOWEST)
		if err != nil {
			return ast.NoRef, err
		}
		return p.pool.Add(ast.Node{Kind: ast.KindAssign, Pos: pos, A: lhs, B: rhs, AssignOp: assignOp}), nil
	default:
		return p.pool.Add(ast.Node{Kind: ast.KindExprStmt, Pos: pos, A: lhs}), nil
	}
}
