package parser

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/lexer"
)

// parseAtom parses literal, identifier, parenthesized expression, array
// literal, dict literal, and (in extended mode) anonymous function
// literals — grammar level 11 in spec.md section 4.2.
func (p *Parser) parseAtom() (ast.Ref, error) {
	pos := p.pos()
	switch p.cur.Kind {
	case lexer.NUMBER:
		n := p.cur.Num
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		return p.pool.Add(ast.Node{Kind: ast.KindNumberLit, Pos: pos, Num: n}), nil
	case lexer.STRING:
		s := p.cur.Literal
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		return p.pool.Add(ast.Node{Kind: ast.KindStringLit, Pos: pos, Str: s}), nil
	case lexer.FSTRING:
		s := p.cur.Literal
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		return p.pool.Add(ast.Node{Kind: ast.KindFStringLit, Pos: pos, Str: s}), nil
	case lexer.KW_TRUE:
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		return p.pool.Add(ast.Node{Kind: ast.KindBoolLit, Pos: pos, Bool: true}), nil
	case lexer.KW_FALSE:
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		return p.pool.Add(ast.Node{Kind: ast.KindBoolLit, Pos: pos, Bool: false}), nil
	case lexer.IDENT:
		if p.allowFuncDef && p.cur.Literal == "func" {
			return p.parseFuncLit()
		}
		name := p.cur.Literal
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		return p.pool.Add(ast.Node{Kind: ast.KindIdent, Pos: pos, Str: name}), nil
	case lexer.LPAREN:
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		inner, err := p.parseExpr(LOWEST)
		if err != nil {
			return ast.NoRef, err
		}
		if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
			return ast.NoRef, err
		}
		return inner, nil
	case lexer.LBRACK:
		return p.parseArrayLit()
	case lexer.LBRACE:
		return p.parseDictLit()
	default:
		return ast.NoRef, &Error{Pos: pos, Message: "unexpected token in expression", Got: p.cur}
	}
}

func (p *Parser) parseArrayLit() (ast.Ref, error) {
	pos := p.pos()
	if _, err := p.expect(lexer.LBRACK, "["); err != nil {
		return ast.NoRef, err
	}
	var elems []ast.Ref
	for !p.at(lexer.RBRACK) {
		e, err := p.parseExpr(LOWEST)
		if err != nil {
			return ast.NoRef, err
		}
		elems = append(elems, e)
		if p.at(lexer.COMMA) {
			if err := p.next(); err != nil {
				return ast.NoRef, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACK, "]"); err != nil {
		return ast.NoRef, err
	}
	return p.pool.Add(ast.Node{Kind: ast.KindArrayLit, Pos: pos, List: elems}), nil
}

func (p *Parser) parseDictLit() (ast.Ref, error) {
	pos := p.pos()
	if _, err := p.expect(lexer.LBRACE, "{"); err != nil {
		return ast.NoRef, err
	}
	var entries []ast.DictEntry
	for !p.at(lexer.RBRACE) {
		key, err := p.parseExpr(LOWEST)
		if err != nil {
			return ast.NoRef, err
		}
		if _, err := p.expect(lexer.COLON, ":"); err != nil {
			return ast.NoRef, err
		}
		val, err := p.parseExpr(LOWEST)
		if err != nil {
			return ast.NoRef, err
		}
		entries = append(entries, ast.DictEntry{Key: key, Value: val})
		if p.at(lexer.COMMA) {
			if err := p.next(); err != nil {
				return ast.NoRef, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACE, "}"); err != nil {
		return ast.NoRef, err
	}
	return p.pool.Add(ast.Node{Kind: ast.KindDictLit, Pos: pos, Entries: entries}), nil
}

// parseFuncLit parses `func ( params ) <newline> stmts... endfunc`, the
// extended-language-mode anonymous function atom. The grammar in
// spec.md section 4.2 does not spell out concrete lexemes for this
// construct beyond naming it an atom gated to extended mode; `func`/
// `endfunc` are recognized here as plain identifiers rather than
// reserved keywords so the lexer's keyword table (spec.md section 4.1)
// stays exactly as specified, and so `func`/`endfunc` remain ordinary
// identifiers in external/opts/internal mode source.
func (p *Parser) parseFuncLit() (ast.Ref, error) {
	pos := p.pos()
	if err := p.next(); err != nil { // consume 'func'
		return ast.NoRef, err
	}
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return ast.NoRef, err
	}
	var params []ast.Param
	for !p.at(lexer.RPAREN) {
		nameTok, err := p.expect(lexer.IDENT, "parameter name")
		if err != nil {
			return ast.NoRef, err
		}
		param := ast.Param{Name: nameTok.Literal}
		if p.at(lexer.ASSIGN) {
			if err := p.next(); err != nil {
				return ast.NoRef, err
			}
			def, err := p.parseExpr(LOWEST)
			if err != nil {
				return ast.NoRef, err
			}
			param.Default = def
		}
		params = append(params, param)
		if p.at(lexer.COMMA) {
			if err := p.next(); err != nil {
				return ast.NoRef, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return ast.NoRef, err
	}
	if _, err := p.expect(lexer.NEWLINE, "newline"); err != nil {
		return ast.NoRef, err
	}
	return p.parseFuncLitBody(pos, params)
}

// parseFuncLitBody parses the function body using a literal-aware
// terminator check ("endfunc" identifier), since parseStatements/
// parseBlockUntilAny only compare TokenKind, not literal text.
func (p *Parser) parseFuncLitBody(pos ast.Pos, params []ast.Param) (ast.Ref, error) {
	var stmts []ast.Ref
	for {
		if err := p.skipNewlines(); err != nil {
			return ast.NoRef, err
		}
		if p.at(lexer.IDENT) && p.cur.Literal == "endfunc" {
			if err := p.next(); err != nil {
				return ast.NoRef, err
			}
			return p.pool.Add(ast.Node{Kind: ast.KindFuncLit, Pos: pos, Params: params, List: stmts}), nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return ast.NoRef, err
		}
		stmts = append(stmts, stmt)
		if !(p.at(lexer.IDENT) && p.cur.Literal == "endfunc") {
			if _, err := p.expect(lexer.NEWLINE, "newline"); err != nil {
				return ast.NoRef, err
			}
		}
	}
}
