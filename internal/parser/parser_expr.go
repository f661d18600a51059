package parser

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/lexer"
)

// LOWEST is the entry precedence passed to parseExpr; the grammar below
// is expressed as a ladder of mutually recursive functions (one per
// precedence level in spec.md section 4.2) rather than a generic Pratt
// table, since the grammar itself enumerates fixed levels.
const LOWEST = 0

func (p *Parser) parseExpr(_ int) (ast.Ref, error) {
	return p.parseTernary()
}

// parseTernary: a ? b : c, right-associative.
func (p *Parser) parseTernary() (ast.Ref, error) {
	pos := p.pos()
	cond, err := p.parseOr()
	if err != nil {
		return ast.NoRef, err
	}
	if !p.at(lexer.QUESTION) {
		return cond, nil
	}
	if err := p.next(); err != nil {
		return ast.NoRef, err
	}
	then, err := p.parseTernary()
	if err != nil {
		return ast.NoRef, err
	}
	if _, err := p.expect(lexer.COLON, ":"); err != nil {
		return ast.NoRef, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return ast.NoRef, err
	}
	return p.pool.Add(ast.Node{Kind: ast.KindTernary, Pos: pos, A: cond, B: then, C: els}), nil
}

func (p *Parser) parseOr() (ast.Ref, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return ast.NoRef, err
	}
	for p.at(lexer.KW_OR) {
		pos := p.pos()
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		rhs, err := p.parseAnd()
		if err != nil {
			return ast.NoRef, err
		}
		lhs = p.pool.Add(ast.Node{Kind: ast.KindBinary, Pos: pos, Op: ast.OpOr, A: lhs, B: rhs})
	}
	return lhs, nil
}

func (p *Parser) parseAnd() (ast.Ref, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return ast.NoRef, err
	}
	for p.at(lexer.KW_AND) {
		pos := p.pos()
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		rhs, err := p.parseEquality()
		if err != nil {
			return ast.NoRef, err
		}
		lhs = p.pool.Add(ast.Node{Kind: ast.KindBinary, Pos: pos, Op: ast.OpAnd, A: lhs, B: rhs})
	}
	return lhs, nil
}

var equalityOps = map[lexer.TokenKind]ast.Op{
	lexer.EQ:  ast.OpEq,
	lexer.NEQ: ast.OpNeq,
	lexer.LT:  ast.OpLt,
	lexer.LE:  ast.OpLe,
	lexer.GT:  ast.OpGt,
	lexer.GE:  ast.OpGe,
}

func (p *Parser) parseEquality() (ast.Ref, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return ast.NoRef, err
	}
	for {
		if op, ok := equalityOps[p.cur.Kind]; ok {
			pos := p.pos()
			if err := p.next(); err != nil {
				return ast.NoRef, err
			}
			rhs, err := p.parseAdditive()
			if err != nil {
				return ast.NoRef, err
			}
			lhs = p.pool.Add(ast.Node{Kind: ast.KindBinary, Pos: pos, Op: op, A: lhs, B: rhs})
			continue
		}
		if p.at(lexer.KW_IN) {
			pos := p.pos()
			if err := p.next(); err != nil {
				return ast.NoRef, err
			}
			rhs, err := p.parseAdditive()
			if err != nil {
				return ast.NoRef, err
			}
			lhs = p.pool.Add(ast.Node{Kind: ast.KindBinary, Pos: pos, Op: ast.OpIn, A: lhs, B: rhs})
			continue
		}
		if p.at(lexer.KW_NOT) && p.peek.Kind == lexer.KW_IN {
			pos := p.pos()
			if err := p.next(); err != nil { // consume 'not'
				return ast.NoRef, err
			}
			if err := p.next(); err != nil { // consume 'in'
				return ast.NoRef, err
			}
			rhs, err := p.parseAdditive()
			if err != nil {
				return ast.NoRef, err
			}
			lhs = p.pool.Add(ast.Node{Kind: ast.KindBinary, Pos: pos, Op: ast.OpNotIn, A: lhs, B: rhs})
			continue
		}
		return lhs, nil
	}
}

func (p *Parser) parseAdditive() (ast.Ref, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return ast.NoRef, err
	}
	for p.at(lexer.PLUS) || p.at(lexer.MINUS) {
		op := ast.OpAdd
		if p.at(lexer.MINUS) {
			op = ast.OpSub
		}
		pos := p.pos()
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return ast.NoRef, err
		}
		lhs = p.pool.Add(ast.Node{Kind: ast.KindBinary, Pos: pos, Op: op, A: lhs, B: rhs})
	}
	return lhs, nil
}

func (p *Parser) parseMultiplicative() (ast.Ref, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return ast.NoRef, err
	}
	for p.at(lexer.STAR) || p.at(lexer.SLASH) || p.at(lexer.PERCENT) {
		var op ast.Op
		switch p.cur.Kind {
		case lexer.STAR:
			op = ast.OpMul
		case lexer.SLASH:
			op = ast.OpDiv
		case lexer.PERCENT:
			op = ast.OpMod
		}
		pos := p.pos()
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		rhs, err := p.parseUnary()
		if err != nil {
			return ast.NoRef, err
		}
		lhs = p.pool.Add(ast.Node{Kind: ast.KindBinary, Pos: pos, Op: op, A: lhs, B: rhs})
	}
	return lhs, nil
}

func (p *Parser) parseUnary() (ast.Ref, error) {
	if p.at(lexer.KW_NOT) {
		pos := p.pos()
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return ast.NoRef, err
		}
		return p.pool.Add(ast.Node{Kind: ast.KindUnary, Pos: pos, Op: ast.OpNot, A: operand}), nil
	}
	if p.at(lexer.MINUS) {
		pos := p.pos()
		if err := p.next(); err != nil {
			return ast.NoRef, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return ast.NoRef, err
		}
		return p.pool.Add(ast.Node{Kind: ast.KindUnary, Pos: pos, Op: ast.OpNeg, A: operand}), nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Ref, error) {
	expr, err := p.parseAtom()
	if err != nil {
		return ast.NoRef, err
	}
	for {
		switch p.cur.Kind {
		case lexer.LPAREN:
			args, err := p.parseArgs()
			if err != nil {
				return ast.NoRef, err
			}
			expr = p.pool.Add(ast.Node{Kind: ast.KindCall, Pos: p.pos(), A: expr, Args: args})
		case lexer.LBRACK:
			pos := p.pos()
			if err := p.next(); err != nil {
				return ast.NoRef, err
			}
			idx, err := p.parseExpr(LOWEST)
			if err != nil {
				return ast.NoRef, err
			}
			if _, err := p.expect(lexer.RBRACK, "]"); err != nil {
				return ast.NoRef, err
			}
			expr = p.pool.Add(ast.Node{Kind: ast.KindIndex, Pos: pos, A: expr, B: idx})
		case lexer.DOT:
			pos := p.pos()
			if err := p.next(); err != nil {
				return ast.NoRef, err
			}
			nameTok, err := p.expect(lexer.IDENT, "member name")
			if err != nil {
				return ast.NoRef, err
			}
			if p.at(lexer.LPAREN) {
				args, err := p.parseArgs()
				if err != nil {
					return ast.NoRef, err
				}
				expr = p.pool.Add(ast.Node{Kind: ast.KindMethodCall, Pos: pos, A: expr, Name: nameTok.Literal, Args: args})
			} else {
				expr = p.pool.Add(ast.Node{Kind: ast.KindMember, Pos: pos, A: expr, Name: nameTok.Literal})
			}
		default:
			return expr, nil
		}
	}
}

// parseArgs parses `( args )` where args is a comma-separated list of
// positional expressions followed by `key: expr` keyword arguments.
// Kwargs must follow all positional arguments (spec.md section 4.2).
func (p *Parser) parseArgs() ([]ast.Arg, error) {
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	var args []ast.Arg
	seenKwarg := false
	for !p.at(lexer.RPAREN) {
		pos := p.pos()
		if p.at(lexer.IDENT) && p.peek.Kind == lexer.COLON {
			name := p.cur.Literal
			if err := p.next(); err != nil { // ident
				return nil, err
			}
			if err := p.next(); err != nil { // colon
				return nil, err
			}
			val, err := p.parseExpr(LOWEST)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Arg{Name: name, Value: val, Pos: pos})
			seenKwarg = true
		} else {
			if seenKwarg {
				return nil, &Error{Pos: pos, Message: "positional argument follows keyword argument", Got: p.cur}
			}
			val, err := p.parseExpr(LOWEST)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Arg{Value: val, Pos: pos})
		}
		if p.at(lexer.COMMA) {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	return args, nil
}
