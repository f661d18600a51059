package bytecode

import (
	"fmt"

	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/lexer"
	"github.com/muonlang/mbi/internal/obj"
)

// Compiler walks an ast.Pool and emits a Program. Literal nodes are
// folded straight into obj.Store handles at compile time — the handle's
// 32-bit value fits directly in an Instr operand, so OpConst needs no
// separate constant-pool indirection the way a byte-oriented VM would.
type Compiler struct {
	pool    *ast.Pool
	store   *obj.Store
	prog    *Program
	loops   []loopCtx
}

type loopCtx struct {
	breakJumps    []int // indices of OpJump instructions to patch to loop-end
	continueTarget int
}

func NewCompiler(pool *ast.Pool, store *obj.Store) *Compiler {
	return &Compiler{pool: pool, store: store, prog: &Program{}}
}

// Compile emits code for stmts (normally a File's top-level statements)
// and appends an implicit OpHalt. Function literal bodies are compiled
// inline by compileFuncLit, which ends them with an OpRet.
func Compile(pool *ast.Pool, store *obj.Store, stmts []ast.Ref) (*Program, error) {
	c := NewCompiler(pool, store)
	if err := c.compileBlock(stmts); err != nil {
		return nil, err
	}
	c.emit(Instr{Op: OpHalt})
	return c.prog, nil
}

func (c *Compiler) emit(in Instr) int {
	c.prog.Code = append(c.prog.Code, in)
	return len(c.prog.Code) - 1
}

func (c *Compiler) here() int32 { return int32(len(c.prog.Code)) }

func (c *Compiler) patchJumpTarget(instrIdx int, target int32) {
	c.prog.Code[instrIdx].A = target
}

func (c *Compiler) compileBlock(stmts []ast.Ref) error {
	for _, ref := range stmts {
		if err := c.compileStmt(ref); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileStmt(ref ast.Ref) error {
	n := c.pool.Get(ref)
	switch n.Kind {
	case ast.KindExprStmt:
		if err := c.compileExpr(n.A); err != nil {
			return err
		}
		c.emit(Instr{Op: OpPop, Pos: n.Pos})
		return nil

	case ast.KindAssign:
		return c.compileAssign(n)

	case ast.KindIf:
		return c.compileIf(n)

	case ast.KindForeach:
		return c.compileForeach(n)

	case ast.KindContinue:
		if len(c.loops) == 0 {
			return fmt.Errorf("continue outside foreach at %s", n.Pos)
		}
		lc := &c.loops[len(c.loops)-1]
		c.emit(Instr{Op: OpJump, A: int32(lc.continueTarget), Pos: n.Pos})
		return nil

	case ast.KindBreak:
		if len(c.loops) == 0 {
			return fmt.Errorf("break outside foreach at %s", n.Pos)
		}
		idx := c.emit(Instr{Op: OpJump, Pos: n.Pos})
		lc := &c.loops[len(c.loops)-1]
		lc.breakJumps = append(lc.breakJumps, idx)
		return nil

	case ast.KindReturn:
		if n.HasValue {
			if err := c.compileExpr(n.A); err != nil {
				return err
			}
			c.emit(Instr{Op: OpRet, A: 1, Pos: n.Pos})
		} else {
			c.emit(Instr{Op: OpRet, A: 0, Pos: n.Pos})
		}
		return nil

	default:
		return fmt.Errorf("compiler: unhandled statement kind %v at %s", n.Kind, n.Pos)
	}
}

func (c *Compiler) compileAssign(n *ast.Node) error {
	// A holds the lvalue node, B holds the rvalue expression.
	lv := c.pool.Get(n.A)
	isCompound := n.AssignOp != lexer.ASSIGN

	if isCompound {
		if err := c.compileExpr(n.A); err != nil {
			return err
		}
	}
	if err := c.compileExpr(n.B); err != nil {
		return err
	}
	if isCompound {
		c.emit(Instr{Op: compoundOp(n.AssignOp), Pos: n.Pos})
	}

	switch lv.Kind {
	case ast.KindIdent:
		idx := c.prog.internString(lv.Str)
		c.emit(Instr{Op: OpStoreLocal, A: idx, Pos: n.Pos})
		return nil
	case ast.KindMember:
		if err := c.compileExpr(lv.A); err != nil {
			return err
		}
		idx := c.prog.internString(lv.Name)
		c.emit(Instr{Op: OpStoreMember, A: idx, Pos: n.Pos})
		return nil
	default:
		return fmt.Errorf("compiler: invalid assignment target at %s", n.Pos)
	}
}

func compoundOp(tok lexer.TokenKind) Op {
	switch tok {
	case lexer.PLUS_EQ:
		return OpAdd
	case lexer.MINUS_EQ:
		return OpSub
	case lexer.STAR_EQ:
		return OpMul
	case lexer.SLASH_EQ:
		return OpDiv
	case lexer.PERCENT_EQ:
		return OpMod
	default:
		return OpAdd
	}
}

func (c *Compiler) compileIf(n *ast.Node) error {
	var endJumps []int
	for _, branch := range n.Branches {
		if err := c.compileExpr(branch.Cond); err != nil {
			return err
		}
		skipIdx := c.emit(Instr{Op: OpJumpIfFalse, Pos: n.Pos})
		if err := c.compileBlock(branch.Body); err != nil {
			return err
		}
		endJumps = append(endJumps, c.emit(Instr{Op: OpJump, Pos: n.Pos}))
		c.patchJumpTarget(skipIdx, c.here())
	}
	if err := c.compileBlock(n.List); err != nil { // else body
		return err
	}
	end := c.here()
	for _, j := range endJumps {
		c.patchJumpTarget(j, end)
	}
	return nil
}

func (c *Compiler) compileForeach(n *ast.Node) error {
	if err := c.compileExpr(n.A); err != nil { // iterable (A reused for foreach's source expr)
		return err
	}
	prepIdx := c.emit(Instr{Op: OpForPrep, Pos: n.Pos})

	var varA, varB int32 = c.prog.internString(n.Vars[0]), -1
	if len(n.Vars) == 2 {
		varB = c.prog.internString(n.Vars[1])
	}
	iterIdx := c.emit(Instr{Op: OpForIter, A: varA, B: varB, Pos: n.Pos})

	c.loops = append(c.loops, loopCtx{continueTarget: iterIdx})
	if err := c.compileBlock(n.List); err != nil {
		return err
	}
	c.emit(Instr{Op: OpJump, A: int32(iterIdx), Pos: n.Pos})

	end := c.here()
	c.emit(Instr{Op: OpForEnd, Pos: n.Pos})
	c.patchJumpTarget(prepIdx, end)
	c.prog.Code[iterIdx].C = end

	lc := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	for _, j := range lc.breakJumps {
		c.patchJumpTarget(j, end)
	}
	return nil
}

var binOps = map[ast.Op]Op{
	ast.OpAdd: OpAdd, ast.OpSub: OpSub, ast.OpMul: OpMul, ast.OpDiv: OpDiv, ast.OpMod: OpMod,
	ast.OpEq: OpEq, ast.OpNeq: OpNe, ast.OpLt: OpLt, ast.OpLe: OpLe, ast.OpGt: OpGt, ast.OpGe: OpGe,
	ast.OpIn: OpIn, ast.OpNotIn: OpNotIn,
}

func (c *Compiler) compileExpr(ref ast.Ref) error {
	n := c.pool.Get(ref)
	switch n.Kind {
	case ast.KindNumberLit:
		c.emitConst(c.store.Number(n.Num), n.Pos)
		return nil
	case ast.KindStringLit:
		c.emitConst(c.store.String(n.Str), n.Pos)
		return nil
	case ast.KindFStringLit:
		// f-string interpolation is resolved at runtime against the live
		// scope (spec.md section 4.6), so only the template text travels
		// with the instruction; the VM does the substitution.
		idx := c.prog.internString(n.Str)
		c.emit(Instr{Op: OpFString, A: idx, Pos: n.Pos})
		return nil
	case ast.KindBoolLit:
		c.emitConst(c.store.Bool(n.Bool), n.Pos)
		return nil
	case ast.KindIdent:
		idx := c.prog.internString(n.Str)
		c.emit(Instr{Op: OpLoad, A: idx, Pos: n.Pos})
		return nil
	case ast.KindArrayLit:
		for _, e := range n.List {
			if err := c.compileExpr(e); err != nil {
				return err
			}
		}
		c.emit(Instr{Op: OpBuildArray, A: int32(len(n.List)), Pos: n.Pos})
		return nil
	case ast.KindDictLit:
		for _, entry := range n.Entries {
			if err := c.compileExpr(entry.Key); err != nil {
				return err
			}
			if err := c.compileExpr(entry.Value); err != nil {
				return err
			}
		}
		c.emit(Instr{Op: OpBuildDict, A: int32(len(n.Entries)), Pos: n.Pos})
		return nil
	case ast.KindUnary:
		if err := c.compileExpr(n.A); err != nil {
			return err
		}
		switch n.Op {
		case ast.OpNeg:
			c.emit(Instr{Op: OpNeg, Pos: n.Pos})
		case ast.OpNot:
			c.emit(Instr{Op: OpNot, Pos: n.Pos})
		}
		return nil
	case ast.KindBinary:
		if n.Op == ast.OpAnd || n.Op == ast.OpOr {
			return c.compileShortCircuit(n)
		}
		if err := c.compileExpr(n.A); err != nil {
			return err
		}
		if err := c.compileExpr(n.B); err != nil {
			return err
		}
		op, ok := binOps[n.Op]
		if !ok {
			return fmt.Errorf("compiler: unhandled binary op %v at %s", n.Op, n.Pos)
		}
		c.emit(Instr{Op: op, Pos: n.Pos})
		return nil
	case ast.KindTernary:
		if err := c.compileExpr(n.A); err != nil {
			return err
		}
		elseIdx := c.emit(Instr{Op: OpJumpIfFalse, Pos: n.Pos})
		if err := c.compileExpr(n.B); err != nil {
			return err
		}
		endIdx := c.emit(Instr{Op: OpJump, Pos: n.Pos})
		c.patchJumpTarget(elseIdx, c.here())
		if err := c.compileExpr(n.C); err != nil {
			return err
		}
		c.patchJumpTarget(endIdx, c.here())
		return nil
	case ast.KindCall:
		callee := c.pool.Get(n.A)
		if callee.Kind == ast.KindIdent {
			// A bare identifier callee is resolved at runtime: a bound
			// variable holding a func/capture value takes precedence,
			// falling back to native-function dispatch by name (spec.md
			// section 4.7). This is the only way to tell a kernel
			// builtin call like executable(...) apart from a call to a
			// user-assigned function value without a separate
			// "declared functions" symbol table.
			if err := c.compileArgs(n.Args); err != nil {
				return err
			}
			idx := c.prog.internString(callee.Str)
			c.emit(Instr{Op: OpCallName, A: int32(len(n.Args)), B: idx, Pos: n.Pos})
			return nil
		}
		if err := c.compileExpr(n.A); err != nil {
			return err
		}
		if err := c.compileArgs(n.Args); err != nil {
			return err
		}
		c.emit(Instr{Op: OpCall, A: int32(len(n.Args)), Pos: n.Pos})
		return nil
	case ast.KindMethodCall:
		if err := c.compileExpr(n.A); err != nil {
			return err
		}
		if err := c.compileArgs(n.Args); err != nil {
			return err
		}
		idx := c.prog.internString(n.Name)
		c.emit(Instr{Op: OpMethodCall, A: int32(len(n.Args)), B: idx, Pos: n.Pos})
		return nil
	case ast.KindIndex:
		if err := c.compileExpr(n.A); err != nil {
			return err
		}
		if err := c.compileExpr(n.B); err != nil {
			return err
		}
		c.emit(Instr{Op: OpIndex, Pos: n.Pos})
		return nil
	case ast.KindMember:
		if err := c.compileExpr(n.A); err != nil {
			return err
		}
		idx := c.prog.internString(n.Name)
		c.emit(Instr{Op: OpMember, A: idx, Pos: n.Pos})
		return nil
	case ast.KindFuncLit:
		return c.compileFuncLit(n)
	default:
		return fmt.Errorf("compiler: unhandled expression kind %v at %s", n.Kind, n.Pos)
	}
}

func (c *Compiler) emitConst(h obj.Handle, pos ast.Pos) {
	c.emit(Instr{Op: OpConst, A: int32(h), Pos: pos})
}

// compileShortCircuit compiles `and`/`or` without first evaluating both
// operands, per spec.md section 4.2's boolean-operator semantics. Both
// operators are strictly boolean (each operand is typechecked as bool),
// so the short-circuited branch can push a literal true/false rather than
// needing to recover the already-popped lhs value.
func (c *Compiler) compileShortCircuit(n *ast.Node) error {
	if err := c.compileExpr(n.A); err != nil {
		return err
	}
	var shortJump int
	if n.Op == ast.OpAnd {
		shortJump = c.emit(Instr{Op: OpJumpIfFalse, Pos: n.Pos})
	} else {
		shortJump = c.emit(Instr{Op: OpJumpIfTrue, Pos: n.Pos})
	}
	if err := c.compileExpr(n.B); err != nil {
		return err
	}
	end := c.emit(Instr{Op: OpJump, Pos: n.Pos})
	c.patchJumpTarget(shortJump, c.here())
	if n.Op == ast.OpAnd {
		c.emitConst(c.store.Bool(false), n.Pos)
	} else {
		c.emitConst(c.store.Bool(true), n.Pos)
	}
	c.patchJumpTarget(end, c.here())
	return nil
}

// compileArgs pushes each argument's value; a keyword argument is
// immediately followed by an OpTagKwarg marking the value just pushed
// with its name, so the VM's operand stack never needs a parallel name
// stack threaded through compileExpr itself.
func (c *Compiler) compileArgs(args []ast.Arg) error {
	for _, a := range args {
		if err := c.compileExpr(a.Value); err != nil {
			return err
		}
		if a.Name != "" {
			idx := c.prog.internString(a.Name)
			c.emit(Instr{Op: OpTagKwarg, A: idx, Pos: a.Pos})
		}
	}
	return nil
}

// compileFuncLit compiles a function literal's body out-of-line (after a
// jump that skips it during normal control flow) and records its entry
// point plus parameter defaults in the Program's FuncMeta table.
func (c *Compiler) compileFuncLit(n *ast.Node) error {
	skip := c.emit(Instr{Op: OpJump, Pos: n.Pos})
	entry := c.here()

	names := make([]string, len(n.Params))
	defaults := make([]int32, len(n.Params))
	for i, p := range n.Params {
		names[i] = p.Name
		if p.Default == ast.NoRef {
			defaults[i] = int32(obj.None)
			continue
		}
		h, err := c.foldConstExpr(p.Default)
		if err != nil {
			return fmt.Errorf("compiler: function parameter default must be a literal: %w", err)
		}
		defaults[i] = int32(h)
	}

	if err := c.compileBlock(n.List); err != nil {
		return err
	}
	c.emit(Instr{Op: OpRet, A: 0, Pos: n.Pos})
	c.patchJumpTarget(skip, c.here())

	funcIdx := len(c.prog.Funcs)
	c.prog.Funcs = append(c.prog.Funcs, FuncMeta{Entry: entry, Params: names, Defaults: defaults})
	c.emit(Instr{Op: OpMakeFunc, A: int32(funcIdx), Pos: n.Pos})
	return nil
}

// foldConstExpr evaluates a parameter-default expression that must be a
// compile-time literal (spec.md doesn't permit arbitrary expressions as
// func-literal defaults in extended mode).
func (c *Compiler) foldConstExpr(ref ast.Ref) (obj.Handle, error) {
	n := c.pool.Get(ref)
	switch n.Kind {
	case ast.KindNumberLit:
		return c.store.Number(n.Num), nil
	case ast.KindStringLit:
		return c.store.String(n.Str), nil
	case ast.KindBoolLit:
		return c.store.Bool(n.Bool), nil
	default:
		return obj.None, fmt.Errorf("unsupported default-expression kind %v", n.Kind)
	}
}
