package parser

import (
	"testing"

	"github.com/muonlang/mbi/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, err := Parse([]byte(src), "test.build", false)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return f
}

func TestParseMinimalProject(t *testing.T) {
	f := mustParse(t, "project('hello', 'c')\nexecutable('hello', 'hello.c')\n")
	if len(f.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(f.Statements))
	}
	st0 := f.Pool.Get(f.Statements[0])
	if st0.Kind != ast.KindExprStmt {
		t.Fatalf("expected ExprStmt, got %v", st0.Kind)
	}
	call := f.Pool.Get(st0.A)
	if call.Kind != ast.KindCall {
		t.Fatalf("expected Call, got %v", call.Kind)
	}
	callee := f.Pool.Get(call.A)
	if callee.Kind != ast.KindIdent || callee.Str != "project" {
		t.Fatalf("expected ident 'project', got %+v", callee)
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(call.Args))
	}
}

func TestParseKwargsAfterPositional(t *testing.T) {
	f := mustParse(t, "executable('t', 'm.c', install: true)\n")
	call := f.Pool.Get(f.Pool.Get(f.Statements[0]).A)
	if len(call.Args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(call.Args))
	}
	if call.Args[2].Name != "install" {
		t.Fatalf("expected kwarg 'install', got %q", call.Args[2].Name)
	}
}

func TestPositionalAfterKwargIsError(t *testing.T) {
	_, err := Parse([]byte("f(a: 1, 2)\n"), "t.build", false)
	if err == nil {
		t.Fatalf("expected parse error for positional-after-keyword")
	}
}

func TestParseIfElifElse(t *testing.T) {
	src := "if x\n  a = 1\nelif y\n  a = 2\nelse\n  a = 3\nendif\n"
	f := mustParse(t, src)
	n := f.Pool.Get(f.Statements[0])
	if n.Kind != ast.KindIf {
		t.Fatalf("expected If, got %v", n.Kind)
	}
	if len(n.Branches) != 2 {
		t.Fatalf("expected 2 branches (if+elif), got %d", len(n.Branches))
	}
	if len(n.List) != 1 {
		t.Fatalf("expected else body of 1 stmt, got %d", len(n.List))
	}
}

func TestParseForeachTwoVars(t *testing.T) {
	src := "foreach k, v : d\n  message(k)\nendforeach\n"
	f := mustParse(t, src)
	n := f.Pool.Get(f.Statements[0])
	if n.Kind != ast.KindForeach {
		t.Fatalf("expected Foreach, got %v", n.Kind)
	}
	if len(n.Vars) != 2 || n.Vars[0] != "k" || n.Vars[1] != "v" {
		t.Fatalf("expected vars [k v], got %v", n.Vars)
	}
}

func TestTernaryRightAssociative(t *testing.T) {
	f := mustParse(t, "x = a ? b : c ? d : e\n")
	assign := f.Pool.Get(f.Statements[0])
	tern := f.Pool.Get(assign.B)
	if tern.Kind != ast.KindTernary {
		t.Fatalf("expected Ternary, got %v", tern.Kind)
	}
	elseBranch := f.Pool.Get(tern.C)
	if elseBranch.Kind != ast.KindTernary {
		t.Fatalf("expected nested Ternary on the else side (right-assoc), got %v", elseBranch.Kind)
	}
}

func TestNotInOperator(t *testing.T) {
	f := mustParse(t, "x = a not in b\n")
	assign := f.Pool.Get(f.Statements[0])
	bin := f.Pool.Get(assign.B)
	if bin.Kind != ast.KindBinary || bin.Op != ast.OpNotIn {
		t.Fatalf("expected NotIn binary, got %+v", bin)
	}
}

func TestMethodCallChain(t *testing.T) {
	f := mustParse(t, "x = d.get('k').strip()\n")
	assign := f.Pool.Get(f.Statements[0])
	outer := f.Pool.Get(assign.B)
	if outer.Kind != ast.KindMethodCall || outer.Name != "strip" {
		t.Fatalf("expected outer MethodCall 'strip', got %+v", outer)
	}
	inner := f.Pool.Get(outer.A)
	if inner.Kind != ast.KindMethodCall || inner.Name != "get" {
		t.Fatalf("expected inner MethodCall 'get', got %+v", inner)
	}
}

func TestCompoundAssignParsesAsAssignOp(t *testing.T) {
	f := mustParse(t, "x += 1\n")
	n := f.Pool.Get(f.Statements[0])
	if n.Kind != ast.KindAssign {
		t.Fatalf("expected Assign, got %v", n.Kind)
	}
}

func TestUnterminatedIfIsParseError(t *testing.T) {
	_, err := Parse([]byte("if x\n  a = 1\n"), "t.build", false)
	if err == nil {
		t.Fatalf("expected parse error for missing endif")
	}
}

func TestFuncLiteralOnlyInExtendedMode(t *testing.T) {
	f, err := Parse([]byte("x = func(a)\n  return a\nendfunc\n"), "t.build", false)
	if err != nil {
		t.Fatalf("unexpected error outside extended mode: %v", err)
	}
	if rhs := f.Pool.Get(f.Pool.Get(f.Statements[0]).B); rhs.Kind == ast.KindFuncLit {
		t.Fatalf("func literal must not be recognized outside extended mode, got %+v", rhs)
	}
	f, err = Parse([]byte("x = func(a)\n  return a\nendfunc\n"), "t.build", true)
	if err != nil {
		t.Fatalf("unexpected error in extended mode: %v", err)
	}
	assign := f.Pool.Get(f.Statements[0])
	lit := f.Pool.Get(assign.B)
	if lit.Kind != ast.KindFuncLit || len(lit.Params) != 1 {
		t.Fatalf("expected FuncLit with 1 param, got %+v", lit)
	}
}
