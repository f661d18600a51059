package bytecode

import (
	"testing"

	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/parser"
)

func compileSrc(t *testing.T, src string) (*Program, *obj.Store) {
	t.Helper()
	file, err := parser.Parse([]byte(src), "test.build", true)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	store := obj.NewStore()
	prog, err := Compile(file.Pool, store, file.Statements)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return prog, store
}

func TestCompileArithmeticEmitsOps(t *testing.T) {
	prog, _ := compileSrc(t, "x = 1 + 2 * 3\n")
	var sawMul, sawAdd, sawStore bool
	for _, in := range prog.Code {
		switch in.Op {
		case OpMul:
			sawMul = true
		case OpAdd:
			sawAdd = true
		case OpStoreLocal:
			sawStore = true
		}
	}
	if !sawMul || !sawAdd || !sawStore {
		t.Fatalf("expected mul/add/storeLocal instructions, got %+v", prog.Code)
	}
}

func TestCompileIfElseBranches(t *testing.T) {
	prog, _ := compileSrc(t, "if true\n  x = 1\nelse\n  x = 2\nendif\n")
	var jumpIfFalse, jump int
	for _, in := range prog.Code {
		if in.Op == OpJumpIfFalse {
			jumpIfFalse++
		}
		if in.Op == OpJump {
			jump++
		}
	}
	if jumpIfFalse != 1 || jump != 1 {
		t.Fatalf("expected 1 JumpIfFalse and 1 Jump, got %d/%d", jumpIfFalse, jump)
	}
}

func TestCompileForeachEmitsPrepIterEnd(t *testing.T) {
	prog, _ := compileSrc(t, "foreach x : arr\n  y = x\nendforeach\n")
	var prep, iter, end bool
	var iterInstr Instr
	for _, in := range prog.Code {
		switch in.Op {
		case OpForPrep:
			prep = true
		case OpForIter:
			iter = true
			iterInstr = in
		case OpForEnd:
			end = true
		}
	}
	if !prep || !iter || !end {
		t.Fatalf("expected ForPrep/ForIter/ForEnd, got %+v", prog.Code)
	}
	if iterInstr.B != -1 {
		t.Fatalf("expected single-variable foreach to set B=-1, got %d", iterInstr.B)
	}
}

func TestCompileForeachTwoVars(t *testing.T) {
	prog, _ := compileSrc(t, "foreach k, v : d\n  y = v\nendforeach\n")
	for _, in := range prog.Code {
		if in.Op == OpForIter {
			if in.B < 0 {
				t.Fatalf("expected two-variable foreach to set B >= 0, got %d", in.B)
			}
			return
		}
	}
	t.Fatal("no OpForIter emitted")
}

func TestCompileBareCallEmitsOpCallName(t *testing.T) {
	prog, _ := compileSrc(t, "executable('app', 'main.c')\n")
	found := false
	for _, in := range prog.Code {
		if in.Op == OpCallName {
			found = true
			if prog.Strings[in.B] != "executable" {
				t.Fatalf("expected callee name 'executable', got %q", prog.Strings[in.B])
			}
			if in.A != 2 {
				t.Fatalf("expected argc 2, got %d", in.A)
			}
		}
		if in.Op == OpCall {
			t.Fatalf("bare identifier callee should not compile to OpCall")
		}
	}
	if !found {
		t.Fatal("expected an OpCallName instruction")
	}
}

func TestCompileKwargTagsValue(t *testing.T) {
	prog, _ := compileSrc(t, "executable('app', sources: 'main.c')\n")
	var tagged bool
	for _, in := range prog.Code {
		if in.Op == OpTagKwarg {
			tagged = true
			if prog.Strings[in.A] != "sources" {
				t.Fatalf("expected kwarg name 'sources', got %q", prog.Strings[in.A])
			}
		}
	}
	if !tagged {
		t.Fatal("expected an OpTagKwarg instruction")
	}
}

func TestCompileFuncLitRecordsMeta(t *testing.T) {
	prog, _ := compileSrc(t, "f = func(a, b = 1)\n  return a + b\nendfunc\n")
	if len(prog.Funcs) != 1 {
		t.Fatalf("expected one FuncMeta, got %d", len(prog.Funcs))
	}
	meta := prog.Funcs[0]
	if len(meta.Params) != 2 || meta.Params[0] != "a" || meta.Params[1] != "b" {
		t.Fatalf("unexpected params %+v", meta.Params)
	}
	if obj.Handle(meta.Defaults[1]).IsNone() {
		t.Fatalf("expected default for param b to be set")
	}
}

func TestCompileCompoundAssignDoesNotMisfireOnPlainAssign(t *testing.T) {
	prog, _ := compileSrc(t, "x = 1\n")
	for _, in := range prog.Code {
		if in.Op == OpAdd || in.Op == OpSub || in.Op == OpMul || in.Op == OpDiv || in.Op == OpMod {
			t.Fatalf("plain assignment should not emit an arithmetic op, got %+v", prog.Code)
		}
	}
}

func TestCompileCompoundAssignEmitsOp(t *testing.T) {
	prog, _ := compileSrc(t, "x = 1\nx += 2\n")
	var sawAdd bool
	for _, in := range prog.Code {
		if in.Op == OpAdd {
			sawAdd = true
		}
	}
	if !sawAdd {
		t.Fatal("expected compound += to emit OpAdd")
	}
}
