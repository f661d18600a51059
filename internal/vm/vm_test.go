package vm

import (
	"fmt"
	"testing"

	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/bytecode"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/parser"
)

// stubNative is a test double standing in for the registry/builtins lookup
// a real Workspace would provide.
type stubNative struct {
	calls []string
}

func (n *stubNative) CallFunction(v *VM, name string, pos ast.Pos, args []obj.Handle, kw map[string]obj.Handle) (obj.Handle, error) {
	n.calls = append(n.calls, name)
	switch name {
	case "message", "executable":
		return obj.None, nil
	case "sum":
		total := int64(0)
		for _, a := range args {
			total += v.Store.GetNumber(a)
		}
		return v.Store.Number(total), nil
	default:
		return obj.None, fmt.Errorf("unknown native function %q", name)
	}
}

func (n *stubNative) CallMethod(v *VM, recv obj.Handle, name string, pos ast.Pos, args []obj.Handle, kw map[string]obj.Handle) (obj.Handle, error) {
	if recv.Kind() == obj.KindString && name == "to_upper" {
		return v.Store.String(v.Store.GetString(recv)), nil
	}
	return obj.None, fmt.Errorf("unknown method %q on %s", name, recv.Kind())
}

func (n *stubNative) RenderFString(v *VM, template string, lookup func(name string) (obj.Handle, bool)) (string, error) {
	return template, nil
}

func TestVMAssignAndLoad(t *testing.T) {
	file, err := parser.Parse([]byte("x = 1 + 2 * 3\ny = x\n"), "t.build", true)
	if err != nil {
		t.Fatal(err)
	}
	store := obj.NewStore()
	prog, err := bytecode.Compile(file.Pool, store, file.Statements)
	if err != nil {
		t.Fatal(err)
	}
	reporter := diag.NewReporter()
	m := New(store, reporter, &stubNative{})
	scope := NewScope(nil)
	if _, err := m.RunInScope(prog, scope); err != nil {
		t.Fatalf("run error: %v", err)
	}
	x, ok := scope.Get("x")
	if !ok || store.GetNumber(x) != 7 {
		t.Fatalf("expected x == 7, got %v ok=%v", x, ok)
	}
	y, ok := scope.Get("y")
	if !ok || store.GetNumber(y) != 7 {
		t.Fatalf("expected y == 7, got %v ok=%v", y, ok)
	}
}

func TestVMIfElse(t *testing.T) {
	src := "x = 0\nif true\n  x = 1\nelse\n  x = 2\nendif\n"
	file, err := parser.Parse([]byte(src), "t.build", true)
	if err != nil {
		t.Fatal(err)
	}
	store := obj.NewStore()
	prog, err := bytecode.Compile(file.Pool, store, file.Statements)
	if err != nil {
		t.Fatal(err)
	}
	m := New(store, diag.NewReporter(), &stubNative{})
	scope := NewScope(nil)
	if _, err := m.RunInScope(prog, scope); err != nil {
		t.Fatalf("run error: %v", err)
	}
	x, _ := scope.Get("x")
	if store.GetNumber(x) != 1 {
		t.Fatalf("expected x == 1, got %d", store.GetNumber(x))
	}
}

func TestVMForeachOverArray(t *testing.T) {
	src := "arr = [1, 2, 3]\ntotal = 0\nforeach v : arr\n  total = total + v\nendforeach\n"
	file, err := parser.Parse([]byte(src), "t.build", true)
	if err != nil {
		t.Fatal(err)
	}
	store := obj.NewStore()
	prog, err := bytecode.Compile(file.Pool, store, file.Statements)
	if err != nil {
		t.Fatal(err)
	}
	m := New(store, diag.NewReporter(), &stubNative{})
	scope := NewScope(nil)
	if _, err := m.RunInScope(prog, scope); err != nil {
		t.Fatalf("run error: %v", err)
	}
	total, _ := scope.Get("total")
	if store.GetNumber(total) != 6 {
		t.Fatalf("expected total == 6, got %d", store.GetNumber(total))
	}
}

func TestVMForeachOverDictTwoVars(t *testing.T) {
	src := "d = {'a': 1, 'b': 2}\nkeys = []\nforeach k, v : d\n  keys = keys + k\nendforeach\n"
	file, err := parser.Parse([]byte(src), "t.build", true)
	if err != nil {
		t.Fatal(err)
	}
	store := obj.NewStore()
	prog, err := bytecode.Compile(file.Pool, store, file.Statements)
	if err != nil {
		t.Fatal(err)
	}
	m := New(store, diag.NewReporter(), &stubNative{})
	scope := NewScope(nil)
	if _, err := m.RunInScope(prog, scope); err != nil {
		t.Fatalf("run error: %v", err)
	}
	keys, _ := scope.Get("keys")
	arr := store.GetArray(keys)
	if arr.Len() != 2 {
		t.Fatalf("expected 2 keys collected, got %d", arr.Len())
	}
}

func TestVMShortCircuitAnd(t *testing.T) {
	src := "x = false and error_if_evaluated()\n"
	file, err := parser.Parse([]byte(src), "t.build", true)
	if err != nil {
		t.Fatal(err)
	}
	store := obj.NewStore()
	prog, err := bytecode.Compile(file.Pool, store, file.Statements)
	if err != nil {
		t.Fatal(err)
	}
	native := &stubNative{}
	m := New(store, diag.NewReporter(), native)
	scope := NewScope(nil)
	if _, err := m.RunInScope(prog, scope); err != nil {
		t.Fatalf("run error: %v", err)
	}
	for _, c := range native.calls {
		if c == "error_if_evaluated" {
			t.Fatal("right-hand side of 'and' should not have been evaluated")
		}
	}
}

func TestVMCallNameDispatchesToNative(t *testing.T) {
	src := "x = sum(1, 2, 3)\n"
	file, err := parser.Parse([]byte(src), "t.build", true)
	if err != nil {
		t.Fatal(err)
	}
	store := obj.NewStore()
	prog, err := bytecode.Compile(file.Pool, store, file.Statements)
	if err != nil {
		t.Fatal(err)
	}
	m := New(store, diag.NewReporter(), &stubNative{})
	scope := NewScope(nil)
	if _, err := m.RunInScope(prog, scope); err != nil {
		t.Fatalf("run error: %v", err)
	}
	x, ok := scope.Get("x")
	if !ok || store.GetNumber(x) != 6 {
		t.Fatalf("expected x == 6, got %v ok=%v", x, ok)
	}
}

func TestVMUserFunctionShadowsNative(t *testing.T) {
	src := "sum = func(a, b)\n  return a - b\nendfunc\nx = sum(5, 2)\n"
	file, err := parser.Parse([]byte(src), "t.build", true)
	if err != nil {
		t.Fatal(err)
	}
	store := obj.NewStore()
	prog, err := bytecode.Compile(file.Pool, store, file.Statements)
	if err != nil {
		t.Fatal(err)
	}
	m := New(store, diag.NewReporter(), &stubNative{})
	scope := NewScope(nil)
	if _, err := m.RunInScope(prog, scope); err != nil {
		t.Fatalf("run error: %v", err)
	}
	x, ok := scope.Get("x")
	if !ok || store.GetNumber(x) != 3 {
		t.Fatalf("expected user-defined sum to shadow the native one and yield 3, got %v ok=%v", x, ok)
	}
}

func TestVMMethodCallDispatchesToNative(t *testing.T) {
	src := "x = 'hi'.to_upper()\n"
	file, err := parser.Parse([]byte(src), "t.build", true)
	if err != nil {
		t.Fatal(err)
	}
	store := obj.NewStore()
	prog, err := bytecode.Compile(file.Pool, store, file.Statements)
	if err != nil {
		t.Fatal(err)
	}
	m := New(store, diag.NewReporter(), &stubNative{})
	scope := NewScope(nil)
	if _, err := m.RunInScope(prog, scope); err != nil {
		t.Fatalf("run error: %v", err)
	}
	x, ok := scope.Get("x")
	if !ok || store.GetString(x) != "hi" {
		t.Fatalf("expected method call to round-trip through stub native, got %v ok=%v", x, ok)
	}
}

func TestVMUnknownVariableReportsDiagnostic(t *testing.T) {
	src := "x = undeclared\n"
	file, err := parser.Parse([]byte(src), "t.build", true)
	if err != nil {
		t.Fatal(err)
	}
	store := obj.NewStore()
	prog, err := bytecode.Compile(file.Pool, store, file.Statements)
	if err != nil {
		t.Fatal(err)
	}
	m := New(store, diag.NewReporter(), &stubNative{})
	_, err = m.Run(prog)
	if err == nil {
		t.Fatal("expected an unknown-variable error")
	}
	rep, ok := diag.AsReport(err)
	if !ok {
		t.Fatalf("expected a diag.Report, got %v", err)
	}
	if rep.Code != "E_UNKNOWN_VAR" {
		t.Fatalf("expected E_UNKNOWN_VAR, got %s", rep.Code)
	}
}

func TestVMStoreMemberSetsModuleExport(t *testing.T) {
	src := "mod.greeting = 'hi'\n"
	file, err := parser.Parse([]byte(src), "t.build", true)
	if err != nil {
		t.Fatal(err)
	}
	store := obj.NewStore()
	prog, err := bytecode.Compile(file.Pool, store, file.Statements)
	if err != nil {
		t.Fatal(err)
	}
	modHandle := store.NewModule(&obj.Module{Name: "mod", Exports: obj.NewDict()})
	scope := NewScope(nil)
	scope.Set("mod", modHandle)

	m := New(store, diag.NewReporter(), &stubNative{})
	if _, err := m.RunInScope(prog, scope); err != nil {
		t.Fatalf("run error: %v", err)
	}
	greeting, ok := store.GetModule(modHandle).Exports.Get("greeting")
	if !ok || store.GetString(greeting) != "hi" {
		t.Fatalf("expected mod.greeting == 'hi', got %v ok=%v", greeting, ok)
	}
}

func TestVMArrayPlusStringAppends(t *testing.T) {
	src := "sources = ['a.c']\nsources = sources + 'b.c'\n"
	file, err := parser.Parse([]byte(src), "t.build", true)
	if err != nil {
		t.Fatal(err)
	}
	store := obj.NewStore()
	prog, err := bytecode.Compile(file.Pool, store, file.Statements)
	if err != nil {
		t.Fatal(err)
	}
	m := New(store, diag.NewReporter(), &stubNative{})
	scope := NewScope(nil)
	if _, err := m.RunInScope(prog, scope); err != nil {
		t.Fatalf("run error: %v", err)
	}
	h, _ := scope.Get("sources")
	arr := store.GetArray(h)
	if arr.Len() != 2 {
		t.Fatalf("expected array append to yield length 2, got %d", arr.Len())
	}
	if store.GetString(arr.Elems[1]) != "b.c" {
		t.Fatalf("expected second element 'b.c', got %q", store.GetString(arr.Elems[1]))
	}
}
