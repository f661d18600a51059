package registry

import (
	"testing"

	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

func echoFunc(name string) *NativeFunc {
	return &NativeFunc{
		Name: name,
		Sig: types.Signature{
			Name:     name,
			Required: []Formal1(),
		},
		Handler: func(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
			return bound.Get("x"), nil
		},
	}
}

// Formal1 avoids importing types.Formal twice in the literal above; kept
// as a tiny helper since every test in this file needs the same shape.
func Formal1() []types.Formal {
	return []types.Formal{{Name: "x", Tag: types.TAny}}
}

func newTestVM() *vm.VM {
	store := obj.NewStore()
	return vm.New(store, diag.NewReporter(), nil)
}

func TestRegisterAndLookupKernel(t *testing.T) {
	r := New()
	fn := echoFunc("noop")
	r.RegisterKernel(ModeExternal, fn)

	got, ok := r.LookupKernel(ModeExternal, "noop")
	if !ok || got != fn {
		t.Fatalf("expected to find registered kernel function, got %v ok=%v", got, ok)
	}
	if _, ok := r.LookupKernel(ModeOpts, "noop"); ok {
		t.Fatal("function registered under ModeExternal should not be visible under ModeOpts")
	}
}

func TestExtendedOverlaysInternalOnExternal(t *testing.T) {
	r := New()
	ext := echoFunc("shared")
	internalOnly := echoFunc("internal_only")
	override := echoFunc("shared")
	r.RegisterKernel(ModeExternal, ext)
	r.RegisterKernel(ModeInternal, internalOnly)
	r.RegisterKernel(ModeInternal, override)

	got, ok := r.LookupKernel(ModeExtended, "shared")
	if !ok || got != override {
		t.Fatalf("expected extended mode to prefer the internal-table entry, got %v ok=%v", got, ok)
	}
	if _, ok := r.LookupKernel(ModeExtended, "internal_only"); !ok {
		t.Fatal("extended mode should also see internal-only entries")
	}
}

func TestRegisterMethodLookup(t *testing.T) {
	r := New()
	fn := echoFunc("found")
	r.RegisterMethod(ModeExternal, obj.KindDependency, fn)
	got, ok := r.LookupMethod(ModeExternal, obj.KindDependency, "found")
	if !ok || got != fn {
		t.Fatalf("expected method lookup to find registered function, got %v ok=%v", got, ok)
	}
	if _, ok := r.LookupMethod(ModeExternal, obj.KindBuildTarget, "found"); ok {
		t.Fatal("method registered on dependency should not resolve against build_target")
	}
}

func TestDispatchBindsArgsAndCallsHandler(t *testing.T) {
	v := newTestVM()
	fn := echoFunc("echo")
	res, err := Dispatch(fn, v, ast.Pos{}, obj.None, []obj.Handle{v.Store.Number(7)}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Store.GetNumber(res) != 7 {
		t.Fatalf("expected handler to echo bound arg 7, got %d", v.Store.GetNumber(res))
	}
}

func TestDispatchShortCircuitsOnDisablerArg(t *testing.T) {
	v := newTestVM()
	fn := echoFunc("echo")
	res, err := Dispatch(fn, v, ast.Pos{}, obj.None, []obj.Handle{v.Store.Disabler}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != v.Store.Disabler {
		t.Fatalf("expected disabler short-circuit, got %v", res)
	}
}

func TestDispatchDisablerImmuneFlagBypassesShortCircuit(t *testing.T) {
	v := newTestVM()
	fn := echoFunc("is_disabler")
	fn.Flags = FlagDisablerImmune
	res, err := Dispatch(fn, v, ast.Pos{}, obj.None, []obj.Handle{v.Store.Disabler}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != v.Store.Disabler {
		t.Fatalf("handler should still receive the disabler as its bound arg, got %v", res)
	}
}

func TestDispatchMissingArgReportsDiagnostic(t *testing.T) {
	v := newTestVM()
	fn := echoFunc("echo")
	_, err := Dispatch(fn, v, ast.Pos{}, obj.None, nil, nil)
	if err == nil {
		t.Fatal("expected a missing-argument error")
	}
	rep, ok := diag.AsReport(err)
	if !ok || rep.Code != "E_MISSING_ARG" {
		t.Fatalf("expected E_MISSING_ARG, got %v", err)
	}
}
