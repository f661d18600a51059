// Package registry implements the native-function dispatch layer
// (spec.md section 4.7, component C8): a descriptor for each native
// function plus, for every obj.Kind, a per-language-mode method table.
// It knows nothing about what any individual builtin does — that
// vocabulary belongs to internal/builtins — it only knows how to bind a
// call's arguments against a declared Signature and invoke the handler,
// honoring the disabler short-circuit spec.md section 4.5 requires of
// every call boundary.
//
// Grounded on the teacher's internal/builtins/registry.go
// (category-split init()-time registration into a package-level map) and,
// independently, please/asp's setNativeCode builder and per-type method
// maps (stringMethods, dictMethods) for the per-Kind table shape.
package registry

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

// Mode selects which method-table overlay is visible to a call, per
// spec.md section 4.7's lookup order.
type Mode uint8

const (
	ModeExternal Mode = iota // full compatibility surface
	ModeInternal              // unrestricted extras (module-internal helpers)
	ModeOpts                  // option-file surface (option(), get_option())
	ModeExtended              // internal overlaid on external
)

// Flags describes cross-cutting behavior of a native function, per
// spec.md section 4.7's function descriptor.
type Flags uint8

const (
	FlagSandboxDisable Flags = 1 << iota // rejected when the calling context is sandboxed
	FlagImpure                           // disables analyzer memoization
	FlagExtension                        // not part of the compatibility surface
	FlagThrowsError                      // documented to be able to raise a fatal Report
	FlagDisablerImmune                   // exempt from the disabler short-circuit (e.g. is_disabler)
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Handler is the shape every native function implements. self is
// obj.None for top-level (kernel) calls; for a method call it is the
// receiver. bound is the result of running PopArgs against the
// function's Signature.
type Handler func(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error)

// NativeFunc is the full descriptor spec.md section 4.7 assigns every
// native function: name, handler, declared return type, and flags.
type NativeFunc struct {
	Name    string
	Sig     types.Signature
	Handler Handler
	Returns types.TypeTag
	Flags   Flags
}

// Table maps a call name to its descriptor, for one (Mode, receiver
// Kind) pair — or for the kernel (no receiver) functions when used as
// Registry.Kernel[mode].
type Table map[string]*NativeFunc

// Registry holds every native function table across every language
// mode, per spec.md section 4.7: kernel (top-level) functions plus a
// per-obj.Kind method table.
type Registry struct {
	Kernel  map[Mode]Table
	Methods map[Mode]map[obj.Kind]Table
}

// New returns an empty Registry ready for RegisterKernel/RegisterMethod calls.
func New() *Registry {
	return &Registry{
		Kernel:  make(map[Mode]Table),
		Methods: make(map[Mode]map[obj.Kind]Table),
	}
}

// RegisterKernel adds a top-level (no-receiver) function under mode.
func (r *Registry) RegisterKernel(mode Mode, fn *NativeFunc) {
	t, ok := r.Kernel[mode]
	if !ok {
		t = make(Table)
		r.Kernel[mode] = t
	}
	t[fn.Name] = fn
}

// RegisterMethod adds fn to kind's method table under mode.
func (r *Registry) RegisterMethod(mode Mode, kind obj.Kind, fn *NativeFunc) {
	byKind, ok := r.Methods[mode]
	if !ok {
		byKind = make(map[obj.Kind]Table)
		r.Methods[mode] = byKind
	}
	t, ok := byKind[kind]
	if !ok {
		t = make(Table)
		byKind[kind] = t
	}
	t[fn.Name] = fn
}

// LookupKernel resolves a bare identifier call against the kernel table
// for mode, falling back to ModeExternal underneath ModeExtended (mode
// overlay rule from spec.md section 4.7, point 2: "extended = internal
// overlaid on external").
func (r *Registry) LookupKernel(mode Mode, name string) (*NativeFunc, bool) {
	if mode == ModeExtended {
		if fn, ok := r.Kernel[ModeInternal][name]; ok {
			return fn, true
		}
		fn, ok := r.Kernel[ModeExternal][name]
		return fn, ok
	}
	fn, ok := r.Kernel[mode][name]
	return fn, ok
}

// LookupMethod resolves x.name() against kind's method table for mode,
// with the same extended-mode overlay rule as LookupKernel.
func (r *Registry) LookupMethod(mode Mode, kind obj.Kind, name string) (*NativeFunc, bool) {
	if mode == ModeExtended {
		if fn, ok := r.Methods[ModeInternal][kind][name]; ok {
			return fn, true
		}
		fn, ok := r.Methods[ModeExternal][kind][name]
		return fn, ok
	}
	fn, ok := r.Methods[mode][kind][name]
	return fn, ok
}

// Dispatch binds args/kw against fn.Sig and invokes fn.Handler, applying
// the disabler short-circuit of spec.md section 4.5 point 4 before
// typechecking runs at all (a disabler argument never needs to satisfy
// any declared type).
func Dispatch(fn *NativeFunc, v *vm.VM, pos ast.Pos, self obj.Handle, args []obj.Handle, kw map[string]obj.Handle) (obj.Handle, error) {
	if !fn.Flags.Has(FlagDisablerImmune) {
		if self.Kind() == obj.KindDisabler {
			return v.Store.Disabler, nil
		}
		for _, a := range args {
			if a.Kind() == obj.KindDisabler {
				return v.Store.Disabler, nil
			}
		}
		for _, a := range kw {
			if a.Kind() == obj.KindDisabler {
				return v.Store.Disabler, nil
			}
		}
	}

	posPos := make([]ast.Pos, len(args))
	for i := range posPos {
		posPos[i] = pos
	}
	kwPos := make(map[string]ast.Pos, len(kw))
	for k := range kw {
		kwPos[k] = pos
	}

	bound, disabled, err := types.PopArgs(v.Store, pos, fn.Sig, args, posPos, kw, kwPos)
	if err != nil {
		return obj.None, v.Reporter.Emit(reportOf(err))
	}
	if disabled {
		return v.Store.Disabler, nil
	}
	return fn.Handler(v, pos, self, bound)
}

func reportOf(err error) *diag.Report {
	if rep, ok := diag.AsReport(err); ok {
		return rep
	}
	return diag.New("E_TYPE", diag.PhaseType, err.Error(), ast.Pos{})
}
