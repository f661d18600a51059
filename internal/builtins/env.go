package builtins

import (
	"path/filepath"
	"strings"

	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

var environmentSig = types.Signature{
	Name:     "environment",
	Optional: []types.Formal{{Name: "entries", Tag: types.TDict | types.TArray, Default: obj.None}},
}

// EnvironmentCtor implements environment() (spec.md section 4.8).
func EnvironmentCtor(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	e := &obj.Environment{}
	if entries := bound.Get("entries"); entries.Kind() == obj.KindDict {
		v.Store.GetDict(entries).Each(func(k string, h obj.Handle) {
			e.Ops = append(e.Ops, obj.EnvOp{Kind: "set", Key: k, Values: []string{obj.Render(v.Store, h)}})
		})
	}
	return v.Store.NewEnvironment(e), nil
}

func envMutator(kind string) registry.Handler {
	return func(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
		e := v.Store.GetEnvironment(self)
		e.Ops = append(e.Ops, obj.EnvOp{
			Kind:      kind,
			Key:       v.Store.GetString(bound.Get("key")),
			Values:    stringsOf(v.Store, bound.Get("value")),
			Separator: stringOf(v.Store, bound.Get("separator"), string(filepath.ListSeparator)),
		})
		return obj.None, nil
	}
}

var envMutatorSig = types.Signature{
	Name:     "set",
	Required: []types.Formal{{Name: "key", Tag: types.TString}, {Name: "value", Tag: types.TString | types.Listify}},
	Kwargs:   []types.Formal{{Name: "separator", Tag: types.TString, Default: obj.None}},
}

var filesSig = types.Signature{
	Name:     "files",
	Optional: []types.Formal{{Name: "names", Tag: types.TString | types.Listify | types.Glob}},
}

// Files implements files() (spec.md section 4.8): wraps each string path
// as a file handle exactly as given; a relative path is not joined with
// the currently executing source directory.
func Files(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	names := stringsOf(v.Store, bound.Get("names"))
	handles := make([]obj.Handle, len(names))
	for i, n := range names {
		handles[i] = v.Store.File(n)
	}
	if len(handles) == 1 {
		return handles[0], nil
	}
	return v.Store.NewArray(handles...), nil
}

var includeDirectoriesSig = types.Signature{
	Name:     "include_directories",
	Required: []types.Formal{{Name: "dirs", Tag: types.TString | types.Listify | types.Glob}},
	Kwargs:   []types.Formal{{Name: "is_system", Tag: types.TBool, Default: obj.None}},
}

// IncludeDirectoriesCtor implements include_directories() (spec.md
// section 4.8).
func IncludeDirectoriesCtor(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	d := &obj.IncludeDirectory{
		Dirs:     stringsOf(v.Store, bound.Get("dirs")),
		IsSystem: boolOf(v.Store, bound.Get("is_system"), false),
	}
	return v.Store.NewIncludeDirectory(d), nil
}

var joinPathsSig = types.Signature{
	Name:     "join_paths",
	Required: []types.Formal{{Name: "parts", Tag: types.TString | types.Listify | types.Glob}},
}

// JoinPaths implements join_paths() using Meson's forward-slash joining
// convention rather than the host OS separator, matching the original
// implementation's cross-platform path strings (spec.md is silent on
// separator choice; original_source's mesonlib.join_paths always joins
// with "/").
func JoinPaths(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	parts := stringsOf(v.Store, bound.Get("parts"))
	return v.Store.String(strings.Join(parts, "/")), nil
}

func registerEnv(r *registry.Registry) {
	envCtor := &registry.NativeFunc{Name: "environment", Sig: environmentSig, Handler: EnvironmentCtor}
	filesFn := &registry.NativeFunc{Name: "files", Sig: filesSig, Handler: Files}
	incDirs := &registry.NativeFunc{Name: "include_directories", Sig: includeDirectoriesSig, Handler: IncludeDirectoriesCtor}
	joinPaths := &registry.NativeFunc{Name: "join_paths", Sig: joinPathsSig, Handler: JoinPaths}
	for _, fn := range []*registry.NativeFunc{envCtor, filesFn, incDirs, joinPaths} {
		r.RegisterKernel(registry.ModeExternal, fn)
		r.RegisterKernel(registry.ModeExtended, fn)
	}

	set := &registry.NativeFunc{Name: "set", Sig: envMutatorSig, Handler: envMutator("set")}
	appendFn := &registry.NativeFunc{Name: "append", Sig: envMutatorSig, Handler: envMutator("append")}
	prepend := &registry.NativeFunc{Name: "prepend", Sig: envMutatorSig, Handler: envMutator("prepend")}
	for _, fn := range []*registry.NativeFunc{set, appendFn, prepend} {
		r.RegisterMethod(registry.ModeExternal, obj.KindEnvironment, fn)
		r.RegisterMethod(registry.ModeExtended, obj.KindEnvironment, fn)
	}

	getVar := &registry.NativeFunc{
		Name: "get_variable",
		Sig: types.Signature{
			Name:     "get_variable",
			Required: []types.Formal{{Name: "name", Tag: types.TString}},
			Optional: []types.Formal{{Name: "fallback", Tag: types.TAny}},
		},
		Handler: getVariable,
	}
	setVar := &registry.NativeFunc{
		Name: "set_variable",
		Sig: types.Signature{
			Name:     "set_variable",
			Required: []types.Formal{{Name: "name", Tag: types.TString}, {Name: "value", Tag: types.TAny}},
		},
		Handler: setVariable,
	}
	isVar := &registry.NativeFunc{
		Name:    "is_variable",
		Sig:     types.Signature{Name: "is_variable", Required: []types.Formal{{Name: "name", Tag: types.TString}}},
		Handler: isVariable,
	}
	unsetVar := &registry.NativeFunc{
		Name:    "unset_variable",
		Sig:     types.Signature{Name: "unset_variable", Required: []types.Formal{{Name: "name", Tag: types.TString}}},
		Handler: unsetVariable,
	}
	for _, fn := range []*registry.NativeFunc{getVar, setVar, isVar, unsetVar} {
		r.RegisterKernel(registry.ModeExternal, fn)
		r.RegisterKernel(registry.ModeExtended, fn)
	}
}

// getVariable/setVariable/is_variable/unset_variable implement the
// kernel-scope variable-introspection family (spec.md section 4.8),
// operating on the calling frame's own scope rather than a subproject's
// (see subprojectGetVariable for the .get_variable() method form).
func getVariable(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	name := v.Store.GetString(bound.Get("name"))
	if h, ok := v.CurrentScope().Get(name); ok {
		return h, nil
	}
	if fb := bound.Get("fallback"); !fb.IsNone() {
		return fb, nil
	}
	return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "unknown variable "+name))
}

func setVariable(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	name := v.Store.GetString(bound.Get("name"))
	v.CurrentScope().Set(name, bound.Get("value"))
	return obj.None, nil
}

func isVariable(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	name := v.Store.GetString(bound.Get("name"))
	_, ok := v.CurrentScope().Get(name)
	return boolHandle(v.Store, ok), nil
}

func unsetVariable(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	name := v.Store.GetString(bound.Get("name"))
	v.CurrentScope().Unset(name)
	return obj.None, nil
}
