package builtins

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

var dependencySig = types.Signature{
	Name:     "dependency",
	Required: []types.Formal{{Name: "names", Tag: types.TString | types.Listify | types.Glob}},
	Kwargs: []types.Formal{
		{Name: "version", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "static", Tag: types.TBool, Default: obj.None},
		{Name: "modules", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "required", Tag: types.TBool | types.TFeatureOpt, Default: obj.None},
		{Name: "method", Tag: types.TString, Default: obj.None},
		{Name: "fallback", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "allow_fallback", Tag: types.TBool, Default: obj.None},
		{Name: "default_options", Tag: types.TArray | types.TDict, Default: obj.None},
		{Name: "native", Tag: types.TBool, Default: obj.None},
		{Name: "disabler", Tag: types.TBool, Default: obj.None},
	},
}

// Dependency implements dependency() (spec.md section 4.9): assembles a
// DependencyRequest from the bound kwargs and defers all state-machine
// work to the Workspace's resolver.
func Dependency(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "dependency() requires a workspace-backed native dispatcher"))
	}

	required := true
	if reqH := bound.Get("required"); reqH.Kind() == obj.KindBool {
		required = v.Store.GetBool(reqH)
	} else if reqH.Kind() == obj.KindFeatureOpt {
		required = obj.Render(v.Store, reqH) == "enabled"
	}

	req := DependencyRequest{
		Names:          stringsOf(v.Store, bound.Get("names")),
		Version:        stringOf(v.Store, bound.Get("version"), ""),
		Static:         boolOf(v.Store, bound.Get("static"), false),
		Modules:        stringsOf(v.Store, bound.Get("modules")),
		Machine:        machineOf(v.Store, bound, "native"),
		Required:       required,
		Method:         stringOf(v.Store, bound.Get("method"), "auto"),
		Fallback:       stringsOf(v.Store, bound.Get("fallback")),
		AllowFallback:  boolOf(v.Store, bound.Get("allow_fallback"), len(stringsOf(v.Store, bound.Get("fallback"))) > 0),
		DefaultOptions: keyValuePairs(v.Store, bound.Get("default_options")),
		Disabler:       boolOf(v.Store, bound.Get("disabler"), false),
	}

	return ws.ResolveDependency(req)
}

var declareDependencySig = types.Signature{
	Name: "declare_dependency",
	Kwargs: []types.Formal{
		{Name: "compile_args", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "link_args", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "include_directories", Tag: types.TIncludeDirectory | types.Listify, Default: obj.None},
		{Name: "link_with", Tag: types.TLinkable | types.Listify, Default: obj.None},
		{Name: "sources", Tag: types.TSourceLike | types.Listify, Default: obj.None},
		{Name: "dependencies", Tag: types.TDependency | types.Listify, Default: obj.None},
		{Name: "variables", Tag: types.TArray | types.TDict, Default: obj.None},
		{Name: "version", Tag: types.TString, Default: obj.None},
	},
}

// DeclareDependency implements declare_dependency(): builds a
// DepInternal-typed dependency value directly from its kwargs without
// consulting the resolver state machine (spec.md section 4.9: "a
// project's own declare_dependency() result never goes through
// CheckOverride/CheckCache").
func DeclareDependency(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	d := &obj.Dependency{
		Type:        obj.DepInternal,
		Found:       true,
		Version:     stringOf(v.Store, bound.Get("version"), "undefined"),
		Machine:     obj.MachineHost,
		CompileArgs: stringsOf(v.Store, bound.Get("compile_args")),
		LinkArgs:    stringsOf(v.Store, bound.Get("link_args")),
		IncludeDirs: handlesOf(v.Store, bound.Get("include_directories")),
		LinkWith:    handlesOf(v.Store, bound.Get("link_with")),
		Sources:     handlesOf(v.Store, bound.Get("sources")),
	}
	for _, dep := range handlesOf(v.Store, bound.Get("dependencies")) {
		if dep.Kind() != obj.KindDependency {
			continue
		}
		inner := v.Store.GetDependency(dep)
		d.CompileArgs = append(d.CompileArgs, inner.CompileArgs...)
		d.LinkArgs = append(d.LinkArgs, inner.LinkArgs...)
		d.IncludeDirs = append(d.IncludeDirs, inner.IncludeDirs...)
		d.LinkWith = append(d.LinkWith, inner.LinkWith...)
	}
	return v.Store.NewDependency(d), nil
}

// keyValuePairs accepts either an array of "key=value" strings or a dict
// and normalizes both into a map, the shape default_options/
// override_options take throughout spec.md section 4.8/4.9.
func keyValuePairs(s *obj.Store, h obj.Handle) map[string]string {
	if h.IsNone() || h.Kind() == obj.KindNull {
		return nil
	}
	out := make(map[string]string)
	switch h.Kind() {
	case obj.KindDict:
		s.GetDict(h).Each(func(k string, v obj.Handle) {
			out[k] = obj.Render(s, v)
		})
	case obj.KindArray:
		for _, e := range s.GetArray(h).Elems {
			pair := obj.Render(s, e)
			for i := 0; i < len(pair); i++ {
				if pair[i] == '=' {
					out[pair[:i]] = pair[i+1:]
					break
				}
			}
		}
	case obj.KindString:
		pair := s.GetString(h)
		for i := 0; i < len(pair); i++ {
			if pair[i] == '=' {
				out[pair[:i]] = pair[i+1:]
				break
			}
		}
	}
	return out
}

func registerDependency(r *registry.Registry) {
	dep := &registry.NativeFunc{Name: "dependency", Sig: dependencySig, Handler: Dependency, Flags: registry.FlagImpure}
	decl := &registry.NativeFunc{Name: "declare_dependency", Sig: declareDependencySig, Handler: DeclareDependency}
	for _, fn := range []*registry.NativeFunc{dep, decl} {
		r.RegisterKernel(registry.ModeExternal, fn)
		r.RegisterKernel(registry.ModeExtended, fn)
	}

	found := &registry.NativeFunc{Name: "found", Sig: types.Signature{Name: "found"}, Handler: dependencyFound}
	version := &registry.NativeFunc{Name: "version", Sig: types.Signature{Name: "version"}, Handler: dependencyVersion}
	typeName := &registry.NativeFunc{Name: "type_name", Sig: types.Signature{Name: "type_name"}, Handler: dependencyTypeName}
	for _, fn := range []*registry.NativeFunc{found, version, typeName} {
		r.RegisterMethod(registry.ModeExternal, obj.KindDependency, fn)
		r.RegisterMethod(registry.ModeExtended, obj.KindDependency, fn)
	}
}

func dependencyFound(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	return boolHandle(v.Store, v.Store.GetDependency(self).Found), nil
}

func dependencyVersion(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	return v.Store.String(v.Store.GetDependency(self).Version), nil
}

func dependencyTypeName(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	return v.Store.String(v.Store.GetDependency(self).Type.String()), nil
}
