package builtins

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

var subprojectSig = types.Signature{
	Name:     "subproject",
	Required: []types.Formal{{Name: "name", Tag: types.TString}},
	Kwargs: []types.Formal{
		{Name: "version", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "default_options", Tag: types.TArray | types.TDict, Default: obj.None},
		{Name: "required", Tag: types.TBool | types.TFeatureOpt, Default: obj.None},
	},
}

// Subproject implements subproject() (spec.md section 4.10): evaluates
// the named nested project (detecting circular references and caching
// repeat requests) and wraps the result in a subproject handle that
// get_variable() can later dereference.
func Subproject(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "subproject() requires a workspace-backed native dispatcher"))
	}

	name := v.Store.GetString(bound.Get("name"))
	required := true
	if reqH := bound.Get("required"); reqH.Kind() == obj.KindBool {
		required = v.Store.GetBool(reqH)
	} else if reqH.Kind() == obj.KindFeatureOpt {
		required = obj.Render(v.Store, reqH) == "enabled"
	}

	proj, found, err := ws.EvalSubproject(pos, name, keyValuePairs(v.Store, bound.Get("default_options")))
	if err != nil {
		return obj.None, err
	}
	if !found {
		if required {
			return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "subproject "+name+" not found and required"))
		}
		return v.Store.NewSubproject(&obj.Subproject{Name: name, Found: false}), nil
	}

	idx := -1
	for i, p := range ws.Projects() {
		if p == proj {
			idx = i
			break
		}
	}
	return v.Store.NewSubproject(&obj.Subproject{Name: name, Found: true, ProjectIdx: idx}), nil
}

func registerSubproject(r *registry.Registry) {
	fn := &registry.NativeFunc{Name: "subproject", Sig: subprojectSig, Handler: Subproject, Flags: registry.FlagImpure}
	r.RegisterKernel(registry.ModeExternal, fn)
	r.RegisterKernel(registry.ModeExtended, fn)

	getVar := &registry.NativeFunc{
		Name: "get_variable",
		Sig: types.Signature{
			Name:     "get_variable",
			Required: []types.Formal{{Name: "name", Tag: types.TString}},
			Optional: []types.Formal{{Name: "fallback", Tag: types.TAny}},
		},
		Handler: subprojectGetVariable,
	}
	r.RegisterMethod(registry.ModeExternal, obj.KindSubproject, getVar)
	r.RegisterMethod(registry.ModeExtended, obj.KindSubproject, getVar)

	foundFn := &registry.NativeFunc{Name: "found", Sig: types.Signature{Name: "found"}, Handler: subprojectFound}
	r.RegisterMethod(registry.ModeExternal, obj.KindSubproject, foundFn)
	r.RegisterMethod(registry.ModeExtended, obj.KindSubproject, foundFn)
}

func subprojectFound(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	sp := v.Store.GetSubproject(self)
	if sp.Found {
		return v.Store.True, nil
	}
	return v.Store.False, nil
}

// subprojectGetVariable reaches into the referenced Project's top-level
// scope (spec.md section 4.10: "get_variable() reads from the
// subproject's completed top-level scope, not a copy").
func subprojectGetVariable(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "get_variable() requires a workspace-backed native dispatcher"))
	}
	sp := v.Store.GetSubproject(self)
	if !sp.Found || sp.ProjectIdx < 0 {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "get_variable() on an unfound subproject"))
	}
	projects := ws.Projects()
	if sp.ProjectIdx >= len(projects) {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "get_variable(): stale subproject reference"))
	}
	proj := projects[sp.ProjectIdx]
	name := v.Store.GetString(bound.Get("name"))
	if proj.Scope != nil {
		if h, ok := proj.Scope.Get(name); ok {
			return h, nil
		}
	}
	if fb := bound.Get("fallback"); !fb.IsNone() {
		return fb, nil
	}
	return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "unknown variable "+name+" in subproject "+proj.Name))
}
