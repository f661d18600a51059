package builtins

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

// MesonModuleName is the binding name internal/workspace seeds into
// every top-level scope for the meson.* accessor family (spec.md
// section 4.8's "meson object" surface), kept here rather than invented
// ad hoc in Workspace so the method table and the constant stay next to
// each other.
const MesonModuleName = "meson"

// NewMesonModule builds the module value meson.* methods dispatch
// against. Its Exports dict is unused by these accessors (they all read
// through the Workspace type-assertion instead) but is populated so
// generic module introspection (module.method_names(), if ever added)
// still has something to show.
func NewMesonModule(s *obj.Store) obj.Handle {
	return s.NewModule(&obj.Module{Name: "meson", Exports: obj.NewDict()})
}

func mesonOnly(name string, sig types.Signature, handler registry.Handler) *registry.NativeFunc {
	return &registry.NativeFunc{Name: name, Sig: sig, Handler: handler}
}

func registerMesonAccessors(r *registry.Registry) {
	fns := []*registry.NativeFunc{
		mesonOnly("get_compiler", types.Signature{
			Name:     "get_compiler",
			Required: []types.Formal{{Name: "language", Tag: types.TString}},
			Kwargs:   []types.Formal{{Name: "native", Tag: types.TBool, Default: obj.None}},
		}, mesonGetCompiler),
		mesonOnly("is_subproject", types.Signature{Name: "is_subproject"}, mesonIsSubproject),
		mesonOnly("project_name", types.Signature{Name: "project_name"}, mesonProjectName),
		mesonOnly("project_version", types.Signature{Name: "project_version"}, mesonProjectVersion),
		mesonOnly("backend", types.Signature{Name: "backend"}, mesonBackend),
		mesonOnly("add_dist_script", types.Signature{
			Name:     "add_dist_script",
			Required: []types.Formal{{Name: "script", Tag: types.TString | types.TExternalProgram | types.Listify | types.Glob}},
		}, mesonAddDistScript),
		mesonOnly("override_dependency", types.Signature{
			Name:     "override_dependency",
			Required: []types.Formal{{Name: "name", Tag: types.TString}, {Name: "dep", Tag: types.TDependency}},
			Kwargs:   []types.Formal{{Name: "native", Tag: types.TBool, Default: obj.None}, {Name: "static", Tag: types.TBool, Default: obj.None}},
		}, mesonOverrideDependency),
		mesonOnly("override_find_program", types.Signature{
			Name:     "override_find_program",
			Required: []types.Formal{{Name: "name", Tag: types.TString}, {Name: "program", Tag: types.TExternalProgram | types.TBuildTarget}},
		}, mesonOverrideFindProgram),
	}
	for _, fn := range fns {
		r.RegisterMethod(registry.ModeExternal, obj.KindModule, fn)
		r.RegisterMethod(registry.ModeExtended, obj.KindModule, fn)
	}
}

func mesonGetCompiler(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "meson.get_compiler() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "meson.get_compiler() called before project()"))
	}
	lang := v.Store.GetString(bound.Get("language"))
	ch, ok := proj.Compilers[lang]
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "no compiler for language "+lang))
	}
	return ch, nil
}

func mesonIsSubproject(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "meson.is_subproject() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	return boolHandle(v.Store, proj != nil && proj.IsSubproject), nil
}

func mesonProjectName(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "meson.project_name() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "meson.project_name() called before project()"))
	}
	return v.Store.String(proj.Name), nil
}

func mesonProjectVersion(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "meson.project_version() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "meson.project_version() called before project()"))
	}
	return v.Store.String(proj.Version), nil
}

// mesonBackend reports a fixed backend identifier; this module targets
// a single-backend interpreter (spec.md's Non-goals exclude multi-
// backend selection), so the value is a constant rather than a
// configurable setting.
func mesonBackend(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	return v.Store.String("ninja"), nil
}

func mesonAddDistScript(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "meson.add_dist_script() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "meson.add_dist_script() called before project()"))
	}
	for _, s := range handlesOf(v.Store, bound.Get("script")) {
		proj.Summary["dist_scripts"] = append(proj.Summary["dist_scripts"], obj.Render(v.Store, s))
	}
	return obj.None, nil
}

func mesonOverrideDependency(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "meson.override_dependency() requires a workspace-backed native dispatcher"))
	}
	name := v.Store.GetString(bound.Get("name"))
	dep := bound.Get("dep")
	ov := ws.Overrides()
	if boolOf(v.Store, bound.Get("static"), false) {
		ov.DepStatic[name] = dep
	} else {
		ov.DepShared[name] = dep
	}
	return obj.None, nil
}

func mesonOverrideFindProgram(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "meson.override_find_program() requires a workspace-backed native dispatcher"))
	}
	name := v.Store.GetString(bound.Get("name"))
	ws.Overrides().Programs[name] = bound.Get("program")
	return obj.None, nil
}
