package builtins

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

var findProgramSig = types.Signature{
	Name:     "find_program",
	Required: []types.Formal{{Name: "names", Tag: types.TString | types.TExternalProgram | types.Listify | types.Glob}},
	Kwargs: []types.Formal{
		{Name: "required", Tag: types.TBool | types.TFeatureOpt, Default: obj.None},
		{Name: "native", Tag: types.TBool, Default: obj.None},
		{Name: "disabler", Tag: types.TBool, Default: obj.None},
		{Name: "dirs", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "version", Tag: types.TString | types.Listify, Default: obj.None},
	},
}

// FindProgram implements find_program() (spec.md section 4.8): walks
// the search order — override table, dirs:, PATH (via the
// ProgramFinder collaborator) — and fails hard or soft depending on
// required:.
func FindProgram(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "find_program() requires a workspace-backed native dispatcher"))
	}

	names := stringsOf(v.Store, bound.Get("names"))
	if len(names) == 0 {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "find_program() requires at least one name"))
	}

	required := true
	if reqH := bound.Get("required"); reqH.Kind() == obj.KindBool {
		required = v.Store.GetBool(reqH)
	} else if reqH.Kind() == obj.KindFeatureOpt {
		required = obj.Render(v.Store, reqH) == "enabled"
	}

	if ov, ok := ws.Overrides().Programs[names[0]]; ok {
		return ov, nil
	}

	dirs := stringsOf(v.Store, bound.Get("dirs"))
	path, found := ws.Collaborators().FindProgram(names, dirs)
	if !found {
		if boolOf(v.Store, bound.Get("disabler"), false) {
			return v.Store.Disabler, nil
		}
		if required {
			return obj.None, v.Reporter.Emit(diag.NewDepNotFound(pos, names[0]))
		}
		return v.Store.NewExternalProgram(&obj.ExternalProgram{Name: names[0], Found: false}), nil
	}

	return v.Store.NewExternalProgram(&obj.ExternalProgram{Name: names[0], Path: path, Found: true}), nil
}

func registerFindProgram(r *registry.Registry) {
	fn := &registry.NativeFunc{Name: "find_program", Sig: findProgramSig, Handler: FindProgram, Flags: registry.FlagImpure}
	r.RegisterKernel(registry.ModeExternal, fn)
	r.RegisterKernel(registry.ModeExtended, fn)

	found := &registry.NativeFunc{Name: "found", Sig: types.Signature{Name: "found"}, Handler: externalProgramFound}
	r.RegisterMethod(registry.ModeExternal, obj.KindExternalProgram, found)
	r.RegisterMethod(registry.ModeExtended, obj.KindExternalProgram, found)

	fullPath := &registry.NativeFunc{Name: "full_path", Sig: types.Signature{Name: "full_path"}, Handler: externalProgramFullPath}
	r.RegisterMethod(registry.ModeExternal, obj.KindExternalProgram, fullPath)
	r.RegisterMethod(registry.ModeExtended, obj.KindExternalProgram, fullPath)
}

func externalProgramFound(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	return boolHandle(v.Store, v.Store.GetExternalProgram(self).Found), nil
}

func externalProgramFullPath(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	return v.Store.String(v.Store.GetExternalProgram(self).Path), nil
}
