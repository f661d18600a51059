package builtins

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

// installBuilder returns a Handler for one of the install_* family
// (spec.md section 4.8), all of which share the shape "accumulate
// sources + dest onto an InstallTarget and register it on the current
// project."
func installBuilder(flavor string) registry.Handler {
	return func(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
		ws, ok := v.Native.(Workspace)
		if !ok {
			return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, flavor+"() requires a workspace-backed native dispatcher"))
		}
		proj := ws.CurrentProject()
		if proj == nil {
			return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, flavor+"() called before project()"))
		}

		it := &obj.InstallTarget{
			Flavor:    flavor,
			Sources:   stringsOf(v.Store, bound.Get("sources")),
			Dest:      stringOf(v.Store, bound.Get("install_dir"), ""),
			Mode:      stringOf(v.Store, bound.Get("install_mode"), ""),
			Tag:       stringOf(v.Store, bound.Get("install_tag"), ""),
			Exclude:   stringsOf(v.Store, bound.Get("exclude_directories")),
			SymlinkTo: stringOf(v.Store, bound.Get("pointing_to"), ""),
		}
		h := v.Store.NewInstallTarget(it)
		proj.Installs = append(proj.Installs, h)
		return h, nil
	}
}

func installSig(sourcesReq bool) types.Signature {
	sources := types.Formal{Name: "sources", Tag: types.TSourceLike | types.Listify | types.Glob}
	sig := types.Signature{Name: "install"}
	if sourcesReq {
		sig.Required = []types.Formal{sources}
	} else {
		sig.Optional = []types.Formal{sources}
	}
	sig.Kwargs = []types.Formal{
		{Name: "install_dir", Tag: types.TString, Default: obj.None},
		{Name: "install_mode", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "install_tag", Tag: types.TString, Default: obj.None},
		{Name: "rename", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "exclude_directories", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "exclude_files", Tag: types.TString | types.Listify, Default: obj.None},
	}
	return sig
}

var installSymlinkSig = types.Signature{
	Name:     "install_symlink",
	Required: []types.Formal{{Name: "name", Tag: types.TString}},
	Kwargs: []types.Formal{
		{Name: "pointing_to", Tag: types.TString},
		{Name: "install_dir", Tag: types.TString, Default: obj.None},
	},
}

var installEmptydirSig = types.Signature{
	Name:     "install_emptydir",
	Required: []types.Formal{{Name: "dirname", Tag: types.TString}},
	Kwargs: []types.Formal{
		{Name: "install_mode", Tag: types.TString | types.Listify, Default: obj.None},
	},
}

func installSymlink(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "install_symlink() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "install_symlink() called before project()"))
	}
	it := &obj.InstallTarget{
		Flavor:    "symlink",
		Sources:   []string{v.Store.GetString(bound.Get("name"))},
		Dest:      stringOf(v.Store, bound.Get("install_dir"), ""),
		SymlinkTo: v.Store.GetString(bound.Get("pointing_to")),
	}
	h := v.Store.NewInstallTarget(it)
	proj.Installs = append(proj.Installs, h)
	return h, nil
}

func installEmptydir(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "install_emptydir() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "install_emptydir() called before project()"))
	}
	it := &obj.InstallTarget{
		Flavor: "emptydir",
		Dest:   v.Store.GetString(bound.Get("dirname")),
		Mode:   stringOf(v.Store, bound.Get("install_mode"), ""),
	}
	h := v.Store.NewInstallTarget(it)
	proj.Installs = append(proj.Installs, h)
	return h, nil
}

func registerInstall(r *registry.Registry) {
	data := &registry.NativeFunc{Name: "install_data", Sig: installSig(true), Handler: installBuilder("data"), Flags: registry.FlagImpure}
	headers := &registry.NativeFunc{Name: "install_headers", Sig: installSig(true), Handler: installBuilder("headers"), Flags: registry.FlagImpure}
	man := &registry.NativeFunc{Name: "install_man", Sig: installSig(true), Handler: installBuilder("man"), Flags: registry.FlagImpure}
	subdir := &registry.NativeFunc{Name: "install_subdir", Sig: installSig(true), Handler: installBuilder("subdir"), Flags: registry.FlagImpure}
	symlink := &registry.NativeFunc{Name: "install_symlink", Sig: installSymlinkSig, Handler: installSymlink, Flags: registry.FlagImpure}
	emptydir := &registry.NativeFunc{Name: "install_emptydir", Sig: installEmptydirSig, Handler: installEmptydir, Flags: registry.FlagImpure}

	for _, fn := range []*registry.NativeFunc{data, headers, man, subdir, symlink, emptydir} {
		r.RegisterKernel(registry.ModeExternal, fn)
		r.RegisterKernel(registry.ModeExtended, fn)
	}
}
