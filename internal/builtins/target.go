package builtins

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

var targetSig = types.Signature{
	Name:     "build_target",
	Required: []types.Formal{{Name: "name", Tag: types.TString}},
	Optional: []types.Formal{{Name: "sources", Tag: types.TSourceLike | types.Listify | types.Glob}},
	Kwargs: []types.Formal{
		{Name: "sources", Tag: types.TSourceLike | types.Listify},
		{Name: "dependencies", Tag: types.TDependency | types.Listify},
		{Name: "include_directories", Tag: types.TIncludeDirectory | types.Listify},
		{Name: "link_with", Tag: types.TLinkable | types.Listify},
		{Name: "link_whole", Tag: types.TLinkable | types.Listify},
		{Name: "install", Tag: types.TBool, Default: obj.None},
		{Name: "install_dir", Tag: types.TString, Default: obj.None},
		{Name: "c_args", Tag: types.TString | types.Listify},
		{Name: "cpp_args", Tag: types.TString | types.Listify},
		{Name: "link_args", Tag: types.TString | types.Listify},
		{Name: "override_options", Tag: types.TArray | types.TDict, Default: obj.None},
		{Name: "native", Tag: types.TBool, Default: obj.None},
		{Name: "version", Tag: types.TString, Default: obj.None},
		{Name: "soversion", Tag: types.TString, Default: obj.None},
		{Name: "pic", Tag: types.TBool, Default: obj.None},
		{Name: "pie", Tag: types.TBool, Default: obj.None},
		{Name: "gnu_symbol_visibility", Tag: types.TString, Default: obj.None},
		{Name: "objects", Tag: types.TFile | types.Listify},
		{Name: "extra_files", Tag: types.TFile | types.Listify},
		{Name: "implicit_include_directories", Tag: types.TBool, Default: obj.None},
		{Name: "target_type", Tag: types.TString, Default: obj.None},
	},
}

var headerExts = map[string]bool{".h": true, ".hh": true, ".hpp": true, ".hxx": true, ".inc": true}
var objectExts = map[string]bool{".o": true, ".obj": true, ".a": true, ".lib": true}

// classifySources splits a target's flattened source-like handles into
// compiled sources, header/extra files, and pre-built link objects, per
// spec.md section 4.8's "processed element-by-element" rule. Generated
// lists/custom targets are treated as sources directly (their concrete
// output files aren't known until the backend materializes them).
func classifySources(s *obj.Store, elems []obj.Handle) (sources, extraFiles, objects []obj.Handle) {
	for _, e := range elems {
		switch e.Kind() {
		case obj.KindCustomTarget, obj.KindGeneratedList, obj.KindGenerator:
			sources = append(sources, e)
			continue
		}
		path := obj.Render(s, e)
		ext := strings.ToLower(filepath.Ext(path))
		switch {
		case headerExts[ext]:
			extraFiles = append(extraFiles, e)
		case objectExts[ext]:
			objects = append(objects, e)
		default:
			sources = append(sources, e)
		}
	}
	return
}

func buildTargetKind(targetType string) *obj.BuildTarget {
	return &obj.BuildTarget{TargetType: targetType}
}

// makeBuildTarget is the shared implementation behind executable/
// shared_library/static_library/shared_module/build_target (spec.md
// section 4.8). both_libraries is a thin wrapper composing two calls to
// this (static, then shared); library makes a single shared_library call.
func makeBuildTarget(v *vm.VM, pos ast.Pos, ws Workspace, targetType string, bound *types.Bound) (obj.Handle, error) {
	name := v.Store.GetString(bound.Get("name"))

	if oo := bound.Get("override_options"); oo.Kind() == obj.KindArray {
		for _, e := range v.Store.GetArray(oo).Elems {
			if e.Kind() == obj.KindDict {
				return obj.None, v.Reporter.Emit(diag.NewTypeError(pos, "override_options mixes the list form and the dict form in one call"))
			}
		}
	}

	srcElems := handlesOf(v.Store, bound.Get("sources"))
	sources, extraFromSources, objsFromSources := classifySources(v.Store, srcElems)
	extraFiles := append(extraFromSources, handlesOf(v.Store, bound.Get("extra_files"))...)
	objects := append(objsFromSources, handlesOf(v.Store, bound.Get("objects"))...)

	implicitIncludes := boolOf(v.Store, bound.Get("implicit_include_directories"), true)
	includeDirs := handlesOf(v.Store, bound.Get("include_directories"))
	if implicitIncludes && len(extraFiles) > 0 {
		dirs := make([]string, 0, len(extraFiles))
		seen := make(map[string]bool)
		for _, h := range extraFiles {
			dir := filepath.Dir(obj.Render(v.Store, h))
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
		}
		if len(dirs) > 0 {
			includeDirs = append(includeDirs, v.Store.NewIncludeDirectory(&obj.IncludeDirectory{Dirs: dirs}))
		}
	}

	machine := obj.MachineHost
	if boolOf(v.Store, bound.Get("native"), false) {
		machine = obj.MachineBuild
	}

	linkWith := handlesOf(v.Store, bound.Get("link_with"))
	linkWhole := handlesOf(v.Store, bound.Get("link_whole"))
	for _, l := range append(append([]obj.Handle(nil), linkWith...), linkWhole...) {
		if l.Kind() == obj.KindBuildTarget {
			if lm := v.Store.GetBuildTarget(l).Machine; lm != machine {
				return obj.None, v.Reporter.Emit(diag.NewMachineMismatch(pos, fmt.Sprintf("target %q (machine %s) cannot link against %q (machine %s)", name, machine, v.Store.GetBuildTarget(l).Name, lm)))
			}
		}
	}

	t := buildTargetKind(targetType)
	t.Name = name
	t.Machine = machine
	t.Sources = sources
	t.Deps = handlesOf(v.Store, bound.Get("dependencies"))
	t.LinkWith = linkWith
	t.LinkWhole = linkWhole
	t.IncludeDirs = includeDirs
	t.ExtraFiles = extraFiles
	t.Objects = objects
	t.CArgs = stringsOf(v.Store, bound.Get("c_args"))
	t.CppArgs = stringsOf(v.Store, bound.Get("cpp_args"))
	t.LinkArgs = stringsOf(v.Store, bound.Get("link_args"))
	t.Install = boolOf(v.Store, bound.Get("install"), false)
	t.InstallDir = stringOf(v.Store, bound.Get("install_dir"), "")
	t.Version = stringOf(v.Store, bound.Get("version"), "")
	t.SoVersion = stringOf(v.Store, bound.Get("soversion"), "")
	t.Pic = boolOf(v.Store, bound.Get("pic"), targetType != "static_library")
	t.Pie = boolOf(v.Store, bound.Get("pie"), false)
	t.GnuSymbolVisibility = stringOf(v.Store, bound.Get("gnu_symbol_visibility"), "")

	computeTargetNaming(t)

	h := v.Store.NewBuildTarget(t)
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, targetType+"() called before project()"))
	}
	proj.Targets = append(proj.Targets, h)
	return h, nil
}

// computeTargetNaming fills BuildName/PrivateDir/SoName/ImplibName from
// the target's declared type, name, and version kwargs (spec.md section
// 4.8: "final build-name, private-build-directory, soname, and (on
// Windows) implib name are computed from platform and version kwargs").
// BuildName and SoName follow the POSIX shared-object naming convention
// whatever the platform; the one PE/COFF name set here is ImplibName,
// always "lib<name>.dll.a" for shared libraries and shared modules.
func computeTargetNaming(t *obj.BuildTarget) {
	t.PrivateDir = t.Name + ".p"
	switch t.TargetType {
	case "executable":
		t.BuildName = t.Name
	case "static_library":
		t.BuildName = "lib" + t.Name + ".a"
	case "shared_library", "shared_module":
		t.BuildName = "lib" + t.Name + ".so"
		if t.Version != "" {
			t.SoName = t.BuildName + "." + t.Version
		} else if t.SoVersion != "" {
			t.SoName = t.BuildName + "." + t.SoVersion
		} else {
			t.SoName = t.BuildName
		}
		t.ImplibName = "lib" + t.Name + ".dll.a"
	default:
		t.BuildName = t.Name
	}
}

func targetHandler(targetType string) registry.Handler {
	return func(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
		ws, ok := v.Native.(Workspace)
		if !ok {
			return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, targetType+"() requires a workspace-backed native dispatcher"))
		}
		return makeBuildTarget(v, pos, ws, targetType, bound)
	}
}

// BothLibraries builds both a static and a shared variant of the same
// name and pairs them into a both_libs value (spec.md section 3).
func BothLibraries(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "both_libraries() requires a workspace-backed native dispatcher"))
	}
	staticH, err := makeBuildTarget(v, pos, ws, "static_library", bound)
	if err != nil {
		return obj.None, err
	}
	sharedH, err := makeBuildTarget(v, pos, ws, "shared_library", bound)
	if err != nil {
		return obj.None, err
	}
	return v.Store.NewBothLibs(&obj.BothLibs{Static: staticH, Shared: sharedH}), nil
}

// Library dispatches to shared_library or static_library depending on
// project default_library-style policy; lacking an options layer to
// consult at this call site, it follows the documented default of
// building a shared library (spec.md section 4.8 lists `library` as an
// alias over build_target's type selection).
func Library(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "library() requires a workspace-backed native dispatcher"))
	}
	return makeBuildTarget(v, pos, ws, "shared_library", bound)
}

// BuildTargetGeneric implements build_target(), whose target_type kwarg
// selects the concrete flavor (spec.md section 4.8).
func BuildTargetGeneric(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "build_target() requires a workspace-backed native dispatcher"))
	}
	tt := stringOf(v.Store, bound.Get("target_type"), "executable")
	return makeBuildTarget(v, pos, ws, tt, bound)
}

func registerTargets(r *registry.Registry) {
	names := []string{"executable", "shared_library", "static_library", "shared_module"}
	typeFor := map[string]string{
		"executable":      "executable",
		"shared_library":  "shared_library",
		"static_library":  "static_library",
		"shared_module":   "shared_module",
	}
	for _, name := range names {
		fn := &registry.NativeFunc{Name: name, Sig: targetSig, Handler: targetHandler(typeFor[name])}
		r.RegisterKernel(registry.ModeExternal, fn)
		r.RegisterKernel(registry.ModeExtended, fn)
	}
	both := &registry.NativeFunc{Name: "both_libraries", Sig: targetSig, Handler: BothLibraries}
	lib := &registry.NativeFunc{Name: "library", Sig: targetSig, Handler: Library}
	generic := &registry.NativeFunc{Name: "build_target", Sig: targetSig, Handler: BuildTargetGeneric}
	for _, fn := range []*registry.NativeFunc{both, lib, generic} {
		r.RegisterKernel(registry.ModeExternal, fn)
		r.RegisterKernel(registry.ModeExtended, fn)
	}
}
