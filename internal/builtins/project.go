package builtins

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

// ProjectSig is exported so internal/workspace can validate a source's
// first statement is a project() call without re-declaring the
// signature (spec.md section 4.8: "must be the first call in the root
// file").
var ProjectSig = types.Signature{
	Name:     "project",
	Required: []types.Formal{{Name: "name", Tag: types.TString}},
	Optional: []types.Formal{{Name: "languages", Tag: types.TString | types.Listify | types.Glob}},
	Kwargs: []types.Formal{
		{Name: "version", Tag: types.TString, Default: obj.None},
		{Name: "license", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "default_options", Tag: types.TArray | types.TDict, Default: obj.None},
		{Name: "meson_version", Tag: types.TString, Default: obj.None},
		{Name: "subproject_dir", Tag: types.TString, Default: obj.None},
	},
}

// Project implements project() (spec.md section 4.8): records project
// configuration, invokes the compiler-probe collaborator per declared
// language, and pushes a fresh Project onto the Workspace's stack.
func Project(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "project() requires a workspace-backed native dispatcher"))
	}

	name := v.Store.GetString(bound.Get("name"))
	langsHandle := bound.Get("languages")
	langs := stringsOf(v.Store, langsHandle)

	p := &Project{
		Name:          name,
		Version:       stringOf(v.Store, bound.Get("version"), "undefined"),
		License:       stringsOf(v.Store, bound.Get("license")),
		Languages:     langs,
		MesonVersion:  stringOf(v.Store, bound.Get("meson_version"), ""),
		SubprojectDir: stringOf(v.Store, bound.Get("subproject_dir"), "subprojects"),
		Options:       make(map[string]*OptionDef),
		Compilers:     make(map[string]obj.Handle),
		DepCache:      make(map[string]obj.Handle),
		Summary:       make(map[string][]string),
	}

	probe := ws.Collaborators()
	for _, lang := range langs {
		id, ver, err := probe.Probe(lang, obj.MachineHost)
		if err != nil {
			return obj.None, v.Reporter.Emit(diag.NewIOError(pos, "probing compiler for "+lang+": "+err.Error()))
		}
		ch := v.Store.NewCompiler(&obj.Compiler{Language: lang, ID: id, Version: ver, Machine: obj.MachineHost})
		p.Compilers[lang] = ch
	}

	ws.PushProject(p)
	return obj.None, nil
}

// registerProject registers project() into the kernel table under every mode
// that can run a root build file (external and extended; option-file
// mode never calls project()).
func registerProject(r *registry.Registry) {
	fn := &registry.NativeFunc{Name: "project", Sig: ProjectSig, Handler: Project, Flags: registry.FlagImpure}
	r.RegisterKernel(registry.ModeExternal, fn)
	r.RegisterKernel(registry.ModeExtended, fn)
}
