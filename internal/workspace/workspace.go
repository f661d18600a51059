// Package workspace implements component C12, spec.md section 9's
// "explicit Workspace context" redesign target: the single mutable
// object every evaluation of a build tree threads through, replacing the
// original's global interpreter state with a struct an embedder
// constructs once per configuration run.
//
// Workspace is the concrete type satisfying both vm.Native (so the VM
// can dispatch CALL/METHOD_CALL through it) and builtins.Workspace (so
// the kernel functions in internal/builtins can reach project state,
// overrides, and external collaborators). It owns the registry built
// from builtins.Install, the dependency resolver from internal/resolver,
// and the project stack.
//
// Grounded on the teacher's internal/eval_harness (a struct bundling a
// store, a registered environment, and the collaborators a single run
// needs) for the "one struct per run" shape, and on please/asp's BuildState for the project-stack /
// lookup-cache pattern.
package workspace

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/builtins"
	"github.com/muonlang/mbi/internal/bytecode"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/parser"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/resolver"
	"github.com/muonlang/mbi/internal/vm"
)

// Workspace is the top-level mutable context the GLOSSARY assigns all
// arenas, projects, options, overrides, and caches to for a single
// configuration run.
type Workspace struct {
	Store    *obj.Store
	Reporter *diag.Reporter
	Registry *registry.Registry

	mode registry.Mode

	collaborators builtins.ExternalCollaborators
	overrides     *builtins.OverrideTables
	resolver      *resolver.Resolver
	tracker       *resolver.Tracker

	projects []*builtins.Project
	stack    []*builtins.Project

	optionOverrides map[string]string // "[subproject:]key" -> value, from the CLI -D surface
	usedOverrides   map[string]bool

	hostMachine, buildMachine obj.Handle
	mesonModule               obj.Handle

	// rootDir is the directory the initial source was loaded from;
	// EnterSubdir/EvalSubproject resolve relative paths against it.
	rootDir string
	subDirs []string // current subdir() nesting, joined for ReadSource
}

// New constructs a Workspace ready to evaluate a root build file.
// collaborators supplies the external process/filesystem surface;
// optionOverrides is the CLI's -D override list (spec.md section 6).
func New(collaborators builtins.ExternalCollaborators, rootDir string, optionOverrides map[string]string) *Workspace {
	store := obj.NewStore()
	r := registry.New()
	builtins.Install(r)

	w := &Workspace{
		Store:           store,
		Reporter:        diag.NewReporter(),
		Registry:        r,
		mode:            registry.ModeExternal,
		collaborators:   collaborators,
		overrides:       &builtins.OverrideTables{DepStatic: make(map[string]obj.Handle), DepShared: make(map[string]obj.Handle), Programs: make(map[string]obj.Handle)},
		resolver:        resolver.New(collaborators),
		tracker:         resolver.NewTracker(),
		optionOverrides: optionOverrides,
		usedOverrides:   make(map[string]bool),
		rootDir:         rootDir,
	}
	w.hostMachine = store.NewMachine(&obj.Machine{Kind: obj.MachineHost, System: "linux", CPU: "x86_64", CPUFamily: "x86_64", Endian: "little"})
	w.buildMachine = store.NewMachine(&obj.Machine{Kind: obj.MachineBuild, System: "linux", CPU: "x86_64", CPUFamily: "x86_64", Endian: "little"})
	w.mesonModule = builtins.NewMesonModule(store)
	return w
}

// NewVM returns a VM dispatching through w. It seeds no scope; the meson
// binding (spec.md section 4.8's "meson object") comes from GlobalScope.
func (w *Workspace) NewVM() *vm.VM {
	return vm.New(w.Store, w.Reporter, w)
}

// GlobalScope builds the top-level scope every root file and subproject
// starts from, pre-seeded with the meson binding.
func (w *Workspace) GlobalScope() *vm.Scope {
	sc := vm.NewScope(nil)
	sc.Set(builtins.MesonModuleName, w.mesonModule)
	return sc
}

// --- builtins.Workspace ---

func (w *Workspace) CurrentProject() *builtins.Project {
	if len(w.stack) == 0 {
		return nil
	}
	return w.stack[len(w.stack)-1]
}

func (w *Workspace) Projects() []*builtins.Project { return w.projects }

func (w *Workspace) PushProject(p *builtins.Project) {
	p.IsSubproject = len(w.stack) > 0
	w.stack = append(w.stack, p)
	w.projects = append(w.projects, p)
}

func (w *Workspace) PopProject() {
	if len(w.stack) > 0 {
		w.stack = w.stack[:len(w.stack)-1]
	}
}

func (w *Workspace) Overrides() *builtins.OverrideTables { return w.overrides }

func (w *Workspace) Collaborators() builtins.ExternalCollaborators { return w.collaborators }

func (w *Workspace) Machine(build bool) obj.Handle {
	if build {
		return w.buildMachine
	}
	return w.hostMachine
}

// --- vm.Native ---

func (w *Workspace) CallFunction(v *vm.VM, name string, pos ast.Pos, args []obj.Handle, kw map[string]obj.Handle) (obj.Handle, error) {
	fn, ok := w.Registry.LookupKernel(w.mode, name)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUnknownFunction(pos, name))
	}
	return registry.Dispatch(fn, v, pos, obj.None, args, kw)
}

func (w *Workspace) CallMethod(v *vm.VM, recv obj.Handle, name string, pos ast.Pos, args []obj.Handle, kw map[string]obj.Handle) (obj.Handle, error) {
	fn, ok := w.Registry.LookupMethod(w.mode, recv.Kind(), name)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUnknownMethod(pos, recv.Kind().String(), name))
	}
	return registry.Dispatch(fn, v, pos, recv, args, kw)
}

// compileSource lexes, parses, and compiles src into a runnable program,
// registering it with the Reporter so diagnostics inside it can recover
// line/column.
func (w *Workspace) compileSource(src []byte, path string) (*bytecode.Program, error) {
	w.Reporter.AddSource(path, src)
	file, err := parser.Parse(src, path, false)
	if err != nil {
		pos := ast.Pos{File: path}
		if pe, ok := err.(*parser.Error); ok {
			pos = pe.Pos
		}
		return nil, w.Reporter.Emit(diag.NewParseError(pos, err.Error()))
	}
	return bytecode.Compile(file.Pool, w.Store, file.Statements)
}
