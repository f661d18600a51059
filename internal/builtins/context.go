// Package builtins implements the kernel function vocabulary of spec.md
// section 4.8 (component C9, the largest single component): project(),
// the target builders, dependency()/declare_dependency(), configure_file,
// custom_target/generator, the install_* family, test()/benchmark(),
// option()/get_option(), and the environment/utility builtins.
//
// Grounded on original_source's include/functions/kernel/*.h for the
// exact kwarg surfaces, the teacher's builtins_*.go file-per-concern
// split for how the Go package is organized, and please/asp's buildRule
// for the "accumulate kwargs onto a graph object" shape. This package
// touches no external collaborator directly — every filesystem/process/
// toolchain interaction goes through the Workspace interface below, kept
// here rather than in internal/workspace so builtins has no import on
// that package (Workspace is satisfied structurally, per spec.md
// section 9's "explicit Workspace context" redesign flag).
package builtins

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/vm"
)

// Project is the per-project state spec.md's Glossary assigns to
// "Project": the unit declared by project(), owning a scope stack,
// target list, option set, per-language toolchain selections, and
// dependency cache.
type Project struct {
	Name           string
	Version        string
	License        []string
	Languages      []string
	MesonVersion   string
	SubprojectDir  string
	IsSubproject   bool
	SourceRoot     string
	BuildRoot      string

	Targets  []obj.Handle // build_target/custom_target/alias_target handles
	Tests    []obj.Handle
	Installs []obj.Handle

	Options     map[string]*OptionDef
	OptionOrder []string

	Compilers map[string]obj.Handle // language -> compiler handle

	DepCache map[string]obj.Handle // "name|static|machine" -> dependency handle

	Scope *vm.Scope // this project's top-level scope, for get_variable() from a subproject() handle

	Summary map[string][]string // summary() accumulator, section -> lines
}

// OptionDef is one option() declaration (spec.md section 4.8's
// option-file-mode builtin).
type OptionDef struct {
	Name        string
	Type        string // "string", "boolean", "combo", "integer", "array", "feature"
	Value       obj.Handle
	Choices     []string
	Min, Max    *int64
	Description string
	Yield       bool
	Deprecated  bool
}

// OverrideTables holds the per-machine dependency/program overrides a
// project (or subproject) populates via meson.override_dependency /
// meson.override_find_program (spec.md section 4.9).
type OverrideTables struct {
	DepStatic  map[string]obj.Handle
	DepShared  map[string]obj.Handle
	Programs   map[string]obj.Handle
}

// ProgramFinder, CommandRunner, CompilerProbe, and PkgConfigQuerier are
// the narrow external-collaborator interfaces spec.md section 6 assigns
// to toolchain/process probing. Workspace bundles concrete
// implementations of these; builtins never talks to the filesystem or a
// child process except through them.
type ProgramFinder interface {
	FindProgram(names []string, dirs []string) (path string, found bool)
}

type CommandRunner interface {
	Run(argv []string, env []string, cwd string) (stdout, stderr string, code int, err error)
}

type CompilerProbe interface {
	Probe(language string, machine obj.MachineKind) (id, version string, err error)
}

type PkgConfigQuerier interface {
	Query(name string, static bool) (version string, cflags, libs []string, found bool)
}

// ExternalCollaborators bundles every external interface builtins is
// allowed to call through (spec.md section 6).
type ExternalCollaborators interface {
	ProgramFinder
	CommandRunner
	CompilerProbe
	PkgConfigQuerier
}

// Workspace is the context every builtin handler receives, implemented
// by internal/workspace.Workspace. It embeds vm.Native since Workspace
// is also what the VM dispatches CALL/METHOD_CALL through; builtins type-
// asserts v.Native to this interface to reach project/override/
// collaborator state the vm.VM struct itself doesn't carry.
type Workspace interface {
	vm.Native

	CurrentProject() *Project
	Projects() []*Project
	PushProject(p *Project)
	PopProject()

	Overrides() *OverrideTables
	Collaborators() ExternalCollaborators

	// Machine reports the machine() object for build or host.
	Machine(build bool) obj.Handle

	// ResolveDependency runs the C10 dependency state machine for one
	// declared request, returning a dependency handle (possibly not-found
	// or the disabler).
	ResolveDependency(req DependencyRequest) (obj.Handle, error)

	// EvalSubproject resolves and recursively evaluates a nested project,
	// per spec.md section 4.10.
	EvalSubproject(pos ast.Pos, name string, defaultOptions map[string]string) (*Project, bool, error)

	// ReadSource loads a named source file relative to the currently
	// executing directory (spec.md section 6: "the core does not open
	// files; the CLI collaborator loads them" — Workspace forwards to
	// whatever collaborator the embedding program supplied).
	ReadSource(path string) ([]byte, error)

	// WriteIfChanged implements configure_file's atomic, mtime-preserving
	// write semantics (spec.md section 4.8/8).
	WriteIfChanged(path string, contents []byte) error

	// EnterSubdir evaluates dir's build file in the calling frame's own
	// scope (spec.md section 4.8's subdir()); v is the VM already
	// executing the caller, so the included file shares its scope chain
	// rather than starting a fresh one.
	EnterSubdir(v *vm.VM, pos ast.Pos, dir string) error
}

// DependencyRequest is the input to the C10 state machine (spec.md
// section 4.9).
type DependencyRequest struct {
	Names          []string
	Version        string
	Static         bool
	Modules        []string
	Machine        obj.MachineKind
	Required       bool
	Method         string // "auto", "pkgconfig", "appleframeworks", "system", "builtin"
	Fallback       []string
	AllowFallback  bool
	DefaultOptions map[string]string
	Disabler       bool
}
