package obj

// MachineKind distinguishes the machine a build_target or dependency is
// resolved for (spec.md section 3, Glossary "Machine (host/build)").
type MachineKind uint8

const (
	MachineHost MachineKind = iota
	MachineBuild
)

func (m MachineKind) String() string {
	if m == MachineBuild {
		return "build"
	}
	return "host"
}

// FeatureState is the tri-state value backing KindFeatureOpt.
type FeatureState uint8

const (
	FeatureAuto FeatureState = iota
	FeatureEnabled
	FeatureDisabled
)

func (f FeatureState) String() string {
	switch f {
	case FeatureEnabled:
		return "enabled"
	case FeatureDisabled:
		return "disabled"
	default:
		return "auto"
	}
}

// Array is an ordered, append-only-by-default sequence of handles. The
// iterating counter is the "iteration lock" of spec.md section 4.4 /
// section 5: foreach sets it and Locked reports it; code that changes
// Elems does not consult it.
type Array struct {
	Elems     []Handle
	iterating int
}

func (a *Array) Len() int { return len(a.Elems) }

// BeginIteration increments the lock; EndIteration (deferred by the caller)
// decrements it. Nested foreach loops over the same array are legal.
func (a *Array) BeginIteration() { a.iterating++ }
func (a *Array) EndIteration()   { a.iterating-- }
func (a *Array) Locked() bool    { return a.iterating > 0 }

// dictEntry preserves insertion order alongside the lookup map.
type dictEntry struct {
	Key   string
	Value Handle
}

// Dict is an insertion-ordered, string-keyed map to handles. Duplicate
// keys are rejected by Set when already present other than by overwrite
// (spec.md section 3: "second insertion overwrites" while preserving the
// original position).
type Dict struct {
	order     []string
	index     map[string]int // key -> position in order/entries
	entries   []dictEntry
	iterating int
}

func NewDict() *Dict {
	return &Dict{index: make(map[string]int)}
}

func (d *Dict) Len() int { return len(d.entries) }

func (d *Dict) Get(key string) (Handle, bool) {
	if i, ok := d.index[key]; ok {
		return d.entries[i].Value, true
	}
	return None, false
}

// Set inserts or overwrites key, preserving original insertion position on
// overwrite (spec.md section 8 "Dict order preservation").
func (d *Dict) Set(key string, v Handle) {
	if i, ok := d.index[key]; ok {
		d.entries[i].Value = v
		return
	}
	d.index[key] = len(d.entries)
	d.entries = append(d.entries, dictEntry{Key: key, Value: v})
}

// Delete removes key if present; later iteration skips it. It does not
// consult the iteration lock.
func (d *Dict) Delete(key string) {
	i, ok := d.index[key]
	if !ok {
		return
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, key)
	for k, idx := range d.index {
		if idx > i {
			d.index[k] = idx - 1
		}
	}
}

// Keys returns keys in insertion order.
func (d *Dict) Keys() []string {
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Key
	}
	return keys
}

// Each iterates key/value pairs in insertion order.
func (d *Dict) Each(fn func(key string, v Handle)) {
	for _, e := range d.entries {
		fn(e.Key, e.Value)
	}
}

func (d *Dict) BeginIteration() { d.iterating++ }
func (d *Dict) EndIteration()   { d.iterating-- }
func (d *Dict) Locked() bool    { return d.iterating > 0 }

// BuildTarget models executable/shared_library/static_library/shared_module
// nodes (spec.md section 4.8).
type BuildTarget struct {
	Name              string
	TargetType        string // "executable", "shared_library", "static_library", "shared_module"
	Machine           MachineKind
	Sources           []Handle // file handles
	Deps              []Handle // dependency handles
	LinkWith          []Handle // build_target/both_libs handles
	LinkWhole         []Handle
	IncludeDirs       []Handle
	ExtraFiles        []Handle
	Objects           []Handle
	CArgs             []string
	CppArgs           []string
	LinkArgs          []string
	Install           bool
	InstallDir        string
	Version           string
	SoVersion         string
	Pic               bool
	Pie               bool
	GnuSymbolVisibility string
	BuildName         string // computed final build-name
	PrivateDir        string // computed private build directory
	SoName            string // computed soname (shared libs)
	ImplibName        string // computed Windows import-lib name
}

// CustomTarget models custom_target() nodes (spec.md section 4.8).
type CustomTarget struct {
	Name             string
	Inputs           []Handle
	Outputs          []string
	Command          []string // tokenized, placeholder-substituted argv
	Depends          []Handle
	Depfile          string
	Capture          bool
	Feed             bool
	Console          bool
	BuildByDefault   bool
	Install          bool
	InstallDir       string
	Env              Handle // environment handle
	BuildAlwaysStale bool
}

// AliasTarget models alias_target()/run_target() nodes.
type AliasTarget struct {
	Name    string
	Depends []Handle
	IsRun   bool
	Command []string
}

// BothLibs pairs the static and shared builds produced by both_libraries().
type BothLibs struct {
	Static Handle // build_target handle, TargetType == "static_library"
	Shared Handle // build_target handle, TargetType == "shared_library"
}

// DependencyType tags how a dependency value was resolved (spec.md
// section 3).
type DependencyType uint8

const (
	DepPkgconf DependencyType = iota
	DepDeclared
	DepThreads
	DepAppleFrameworks
	DepExternalLibrary
	DepNotFound
	DepInternal // declare_dependency() produced, or a fallback subproject override
)

func (t DependencyType) String() string {
	switch t {
	case DepPkgconf:
		return "pkgconfig"
	case DepDeclared:
		return "declared"
	case DepThreads:
		return "threads"
	case DepAppleFrameworks:
		return "apple-frameworks"
	case DepExternalLibrary:
		return "external-library"
	case DepInternal:
		return "internal"
	default:
		return "not-found"
	}
}

// Dependency models dependency()/declare_dependency() results.
type Dependency struct {
	Name         string
	Type         DependencyType
	Found        bool
	Version      string
	Machine      MachineKind
	CompileArgs  []string
	LinkArgs     []string
	IncludeDirs  []Handle
	LinkWith     []Handle
	Sources      []Handle
	Modules      []string
}

// ExternalProgram models find_program() results.
type ExternalProgram struct {
	Name    string
	Path    string // resolved absolute path; empty if not found
	Found   bool
	Version string
}

// IncludeDirectory models include_directories().
type IncludeDirectory struct {
	Dirs     []string
	IsSystem bool
}

// Generator models generator().
type Generator struct {
	Exe       Handle // external_program handle
	Outputs   []string
	Arguments []string
	Depfile   string
	Capture   bool
	Depends   []Handle
}

// GeneratedList models the result of generator.process().
type GeneratedList struct {
	Generator Handle
	Inputs    []Handle
	ExtraArgs []string
	Targets   []Handle // one custom_target per processed input
}

// InstallTarget models install_data/install_headers/install_man/
// install_subdir/install_symlink/install_emptydir entries.
type InstallTarget struct {
	Flavor     string // "data", "headers", "man", "subdir", "symlink", "emptydir"
	Sources    []string
	Dest       string
	Mode       string
	Tag        string
	Exclude    []string
	SymlinkTo  string
}

// SourceSet / SourceConfiguration model conditional source-file grouping
// used by the "sourceset" module surface (spec.md section 1 lists fs/
// pkgconfig/python module signatures as in-scope interfaces; sourceset's
// value shapes are part of the object model even though the module's
// behavior is an external collaborator).
type SourceSet struct {
	Rules []SourceSetRule
}

type SourceSetRule struct {
	WhenDeps []Handle
	Sources  []Handle
	Deps     []Handle
}

type SourceConfiguration struct {
	Sources []Handle
	Deps    []Handle
}

// Test models test()/benchmark() descriptors.
type Test struct {
	Name       string
	Exe        Handle
	Args       []string
	Workdir    string
	Depends    []Handle
	ShouldFail bool
	Env        Handle
	Suite      []string
	Priority   int
	Timeout    int
	Protocol   string
	IsParallel bool
	Verbose    bool
	IsBenchmark bool
}

// RunResult models run_command() outcomes.
type RunResult struct {
	ReturnCode int
	Stdout     string
	Stderr     string
}

// Environment models environment() values: an ordered multi-map of
// operations (set/append/prepend) applied when the backend materializes
// the manifest.
type Environment struct {
	Ops []EnvOp
}

type EnvOp struct {
	Kind      string // "set", "append", "prepend"
	Key       string
	Values    []string
	Separator string
}

// ConfigurationData models configuration_data() values used by
// configure_file(configuration: ...).
type ConfigurationData struct {
	Values map[string]ConfigValue
	Order  []string
	Frozen bool
}

type ConfigValue struct {
	Bool    *bool
	Int     *int64
	Str     *string
	Comment string
}

// Compiler models meson.get_compiler() results (the toolchain probe itself
// is an external collaborator per spec.md section 1/6; this struct is the
// shape the VM observes).
type Compiler struct {
	Language string
	ID       string
	Version  string
	Machine  MachineKind
}

// Machine models the machine() object exposing host_machine/build_machine
// system/cpu/endian queries.
type Machine struct {
	Kind   MachineKind
	System string
	CPU    string
	CPUFamily string
	Endian string
}

// Subproject models the value returned by subproject().
type Subproject struct {
	Name       string
	Found      bool
	ProjectIdx int // index into Workspace.Projects for get_variable()
}

// Module models an imported builtin module (fs, pkgconfig, python, ...).
// Per spec.md section 1, module *implementations* are external
// collaborators; the object model only needs their exported-capture shape.
type Module struct {
	Name    string
	Exports *Dict // string -> capture/func handle
}

// Func is a user-defined function value (spec.md section 4.7).
type Func struct {
	Name       string
	Params     []string
	Defaults   []Handle // None if no default
	ReturnType uint64   // types.TypeTag, stored as uint64 to avoid an import cycle
	Entry      int      // bytecode instruction address
	SourceID   int
}

// Capture is a function value closed over a scope-stack snapshot (spec.md
// section 4.7).
type Capture struct {
	Func   Handle // func handle
	Scopes []*Dict
}

// TypeInfo is a static-analysis placeholder carrying only a type-tag set
// (spec.md section 3); the analyzer itself is out of scope but the value
// shape is part of the object model.
type TypeInfo struct {
	Tags uint64
}
