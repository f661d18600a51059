package obj

// Store owns every runtime value for one Workspace (spec.md section 3,
// "Lifecycle"). Arenas are append-only for the run's duration; there is no
// per-object free — teardown happens by dropping the Store.
type Store struct {
	bools        []bool
	numbers      []int64
	strings      []string
	files        []string // path strings, kept in their own arena (KindFile)
	featureOpts  []FeatureState
	arrays       []*Array
	dicts        []*Dict

	buildTargets  []*BuildTarget
	customTargets []*CustomTarget
	aliasTargets  []*AliasTarget
	bothLibs      []*BothLibs
	dependencies  []*Dependency
	programs      []*ExternalProgram
	includeDirs   []*IncludeDirectory
	generators    []*Generator
	generatedLists []*GeneratedList
	installTargets []*InstallTarget
	sourceSets    []*SourceSet
	sourceConfigs []*SourceConfiguration
	tests         []*Test
	runResults    []*RunResult
	environments  []*Environment
	configDatas   []*ConfigurationData
	compilers     []*Compiler
	machines      []*Machine
	subprojects   []*Subproject
	modules       []*Module
	funcs         []*Func
	captures      []*Capture
	typeInfos     []*TypeInfo

	// internTable maps short strings to their handle to keep arena growth
	// bounded for identifiers/option names/dependency names that recur
	// often across a large build tree.
	internTable map[string]Handle

	Null     Handle
	True     Handle
	False    Handle
	Disabler Handle
}

const internThreshold = 64

// NewStore allocates a Store with the well-known sentinel handles
// pre-registered (spec.md section 3).
func NewStore() *Store {
	s := &Store{internTable: make(map[string]Handle)}
	// KindNull: a single sentinel element.
	s.Null = makeHandle(KindNull, 0)
	// KindBool: index 0 = false, index 1 = true.
	s.bools = append(s.bools, false, true)
	s.False = makeHandle(KindBool, 0)
	s.True = makeHandle(KindBool, 1)
	s.Disabler = makeHandle(KindDisabler, 0)
	return s
}

// --- Bool ---

func (s *Store) Bool(v bool) Handle {
	if v {
		return s.True
	}
	return s.False
}

func (s *Store) GetBool(h Handle) bool {
	return s.bools[h.index()]
}

// --- Number ---

func (s *Store) Number(v int64) Handle {
	s.numbers = append(s.numbers, v)
	return makeHandle(KindNumber, len(s.numbers)-1)
}

func (s *Store) GetNumber(h Handle) int64 {
	return s.numbers[h.index()]
}

// --- String (interned below threshold) ---

func (s *Store) String(v string) Handle {
	if len(v) <= internThreshold {
		if h, ok := s.internTable[v]; ok {
			return h
		}
		s.strings = append(s.strings, v)
		h := makeHandle(KindString, len(s.strings)-1)
		s.internTable[v] = h
		return h
	}
	s.strings = append(s.strings, v)
	return makeHandle(KindString, len(s.strings)-1)
}

func (s *Store) GetString(h Handle) string {
	return s.strings[h.index()]
}

// --- File ---

func (s *Store) File(path string) Handle {
	s.files = append(s.files, path)
	return makeHandle(KindFile, len(s.files)-1)
}

func (s *Store) GetFile(h Handle) string {
	return s.files[h.index()]
}

// --- FeatureOpt ---

func (s *Store) FeatureOpt(v FeatureState) Handle {
	s.featureOpts = append(s.featureOpts, v)
	return makeHandle(KindFeatureOpt, len(s.featureOpts)-1)
}

func (s *Store) GetFeatureOpt(h Handle) FeatureState {
	return s.featureOpts[h.index()]
}

// --- Array ---

func (s *Store) NewArray(elems ...Handle) Handle {
	s.arrays = append(s.arrays, &Array{Elems: elems})
	return makeHandle(KindArray, len(s.arrays)-1)
}

func (s *Store) GetArray(h Handle) *Array {
	return s.arrays[h.index()]
}

// --- Dict ---

func (s *Store) NewDict() Handle {
	s.dicts = append(s.dicts, NewDict())
	return makeHandle(KindDict, len(s.dicts)-1)
}

func (s *Store) GetDict(h Handle) *Dict {
	return s.dicts[h.index()]
}

// --- BuildTarget ---

func (s *Store) NewBuildTarget(t *BuildTarget) Handle {
	s.buildTargets = append(s.buildTargets, t)
	return makeHandle(KindBuildTarget, len(s.buildTargets)-1)
}

func (s *Store) GetBuildTarget(h Handle) *BuildTarget {
	return s.buildTargets[h.index()]
}

// --- CustomTarget ---

func (s *Store) NewCustomTarget(t *CustomTarget) Handle {
	s.customTargets = append(s.customTargets, t)
	return makeHandle(KindCustomTarget, len(s.customTargets)-1)
}

func (s *Store) GetCustomTarget(h Handle) *CustomTarget {
	return s.customTargets[h.index()]
}

// --- AliasTarget ---

func (s *Store) NewAliasTarget(t *AliasTarget) Handle {
	s.aliasTargets = append(s.aliasTargets, t)
	return makeHandle(KindAliasTarget, len(s.aliasTargets)-1)
}

func (s *Store) GetAliasTarget(h Handle) *AliasTarget {
	return s.aliasTargets[h.index()]
}

// --- BothLibs ---

func (s *Store) NewBothLibs(b *BothLibs) Handle {
	s.bothLibs = append(s.bothLibs, b)
	return makeHandle(KindBothLibs, len(s.bothLibs)-1)
}

func (s *Store) GetBothLibs(h Handle) *BothLibs {
	return s.bothLibs[h.index()]
}

// --- Dependency ---

func (s *Store) NewDependency(d *Dependency) Handle {
	s.dependencies = append(s.dependencies, d)
	return makeHandle(KindDependency, len(s.dependencies)-1)
}

func (s *Store) GetDependency(h Handle) *Dependency {
	return s.dependencies[h.index()]
}

// --- ExternalProgram ---

func (s *Store) NewExternalProgram(p *ExternalProgram) Handle {
	s.programs = append(s.programs, p)
	return makeHandle(KindExternalProgram, len(s.programs)-1)
}

func (s *Store) GetExternalProgram(h Handle) *ExternalProgram {
	return s.programs[h.index()]
}

// --- IncludeDirectory ---

func (s *Store) NewIncludeDirectory(d *IncludeDirectory) Handle {
	s.includeDirs = append(s.includeDirs, d)
	return makeHandle(KindIncludeDirectory, len(s.includeDirs)-1)
}

func (s *Store) GetIncludeDirectory(h Handle) *IncludeDirectory {
	return s.includeDirs[h.index()]
}

// --- Generator ---

func (s *Store) NewGenerator(g *Generator) Handle {
	s.generators = append(s.generators, g)
	return makeHandle(KindGenerator, len(s.generators)-1)
}

func (s *Store) GetGenerator(h Handle) *Generator {
	return s.generators[h.index()]
}

// --- GeneratedList ---

func (s *Store) NewGeneratedList(g *GeneratedList) Handle {
	s.generatedLists = append(s.generatedLists, g)
	return makeHandle(KindGeneratedList, len(s.generatedLists)-1)
}

func (s *Store) GetGeneratedList(h Handle) *GeneratedList {
	return s.generatedLists[h.index()]
}

// --- InstallTarget ---

func (s *Store) NewInstallTarget(t *InstallTarget) Handle {
	s.installTargets = append(s.installTargets, t)
	return makeHandle(KindInstallTarget, len(s.installTargets)-1)
}

func (s *Store) GetInstallTarget(h Handle) *InstallTarget {
	return s.installTargets[h.index()]
}

// --- SourceSet / SourceConfiguration ---

func (s *Store) NewSourceSet(v *SourceSet) Handle {
	s.sourceSets = append(s.sourceSets, v)
	return makeHandle(KindSourceSet, len(s.sourceSets)-1)
}

func (s *Store) GetSourceSet(h Handle) *SourceSet {
	return s.sourceSets[h.index()]
}

func (s *Store) NewSourceConfiguration(v *SourceConfiguration) Handle {
	s.sourceConfigs = append(s.sourceConfigs, v)
	return makeHandle(KindSourceConfiguration, len(s.sourceConfigs)-1)
}

func (s *Store) GetSourceConfiguration(h Handle) *SourceConfiguration {
	return s.sourceConfigs[h.index()]
}

// --- Test ---

func (s *Store) NewTest(t *Test) Handle {
	s.tests = append(s.tests, t)
	return makeHandle(KindTest, len(s.tests)-1)
}

func (s *Store) GetTest(h Handle) *Test {
	return s.tests[h.index()]
}

// --- RunResult ---

func (s *Store) NewRunResult(r *RunResult) Handle {
	s.runResults = append(s.runResults, r)
	return makeHandle(KindRunResult, len(s.runResults)-1)
}

func (s *Store) GetRunResult(h Handle) *RunResult {
	return s.runResults[h.index()]
}

// --- Environment ---

func (s *Store) NewEnvironment(e *Environment) Handle {
	s.environments = append(s.environments, e)
	return makeHandle(KindEnvironment, len(s.environments)-1)
}

func (s *Store) GetEnvironment(h Handle) *Environment {
	return s.environments[h.index()]
}

// --- ConfigurationData ---

func (s *Store) NewConfigurationData(c *ConfigurationData) Handle {
	s.configDatas = append(s.configDatas, c)
	return makeHandle(KindConfigurationData, len(s.configDatas)-1)
}

func (s *Store) GetConfigurationData(h Handle) *ConfigurationData {
	return s.configDatas[h.index()]
}

// --- Compiler ---

func (s *Store) NewCompiler(c *Compiler) Handle {
	s.compilers = append(s.compilers, c)
	return makeHandle(KindCompiler, len(s.compilers)-1)
}

func (s *Store) GetCompiler(h Handle) *Compiler {
	return s.compilers[h.index()]
}

// --- Machine ---

func (s *Store) NewMachine(m *Machine) Handle {
	s.machines = append(s.machines, m)
	return makeHandle(KindMachine, len(s.machines)-1)
}

func (s *Store) GetMachine(h Handle) *Machine {
	return s.machines[h.index()]
}

// --- Subproject ---

func (s *Store) NewSubproject(p *Subproject) Handle {
	s.subprojects = append(s.subprojects, p)
	return makeHandle(KindSubproject, len(s.subprojects)-1)
}

func (s *Store) GetSubproject(h Handle) *Subproject {
	return s.subprojects[h.index()]
}

// --- Module ---

func (s *Store) NewModule(m *Module) Handle {
	s.modules = append(s.modules, m)
	return makeHandle(KindModule, len(s.modules)-1)
}

func (s *Store) GetModule(h Handle) *Module {
	return s.modules[h.index()]
}

// --- Func ---

func (s *Store) NewFunc(f *Func) Handle {
	s.funcs = append(s.funcs, f)
	return makeHandle(KindFunc, len(s.funcs)-1)
}

func (s *Store) GetFunc(h Handle) *Func {
	return s.funcs[h.index()]
}

// --- Capture ---

func (s *Store) NewCapture(c *Capture) Handle {
	s.captures = append(s.captures, c)
	return makeHandle(KindCapture, len(s.captures)-1)
}

func (s *Store) GetCapture(h Handle) *Capture {
	return s.captures[h.index()]
}

// --- TypeInfo ---

func (s *Store) NewTypeInfo(t *TypeInfo) Handle {
	s.typeInfos = append(s.typeInfos, t)
	return makeHandle(KindTypeInfo, len(s.typeInfos)-1)
}

func (s *Store) GetTypeInfo(h Handle) *TypeInfo {
	return s.typeInfos[h.index()]
}
