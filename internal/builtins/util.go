package builtins

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

var variadicAnySig = types.Signature{
	Name:     "message",
	Optional: []types.Formal{{Name: "args", Tag: types.TAny | types.Listify | types.Glob}},
}

func renderArgs(s *obj.Store, h obj.Handle) string {
	parts := handlesOf(s, h)
	rendered := make([]string, len(parts))
	for i, p := range parts {
		rendered[i] = obj.Render(s, p)
	}
	out := ""
	for i, r := range rendered {
		if i > 0 {
			out += " "
		}
		out += r
	}
	return out
}

// logFunc builds message()/warning()/debug(), which differ only in the
// color.Attribute used for the CLI collaborator's rendered prefix
// (spec.md section 4.8; fatih/color is the teacher's own console-styling
// library, reused here for the project's own diagnostic surface).
func logFunc(prefix string, attr color.Attribute) registry.Handler {
	c := color.New(attr)
	return func(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
		text := renderArgs(v.Store, bound.Get("args"))
		ws, ok := v.Native.(Workspace)
		if ok {
			_ = ws // logging sinks ultimately belong to the CLI collaborator
		}
		fmt.Println(c.Sprint(prefix) + " " + text)
		return obj.None, nil
	}
}

// ErrorFn implements error(): a build-file-raised fatal failure distinct
// from an interpreter usage mistake (spec.md section 4.8/7).
func ErrorFn(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	return obj.None, v.Reporter.Emit(diag.NewUserError(pos, renderArgs(v.Store, bound.Get("args"))))
}

var assertSig = types.Signature{
	Name:     "assert",
	Required: []types.Formal{{Name: "condition", Tag: types.TBool}},
	Optional: []types.Formal{{Name: "message", Tag: types.TString}},
}

// Assert implements assert() (spec.md section 4.8).
func Assert(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	if v.Store.GetBool(bound.Get("condition")) {
		return obj.None, nil
	}
	msg := stringOf(v.Store, bound.Get("message"), "Assertion failed.")
	return obj.None, v.Reporter.Emit(diag.NewUserError(pos, msg))
}

var runCommandSig = types.Signature{
	Name:     "run_command",
	Required: []types.Formal{{Name: "command", Tag: types.TString | types.TExternalProgram | types.TBuildTarget}},
	Optional: []types.Formal{{Name: "args", Tag: types.TString | types.Listify | types.Glob}},
	Kwargs: []types.Formal{
		{Name: "check", Tag: types.TBool, Default: obj.None},
		{Name: "capture", Tag: types.TBool, Default: obj.None},
		{Name: "env", Tag: types.TEnvironment, Default: obj.None},
	},
}

// RunCommand implements run_command(): executes a command at configure
// time through the Workspace's CommandRunner collaborator and returns
// its captured result (spec.md section 4.8/6).
func RunCommand(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "run_command() requires a workspace-backed native dispatcher"))
	}
	argv := append([]string{obj.Render(v.Store, bound.Get("command"))}, stringsOf(v.Store, bound.Get("args"))...)
	stdout, stderr, code, err := ws.Collaborators().Run(argv, nil, "")
	if err != nil {
		return obj.None, v.Reporter.Emit(diag.NewIOError(pos, err.Error()))
	}
	if code != 0 && boolOf(v.Store, bound.Get("check"), false) {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, fmt.Sprintf("run_command() %v exited with code %d", argv, code)))
	}
	return v.Store.NewRunResult(&obj.RunResult{ReturnCode: code, Stdout: stdout, Stderr: stderr}), nil
}

var runTargetSig = types.Signature{
	Name:     "run_target",
	Required: []types.Formal{{Name: "name", Tag: types.TString}},
	Kwargs: []types.Formal{
		{Name: "command", Tag: types.TString | types.TExternalProgram | types.TBuildTarget | types.Listify, Required: true},
		{Name: "depends", Tag: types.TLinkable | types.Listify, Default: obj.None},
		{Name: "env", Tag: types.TEnvironment, Default: obj.None},
	},
}

// RunTarget implements run_target(): a named, on-demand alias target
// that always executes its command rather than checking staleness
// (spec.md section 4.8).
func RunTarget(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "run_target() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "run_target() called before project()"))
	}
	cmdHandles := handlesOf(v.Store, bound.Get("command"))
	cmd := make([]string, len(cmdHandles))
	for i, c := range cmdHandles {
		cmd[i] = obj.Render(v.Store, c)
	}
	at := &obj.AliasTarget{
		Name:    v.Store.GetString(bound.Get("name")),
		Depends: handlesOf(v.Store, bound.Get("depends")),
		IsRun:   true,
		Command: cmd,
	}
	h := v.Store.NewAliasTarget(at)
	proj.Targets = append(proj.Targets, h)
	return h, nil
}

var aliasTargetSig = types.Signature{
	Name:     "alias_target",
	Required: []types.Formal{{Name: "name", Tag: types.TString}, {Name: "targets", Tag: types.TLinkable | types.Listify | types.Glob}},
}

// AliasTargetFn implements alias_target(): a named no-op target that
// simply depends on its listed targets (spec.md section 4.8).
func AliasTargetFn(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "alias_target() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "alias_target() called before project()"))
	}
	at := &obj.AliasTarget{
		Name:    v.Store.GetString(bound.Get("name")),
		Depends: handlesOf(v.Store, bound.Get("targets")),
	}
	h := v.Store.NewAliasTarget(at)
	proj.Targets = append(proj.Targets, h)
	return h, nil
}

var summarySig = types.Signature{
	Name:     "summary",
	Required: []types.Formal{{Name: "key_or_dict", Tag: types.TString | types.TDict}},
	Optional: []types.Formal{{Name: "value", Tag: types.TAny}},
	Kwargs: []types.Formal{
		{Name: "section", Tag: types.TString, Default: obj.None},
		{Name: "bool_yn", Tag: types.TBool, Default: obj.None},
		{Name: "list_sep", Tag: types.TString, Default: obj.None},
	},
}

// Summary implements summary(): accumulates key/value pairs onto the
// current project's end-of-configure summary report (spec.md section
// 4.8).
func Summary(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "summary() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "summary() called before project()"))
	}
	section := stringOf(v.Store, bound.Get("section"), "")

	key := bound.Get("key_or_dict")
	if key.Kind() == obj.KindDict {
		v.Store.GetDict(key).Each(func(k string, val obj.Handle) {
			proj.Summary[section] = append(proj.Summary[section], k+": "+obj.Render(v.Store, val))
		})
		return obj.None, nil
	}
	name := v.Store.GetString(key)
	val := bound.Get("value")
	proj.Summary[section] = append(proj.Summary[section], name+": "+obj.Render(v.Store, val))
	return obj.None, nil
}

var disablerSig = types.Signature{Name: "disabler"}

// DisablerFn implements disabler() (spec.md section 4.5).
func DisablerFn(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	return v.Store.Disabler, nil
}

var isDisablerSig = types.Signature{
	Name:     "is_disabler",
	Required: []types.Formal{{Name: "value", Tag: types.TAny | types.TDisabler}},
}

// IsDisablerFn implements is_disabler(), exempted from the normal
// disabler short-circuit so it can actually observe one (spec.md
// section 4.5).
func IsDisablerFn(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	return boolHandle(v.Store, bound.Get("value").Kind() == obj.KindDisabler), nil
}

var rangeSig = types.Signature{
	Name:     "range",
	Required: []types.Formal{{Name: "stop_or_start", Tag: types.TNumber}},
	Optional: []types.Formal{{Name: "stop", Tag: types.TNumber}, {Name: "step", Tag: types.TNumber}},
}

// RangeFn implements range() (spec.md section 4.8): range(stop),
// range(start, stop), or range(start, stop, step).
func RangeFn(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	a := intOf(v.Store, bound.Get("stop_or_start"), 0)
	start, stop, step := int64(0), a, int64(1)
	if s := bound.Get("stop"); !s.IsNone() {
		start = a
		stop = v.Store.GetNumber(s)
	}
	if st := bound.Get("step"); !st.IsNone() {
		step = v.Store.GetNumber(st)
	}
	if step == 0 {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "range() step cannot be 0"))
	}
	var elems []obj.Handle
	if step > 0 {
		for i := start; i < stop; i += step {
			elems = append(elems, v.Store.Number(i))
		}
	} else {
		for i := start; i > stop; i += step {
			elems = append(elems, v.Store.Number(i))
		}
	}
	return v.Store.NewArray(elems...), nil
}

var vcsTagSig = types.Signature{
	Name:     "vcs_tag",
	Kwargs: []types.Formal{
		{Name: "input", Tag: types.TSourceLike},
		{Name: "output", Tag: types.TString, Required: true},
		{Name: "fallback", Tag: types.TString, Default: obj.None},
		{Name: "command", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "replace_string", Tag: types.TString, Default: obj.None},
	},
}

// VcsTag implements vcs_tag(): a thin custom_target wrapper that stamps
// a version-control identifier into a generated file via the
// CommandRunner collaborator, falling back to a literal when the
// repository can't be queried (spec.md section 4.8).
func VcsTag(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "vcs_tag() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "vcs_tag() called before project()"))
	}
	output := stringOf(v.Store, bound.Get("output"), "")
	fallback := stringOf(v.Store, bound.Get("fallback"), "unknown")
	replace := stringOf(v.Store, bound.Get("replace_string"), "@VCS_TAG@")
	cmd := stringsOf(v.Store, bound.Get("command"))

	tag := fallback
	if len(cmd) > 0 {
		if stdout, _, code, err := ws.Collaborators().Run(cmd, nil, ""); err == nil && code == 0 {
			tag = stdout
		}
	}

	ct := &obj.CustomTarget{
		Name:    output + "-vcs-tag",
		Outputs: []string{output},
		Command: []string{"<vcs_tag>", replace, tag},
		Capture: true,
	}
	h := v.Store.NewCustomTarget(ct)
	proj.Targets = append(proj.Targets, h)
	return h, nil
}

var subdirSig = types.Signature{
	Name:     "subdir",
	Required: []types.Formal{{Name: "dir", Tag: types.TString}},
	Kwargs:   []types.Formal{{Name: "if_found", Tag: types.TDependency | types.Listify, Default: obj.None}},
}

// Subdir implements subdir() (spec.md section 4.8/4.10): evaluates
// dir/meson.build (or whatever the teacher's file-naming convention
// names it) in the calling frame's own scope, so declarations made
// there are visible to the enclosing file exactly as if inlined.
func Subdir(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "subdir() requires a workspace-backed native dispatcher"))
	}
	for _, dep := range handlesOf(v.Store, bound.Get("if_found")) {
		if dep.Kind() == obj.KindDependency && !v.Store.GetDependency(dep).Found {
			return obj.None, nil
		}
	}
	dir := v.Store.GetString(bound.Get("dir"))
	return obj.None, ws.EnterSubdir(v, pos, dir)
}

// SubdirDone implements subdir_done(): unwinds evaluation of the
// current directory's build file early (spec.md section 4.8). It is
// implemented as a sentinel error the Workspace's subdir driver
// recognizes and swallows.
func SubdirDone(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	return obj.None, errSubdirDone
}

var errSubdirDone = &subdirDoneSignal{}

type subdirDoneSignal struct{}

func (s *subdirDoneSignal) Error() string { return "subdir_done() called" }

// Unwind satisfies vm.ControlSignal so wrapErr passes this sentinel
// through unrecorded instead of turning it into a spurious Report.
func (s *subdirDoneSignal) Unwind() {}

// IsSubdirDone reports whether err is the sentinel subdir_done() raises,
// letting EnterSubdir implementations swallow it without treating it as
// a real failure.
func IsSubdirDone(err error) bool {
	_, ok := err.(*subdirDoneSignal)
	return ok
}

var addLanguagesSig = types.Signature{
	Name:     "add_languages",
	Required: []types.Formal{{Name: "languages", Tag: types.TString | types.Listify | types.Glob}},
	Kwargs: []types.Formal{
		{Name: "required", Tag: types.TBool | types.TFeatureOpt, Default: obj.None},
		{Name: "native", Tag: types.TBool, Default: obj.None},
	},
}

// AddLanguages implements add_languages(): probes additional compilers
// for the current project after project() has already run (spec.md
// section 4.8).
func AddLanguages(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "add_languages() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "add_languages() called before project()"))
	}
	required := true
	if reqH := bound.Get("required"); reqH.Kind() == obj.KindBool {
		required = v.Store.GetBool(reqH)
	} else if reqH.Kind() == obj.KindFeatureOpt {
		required = obj.Render(v.Store, reqH) == "enabled"
	}
	machine := machineOf(v.Store, bound, "native")

	for _, lang := range stringsOf(v.Store, bound.Get("languages")) {
		if _, ok := proj.Compilers[lang]; ok {
			continue
		}
		id, ver, err := ws.Collaborators().Probe(lang, machine)
		if err != nil {
			if required {
				return boolHandle(v.Store, false), v.Reporter.Emit(diag.NewIOError(pos, "probing compiler for "+lang+": "+err.Error()))
			}
			continue
		}
		proj.Compilers[lang] = v.Store.NewCompiler(&obj.Compiler{Language: lang, ID: id, Version: ver, Machine: machine})
	}
	return boolHandle(v.Store, true), nil
}

// argAccumulator builds add_project_arguments/add_global_arguments/
// add_project_link_arguments/add_global_link_arguments: each appends its
// string arguments to the calling Project's Summary under
// "args:<field>" (project) or "global_args:<field>" (global). The list is
// not split per language, and global arguments are recorded only on the
// calling project, not copied into subprojects.
// add_project_dependencies has its own handler, addProjectDependencies.
func argAccumulator(global bool, field string) registry.Handler {
	return func(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
		ws, ok := v.Native.(Workspace)
		if !ok {
			return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "add_arguments() requires a workspace-backed native dispatcher"))
		}
		proj := ws.CurrentProject()
		if proj == nil {
			return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "add_arguments() called before project()"))
		}
		args := stringsOf(v.Store, bound.Get("args"))
		key := "args:" + field
		if global {
			key = "global_args:" + field
		}
		proj.Summary[key] = append(proj.Summary[key], args...)
		return obj.None, nil
	}
}

var addArgsSig = types.Signature{
	Name:     "add_project_arguments",
	Required: []types.Formal{{Name: "args", Tag: types.TString | types.Listify | types.Glob}},
	Kwargs: []types.Formal{
		{Name: "language", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "native", Tag: types.TBool, Default: obj.None},
	},
}

var addDepsSig = types.Signature{
	Name:     "add_project_dependencies",
	Required: []types.Formal{{Name: "deps", Tag: types.TDependency | types.Listify | types.Glob}},
	Kwargs: []types.Formal{
		{Name: "language", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "native", Tag: types.TBool, Default: obj.None},
	},
}

func addProjectDependencies(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "add_project_dependencies() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "add_project_dependencies() called before project()"))
	}
	for _, dep := range handlesOf(v.Store, bound.Get("deps")) {
		if dep.Kind() != obj.KindDependency {
			continue
		}
		name := v.Store.GetDependency(dep).Name
		proj.Summary["project_dependencies"] = append(proj.Summary["project_dependencies"], name)
	}
	return obj.None, nil
}

func registerUtil(r *registry.Registry) {
	msg := &registry.NativeFunc{Name: "message", Sig: variadicAnySig, Handler: logFunc("MESSAGE:", color.FgCyan)}
	warn := &registry.NativeFunc{Name: "warning", Sig: variadicAnySig, Handler: logFunc("WARNING:", color.FgYellow)}
	dbg := &registry.NativeFunc{Name: "debug", Sig: variadicAnySig, Handler: logFunc("DEBUG:", color.FgWhite), Flags: registry.FlagExtension}
	errFn := &registry.NativeFunc{Name: "error", Sig: variadicAnySig, Handler: ErrorFn, Flags: registry.FlagThrowsError}
	assertFn := &registry.NativeFunc{Name: "assert", Sig: assertSig, Handler: Assert, Flags: registry.FlagThrowsError}
	runCmd := &registry.NativeFunc{Name: "run_command", Sig: runCommandSig, Handler: RunCommand, Flags: registry.FlagImpure}
	runTgt := &registry.NativeFunc{Name: "run_target", Sig: runTargetSig, Handler: RunTarget, Flags: registry.FlagImpure}
	aliasTgt := &registry.NativeFunc{Name: "alias_target", Sig: aliasTargetSig, Handler: AliasTargetFn, Flags: registry.FlagImpure}
	summaryFn := &registry.NativeFunc{Name: "summary", Sig: summarySig, Handler: Summary, Flags: registry.FlagImpure}
	disablerFn := &registry.NativeFunc{Name: "disabler", Sig: disablerSig, Handler: DisablerFn}
	isDisablerFn := &registry.NativeFunc{Name: "is_disabler", Sig: isDisablerSig, Handler: IsDisablerFn, Flags: registry.FlagDisablerImmune}
	rangeFn := &registry.NativeFunc{Name: "range", Sig: rangeSig, Handler: RangeFn}
	vcsTagFn := &registry.NativeFunc{Name: "vcs_tag", Sig: vcsTagSig, Handler: VcsTag, Flags: registry.FlagImpure}
	subdirFn := &registry.NativeFunc{Name: "subdir", Sig: subdirSig, Handler: Subdir, Flags: registry.FlagImpure}
	subdirDoneFn := &registry.NativeFunc{Name: "subdir_done", Sig: types.Signature{Name: "subdir_done"}, Handler: SubdirDone}
	addLangs := &registry.NativeFunc{Name: "add_languages", Sig: addLanguagesSig, Handler: AddLanguages, Flags: registry.FlagImpure}
	addProjArgs := &registry.NativeFunc{Name: "add_project_arguments", Sig: addArgsSig, Handler: argAccumulator(false, "compile"), Flags: registry.FlagImpure}
	addGlobalArgs := &registry.NativeFunc{Name: "add_global_arguments", Sig: addArgsSig, Handler: argAccumulator(true, "compile"), Flags: registry.FlagImpure}
	addProjLinkArgs := &registry.NativeFunc{Name: "add_project_link_arguments", Sig: addArgsSig, Handler: argAccumulator(false, "link"), Flags: registry.FlagImpure}
	addGlobalLinkArgs := &registry.NativeFunc{Name: "add_global_link_arguments", Sig: addArgsSig, Handler: argAccumulator(true, "link"), Flags: registry.FlagImpure}
	addProjDeps := &registry.NativeFunc{Name: "add_project_dependencies", Sig: addDepsSig, Handler: addProjectDependencies, Flags: registry.FlagImpure}

	all := []*registry.NativeFunc{
		msg, warn, dbg, errFn, assertFn, runCmd, runTgt, aliasTgt, summaryFn,
		disablerFn, isDisablerFn, rangeFn, vcsTagFn, subdirFn, subdirDoneFn,
		addLangs, addProjArgs, addGlobalArgs, addProjLinkArgs, addGlobalLinkArgs, addProjDeps,
	}
	for _, fn := range all {
		r.RegisterKernel(registry.ModeExternal, fn)
		r.RegisterKernel(registry.ModeExtended, fn)
	}

	registerMesonAccessors(r)
}
