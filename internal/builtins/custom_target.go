package builtins

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

var customTargetSig = types.Signature{
	Name:     "custom_target",
	Optional: []types.Formal{{Name: "name", Tag: types.TString}},
	Kwargs: []types.Formal{
		{Name: "input", Tag: types.TSourceLike | types.Listify, Default: obj.None},
		{Name: "output", Tag: types.TString | types.Listify, Required: true},
		{Name: "command", Tag: types.TString | types.TExternalProgram | types.TBuildTarget | types.Listify, Required: true},
		{Name: "depends", Tag: types.TLinkable | types.Listify, Default: obj.None},
		{Name: "depend_files", Tag: types.TSourceLike | types.Listify, Default: obj.None},
		{Name: "depfile", Tag: types.TString, Default: obj.None},
		{Name: "capture", Tag: types.TBool, Default: obj.None},
		{Name: "feed", Tag: types.TBool, Default: obj.None},
		{Name: "console", Tag: types.TBool, Default: obj.None},
		{Name: "build_by_default", Tag: types.TBool, Default: obj.None},
		{Name: "build_always_stale", Tag: types.TBool, Default: obj.None},
		{Name: "install", Tag: types.TBool, Default: obj.None},
		{Name: "install_dir", Tag: types.TString, Default: obj.None},
		{Name: "env", Tag: types.TEnvironment, Default: obj.None},
	},
}

// substitutePlaceholders expands @INPUT@/@OUTPUT@/@INPUT0@.../@OUTPUT0@...
// tokens in a custom_target command argv, per spec.md section 4.8.
func substitutePlaceholders(tok string, inputs, outputs []string) string {
	switch tok {
	case "@INPUT@":
		if len(inputs) > 0 {
			return inputs[0]
		}
		return ""
	case "@OUTPUT@":
		if len(outputs) > 0 {
			return outputs[0]
		}
		return ""
	}
	for i, in := range inputs {
		if tok == "@INPUT"+itoa(i)+"@" {
			return in
		}
	}
	for i, out := range outputs {
		if tok == "@OUTPUT"+itoa(i)+"@" {
			return out
		}
	}
	return tok
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}
	return digits
}

// CustomTargetCtor implements custom_target() (spec.md section 4.8).
func CustomTargetCtor(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "custom_target() requires a workspace-backed native dispatcher"))
	}

	inputHandles := handlesOf(v.Store, bound.Get("input"))
	inputs := make([]string, len(inputHandles))
	for i, h := range inputHandles {
		inputs[i] = obj.Render(v.Store, h)
	}
	outputs := stringsOf(v.Store, bound.Get("output"))
	if len(outputs) == 0 {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "custom_target() requires output:"))
	}

	rawCmd := handlesOf(v.Store, bound.Get("command"))
	cmd := make([]string, 0, len(rawCmd))
	for _, c := range rawCmd {
		cmd = append(cmd, substitutePlaceholders(obj.Render(v.Store, c), inputs, outputs))
	}

	name := stringOf(v.Store, bound.Get("name"), outputs[0])

	ct := &obj.CustomTarget{
		Name:             name,
		Inputs:           inputHandles,
		Outputs:          outputs,
		Command:          cmd,
		Depends:          handlesOf(v.Store, bound.Get("depends")),
		Depfile:          stringOf(v.Store, bound.Get("depfile"), ""),
		Capture:          boolOf(v.Store, bound.Get("capture"), false),
		Feed:             boolOf(v.Store, bound.Get("feed"), false),
		Console:          boolOf(v.Store, bound.Get("console"), false),
		BuildByDefault:   boolOf(v.Store, bound.Get("build_by_default"), true),
		Install:          boolOf(v.Store, bound.Get("install"), false),
		InstallDir:       stringOf(v.Store, bound.Get("install_dir"), ""),
		Env:              bound.Get("env"),
		BuildAlwaysStale: boolOf(v.Store, bound.Get("build_always_stale"), false),
	}

	h := v.Store.NewCustomTarget(ct)
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "custom_target() called before project()"))
	}
	proj.Targets = append(proj.Targets, h)
	return h, nil
}

var generatorSig = types.Signature{
	Name:     "generator",
	Required: []types.Formal{{Name: "exe", Tag: types.TExternalProgram | types.TBuildTarget}},
	Kwargs: []types.Formal{
		{Name: "output", Tag: types.TString | types.Listify},
		{Name: "arguments", Tag: types.TString | types.Listify},
		{Name: "depfile", Tag: types.TString, Default: obj.None},
		{Name: "capture", Tag: types.TBool, Default: obj.None},
		{Name: "depends", Tag: types.TLinkable | types.Listify, Default: obj.None},
	},
}

// GeneratorCtor implements generator() (spec.md section 4.8).
func GeneratorCtor(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	g := &obj.Generator{
		Exe:       bound.Get("exe"),
		Outputs:   stringsOf(v.Store, bound.Get("output")),
		Arguments: stringsOf(v.Store, bound.Get("arguments")),
		Depfile:   stringOf(v.Store, bound.Get("depfile"), ""),
		Capture:   boolOf(v.Store, bound.Get("capture"), false),
		Depends:   handlesOf(v.Store, bound.Get("depends")),
	}
	return v.Store.NewGenerator(g), nil
}

var generatorProcessSig = types.Signature{
	Name:     "process",
	Optional: []types.Formal{{Name: "files", Tag: types.TSourceLike | types.Listify | types.Glob}},
	Kwargs: []types.Formal{
		{Name: "extra_args", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "preserve_path_from", Tag: types.TString, Default: obj.None},
	},
}

// GeneratorProcess implements generator.process(): materializes one
// custom_target per input file against the generator's exe/args
// template (spec.md section 4.8).
func GeneratorProcess(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "generator.process() requires a workspace-backed native dispatcher"))
	}
	gen := v.Store.GetGenerator(self)
	inputs := handlesOf(v.Store, bound.Get("files"))
	extraArgs := stringsOf(v.Store, bound.Get("extra_args"))

	targets := make([]obj.Handle, 0, len(inputs))
	proj := ws.CurrentProject()
	for _, in := range inputs {
		inPath := obj.Render(v.Store, in)
		outputs := make([]string, len(gen.Outputs))
		for i, tmpl := range gen.Outputs {
			outputs[i] = substitutePlaceholders(tmpl, []string{inPath}, nil)
		}
		cmd := append([]string{obj.Render(v.Store, gen.Exe)}, gen.Arguments...)
		for i, a := range cmd {
			cmd[i] = substitutePlaceholders(a, []string{inPath}, outputs)
		}
		cmd = append(cmd, extraArgs...)
		ct := &obj.CustomTarget{
			Name:     inPath + "-generated",
			Inputs:   []obj.Handle{in},
			Outputs:  outputs,
			Command:  cmd,
			Depfile:  gen.Depfile,
			Capture:  gen.Capture,
			Depends:  gen.Depends,
		}
		h := v.Store.NewCustomTarget(ct)
		targets = append(targets, h)
		if proj != nil {
			proj.Targets = append(proj.Targets, h)
		}
	}

	return v.Store.NewGeneratedList(&obj.GeneratedList{
		Generator: self,
		Inputs:    inputs,
		ExtraArgs: extraArgs,
		Targets:   targets,
	}), nil
}

func registerCustomTarget(r *registry.Registry) {
	ct := &registry.NativeFunc{Name: "custom_target", Sig: customTargetSig, Handler: CustomTargetCtor, Flags: registry.FlagImpure}
	gen := &registry.NativeFunc{Name: "generator", Sig: generatorSig, Handler: GeneratorCtor}
	for _, fn := range []*registry.NativeFunc{ct, gen} {
		r.RegisterKernel(registry.ModeExternal, fn)
		r.RegisterKernel(registry.ModeExtended, fn)
	}

	process := &registry.NativeFunc{Name: "process", Sig: generatorProcessSig, Handler: GeneratorProcess, Flags: registry.FlagImpure}
	r.RegisterMethod(registry.ModeExternal, obj.KindGenerator, process)
	r.RegisterMethod(registry.ModeExtended, obj.KindGenerator, process)
}
