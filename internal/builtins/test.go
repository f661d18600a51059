package builtins

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

var testSig = types.Signature{
	Name:     "test",
	Required: []types.Formal{{Name: "name", Tag: types.TString}, {Name: "exe", Tag: types.TBuildTarget | types.TExternalProgram}},
	Kwargs: []types.Formal{
		{Name: "args", Tag: types.TString | types.TFile | types.Listify, Default: obj.None},
		{Name: "workdir", Tag: types.TString, Default: obj.None},
		{Name: "depends", Tag: types.TLinkable | types.Listify, Default: obj.None},
		{Name: "should_fail", Tag: types.TBool, Default: obj.None},
		{Name: "env", Tag: types.TEnvironment, Default: obj.None},
		{Name: "suite", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "priority", Tag: types.TNumber, Default: obj.None},
		{Name: "timeout", Tag: types.TNumber, Default: obj.None},
		{Name: "protocol", Tag: types.TString, Default: obj.None},
		{Name: "is_parallel", Tag: types.TBool, Default: obj.None},
		{Name: "verbose", Tag: types.TBool, Default: obj.None},
	},
}

func testBuilder(isBenchmark bool) registry.Handler {
	return func(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
		ws, ok := v.Native.(Workspace)
		if !ok {
			return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "test() requires a workspace-backed native dispatcher"))
		}
		proj := ws.CurrentProject()
		if proj == nil {
			return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "test() called before project()"))
		}

		t := &obj.Test{
			Name:        v.Store.GetString(bound.Get("name")),
			Exe:         bound.Get("exe"),
			Args:        stringsOf(v.Store, bound.Get("args")),
			Workdir:     stringOf(v.Store, bound.Get("workdir"), ""),
			Depends:     handlesOf(v.Store, bound.Get("depends")),
			ShouldFail:  boolOf(v.Store, bound.Get("should_fail"), false),
			Env:         bound.Get("env"),
			Suite:       stringsOf(v.Store, bound.Get("suite")),
			Priority:    int(intOf(v.Store, bound.Get("priority"), 0)),
			Timeout:     int(intOf(v.Store, bound.Get("timeout"), 30)),
			Protocol:    stringOf(v.Store, bound.Get("protocol"), "exitcode"),
			IsParallel:  boolOf(v.Store, bound.Get("is_parallel"), true),
			Verbose:     boolOf(v.Store, bound.Get("verbose"), false),
			IsBenchmark: isBenchmark,
		}
		h := v.Store.NewTest(t)
		proj.Tests = append(proj.Tests, h)
		return obj.None, nil
	}
}

func registerTest(r *registry.Registry) {
	test := &registry.NativeFunc{Name: "test", Sig: testSig, Handler: testBuilder(false), Flags: registry.FlagImpure}
	bench := &registry.NativeFunc{Name: "benchmark", Sig: testSig, Handler: testBuilder(true), Flags: registry.FlagImpure}
	r.RegisterKernel(registry.ModeExternal, test)
	r.RegisterKernel(registry.ModeExtended, test)
	r.RegisterKernel(registry.ModeExternal, bench)
	r.RegisterKernel(registry.ModeExtended, bench)

	setup := &registry.NativeFunc{
		Name: "add_test_setup",
		Sig: types.Signature{
			Name:     "add_test_setup",
			Required: []types.Formal{{Name: "name", Tag: types.TString}},
			Kwargs: []types.Formal{
				{Name: "exe_wrapper", Tag: types.TString | types.TExternalProgram | types.Listify, Default: obj.None},
				{Name: "timeout_multiplier", Tag: types.TNumber, Default: obj.None},
				{Name: "env", Tag: types.TEnvironment, Default: obj.None},
			},
		},
		Handler: addTestSetup,
	}
	r.RegisterKernel(registry.ModeExternal, setup)
	r.RegisterKernel(registry.ModeExtended, setup)
}

// addTestSetup implements add_test_setup(): records a named test-run
// profile for the CLI/test-runner collaborator to apply at invocation
// time (spec.md section 4.8; the profile itself is consumed by an
// external test-runner, not the interpreter).
func addTestSetup(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "add_test_setup() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "add_test_setup() called before project()"))
	}
	name := v.Store.GetString(bound.Get("name"))
	proj.Summary["test_setups"] = append(proj.Summary["test_setups"], name)
	return obj.None, nil
}
