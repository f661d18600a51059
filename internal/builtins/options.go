package builtins

import (
	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

var optionSig = types.Signature{
	Name:     "option",
	Required: []types.Formal{{Name: "name", Tag: types.TString}},
	Kwargs: []types.Formal{
		{Name: "type", Tag: types.TString},
		{Name: "value", Tag: types.TAny, Default: obj.None},
		{Name: "choices", Tag: types.TString | types.Listify, Default: obj.None},
		{Name: "min", Tag: types.TNumber, Default: obj.None},
		{Name: "max", Tag: types.TNumber, Default: obj.None},
		{Name: "description", Tag: types.TString, Default: obj.None},
		{Name: "yield", Tag: types.TBool, Default: obj.None},
		{Name: "deprecated", Tag: types.TBool | types.TString | types.TArray | types.TDict, Default: obj.None},
	},
}

// Option implements option(), the option-file-mode-only declarator
// (spec.md section 4.8: meson_options.txt's sole statement form). It is
// registered only under registry.ModeOpts; calling it from a build file
// fails lookup entirely since build-file evaluation never consults the
// opts table.
func Option(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "option() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "option() evaluated outside of a project's option file"))
	}

	name := v.Store.GetString(bound.Get("name"))
	typ := stringOf(v.Store, bound.Get("type"), "string")
	def := &OptionDef{
		Name:        name,
		Type:        typ,
		Value:       bound.Get("value"),
		Choices:     stringsOf(v.Store, bound.Get("choices")),
		Description: stringOf(v.Store, bound.Get("description"), ""),
		Yield:       boolOf(v.Store, bound.Get("yield"), false),
		Deprecated:  !bound.Get("deprecated").IsNone(),
	}
	if minH := bound.Get("min"); minH.Kind() == obj.KindNumber {
		m := v.Store.GetNumber(minH)
		def.Min = &m
	}
	if maxH := bound.Get("max"); maxH.Kind() == obj.KindNumber {
		m := v.Store.GetNumber(maxH)
		def.Max = &m
	}
	if _, exists := proj.Options[name]; !exists {
		proj.OptionOrder = append(proj.OptionOrder, name)
	}
	proj.Options[name] = def
	return obj.None, nil
}

var getOptionSig = types.Signature{
	Name:     "get_option",
	Required: []types.Formal{{Name: "name", Tag: types.TString}},
}

// GetOption implements get_option() (spec.md section 4.8): reads back
// an option's current value, falling back to its declared default when
// unset by the command-line/override layer.
func GetOption(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "get_option() requires a workspace-backed native dispatcher"))
	}
	proj := ws.CurrentProject()
	if proj == nil {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "get_option() called before project()"))
	}
	name := v.Store.GetString(bound.Get("name"))
	def, ok := proj.Options[name]
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "unknown option "+name))
	}
	return def.Value, nil
}

func registerOptions(r *registry.Registry) {
	opt := &registry.NativeFunc{Name: "option", Sig: optionSig, Handler: Option, Flags: registry.FlagImpure}
	r.RegisterKernel(registry.ModeOpts, opt)

	get := &registry.NativeFunc{Name: "get_option", Sig: getOptionSig, Handler: GetOption}
	r.RegisterKernel(registry.ModeExternal, get)
	r.RegisterKernel(registry.ModeExtended, get)
}
