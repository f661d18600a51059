package builtins

import (
	"regexp"
	"strconv"

	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/types"
	"github.com/muonlang/mbi/internal/vm"
)

var configurationDataSig = types.Signature{
	Name:     "configuration_data",
	Optional: []types.Formal{{Name: "dict", Tag: types.TDict, Default: obj.None}},
}

// ConfigurationDataCtor implements configuration_data(), optionally
// seeded from a dict literal (spec.md section 4.8).
func ConfigurationDataCtor(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	c := &obj.ConfigurationData{Values: make(map[string]obj.ConfigValue)}
	if dict := bound.Get("dict"); dict.Kind() == obj.KindDict {
		v.Store.GetDict(dict).Each(func(k string, h obj.Handle) {
			setConfigValue(v.Store, c, k, h, "")
		})
	}
	return v.Store.NewConfigurationData(c), nil
}

func setConfigValue(s *obj.Store, c *obj.ConfigurationData, key string, h obj.Handle, comment string) {
	if _, exists := c.Values[key]; !exists {
		c.Order = append(c.Order, key)
	}
	cv := obj.ConfigValue{Comment: comment}
	switch h.Kind() {
	case obj.KindBool:
		b := s.GetBool(h)
		cv.Bool = &b
	case obj.KindNumber:
		n := s.GetNumber(h)
		cv.Int = &n
	default:
		str := obj.Render(s, h)
		cv.Str = &str
	}
	c.Values[key] = cv
}

func registerConfigureFile(r *registry.Registry) {
	ctor := &registry.NativeFunc{Name: "configuration_data", Sig: configurationDataSig, Handler: ConfigurationDataCtor}
	r.RegisterKernel(registry.ModeExternal, ctor)
	r.RegisterKernel(registry.ModeExtended, ctor)

	set := &registry.NativeFunc{
		Name: "set",
		Sig: types.Signature{
			Name:     "set",
			Required: []types.Formal{{Name: "key", Tag: types.TString}, {Name: "value", Tag: types.TAny}},
			Kwargs:   []types.Formal{{Name: "description", Tag: types.TString, Default: obj.None}},
		},
		Handler: configDataSet,
	}
	set10 := &registry.NativeFunc{Name: "set10", Sig: set.Sig, Handler: configDataSet10}
	quote := &registry.NativeFunc{
		Name: "set_quoted",
		Sig:  set.Sig,
		Handler: configDataSetQuoted,
	}
	hasKey := &registry.NativeFunc{
		Name:    "has",
		Sig:     types.Signature{Name: "has", Required: []types.Formal{{Name: "key", Tag: types.TString}}},
		Handler: configDataHas,
	}
	for _, fn := range []*registry.NativeFunc{set, set10, quote, hasKey} {
		r.RegisterMethod(registry.ModeExternal, obj.KindConfigurationData, fn)
		r.RegisterMethod(registry.ModeExtended, obj.KindConfigurationData, fn)
	}

	cf := &registry.NativeFunc{
		Name: "configure_file",
		Sig: types.Signature{
			Name: "configure_file",
			Kwargs: []types.Formal{
				{Name: "input", Tag: types.TSourceLike | types.Listify, Default: obj.None},
				{Name: "output", Tag: types.TString, Required: true},
				{Name: "configuration", Tag: types.TConfigData | types.TDict, Default: obj.None},
				{Name: "command", Tag: types.TString | types.Listify, Default: obj.None},
				{Name: "capture", Tag: types.TBool, Default: obj.None},
				{Name: "install", Tag: types.TBool, Default: obj.None},
				{Name: "install_dir", Tag: types.TString, Default: obj.None},
				{Name: "format", Tag: types.TString, Default: obj.None},
				{Name: "encoding", Tag: types.TString, Default: obj.None},
			},
		},
		Handler: ConfigureFile,
		Flags:   registry.FlagImpure,
	}
	r.RegisterKernel(registry.ModeExternal, cf)
	r.RegisterKernel(registry.ModeExtended, cf)
}

func configDataSet(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	c := v.Store.GetConfigurationData(self)
	if c.Frozen {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "configuration_data is frozen after first use in configure_file()"))
	}
	key := v.Store.GetString(bound.Get("key"))
	setConfigValue(v.Store, c, key, bound.Get("value"), stringOf(v.Store, bound.Get("description"), ""))
	return obj.None, nil
}

func configDataSet10(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	c := v.Store.GetConfigurationData(self)
	if c.Frozen {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "configuration_data is frozen after first use in configure_file()"))
	}
	key := v.Store.GetString(bound.Get("key"))
	truthy := boolOf(v.Store, bound.Get("value"), false)
	setConfigValue(v.Store, c, key, boolHandle(v.Store, truthy), stringOf(v.Store, bound.Get("description"), ""))
	return obj.None, nil
}

func boolHandle(s *obj.Store, b bool) obj.Handle {
	if b {
		return s.True
	}
	return s.False
}

func configDataSetQuoted(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	c := v.Store.GetConfigurationData(self)
	if c.Frozen {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "configuration_data is frozen after first use in configure_file()"))
	}
	key := v.Store.GetString(bound.Get("key"))
	quoted := strconv.Quote(obj.Render(v.Store, bound.Get("value")))
	setConfigValue(v.Store, c, key, v.Store.String(quoted), stringOf(v.Store, bound.Get("description"), ""))
	return obj.None, nil
}

func configDataHas(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	c := v.Store.GetConfigurationData(self)
	key := v.Store.GetString(bound.Get("key"))
	_, ok := c.Values[key]
	return boolHandle(v.Store, ok), nil
}

var cmakeDefine = regexp.MustCompile(`#cmakedefine(?:01)?\s+(\w+)`)
var atSubst = regexp.MustCompile(`@(\w+)@`)
var mesonDefine = regexp.MustCompile(`#mesondefine\s+(\w+)`)

// ConfigureFile implements configure_file() (spec.md section 4.8/8): for
// configuration-mode it rewrites @var@ and #mesondefine/#cmakedefine
// lines against a configuration_data's values; for command-mode it
// defers substitution/execution to the Workspace's command-runner
// collaborator. Output is written through WriteIfChanged so repeat
// configures that produce identical bytes don't perturb downstream
// mtimes (spec.md section 8's configure-file-substitution scenario).
func ConfigureFile(v *vm.VM, pos ast.Pos, self obj.Handle, bound *types.Bound) (obj.Handle, error) {
	ws, ok := v.Native.(Workspace)
	if !ok {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "configure_file() requires a workspace-backed native dispatcher"))
	}

	output := stringOf(v.Store, bound.Get("output"), "")
	if output == "" {
		return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "configure_file() requires output:"))
	}

	var contents []byte
	if cfg := bound.Get("configuration"); cfg.Kind() == obj.KindConfigurationData {
		c := v.Store.GetConfigurationData(cfg)
		c.Frozen = true

		inputs := handlesOf(v.Store, bound.Get("input"))
		if len(inputs) == 0 {
			return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "configure_file() with configuration: requires input:"))
		}
		raw, err := ws.ReadSource(obj.Render(v.Store, inputs[0]))
		if err != nil {
			return obj.None, v.Reporter.Emit(diag.NewIOError(pos, err.Error()))
		}
		text := string(raw)

		text = mesonDefine.ReplaceAllStringFunc(text, func(m string) string {
			key := mesonDefine.FindStringSubmatch(m)[1]
			return renderDefine(key, c)
		})
		text = cmakeDefine.ReplaceAllStringFunc(text, func(m string) string {
			sub := cmakeDefine.FindStringSubmatch(m)
			return renderDefine(sub[1], c)
		})
		text = atSubst.ReplaceAllStringFunc(text, func(m string) string {
			key := atSubst.FindStringSubmatch(m)[1]
			if cv, ok := c.Values[key]; ok {
				return renderConfigValue(cv)
			}
			return m
		})
		contents = []byte(text)
	} else if cmd := stringsOf(v.Store, bound.Get("command")); len(cmd) > 0 {
		stdout, _, code, err := ws.Collaborators().Run(cmd, nil, "")
		if err != nil || code != 0 {
			return obj.None, v.Reporter.Emit(diag.NewUsageError(pos, "configure_file() command failed"))
		}
		if boolOf(v.Store, bound.Get("capture"), false) {
			contents = []byte(stdout)
		}
	}

	if err := ws.WriteIfChanged(output, contents); err != nil {
		return obj.None, v.Reporter.Emit(diag.NewIOError(pos, err.Error()))
	}

	if boolOf(v.Store, bound.Get("install"), false) {
		proj := ws.CurrentProject()
		if proj != nil {
			ih := v.Store.NewInstallTarget(&obj.InstallTarget{
				Flavor:  "data",
				Sources: []string{output},
				Dest:    stringOf(v.Store, bound.Get("install_dir"), ""),
			})
			proj.Installs = append(proj.Installs, ih)
		}
	}

	return v.Store.File(output), nil
}

func renderDefine(key string, c *obj.ConfigurationData) string {
	cv, ok := c.Values[key]
	if !ok {
		return "/* #undef " + key + " */"
	}
	if cv.Bool != nil {
		if *cv.Bool {
			return "#define " + key + " 1"
		}
		return "/* #undef " + key + " */"
	}
	return "#define " + key + " " + renderConfigValue(cv)
}

func renderConfigValue(cv obj.ConfigValue) string {
	switch {
	case cv.Bool != nil:
		if *cv.Bool {
			return "true"
		}
		return "false"
	case cv.Int != nil:
		return strconv.FormatInt(*cv.Int, 10)
	case cv.Str != nil:
		return *cv.Str
	default:
		return ""
	}
}
