package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/builtins"
	"github.com/muonlang/mbi/internal/bytecode"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/parser"
	"github.com/muonlang/mbi/internal/registry"
	"github.com/muonlang/mbi/internal/vm"
)

// optionsFileNames are tried in order against rootDir, matching the two
// filenames original_source accepts for the option-declaration file.
var optionsFileNames = []string{"meson.options", "meson_options.txt"}

// TargetSummary is one build_target/custom_target/alias_target's
// manifest entry (spec.md section 6: "the CLI prints a summary of what
// was declared, not what was built").
type TargetSummary struct {
	Name string
	Kind string
}

// Manifest is what ConfigureRoot returns: everything spec.md section 6
// says a configuration run reports back to its caller.
type Manifest struct {
	Projects []ProjectSummary
}

// ProjectSummary flattens one builtins.Project into the plain data a CLI
// or test wants to print, without exposing obj.Handle internals.
type ProjectSummary struct {
	Name         string
	Version      string
	IsSubproject bool
	Targets      []TargetSummary
	TestCount    int
	InstallCount int
	Options      []string
	Summary      map[string][]string
}

// ConfigureRoot compiles and evaluates the root build file end to end:
// it runs project() first so an option-declaration file (if present) has
// a project to attach to, then applies -D overrides, then evaluates the
// rest of the file, and finally reports any overrides that went unused
// (spec.md section 6: "unused overrides are an error at the end of
// evaluation").
func (w *Workspace) ConfigureRoot(src []byte, path string) (*Manifest, error) {
	w.rootDir = filepath.Dir(path)
	w.Reporter.AddSource(path, src)

	file, err := parser.Parse(src, path, false)
	if err != nil {
		pos := ast.Pos{File: path}
		if pe, ok := err.(*parser.Error); ok {
			pos = pe.Pos
		}
		return nil, w.Reporter.Emit(diag.NewParseError(pos, err.Error()))
	}
	if len(file.Statements) == 0 {
		return nil, w.Reporter.Emit(diag.NewUsageError(ast.Pos{File: path}, "empty root build file"))
	}

	v := w.NewVM()
	scope := w.GlobalScope()

	head, err := bytecode.Compile(file.Pool, w.Store, file.Statements[:1])
	if err != nil {
		return nil, err
	}
	if _, err := v.RunInScope(head, scope); err != nil {
		return nil, err
	}

	if err := w.loadOptionsFile(v); err != nil {
		return nil, err
	}
	w.applyOptionOverrides(w.CurrentProject(), "")

	if len(file.Statements) > 1 {
		rest, err := bytecode.Compile(file.Pool, w.Store, file.Statements[1:])
		if err != nil {
			return nil, err
		}
		if _, err := v.RunInScope(rest, scope); err != nil && !builtins.IsSubdirDone(err) {
			return nil, err
		}
	}

	if err := w.checkUnusedOverrides(); err != nil {
		return nil, err
	}

	return w.buildManifest(), nil
}

// loadOptionsFile evaluates meson.options/meson_options.txt, if either
// exists at the root, against the project project() just pushed.
// Declarations run under registry.ModeOpts so option() resolves while
// get_option() still doesn't; the mode is restored unconditionally
// afterward so a later subproject() re-entry starts from ModeExternal.
func (w *Workspace) loadOptionsFile(v *vm.VM) error {
	var path string
	var src []byte
	for _, name := range optionsFileNames {
		candidate := filepath.Join(w.rootDir, name)
		data, err := os.ReadFile(candidate)
		if err == nil {
			path, src = candidate, data
			break
		}
	}
	if src == nil {
		return nil
	}

	w.Reporter.AddSource(path, src)
	file, err := parser.Parse(src, path, false)
	if err != nil {
		pos := ast.Pos{File: path}
		if pe, ok := err.(*parser.Error); ok {
			pos = pe.Pos
		}
		return w.Reporter.Emit(diag.NewParseError(pos, err.Error()))
	}
	prog, err := bytecode.Compile(file.Pool, w.Store, file.Statements)
	if err != nil {
		return err
	}

	w.mode = registry.ModeOpts
	defer func() { w.mode = registry.ModeExternal }()
	_, err = v.RunInScope(prog, vm.NewScope(nil))
	return err
}

// applyOptionOverrides consults w.optionOverrides for keys matching
// prefix (the empty string for the root project, "name:" for a
// subproject entered through EvalSubproject) and applies each to the
// matching *builtins.OptionDef, marking it used.
func (w *Workspace) applyOptionOverrides(proj *builtins.Project, prefix string) {
	if proj == nil {
		return
	}
	for key, val := range w.optionOverrides {
		name := key
		if prefix != "" {
			if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
				continue
			}
			name = key[len(prefix):]
		} else if strings.ContainsRune(key, ':') {
			continue // namespaced override, handled when that subproject loads
		}
		if opt, ok := proj.Options[name]; ok {
			opt.Value = w.Store.String(val)
			w.usedOverrides[key] = true
		}
	}
}

// checkUnusedOverrides implements spec.md section 6's "unused overrides
// are an error at the end of evaluation".
func (w *Workspace) checkUnusedOverrides() error {
	for key := range w.optionOverrides {
		if !w.usedOverrides[key] {
			return w.Reporter.Emit(diag.NewUsageError(ast.Pos{}, "unknown option override -D"+key))
		}
	}
	return nil
}

// buildManifest flattens every pushed project (root plus any
// subprojects reached through dependency fallback or subproject())
// into the plain summary ConfigureRoot returns.
func (w *Workspace) buildManifest() *Manifest {
	m := &Manifest{}
	for _, p := range w.projects {
		ps := ProjectSummary{
			Name:         p.Name,
			Version:      p.Version,
			IsSubproject: p.IsSubproject,
			TestCount:    len(p.Tests),
			InstallCount: len(p.Installs),
			Summary:      p.Summary,
		}
		for _, name := range p.OptionOrder {
			ps.Options = append(ps.Options, name)
		}
		for _, h := range p.Targets {
			ps.Targets = append(ps.Targets, targetSummaryOf(w.Store, h))
		}
		m.Projects = append(m.Projects, ps)
	}
	return m
}

func targetSummaryOf(s *obj.Store, h obj.Handle) TargetSummary {
	switch h.Kind() {
	case obj.KindBuildTarget:
		bt := s.GetBuildTarget(h)
		return TargetSummary{Name: bt.Name, Kind: bt.TargetType}
	case obj.KindCustomTarget:
		ct := s.GetCustomTarget(h)
		return TargetSummary{Name: ct.Name, Kind: "custom_target"}
	case obj.KindAliasTarget:
		at := s.GetAliasTarget(h)
		kind := "alias_target"
		if at.IsRun {
			kind = "run_target"
		}
		return TargetSummary{Name: at.Name, Kind: kind}
	default:
		return TargetSummary{Name: "<unknown>", Kind: h.Kind().String()}
	}
}
