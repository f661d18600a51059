package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/builtins"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/resolver"
	"github.com/muonlang/mbi/internal/vm"
)

const buildFileName = "meson.build"

// currentDir is the directory the in-progress evaluation's relative
// paths resolve against: the root directory plus every subdir() the VM
// has descended into so far.
func (w *Workspace) currentDir() string {
	return filepath.Join(append([]string{w.rootDir}, w.subDirs...)...)
}

// ReadSource loads a file relative to currentDir (spec.md section 6:
// "the core does not open files; the CLI collaborator loads them" — this
// is that collaborator for build-file-relative reads).
func (w *Workspace) ReadSource(path string) ([]byte, error) {
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(w.currentDir(), path)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, diag.Wrap(diag.NewIOError(ast.Pos{File: full}, err.Error()))
	}
	return data, nil
}

// WriteIfChanged implements configure_file's idempotent write (spec.md
// section 8: "writing configure_file twice with the same inputs ...
// does not update the file's mtime").
func (w *Workspace) WriteIfChanged(path string, contents []byte) error {
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(w.currentDir(), path)
	}
	if existing, err := os.ReadFile(full); err == nil && string(existing) == string(contents) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return diag.Wrap(diag.NewIOError(ast.Pos{File: full}, err.Error()))
	}
	if err := os.WriteFile(full, contents, 0o644); err != nil {
		return diag.Wrap(diag.NewIOError(ast.Pos{File: full}, err.Error()))
	}
	return nil
}

// EnterSubdir implements subdir() (spec.md section 4.8): evaluates
// dir/meson.build reusing the calling frame's scope, so variables set
// there are visible to the rest of the caller's file.
func (w *Workspace) EnterSubdir(v *vm.VM, pos ast.Pos, dir string) error {
	src, err := w.ReadSource(filepath.Join(dir, buildFileName))
	if err != nil {
		return err
	}

	w.subDirs = append(w.subDirs, dir)
	defer func() { w.subDirs = w.subDirs[:len(w.subDirs)-1] }()

	label := filepath.Join(w.currentDir(), buildFileName)
	prog, err := w.compileSource(src, label)
	if err != nil {
		return err
	}

	_, err = v.RunInScope(prog, v.CurrentScope())
	if err != nil && builtins.IsSubdirDone(err) {
		return nil
	}
	return err
}

// EvalSubproject implements the bulk of spec.md section 4.10: resolves
// a wrap file if present, enters a fresh project scope, and evaluates
// that subproject's meson.build. Circular references are rejected via
// w.tracker before any file is read.
func (w *Workspace) EvalSubproject(pos ast.Pos, name string, defaultOptions map[string]string) (*builtins.Project, bool, error) {
	if chain, circular := w.tracker.Enter(name); circular {
		return nil, false, w.Reporter.Emit(diag.NewCircularSubproject(pos, chain))
	}
	defer w.tracker.Leave()

	subDir := filepath.Join("subprojects", name)
	var wrap *resolver.WrapFile
	if data, err := os.ReadFile(filepath.Join(w.rootDir, "subprojects", name+".wrap")); err == nil {
		wrap, _ = resolver.ParseWrap(data)
		if wrap != nil && wrap.Directory != "" {
			subDir = filepath.Join("subprojects", wrap.Directory)
		}
	}

	buildFile := filepath.Join(w.rootDir, subDir, buildFileName)
	src, err := os.ReadFile(buildFile)
	if err != nil {
		return nil, false, nil
	}

	savedSubDirs := w.subDirs
	w.subDirs = []string{subDir}
	defer func() { w.subDirs = savedSubDirs }()

	prog, err := w.compileSource(src, buildFile)
	if err != nil {
		return nil, false, err
	}

	before := len(w.stack)
	subVM := w.NewVM()
	scope := w.GlobalScope()
	_, err = subVM.RunInScope(prog, scope)
	if err != nil {
		return nil, false, err
	}
	if len(w.stack) <= before {
		return nil, false, w.Reporter.Emit(diag.NewUsageError(pos, "subproject '"+name+"' never called project()"))
	}
	proj := w.stack[len(w.stack)-1]
	proj.Scope = scope
	w.PopProject()

	for key, val := range defaultOptions {
		if opt, ok := proj.Options[key]; ok {
			opt.Value = w.Store.String(val)
		}
	}
	w.applyOptionOverrides(proj, name+":")

	return proj, true, nil
}

// ResolveDependency implements dependency()'s C10 state machine entry
// point (spec.md section 4.9), bridging builtins.DependencyRequest to
// the pure resolver.Resolver and turning its outcome (or lack of one)
// into the disabler/not-found/fatal shapes dependency() promises.
func (w *Workspace) ResolveDependency(req builtins.DependencyRequest) (obj.Handle, error) {
	rreq := resolver.Request{
		Names:       req.Names,
		Constraints: splitConstraints(req.Version),
		Static:      req.Static,
		Modules:     req.Modules,
		Machine:     req.Machine,
		Method:      req.Method,
	}

	overrideLookup := func(name string, static bool) (*obj.Dependency, bool) {
		table := w.overrides.DepShared
		if static {
			table = w.overrides.DepStatic
		}
		h, ok := table[name]
		if !ok {
			return nil, false
		}
		return w.Store.GetDependency(h), true
	}

	var fallback resolver.Fallback
	if req.AllowFallback && len(req.Fallback) > 0 {
		subName := req.Fallback[0]
		varName := ""
		if len(req.Fallback) > 1 {
			varName = req.Fallback[1]
		}
		fallback = func(name string, rr resolver.Request) (*obj.Dependency, bool, error) {
			proj, found, err := w.EvalSubproject(ast.Pos{}, subName, req.DefaultOptions)
			if err != nil || !found {
				return nil, false, err
			}
			if ov, ok := overrideLookup(name, req.Static); ok {
				return ov, true, nil
			}
			if varName == "" {
				return nil, false, nil
			}
			h, ok := proj.Scope.Get(varName)
			if !ok || h.Kind() != obj.KindDependency {
				return nil, false, nil
			}
			return w.Store.GetDependency(h), true, nil
		}
	}

	dep, err := w.resolver.Resolve(rreq, overrideLookup, false, fallback)
	if err != nil {
		return obj.None, err
	}

	if dep == nil {
		if req.Disabler {
			return w.Store.Disabler, nil
		}
		if req.Required {
			return obj.None, w.Reporter.Emit(diag.NewDepNotFound(ast.Pos{}, strings.Join(req.Names, ", ")))
		}
		return w.Store.NewDependency(&obj.Dependency{Type: obj.DepNotFound, Found: false, Machine: req.Machine}), nil
	}
	return w.Store.NewDependency(dep), nil
}

func splitConstraints(version string) []string {
	if version == "" {
		return nil
	}
	parts := strings.Split(version, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
