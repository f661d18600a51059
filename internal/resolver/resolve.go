package resolver

import (
	"strings"

	"github.com/muonlang/mbi/internal/obj"
)

// PkgConfigQuerier is the pkg-config collaborator the system/pkgconfig
// methods consult; shaped identically to builtins.PkgConfigQuerier so a
// Workspace's ExternalCollaborators satisfies both without resolver
// importing builtins.
type PkgConfigQuerier interface {
	Query(name string, static bool) (version string, cflags, libs []string, found bool)
}

// Request is one dependency() call's resolved arguments, the input to
// spec.md section 4.9's state machine.
type Request struct {
	Names       []string
	Constraints []string // version: kwarg, already split on comma
	Static      bool
	Modules     []string
	Machine     obj.MachineKind
	Method      string // "auto" or an explicit method name
}

// Fallback evaluates the wrap-provided subproject for name and returns
// whatever dependency it declared (via declare_dependency +
// meson.override_dependency), or ok=false if the subproject didn't
// provide one. Supplied by internal/workspace, since only it can
// re-enter the VM.
type Fallback func(name string, req Request) (dep *obj.Dependency, ok bool, err error)

// OverrideLookup consults the per-machine dep_overrides_{static,dynamic}
// tables a subproject populates via meson.override_dependency (spec.md
// section 4.9's CheckOverride). Workspace owns the actual tables (they
// store obj.Handle, not *obj.Dependency, since an override can be any
// dependency-kind value including one from declare_dependency), so this
// is a callback rather than a field resolver owns directly.
type OverrideLookup func(name string, static bool) (*obj.Dependency, bool)

// Resolver runs the CheckOverride -> CheckCache -> FallbackForced? ->
// TryMethods -> RunFallback -> NotFound pipeline (spec.md section 4.9)
// for one dependency() call, trying each requested name in order.
type Resolver struct {
	Cache     *Cache
	PkgConfig PkgConfigQuerier
}

func New(pc PkgConfigQuerier) *Resolver {
	return &Resolver{Cache: NewCache(), PkgConfig: pc}
}

var defaultMethodOrder = []string{"pkgconfig", "appleframeworks", "system", "builtin"}

// Resolve runs the state machine. forced selects FallbackForced? —
// spec.md section 4.9 doesn't define what forces it beyond "forced
// fallback"; this implementation treats an explicit fallback: kwarg
// combined with method: "auto" as non-forcing (TryMethods still runs
// first) and reserves forced for a future --wrap-mode=forcefallback CLI
// switch, out of this core's scope.
func (r *Resolver) Resolve(req Request, overrides OverrideLookup, forced bool, fallback Fallback) (*obj.Dependency, error) {
	for _, name := range req.Names {
		key := CacheKey{Name: name, Static: req.Static, Machine: req.Machine}

		if overrides != nil {
			if ov, ok := overrides(name, req.Static); ok {
				return ov, nil
			}
		}

		if cached, ok := r.Cache.Get(key); ok && SatisfiesAll(cached.Version, req.Constraints) {
			return cached, nil
		}

		if !forced {
			if dep, ok := r.tryMethods(name, req); ok {
				r.Cache.Put(key, dep)
				return dep, nil
			}
		}

		if fallback != nil {
			dep, ok, err := fallback(name, req)
			if err != nil {
				return nil, err
			}
			if ok {
				r.Cache.Put(key, dep)
				return dep, nil
			}
		}
	}
	return nil, nil
}

func (r *Resolver) tryMethods(name string, req Request) (*obj.Dependency, bool) {
	methods := defaultMethodOrder
	if req.Method != "" && req.Method != "auto" {
		methods = []string{req.Method}
	}
	for _, m := range methods {
		if dep, ok := r.tryMethod(m, name, req); ok {
			return dep, true
		}
	}
	return nil, false
}

func (r *Resolver) tryMethod(method, name string, req Request) (*obj.Dependency, bool) {
	switch method {
	case "pkgconfig":
		return r.tryPkgConfig(name, req)
	case "appleframeworks":
		return tryAppleFramework(name, req)
	case "system", "builtin":
		return tryBuiltin(name, req)
	default:
		return nil, false
	}
}

func (r *Resolver) tryPkgConfig(name string, req Request) (*obj.Dependency, bool) {
	if r.PkgConfig == nil {
		return nil, false
	}
	ver, cflags, libs, found := r.PkgConfig.Query(name, req.Static)
	if !found || !SatisfiesAll(ver, req.Constraints) {
		return nil, false
	}
	return &obj.Dependency{
		Name: name, Type: obj.DepPkgconf, Found: true, Version: ver,
		Machine: req.Machine, CompileArgs: cflags, LinkArgs: libs,
	}, true
}

// tryAppleFramework recognizes CoreFoundation-style framework names;
// without a Darwin build-machine check (out of this core's scope) it
// only matches names already conventionally capitalized, e.g.
// "CoreFoundation" or "Foundation".
func tryAppleFramework(name string, req Request) (*obj.Dependency, bool) {
	if name == "" || !(name[0] >= 'A' && name[0] <= 'Z') {
		return nil, false
	}
	return &obj.Dependency{
		Name: name, Type: obj.DepAppleFrameworks, Found: true, Version: "undefined",
		Machine: req.Machine, LinkArgs: []string{"-framework", name},
	}, true
}

// builtinDeps names spec.md section 1's toolchain-provided dependencies
// that need no probing: "threads" and the handful of libc-adjacent
// system libraries every C toolchain links implicitly.
var builtinDeps = map[string]struct {
	typ      obj.DependencyType
	linkArgs []string
}{
	"threads": {obj.DepThreads, []string{"-pthread"}},
	"dl":      {obj.DepExternalLibrary, []string{"-ldl"}},
	"m":       {obj.DepExternalLibrary, []string{"-lm"}},
	"rt":      {obj.DepExternalLibrary, []string{"-lrt"}},
}

func tryBuiltin(name string, req Request) (*obj.Dependency, bool) {
	b, ok := builtinDeps[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return &obj.Dependency{
		Name: name, Type: b.typ, Found: true, Version: "undefined",
		Machine: req.Machine, LinkArgs: b.linkArgs,
	}, true
}
