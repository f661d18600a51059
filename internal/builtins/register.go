package builtins

import "github.com/muonlang/mbi/internal/registry"

// Install wires every builtin in this package into r's kernel and
// method tables (spec.md section 4.8). Called once by the Workspace
// that owns r, before evaluating any build file.
func Install(r *registry.Registry) {
	registerProject(r)
	registerTargets(r)
	registerDependency(r)
	registerSubproject(r)
	registerConfigureFile(r)
	registerCustomTarget(r)
	registerInstall(r)
	registerTest(r)
	registerOptions(r)
	registerEnv(r)
	registerFindProgram(r)
	registerUtil(r)
}
