package workspace

import (
	"regexp"

	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/vm"
)

var fstringVar = regexp.MustCompile(`@(\w+)@`)

// RenderFString implements f'...@var@...' interpolation (spec.md section
// 4.6): @name@ is replaced by the canonical rendering of whatever lookup
// resolves name to. An unresolved name is a fatal UnknownVariable, the
// same diagnostic plain identifier evaluation raises. The caller
// (vm.exec's OpFString case) wraps and emits whatever error comes back,
// so this returns the bare *diag.Report error rather than calling
// Reporter.Emit itself.
func (w *Workspace) RenderFString(v *vm.VM, template string, lookup func(name string) (obj.Handle, bool)) (string, error) {
	var outerErr error
	result := fstringVar.ReplaceAllStringFunc(template, func(match string) string {
		if outerErr != nil {
			return match
		}
		name := match[1 : len(match)-1]
		h, ok := lookup(name)
		if !ok {
			outerErr = diag.Wrap(diag.NewUnknownVariable(ast.Pos{}, name))
			return match
		}
		return obj.Render(v.Store, h)
	})
	if outerErr != nil {
		return "", outerErr
	}
	return result, nil
}
