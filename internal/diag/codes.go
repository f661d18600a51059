package diag

import "github.com/muonlang/mbi/internal/ast"

// Phase names group diagnostics by the pipeline stage that raised them,
// matching spec.md section 7's phase list.
const (
	PhaseLex      = "lex"
	PhaseParse    = "parse"
	PhaseType     = "type"
	PhaseEval     = "eval"
	PhaseResolve  = "resolve"
	PhaseIO       = "io"
	PhaseUsage    = "usage"
)

func NewLexError(pos ast.Pos, msg string) *Report {
	return New("E_LEX", PhaseLex, msg, pos)
}

func NewParseError(pos ast.Pos, msg string) *Report {
	return New("E_PARSE", PhaseParse, msg, pos)
}

func NewTypeError(pos ast.Pos, msg string) *Report {
	return New("E_TYPE", PhaseType, msg, pos)
}

func NewInvalidKwarg(pos ast.Pos, fn, name string) *Report {
	return New("E_INVALID_KWARG", PhaseType, "unexpected keyword argument '"+name+"' to "+fn, pos).
		WithData("func", fn).WithData("kwarg", name)
}

func NewDuplicateKwarg(pos ast.Pos, fn, name string) *Report {
	return New("E_DUPLICATE_KWARG", PhaseType, "duplicate keyword argument '"+name+"' to "+fn, pos).
		WithData("func", fn).WithData("kwarg", name)
}

func NewMissingArg(pos ast.Pos, fn, name string) *Report {
	return New("E_MISSING_ARG", PhaseType, "missing required argument '"+name+"' to "+fn, pos).
		WithData("func", fn).WithData("arg", name)
}

func NewReturnTypeMismatch(pos ast.Pos, fn, want, got string) *Report {
	return New("E_RETURN_TYPE", PhaseType, "function "+fn+" returned "+got+", expected "+want, pos).
		WithData("func", fn).WithData("want", want).WithData("got", got)
}

func NewUnknownVariable(pos ast.Pos, name string) *Report {
	return New("E_UNKNOWN_VAR", PhaseEval, "unknown variable '"+name+"'", pos).WithData("name", name)
}

func NewUnknownFunction(pos ast.Pos, name string) *Report {
	return New("E_UNKNOWN_FUNC", PhaseEval, "unknown function '"+name+"'", pos).WithData("name", name)
}

func NewUnknownMethod(pos ast.Pos, kind, name string) *Report {
	return New("E_UNKNOWN_METHOD", PhaseEval, "unknown method '"+name+"' on "+kind, pos).
		WithData("kind", kind).WithData("name", name)
}

func NewUnknownModule(pos ast.Pos, name string) *Report {
	return New("E_UNKNOWN_MODULE", PhaseEval, "unknown module '"+name+"'", pos).WithData("name", name)
}

func NewArithmeticError(pos ast.Pos, msg string) *Report {
	return New("E_ARITHMETIC", PhaseEval, msg, pos)
}

func NewBoundsError(pos ast.Pos, idx, length int) *Report {
	return New("E_BOUNDS", PhaseEval, "index out of bounds", pos).
		WithData("index", idx).WithData("length", length)
}

func NewCoercionError(pos ast.Pos, want, got string) *Report {
	return New("E_COERCION", PhaseType, "cannot use "+got+" as "+want, pos).
		WithData("want", want).WithData("got", got)
}

func NewOptionValidation(pos ast.Pos, name, msg string) *Report {
	return New("E_OPTION", PhaseResolve, "option '"+name+"': "+msg, pos).WithData("option", name)
}

func NewDepNotFound(pos ast.Pos, name string) *Report {
	return New("E_DEP_NOT_FOUND", PhaseResolve, "dependency '"+name+"' not found", pos).WithData("name", name)
}

func NewVersionMismatch(pos ast.Pos, name, want, got string) *Report {
	return New("E_VERSION_MISMATCH", PhaseResolve, "dependency '"+name+"' version "+got+" does not satisfy "+want, pos).
		WithData("name", name).WithData("want", want).WithData("got", got)
}

func NewMachineMismatch(pos ast.Pos, msg string) *Report {
	return New("E_MACHINE_MISMATCH", PhaseResolve, msg, pos)
}

func NewCircularSubproject(pos ast.Pos, chain []string) *Report {
	msg := "circular subproject reference"
	return New("E_CIRCULAR_SUBPROJECT", PhaseResolve, msg, pos).WithData("chain", chain)
}

func NewIOError(pos ast.Pos, msg string) *Report {
	return New("E_IO", PhaseIO, msg, pos)
}

func NewUsageError(pos ast.Pos, msg string) *Report {
	return New("E_USAGE", PhaseUsage, msg, pos)
}

// NewUserError reports a build file's own assert()/error() call, kept
// distinct from E_USAGE so a backend can tell interpreter-raised usage
// mistakes apart from the project author's own deliberate failure.
func NewUserError(pos ast.Pos, msg string) *Report {
	return New("E_USER", PhaseUsage, msg, pos)
}
