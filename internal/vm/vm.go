// Package vm executes a bytecode.Program against a Store, implementing
// the explicit register/stack virtual machine in spec.md section 4.3 —
// the redesign target that replaces a recursive tree-walking evaluator
// (as internal/eval/eval_core.go in the teacher repo does) with a
// switch-dispatch loop over a flat instruction array.
package vm

import (
	"fmt"

	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/bytecode"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
)

// Native is the callback surface the VM uses to dispatch CALL/METHOD_CALL
// instructions that resolve to kernel builtins or module functions,
// rather than a user-defined obj.Func/obj.Capture value. Implemented by
// internal/workspace's Workspace, which owns the registry lookup.
type Native interface {
	CallFunction(v *VM, name string, pos ast.Pos, args []obj.Handle, kw map[string]obj.Handle) (obj.Handle, error)
	CallMethod(v *VM, recv obj.Handle, name string, pos ast.Pos, args []obj.Handle, kw map[string]obj.Handle) (obj.Handle, error)
	// RenderFString evaluates a template against the given scope for
	// interpolation (spec.md section 4.6); defined here rather than
	// inline in the VM so the substitution grammar (@var@ vs python-style
	// f'...') stays an ambient-stack concern owned by Workspace.
	RenderFString(v *VM, template string, lookup func(name string) (obj.Handle, bool)) (string, error)
}

type iterFrame struct {
	container obj.Handle
	keys      []string // populated for dict iteration
	idx       int
}

// frame is one call-frame: its own program (a function literal may live
// in a different compiled unit than its caller once subdir() support
// spans multiple files), instruction pointer, variable scope, and
// foreach iterator stack.
type frame struct {
	prog  *bytecode.Program
	pc    int
	scope *Scope
	iters []iterFrame
}

// VM is the virtual machine for one Workspace evaluation. It owns no
// global state of its own beyond the call-frame stack and operand
// stack; Store, diagnostics, and native dispatch are all supplied by the
// owning Workspace (spec.md section 9's "Workspace as explicit context"
// redesign flag).
type VM struct {
	Store    *obj.Store
	Reporter *diag.Reporter
	Native   Native

	frames []*frame
	stack  []obj.Handle

	// kwargNames maps an absolute operand-stack index to the keyword
	// name OpTagKwarg attached to the value at that position; cleared as
	// CALL/METHOD_CALL consumes the tagged range.
	kwargNames map[int]string
}

func New(store *obj.Store, reporter *diag.Reporter, native Native) *VM {
	return &VM{Store: store, Reporter: reporter, Native: native, kwargNames: make(map[int]string)}
}

func (v *VM) push(h obj.Handle) { v.stack = append(v.stack, h) }

func (v *VM) pop() obj.Handle {
	n := len(v.stack) - 1
	h := v.stack[n]
	v.stack = v.stack[:n]
	delete(v.kwargNames, n)
	return h
}

func (v *VM) top() *frame { return v.frames[len(v.frames)-1] }

// CurrentScope exposes the executing frame's scope to native handlers
// (get_variable()/set_variable()/is_variable()/unset_variable(), spec.md
// section 4.8), which run outside the opcode loop and so have no other
// way to reach it.
func (v *VM) CurrentScope() *Scope { return v.top().scope }

// Run executes the compiled prog starting at instruction 0 in a fresh
// global scope, returning the final TOS value (or obj.None if the
// program halted with an empty stack).
func (v *VM) Run(prog *bytecode.Program) (obj.Handle, error) {
	v.frames = append(v.frames, &frame{prog: prog, scope: NewScope(nil)})
	return v.loop()
}

// RunInScope executes prog reusing an existing scope chain, the
// mechanism subdir()/subproject() re-entry uses to share the enclosing
// project's variables with an included file (spec.md section 4.10).
func (v *VM) RunInScope(prog *bytecode.Program, scope *Scope) (obj.Handle, error) {
	v.frames = append(v.frames, &frame{prog: prog, scope: scope})
	return v.loop()
}

func (v *VM) loop() (obj.Handle, error) {
	baseFrameDepth := len(v.frames) - 1
	for {
		if len(v.frames) <= baseFrameDepth {
			if len(v.stack) == 0 {
				return obj.None, nil
			}
			return v.pop(), nil
		}
		fr := v.top()
		if fr.pc >= len(fr.prog.Code) {
			return obj.None, fmt.Errorf("vm: fell off the end of the instruction stream")
		}
		in := fr.prog.Code[fr.pc]
		fr.pc++

		halt, ret, retVal, err := v.exec(fr, in)
		if err != nil {
			return obj.None, err
		}
		if halt {
			if len(v.frames) == baseFrameDepth+1 {
				if len(v.stack) == 0 {
					return obj.None, nil
				}
				return v.pop(), nil
			}
			v.frames = v.frames[:len(v.frames)-1]
			continue
		}
		if ret {
			v.frames = v.frames[:len(v.frames)-1]
			if len(v.frames) <= baseFrameDepth {
				return retVal, nil
			}
			v.push(retVal)
		}
	}
}

// exec executes a single instruction against fr, the frame at the top of
// v.frames. halt stops the whole Run call (OpHalt at the outermost
// frame); ret pops fr and yields retVal to its caller.
func (v *VM) exec(fr *frame, in bytecode.Instr) (halt, ret bool, retVal obj.Handle, err error) {
	switch in.Op {
	case bytecode.OpConst:
		v.push(obj.Handle(in.A))

	case bytecode.OpFString:
		tmpl := fr.prog.Strings[in.A]
		rendered, rerr := v.Native.RenderFString(v, tmpl, fr.scope.Get)
		if rerr != nil {
			return false, false, obj.None, v.wrapErr(in.Pos, rerr)
		}
		v.push(v.Store.String(rendered))

	case bytecode.OpLoad:
		name := fr.prog.Strings[in.A]
		h, ok := fr.scope.Get(name)
		if !ok {
			return false, false, obj.None, v.Reporter.Emit(diag.NewUnknownVariable(in.Pos, name))
		}
		v.push(h)

	case bytecode.OpStoreLocal:
		h := v.pop()
		fr.scope.Set(fr.prog.Strings[in.A], h)

	case bytecode.OpStoreMember:
		// compileAssign pushes the rvalue first, then the member target's
		// container expression, so the container is on top of stack.
		target := v.pop()
		val := v.pop()
		if err := v.setMember(target, fr.prog.Strings[in.A], val); err != nil {
			return false, false, obj.None, v.wrapErr(in.Pos, err)
		}

	case bytecode.OpPop:
		v.pop()

	case bytecode.OpJump:
		fr.pc = int(in.A)

	case bytecode.OpJumpIfFalse:
		if !v.truthy(v.pop()) {
			fr.pc = int(in.A)
		}

	case bytecode.OpJumpIfTrue:
		if v.truthy(v.pop()) {
			fr.pc = int(in.A)
		}

	case bytecode.OpTagKwarg:
		v.kwargNames[len(v.stack)-1] = fr.prog.Strings[in.A]

	case bytecode.OpNeg:
		h := v.pop()
		if h.Kind() != obj.KindNumber {
			return false, false, obj.None, v.Reporter.Emit(diag.NewArithmeticError(in.Pos, "unary - requires a number"))
		}
		v.push(v.Store.Number(-v.Store.GetNumber(h)))

	case bytecode.OpNot:
		h := v.pop()
		v.push(v.Store.Bool(!v.truthy(h)))

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
		b := v.pop()
		a := v.pop()
		res, aerr := v.arith(in.Op, a, b)
		if aerr != nil {
			return false, false, obj.None, v.Reporter.Emit(diag.NewArithmeticError(in.Pos, aerr.Error()))
		}
		v.push(res)

	case bytecode.OpEq:
		b, a := v.pop(), v.pop()
		v.push(v.Store.Bool(obj.Equal(v.Store, a, b)))
	case bytecode.OpNe:
		b, a := v.pop(), v.pop()
		v.push(v.Store.Bool(!obj.Equal(v.Store, a, b)))
	case bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
		b, a := v.pop(), v.pop()
		res, cerr := v.compare(in.Op, a, b)
		if cerr != nil {
			return false, false, obj.None, v.Reporter.Emit(diag.NewArithmeticError(in.Pos, cerr.Error()))
		}
		v.push(v.Store.Bool(res))

	case bytecode.OpIn, bytecode.OpNotIn:
		b, a := v.pop(), v.pop()
		found, ierr := v.contains(b, a)
		if ierr != nil {
			return false, false, obj.None, v.Reporter.Emit(diag.NewArithmeticError(in.Pos, ierr.Error()))
		}
		if in.Op == bytecode.OpNotIn {
			found = !found
		}
		v.push(v.Store.Bool(found))

	case bytecode.OpBuildArray:
		n := int(in.A)
		elems := append([]obj.Handle(nil), v.stack[len(v.stack)-n:]...)
		v.stack = v.stack[:len(v.stack)-n]
		v.push(v.Store.NewArray(elems...))

	case bytecode.OpBuildDict:
		n := int(in.A)
		start := len(v.stack) - 2*n
		h := v.Store.NewDict()
		d := v.Store.GetDict(h)
		for i := 0; i < n; i++ {
			key := v.stack[start+2*i]
			val := v.stack[start+2*i+1]
			ks, kerr := keyString(v.Store, key)
			if kerr != nil {
				return false, false, obj.None, v.wrapErr(in.Pos, kerr)
			}
			d.Set(ks, val)
		}
		v.stack = v.stack[:start]
		v.push(h)

	case bytecode.OpIndex:
		idx := v.pop()
		container := v.pop()
		res, ierr := v.index(container, idx)
		if ierr != nil {
			return false, false, obj.None, v.wrapErr(in.Pos, ierr)
		}
		v.push(res)

	case bytecode.OpMember:
		container := v.pop()
		res, merr := v.getMember(container, fr.prog.Strings[in.A])
		if merr != nil {
			return false, false, obj.None, v.wrapErr(in.Pos, merr)
		}
		v.push(res)

	case bytecode.OpCall:
		return v.execCall(fr, in)

	case bytecode.OpCallName:
		return v.execCallName(fr, in)

	case bytecode.OpMethodCall:
		return v.execMethodCall(fr, in)

	case bytecode.OpMakeFunc:
		meta := fr.prog.Funcs[in.A]
		f := &obj.Func{Params: meta.Params, Entry: meta.Entry}
		for _, d := range meta.Defaults {
			f.Defaults = append(f.Defaults, obj.Handle(d))
		}
		fh := v.Store.NewFunc(f)
		v.push(v.Store.NewCapture(&obj.Capture{Func: fh, Scopes: scopeDicts(fr.scope)}))

	case bytecode.OpForPrep:
		container := v.pop()
		it, empty, perr := v.newIterFrame(container)
		if perr != nil {
			return false, false, obj.None, v.wrapErr(in.Pos, perr)
		}
		fr.iters = append(fr.iters, it)
		if empty {
			fr.pc = int(in.A)
			return false, false, obj.None, nil
		}

	case bytecode.OpForIter:
		it := &fr.iters[len(fr.iters)-1]
		if it.idx >= iterLen(v.Store, it) {
			fr.pc = int(in.C)
			return false, false, obj.None, nil
		}
		k, val := iterAt(v.Store, it, it.idx)
		it.idx++
		if in.B >= 0 {
			fr.scope.Set(fr.prog.Strings[in.A], v.Store.String(k))
			fr.scope.Set(fr.prog.Strings[in.B], val)
		} else {
			fr.scope.Set(fr.prog.Strings[in.A], val)
		}

	case bytecode.OpForEnd:
		it := fr.iters[len(fr.iters)-1]
		fr.iters = fr.iters[:len(fr.iters)-1]
		v.endIteration(it.container)

	case bytecode.OpRet:
		var rv obj.Handle = v.Store.Null
		if in.A != 0 {
			rv = v.pop()
		}
		return false, true, rv, nil

	case bytecode.OpHalt:
		return true, false, obj.None, nil

	case bytecode.OpPushScope:
		fr.scope = NewScope(fr.scope)
	case bytecode.OpPopScope:
		fr.scope = fr.scope.parent

	default:
		return false, false, obj.None, fmt.Errorf("vm: unimplemented opcode %v at %s", in.Op, in.Pos)
	}
	return false, false, obj.None, nil
}

// ControlSignal marks a sentinel error that represents intentional
// control-flow unwinding out of the instruction loop — e.g. builtins'
// subdir_done() — rather than a diagnostic failure. wrapErr passes these
// through verbatim instead of recording them as a Report, so a caller
// re-entering the VM (RunInScope) can recognize and swallow them without
// the Reporter ever seeing a spurious error.
type ControlSignal interface {
	Unwind()
}

func (v *VM) wrapErr(pos ast.Pos, err error) error {
	if _, ok := err.(ControlSignal); ok {
		return err
	}
	if rep, ok := diag.AsReport(err); ok {
		return v.Reporter.Emit(rep)
	}
	return v.Reporter.Emit(diag.NewArithmeticError(pos, err.Error()))
}

func (v *VM) truthy(h obj.Handle) bool {
	switch h.Kind() {
	case obj.KindBool:
		return v.Store.GetBool(h)
	case obj.KindNull, obj.KindNone:
		return false
	case obj.KindDisabler:
		return false
	default:
		return true
	}
}

func scopeDicts(sc *Scope) []*obj.Dict {
	var out []*obj.Dict
	for s := sc; s != nil; s = s.parent {
		out = append(out, s.vars)
	}
	return out
}

func buildScopeFromDicts(dicts []*obj.Dict) *Scope {
	var sc *Scope
	for i := len(dicts) - 1; i >= 0; i-- {
		sc = &Scope{vars: dicts[i], parent: sc}
	}
	return sc
}

func keyString(s *obj.Store, h obj.Handle) (string, error) {
	if h.Kind() != obj.KindString {
		return "", fmt.Errorf("dict keys must be strings, got %s", h.Kind())
	}
	return s.GetString(h), nil
}
