package vm

import (
	"fmt"

	"github.com/muonlang/mbi/internal/bytecode"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
)

// popArgsWithKwargs pops n operand-stack values, splitting them into
// positional and keyword arguments using the tags OpTagKwarg left behind
// at their absolute stack positions.
func (v *VM) popArgsWithKwargs(n int) ([]obj.Handle, map[string]obj.Handle) {
	start := len(v.stack) - n
	var pos []obj.Handle
	kw := make(map[string]obj.Handle)
	for i := start; i < len(v.stack); i++ {
		if name, ok := v.kwargNames[i]; ok {
			kw[name] = v.stack[i]
			delete(v.kwargNames, i)
		} else {
			pos = append(pos, v.stack[i])
		}
	}
	v.stack = v.stack[:start]
	return pos, kw
}

func (v *VM) execCall(fr *frame, in bytecode.Instr) (halt, ret bool, retVal obj.Handle, err error) {
	n := int(in.A)
	args, kw := v.popArgsWithKwargs(n)
	callee := v.pop()
	return v.invoke(fr, callee, "", in, args, kw)
}

func (v *VM) execCallName(fr *frame, in bytecode.Instr) (halt, ret bool, retVal obj.Handle, err error) {
	n := int(in.A)
	args, kw := v.popArgsWithKwargs(n)
	name := fr.prog.Strings[in.B]

	if h, ok := fr.scope.Get(name); ok && (h.Kind() == obj.KindFunc || h.Kind() == obj.KindCapture) {
		return v.invoke(fr, h, name, in, args, kw)
	}

	res, cerr := v.Native.CallFunction(v, name, in.Pos, args, kw)
	if cerr != nil {
		return false, false, obj.None, v.wrapErr(in.Pos, cerr)
	}
	v.push(res)
	return false, false, obj.None, nil
}

func (v *VM) execMethodCall(fr *frame, in bytecode.Instr) (halt, ret bool, retVal obj.Handle, err error) {
	n := int(in.A)
	args, kw := v.popArgsWithKwargs(n)
	recv := v.pop()
	name := fr.prog.Strings[in.B]

	res, merr := v.Native.CallMethod(v, recv, name, in.Pos, args, kw)
	if merr != nil {
		return false, false, obj.None, v.wrapErr(in.Pos, merr)
	}
	v.push(res)
	return false, false, obj.None, nil
}

// invoke calls a user-defined obj.Func or obj.Capture value by pushing a
// fresh frame sharing this VM's frame stack; the outer loop() drains it
// like any other frame rather than recursing in Go, so deeply nested
// Meson function calls don't grow the Go call stack.
func (v *VM) invoke(fr *frame, callee obj.Handle, fnName string, in bytecode.Instr, args []obj.Handle, kw map[string]obj.Handle) (halt, ret bool, retVal obj.Handle, err error) {
	var f *obj.Func
	var callScope *Scope
	switch callee.Kind() {
	case obj.KindFunc:
		f = v.Store.GetFunc(callee)
		callScope = NewScope(nil)
	case obj.KindCapture:
		cap := v.Store.GetCapture(callee)
		f = v.Store.GetFunc(cap.Func)
		callScope = buildScopeFromDicts(cap.Scopes)
		callScope = NewScope(callScope)
	default:
		label := fnName
		if label == "" {
			label = callee.Kind().String()
		}
		return false, false, obj.None, v.Reporter.Emit(diag.NewUnknownFunction(in.Pos, label))
	}

	bound, ferr := bindParams(v.Store, f, args, kw)
	if ferr != nil {
		return false, false, obj.None, v.wrapErr(in.Pos, ferr)
	}
	for name, h := range bound {
		callScope.Set(name, h)
	}

	v.frames = append(v.frames, &frame{prog: fr.prog, pc: f.Entry, scope: callScope})
	return false, false, obj.None, nil
}

func bindParams(s *obj.Store, f *obj.Func, args []obj.Handle, kw map[string]obj.Handle) (map[string]obj.Handle, error) {
	bound := make(map[string]obj.Handle, len(f.Params))
	for i, name := range f.Params {
		if i < len(args) {
			bound[name] = args[i]
			continue
		}
		if v, ok := kw[name]; ok {
			bound[name] = v
			continue
		}
		if i < len(f.Defaults) && !f.Defaults[i].IsNone() {
			bound[name] = f.Defaults[i]
			continue
		}
		fn := f.Name
		if fn == "" {
			fn = "<anonymous function>"
		}
		return nil, fmt.Errorf("missing required argument '%s' to %s", name, fn)
	}
	return bound, nil
}
