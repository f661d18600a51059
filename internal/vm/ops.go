package vm

import (
	"fmt"

	"github.com/muonlang/mbi/internal/bytecode"
	"github.com/muonlang/mbi/internal/obj"
)

func (v *VM) arith(op bytecode.Op, a, b obj.Handle) (obj.Handle, error) {
	// Array append/concat is checked before the string case: a bare value
	// appended to an array (e.g. sources + 'extra.c') has a string b but
	// isn't string concatenation.
	if a.Kind() == obj.KindArray && op == bytecode.OpAdd {
		aa := v.Store.GetArray(a)
		elems := append([]obj.Handle(nil), aa.Elems...)
		if b.Kind() == obj.KindArray {
			elems = append(elems, v.Store.GetArray(b).Elems...)
		} else {
			elems = append(elems, b)
		}
		return v.Store.NewArray(elems...), nil
	}
	if a.Kind() == obj.KindString || b.Kind() == obj.KindString {
		return v.arithString(op, a, b)
	}
	if a.Kind() != obj.KindNumber || b.Kind() != obj.KindNumber {
		return obj.None, fmt.Errorf("arithmetic requires numbers, got %s and %s", a.Kind(), b.Kind())
	}
	x, y := v.Store.GetNumber(a), v.Store.GetNumber(b)
	switch op {
	case bytecode.OpAdd:
		return v.Store.Number(x + y), nil
	case bytecode.OpSub:
		return v.Store.Number(x - y), nil
	case bytecode.OpMul:
		return v.Store.Number(x * y), nil
	case bytecode.OpDiv:
		if y == 0 {
			return obj.None, fmt.Errorf("division by zero")
		}
		return v.Store.Number(x / y), nil
	case bytecode.OpMod:
		if y == 0 {
			return obj.None, fmt.Errorf("modulo by zero")
		}
		return v.Store.Number(x % y), nil
	default:
		return obj.None, fmt.Errorf("unsupported arithmetic op %v", op)
	}
}

func (v *VM) arithString(op bytecode.Op, a, b obj.Handle) (obj.Handle, error) {
	if op != bytecode.OpAdd {
		return obj.None, fmt.Errorf("operator %v does not apply to strings", op)
	}
	if a.Kind() != obj.KindString || b.Kind() != obj.KindString {
		return obj.None, fmt.Errorf("string concatenation requires two strings, got %s and %s", a.Kind(), b.Kind())
	}
	return v.Store.String(v.Store.GetString(a) + v.Store.GetString(b)), nil
}

func (v *VM) compare(op bytecode.Op, a, b obj.Handle) (bool, error) {
	if a.Kind() == obj.KindNumber && b.Kind() == obj.KindNumber {
		x, y := v.Store.GetNumber(a), v.Store.GetNumber(b)
		return numCompare(op, x, y), nil
	}
	if a.Kind() == obj.KindString && b.Kind() == obj.KindString {
		x, y := v.Store.GetString(a), v.Store.GetString(b)
		switch op {
		case bytecode.OpLt:
			return x < y, nil
		case bytecode.OpLe:
			return x <= y, nil
		case bytecode.OpGt:
			return x > y, nil
		case bytecode.OpGe:
			return x >= y, nil
		}
	}
	return false, fmt.Errorf("cannot compare %s and %s", a.Kind(), b.Kind())
}

func numCompare(op bytecode.Op, x, y int64) bool {
	switch op {
	case bytecode.OpLt:
		return x < y
	case bytecode.OpLe:
		return x <= y
	case bytecode.OpGt:
		return x > y
	case bytecode.OpGe:
		return x >= y
	default:
		return false
	}
}

func (v *VM) contains(container, needle obj.Handle) (bool, error) {
	switch container.Kind() {
	case obj.KindArray:
		for _, e := range v.Store.GetArray(container).Elems {
			if obj.Equal(v.Store, e, needle) {
				return true, nil
			}
		}
		return false, nil
	case obj.KindDict:
		if needle.Kind() != obj.KindString {
			return false, fmt.Errorf("'in' on a dict requires a string key")
		}
		_, ok := v.Store.GetDict(container).Get(v.Store.GetString(needle))
		return ok, nil
	case obj.KindString:
		if needle.Kind() != obj.KindString {
			return false, fmt.Errorf("'in' on a string requires a string operand")
		}
		return contains(v.Store.GetString(container), v.Store.GetString(needle)), nil
	default:
		return false, fmt.Errorf("'in' does not apply to %s", container.Kind())
	}
}

func contains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func (v *VM) index(container, idx obj.Handle) (obj.Handle, error) {
	switch container.Kind() {
	case obj.KindArray:
		arr := v.Store.GetArray(container)
		if idx.Kind() != obj.KindNumber {
			return obj.None, fmt.Errorf("array index must be a number")
		}
		i := int(v.Store.GetNumber(idx))
		if i < 0 {
			i += arr.Len()
		}
		if i < 0 || i >= arr.Len() {
			return obj.None, fmt.Errorf("array index %d out of bounds (length %d)", i, arr.Len())
		}
		return arr.Elems[i], nil
	case obj.KindDict:
		if idx.Kind() != obj.KindString {
			return obj.None, fmt.Errorf("dict index must be a string")
		}
		d := v.Store.GetDict(container)
		val, ok := d.Get(v.Store.GetString(idx))
		if !ok {
			return obj.None, fmt.Errorf("dict has no key %q", v.Store.GetString(idx))
		}
		return val, nil
	case obj.KindString:
		if idx.Kind() != obj.KindNumber {
			return obj.None, fmt.Errorf("string index must be a number")
		}
		s := v.Store.GetString(container)
		i := int(v.Store.GetNumber(idx))
		if i < 0 {
			i += len(s)
		}
		if i < 0 || i >= len(s) {
			return obj.None, fmt.Errorf("string index %d out of bounds (length %d)", i, len(s))
		}
		return v.Store.String(string(s[i])), nil
	default:
		return obj.None, fmt.Errorf("%s is not indexable", container.Kind())
	}
}

func (v *VM) getMember(container obj.Handle, name string) (obj.Handle, error) {
	if container.Kind() == obj.KindModule {
		mod := v.Store.GetModule(container)
		h, ok := mod.Exports.Get(name)
		if !ok {
			return obj.None, fmt.Errorf("module %s has no export %q", mod.Name, name)
		}
		return h, nil
	}
	return obj.None, fmt.Errorf("%s has no member %q", container.Kind(), name)
}

func (v *VM) setMember(container obj.Handle, name string, val obj.Handle) error {
	if container.Kind() != obj.KindModule {
		return fmt.Errorf("cannot set member %q on %s", name, container.Kind())
	}
	v.Store.GetModule(container).Exports.Set(name, val)
	return nil
}
