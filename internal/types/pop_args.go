package types

import (
	"fmt"

	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/obj"
)

// Formal describes one parameter of a native function signature.
type Formal struct {
	Name     string
	Tag      TypeTag
	Required bool // only meaningful for kwargs and the leading positionals
	Default  obj.Handle
}

// Signature is a native function's full parameter contract, matching the
// "required positional -> optional positional -> kwargs" shape spec.md
// section 4.5 specifies for pop_args. A trailing optional positional
// whose Tag carries the Glob flag greedily consumes every remaining
// positional argument instead of binding just one.
type Signature struct {
	Name       string
	Required   []Formal
	Optional   []Formal
	Kwargs     []Formal
	AllowExtra bool // module/plugin functions that intentionally ignore unknown kwargs
}

// Bound is the result of a successful PopArgs call: every formal's value,
// looked up by name.
type Bound struct {
	Values map[string]obj.Handle
	Set    map[string]bool // true if the caller supplied this value explicitly
}

func (b *Bound) Get(name string) obj.Handle {
	return b.Values[name]
}

func (b *Bound) IsSet(name string) bool {
	return b.Set[name]
}

// PopArgs binds positional and keyword call arguments against sig,
// following spec.md section 4.5's fixed order: required positionals,
// then optional positionals (last one Glob-greedy if flagged), then
// kwargs. If any supplied argument handle is the disabler sentinel,
// PopArgs short-circuits and returns (nil, true, nil) per the disabler
// short-circuit rule — callers must check the bool before treating a nil
// error as success.
func PopArgs(
	s *obj.Store,
	callPos ast.Pos,
	sig Signature,
	pos []obj.Handle,
	posPos []ast.Pos,
	kw map[string]obj.Handle,
	kwPos map[string]ast.Pos,
) (bound *Bound, disabled bool, err error) {
	for _, h := range pos {
		if h.Kind() == obj.KindDisabler {
			return nil, true, nil
		}
	}
	for _, h := range kw {
		if h.Kind() == obj.KindDisabler {
			return nil, true, nil
		}
	}

	bound = &Bound{Values: make(map[string]obj.Handle), Set: make(map[string]bool)}
	idx := 0

	for _, f := range sig.Required {
		if idx >= len(pos) {
			return nil, false, diag.Wrap(diag.NewMissingArg(callPos, sig.Name, f.Name))
		}
		h := pos[idx]
		p := posPos[idx]
		if !Typecheck(h, f.Tag) {
			return nil, false, diag.Wrap(diag.NewTypeError(p, argTypeMsg(sig.Name, f, h)))
		}
		bound.Values[f.Name] = h
		bound.Set[f.Name] = true
		idx++
	}

	for i, f := range sig.Optional {
		last := i == len(sig.Optional)-1
		if last && f.Tag.glob() {
			var rest []obj.Handle
			for ; idx < len(pos); idx++ {
				h := pos[idx]
				if !Typecheck(h, f.Tag) {
					return nil, false, diag.Wrap(diag.NewTypeError(posPos[idx], argTypeMsg(sig.Name, f, h)))
				}
				rest = append(rest, h)
			}
			arr := s.NewArray(rest...)
			bound.Values[f.Name] = arr
			bound.Set[f.Name] = len(rest) > 0
			continue
		}
		if idx >= len(pos) {
			bound.Values[f.Name] = f.Default
			continue
		}
		h := pos[idx]
		p := posPos[idx]
		if f.Tag.listify() && h.Kind() != obj.KindArray {
			h = s.NewArray(h)
		}
		if !Typecheck(h, f.Tag) && !(f.Tag.listify() && h.Kind() == obj.KindArray) {
			return nil, false, diag.Wrap(diag.NewTypeError(p, argTypeMsg(sig.Name, f, h)))
		}
		bound.Values[f.Name] = h
		bound.Set[f.Name] = true
		idx++
	}

	if idx < len(pos) {
		return nil, false, diag.Wrap(diag.NewInvalidKwarg(posPos[idx], sig.Name, "<extra positional argument>"))
	}

	allowed := make(map[string]Formal, len(sig.Kwargs))
	for _, f := range sig.Kwargs {
		allowed[f.Name] = f
	}
	for name, h := range kw {
		f, ok := allowed[name]
		if !ok {
			if sig.AllowExtra {
				bound.Values[name] = h
				bound.Set[name] = true
				continue
			}
			return nil, false, diag.Wrap(diag.NewInvalidKwarg(kwPos[name], sig.Name, name))
		}
		p := kwPos[name]
		if f.Tag.listify() && h.Kind() != obj.KindArray {
			h = s.NewArray(h)
		}
		if !Typecheck(h, f.Tag) {
			return nil, false, diag.Wrap(diag.NewTypeError(p, argTypeMsg(sig.Name, f, h)))
		}
		bound.Values[name] = h
		bound.Set[name] = true
	}
	for _, f := range sig.Kwargs {
		if _, ok := bound.Values[f.Name]; ok {
			continue
		}
		if f.Required {
			return nil, false, diag.Wrap(diag.NewMissingArg(callPos, sig.Name, f.Name))
		}
		bound.Values[f.Name] = f.Default
	}

	return bound, false, nil
}

func argTypeMsg(fn string, f Formal, h obj.Handle) string {
	return fmt.Sprintf("argument '%s' to %s: expected %s, got %s", f.Name, fn, f.Tag.KindName(), h.Kind())
}
