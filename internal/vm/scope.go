package vm

import "github.com/muonlang/mbi/internal/obj"

// Scope is one link in the variable-resolution chain (spec.md section
// 4.4's explicit Workspace/scope design, replacing a single global
// symbol table with an addressable chain the VM can push/pop around
// function calls).
type Scope struct {
	vars   *obj.Dict
	parent *Scope
}

func NewScope(parent *Scope) *Scope {
	return &Scope{vars: obj.NewDict(), parent: parent}
}

// Get walks outward from this scope until name is found.
func (sc *Scope) Get(name string) (obj.Handle, bool) {
	for s := sc; s != nil; s = s.parent {
		if h, ok := s.vars.Get(name); ok {
			return h, true
		}
	}
	return obj.None, false
}

// Set rebinds name wherever it already exists in the chain, or declares
// it fresh in this (innermost) scope if it's new anywhere in the chain.
// This matches Meson's assignment semantics: there is no shadowing
// declaration form distinct from plain assignment.
func (sc *Scope) Set(name string, h obj.Handle) {
	for s := sc; s != nil; s = s.parent {
		if _, ok := s.vars.Get(name); ok {
			s.vars.Set(name, h)
			return
		}
	}
	sc.vars.Set(name, h)
}

// Unset removes name wherever it exists in the chain (spec.md section
// 4.8's unset_variable()).
func (sc *Scope) Unset(name string) {
	for s := sc; s != nil; s = s.parent {
		if _, ok := s.vars.Get(name); ok {
			s.vars.Delete(name)
			return
		}
	}
}

// Bindings returns every name visible from this scope, innermost wins on
// name collision (used for get_variables()-style introspection).
func (sc *Scope) Bindings() map[string]obj.Handle {
	out := make(map[string]obj.Handle)
	chain := []*Scope{}
	for s := sc; s != nil; s = s.parent {
		chain = append(chain, s)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		chain[i].vars.Each(func(k string, v obj.Handle) {
			out[k] = v
		})
	}
	return out
}
