package builtins

import (
	"github.com/muonlang/mbi/internal/obj"
	"github.com/muonlang/mbi/internal/types"
)

// stringsOf flattens h (a string, or an array of strings) into a []string,
// the shape most kwarg lists (c_args, link_args, suite, ...) take once
// Listify has already wrapped a bare scalar into a one-element array.
func stringsOf(s *obj.Store, h obj.Handle) []string {
	if h.IsNone() || h.Kind() == obj.KindNull {
		return nil
	}
	if h.Kind() == obj.KindArray {
		arr := s.GetArray(h)
		out := make([]string, 0, arr.Len())
		for _, e := range arr.Elems {
			out = append(out, obj.Render(s, e))
		}
		return out
	}
	return []string{obj.Render(s, h)}
}

// handlesOf flattens h into a []obj.Handle the same way stringsOf
// flattens to strings, for kwargs whose elements stay object handles
// (dependencies, include_directories, link_with, ...).
func handlesOf(s *obj.Store, h obj.Handle) []obj.Handle {
	if h.IsNone() || h.Kind() == obj.KindNull {
		return nil
	}
	if h.Kind() == obj.KindArray {
		return append([]obj.Handle(nil), s.GetArray(h).Elems...)
	}
	return []obj.Handle{h}
}

func boolOf(s *obj.Store, h obj.Handle, def bool) bool {
	if h.IsNone() || h.Kind() != obj.KindBool {
		return def
	}
	return s.GetBool(h)
}

func stringOf(s *obj.Store, h obj.Handle, def string) string {
	if h.IsNone() || h.Kind() != obj.KindString {
		return def
	}
	return s.GetString(h)
}

func intOf(s *obj.Store, h obj.Handle, def int64) int64 {
	if h.IsNone() || h.Kind() != obj.KindNumber {
		return def
	}
	return s.GetNumber(h)
}

func machineOf(s *obj.Store, bound *types.Bound, key string) obj.MachineKind {
	h := bound.Get(key)
	if h.Kind() == obj.KindBool && s.GetBool(h) {
		return obj.MachineBuild
	}
	return obj.MachineHost
}
