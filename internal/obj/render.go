package obj

import (
	"fmt"
	"strconv"
	"strings"
)

// Render produces the canonical string form used by f-string
// interpolation and message()/debug() output. Spec.md section 8's
// "Parse round-trip on literals" property requires this to be stable and
// reparsable for the literal kinds it enumerates.
func Render(s *Store, h Handle) string {
	switch h.Kind() {
	case KindNone, KindNull:
		return "null"
	case KindDisabler:
		return "<disabler>"
	case KindBool:
		if s.GetBool(h) {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatInt(s.GetNumber(h), 10)
	case KindString:
		return s.GetString(h)
	case KindFile:
		return s.GetFile(h)
	case KindFeatureOpt:
		return s.GetFeatureOpt(h).String()
	case KindArray:
		a := s.GetArray(h)
		parts := make([]string, len(a.Elems))
		for i, e := range a.Elems {
			parts[i] = quoteIfString(s, e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindDict:
		d := s.GetDict(h)
		parts := make([]string, 0, d.Len())
		d.Each(func(k string, v Handle) {
			parts = append(parts, fmt.Sprintf("%q: %s", k, quoteIfString(s, v)))
		})
		return "{" + strings.Join(parts, ", ") + "}"
	case KindBuildTarget:
		return fmt.Sprintf("<build_target %s>", s.GetBuildTarget(h).Name)
	case KindCustomTarget:
		return fmt.Sprintf("<custom_target %s>", s.GetCustomTarget(h).Name)
	case KindDependency:
		return fmt.Sprintf("<dependency %s>", s.GetDependency(h).Name)
	default:
		return fmt.Sprintf("<%s>", h.Kind())
	}
}

func quoteIfString(s *Store, h Handle) string {
	if h.Kind() == KindString {
		return strconv.Quote(s.GetString(h))
	}
	return Render(s, h)
}
