package types

import (
	"fmt"
	"path/filepath"

	"github.com/muonlang/mbi/internal/obj"
)

// CoerceString requires h to already be a string; unlike the other
// coercions this performs no conversion since every kind's canonical
// text form goes through obj.Render instead.
func CoerceString(s *obj.Store, h obj.Handle) (string, error) {
	if h.Kind() != obj.KindString {
		return "", fmt.Errorf("expected string, got %s", h.Kind())
	}
	return s.GetString(h), nil
}

// CoerceFile accepts a string (interpreted as a path relative to
// baseDir) or an existing obj.File handle, per spec.md section 4.5's
// file-argument coercion rule.
func CoerceFile(s *obj.Store, h obj.Handle, baseDir string) (obj.Handle, error) {
	switch h.Kind() {
	case obj.KindFile:
		return h, nil
	case obj.KindString:
		p := s.GetString(h)
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		return s.File(p), nil
	default:
		return obj.None, fmt.Errorf("cannot coerce %s to file", h.Kind())
	}
}

// CoerceEnvironment accepts an existing obj.Environment, or a dict/array
// of "KEY=VALUE" strings which is converted into a fresh Environment
// carrying only "set" ops, per spec.md section 4.8's environment()
// builtin.
func CoerceEnvironment(s *obj.Store, h obj.Handle) (obj.Handle, error) {
	switch h.Kind() {
	case obj.KindEnvironment:
		return h, nil
	case obj.KindDict:
		d := s.GetDict(h)
		env := &obj.Environment{}
		d.Each(func(key string, v obj.Handle) {
			env.Ops = append(env.Ops, obj.EnvOp{Kind: "set", Key: key, Values: []string{obj.Render(s, v)}})
		})
		return s.NewEnvironment(env), nil
	case obj.KindArray:
		arr := s.GetArray(h)
		env := &obj.Environment{}
		for _, elem := range arr.Elems {
			line, err := CoerceString(s, elem)
			if err != nil {
				return obj.None, fmt.Errorf("environment array element: %w", err)
			}
			key, value := splitKeyValue(line)
			env.Ops = append(env.Ops, obj.EnvOp{Kind: "set", Key: key, Values: []string{value}})
		}
		return s.NewEnvironment(env), nil
	default:
		return obj.None, fmt.Errorf("cannot coerce %s to environment", h.Kind())
	}
}

func splitKeyValue(line string) (string, string) {
	for i := 0; i < len(line); i++ {
		if line[i] == '=' {
			return line[:i], line[i+1:]
		}
	}
	return line, ""
}

// CoerceLinkable validates h is one of the kinds that may appear in a
// link_with-style argument list (TLinkable union, defined in types.go).
func CoerceLinkable(h obj.Handle) error {
	if !Typecheck(h, TLinkable) {
		return fmt.Errorf("expected a linkable target, got %s", h.Kind())
	}
	return nil
}
