package types

import (
	"testing"

	"github.com/muonlang/mbi/internal/ast"
	"github.com/muonlang/mbi/internal/obj"
)

func TestPopArgsMissingRequired(t *testing.T) {
	s := obj.NewStore()
	sig := Signature{
		Name:     "executable",
		Required: []Formal{{Name: "name", Tag: TString}},
	}
	_, disabled, err := PopArgs(s, ast.Pos{}, sig, nil, nil, nil, nil)
	if disabled {
		t.Fatalf("did not expect disabler short-circuit")
	}
	if err == nil {
		t.Fatalf("expected missing-argument error")
	}
}

func TestPopArgsDisablerShortCircuits(t *testing.T) {
	s := obj.NewStore()
	sig := Signature{Name: "executable", Required: []Formal{{Name: "name", Tag: TString}}}
	pos := []obj.Handle{s.Disabler}
	posPos := []ast.Pos{{}}
	_, disabled, err := PopArgs(s, ast.Pos{}, sig, pos, posPos, nil, nil)
	if !disabled {
		t.Fatalf("expected disabler short-circuit")
	}
	if err != nil {
		t.Fatalf("expected nil error on short-circuit, got %v", err)
	}
}

func TestPopArgsOptionalKwargDefault(t *testing.T) {
	s := obj.NewStore()
	sig := Signature{
		Name: "executable",
		Kwargs: []Formal{
			{Name: "install", Tag: TBool, Required: false, Default: s.Bool(false)},
		},
	}
	bound, disabled, err := PopArgs(s, ast.Pos{}, sig, nil, nil, map[string]obj.Handle{}, map[string]ast.Pos{})
	if disabled || err != nil {
		t.Fatalf("unexpected disabled=%v err=%v", disabled, err)
	}
	if bound.IsSet("install") {
		t.Fatalf("install should not be marked set when caller omitted it")
	}
	if bound.Get("install") != s.False {
		t.Fatalf("expected default false for install")
	}
}

func TestPopArgsRejectsUnknownKwarg(t *testing.T) {
	s := obj.NewStore()
	sig := Signature{Name: "executable"}
	kw := map[string]obj.Handle{"bogus": s.True}
	kwPos := map[string]ast.Pos{"bogus": {}}
	_, disabled, err := PopArgs(s, ast.Pos{}, sig, nil, nil, kw, kwPos)
	if disabled {
		t.Fatalf("did not expect disabler short-circuit")
	}
	if err == nil {
		t.Fatalf("expected invalid-kwarg error")
	}
}

func TestPopArgsGlobCollectsRemaining(t *testing.T) {
	s := obj.NewStore()
	sig := Signature{
		Name:     "message",
		Optional: []Formal{{Name: "args", Tag: TAny | Glob}},
	}
	pos := []obj.Handle{s.String("a"), s.String("b"), s.String("c")}
	posPos := []ast.Pos{{}, {}, {}}
	bound, disabled, err := PopArgs(s, ast.Pos{}, sig, pos, posPos, nil, nil)
	if disabled || err != nil {
		t.Fatalf("unexpected disabled=%v err=%v", disabled, err)
	}
	arr := s.GetArray(bound.Get("args"))
	if arr.Len() != 3 {
		t.Fatalf("expected 3 collected args, got %d", arr.Len())
	}
}
