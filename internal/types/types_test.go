package types

import (
	"testing"

	"github.com/muonlang/mbi/internal/obj"
)

func TestTypecheckBasicKind(t *testing.T) {
	s := obj.NewStore()
	h := s.String("hi")
	if !Typecheck(h, TString) {
		t.Fatalf("expected string handle to satisfy TString")
	}
	if Typecheck(h, TNumber) {
		t.Fatalf("string handle should not satisfy TNumber")
	}
}

func TestTypecheckAllowNull(t *testing.T) {
	s := obj.NewStore()
	tag := TString | AllowNull
	if !Typecheck(s.Null, tag) {
		t.Fatalf("expected null to satisfy AllowNull tag")
	}
	if Typecheck(s.Null, TString) {
		t.Fatalf("null should not satisfy a tag without AllowNull")
	}
}

func TestKindNameListsAllBits(t *testing.T) {
	tag := TString | TNumber
	name := tag.KindName()
	if name != "number|string" {
		t.Fatalf("expected 'number|string', got %q", name)
	}
}

func TestTAnyExcludesDisabler(t *testing.T) {
	if TAny.Has(obj.KindDisabler) {
		t.Fatalf("TAny must not include disabler; it short-circuits before Typecheck")
	}
	if !TAny.Has(obj.KindString) || !TAny.Has(obj.KindBuildTarget) {
		t.Fatalf("TAny should include ordinary value kinds")
	}
}
