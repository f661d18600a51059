package diag

import (
	"testing"

	"github.com/muonlang/mbi/internal/ast"
)

func TestResolveLineColumn(t *testing.T) {
	r := NewReporter()
	src := []byte("a = 1\nb = 2\nc = bogus\n")
	r.AddSource("t.build", src)
	rep := NewUnknownVariable(ast.Pos{File: "t.build", Offset: 16}, "bogus")
	r.Resolve(rep)
	if rep.Line != 3 {
		t.Fatalf("expected line 3, got %d", rep.Line)
	}
}

func TestEmitRecordsReportAndWraps(t *testing.T) {
	r := NewReporter()
	err := r.Emit(NewUnknownFunction(ast.Pos{File: "t.build"}, "foo"))
	if err == nil {
		t.Fatalf("expected non-nil error")
	}
	rep, ok := AsReport(err)
	if !ok || rep.Code != "E_UNKNOWN_FUNC" {
		t.Fatalf("expected wrapped E_UNKNOWN_FUNC report, got %+v ok=%v", rep, ok)
	}
	if !r.HasErrors() || len(r.Reports()) != 1 {
		t.Fatalf("expected reporter to record one report")
	}
}

func TestUnresolvedSourceLeavesLineZero(t *testing.T) {
	r := NewReporter()
	rep := NewLexError(ast.Pos{File: "missing.build", Offset: 5}, "bad token")
	r.Resolve(rep)
	if rep.Line != 0 {
		t.Fatalf("expected line 0 for unregistered source, got %d", rep.Line)
	}
}
