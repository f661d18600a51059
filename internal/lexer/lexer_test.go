package lexer

import "testing"

func allTokens(t *testing.T, src string) []Token {
	t.Helper()
	l := New(Normalize([]byte(src)), "test.build")
	var toks []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("unexpected lex error: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

func TestBracketSuppressesNewline(t *testing.T) {
	toks := allTokens(t, "f(1,\n2)\n")
	var kinds []TokenKind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	// No NEWLINE should appear between the '(' and the matching ')'.
	depth := 0
	for _, tk := range toks {
		switch tk.Kind {
		case LPAREN:
			depth++
		case RPAREN:
			depth--
		case NEWLINE:
			if depth > 0 {
				t.Fatalf("NEWLINE emitted while inside brackets: %v", kinds)
			}
		}
	}
}

func TestLineContinuation(t *testing.T) {
	toks := allTokens(t, "a = 1 + \\\n2\n")
	for _, tk := range toks {
		if tk.Kind == NEWLINE && tk.Pos.Offset < len(("a = 1 + \\\n2")) {
			// the only NEWLINE should be the trailing one after `2`
		}
	}
	count := 0
	for _, tk := range toks {
		if tk.Kind == NEWLINE {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 NEWLINE (continuation suppressed), got %d", count)
	}
}

func TestNumberBases(t *testing.T) {
	cases := map[string]int64{
		"10":   10,
		"0x1F": 31,
		"0o17": 15,
		"0b101": 5,
	}
	for src, want := range cases {
		toks := allTokens(t, src)
		if toks[0].Kind != NUMBER || toks[0].Num != want {
			t.Fatalf("%s: got %v want %d", src, toks[0], want)
		}
	}
}

func TestTripleQuotedStringIsLiteral(t *testing.T) {
	toks := allTokens(t, "'''line1\nline2 \\n'''")
	if toks[0].Kind != STRING {
		t.Fatalf("expected STRING, got %v", toks[0])
	}
	if toks[0].Literal != "line1\nline2 \\n" {
		t.Fatalf("triple-quoted content should be literal, got %q", toks[0].Literal)
	}
}

func TestStringEscapes(t *testing.T) {
	toks := allTokens(t, `'a\nb\tc'`)
	if toks[0].Literal != "a\nb\tc" {
		t.Fatalf("got %q", toks[0].Literal)
	}
}

func TestUnterminatedStringErrors(t *testing.T) {
	l := New(Normalize([]byte("'abc")), "test.build")
	_, err := l.NextToken()
	if err == nil {
		t.Fatalf("expected lex error for unterminated string")
	}
}

func TestUnmatchedClosingBracketErrors(t *testing.T) {
	l := New(Normalize([]byte(")")), "test.build")
	_, err := l.NextToken()
	if err == nil {
		t.Fatalf("expected lex error for unmatched bracket")
	}
}

func TestCommentsSkipped(t *testing.T) {
	toks := allTokens(t, "# comment\nx = 1\n")
	if toks[0].Kind != NEWLINE {
		t.Fatalf("expected leading NEWLINE after skipped comment line, got %v", toks[0])
	}
	if toks[1].Kind != IDENT || toks[1].Literal != "x" {
		t.Fatalf("expected ident x, got %v", toks[1])
	}
}

func TestKeywords(t *testing.T) {
	toks := allTokens(t, "if elif else endif foreach endforeach in and or not true false continue break return")
	want := []TokenKind{KW_IF, KW_ELIF, KW_ELSE, KW_ENDIF, KW_FOREACH, KW_ENDFOREACH, KW_IN, KW_AND, KW_OR, KW_NOT, KW_TRUE, KW_FALSE, KW_CONTINUE, KW_BREAK, KW_RETURN, EOF}
	for i, w := range want {
		if toks[i].Kind != w {
			t.Fatalf("token %d: got %v want %v", i, toks[i].Kind, w)
		}
	}
}

func TestFString(t *testing.T) {
	toks := allTokens(t, "f'hello @name@'")
	if toks[0].Kind != FSTRING || toks[0].Literal != "hello @name@" {
		t.Fatalf("got %v", toks[0])
	}
}
