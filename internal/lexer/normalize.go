package lexer

import (
	"bytes"

	"golang.org/x/text/unicode/norm"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// Normalize performs input normalization at the lexer boundary, run once
// before tokenizing (spec.md section 4.1 operates on "a named byte
// buffer"; this is the step that makes two byte-identical-after-
// normalization sources produce identical token streams regardless of BOM
// or Unicode normal form):
//
//  1. Strips a UTF-8 byte-order mark if present.
//  2. Applies Unicode NFC normalization.
func Normalize(src []byte) []byte {
	src = bytes.TrimPrefix(src, bomUTF8)
	if !norm.NFC.IsNormal(src) {
		src = norm.NFC.Bytes(src)
	}
	return src
}
