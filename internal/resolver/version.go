// Package resolver implements the dependency and subproject resolution
// state machine of spec.md section 4.9/4.10 (component C10): override
// lookup, cache consultation, the pkg-config/apple-frameworks/system/
// builtin method sequence, wrap-file parsing, and circular-subproject
// detection. It knows nothing about the VM or the object arena beyond
// obj.Dependency/obj.MachineKind — evaluating a fallback subproject's
// build file is the caller's job (internal/workspace), since only the
// workspace can re-enter the VM.
//
// Grounded on original_source's src/functions/string.c
// (version_compare/rpmvercmp, the comparator-prefix grammar) and
// src/functions/kernel/dependency.c (the method sequence and cache
// semantics this package reimplements as explicit states instead of the
// original's single recursive C function).
package resolver

import "strconv"

// Compare implements RPM-style version precedence (spec.md section 4.9):
// each string is split into alternating digit/non-digit segments;
// numeric segments compare numerically, others lexically; a version
// with a trailing segment the other lacks is considered newer, matching
// rpmvercmp's tie-break rule.
func Compare(a, b string) int {
	sa, sb := splitSegments(a), splitSegments(b)
	for i := 0; i < len(sa) && i < len(sb); i++ {
		if c := compareSegment(sa[i], sb[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(sa) < len(sb):
		return -1
	case len(sa) > len(sb):
		return 1
	default:
		return 0
	}
}

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }

// splitSegments breaks a version string into maximal runs of digits or
// non-digits, dropping separators ('.', '-', '_') between them.
func splitSegments(v string) []string {
	var segs []string
	i := 0
	for i < len(v) {
		if v[i] == '.' || v[i] == '-' || v[i] == '_' {
			i++
			continue
		}
		j := i + 1
		if isDigitByte(v[i]) {
			for j < len(v) && isDigitByte(v[j]) {
				j++
			}
		} else {
			for j < len(v) && !isDigitByte(v[j]) && v[j] != '.' && v[j] != '-' && v[j] != '_' {
				j++
			}
		}
		segs = append(segs, v[i:j])
		i = j
	}
	return segs
}

func compareSegment(a, b string) int {
	aNum, bNum := isAllDigits(a), isAllDigits(b)
	if aNum && bNum {
		av, _ := strconv.ParseInt(a, 10, 64)
		bv, _ := strconv.ParseInt(b, 10, 64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	}
	// A numeric segment always outranks an alphabetic one at the same
	// position (rpmvercmp's "1.0a" < "1.0.1" rule).
	if aNum != bNum {
		if aNum {
			return 1
		}
		return -1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigitByte(s[i]) {
			return false
		}
	}
	return true
}

var comparatorPrefixes = []string{">=", "<=", "==", "!=", ">", "<", "="}

// SatisfiesConstraint checks version against one constraint string of
// the form "<op><version>", defaulting to "==" with no prefix (spec.md
// section 4.9's comparator-prefix grammar).
func SatisfiesConstraint(version, constraint string) bool {
	op, want := "==", constraint
	for _, p := range comparatorPrefixes {
		if len(constraint) > len(p) && constraint[:len(p)] == p {
			op, want = p, constraint[len(p):]
			break
		}
	}
	if op == "=" {
		op = "=="
	}
	cmp := Compare(version, want)
	switch op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	default:
		return false
	}
}

// SatisfiesAll reports whether version satisfies every constraint
// (dependency()'s version: kwarg may list several, all of which apply).
func SatisfiesAll(version string, constraints []string) bool {
	for _, c := range constraints {
		if c == "" {
			continue
		}
		if !SatisfiesConstraint(version, c) {
			return false
		}
	}
	return true
}
