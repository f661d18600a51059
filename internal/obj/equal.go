package obj

// Equal implements structural equality for the == / != operators and for
// the dependency cache's version-bucket dedup (spec.md section 8,
// "Structural equality"). Containers are compared deeply; everything else
// by value or by identity of the underlying struct pointer for build-graph
// kinds (those are reference types once registered — two build_target
// handles are structurally equal only if they are the same handle).
func Equal(s *Store, a, b Handle) bool {
	if a == b {
		return true
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNone, KindNull, KindDisabler:
		return true // single sentinel per kind; a==b already covered identical handles
	case KindBool:
		return s.GetBool(a) == s.GetBool(b)
	case KindNumber:
		return s.GetNumber(a) == s.GetNumber(b)
	case KindString:
		return s.GetString(a) == s.GetString(b)
	case KindFile:
		return s.GetFile(a) == s.GetFile(b)
	case KindFeatureOpt:
		return s.GetFeatureOpt(a) == s.GetFeatureOpt(b)
	case KindArray:
		aa, bb := s.GetArray(a), s.GetArray(b)
		if len(aa.Elems) != len(bb.Elems) {
			return false
		}
		for i := range aa.Elems {
			if !Equal(s, aa.Elems[i], bb.Elems[i]) {
				return false
			}
		}
		return true
	case KindDict:
		da, db := s.GetDict(a), s.GetDict(b)
		if da.Len() != db.Len() {
			return false
		}
		eq := true
		da.Each(func(k string, v Handle) {
			if !eq {
				return
			}
			ov, ok := db.Get(k)
			if !ok || !Equal(s, v, ov) {
				eq = false
			}
		})
		return eq
	default:
		// Build-graph/function/module kinds: reference semantics. Equal
		// only when they are literally the same handle (already checked
		// above), otherwise distinct instances are never equal even if
		// their fields happen to match -- mirrors the spec's target
		// immutable-handle-identity model.
		return false
	}
}
