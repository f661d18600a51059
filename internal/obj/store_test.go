package obj

import "testing"

func TestSentinelHandles(t *testing.T) {
	s := NewStore()
	if s.True.Kind() != KindBool || !s.GetBool(s.True) {
		t.Fatalf("True handle did not decode to bool true")
	}
	if s.False.Kind() != KindBool || s.GetBool(s.False) {
		t.Fatalf("False handle did not decode to bool false")
	}
	if s.Null.Kind() != KindNull {
		t.Fatalf("Null handle has wrong kind: %v", s.Null.Kind())
	}
	if s.Disabler.Kind() != KindDisabler {
		t.Fatalf("Disabler handle has wrong kind: %v", s.Disabler.Kind())
	}
	if !None.IsNone() {
		t.Fatalf("None.IsNone() == false")
	}
}

func TestStringInterning(t *testing.T) {
	s := NewStore()
	a := s.String("hello")
	b := s.String("hello")
	if a != b {
		t.Fatalf("expected interned short strings to share a handle, got %v != %v", a, b)
	}
	long := make([]byte, internThreshold+1)
	for i := range long {
		long[i] = 'x'
	}
	c := s.String(string(long))
	d := s.String(string(long))
	if c == d {
		t.Fatalf("expected long strings to not be interned")
	}
	if s.GetString(c) != s.GetString(d) {
		t.Fatalf("long string handles should still decode to the same text")
	}
}

func TestDictOrderPreservedOnOverwrite(t *testing.T) {
	s := NewStore()
	dh := s.NewDict()
	d := s.GetDict(dh)
	d.Set("a", s.Number(1))
	d.Set("b", s.Number(2))
	d.Set("a", s.Number(3)) // overwrite should keep position 0

	var keys []string
	d.Each(func(k string, v Handle) { keys = append(keys, k) })
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("expected insertion order [a b], got %v", keys)
	}
	v, _ := d.Get("a")
	if s.GetNumber(v) != 3 {
		t.Fatalf("expected overwritten value 3, got %d", s.GetNumber(v))
	}
}

func TestArrayEquality(t *testing.T) {
	s := NewStore()
	a := s.NewArray(s.Number(1), s.String("x"))
	b := s.NewArray(s.Number(1), s.String("x"))
	c := s.NewArray(s.Number(2))
	if !Equal(s, a, b) {
		t.Fatalf("expected structurally equal arrays to compare equal")
	}
	if Equal(s, a, c) {
		t.Fatalf("expected differing arrays to compare unequal")
	}
}

func TestIterationLock(t *testing.T) {
	s := NewStore()
	ah := s.NewArray(s.Number(1))
	a := s.GetArray(ah)
	if a.Locked() {
		t.Fatalf("fresh array should not be locked")
	}
	a.BeginIteration()
	if !a.Locked() {
		t.Fatalf("array should be locked during iteration")
	}
	a.EndIteration()
	if a.Locked() {
		t.Fatalf("array should be unlocked after iteration ends")
	}
}

func TestDisablerComparesOnlyToItself(t *testing.T) {
	s := NewStore()
	if !Equal(s, s.Disabler, s.Disabler) {
		t.Fatalf("disabler must equal itself")
	}
	if Equal(s, s.Disabler, s.Null) {
		t.Fatalf("disabler must not equal null")
	}
}
