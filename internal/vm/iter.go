package vm

import (
	"fmt"

	"github.com/muonlang/mbi/internal/obj"
)

// newIterFrame locks container against mutation during the loop (spec.md
// section 4.4's iteration-lock invariant) and snapshots the key order
// for dicts up front, since Dict.Keys() is insertion-ordered and stable
// only while locked.
func (v *VM) newIterFrame(container obj.Handle) (iterFrame, bool, error) {
	switch container.Kind() {
	case obj.KindArray:
		arr := v.Store.GetArray(container)
		arr.BeginIteration()
		return iterFrame{container: container}, arr.Len() == 0, nil
	case obj.KindDict:
		d := v.Store.GetDict(container)
		d.BeginIteration()
		keys := d.Keys()
		return iterFrame{container: container, keys: keys}, len(keys) == 0, nil
	default:
		return iterFrame{}, false, fmt.Errorf("foreach requires an array or dict, got %s", container.Kind())
	}
}

func iterLen(s *obj.Store, it *iterFrame) int {
	if it.keys != nil {
		return len(it.keys)
	}
	return s.GetArray(it.container).Len()
}

// iterAt returns the key (dicts only, "" for arrays) and value at
// position i.
func iterAt(s *obj.Store, it *iterFrame, i int) (string, obj.Handle) {
	if it.keys != nil {
		k := it.keys[i]
		v, _ := s.GetDict(it.container).Get(k)
		return k, v
	}
	return "", s.GetArray(it.container).Elems[i]
}

func (v *VM) endIteration(container obj.Handle) {
	switch container.Kind() {
	case obj.KindArray:
		v.Store.GetArray(container).EndIteration()
	case obj.KindDict:
		v.Store.GetDict(container).EndIteration()
	}
}
