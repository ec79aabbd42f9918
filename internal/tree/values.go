package tree

import (
	"sort"

	"github.com/compatlayer/regtree/internal/wstr"
	"github.com/compatlayer/regtree/pkg/types"
)

// valueArray is the growable, sorted array backing Key.values. Same growth
// discipline as keyArray, floored at MinValues.
type valueArray struct {
	items []*KeyValue
}

func (a *valueArray) len() int { return len(a.items) }

func (a *valueArray) growCapacity(needed int) {
	if needed <= cap(a.items) {
		return
	}
	newCap := int(float64(cap(a.items)) * types.GrowthFactor)
	if newCap < types.MinValues {
		newCap = types.MinValues
	}
	if newCap < needed {
		newCap = needed
	}
	grown := make([]*KeyValue, len(a.items), newCap)
	copy(grown, a.items)
	a.items = grown
}

func (a *valueArray) shrinkIfSparse() {
	c := cap(a.items)
	if c <= types.MinValues {
		return
	}
	if float64(len(a.items)) >= float64(c)*types.ShrinkRatio {
		return
	}
	newCap := int(float64(c) * types.ShrinkFactor)
	if newCap < types.MinValues {
		newCap = types.MinValues
	}
	if newCap < len(a.items) {
		newCap = len(a.items)
	}
	shrunk := make([]*KeyValue, len(a.items), newCap)
	copy(shrunk, a.items)
	a.items = shrunk
}

// Name returns the value's name; empty denotes the default value.
func (v *KeyValue) Name() wstr.WStr { return v.name }

// Type returns the value's declared type tag.
func (v *KeyValue) Type() types.RegType { return v.typ }

// Data returns the value's payload. Callers must not mutate the returned
// slice; use SetValue to replace it.
func (v *KeyValue) Data() []byte { return v.data }

// findValue performs a binary search for name among values, same discipline
// as findSubkey (spec §4.4).
func (k *Key) findValue(name wstr.WStr) (found bool, index int) {
	n := k.values.len()
	i := sort.Search(n, func(i int) bool {
		return wstr.CompareFold(k.values.items[i].name, name) >= 0
	})
	if i < n && wstr.CompareFold(k.values.items[i].name, name) == 0 {
		return true, i
	}
	return false, i
}

// FindValue is the exported presence check.
func (k *Key) FindValue(name wstr.WStr) (found bool, index int) {
	return k.findValue(name)
}

// ValueAt returns the value at index without bounds checking.
func (k *Key) ValueAt(index int) *KeyValue {
	return k.values.items[index]
}

// EnumValue returns the value at index, or ErrNoMoreItems if index is out
// of range — the same bounds discipline as EnumKey (spec §4.4).
func (k *Key) EnumValue(index int) (*KeyValue, error) {
	if index < 0 || index >= k.ValueCount() {
		return nil, types.ErrNoMoreItemsSentinel
	}
	return k.values.items[index], nil
}

// insertValue looks up name; if absent, grows the array, shifts the tail,
// and inserts a zero-initialized value (len=0, data=nil). Returns the slot,
// inserted as reported by the caller-visible bool.
func (k *Key) insertValue(name wstr.WStr) (*KeyValue, bool) {
	found, index := k.findValue(name)
	if found {
		return k.values.items[index], false
	}

	k.values.growCapacity(k.values.len() + 1)
	k.values.items = append(k.values.items, nil)
	copy(k.values.items[index+1:], k.values.items[index:len(k.values.items)-1])

	v := &KeyValue{name: append(wstr.WStr(nil), name...)}
	k.values.items[index] = v
	return v, true
}

// SetValue copies data, inserts-or-reuses the named slot, frees any
// previous payload, writes type/data, and touches the key (spec §4.4). The
// copy happens before any mutation so a nil/short allocation never leaves
// the value half-written.
func (k *Key) SetValue(name wstr.WStr, typ types.RegType, data []byte, currentLevel int) {
	owned := append([]byte(nil), data...)
	v, _ := k.insertValue(name)
	v.typ = typ
	v.data = owned
	k.touch(currentLevel)
}

// GetValue copies the named value's data into the return slice. On miss it
// returns ok=false; callers report FILE_NOT_FOUND and treat type as -1,
// len as 0 per spec §4.4.
func (k *Key) GetValue(name wstr.WStr) (data []byte, typ types.RegType, ok bool) {
	found, index := k.findValue(name)
	if !found {
		return nil, 0, false
	}
	v := k.values.items[index]
	return append([]byte(nil), v.data...), v.typ, true
}

// DeleteValue finds name, frees it, shifts the tail, touches the key, and
// shrinks the array on low fill (spec §4.4). ok is false if name was absent.
func (k *Key) DeleteValue(name wstr.WStr, currentLevel int) (ok bool) {
	found, index := k.findValue(name)
	if !found {
		return false
	}
	copy(k.values.items[index:], k.values.items[index+1:])
	k.values.items[len(k.values.items)-1] = nil
	k.values.items = k.values.items[:len(k.values.items)-1]

	k.touch(currentLevel)
	k.values.shrinkIfSparse()
	return true
}
