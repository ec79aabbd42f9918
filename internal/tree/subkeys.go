package tree

import (
	"sort"

	"github.com/compatlayer/regtree/internal/wstr"
	"github.com/compatlayer/regtree/pkg/types"
)

// keyArray is the growable, sorted array backing Key.subkeys. Growth and
// shrink are managed explicitly (1.5x / 0.67x, floored at MinSubkeys)
// rather than relying on append's own heuristic, so the array's capacity
// behavior matches spec §3 exactly rather than Go's default growth curve.
type keyArray struct {
	items []*Key
}

func (a *keyArray) len() int { return len(a.items) }

func (a *keyArray) growCapacity(needed int) {
	if needed <= cap(a.items) {
		return
	}
	newCap := int(float64(cap(a.items)) * types.GrowthFactor)
	if newCap < types.MinSubkeys {
		newCap = types.MinSubkeys
	}
	if newCap < needed {
		newCap = needed
	}
	grown := make([]*Key, len(a.items), newCap)
	copy(grown, a.items)
	a.items = grown
}

func (a *keyArray) shrinkIfSparse() {
	c := cap(a.items)
	if c <= types.MinSubkeys {
		return
	}
	if float64(len(a.items)) >= float64(c)*types.ShrinkRatio {
		return
	}
	newCap := int(float64(c) * types.ShrinkFactor)
	if newCap < types.MinSubkeys {
		newCap = types.MinSubkeys
	}
	if newCap < len(a.items) {
		newCap = len(a.items)
	}
	shrunk := make([]*Key, len(a.items), newCap)
	copy(shrunk, a.items)
	a.items = shrunk
}

// findSubkey performs a binary search for name among subkeys. When absent,
// index is the insertion point that preserves sort order (spec §4.2).
func (k *Key) findSubkey(name wstr.WStr) (found bool, index int) {
	n := k.subkeys.len()
	i := sort.Search(n, func(i int) bool {
		return wstr.CompareFold(k.subkeys.items[i].name, name) >= 0
	})
	if i < n && wstr.CompareFold(k.subkeys.items[i].name, name) == 0 {
		return true, i
	}
	return false, i
}

// FindSubkey is the exported form of findSubkey, for callers outside the
// package that only need to test presence (e.g. property tests).
func (k *Key) FindSubkey(name wstr.WStr) (found bool, index int) {
	return k.findSubkey(name)
}

// SubkeyAt returns the subkey at index without bounds checking; callers
// must check index against SubkeyCount first (see EnumKey).
func (k *Key) SubkeyAt(index int) *Key {
	return k.subkeys.items[index]
}

// allocSubkey grows the array if needed, shifts the tail right by one,
// inserts a freshly allocated child at index, and sets its parent.
func (k *Key) allocSubkey(name wstr.WStr, index int, currentLevel int) *Key {
	k.subkeys.growCapacity(k.subkeys.len() + 1)
	k.subkeys.items = append(k.subkeys.items, nil)
	copy(k.subkeys.items[index+1:], k.subkeys.items[index:len(k.subkeys.items)-1])

	child := &Key{
		name:   append(wstr.WStr(nil), name...),
		parent: k,
		modif:  clockNow(),
		level:  currentLevel,
		refs:   1,
	}
	k.subkeys.items[index] = child
	return child
}

// freeSubkey removes the subkey at index: shifts the tail left, marks the
// removed key DELETED with its parent cleared, and releases the owning
// reference. The array shrinks afterward if sparse.
func (k *Key) freeSubkey(index int) {
	child := k.subkeys.items[index]
	copy(k.subkeys.items[index:], k.subkeys.items[index+1:])
	k.subkeys.items[len(k.subkeys.items)-1] = nil
	k.subkeys.items = k.subkeys.items[:len(k.subkeys.items)-1]

	child.markDeleted()
	child.Release()

	k.subkeys.shrinkIfSparse()
}
