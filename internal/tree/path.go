package tree

import (
	"time"

	"github.com/compatlayer/regtree/internal/wstr"
	"github.com/compatlayer/regtree/pkg/types"
)

// OpenKey tokenizes path and descends one token per step via findSubkey. An
// empty path returns base itself with a new reference. A missing token
// fails with ErrFileNotFound (spec §4.3).
func (base *Key) OpenKey(path wstr.WStr) (*Key, error) {
	cur := base
	tok := wstr.NewTokenizer(path)
	for {
		t, ok := tok.Next()
		if !ok {
			break
		}
		found, index := cur.findSubkey(t)
		if !found {
			return nil, types.WithDetail(types.ErrFileNotFound, t.String())
		}
		cur = cur.subkeys.items[index]
	}
	return cur.Ref(), nil
}

// CreateOptions controls CreateKey (spec §4.3).
type CreateOptions struct {
	Volatile     bool
	Class        wstr.WStr
	CurrentLevel int
	Limits       types.Limits // zero value: unbounded
}

// CreateKey descends path from base, creating any missing segments. It
// returns the terminal key (a new reference), whether any segment was
// newly allocated, and an error.
//
// Partial-failure semantics (spec §7): the first segment that had to be
// created is recorded as the rollback anchor; if a later segment's
// allocation is refused by opts.Limits, the entire anchor subtree is freed
// and the tree is left exactly as it was before the call.
func (base *Key) CreateKey(path wstr.WStr, opts CreateOptions) (result *Key, created bool, err error) {
	if base.IsDeleted() {
		return nil, false, types.ErrKeyDeletedSentinel
	}

	flags := Flags(0)
	if opts.Volatile {
		flags |= Volatile
	}

	cur := base
	var anchorParent *Key
	var anchorIndex = -1
	// depth counts the ancestors of the segment being walked, so MaxTreeDepth
	// bounds the absolute depth even when base is not a root.
	depth := 0
	for p := base; p.parent != nil; p = p.parent {
		depth++
	}

	tok := wstr.NewTokenizer(path)
	for {
		t, ok := tok.Next()
		if !ok {
			break
		}
		depth++
		found, index := cur.findSubkey(t)
		if found {
			cur = cur.subkeys.items[index]
			continue
		}

		// I4: every child of a VOLATILE key must itself be VOLATILE. Checked
		// at each segment about to be newly allocated (not just base) so a
		// non-volatile CreateKey can't tunnel a non-volatile descendant
		// through an already-volatile intermediate segment.
		if flags&Volatile == 0 && cur.IsVolatile() {
			if anchorParent != nil {
				anchorParent.freeSubkey(anchorIndex)
			}
			return nil, false, types.ErrChildVolatileErr
		}

		if limitErr := checkCreateLimits(opts.Limits, cur, t, depth); limitErr != nil {
			if anchorParent != nil {
				anchorParent.freeSubkey(anchorIndex)
			}
			return nil, false, limitErr
		}

		child := cur.allocSubkey(t, index, opts.CurrentLevel)
		child.flags |= flags
		if anchorParent == nil {
			anchorParent = cur
			anchorIndex = index
		}
		created = true
		cur = child
	}

	if opts.Class != nil {
		cur.SetClass(opts.Class)
	}
	return cur.Ref(), created, nil
}

// checkCreateLimits reports ErrOutOfMemory when allocating a child named
// name under cur, as a key with depth ancestors, would violate opts.
func checkCreateLimits(limits types.Limits, cur *Key, name wstr.WStr, depth int) error {
	if limits.MaxSubkeys > 0 && cur.SubkeyCount() >= limits.MaxSubkeys {
		return types.WithDetail(types.ErrOutOfMemoryErr, "max subkeys exceeded")
	}
	if limits.MaxNameLen > 0 && len(name) > limits.MaxNameLen {
		return types.WithDetail(types.ErrOutOfMemoryErr, "key name too long")
	}
	if limits.MaxTreeDepth > 0 && depth > limits.MaxTreeDepth {
		return types.WithDetail(types.ErrOutOfMemoryErr, "tree depth exceeded")
	}
	return nil
}

// DeleteKey deletes base itself when path is empty; otherwise it walks to
// the terminal key and deletes that. Fails with ErrAccessDenied if the
// target is a root or still has subkeys; fails with ErrKeyDeleted if it (or
// any ancestor visited during the walk) is already deleted (spec §4.3).
func (base *Key) DeleteKey(path wstr.WStr, currentLevel int) error {
	cur := base
	tok := wstr.NewTokenizer(path)
	for {
		t, ok := tok.Next()
		if !ok {
			break
		}
		if cur.IsDeleted() {
			return types.ErrKeyDeletedSentinel
		}
		found, index := cur.findSubkey(t)
		if !found {
			return types.WithDetail(types.ErrFileNotFound, t.String())
		}
		cur = cur.subkeys.items[index]
	}

	if cur.IsDeleted() {
		return types.ErrKeyDeletedSentinel
	}
	if cur.IsRoot() {
		return types.ErrAccessDeniedErr
	}
	if cur.SubkeyCount() > 0 {
		return types.ErrAccessDeniedErr
	}

	parent := cur.parent
	if parent == nil {
		return types.ErrKeyDeletedSentinel
	}
	_, index := parent.findSubkey(cur.name)
	parent.freeSubkey(index)
	parent.touch(currentLevel)
	return nil
}

// EnumKey returns the name/class/modif of the subkey at index, or
// ErrNoMoreItems if index is out of range (spec §4.3).
func (k *Key) EnumKey(index int) (name, class wstr.WStr, modif time.Time, err error) {
	if index < 0 || index >= k.SubkeyCount() {
		return nil, nil, time.Time{}, types.ErrNoMoreItemsSentinel
	}
	child := k.subkeys.items[index]
	return child.name, child.class, child.modif, nil
}

// KeyInfo is the result of QueryKey.
type KeyInfo struct {
	SubkeyCount int
	ValueCount  int
	MaxSubkey   int // longest child name, in code units
	MaxClass    int // longest child class string, in code units
	MaxValue    int // longest value name, in code units
	MaxData     int // largest value payload, in bytes
	ModTime     time.Time
	Class       wstr.WStr
}

// QueryKey returns counts, maxima, modif, and the key's own class (spec
// §4.3). The maxima scan every child/value with no omission: the source's
// `i < last_subkey` loop bound that skips the final element is judged
// unintentional here (see DESIGN.md Open Question decisions) and is not
// reproduced.
func (k *Key) QueryKey() KeyInfo {
	info := KeyInfo{
		SubkeyCount: k.SubkeyCount(),
		ValueCount:  k.ValueCount(),
		ModTime:     k.modif,
		Class:       k.class,
	}
	for _, child := range k.subkeys.items {
		if l := len(child.name); l > info.MaxSubkey {
			info.MaxSubkey = l
		}
		if l := len(child.class); l > info.MaxClass {
			info.MaxClass = l
		}
	}
	for _, v := range k.values.items {
		if l := len(v.name); l > info.MaxValue {
			info.MaxValue = l
		}
		if l := len(v.data); l > info.MaxData {
			info.MaxData = l
		}
	}
	return info
}
