// Package tree implements the core key/value tree: the Key and KeyValue
// entities, their sorted growable arrays, reference counting, and the
// path/value algorithms that walk them (spec §3, §4.2–§4.4).
package tree

import (
	"time"

	"github.com/compatlayer/regtree/internal/wstr"
	"github.com/compatlayer/regtree/pkg/types"
)

// Flags is a bitset over the three key flags the spec defines.
type Flags uint8

const (
	Volatile Flags = 1 << iota
	Deleted
	Root
)

// Has reports whether f includes every bit in mask.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// clockNow is the injection point for Key.touch's timestamp, so tests can
// pin time without sleeping. Single-threaded by construction (spec §5), so
// a package variable is safe to swap in a test and restore afterward.
var clockNow = time.Now

// Key is a node in the tree (spec §3). name is nil only for root
// pseudo-keys. parent is a non-owning back-reference (spec §9): the single
// owning edge runs parent -> subkeys[i], so clearing Parent on removal never
// frees anything by itself.
type Key struct {
	name  wstr.WStr
	class wstr.WStr

	parent *Key

	subkeys keyArray
	values  valueArray

	flags Flags
	level int
	modif time.Time

	refs int
}

// KeyValue is a single named, typed value attached to a Key (spec §3).
type KeyValue struct {
	name wstr.WStr
	typ  types.RegType
	data []byte
}

// NewRoot allocates a fresh, unparented key carrying the Root flag and an
// initial reference count of one, for the root-key table (spec §4.5).
func NewRoot(name wstr.WStr) *Key {
	k := &Key{
		name:  name,
		flags: Root,
		modif: clockNow(),
		refs:  1,
	}
	return k
}

// Name returns the key's name, or nil for an anonymous root.
func (k *Key) Name() wstr.WStr { return k.name }

// Class returns the key's optional class string.
func (k *Key) Class() wstr.WStr { return k.class }

// SetClass attaches or overwrites the key's class string (spec §4.3,
// create_key overwrites class on a pre-existing key — see DESIGN.md Open
// Question decisions).
func (k *Key) SetClass(class wstr.WStr) { k.class = class }

// Parent returns the containing key, or nil for roots and DELETED keys
// (invariant I3).
func (k *Key) Parent() *Key { return k.parent }

// Flags returns the key's current flag bits.
func (k *Key) Flags() Flags { return k.flags }

// Level returns the key's saving level.
func (k *Key) Level() int { return k.level }

// ModTime returns the last modification time.
func (k *Key) ModTime() time.Time { return k.modif }

// SetModTime overwrites modif directly, bypassing touch's max-with-current
// behavior. Used by the text-codec loaders to restore the timestamp a save
// recorded, rather than stamping the moment of the reload (spec P4: load(
// save(T)) must compare structurally equal to T under modif too).
func (k *Key) SetModTime(t time.Time) { k.modif = t }

// IsVolatile reports the VOLATILE flag.
func (k *Key) IsVolatile() bool { return k.flags.Has(Volatile) }

// IsDeleted reports the DELETED flag.
func (k *Key) IsDeleted() bool { return k.flags.Has(Deleted) }

// IsRoot reports the ROOT flag.
func (k *Key) IsRoot() bool { return k.flags.Has(Root) }

// SubkeyCount returns len(subkeys) (last_subkey = SubkeyCount()-1, spec I7).
func (k *Key) SubkeyCount() int { return k.subkeys.len() }

// ValueCount returns len(values).
func (k *Key) ValueCount() int { return k.values.len() }

// touch sets modif = now() and level = max(level, currentLevel), per
// touch_key (spec §4.2).
func (k *Key) touch(currentLevel int) {
	k.modif = clockNow()
	if currentLevel > k.level {
		k.level = currentLevel
	}
}

// Ref increments the reference count and returns k, for call sites that
// want to chain (e.g. `return k.Ref(), nil`).
func (k *Key) Ref() *Key {
	k.refs++
	return k
}

// Release decrements the reference count. When it reaches zero the key is
// destroyed: every value buffer is freed and each child's parent pointer is
// cleared before the child's own reference is released, so a child held by
// a live handle remains valid (spec "Ownership / lifecycle").
func (k *Key) Release() {
	k.refs--
	if k.refs > 0 {
		return
	}
	for _, v := range k.values.items {
		v.data = nil
	}
	k.values = valueArray{}
	for _, child := range k.subkeys.items {
		child.parent = nil
		child.Release()
	}
	k.subkeys = keyArray{}
}

// markDeleted removes the ROOT-incompatible ownership edge: flags gain
// DELETED, parent is cleared. The key itself is not destroyed here —
// destruction is deferred to the last Release (spec §9 "Handles as
// borrowed references").
func (k *Key) markDeleted() {
	k.flags |= Deleted
	k.parent = nil
}

// Walk performs a pre-order traversal starting at k. Returning a non-nil
// error from fn aborts the traversal and is propagated to the caller.
func (k *Key) Walk(fn func(*Key) error) error {
	if err := fn(k); err != nil {
		return err
	}
	for _, child := range k.subkeys.items {
		if err := child.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}
