// Package roots implements the fixed root-key table (spec §4.5): the small
// set of well-known handle values that resolve to root pseudo-keys without
// ever touching the external handle manager.
package roots

import (
	"sync"

	"github.com/compatlayer/regtree/internal/tree"
	"github.com/compatlayer/regtree/internal/wstr"
	"github.com/compatlayer/regtree/pkg/types"
)

// Table holds one lazily-constructed slot per well-known root. The server
// runs single-threaded (spec §5); the mutex guards only against the
// dispatcher being entered re-entrantly from within a handler, which never
// happens in this design, but costs nothing to keep honest.
type Table struct {
	mu    sync.Mutex
	slots map[types.HKey]*tree.Key
}

// NewTable returns an empty table; every slot is constructed on first Get.
func NewTable() *Table {
	return &Table{slots: make(map[types.HKey]*tree.Key)}
}

// Get resolves hkey to its root key, constructing it (and, for
// HKEY_CLASSES_ROOT, its backing SOFTWARE\Classes key under
// HKEY_LOCAL_MACHINE) on first use, and returns a new reference. ok is false
// if hkey is not one of the well-known roots (spec §4.5 get_hkey_obj).
func (t *Table) Get(hkey types.HKey) (key *tree.Key, ok bool) {
	if !types.IsRoot(hkey) {
		return nil, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(hkey).Ref(), true
}

func (t *Table) get(hkey types.HKey) *tree.Key {
	if k, ok := t.slots[hkey]; ok {
		return k
	}

	var k *tree.Key
	switch hkey {
	case types.HKeyClassesRoot:
		lm := t.get(types.HKeyLocalMachine)
		classes, _, err := lm.CreateKey(wstr.FromString(`SOFTWARE\Classes`), tree.CreateOptions{})
		if err != nil {
			// The local-machine root is never VOLATILE nor DELETED, so the
			// only failure mode here is a Limits violation, and the root
			// table never installs one — this cannot happen.
			panic(err)
		}
		k = classes
	default:
		// HKEY_CURRENT_USER, HKEY_LOCAL_MACHINE, HKEY_USERS,
		// HKEY_CURRENT_CONFIG: bare anonymous roots. HKEY_CURRENT_USER
		// resolving to HKEY_USERS\<SID> instead is left unimplemented (spec
		// §9 FIXME; see DESIGN.md Open Question decisions).
		k = tree.NewRoot(nil)
	}
	t.slots[hkey] = k
	return k
}

// Shutdown releases every populated slot exactly once.
func (t *Table) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for hkey, k := range t.slots {
		k.Release()
		delete(t.slots, hkey)
	}
}
