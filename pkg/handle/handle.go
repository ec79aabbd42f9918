// Package handle models the object/handle manager the core treats as an
// external collaborator (spec §6): resolving a non-root hkey to a tree node,
// minting new handles, and closing them. The dispatcher in pkg/registry
// never touches a *tree.Key directly except through this seam or the
// well-known root table in internal/roots.
package handle

import (
	"sync"

	"github.com/compatlayer/regtree/internal/tree"
	"github.com/compatlayer/regtree/pkg/types"
)

// Handle is an opaque per-process capability distinct from the well-known
// root values in types.HKey.
type Handle uint32

// Manager resolves, allocates, and closes handles.
type Manager interface {
	// Resolve returns the key behind h with a new reference. It fails if h
	// is unknown or if access (after MaximumAllowed resolution) was not
	// granted at Alloc time.
	Resolve(h Handle, access types.Access) (*tree.Key, error)

	// Alloc installs key under a fresh handle. It takes ownership of the
	// reference the caller passes in: the manager releases it on Close, the
	// caller must not release it itself.
	Alloc(key *tree.Key, access types.Access) Handle

	// Close releases the reference Alloc installed and frees the slot.
	Close(h Handle) error
}

// ErrorReporter is the process-wide error sink handlers report to, modeled
// on set_error/file_set_error (spec §6).
type ErrorReporter interface {
	SetError(err error)
	FileError(err error) error
}

type entry struct {
	key    *tree.Key
	access types.Access
}

// memManager is an in-memory Manager suitable for both the in-process
// facade and tests; it never needs a real RPC transport behind it.
type memManager struct {
	mu      sync.Mutex
	next    Handle
	objects map[Handle]*entry
}

// NewManager returns a fresh, empty Manager.
func NewManager() Manager {
	return &memManager{objects: make(map[Handle]*entry)}
}

func (m *memManager) Alloc(key *tree.Key, access types.Access) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	h := m.next
	m.objects[h] = &entry{key: key, access: access.Resolve()}
	return h
}

func (m *memManager) Resolve(h Handle, access types.Access) (*tree.Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.objects[h]
	if !ok {
		return nil, types.WithDetail(types.ErrFileNotFound, "unknown handle")
	}
	want := access.Resolve()
	if want != 0 && e.access&want != want {
		return nil, types.ErrAccessDeniedErr
	}
	return e.key.Ref(), nil
}

func (m *memManager) Close(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.objects[h]
	if !ok {
		return types.WithDetail(types.ErrFileNotFound, "unknown handle")
	}
	delete(m.objects, h)
	e.key.Release()
	return nil
}
