// Package registry implements the dispatcher described in spec §4.8: it
// resolves an hkey to a tree node via the root table or the external handle
// manager, performs the requested tree/value operation, and hands back a new
// handle or the requested data. It also exposes an in-process facade
// (Registry's own methods) over the same operations for callers that have
// no RPC transport to go through (SPEC_FULL §4.8 expansion).
package registry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/compatlayer/regtree/internal/regtext"
	"github.com/compatlayer/regtree/internal/regtextv1"
	"github.com/compatlayer/regtree/internal/roots"
	"github.com/compatlayer/regtree/internal/tree"
	"github.com/compatlayer/regtree/internal/wstr"
	"github.com/compatlayer/regtree/pkg/handle"
	"github.com/compatlayer/regtree/pkg/types"
)

// Registry is the core server: the root table, the handle manager, the two
// global save-gating levels (spec §5 "Shared resources"), and the codecs
// load/save dispatch to.
type Registry struct {
	mu sync.Mutex // guards currentLevel/savingLevel; handlers still run atomically (spec §5)

	roots   *roots.Table
	handles handle.Manager
	report  handle.ErrorReporter

	currentLevel int
	savingLevel  int

	savingVersion int // 1 selects the legacy v1 exporter; anything else, v2

	v2     *regtext.Codec
	limits types.Limits
}

// Option configures a new Registry.
type Option func(*Registry)

// WithLogger overrides the slog.Logger used for parse warnings and the
// error reporter's traces.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		r.v2 = regtext.NewCodec(log)
		r.report = handle.NewLogReporter(log, 0)
	}
}

// WithLimits bounds the dispatcher's CreateKey and SetKeyValue calls
// (SPEC_FULL §3 expansion); LoadRegistry does not apply them. The zero
// value is unbounded.
func WithLimits(limits types.Limits) Option {
	return func(r *Registry) { r.limits = limits }
}

// New builds a Registry with an empty root table and handle manager.
func New(opts ...Option) *Registry {
	r := &Registry{
		roots:       roots.NewTable(),
		handles:     handle.NewManager(),
		savingLevel: 0,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.v2 == nil {
		r.v2 = regtext.NewCodec(nil)
	}
	if r.report == nil {
		r.report = handle.NewLogReporter(nil, 0)
	}
	return r
}

// Shutdown releases every populated root-table slot exactly once (spec
// §4.5).
func (r *Registry) Shutdown() {
	r.roots.Shutdown()
}

// getHKeyObj resolves hkey to a key with a new reference: a well-known root
// short-circuits to the root table, anything else delegates to the handle
// manager with access resolved through MaximumAllowed coercion (spec §4.5
// get_hkey_obj, §4.8).
func (r *Registry) getHKeyObj(hkey types.HKey, access types.Access) (*tree.Key, error) {
	if key, ok := r.roots.Get(hkey); ok {
		return key, nil
	}
	return r.handles.Resolve(handle.Handle(hkey), access.Resolve())
}

func (r *Registry) levels() (current, saving int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentLevel, r.savingLevel
}

// SetLevels implements the set_registry_levels opcode: writes the two
// process-wide gating integers (spec §4.8).
func (r *Registry) SetLevels(current, saving int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentLevel = current
	r.savingLevel = saving
}

// SetSavingVersion selects which text codec Save uses: 1 for the legacy
// write-only format, anything else for v2 (spec §6 "v1 is emitted only when
// the global saving_version is 1").
func (r *Registry) SetSavingVersion(version int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.savingVersion = version
}

// ---- create_key / open_key / delete_key / enum_key / query_key_info ----

// CreateKeyRequest is the create_key opcode's arguments (spec §4.8).
type CreateKeyRequest struct {
	HKey     types.HKey
	Path     wstr.WStr
	Class    wstr.WStr
	Volatile bool
}

// CreateKeyReply is the create_key opcode's results.
type CreateKeyReply struct {
	HKey    handle.Handle
	Created bool
}

// CreateKey implements the create_key opcode.
func (r *Registry) CreateKey(req CreateKeyRequest) (CreateKeyReply, error) {
	base, err := r.getHKeyObj(req.HKey, types.AccessCreateSubKey)
	if err != nil {
		return CreateKeyReply{}, err
	}
	defer base.Release()

	current, _ := r.levels()
	key, created, err := base.CreateKey(req.Path, tree.CreateOptions{
		Volatile:     req.Volatile,
		Class:        req.Class,
		CurrentLevel: current,
		Limits:       r.limits,
	})
	if err != nil {
		r.report.SetError(err)
		return CreateKeyReply{}, err
	}

	h := r.handles.Alloc(key, types.AccessAll)
	return CreateKeyReply{HKey: h, Created: created}, nil
}

// OpenKey implements the open_key opcode.
func (r *Registry) OpenKey(hkey types.HKey, path wstr.WStr) (handle.Handle, error) {
	base, err := r.getHKeyObj(hkey, 0)
	if err != nil {
		return 0, err
	}
	defer base.Release()

	key, err := base.OpenKey(path)
	if err != nil {
		r.report.SetError(err)
		return 0, err
	}
	return r.handles.Alloc(key, types.AccessAll), nil
}

// DeleteKey implements the delete_key opcode.
func (r *Registry) DeleteKey(hkey types.HKey, path wstr.WStr) error {
	base, err := r.getHKeyObj(hkey, types.AccessCreateSubKey)
	if err != nil {
		return err
	}
	defer base.Release()

	current, _ := r.levels()
	if err := base.DeleteKey(path, current); err != nil {
		r.report.SetError(err)
		return err
	}
	return nil
}

// CloseKey implements the close_key opcode: closing a well-known root is a
// no-op (spec §4.8), since roots never consume a handle slot.
func (r *Registry) CloseKey(hkey types.HKey) error {
	if types.IsRoot(hkey) {
		return nil
	}
	return r.handles.Close(handle.Handle(hkey))
}

// EnumKeyReply is the enum_key opcode's results.
type EnumKeyReply struct {
	Name  wstr.WStr
	Class wstr.WStr
	Modif time.Time
}

// EnumKey implements the enum_key opcode.
func (r *Registry) EnumKey(hkey types.HKey, index int) (EnumKeyReply, error) {
	base, err := r.getHKeyObj(hkey, types.AccessEnumerateSubKeys)
	if err != nil {
		return EnumKeyReply{}, err
	}
	defer base.Release()

	name, class, modif, err := base.EnumKey(index)
	if err != nil {
		return EnumKeyReply{}, err
	}
	return EnumKeyReply{Name: name, Class: class, Modif: modif}, nil
}

// QueryKeyInfo implements the query_key_info opcode.
func (r *Registry) QueryKeyInfo(hkey types.HKey) (tree.KeyInfo, error) {
	base, err := r.getHKeyObj(hkey, types.AccessQueryValue)
	if err != nil {
		return tree.KeyInfo{}, err
	}
	defer base.Release()
	return base.QueryKey(), nil
}

// ---- set_key_value / get_key_value / enum_key_value / delete_key_value ----

// SetKeyValue implements the set_key_value opcode; data length, value name
// length and the key's value count are checked against the configured
// Limits before any mutation (spec §4.4 set_value, §7 OUTOFMEMORY).
func (r *Registry) SetKeyValue(hkey types.HKey, name wstr.WStr, typ types.RegType, data []byte) error {
	base, err := r.getHKeyObj(hkey, types.AccessSetValue)
	if err != nil {
		return err
	}
	defer base.Release()

	if r.limits.MaxValueSize > 0 && len(data) > r.limits.MaxValueSize {
		err := types.WithDetail(types.ErrOutOfMemoryErr, "value data exceeds configured limit")
		r.report.SetError(err)
		return err
	}
	if r.limits.MaxNameLen > 0 && len(name) > r.limits.MaxNameLen {
		err := types.WithDetail(types.ErrOutOfMemoryErr, "value name too long")
		r.report.SetError(err)
		return err
	}
	if found, _ := base.FindValue(name); !found && r.limits.MaxValues > 0 && base.ValueCount() >= r.limits.MaxValues {
		err := types.WithDetail(types.ErrOutOfMemoryErr, "max values exceeded")
		r.report.SetError(err)
		return err
	}

	current, _ := r.levels()
	base.SetValue(name, typ, data, current)
	return nil
}

// GetKeyValueReply is the get_key_value opcode's results.
type GetKeyValueReply struct {
	Type types.RegType
	Data []byte
}

// GetKeyValue implements the get_key_value opcode.
func (r *Registry) GetKeyValue(hkey types.HKey, name wstr.WStr) (GetKeyValueReply, error) {
	base, err := r.getHKeyObj(hkey, types.AccessQueryValue)
	if err != nil {
		return GetKeyValueReply{}, err
	}
	defer base.Release()

	data, typ, ok := base.GetValue(name)
	if !ok {
		err := types.WithDetail(types.ErrFileNotFound, name.String())
		r.report.SetError(err)
		return GetKeyValueReply{Type: types.RegType(0xFFFFFFFF)}, err
	}
	return GetKeyValueReply{Type: typ, Data: data}, nil
}

// EnumKeyValueReply is the enum_key_value opcode's results.
type EnumKeyValueReply struct {
	Name wstr.WStr
	Type types.RegType
	Data []byte
}

// EnumKeyValue implements the enum_key_value opcode.
func (r *Registry) EnumKeyValue(hkey types.HKey, index int) (EnumKeyValueReply, error) {
	base, err := r.getHKeyObj(hkey, types.AccessQueryValue)
	if err != nil {
		return EnumKeyValueReply{}, err
	}
	defer base.Release()

	v, err := base.EnumValue(index)
	if err != nil {
		return EnumKeyValueReply{}, err
	}
	return EnumKeyValueReply{Name: v.Name(), Type: v.Type(), Data: v.Data()}, nil
}

// DeleteKeyValue implements the delete_key_value opcode.
func (r *Registry) DeleteKeyValue(hkey types.HKey, name wstr.WStr) error {
	base, err := r.getHKeyObj(hkey, types.AccessSetValue)
	if err != nil {
		return err
	}
	defer base.Release()

	current, _ := r.levels()
	if !base.DeleteValue(name, current) {
		err := types.WithDetail(types.ErrFileNotFound, name.String())
		r.report.SetError(err)
		return err
	}
	return nil
}

// ---- load_registry / save_registry ----

// LoadRegistry implements the load_registry opcode: it parses text (v2
// grammar only — the legacy format is write-only, spec §4.7) into the
// subtree rooted at hkey.
func (r *Registry) LoadRegistry(hkey types.HKey, text []byte) error {
	base, err := r.getHKeyObj(hkey, types.AccessSetValue|types.AccessCreateSubKey)
	if err != nil {
		return err
	}
	defer base.Release()

	current, _ := r.levels()
	if err := r.v2.Import(text, base, current); err != nil {
		r.report.SetError(err)
		return err
	}
	return nil
}

// SaveRegistry implements the save_registry opcode: exports hkey's subtree
// using whichever codec SetSavingVersion last selected, labeling the
// dumped path with rootLabel when hkey's chain tops out at a named root.
func (r *Registry) SaveRegistry(hkey types.HKey, rootLabel string) ([]byte, error) {
	base, err := r.getHKeyObj(hkey, types.AccessQueryValue|types.AccessEnumerateSubKeys)
	if err != nil {
		return nil, err
	}
	defer base.Release()

	_, saving := r.levels()

	r.mu.Lock()
	version := r.savingVersion
	r.mu.Unlock()

	if version == 1 {
		return regtextv1.Export(base, rootLabel, saving), nil
	}
	out, err := r.v2.Export(base, rootLabel, saving)
	if err != nil {
		r.report.SetError(err)
		return nil, err
	}
	return out, nil
}
