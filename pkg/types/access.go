package types

// HKey is an opaque per-process handle value. Well-known small integers in
// [HKeyRootFirst, HKeyRootLast] refer to root pseudo-keys directly, without
// consuming a handle slot from the external handle manager (spec §4.5).
type HKey uint32

const (
	HKeyClassesRoot  HKey = 0x80000000 + iota // aliases SOFTWARE\Classes under HKLM
	HKeyCurrentUser                           // anonymous root (FIXME in source, see DESIGN.md)
	HKeyLocalMachine                          // anonymous root
	HKeyUsers                                 // anonymous root
	HKeyCurrentConfig                         // anonymous root

	HKeyRootFirst = HKeyClassesRoot
	HKeyRootLast  = HKeyCurrentConfig
)

// rootLabels gives the human-readable name used by the text codecs' path
// emission (dump_path) when a path's topmost ancestor is a named root.
var rootLabels = map[HKey]string{
	HKeyClassesRoot:   "HKEY_CLASSES_ROOT",
	HKeyCurrentUser:   "HKEY_CURRENT_USER",
	HKeyLocalMachine:  "HKEY_LOCAL_MACHINE",
	HKeyUsers:         "HKEY_USERS",
	HKeyCurrentConfig: "HKEY_CURRENT_CONFIG",
}

// RootLabel returns the human-readable root name for hkey, and false if hkey
// is not one of the well-known roots.
func RootLabel(hkey HKey) (string, bool) {
	name, ok := rootLabels[hkey]
	return name, ok
}

// IsRoot reports whether hkey falls in the well-known root range.
func IsRoot(hkey HKey) bool {
	return hkey >= HKeyRootFirst && hkey <= HKeyRootLast
}

// Access is a bitmask of the operations a handle was opened/created for,
// passed through to the external handle manager unmodified except for the
// MaximumAllowed coercion the dispatcher performs (spec §4.8).
type Access uint32

const (
	AccessQueryValue       Access = 1 << 0
	AccessSetValue         Access = 1 << 1
	AccessCreateSubKey     Access = 1 << 2
	AccessEnumerateSubKeys Access = 1 << 3
	AccessNotify           Access = 1 << 4
	AccessCreateLink       Access = 1 << 5

	AccessMaximumAllowed Access = 1 << 31

	AccessAll = AccessQueryValue | AccessSetValue | AccessCreateSubKey |
		AccessEnumerateSubKeys | AccessNotify | AccessCreateLink
)

// Resolve coerces MaximumAllowed to AccessAll, matching the dispatcher
// contract described in spec §4.8.
func (a Access) Resolve() Access {
	if a&AccessMaximumAllowed != 0 {
		return AccessAll
	}
	return a
}
