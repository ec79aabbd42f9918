package types

// ErrKind classifies the errors the core reports, so a caller (notably the
// dispatcher, which must translate every failure into an RPC status code)
// can branch on intent rather than on message text.
type ErrKind int

const (
	ErrNotFound            ErrKind = iota // path token or value name absent
	ErrNoMoreItems                        // enumeration index out of range
	ErrKeyDeleted                         // operation against a DELETED key
	ErrAccessDenied                       // delete of a ROOT key or a key with subkeys
	ErrChildMustBeVolatile                // non-volatile child requested under a volatile parent
	ErrOutOfMemory                        // allocation/request-buffer overflow
	ErrNotRegistryFile                    // load file missing the expected header
)

// Error is a typed error with an optional underlying cause. It satisfies the
// standard unwrap protocol so callers can still use errors.Is/As against the
// wrapped cause (e.g. an os.PathError from a load/save handler).
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind, so callers can
// write errors.Is(err, types.ErrFileNotFound) without comparing pointers.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons. Wrap with WithCause to attach context
// or an underlying OS error without losing the Kind.
var (
	ErrFileNotFound        = &Error{Kind: ErrNotFound, Msg: "path or value not found"}
	ErrNoMoreItemsSentinel = &Error{Kind: ErrNoMoreItems, Msg: "no more items"}
	ErrKeyDeletedSentinel  = &Error{Kind: ErrKeyDeleted, Msg: "key has been deleted"}
	ErrAccessDeniedErr     = &Error{Kind: ErrAccessDenied, Msg: "access denied"}
	ErrChildVolatileErr    = &Error{Kind: ErrChildMustBeVolatile, Msg: "child of a volatile key must be volatile"}
	ErrOutOfMemoryErr      = &Error{Kind: ErrOutOfMemory, Msg: "out of memory"}
	ErrNotRegistryFileErr  = &Error{Kind: ErrNotRegistryFile, Msg: "not a registry file"}
)

// WithCause returns a copy of sentinel with Err set to cause, preserving Kind
// and Msg. Use this at the point an underlying error (e.g. a short write, or
// a malformed line) needs to be surfaced alongside the stable category.
func WithCause(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Msg: sentinel.Msg, Err: cause}
}

// WithDetail returns a copy of sentinel with msg appended, for error paths
// that want to name the offending path/value without losing the category.
func WithDetail(sentinel *Error, detail string) *Error {
	return &Error{Kind: sentinel.Kind, Msg: sentinel.Msg + ": " + detail}
}
