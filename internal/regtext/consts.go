package regtext

// Header is the exact first line required by the v2 loader (spec §4.6). Any
// other first line fails the load with types.ErrNotRegistryFileErr.
const Header = "WINE REGISTRY Version 2"

// Delimiter pairs used by EscapeWStr/UnescapeWStr for the two contexts the
// grammar escapes text in: inside a quoted string, and inside a key path
// between '[' and ']'.
var (
	stringDelims = [2]uint16{'"', '"'}
	pathDelims   = [2]uint16{'[', ']'}
)

const (
	tagHex     = "hex:"
	tagDword   = "dword:"
	tagStr     = "str:"
	hexOpen    = "hex("
	strOpen    = "str("
	closeParen = ")"
)
