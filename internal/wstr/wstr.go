// Package wstr implements the wide-character string and path utilities the
// tree and text codecs share: case-insensitive comparison over 16-bit code
// units, a length-bounded path tokenizer, and the fixed-size scratch buffers
// the original RPC request structures used (spec §4.1).
package wstr

import (
	"unicode/utf16"

	"golang.org/x/text/cases"
)

// MaxPath is the maximum number of code units a path field in a request
// buffer may hold, matching the original path_t capacity.
const MaxPath = 260

// WStr is a string of 16-bit code units. Unlike a Go string it can hold
// unpaired surrogates and other values with no valid UTF-8 rendering, which
// the text codec's escape grammar must round-trip byte-for-byte (spec P5).
type WStr []uint16

// FromString encodes a native Go string into wide code units.
func FromString(s string) WStr {
	return WStr(utf16.Encode([]rune(s)))
}

// String decodes w into a Go string. Unpaired surrogates decode to the
// Unicode replacement character, same as utf16.Decode.
func (w WStr) String() string {
	return string(utf16.Decode(w))
}

// Equal reports whether w and o are the same sequence of code units.
func (w WStr) Equal(o WStr) bool {
	if len(w) != len(o) {
		return false
	}
	for i := range w {
		if w[i] != o[i] {
			return false
		}
	}
	return true
}

var fold = cases.Fold()

// CompareFold implements strcmpiW: a case-insensitive comparison of two wide
// strings, returning <0, 0, >0 like strings.Compare. Folding is performed
// rune-wise over the decoded text so multi-code-unit case mappings (rare in
// the BMP) are handled the same way golang.org/x/text/cases handles them
// for ordinary text, rather than a naive per-code-unit unicode.ToUpper.
func CompareFold(a, b WStr) int {
	fa := fold.String(a.String())
	fb := fold.String(b.String())
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	default:
		return 0
	}
}

// EqualFold reports whether a and b compare equal under CompareFold.
func EqualFold(a, b WStr) bool {
	return CompareFold(a, b) == 0
}

// FromBytesLE decodes a little-endian-encoded byte buffer (the wire form a
// REG_SZ/REG_EXPAND_SZ/REG_MULTI_SZ value's data holds) into code units. A
// trailing odd byte, if present, is dropped.
func FromBytesLE(b []byte) WStr {
	n := len(b) / 2
	out := make(WStr, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return out
}

// BytesLE encodes w back into the little-endian byte form used for value
// data, the inverse of FromBytesLE.
func (w WStr) BytesLE() []byte {
	out := make([]byte, len(w)*2)
	for i, u := range w {
		out[2*i] = byte(u)
		out[2*i+1] = byte(u >> 8)
	}
	return out
}
