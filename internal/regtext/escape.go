package regtext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/compatlayer/regtree/internal/wstr"
)

// namedEscapes maps the control codes with a dedicated C-style mnemonic to
// the letter used after the backslash (spec §4.6 escape rules).
var namedEscapes = map[uint16]byte{
	0x07: 'a',
	0x08: 'b',
	0x09: 't',
	0x0A: 'n',
	0x0B: 'v',
	0x0C: 'f',
	0x0D: 'r',
	0x1B: 'e',
}

var namedUnescapes = map[byte]uint16{
	'a': 0x07, 'b': 0x08, 't': 0x09, 'n': 0x0A,
	'v': 0x0B, 'f': 0x0C, 'r': 0x0D, 'e': 0x1B,
}

func isHexDigit(u uint16) bool {
	return (u >= '0' && u <= '9') || (u >= 'a' && u <= 'f') || (u >= 'A' && u <= 'F')
}

func isHexByte(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isOctalDigit(u uint16) bool {
	return u >= '0' && u <= '7'
}

// EscapeWStr renders s as text for embedding between the two active
// delimiter characters (e.g. the quotes around a string, or the brackets
// around a path), following dump_strW's rules: characters ≥128 become
// \xHHHH (4-digit padded only when disambiguation is needed against a
// following hex digit, else shortest form); controls below 32 use the named
// C mnemonics where one exists, else \NNN octal with the same
// next-char-driven padding rule; backslash and either delimiter are
// backslash-escaped literally; everything else passes through unchanged.
func EscapeWStr(s wstr.WStr, delims [2]uint16) string {
	var b strings.Builder
	for i, u := range s {
		hasNext := i+1 < len(s)
		var next uint16
		if hasNext {
			next = s[i+1]
		}
		switch {
		case u == '\\' || u == delims[0] || u == delims[1]:
			b.WriteByte('\\')
			b.WriteRune(rune(u))
		case u < 32:
			if letter, ok := namedEscapes[u]; ok {
				b.WriteByte('\\')
				b.WriteByte(letter)
				continue
			}
			if hasNext && isOctalDigit(next) {
				fmt.Fprintf(&b, "\\%03o", u)
			} else {
				fmt.Fprintf(&b, "\\%o", u)
			}
		case u >= 128:
			if hasNext && isHexDigit(next) {
				fmt.Fprintf(&b, "\\x%04x", u)
			} else {
				fmt.Fprintf(&b, "\\x%x", u)
			}
		default:
			b.WriteRune(rune(u))
		}
	}
	return b.String()
}

// UnescapeWStr reverses EscapeWStr. Every escape sequence is self-describing,
// so unescaping does not need to know which delimiters were active when the
// text was written.
func UnescapeWStr(s string) (wstr.WStr, error) {
	var out wstr.WStr
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '\\' {
			out = append(out, uint16(c))
			i++
			continue
		}
		i++
		if i >= len(s) {
			return nil, fmt.Errorf("trailing backslash")
		}
		esc := s[i]
		if u, ok := namedUnescapes[esc]; ok {
			out = append(out, u)
			i++
			continue
		}
		switch {
		case esc == 'x':
			i++
			start := i
			for i < len(s) && i-start < 4 && isHexByte(s[i]) {
				i++
			}
			if i == start {
				return nil, fmt.Errorf("invalid \\x escape at offset %d", start)
			}
			v, err := strconv.ParseUint(s[start:i], 16, 32)
			if err != nil {
				return nil, err
			}
			out = append(out, uint16(v))
		case esc >= '0' && esc <= '7':
			start := i
			for i < len(s) && i-start < 3 && s[i] >= '0' && s[i] <= '7' {
				i++
			}
			v, err := strconv.ParseUint(s[start:i], 8, 32)
			if err != nil {
				return nil, err
			}
			out = append(out, uint16(v))
		default:
			// Backslash, a delimiter, or any other escaped literal character.
			out = append(out, uint16(esc))
			i++
		}
	}
	return out, nil
}
