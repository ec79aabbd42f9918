package regtext

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/compatlayer/regtree/internal/tree"
	"github.com/compatlayer/regtree/internal/wstr"
	"github.com/compatlayer/regtree/pkg/types"
)

// ParseError records a single line-level failure from Import. Per spec §7,
// these are non-fatal: the loader logs them and keeps going.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

var rootPrefixes = []string{
	"HKEY_CLASSES_ROOT", "HKCR",
	"HKEY_CURRENT_USER", "HKCU",
	"HKEY_LOCAL_MACHINE", "HKLM",
	"HKEY_USERS", "HKU",
	"HKEY_CURRENT_CONFIG", "HKCC",
}

// NormalizeRootPrefix strips a leading well-known root label (long or short
// form) and its following separator from path, so a text-file path can be
// resolved relative to whatever key the load targets (spec §4.1 expansion).
func NormalizeRootPrefix(path string) string {
	for _, prefix := range rootPrefixes {
		if strings.EqualFold(path, prefix) {
			return ""
		}
		withSep := prefix + `\`
		if len(path) > len(withSep) && strings.EqualFold(path[:len(withSep)], withSep) {
			return path[len(withSep):]
		}
	}
	return path
}

// splitPathSegments splits the bracketed path text on unescaped backslashes.
// A doubled backslash ("\\") is the escaped form of a literal backslash
// inside a component and is passed through for UnescapeWStr to resolve; a
// single backslash is the path separator (spec §4.6 path emission).
func splitPathSegments(raw string) []string {
	var segs []string
	var cur strings.Builder
	i := 0
	for i < len(raw) {
		if raw[i] == '\\' {
			if i+1 < len(raw) && raw[i+1] == '\\' {
				cur.WriteString(`\\`)
				i += 2
				continue
			}
			segs = append(segs, cur.String())
			cur.Reset()
			i++
			continue
		}
		cur.WriteByte(raw[i])
		i++
	}
	segs = append(segs, cur.String())
	return segs
}

// Import parses text (the v2 grammar) and replays it as create_key/set_value
// calls rooted at target. Per spec §4.6/§7: the header line must equal
// Header exactly or the whole load fails with ErrNotRegistryFile; every
// other line-level failure is collected and returned alongside whatever was
// successfully applied, rather than aborting the load.
func Import(text []byte, target *tree.Key, currentLevel int) ([]*ParseError, error) {
	scanner := bufio.NewScanner(bytes.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lineNo := 0
	if !scanner.Scan() {
		return nil, types.ErrNotRegistryFileErr
	}
	lineNo++
	if strings.TrimRight(scanner.Text(), "\r") != Header {
		return nil, types.ErrNotRegistryFileErr
	}

	var errs []*ParseError
	var current *tree.Key

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "#"), strings.HasPrefix(trimmed, ";"):
			continue
		case strings.HasPrefix(trimmed, "["):
			key, err := parseKeyBlock(trimmed, target, currentLevel)
			if err != nil {
				errs = append(errs, &ParseError{Line: lineNo, Msg: err.Error()})
				current = nil
				continue
			}
			current = key
		case strings.HasPrefix(trimmed, `"`), strings.HasPrefix(trimmed, "@"):
			if current == nil {
				errs = append(errs, &ParseError{Line: lineNo, Msg: "value line with no current key"})
				continue
			}
			if err := parseValueLine(scanner, trimmed, current, currentLevel); err != nil {
				errs = append(errs, &ParseError{Line: lineNo, Msg: err.Error()})
			}
		default:
			errs = append(errs, &ParseError{Line: lineNo, Msg: "unrecognized line"})
		}
	}
	if err := scanner.Err(); err != nil {
		return errs, types.WithCause(types.ErrOutOfMemoryErr, err)
	}
	return errs, nil
}

func parseKeyBlock(line string, target *tree.Key, currentLevel int) (*tree.Key, error) {
	end := strings.LastIndexByte(line, ']')
	if !strings.HasPrefix(line, "[") || end < 1 {
		return nil, fmt.Errorf("malformed key block %q", line)
	}
	raw := line[1:end]
	pathStr := NormalizeRootPrefix(raw)

	var path wstr.WStr
	for _, seg := range splitPathSegments(pathStr) {
		if seg == "" {
			continue
		}
		name, err := UnescapeWStr(seg)
		if err != nil {
			return nil, err
		}
		if len(path) > 0 {
			path = append(path, '\\')
		}
		path = append(path, name...)
	}

	key, _, err := target.CreateKey(path, tree.CreateOptions{CurrentLevel: currentLevel})
	if err != nil {
		return nil, err
	}

	if modif, ok, err := parseKeyModif(line[end+1:]); err != nil {
		key.Release()
		return nil, err
	} else if ok {
		key.SetModTime(modif)
	}

	key.Release() // the key tree itself owns it via the parent edge; we keep no handle here
	return key, nil
}

// parseKeyModif parses the key block's optional trailing `WS decimal_modif`
// field (spec §4.6 grammar) — a Unix timestamp in seconds — so a reload
// restores the saved modif instead of stamping the moment of the load (spec
// P4).
func parseKeyModif(tail string) (t time.Time, ok bool, err error) {
	tail = strings.TrimSpace(tail)
	if tail == "" {
		return time.Time{}, false, nil
	}
	sec, err := strconv.ParseInt(tail, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid key modif %q: %w", tail, err)
	}
	return time.Unix(sec, 0).UTC(), true, nil
}

func parseValueLine(scanner *bufio.Scanner, line string, current *tree.Key, currentLevel int) error {
	eq := strings.IndexByte(line, '=')
	if strings.HasPrefix(line, `"`) {
		// The quoted name may itself contain '=': the separator is the
		// character right after the closing quote.
		if end := findClosingQuote(line); end >= 0 {
			eq = end + 1
		}
	}
	if eq < 0 || eq >= len(line) || line[eq] != '=' {
		return fmt.Errorf("value line missing '='")
	}
	namePart := line[:eq]
	payload := line[eq+1:]

	var name wstr.WStr
	if namePart != "@" {
		if len(namePart) < 2 || namePart[0] != '"' || namePart[len(namePart)-1] != '"' {
			return fmt.Errorf("malformed value name %q", namePart)
		}
		unesc, err := UnescapeWStr(namePart[1 : len(namePart)-1])
		if err != nil {
			return err
		}
		name = unesc
	}

	typ, data, err := parseTypedValue(scanner, payload)
	if err != nil {
		return err
	}
	// SetValue touches the key; loading a value leaves modif as the key block
	// set it, so a saved modif survives the reload.
	modif := current.ModTime()
	current.SetValue(name, typ, data, currentLevel)
	current.SetModTime(modif)
	return nil
}

func parseTypedValue(scanner *bufio.Scanner, payload string) (types.RegType, []byte, error) {
	switch {
	case strings.HasPrefix(payload, `"`):
		s, err := parseQuotedString(payload)
		if err != nil {
			return 0, nil, err
		}
		return types.REG_SZ, s.BytesLE(), nil

	case strings.HasPrefix(payload, strOpen):
		n, rest, err := parseParenNumber(payload, strOpen)
		if err != nil {
			return 0, nil, err
		}
		s, err := parseQuotedString(rest)
		if err != nil {
			return 0, nil, err
		}
		return types.RegType(n), s.BytesLE(), nil

	case strings.HasPrefix(payload, tagDword):
		hexDigits := strings.TrimSpace(payload[len(tagDword):])
		v, err := strconv.ParseUint(hexDigits, 16, 32)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid dword %q: %w", hexDigits, err)
		}
		data := make([]byte, 4)
		binary.LittleEndian.PutUint32(data, uint32(v))
		return types.REG_DWORD, data, nil

	case strings.HasPrefix(payload, tagHex):
		data, err := parseHexList(scanner, payload[len(tagHex):])
		if err != nil {
			return 0, nil, err
		}
		return types.REG_BINARY, data, nil

	case strings.HasPrefix(payload, hexOpen):
		n, rest, err := parseParenNumber(payload, hexOpen)
		if err != nil {
			return 0, nil, err
		}
		if !strings.HasPrefix(rest, ":") {
			return 0, nil, fmt.Errorf("malformed hex(N) tag %q", payload)
		}
		data, err := parseHexList(scanner, rest[1:])
		if err != nil {
			return 0, nil, err
		}
		return types.RegType(n), data, nil

	default:
		return 0, nil, fmt.Errorf("unrecognized value payload %q", payload)
	}
}

func parseParenNumber(payload, openTag string) (int, string, error) {
	rest := payload[len(openTag):]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return 0, "", fmt.Errorf("unterminated %s tag", openTag)
	}
	base := 10
	digits := rest[:end]
	if openTag == hexOpen {
		base = 16
	}
	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return 0, "", fmt.Errorf("invalid numeric tag %q: %w", digits, err)
	}
	tail := rest[end+1:]
	if !strings.HasPrefix(tail, ":") && openTag == strOpen {
		return 0, "", fmt.Errorf("malformed str(N) tag %q", payload)
	}
	if openTag == strOpen {
		tail = tail[1:]
	}
	return int(n), tail, nil
}

func parseQuotedString(s string) (wstr.WStr, error) {
	if len(s) < 2 || s[0] != '"' {
		return nil, fmt.Errorf("expected quoted string, got %q", s)
	}
	end := findClosingQuote(s)
	if end < 0 {
		return nil, fmt.Errorf("unterminated string %q", s)
	}
	return UnescapeWStr(s[1:end])
}

// findClosingQuote locates the unescaped closing quote in s (s[0] == '"'),
// accounting for backslash-escaped quotes.
func findClosingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		if s[i] != '"' {
			continue
		}
		backslashes := 0
		for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 1 {
			continue
		}
		return i
	}
	return -1
}

// parseHexList parses a comma-separated hex byte list, following a trailing
// backslash onto the scanner's next line(s) as continuations (spec §4.6
// hexlist grammar).
func parseHexList(scanner *bufio.Scanner, rest string) ([]byte, error) {
	var raw strings.Builder
	raw.WriteString(rest)
	for strings.HasSuffix(strings.TrimRight(raw.String(), " \t"), `\`) {
		if !scanner.Scan() {
			break
		}
		trimmed := strings.TrimRight(raw.String(), " \t")
		raw.Reset()
		raw.WriteString(strings.TrimSuffix(trimmed, `\`))
		raw.WriteString(strings.TrimLeft(scanner.Text(), " \t"))
	}

	var out []byte
	for _, part := range strings.Split(raw.String(), ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		if len(p) == 1 {
			p = "0" + p
		}
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte %q: %w", p, err)
		}
		out = append(out, byte(v))
	}
	return out, nil
}
