// Package regtextv1 implements the legacy, write-only text format (spec
// §4.7): indentation-based nesting instead of bracketed paths, and a
// narrower escape grammar than the v2 codec in internal/regtext.
package regtextv1

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/compatlayer/regtree/internal/tree"
	"github.com/compatlayer/regtree/internal/wstr"
	"github.com/compatlayer/regtree/pkg/types"
)

// escapeV1 renders s using the legacy grammar: \uXXXX for any code unit
// above 0x7F, \n for newline, \= for the field separator, and a
// self-escaped backslash. Everything else passes through unchanged.
func escapeV1(s wstr.WStr) string {
	var b strings.Builder
	for _, u := range s {
		switch {
		case u == '\\':
			b.WriteString(`\\`)
		case u == '\n':
			b.WriteString(`\n`)
		case u == '=':
			b.WriteString(`\=`)
		case u > 0x7F:
			fmt.Fprintf(&b, `\u%04x`, u)
		default:
			b.WriteRune(rune(u))
		}
	}
	return b.String()
}

// computeLevels fills levels with each key's effective saving level: its own
// level, raised to the maximum level appearing anywhere in its subtree. This
// is update_level (spec §4.7) — without it, an ancestor whose own level is
// below savingLevel would be skipped even though a descendant below it still
// needs saving, since the indentation format (unlike v2's per-key bracketed
// path) cannot emit a descendant without first emitting its ancestor line.
func computeLevels(k *tree.Key, levels map[*tree.Key]int) int {
	lvl := k.Level()
	for i := 0; i < k.SubkeyCount(); i++ {
		if c := computeLevels(k.SubkeyAt(i), levels); c > lvl {
			lvl = c
		}
	}
	levels[k] = lvl
	return lvl
}

// Export renders root's subtree in the legacy format. rootLabel is used as
// the unindented top line, matching the well-known root name the v2 codec
// would place at the top of a dumped path.
func Export(root *tree.Key, rootLabel string, savingLevel int) []byte {
	levels := make(map[*tree.Key]int)
	computeLevels(root, levels)

	var b strings.Builder
	writeNode(&b, root, rootLabel, 0, levels, savingLevel)
	return []byte(b.String())
}

func writeNode(b *strings.Builder, k *tree.Key, name string, depth int, levels map[*tree.Key]int, savingLevel int) {
	if k.IsVolatile() || levels[k] < savingLevel {
		return
	}

	indent := strings.Repeat("\t", depth)
	b.WriteString(indent)
	b.WriteString(name)
	b.WriteByte('\n')

	valueIndent := indent + "\t"
	for i := 0; i < k.ValueCount(); i++ {
		b.WriteString(valueIndent)
		writeValueLine(b, k.ValueAt(i))
	}

	for i := 0; i < k.SubkeyCount(); i++ {
		child := k.SubkeyAt(i)
		writeNode(b, child, escapeV1(child.Name()), depth+1, levels, savingLevel)
	}
}

func writeValueLine(b *strings.Builder, v *tree.KeyValue) {
	name := "@"
	if len(v.Name()) > 0 {
		name = escapeV1(v.Name())
	}

	var payload string
	switch v.Type() {
	case types.REG_SZ, types.REG_EXPAND_SZ, types.REG_MULTI_SZ:
		payload = escapeV1(wstr.FromBytesLE(v.Data()))
	default:
		payload = hex.EncodeToString(v.Data())
	}

	fmt.Fprintf(b, "%s=%d,0,%s\n", name, uint32(v.Type()), payload)
}
