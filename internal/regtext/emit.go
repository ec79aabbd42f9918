package regtext

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/compatlayer/regtree/internal/tree"
	"github.com/compatlayer/regtree/internal/wstr"
	"github.com/compatlayer/regtree/pkg/types"
)

// hexLineWidth bounds how many bytes of a hex list are written per physical
// line before a continuation is emitted, matching regedit's own wrapping so
// large binary values stay readable (spec §4.6 hexlist continuation).
const hexLineWidth = 16

// DumpPath renders k's ancestor chain as the grammar's bracketed-path text,
// without the surrounding brackets. rootLabel names the well-known root the
// caller knows k descends from; if the chain instead tops out at a detached,
// non-root key (an orphan reachable only through a retained handle), the
// placeholder "?????" is emitted in rootLabel's place, matching the source's
// debug-dump behavior.
func DumpPath(k *tree.Key, rootLabel string) string {
	var segments []string
	cur := k
	for cur.Parent() != nil {
		segments = append(segments, EscapeWStr(cur.Name(), pathDelims))
		cur = cur.Parent()
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}

	top := "?????"
	if cur.IsRoot() {
		top = rootLabel
	}
	return strings.Join(append([]string{top}, segments...), `\`)
}

// Export walks root's subtree and renders the v2 text format, per
// save_subkeys (spec §4.6): VOLATILE subtrees are skipped entirely, a key
// block is emitted for a key iff its level is at least savingLevel and it
// either carries values or has no subkeys of its own (a childless key with
// no values would otherwise round-trip to nothing, so it still needs its own
// block to exist at all after a reload).
func Export(root *tree.Key, rootLabel string, savingLevel int) []byte {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')
	saveSubkeys(&b, root, rootLabel, savingLevel)
	return []byte(b.String())
}

func saveSubkeys(b *strings.Builder, k *tree.Key, rootLabel string, savingLevel int) {
	if k.IsVolatile() {
		return
	}

	if k.Level() >= savingLevel && (k.ValueCount() > 0 || k.SubkeyCount() == 0) {
		writeKeyBlock(b, k, rootLabel, savingLevel)
	}

	for i := 0; i < k.SubkeyCount(); i++ {
		saveSubkeys(b, k.SubkeyAt(i), rootLabel, savingLevel)
	}
}

func writeKeyBlock(b *strings.Builder, k *tree.Key, rootLabel string, savingLevel int) {
	b.WriteByte('\n')
	b.WriteByte('[')
	b.WriteString(DumpPath(k, rootLabel))
	b.WriteByte(']')
	fmt.Fprintf(b, " %d", k.ModTime().Unix())
	b.WriteByte('\n')

	for i := 0; i < k.ValueCount(); i++ {
		writeValueLine(b, k.ValueAt(i))
	}
}

func writeValueLine(b *strings.Builder, v *tree.KeyValue) {
	if len(v.Name()) == 0 {
		b.WriteString("@=")
	} else {
		b.WriteByte('"')
		b.WriteString(EscapeWStr(v.Name(), stringDelims))
		b.WriteString(`"=`)
	}
	writeTypedValue(b, v.Type(), v.Data())
	b.WriteByte('\n')
}

func writeTypedValue(b *strings.Builder, typ types.RegType, data []byte) {
	switch typ {
	case types.REG_SZ:
		writeQuoted(b, wstr.FromBytesLE(data))
	case types.REG_EXPAND_SZ:
		b.WriteString("str(2):")
		writeQuoted(b, wstr.FromBytesLE(data))
	case types.REG_MULTI_SZ:
		b.WriteString("str(7):")
		writeQuoted(b, wstr.FromBytesLE(data))
	case types.REG_DWORD:
		val := uint32(0)
		if len(data) >= 4 {
			val = binary.LittleEndian.Uint32(data)
		}
		fmt.Fprintf(b, "dword:%08x", val)
	case types.REG_BINARY:
		b.WriteString("hex:")
		writeHexList(b, data)
	default:
		fmt.Fprintf(b, "hex(%x):", uint32(typ))
		writeHexList(b, data)
	}
}

func writeQuoted(b *strings.Builder, s wstr.WStr) {
	b.WriteByte('"')
	b.WriteString(EscapeWStr(s, stringDelims))
	b.WriteByte('"')
}

func writeHexList(b *strings.Builder, data []byte) {
	for i, by := range data {
		if i > 0 {
			b.WriteByte(',')
		}
		if i > 0 && i%hexLineWidth == 0 {
			b.WriteString("\\\n  ")
		}
		fmt.Fprintf(b, "%02x", by)
	}
}
