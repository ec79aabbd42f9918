// Package regtext implements the primary ("WINE REGISTRY Version 2") text
// codec: escape grammar, key/value parsing, and export (spec §4.6).
package regtext

import (
	"log/slog"

	"github.com/compatlayer/regtree/internal/tree"
)

// Codec bundles the v2 loader and exporter for the dispatcher's load/save
// handlers (SPEC_FULL §4.6/§4.7 expansion). internal/regtextv1 has no Codec
// type: the dispatcher calls its package-level Export directly when the
// saving version is 1.
type Codec struct {
	log *slog.Logger
}

// NewCodec builds a Codec. A nil logger falls back to slog.Default().
func NewCodec(log *slog.Logger) *Codec {
	if log == nil {
		log = slog.Default()
	}
	return &Codec{log: log}
}

// Import parses text into target, logging (not failing on) every line-level
// error per spec §7.
func (c *Codec) Import(text []byte, target *tree.Key, currentLevel int) error {
	errs, err := Import(text, target, currentLevel)
	if err != nil {
		return err
	}
	for _, e := range errs {
		c.log.Warn("regtext: line parse error", "line", e.Line, "msg", e.Msg)
	}
	return nil
}

// Export renders root's subtree as v2 text.
func (c *Codec) Export(root *tree.Key, rootLabel string, savingLevel int) ([]byte, error) {
	return Export(root, rootLabel, savingLevel), nil
}
