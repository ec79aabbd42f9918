package wstr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/compatlayer/regtree/internal/wstr"
)

func TestCompareFold(t *testing.T) {
	a := wstr.FromString("Software")
	b := wstr.FromString("SOFTWARE")
	c := wstr.FromString("Softwarf")

	assert.Equal(t, 0, wstr.CompareFold(a, b))
	assert.True(t, wstr.EqualFold(a, b))
	assert.Less(t, wstr.CompareFold(a, c), 0)
	assert.Less(t, wstr.CompareFold(wstr.FromString("A"), wstr.FromString("B")), 0)
}

func TestTokenizer(t *testing.T) {
	tok := wstr.NewTokenizer(wstr.FromString(`\A\B\C`))

	var got []string
	for {
		tk, ok := tok.Next()
		if !ok {
			break
		}
		got = append(got, tk.String())
	}
	assert.Equal(t, []string{"A", "B", "C"}, got)
}

func TestTokenizerEmptyPath(t *testing.T) {
	_, ok := wstr.NewTokenizer(nil).Next()
	assert.False(t, ok)
}

func TestTokensHelper(t *testing.T) {
	toks := wstr.Tokens(wstr.FromString(`A\B\\C\`))
	assert.Len(t, toks, 3)
	assert.Equal(t, "A", toks[0].String())
	assert.Equal(t, "B", toks[1].String())
	assert.Equal(t, "C", toks[2].String())
}

func TestCopyPathTruncates(t *testing.T) {
	long := make(wstr.WStr, wstr.MaxPath+50)
	for i := range long {
		long[i] = 'x'
	}
	out := wstr.CopyPath(long)
	assert.Len(t, out, wstr.MaxPath)
}
