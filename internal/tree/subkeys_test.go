package tree_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compatlayer/regtree/internal/tree"
	"github.com/compatlayer/regtree/internal/wstr"
)

// P1/I6: subkeys stay sorted (fold-insensitive) at every size, and lookups
// agree with a linear scan.
func TestSubkeysStaySortedUnderFoldedNames(t *testing.T) {
	root := tree.NewRoot(nil)
	defer root.Release()

	names := []string{"beta", "Alpha", "DELTA", "gamma", "alpha2"}
	for _, n := range names {
		k, _, err := root.CreateKey(ws(n), tree.CreateOptions{Volatile: true})
		require.NoError(t, err)
		k.Release()
	}

	require.Equal(t, len(names), root.SubkeyCount())
	prev := ""
	for i := 0; i < root.SubkeyCount(); i++ {
		name, _, _, err := root.EnumKey(i)
		require.NoError(t, err)
		assert.True(t, wstr.CompareFold(ws(prev), name) <= 0)
		prev = name.String()
	}

	for _, n := range names {
		found, _ := root.FindSubkey(ws(n))
		assert.True(t, found, n)
	}
}

// Growing to 40 subkeys and deleting them all runs the array through its
// grow and shrink paths. The backing capacity is not visible from this
// package, so the test checks that every delete succeeds and the count
// returns to zero.
func TestSubkeyArrayShrinksButFloorsAtMinimum(t *testing.T) {
	root := tree.NewRoot(nil)
	defer root.Release()

	const n = 40
	for i := 0; i < n; i++ {
		k, _, err := root.CreateKey(ws(fmt.Sprintf("k%03d", i)), tree.CreateOptions{Volatile: true})
		require.NoError(t, err)
		k.Release()
	}
	require.Equal(t, n, root.SubkeyCount())

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("k%03d", i)
		require.NoError(t, root.DeleteKey(ws(name), 0))
	}
	assert.Equal(t, 0, root.SubkeyCount())
}

func TestCreateKeyDuplicateSegmentReturnsExisting(t *testing.T) {
	root := tree.NewRoot(nil)
	defer root.Release()

	first, _, err := root.CreateKey(ws("Dup"), tree.CreateOptions{Volatile: true})
	require.NoError(t, err)
	defer first.Release()

	second, created, err := root.CreateKey(ws("DUP"), tree.CreateOptions{Volatile: true})
	require.NoError(t, err)
	defer second.Release()

	assert.False(t, created)
	assert.Same(t, first, second)
	assert.Equal(t, 1, root.SubkeyCount())
}
