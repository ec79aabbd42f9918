package regtextv1_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compatlayer/regtree/internal/regtextv1"
	"github.com/compatlayer/regtree/internal/tree"
	"github.com/compatlayer/regtree/internal/wstr"
	"github.com/compatlayer/regtree/pkg/types"
)

func TestExportIndentsByDepth(t *testing.T) {
	root := tree.NewRoot(nil)
	defer root.Release()

	app, _, err := root.CreateKey(wstr.FromString(`Soft\App`), tree.CreateOptions{})
	require.NoError(t, err)
	defer app.Release()
	app.SetValue(wstr.FromString("greet"), types.REG_SZ, wstr.FromString("hi").BytesLE(), 0)

	out := string(regtextv1.Export(root, "HKEY_LOCAL_MACHINE", 0))

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "HKEY_LOCAL_MACHINE", lines[0])
	assert.Equal(t, "\tSoft", lines[1])
	assert.Equal(t, "\t\tApp", lines[2])
	assert.Equal(t, "\t\t\tgreet=1,0,hi", lines[3])
}

func TestExportSkipsBelowSavingLevel(t *testing.T) {
	root := tree.NewRoot(nil)
	defer root.Release()

	low, _, err := root.CreateKey(wstr.FromString("Low"), tree.CreateOptions{CurrentLevel: 0})
	require.NoError(t, err)
	defer low.Release()

	out := string(regtextv1.Export(root, "HKEY_LOCAL_MACHINE", 5))
	assert.NotContains(t, out, "Low")
}

func TestExportKeepsAncestorOfDeepLevelDescendant(t *testing.T) {
	root := tree.NewRoot(nil)
	defer root.Release()

	deep, _, err := root.CreateKey(wstr.FromString(`Shallow\Deep`), tree.CreateOptions{CurrentLevel: 0})
	require.NoError(t, err)
	defer deep.Release()
	deep.SetValue(nil, types.REG_SZ, nil, 9)

	out := string(regtextv1.Export(root, "HKEY_LOCAL_MACHINE", 9))
	assert.Contains(t, out, "Shallow")
	assert.Contains(t, out, "Deep")
}
