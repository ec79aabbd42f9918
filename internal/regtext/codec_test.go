package regtext_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compatlayer/regtree/internal/regtext"
	"github.com/compatlayer/regtree/internal/tree"
	"github.com/compatlayer/regtree/internal/wstr"
	"github.com/compatlayer/regtree/pkg/types"
)

func mustCreate(t *testing.T, base *tree.Key, path string) *tree.Key {
	t.Helper()
	k, _, err := base.CreateKey(wstr.FromString(path), tree.CreateOptions{})
	require.NoError(t, err)
	return k
}

// S5: save a two-key tree with a value containing a non-ASCII char and a
// newline, reload into a fresh tree, and verify byte-identical round trip.
func TestScenario5_SaveReloadNonASCIIValue(t *testing.T) {
	root := tree.NewRoot(nil)
	defer root.Release()

	app := mustCreate(t, root, `Soft\App`)
	greeting := wstr.FromString("héllo\n")
	app.SetValue(wstr.FromString("greet"), types.REG_SZ, greeting.BytesLE(), 0)

	exported := regtext.Export(root, "HKEY_LOCAL_MACHINE", 0)

	fresh := tree.NewRoot(nil)
	defer fresh.Release()

	errs, err := regtext.Import(exported, fresh, 0)
	require.NoError(t, err)
	assert.Empty(t, errs)

	reloaded, err := fresh.OpenKey(wstr.FromString(`Soft\App`))
	require.NoError(t, err)
	defer reloaded.Release()

	data, typ, ok := reloaded.GetValue(wstr.FromString("greet"))
	require.True(t, ok)
	assert.Equal(t, types.REG_SZ, typ)
	assert.Equal(t, greeting, wstr.FromBytesLE(data))
}

// S6: a v1-labeled header fails with NOT_REGISTRY_FILE and leaves the
// target tree untouched.
func TestScenario6_WrongHeaderVersion(t *testing.T) {
	root := tree.NewRoot(nil)
	defer root.Release()

	text := "WINE REGISTRY Version 1\n[Foo]\n"
	_, err := regtext.Import([]byte(text), root, 0)
	assert.ErrorIs(t, err, types.ErrNotRegistryFileErr)
	assert.Equal(t, 0, root.SubkeyCount())
}

func TestImportSkipsVolatileOnExport(t *testing.T) {
	root := tree.NewRoot(nil)
	defer root.Release()

	v, _, err := root.CreateKey(wstr.FromString("Vol"), tree.CreateOptions{Volatile: true})
	require.NoError(t, err)
	defer v.Release()
	v.SetValue(wstr.FromString("x"), types.REG_SZ, wstr.FromString("y").BytesLE(), 0)

	exported := regtext.Export(root, "HKEY_LOCAL_MACHINE", 0)
	assert.NotContains(t, string(exported), "Vol")
}

// P4: load(save(T)) must compare structurally equal to T under
// (name, class, type, data, modif) — modif included. The grammar only
// carries Unix-second resolution, so the comparison is at that
// granularity too.
func TestModTimeRoundTripsThroughSaveLoad(t *testing.T) {
	root := tree.NewRoot(nil)
	defer root.Release()

	app := mustCreate(t, root, "App")
	before := app.ModTime()

	exported := regtext.Export(root, "HKEY_LOCAL_MACHINE", 0)

	fresh := tree.NewRoot(nil)
	defer fresh.Release()
	_, err := regtext.Import(exported, fresh, 0)
	require.NoError(t, err)

	reloaded, err := fresh.OpenKey(wstr.FromString("App"))
	require.NoError(t, err)
	defer reloaded.Release()

	assert.Equal(t, before.Unix(), reloaded.ModTime().Unix())
}

func TestImportLineErrorsAreNonFatal(t *testing.T) {
	root := tree.NewRoot(nil)
	defer root.Release()

	text := "WINE REGISTRY Version 2\n\ngarbage line\n[Foo]\n\"v\"=\"ok\"\n"
	errs, err := regtext.Import([]byte(text), root, 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)

	foo, err := root.OpenKey(wstr.FromString("Foo"))
	require.NoError(t, err)
	defer foo.Release()
	_, _, ok := foo.GetValue(wstr.FromString("v"))
	assert.True(t, ok)
}
