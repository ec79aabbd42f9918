package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compatlayer/regtree/internal/wstr"
	"github.com/compatlayer/regtree/pkg/handle"
	"github.com/compatlayer/regtree/pkg/registry"
	"github.com/compatlayer/regtree/pkg/types"
)

func ws(s string) wstr.WStr { return wstr.FromString(s) }

func newReg(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	t.Cleanup(r.Shutdown)
	return r
}

// S1, via the dispatcher: create A\B\C then A\B\D, enumerate A\B.
func TestDispatcherScenario1_EnumOrder(t *testing.T) {
	r := newReg(t)

	_, err := r.CreateKey(registry.CreateKeyRequest{HKey: types.HKeyLocalMachine, Path: ws(`A\B\C`), Volatile: true})
	require.NoError(t, err)
	_, err = r.CreateKey(registry.CreateKeyRequest{HKey: types.HKeyLocalMachine, Path: ws(`A\B\D`), Volatile: true})
	require.NoError(t, err)

	h, err := r.OpenKey(types.HKeyLocalMachine, ws(`A\B`))
	require.NoError(t, err)
	defer r.CloseKey(types.HKey(h))

	reply0, err := r.EnumKey(types.HKey(h), 0)
	require.NoError(t, err)
	assert.Equal(t, "C", reply0.Name.String())

	reply1, err := r.EnumKey(types.HKey(h), 1)
	require.NoError(t, err)
	assert.Equal(t, "D", reply1.Name.String())

	_, err = r.EnumKey(types.HKey(h), 2)
	assert.ErrorIs(t, err, types.ErrNoMoreItemsSentinel)
}

// S4, via the dispatcher: set/get/delete value round trip.
func TestDispatcherScenario4_ValueRoundTrip(t *testing.T) {
	r := newReg(t)

	ck, err := r.CreateKey(registry.CreateKeyRequest{HKey: types.HKeyLocalMachine, Path: ws("K"), Volatile: true})
	require.NoError(t, err)
	h := types.HKey(ck.HKey)
	defer r.CloseKey(h)

	data := []byte{0xef, 0xbe, 0xad, 0xde}
	require.NoError(t, r.SetKeyValue(h, ws("v"), types.REG_DWORD, data))

	got, err := r.GetKeyValue(h, ws("v"))
	require.NoError(t, err)
	assert.Equal(t, types.REG_DWORD, got.Type)
	assert.Equal(t, data, got.Data)

	require.NoError(t, r.DeleteKeyValue(h, ws("v")))
	_, err = r.GetKeyValue(h, ws("v"))
	assert.ErrorIs(t, err, types.ErrFileNotFound)
}

func TestDispatcherCloseKeyIgnoresRoots(t *testing.T) {
	r := newReg(t)
	assert.NoError(t, r.CloseKey(types.HKeyLocalMachine))
}

func TestDispatcherResolvesRootsWithoutHandleManager(t *testing.T) {
	r := newReg(t)
	info, err := r.QueryKeyInfo(types.HKeyLocalMachine)
	require.NoError(t, err)
	assert.Equal(t, 0, info.SubkeyCount)
}

func TestDispatcherUnknownHandleFails(t *testing.T) {
	r := newReg(t)
	_, err := r.QueryKeyInfo(types.HKey(handle.Handle(99999)))
	assert.Error(t, err)
}

// S5/S6 at the dispatcher: save/reload round trip and bad-header rejection.
func TestDispatcherSaveAndLoadRoundTrip(t *testing.T) {
	r := newReg(t)

	_, err := r.CreateKey(registry.CreateKeyRequest{HKey: types.HKeyLocalMachine, Path: ws(`Soft\App`)})
	require.NoError(t, err)

	appHandle, err := r.OpenKey(types.HKeyLocalMachine, ws(`Soft\App`))
	require.NoError(t, err)
	defer r.CloseKey(types.HKey(appHandle))

	greeting := ws("héllo\n")
	require.NoError(t, r.SetKeyValue(types.HKey(appHandle), ws("greet"), types.REG_SZ, greeting.BytesLE()))

	text, err := r.SaveRegistry(types.HKeyLocalMachine, "HKEY_LOCAL_MACHINE")
	require.NoError(t, err)

	r2 := newReg(t)
	require.NoError(t, r2.LoadRegistry(types.HKeyLocalMachine, text))

	h2, err := r2.OpenKey(types.HKeyLocalMachine, ws(`Soft\App`))
	require.NoError(t, err)
	defer r2.CloseKey(types.HKey(h2))

	got, err := r2.GetKeyValue(types.HKey(h2), ws("greet"))
	require.NoError(t, err)
	assert.Equal(t, greeting, wstr.FromBytesLE(got.Data))
}

func TestDispatcherLoadRejectsBadHeader(t *testing.T) {
	r := newReg(t)
	err := r.LoadRegistry(types.HKeyLocalMachine, []byte("WINE REGISTRY Version 1\n[Foo]\n"))
	assert.ErrorIs(t, err, types.ErrNotRegistryFileErr)
}

func TestSetLevelsGatesSaveOutput(t *testing.T) {
	r := newReg(t)

	// "Keep" is created while current_level=5, so its own level is stamped
	// at 5 and survives a save gated at savingLevel=5 (emit.go's
	// k.Level() >= savingLevel). "Skip" is created afterward at
	// current_level=0, so its level (0) falls below that same gate.
	r.SetLevels(5, 0)
	_, err := r.CreateKey(registry.CreateKeyRequest{HKey: types.HKeyLocalMachine, Path: ws("Keep")})
	require.NoError(t, err)

	r.SetLevels(0, 5)
	_, err = r.CreateKey(registry.CreateKeyRequest{HKey: types.HKeyLocalMachine, Path: ws("Skip")})
	require.NoError(t, err)

	text, err := r.SaveRegistry(types.HKeyLocalMachine, "HKEY_LOCAL_MACHINE")
	require.NoError(t, err)
	assert.Contains(t, string(text), "Keep")
	assert.NotContains(t, string(text), "Skip")
}
