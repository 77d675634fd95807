package mothership

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndReload(t *testing.T) {
	dir := t.TempDir()
	reg, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, reg.Register("widgets", dir+"/widgets.db"))

	reloaded, err := Open(dir)
	require.NoError(t, err)
	require.Equal(t, dir+"/widgets.db", reloaded.Known["widgets"])
	require.Contains(t, reloaded.All(), "widgets")
}

func TestRegistry_OpenUnknownProjectReturnsNilNil(t *testing.T) {
	reg, err := Open(t.TempDir())
	require.NoError(t, err)
	db, err := reg.OpenProjectDB("nope")
	require.NoError(t, err)
	require.Nil(t, db)
}
