package namespace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var demo = manifest.Identity{Name: "demo", Description: "", Package: "demo", Version: "0.0.0"}

func TestHashDeterministic(t *testing.T) {
	same := demo
	assert.Equal(t, Hash(demo), Hash(same))
	assert.Equal(t, Hash(demo), Hash(manifest.Identity{Name: "demo", Package: "demo", Version: "0.0.0"}))
}

func TestFormatParse(t *testing.T) {
	ns := Hash(demo)
	got, err := Parse(Format(ns))
	require.NoError(t, err)
	assert.Equal(t, ns, got)

	_, err = Parse("not-a-namespace")
	assert.Error(t, err)
}

func TestHashDiffersPerField(t *testing.T) {
	variants := map[string]manifest.Identity{
		"name":        {Name: "demo2", Package: "demo", Version: "0.0.0"},
		"description": {Name: "demo", Description: "x", Package: "demo", Version: "0.0.0"},
		"package":     {Name: "demo", Package: "other", Version: "0.0.0"},
		"version":     {Name: "demo", Package: "demo", Version: "0.0.1"},
	}
	base := Hash(demo)
	for field, id := range variants {
		t.Run(field, func(t *testing.T) {
			assert.NotEqual(t, base, Hash(id))
		})
	}
}

func TestLayoutPaths(t *testing.T) {
	l := NewLayout("/home/u")
	ns := uint64(42)

	assert.Equal(t, filepath.Join("/home/u", ".snooze"), l.Root)
	assert.Equal(t, filepath.Join("/home/u", ".snooze", "bins", "42"), l.Bins(ns))
	assert.Equal(t, filepath.Join("/home/u", ".snooze", "bins", "42", "jq"), l.Tool(ns, "jq"))
	assert.Equal(t, filepath.Join("/home/u", ".snooze", "ztemp", "42"), l.Temp(ns))
	assert.Equal(t, filepath.Join("/home/u", ".snooze", "cache", "cache.yaml"), l.CacheFile())
	assert.Equal(t, filepath.Join("/home/u", ".snooze", "state", "status.db"), l.StateDB())
	assert.Equal(t, filepath.Join("/home/u", ".snooze", "config.toml"), l.ConfigFile())
	assert.Equal(t, filepath.Join("/home/u", ".snooze", "ext"), l.Ext())
}

func TestDefaultLayoutHonoursEnv(t *testing.T) {
	t.Setenv(HomeEnv, "/tmp/zzz-home")
	l, err := DefaultLayout()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/zzz-home", l.Root)
}

func TestInstalledAndRemove(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	ns := Hash(demo)

	names, err := l.Installed(ns)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, os.MkdirAll(l.Bins(ns), 0755))
	require.NoError(t, os.WriteFile(l.Tool(ns, "jq"), []byte("bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(l.Bins(ns), ".identity"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(l.Temp(ns), 0755))

	names, err = l.Installed(ns)
	require.NoError(t, err)
	assert.Equal(t, []string{"jq"}, names)

	require.NoError(t, l.Remove(ns))
	assert.NoDirExists(t, l.Bins(ns))
	assert.NoDirExists(t, l.Temp(ns))
}

func TestCheckIdentity(t *testing.T) {
	l := Layout{Root: t.TempDir()}

	owner, ok, err := l.CheckIdentity(demo)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, demo, owner)

	// Second call reads the marker back.
	_, ok, err = l.CheckIdentity(demo)
	require.NoError(t, err)
	assert.True(t, ok)

	// Simulate a collision by planting a foreign owner in the same namespace.
	foreign := []byte("NAME: someone-else\nDESCRIPTION: \"\"\nPACKAGE: x\nVERSION: 1.0.0\n")
	require.NoError(t, os.WriteFile(filepath.Join(l.Bins(Hash(demo)), ".identity"), foreign, 0644))

	owner, ok, err = l.CheckIdentity(demo)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "someone-else", owner.Name)
}
