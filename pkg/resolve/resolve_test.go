package resolve

import (
	"errors"
	"io"
	"testing"

	"github.com/grovetools/zzz/pkg/depcache"
	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tool(name string) manifest.Tool {
	return manifest.Tool{Name: name, Link: "https://example/" + name, Method: manifest.MethodLinkArchive}
}

func tools(names ...string) []manifest.Tool {
	out := make([]manifest.Tool, len(names))
	for i, n := range names {
		out[i] = tool(n)
	}
	return out
}

func opts(transitive bool) Options {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return Options{Transitive: transitive, Logger: logger}
}

func TestResolveDedupSharedRequirement(t *testing.T) {
	cache := depcache.New([]depcache.Entry{
		{Package: tool("A"), Requires: tools("C")},
		{Package: tool("B"), Requires: tools("C")},
	})

	res, err := Resolve(tools("A", "B"), cache, opts(false))
	require.NoError(t, err)
	assert.Equal(t, tools("A", "B", "C"), res.Tools)
	assert.Empty(t, res.Missing)
	assert.Nil(t, res.Levels)
}

func TestResolveSkipsMissingEntry(t *testing.T) {
	cache := depcache.New([]depcache.Entry{
		{Package: tool("B"), Requires: tools("D")},
	})

	res, err := Resolve(tools("X", "B"), cache, opts(false))
	require.NoError(t, err)
	assert.Equal(t, tools("B", "D"), res.Tools)
	require.Len(t, res.Missing, 1)
	assert.Equal(t, "X", res.Missing[0].Name)
}

func TestResolveEmptyCacheExample(t *testing.T) {
	// A declared tool absent from an empty cache is dropped entirely.
	declared := []manifest.Tool{{Name: "curlpkg", Link: "https://example/curlpkg", Method: manifest.MethodLinkArchive}}

	res, err := Resolve(declared, depcache.New(nil), opts(false))
	require.NoError(t, err)
	assert.Empty(t, res.Tools)
	assert.NotNil(t, res.Tools)
	assert.Equal(t, declared, res.Missing)
}

func TestResolveShallowStopsAtOneLevel(t *testing.T) {
	cache := depcache.New([]depcache.Entry{
		{Package: tool("app"), Requires: tools("lib")},
		{Package: tool("lib"), Requires: tools("base")},
	})

	res, err := Resolve(tools("app"), cache, opts(false))
	require.NoError(t, err)
	assert.Equal(t, tools("app", "lib"), res.Tools, "base is a requirement of a requirement and is not looked up")
}

func TestResolveShallowSortsStructurally(t *testing.T) {
	git := manifest.Tool{Name: "zed", Link: "https://example/zed.git", Method: manifest.MethodGitSource}
	cache := depcache.New([]depcache.Entry{
		{Package: git, Requires: tools("b", "a", "b")},
	})

	res, err := Resolve([]manifest.Tool{git}, cache, opts(false))
	require.NoError(t, err)
	assert.Equal(t, append(tools("a", "b"), git), res.Tools)
}

func TestResolveTransitive(t *testing.T) {
	cache := depcache.New([]depcache.Entry{
		{Package: tool("app"), Requires: tools("lib")},
		{Package: tool("lib"), Requires: tools("base")},
		{Package: tool("cli"), Requires: tools("base")},
	})

	res, err := Resolve(tools("app", "cli", "ghost"), cache, opts(true))
	require.NoError(t, err)
	assert.Equal(t, tools("app", "base", "cli", "lib"), res.Tools)
	assert.Equal(t, [][]manifest.Tool{
		tools("base"),
		tools("cli", "lib"),
		tools("app"),
	}, res.Levels)
	require.Len(t, res.Missing, 1)
	assert.Equal(t, "ghost", res.Missing[0].Name)
}

func TestResolveTransitiveCycle(t *testing.T) {
	cache := depcache.New([]depcache.Entry{
		{Package: tool("a"), Requires: tools("b")},
		{Package: tool("b"), Requires: tools("a")},
	})

	_, err := Resolve(tools("a"), cache, opts(true))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCycle))
	assert.Contains(t, err.Error(), "[a, b]")

	// The one-level expansion never looks far enough to notice the cycle.
	res, err := Resolve(tools("a"), cache, opts(false))
	require.NoError(t, err)
	assert.Equal(t, tools("a", "b"), res.Tools)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Names(tools("a", "b")))
	assert.Empty(t, Names(nil))
}
