package load

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/grovetools/zzz/pkg/depcache"
	"github.com/grovetools/zzz/pkg/install"
	"github.com/grovetools/zzz/pkg/logger"
	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/grovetools/zzz/pkg/namespace"
	"github.com/grovetools/zzz/pkg/platform"
	"github.com/grovetools/zzz/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// downloadShell simulates curl by writing the destination file, failing
// for any tool named in broken.
type downloadShell struct {
	platform.Unix

	mu         sync.Mutex
	broken     map[string]bool
	downloaded []string
}

func (s *downloadShell) Run(_ context.Context, cmd platform.Command) (platform.Status, error) {
	if cmd.Argv[0] != "curl" {
		return platform.Status{}, nil
	}
	dest := cmd.Argv[3]
	name := filepath.Base(dest)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloaded = append(s.downloaded, name)
	if s.broken[name] {
		return platform.Status{Code: 22, Output: []byte("404")}, nil
	}
	return platform.Status{}, os.WriteFile(dest, []byte(name), 0755)
}

func (s *downloadShell) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.downloaded...)
}

type scriptedConfirmer struct {
	answers []bool
	prompts []string
}

func (c *scriptedConfirmer) Confirm(prompt string) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	if len(c.answers) == 0 {
		return true, nil
	}
	answer := c.answers[0]
	c.answers = c.answers[1:]
	return answer, nil
}

type recordingReporter struct {
	NopReporter
	planned  []manifest.Tool
	skipped  map[string]string
	finished []string
	warnings []string
}

func (r *recordingReporter) Plan(_ string, declared []manifest.Tool) { r.planned = declared }
func (r *recordingReporter) Skipped(tool manifest.Tool, suggestion string) {
	if r.skipped == nil {
		r.skipped = make(map[string]string)
	}
	r.skipped[tool.Name] = suggestion
}
func (r *recordingReporter) Finished(out install.Outcome) { r.finished = append(r.finished, out.Tool.Name) }
func (r *recordingReporter) Warn(msg string)              { r.warnings = append(r.warnings, msg) }

type fixture struct {
	layout   namespace.Layout
	shell    *downloadShell
	confirm  *scriptedConfirmer
	reporter *recordingReporter
	store    *state.Store
	orch     *Orchestrator
	path     string
}

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

func demoManifest(declared ...manifest.Tool) *manifest.Manifest {
	return &manifest.Manifest{
		Project:      manifest.Project{Name: "demo", Package: "demo", Version: "0.0.0"},
		On:           manifest.On{Run: []string{"echo hi"}},
		Dependencies: manifest.Dependencies{Tools: declared},
	}
}

func newFixture(t *testing.T, m *manifest.Manifest, cache []depcache.Entry) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		layout:   namespace.Layout{Root: filepath.Join(root, ".snooze")},
		shell:    &downloadShell{broken: map[string]bool{}},
		confirm:  &scriptedConfirmer{},
		reporter: &recordingReporter{},
		path:     filepath.Join(root, "demo.zzz.yaml"),
	}
	if cache != nil {
		require.NoError(t, depcache.New(cache).Save(f.layout.CacheFile()))
	}
	require.NoError(t, m.Save(f.path))

	store, err := state.Open(f.layout.StateDB())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	f.store = store

	f.orch = New(Config{
		Layout:    f.layout,
		Shell:     f.shell,
		Logger:    logger.Discard(),
		State:     store,
		Confirmer: f.confirm,
		Reporter:  f.reporter,
	})
	return f
}

func (f *fixture) reload(t *testing.T) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Load(f.path)
	require.NoError(t, err)
	return m
}

func selfEntries(names ...string) []depcache.Entry {
	entries := make([]depcache.Entry, len(names))
	for i, n := range names {
		entries[i] = depcache.Entry{Package: tool(n)}
	}
	return entries
}

func TestLoadInstallsClosure(t *testing.T) {
	cache := []depcache.Entry{
		{Package: tool("A"), Requires: tools("C")},
		{Package: tool("B"), Requires: tools("C")},
	}
	f := newFixture(t, demoManifest(tools("A", "B")...), cache)

	res, err := f.orch.Load(context.Background(), f.path, Options{})
	require.NoError(t, err)

	assert.False(t, res.FastPath)
	assert.Equal(t, []string{"A", "B", "C"}, res.Tools)
	assert.Empty(t, res.Failed)
	assert.Equal(t, namespace.Hash(demoManifest().Identity()), res.Namespace)
	assert.Equal(t, f.layout.Bins(res.Namespace), res.Dir)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{ContinuePrompt}, f.confirm.prompts)
	assert.Equal(t, tools("A", "B"), f.reporter.planned)

	for _, name := range []string{"A", "B", "C"} {
		assert.FileExists(t, f.layout.Tool(res.Namespace, name))
	}
	assert.True(t, f.reload(t).Project.IsLoaded)
}

func TestLoadFastPath(t *testing.T) {
	m := demoManifest(tool("A"))
	m.Project.IsLoaded = true
	f := newFixture(t, m, selfEntries("A"))

	res, err := f.orch.Load(context.Background(), f.path, Options{})
	require.NoError(t, err)
	assert.True(t, res.FastPath)
	assert.Empty(t, res.Tools)
	assert.NotNil(t, res.Tools)
	assert.Equal(t, namespace.Hash(m.Identity()), res.Namespace)
	assert.Empty(t, f.shell.calls())
	assert.Empty(t, f.confirm.prompts)

	// Repeating it changes nothing.
	again, err := f.orch.Load(context.Background(), f.path, Options{})
	require.NoError(t, err)
	assert.Equal(t, res.Namespace, again.Namespace)
	assert.Empty(t, f.shell.calls())
}

func TestLoadCleanOverridesFastPath(t *testing.T) {
	m := demoManifest(tool("A"))
	m.Project.IsLoaded = true
	f := newFixture(t, m, selfEntries("A"))

	res, err := f.orch.Load(context.Background(), f.path, Options{Clean: true, Force: true})
	require.NoError(t, err)
	assert.False(t, res.FastPath)
	assert.Equal(t, []string{"A"}, res.Tools)
	assert.Equal(t, []string{"A"}, f.shell.calls())
}

func TestLoadPartialInstallTolerance(t *testing.T) {
	f := newFixture(t, demoManifest(tools("A", "B")...), selfEntries("A", "B"))
	f.shell.broken["B"] = true

	res, err := f.orch.Load(context.Background(), f.path, Options{Force: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, res.Tools)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "B", res.Failed[0].Tool.Name)
	assert.Equal(t, install.KindFetchFailed, install.KindOf(res.Failed[0].Err))

	assert.FileExists(t, f.layout.Tool(res.Namespace, "A"))
	assert.NoFileExists(t, f.layout.Tool(res.Namespace, "B"))
	assert.True(t, f.reload(t).Project.IsLoaded)

	failed, err := f.store.Failed(context.Background(), res.Namespace)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "B", failed[0].Tool.Name)
	assert.Equal(t, string(install.KindFetchFailed), failed[0].Kind)
	assert.Equal(t, res.RunID, failed[0].RunID)
}

func TestLoadDemoWithEmptyCache(t *testing.T) {
	curlpkg := manifest.Tool{Name: "curlpkg", Link: "https://example/curlpkg", Method: manifest.MethodLinkArchive}
	f := newFixture(t, demoManifest(curlpkg), []depcache.Entry{})

	res, err := f.orch.Load(context.Background(), f.path, Options{Force: true})
	require.NoError(t, err)

	assert.Empty(t, res.Tools)
	assert.Equal(t, []manifest.Tool{curlpkg}, res.Missing)
	assert.Contains(t, f.reporter.skipped, "curlpkg")
	assert.Empty(t, f.shell.calls())
	assert.True(t, f.reload(t).Project.IsLoaded)
}

func TestLoadSuggestsCachedName(t *testing.T) {
	f := newFixture(t, demoManifest(tool("rg")), selfEntries("ripgrep"))

	_, err := f.orch.Load(context.Background(), f.path, Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, "ripgrep", f.reporter.skipped["rg"])
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing manifest", func(t *testing.T) {
		f := newFixture(t, demoManifest(), nil)
		_, err := f.orch.Load(context.Background(), filepath.Join(t.TempDir(), "none.zzz.yaml"), Options{})
		assert.True(t, errors.Is(err, ErrManifestInvalid))
		assert.True(t, errors.Is(err, manifest.ErrNotFound))
	})

	t.Run("invalid manifest", func(t *testing.T) {
		f := newFixture(t, demoManifest(), nil)
		require.NoError(t, os.WriteFile(f.path, []byte("PROJECT: [oops"), 0644))
		_, err := f.orch.Load(context.Background(), f.path, Options{})
		assert.True(t, errors.Is(err, ErrManifestInvalid))
		assert.True(t, errors.Is(err, manifest.ErrInvalid))
	})

	t.Run("cache unavailable", func(t *testing.T) {
		f := newFixture(t, demoManifest(tool("A")), nil)
		_, err := f.orch.Load(context.Background(), f.path, Options{Force: true})
		assert.True(t, errors.Is(err, ErrCacheUnavailable))
		assert.True(t, errors.Is(err, depcache.ErrNotFound))
		assert.False(t, f.reload(t).Project.IsLoaded)
	})

	t.Run("transitive cycle", func(t *testing.T) {
		cache := []depcache.Entry{
			{Package: tool("a"), Requires: tools("b")},
			{Package: tool("b"), Requires: tools("a")},
		}
		f := newFixture(t, demoManifest(tool("a")), cache)
		_, err := f.orch.Load(context.Background(), f.path, Options{Force: true, Transitive: true})
		assert.Error(t, err)
		assert.False(t, f.reload(t).Project.IsLoaded)
	})
}

func TestLoadDeclined(t *testing.T) {
	t.Run("before installing", func(t *testing.T) {
		f := newFixture(t, demoManifest(tool("A")), selfEntries("A"))
		f.confirm.answers = []bool{false}

		_, err := f.orch.Load(context.Background(), f.path, Options{})
		assert.True(t, errors.Is(err, ErrAborted))
		assert.Empty(t, f.shell.calls())
		assert.False(t, f.reload(t).Project.IsLoaded)
	})

	t.Run("after a failure", func(t *testing.T) {
		f := newFixture(t, demoManifest(tools("A", "B")...), selfEntries("A", "B"))
		f.shell.broken["A"] = true
		f.confirm.answers = []bool{true, false}

		_, err := f.orch.Load(context.Background(), f.path, Options{})
		assert.True(t, errors.Is(err, ErrAborted))
		assert.Equal(t, []string{"A"}, f.shell.calls())
		assert.False(t, f.reload(t).Project.IsLoaded)
	})

	t.Run("continue after a failure", func(t *testing.T) {
		f := newFixture(t, demoManifest(tools("A", "B")...), selfEntries("A", "B"))
		f.shell.broken["A"] = true

		res, err := f.orch.Load(context.Background(), f.path, Options{})
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, res.Tools)
		assert.Len(t, f.confirm.prompts, 2)
	})
}

func TestLoadRetryFailed(t *testing.T) {
	f := newFixture(t, demoManifest(tools("A", "B", "C")...), selfEntries("A", "B", "C"))
	f.shell.broken["B"] = true

	first, err := f.orch.Load(context.Background(), f.path, Options{Force: true})
	require.NoError(t, err)
	require.Len(t, first.Failed, 1)

	delete(f.shell.broken, "B")
	f.shell.downloaded = nil

	second, err := f.orch.Load(context.Background(), f.path, Options{Force: true, RetryFailed: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, second.Tools)
	assert.Equal(t, []string{"B"}, f.shell.calls())

	failed, err := f.store.Failed(context.Background(), second.Namespace)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestLoadRetryFailedInstallsRequirementsFirst(t *testing.T) {
	cache := []depcache.Entry{
		{Package: tool("app"), Requires: tools("lib")},
	}
	f := newFixture(t, demoManifest(tool("app")), cache)
	f.shell.broken["app"] = true
	f.shell.broken["lib"] = true

	first, err := f.orch.Load(context.Background(), f.path, Options{Force: true})
	require.NoError(t, err)
	require.Len(t, first.Failed, 2)
	assert.Equal(t, []string{"app", "lib"}, f.shell.calls(), "the shallow closure is sorted by name")

	f.shell.broken = map[string]bool{}
	f.shell.downloaded = nil

	second, err := f.orch.Load(context.Background(), f.path, Options{Force: true, RetryFailed: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"lib", "app"}, f.shell.calls())
	assert.Equal(t, []string{"lib", "app"}, second.Tools)
}

func TestLoadParallel(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f"}
	f := newFixture(t, demoManifest(tools(names...)...), selfEntries(names...))
	f.shell.broken["c"] = true
	f.shell.broken["e"] = true

	res, err := f.orch.Load(context.Background(), f.path, Options{Force: true, Jobs: 3})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a", "b", "d", "f"}, res.Tools)
	require.Len(t, res.Failed, 2)
	var failed []string
	for _, o := range res.Failed {
		failed = append(failed, o.Tool.Name)
	}
	assert.ElementsMatch(t, []string{"c", "e"}, failed)
	assert.Len(t, f.reporter.finished, len(names))
	assert.True(t, f.reload(t).Project.IsLoaded)
}

func TestLoadTransitiveInstallsRequirementsFirst(t *testing.T) {
	cache := []depcache.Entry{
		{Package: tool("app"), Requires: tools("lib")},
		{Package: tool("lib"), Requires: tools("base")},
	}
	f := newFixture(t, demoManifest(tool("app")), cache)

	res, err := f.orch.Load(context.Background(), f.path, Options{Force: true, Transitive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "lib", "app"}, res.Tools)
	assert.Equal(t, []string{"base", "lib", "app"}, f.shell.calls())
}

func TestLoadWarnsOnNamespaceCollision(t *testing.T) {
	f := newFixture(t, demoManifest(tool("A")), selfEntries("A"))
	ns := namespace.Hash(demoManifest().Identity())
	marker := filepath.Join(f.layout.Bins(ns), ".identity")
	require.NoError(t, os.MkdirAll(filepath.Dir(marker), 0755))
	require.NoError(t, os.WriteFile(marker, []byte("NAME: other\nDESCRIPTION: \"\"\nPACKAGE: other\nVERSION: 9.9.9\n"), 0644))

	_, err := f.orch.Load(context.Background(), f.path, Options{Force: true})
	require.NoError(t, err)
	require.Len(t, f.reporter.warnings, 1)
	assert.Contains(t, f.reporter.warnings[0], `"other"`)
}

func TestForget(t *testing.T) {
	f := newFixture(t, demoManifest(tool("A")), selfEntries("A"))
	res, err := f.orch.Load(context.Background(), f.path, Options{Force: true})
	require.NoError(t, err)
	require.DirExists(t, res.Dir)

	ns, err := f.orch.Forget(context.Background(), f.path)
	require.NoError(t, err)
	assert.Equal(t, res.Namespace, ns)
	assert.NoDirExists(t, res.Dir)
	assert.False(t, f.reload(t).Project.IsLoaded)

	entries, err := f.store.List(context.Background(), ns)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, demoManifest(tools("A", "B")...), selfEntries("A", "B"))
	f.shell.broken["B"] = true
	_, err := f.orch.Load(context.Background(), f.path, Options{Force: true})
	require.NoError(t, err)

	st, err := f.orch.Status(context.Background(), f.path)
	require.NoError(t, err)
	assert.Equal(t, "demo", st.Project)
	assert.True(t, st.Loaded)
	assert.Equal(t, []string{"A"}, st.Installed)
	require.Len(t, st.Entries, 2)
	assert.Equal(t, state.StatusInstalled, st.Entries[0].Status)
	assert.Equal(t, state.StatusFailed, st.Entries[1].Status)
}
