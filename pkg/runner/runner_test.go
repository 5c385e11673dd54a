package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/grovetools/zzz/pkg/logger"
	"github.com/grovetools/zzz/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedShell struct {
	platform.Unix
	calls []platform.Command
	codes map[string]int
}

func (s *scriptedShell) Run(_ context.Context, cmd platform.Command) (platform.Status, error) {
	s.calls = append(s.calls, cmd)
	return platform.Status{Code: s.codes[filepath.Base(cmd.Argv[0])]}, nil
}

func TestRunSequence(t *testing.T) {
	sh := &scriptedShell{codes: map[string]int{"false": 1}}

	var failures []string
	results, err := Run(context.Background(), []string{"echo one", "  ", "false", "echo two"}, Options{
		Shell:  sh,
		Dir:    "/work",
		Logger: logger.Discard(),
		OnFailure: func(r Result) bool {
			failures = append(failures, r.Command)
			return true
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"false"}, failures)
	assert.Len(t, Failures(results), 1)

	require.Len(t, sh.calls, 3)
	assert.Equal(t, []string{"echo", "one"}, sh.calls[0].Argv)
	assert.Equal(t, "/work", sh.calls[0].Dir)
}

func TestRunQuotedArguments(t *testing.T) {
	sh := &scriptedShell{}

	var failures []Result
	results, err := Run(context.Background(), []string{`go build -o "my tool" ./cmd`, `echo "unterminated`, "echo ok"}, Options{
		Shell:  sh,
		Logger: logger.Discard(),
		OnFailure: func(r Result) bool {
			failures = append(failures, r)
			return true
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Len(t, sh.calls, 2, "a line that cannot be split never runs")
	assert.Equal(t, []string{"go", "build", "-o", "my tool", "./cmd"}, sh.calls[0].Argv)
	require.Len(t, failures, 1)
	assert.Equal(t, `echo "unterminated`, failures[0].Command)
	assert.Error(t, failures[0].Err)
}

func TestRunStopsWhenDeclined(t *testing.T) {
	sh := &scriptedShell{codes: map[string]int{"false": 1}}

	results, err := Run(context.Background(), []string{"false", "echo never"}, Options{
		Shell:     sh,
		Logger:    logger.Discard(),
		OnFailure: func(Result) bool { return false },
	})
	assert.True(t, errors.Is(err, ErrStopped))
	assert.Len(t, results, 1)
	assert.Len(t, sh.calls, 1)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sh := &scriptedShell{}
	_, err := Run(ctx, []string{"echo"}, Options{Shell: sh, Logger: logger.Discard()})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, sh.calls)
}

func TestRunPrefersInstalledTools(t *testing.T) {
	bins := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bins, "jq"), []byte("#!/bin/sh\n"), 0755))

	sh := &scriptedShell{}
	_, err := Run(context.Background(), []string{"jq .", "ls"}, Options{Shell: sh, PathDirs: []string{bins}, Logger: logger.Discard()})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(bins, "jq"), sh.calls[0].Argv[0])
	assert.Equal(t, "ls", sh.calls[1].Argv[0])

	var path string
	for _, e := range sh.calls[0].Env {
		if strings.HasPrefix(e, "PATH=") {
			path = e
		}
	}
	assert.True(t, strings.HasPrefix(path, "PATH="+bins+string(os.PathListSeparator)), path)
}

func TestRunWithRealShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	bins := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bins, "greet"), []byte("#!/bin/sh\necho hello from greet\n"), 0755))

	var out bytes.Buffer
	results, err := Run(context.Background(), []string{"greet"}, Options{
		Shell:    platform.Unix{},
		PathDirs: []string{bins},
		Stdout:   &out,
		Stderr:   &out,
		Logger:   logger.Discard(),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Failed())
	assert.Equal(t, "hello from greet\n", out.String())
}

func TestBuildEnv(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	env := buildEnv([]string{"/a", "/b"})

	sep := string(os.PathListSeparator)
	assert.Contains(t, env, "PATH=/a"+sep+"/b"+sep+"/usr/bin")
	assert.Equal(t, os.Environ(), buildEnv(nil))
}

func TestResultError(t *testing.T) {
	assert.Equal(t, `"make" exited with status 2`, Result{Command: "make", Code: 2}.Error())
	assert.Contains(t, Result{Command: "x", Err: errors.New("not found")}.Error(), "not found")
}
