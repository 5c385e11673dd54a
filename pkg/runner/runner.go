// Package runner executes a project's ON.RUN commands with its install
// namespace on PATH.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/zzz/pkg/platform"
	"github.com/sirupsen/logrus"
)

// ErrStopped is returned when OnFailure declines to continue.
var ErrStopped = errors.New("run stopped after a failing command")

// Options configures a run.
type Options struct {
	Shell platform.Shell
	// Dir is the working directory of every command. Empty means the
	// caller's.
	Dir string
	// PathDirs are prepended to PATH, and searched first for each
	// command's executable.
	PathDirs []string
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *logrus.Logger
	// OnFailure decides whether to run the remaining commands after r
	// failed. Nil continues.
	OnFailure func(r Result) bool
}

// Result is the outcome of one command.
type Result struct {
	Command  string
	Code     int
	Err      error
	Duration time.Duration
}

// Failed reports whether the command did not exit cleanly.
func (r Result) Failed() bool {
	return r.Err != nil || r.Code != 0
}

func (r Result) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("%q: %v", r.Command, r.Err)
	}
	return fmt.Sprintf("%q exited with status %d", r.Command, r.Code)
}

// Run executes commands in order. Each command is split into arguments
// with platform.Split, so quoting works as in a shell but pipes and
// redirects do not. A command that cannot be split fails without running.
// Results are returned for every command that ran; the error is set only
// when ctx ended or OnFailure stopped the run.
func Run(ctx context.Context, commands []string, opts Options) ([]Result, error) {
	shell := opts.Shell
	if shell == nil {
		shell = platform.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	env := buildEnv(opts.PathDirs)

	var results []Result
	for _, line := range commands {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		var r Result
		argv, err := platform.Split(line)
		switch {
		case err != nil:
			r = Result{Command: line, Err: err}
		case len(argv) == 0:
			continue
		default:
			argv[0] = lookup(argv[0], opts.PathDirs)
			cmd := platform.Command{Argv: argv, Dir: opts.Dir, Env: env, Stdout: stdout, Stderr: stderr}

			logger.WithField("cmd", line).Debug("Running command")
			start := time.Now()
			status, runErr := shell.Run(ctx, cmd)
			err = runErr
			r = Result{Command: line, Code: status.Code, Err: runErr, Duration: time.Since(start)}
		}
		results = append(results, r)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return results, ctxErr
		}
		if !r.Failed() {
			continue
		}

		logger.WithField("cmd", line).WithField("code", r.Code).WithError(err).Debug("Command failed")
		if opts.OnFailure != nil && !opts.OnFailure(r) {
			return results, ErrStopped
		}
	}
	return results, nil
}

// Failures returns the failed results.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}

// lookup resolves a bare command name against dirs, so installed tools win
// over anything already on the caller's PATH.
func lookup(name string, dirs []string) string {
	if strings.ContainsAny(name, `/\`) {
		return name
	}
	for _, dir := range dirs {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return name
}

// buildEnv returns the process environment with dirs prepended to PATH.
func buildEnv(dirs []string) []string {
	env := os.Environ()
	if len(dirs) == 0 {
		return env
	}

	prefix := strings.Join(dirs, string(os.PathListSeparator))
	for i, e := range env {
		if key, value, ok := strings.Cut(e, "="); ok && strings.EqualFold(key, "PATH") {
			env[i] = key + "=" + prefix + string(os.PathListSeparator) + value
			return env
		}
	}
	return append(env, "PATH="+prefix)
}
