// Package platform hides the differences between running external
// utilities on Unix and on Windows.
package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
)

// Command is one external process invocation.
type Command struct {
	Argv []string
	// Dir is the working directory of the process. Empty means the caller's.
	Dir string
	// Env replaces the process environment when non-nil.
	Env []string
	// Stdout and Stderr stream output when set. When both are nil, combined
	// output is captured into Status.Output.
	Stdout io.Writer
	Stderr io.Writer
}

func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// Status is the outcome of a process that ran to completion.
type Status struct {
	Code   int
	Output []byte
}

// Success reports a zero exit code.
func (s Status) Success() bool {
	return s.Code == 0
}

// Shell runs commands and knows which utilities fetch files and mark them
// executable on its platform.
type Shell interface {
	// Run executes cmd. A non-zero exit is reported through Status; the
	// error is set only when the process could not be started or ctx ended.
	Run(ctx context.Context, cmd Command) (Status, error)
	// Download returns the command that fetches url into dest.
	Download(url, dest string) Command
	// MarkExecutable returns the command that makes path executable, and
	// false when the platform needs no such step.
	MarkExecutable(path string) (Command, bool)
	// Name identifies the platform.
	Name() string
}

// ForOS returns the shell for goos.
func ForOS(goos string) Shell {
	if goos == "windows" {
		return Windows{}
	}
	return Unix{}
}

// Default returns the shell for the running platform.
func Default() Shell {
	return ForOS(runtime.GOOS)
}

// run starts argv and waits for it, translating the exit into a Status.
// prepare hooks adjust the process before it starts.
func run(ctx context.Context, argv []string, cmd Command, prepare ...func(*exec.Cmd)) (Status, error) {
	if len(argv) == 0 {
		return Status{}, errors.New("empty command")
	}

	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Dir = cmd.Dir
	if cmd.Env != nil {
		c.Env = cmd.Env
	}
	for _, p := range prepare {
		p(c)
	}

	var output bytes.Buffer
	if cmd.Stdout == nil && cmd.Stderr == nil {
		c.Stdout = &output
		c.Stderr = &output
	} else {
		c.Stdout = cmd.Stdout
		c.Stderr = cmd.Stderr
	}

	err := c.Run()
	status := Status{Output: output.Bytes()}
	if ctxErr := ctx.Err(); ctxErr != nil {
		status.Code = -1
		return status, ctxErr
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status.Code = exitErr.ExitCode()
			return status, nil
		}
		return status, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}
	return status, nil
}
