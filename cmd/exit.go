package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/grovetools/zzz/pkg/load"
	"github.com/grovetools/zzz/pkg/manifest"
)

// Process exit codes.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitManifestMissing = 2
	ExitManifestInvalid = 3
	ExitInternal        = 4
	ExitNoFiles         = 6
	ExitInterrupted     = 130
)

// ExitError carries the exit code and an optional hint for an error.
type ExitError struct {
	Code int
	Err  error
	Hint string
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// classify maps err to the exit code and hint shown to the user.
func classify(err error) *ExitError {
	var exitErr *ExitError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &exitErr):
		return exitErr
	case errors.Is(err, load.ErrAborted):
		return &ExitError{Code: ExitOK, Err: err}
	case errors.Is(err, context.Canceled):
		return &ExitError{Code: ExitInterrupted, Err: err}
	case errors.Is(err, manifest.ErrNoFiles):
		return &ExitError{Code: ExitNoFiles, Err: err, Hint: "Try 'zzz new <name>' to create a new .zzz.yaml file."}
	case errors.Is(err, manifest.ErrNotFound):
		return &ExitError{Code: ExitManifestMissing, Err: err, Hint: "Try 'zzz new <name>' to create one."}
	case errors.Is(err, manifest.ErrInvalid), errors.Is(err, load.ErrManifestInvalid):
		return &ExitError{Code: ExitManifestInvalid, Err: err, Hint: "Try 'zzz new <name>' to create a new .zzz.yaml file."}
	case errors.Is(err, load.ErrCacheUnavailable):
		return &ExitError{Code: ExitInternal, Err: err, Hint: "Create ~/.snooze/cache/cache.yaml or run 'zzz cache add'."}
	}
	return &ExitError{Code: ExitFailure, Err: err}
}

// Report prints err to w and returns the process exit code for it.
func Report(err error, w io.Writer) int {
	e := classify(err)
	if e == nil {
		return ExitOK
	}

	u := newUI(w, w, false)
	switch {
	case errors.Is(e, load.ErrAborted):
		u.Info("Quitting...")
	case e.Code == ExitInterrupted:
		u.Warn("Interrupted")
	case e.Err != nil:
		u.Error("%v", e.Err)
	}
	if e.Hint != "" {
		u.Help(e.Hint)
	}
	return e.Code
}
