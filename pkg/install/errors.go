package install

import (
	"errors"
	"fmt"
)

// Kind classifies why a package failed to install.
type Kind string

const (
	KindDirectoryCreateFailed Kind = "DirectoryCreateFailed"
	KindFetchFailed           Kind = "FetchFailed"
	KindPermissionFailed      Kind = "PermissionFailed"
	KindCloneFailed           Kind = "CloneFailed"
	KindManifestFailed        Kind = "ManifestFailed"
	KindBuildFailed           Kind = "BuildFailed"
	KindCopyFailed            Kind = "CopyFailed"
	KindTimeout               Kind = "Timeout"
	KindUnknownMethod         Kind = "UnknownMethod"
	KindInvalidName           Kind = "InvalidName"
)

// Error is the failure of a single package install. It never aborts the
// rest of a closure.
type Error struct {
	Kind Kind
	Tool string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("install %s: %s: %v", e.Tool, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" when err is not an install error.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}
