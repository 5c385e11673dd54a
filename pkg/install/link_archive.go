package install

import (
	"context"
	"os"
)

// LinkArchive downloads the tool's link straight into the namespace and
// marks it executable.
type LinkArchive struct{}

func (LinkArchive) Install(ctx context.Context, job Job) error {
	if err := os.MkdirAll(job.Dir, 0755); err != nil {
		return &Error{Kind: KindDirectoryCreateFailed, Tool: job.Tool.Name, Err: err}
	}

	dest := job.Dest()
	if err := runStep(ctx, job, job.Shell.Download(job.Tool.Link, dest), KindFetchFailed); err != nil {
		// Leave nothing half-downloaded behind.
		os.Remove(dest)
		return err
	}

	if cmd, ok := job.Shell.MarkExecutable(dest); ok {
		if err := runStep(ctx, job, cmd, KindPermissionFailed); err != nil {
			return err
		}
	}
	return nil
}
