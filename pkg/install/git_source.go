package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/grovetools/zzz/pkg/platform"
	"golang.org/x/mod/modfile"
)

// GitSource clones the tool's repository into scratch space, runs the build
// declared by the repository's own build manifest and copies the artifact
// into the namespace.
type GitSource struct{}

func (GitSource) Install(ctx context.Context, job Job) error {
	if err := os.MkdirAll(job.Dir, 0755); err != nil {
		return &Error{Kind: KindDirectoryCreateFailed, Tool: job.Tool.Name, Err: err}
	}
	if err := os.MkdirAll(job.Scratch, 0755); err != nil {
		return &Error{Kind: KindDirectoryCreateFailed, Tool: job.Tool.Name, Err: err}
	}

	cloneDir := filepath.Join(job.Scratch, job.Tool.Name)
	if err := os.RemoveAll(cloneDir); err != nil {
		return &Error{Kind: KindDirectoryCreateFailed, Tool: job.Tool.Name, Err: err}
	}
	defer func() {
		os.RemoveAll(cloneDir)
		// Drop the namespace scratch dir once the last build using it is done.
		os.Remove(job.Scratch)
	}()

	clone := platform.Command{Argv: []string{"git", "clone", "--depth", "1", job.Tool.Link, cloneDir}}
	if err := runStep(ctx, job, clone, KindCloneFailed); err != nil {
		return err
	}

	nested, err := loadBuildManifest(cloneDir)
	if err != nil {
		return &Error{Kind: KindManifestFailed, Tool: job.Tool.Name, Err: err}
	}

	// Build steps run with the clone as their working directory; the
	// process working directory is never changed.
	for _, line := range nested.On.Run {
		argv, err := platform.Split(line)
		if err != nil {
			return &Error{Kind: KindManifestFailed, Tool: job.Tool.Name, Err: err}
		}
		if len(argv) == 0 {
			continue
		}
		step := platform.Command{Argv: argv, Dir: cloneDir}
		if err := runStep(ctx, job, step, KindBuildFailed); err != nil {
			return err
		}
	}

	artifact, err := artifactPath(cloneDir, nested)
	if err != nil {
		return &Error{Kind: KindManifestFailed, Tool: job.Tool.Name, Err: err}
	}

	if err := copyExecutable(artifact, job.Dest()); err != nil {
		return &Error{Kind: KindCopyFailed, Tool: job.Tool.Name, Err: err}
	}
	return nil
}

func loadBuildManifest(dir string) (*manifest.Manifest, error) {
	p, err := manifest.Find(filepath.Join(dir, manifest.BuildName))
	if err != nil {
		return nil, err
	}
	return manifest.Load(p)
}

// artifactPath locates the build output named by the nested manifest's
// PACKAGE, falling back to the last element of the go.mod module path.
func artifactPath(dir string, nested *manifest.Manifest) (string, error) {
	name := strings.TrimSpace(nested.Project.Package)
	if name == "" {
		data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err != nil {
			return "", errors.New("build manifest declares no PACKAGE and the repository has no go.mod")
		}
		modPath := modfile.ModulePath(data)
		if modPath == "" {
			return "", errors.New("build manifest declares no PACKAGE and go.mod has no module path")
		}
		name = path.Base(modPath)
	}

	p := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact %q is outside the repository", name)
	}
	return p, nil
}

// copyExecutable copies src to dest with mode 0755, replacing dest atomically.
func copyExecutable(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open build artifact: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy build artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0755); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}
