package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grovetools/zzz/pkg/manifest"
)

// manifestPath finds the manifest named by args[0], or the only manifest in
// the current directory when no name is given.
func manifestPath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return manifest.Find(args[0])
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("could not get current directory: %w", err)
	}
	files, err := manifest.Discover(cwd)
	if err != nil {
		return "", err
	}
	if len(files) > 1 {
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = manifest.ProjectName(filepath.Base(f))
		}
		return "", fmt.Errorf("found %d projects here (%s); name the one to use", len(files), strings.Join(names, ", "))
	}
	return files[0], nil
}
