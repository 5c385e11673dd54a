package namespace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grovetools/zzz/pkg/manifest"
	"gopkg.in/yaml.v3"
)

const (
	// ProductDir is the directory created under the user's home.
	ProductDir = ".snooze"
	// HomeEnv overrides the product directory location.
	HomeEnv = "ZZZ_HOME"

	BinsDir    = "bins"
	TempDir    = "ztemp"
	CacheDir   = "cache"
	StateDir   = "state"
	ExtDir     = "ext"
	CacheFile  = "cache.yaml"
	StateFile  = "status.db"
	ConfigFile = "config.toml"

	identityFile = ".identity"
)

// Layout computes every path below the product directory.
type Layout struct {
	Root string
}

// DefaultLayout uses $ZZZ_HOME, falling back to ~/.snooze.
func DefaultLayout() (Layout, error) {
	if root := os.Getenv(HomeEnv); root != "" {
		return Layout{Root: root}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewLayout(home), nil
}

// NewLayout returns the layout rooted at <home>/.snooze.
func NewLayout(home string) Layout {
	return Layout{Root: filepath.Join(home, ProductDir)}
}

// Bins is the install namespace directory for ns.
func (l Layout) Bins(ns uint64) string {
	return filepath.Join(l.Root, BinsDir, Format(ns))
}

// Tool is the installed path of a tool inside namespace ns.
func (l Layout) Tool(ns uint64, name string) string {
	return filepath.Join(l.Bins(ns), name)
}

// Temp is the scratch directory used for source builds in namespace ns.
func (l Layout) Temp(ns uint64) string {
	return filepath.Join(l.Root, TempDir, Format(ns))
}

// CacheFile is the dependency cache location.
func (l Layout) CacheFile() string {
	return filepath.Join(l.Root, CacheDir, CacheFile)
}

// StateDB is the install status database location.
func (l Layout) StateDB() string {
	return filepath.Join(l.Root, StateDir, StateFile)
}

// ConfigFile is the user configuration location.
func (l Layout) ConfigFile() string {
	return filepath.Join(l.Root, ConfigFile)
}

// Ext is the directory searched for extension executables.
func (l Layout) Ext() string {
	return filepath.Join(l.Root, ExtDir)
}

// Installed lists the tool names currently present in namespace ns.
func (l Layout) Installed(ns uint64) ([]string, error) {
	entries, err := os.ReadDir(l.Bins(ns))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read namespace %s: %w", Format(ns), err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Remove deletes the install namespace and any leftover scratch space.
func (l Layout) Remove(ns uint64) error {
	if err := os.RemoveAll(l.Bins(ns)); err != nil {
		return fmt.Errorf("failed to remove namespace %s: %w", Format(ns), err)
	}
	if err := os.RemoveAll(l.Temp(ns)); err != nil {
		return fmt.Errorf("failed to remove scratch space %s: %w", Format(ns), err)
	}
	return nil
}

type identityRecord struct {
	Name        string `yaml:"NAME"`
	Description string `yaml:"DESCRIPTION"`
	Package     string `yaml:"PACKAGE"`
	Version     string `yaml:"VERSION"`
}

// CheckIdentity records id as the owner of its namespace on first use. When
// the namespace is already owned by a different identity (a hash collision)
// it returns the recorded owner and false.
func (l Layout) CheckIdentity(id manifest.Identity) (manifest.Identity, bool, error) {
	ns := Hash(id)
	path := filepath.Join(l.Bins(ns), identityFile)

	data, err := os.ReadFile(path)
	if err == nil {
		var rec identityRecord
		if err := yaml.Unmarshal(data, &rec); err != nil {
			return manifest.Identity{}, false, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		owner := manifest.Identity(rec)
		return owner, owner == id, nil
	}
	if !os.IsNotExist(err) {
		return manifest.Identity{}, false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	data, err = yaml.Marshal(identityRecord(id))
	if err != nil {
		return manifest.Identity{}, false, err
	}
	if err := manifest.WriteFileAtomic(path, data, 0644); err != nil {
		return manifest.Identity{}, false, err
	}
	return id, true, nil
}
