// Package depcache reads the side file that maps known tools to their
// direct requirements.
package depcache

import (
	"errors"
	"fmt"
	"os"

	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when the cache file is absent or unreadable.
var ErrNotFound = errors.New("dependency cache not found")

// Entry is one known tool and the tools it requires.
type Entry struct {
	Package  manifest.Tool   `yaml:"PACKAGE"`
	Requires []manifest.Tool `yaml:"REQUIRES"`
}

type file struct {
	Cache []Entry `yaml:"CACHE"`
}

// Cache is the loaded dependency cache.
type Cache struct {
	entries []Entry
	byName  map[string]int
}

// New builds a cache from entries. Later entries win on duplicate names.
func New(entries []Entry) *Cache {
	c := &Cache{byName: make(map[string]int)}
	for _, e := range entries {
		c.Put(e)
	}
	return c
}

// Load reads the cache file at path.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrNotFound, path, err)
	}
	return New(f.Cache), nil
}

// Save writes the cache to path atomically.
func (c *Cache) Save(path string) error {
	data, err := yaml.Marshal(file{Cache: c.entries})
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	return manifest.WriteFileAtomic(path, data, 0644)
}

// Lookup finds the entry for tool by name.
func (c *Cache) Lookup(tool manifest.Tool) (Entry, bool) {
	i, ok := c.byName[tool.Name]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Put adds or replaces the entry for e.Package.Name.
func (c *Cache) Put(e Entry) {
	if i, ok := c.byName[e.Package.Name]; ok {
		c.entries[i] = e
		return
	}
	c.byName[e.Package.Name] = len(c.entries)
	c.entries = append(c.entries, e)
}

// Entries returns all entries in file order.
func (c *Cache) Entries() []Entry {
	return c.entries
}

// Len returns the number of known tools.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Names returns the known tool names in file order.
func (c *Cache) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Package.Name
	}
	return names
}

// Suggest returns the known tool name closest to name, if any matches.
func (c *Cache) Suggest(name string) (string, bool) {
	matches := fuzzy.Find(name, c.Names())
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}
