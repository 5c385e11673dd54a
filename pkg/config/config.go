// Package config reads and writes the user configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/grovetools/zzz/pkg/manifest"
	gotoml "github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration written as a string such as "10m".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the content of config.toml.
type Config struct {
	Install Install `toml:"install"`
	Resolve Resolve `toml:"resolve"`
	Log     Log     `toml:"log"`

	// Undecoded lists keys present in the file that zzz does not know.
	Undecoded []string `toml:"-"`
}

type Install struct {
	// Timeout bounds a single package install.
	Timeout Duration `toml:"timeout"`
	// Jobs is the number of packages installed at once.
	Jobs int `toml:"jobs"`
}

type Resolve struct {
	// Transitive expands requirements of requirements.
	Transitive bool `toml:"transitive"`
}

type Log struct {
	Verbose bool `toml:"verbose"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Install: Install{
			Timeout: Duration(10 * time.Minute),
			Jobs:    1,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Default(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		cfg.Undecoded = append(cfg.Undecoded, key.String())
	}

	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values no command can work with.
func (c Config) Validate() error {
	if c.Install.Jobs < 1 {
		return fmt.Errorf("install.jobs must be at least 1, got %d", c.Install.Jobs)
	}
	if c.Install.Timeout < 0 {
		return fmt.Errorf("install.timeout must not be negative, got %s", time.Duration(c.Install.Timeout))
	}
	return nil
}

// Marshal renders c as TOML.
func (c Config) Marshal() ([]byte, error) {
	data, err := gotoml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TOML: %w", err)
	}
	return data, nil
}

// Save writes c to path, creating parent directories.
func (c Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return manifest.WriteFileAtomic(path, data, 0644)
}
