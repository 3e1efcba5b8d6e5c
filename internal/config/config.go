package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "songset"

// Defaults used when a key is absent from every config file.
const (
	DefaultRoot             = "data"
	DefaultOutput           = "dataset/data.json"
	DefaultSegmentsPerTrack = 10
	DefaultSegmentDuration  = 10
	DefaultWorkers          = 1
)

type Config struct {
	Root             string `koanf:"root"`               // dataset root: artist/album/*.mp3
	Output           string `koanf:"output"`             // JSON artifact path
	SegmentsPerTrack int    `koanf:"segments_per_track"` // segments drawn from every chosen song
	SegmentDuration  int    `koanf:"segment_duration"`   // seconds per segment
	SampleRate       int    `koanf:"sample_rate"`        // 0 keeps the native rate
	Workers          int    `koanf:"workers"`            // artists extracted in parallel (default: 1)

	// Seed makes sampling and segment offsets reproducible. Unset means random.
	Seed *uint64 `koanf:"seed"`

	Journal JournalConfig `koanf:"journal"`
}

// JournalConfig controls the audit log of filesystem mutations.
type JournalConfig struct {
	Enabled *bool  `koanf:"enabled"` // default: true
	Path    string `koanf:"path"`    // default: $XDG_DATA_HOME/songset/journal.db
}

// Load reads the default config files, then any extra files in order.
// Later files override earlier ones.
func Load(extra ...string) (*Config, error) {
	k := koanf.New(".")

	configPaths := append(getConfigPaths(), extra...)

	for i, path := range configPaths {
		_, err := os.Stat(path)
		if err != nil {
			// Explicitly requested files must exist
			if i >= len(configPaths)-len(extra) {
				return nil, fmt.Errorf("config file %s: %w", path, err)
			}
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Root = expandPath(cfg.Root)
	cfg.Output = expandPath(cfg.Output)
	cfg.Journal.Path = expandPath(cfg.Journal.Path)

	return cfg, nil
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Root:             DefaultRoot,
		Output:           DefaultOutput,
		SegmentsPerTrack: DefaultSegmentsPerTrack,
		SegmentDuration:  DefaultSegmentDuration,
		Workers:          DefaultWorkers,
	}
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/songset/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Validate reports the first setting that cannot drive a run.
func (c *Config) Validate() error {
	switch {
	case c.Root == "":
		return errors.New("root must be set")
	case c.Output == "":
		return errors.New("output must be set")
	case c.SegmentsPerTrack <= 0:
		return fmt.Errorf("segments_per_track must be positive, got %d", c.SegmentsPerTrack)
	case c.SegmentDuration <= 0:
		return fmt.Errorf("segment_duration must be positive, got %d", c.SegmentDuration)
	case c.SampleRate < 0:
		return fmt.Errorf("sample_rate must not be negative, got %d", c.SampleRate)
	}
	return nil
}

// WorkerCount returns the extraction parallelism with defaults applied.
func (c *Config) WorkerCount() int {
	if c.Workers <= 0 {
		return DefaultWorkers
	}
	return c.Workers
}

// JournalEnabled returns true unless the journal was explicitly disabled.
func (c *Config) JournalEnabled() bool {
	return c.Journal.Enabled == nil || *c.Journal.Enabled
}
