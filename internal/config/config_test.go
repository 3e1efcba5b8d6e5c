//nolint:goconst // test cases intentionally repeat strings for readability
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/music",
			expected: filepath.Join(home, "music"),
		},
		{
			name:     "tilde with nested path",
			input:    "~/music/dataset/raw",
			expected: filepath.Join(home, "music", "dataset", "raw"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/srv/data",
			expected: "/srv/data",
		},
		{
			name:     "relative path unchanged",
			input:    "data",
			expected: "data",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	if len(paths) == 0 {
		t.Fatal("getConfigPaths() returned empty slice")
	}

	// Last path should be local config.toml
	lastPath := paths[len(paths)-1]
	if lastPath != "config.toml" {
		t.Errorf("last config path = %q, want %q", lastPath, "config.toml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		expectedFirst := filepath.Join(home, ".config", "songset", "config.toml")
		if paths[0] != expectedFirst {
			t.Errorf("first config path = %q, want %q", paths[0], expectedFirst)
		}
	}
}

func TestLoad_ExtraFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songset.toml")
	content := `
root = "/srv/music"
output = "/srv/out/data.json"
segments_per_track = 4
segment_duration = 3
sample_rate = 22050
workers = 2
seed = 42

[journal]
enabled = false
path = "/tmp/journal.db"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/music", cfg.Root)
	assert.Equal(t, "/srv/out/data.json", cfg.Output)
	assert.Equal(t, 4, cfg.SegmentsPerTrack)
	assert.Equal(t, 3, cfg.SegmentDuration)
	assert.Equal(t, 22050, cfg.SampleRate)
	assert.Equal(t, 2, cfg.WorkerCount())
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, uint64(42), *cfg.Seed)
	assert.False(t, cfg.JournalEnabled())
	assert.Equal(t, "/tmp/journal.db", cfg.Journal.Path)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songset.toml")
	require.NoError(t, os.WriteFile(path, []byte(`root = "raw"`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "raw", cfg.Root)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultSegmentsPerTrack, cfg.SegmentsPerTrack)
	assert.Equal(t, DefaultSegmentDuration, cfg.SegmentDuration)
	assert.Nil(t, cfg.Seed)
	assert.True(t, cfg.JournalEnabled())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_InvalidToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("root = "), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "empty root", mutate: func(c *Config) { c.Root = "" }, wantErr: true},
		{name: "empty output", mutate: func(c *Config) { c.Output = "" }, wantErr: true},
		{name: "zero segments", mutate: func(c *Config) { c.SegmentsPerTrack = 0 }, wantErr: true},
		{name: "negative duration", mutate: func(c *Config) { c.SegmentDuration = -1 }, wantErr: true},
		{name: "negative sample rate", mutate: func(c *Config) { c.SampleRate = -8000 }, wantErr: true},
		{name: "explicit sample rate", mutate: func(c *Config) { c.SampleRate = 22050 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWorkerCount_Defaults(t *testing.T) {
	assert.Equal(t, 1, (&Config{}).WorkerCount())
	assert.Equal(t, 1, (&Config{Workers: -3}).WorkerCount())
	assert.Equal(t, 8, (&Config{Workers: 8}).WorkerCount())
}
