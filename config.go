package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds easel configuration, loaded from
// $XDG_CONFIG_HOME/easel/config.toml.
type Config struct {
	Backend  BackendConfig      `toml:"backend"`
	Defaults GenerationDefaults `toml:"defaults"`
	Files    FilesConfig        `toml:"files"`
}

// BackendConfig selects and locates the generation backend.
type BackendConfig struct {
	// Mode is "queue" (upload/enqueue/poll) or "stream".
	Mode      string `toml:"mode"`
	QueueURL  string `toml:"queue_url"`
	StreamURL string `toml:"stream_url"`
}

// GenerationDefaults seed new generator and editor nodes.
type GenerationDefaults struct {
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	Steps  int     `toml:"steps"`
	Cfg    float64 `toml:"cfg"`
	Model  string  `toml:"model"`
}

// FilesConfig controls where sessions and exports land.
type FilesConfig struct {
	SaveDirectory string `toml:"save_directory"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Mode:     "queue",
			QueueURL: "http://localhost:7860",
		},
		Defaults: GenerationDefaults{
			Width:  1024,
			Height: 1024,
			Steps:  28,
			Cfg:    4.5,
		},
	}
}

func configDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "easel")
}

// LoadConfig reads the config file, falling back to defaults when it is
// absent or unreadable.
func LoadConfig(path string) *Config {
	if path == "" {
		path = filepath.Join(configDir(), "config.toml")
	}
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return DefaultConfig()
	}
	if cfg.Backend.Mode != "queue" && cfg.Backend.Mode != "stream" {
		cfg.Backend.Mode = "queue"
	}
	return cfg
}

// SavePath resolves a session or export filename against the configured
// save directory.
func (c *Config) SavePath(filename string) string {
	if c.Files.SaveDirectory == "" || filepath.IsAbs(filename) {
		return filename
	}
	os.MkdirAll(c.Files.SaveDirectory, 0o755)
	return filepath.Join(c.Files.SaveDirectory, filename)
}
