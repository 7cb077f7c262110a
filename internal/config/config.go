// Package config loads optional YAML configuration shared by the CLI and the
// MCP server. A missing file yields defaults; the extraction engine itself
// takes no configuration beyond the seed.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultHarnessDir = "boundary-tests"

// Config carries the optional knobs shared by the CLI and the MCP server.
type Config struct {
	// Seed feeds new Extractors; 0 means time-based seeding.
	Seed int64 `yaml:"seed"`
	// HarnessDir is where companion specs go, relative to the subject's
	// directory when not absolute.
	HarnessDir string `yaml:"harness_dir"`
	// Ignore adds discovery glob patterns on top of the built-in set.
	Ignore []string `yaml:"ignore"`
	// DBPath overrides the default per-project store location.
	DBPath string `yaml:"db_path"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{HarnessDir: defaultHarnessDir}
}

// Load reads path into a Config. A missing file is not an error: defaults are
// returned so callers need no existence check.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.HarnessDir == "" {
		cfg.HarnessDir = defaultHarnessDir
	}
	return cfg, nil
}

// DefaultPath returns the conventional config file location, or empty when
// the home directory cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "boundary-probe-mcp", "config.yaml")
}
