package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".wikigraph"

// LoadConfigFile overlays the YAML file at path onto cfg. Keys missing from
// the file leave the current values untouched. If the file does not exist,
// it returns ErrConfigNotFound.
//
// Example file:
//
//	dataDir: /var/lib/wikigraph
//	fetchWorkers: 20
//	revisitInterval: 1h
//	headers:
//	  Accept-Language: en
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrConfigNotFound
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .wikigraph in the current directory
// 3. Look for .wikigraph in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// Load applies the configuration file and the environment to cfg, in that
// order. A config file that was asked for explicitly must exist; an
// implicit one is optional.
func Load(cfg *Config) error {
	if path := FindConfigFile(cfg.ConfigFilePath); path != "" {
		if err := LoadConfigFile(path, cfg); err != nil {
			return err
		}
	} else if cfg.ConfigFilePath != "" {
		return fmt.Errorf("%w: %s", ErrConfigNotFound, cfg.ConfigFilePath)
	}
	return LoadEnv(cfg, cfg.EnvFilePath)
}
