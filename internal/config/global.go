// Package config handles the global configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EndpointConfig describes a catalog endpoint added or overridden by
// the user.
type EndpointConfig struct {
	Name    string `yaml:"name,omitempty"`
	URL     string `yaml:"url"`
	Schema  string `yaml:"schema,omitempty"`
	Version string `yaml:"version,omitempty"`
}

// GlobalConfig represents configuration stored in
// ~/.config/citer/config.yml.
type GlobalConfig struct {
	UserAgent       string                    `yaml:"user_agent,omitempty"`
	Language        string                    `yaml:"language,omitempty"`
	TimeoutSeconds  int                       `yaml:"timeout_seconds,omitempty"`
	CacheSize       int                       `yaml:"cache_size,omitempty"`
	BibFile         string                    `yaml:"bib_file,omitempty"`
	DefaultEndpoint string                    `yaml:"default_endpoint,omitempty"`
	Endpoints       map[string]EndpointConfig `yaml:"endpoints,omitempty"`
	GoogleAPIKey    string                    `yaml:"google_api_key,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "citer"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/citer/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.BibFile != "" {
		cfg.BibFile = ExpandTilde(cfg.BibFile)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetUserAgent returns the configured User-Agent, or "".
func GetUserAgent() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.UserAgent
}

// GetLanguage returns the preferred content language. The CITER_LANG
// environment variable overrides the config file.
func GetLanguage() string {
	if lang := os.Getenv("CITER_LANG"); lang != "" {
		return lang
	}
	cfg, _ := LoadGlobalConfig()
	return cfg.Language
}

// GetTimeout returns the overall lookup deadline, or zero when
// unconfigured so callers fall back to their own default.
func GetTimeout() time.Duration {
	cfg, _ := LoadGlobalConfig()
	if cfg.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}

// GetCacheSize returns the configured memo size, or zero.
func GetCacheSize() int {
	cfg, _ := LoadGlobalConfig()
	return cfg.CacheSize
}

// GetBibFile returns the bibliography file used by --append-bib.
func GetBibFile() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.BibFile
}

// GetDefaultEndpoint returns the endpoint used when --endpoint is not
// given.
func GetDefaultEndpoint() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.DefaultEndpoint
}

// GetGoogleAPIKey returns the Google Books API key. The
// GOOGLE_BOOKS_API_KEY environment variable overrides the config file.
func GetGoogleAPIKey() string {
	if key := os.Getenv("GOOGLE_BOOKS_API_KEY"); key != "" {
		return key
	}
	cfg, _ := LoadGlobalConfig()
	return cfg.GoogleAPIKey
}

// GetEndpoints returns the user's endpoint additions and overrides.
func GetEndpoints() map[string]EndpointConfig {
	cfg, _ := LoadGlobalConfig()
	return cfg.Endpoints
}

// ExpandTilde expands a leading ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}

// HelpfulConfigMessage explains how to create the config file.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No configuration file found.

Tip: Create %s to set defaults:
  mkdir -p %s
  echo 'language: en' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
