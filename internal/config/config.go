package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds all configurable yalapm settings.
type Config struct {
	ReportsDir  string  `json:"reports_dir"`  // override the XDG default
	DefaultTag  string  `json:"default_tag"`  // pre-filled in the start form
	VeAPMFactor float64 `json:"veapm_factor"` // 0 < f <= 1; 0 means unset
	TrendWindow int     `json:"trend_window"` // samples kept for the trend graph
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		DefaultTag:  "untagged",
		VeAPMFactor: 0.7,
		TrendWindow: 300,
	}
}

// LoadGlobal reads ~/.config/yalapm/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".config", "yalapm", "config.json")
	return loadFile(path, true)
}

// LoadLocal reads .yalapmrc in the current working directory, so a
// project checkout can pin its own tag and reports directory.
// Returns nil (no error) if the file is absent.
func LoadLocal() (*Config, error) {
	return loadFile(".yalapmrc", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and local configs, with local taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, local *Config) Config {
	result := Defaults()

	apply := func(c *Config) {
		if c == nil {
			return
		}
		if c.ReportsDir != "" {
			result.ReportsDir = c.ReportsDir
		}
		if c.DefaultTag != "" {
			result.DefaultTag = c.DefaultTag
		}
		if c.VeAPMFactor > 0 && c.VeAPMFactor <= 1 {
			result.VeAPMFactor = c.VeAPMFactor
		}
		if c.TrendWindow > 0 {
			result.TrendWindow = c.TrendWindow
		}
	}

	apply(global)
	apply(local)
	return result
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
