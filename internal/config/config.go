// Package config provides configuration loading and validation for the CLI
// and server.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Browser drivers
const (
	DriverChrome = "chrome"
	DriverRod    = "rod"
)

// Defaults applied by MergeWithDefaults(Defaults()).
const (
	DefaultPort              = "8080"
	DefaultNavigationTimeout = 30 * time.Second
	DefaultSQLitePath        = "data/privacy_lens.db"
)

// Config represents the configuration that can be loaded from a JSON or YAML
// file or the environment. All fields are optional; missing values use
// defaults or must be provided via CLI flags.
type Config struct {
	// Storage. DatabaseURL takes precedence over SQLitePath.
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL
	SQLitePath  string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`   // SQLite database file
	MemoryStore bool   `json:"memory_store,omitempty" yaml:"memory_store,omitempty"` // Keep results in memory only

	// Server
	Port string `json:"port,omitempty" yaml:"port,omitempty"`

	// Crawling
	BrowserDriver        string        `json:"browser_driver,omitempty" yaml:"browser_driver,omitempty"`           // chrome or rod
	BrowserPath          string        `json:"browser_path,omitempty" yaml:"browser_path,omitempty"`               // Chrome executable to launch
	BrowserControlURL    string        `json:"browser_control_url,omitempty" yaml:"browser_control_url,omitempty"` // DevTools websocket of a running browser
	// NavigationTimeout is "navigation_timeout" in files, as a duration string.
	NavigationTimeout    time.Duration `json:"-" yaml:"-"`
	SimulateInteractions bool          `json:"simulate_interactions,omitempty" yaml:"simulate_interactions,omitempty"`
	IncludeFirstParty    bool          `json:"include_first_party,omitempty" yaml:"include_first_party,omitempty"`

	// Behavior
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"` // Gemini API key
	Verbose bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"` // Print detailed debug information
}

// fileConfig is the on-disk shape: the timeout is a duration string ("45s").
type fileConfig struct {
	Config            `yaml:",inline"`
	NavigationTimeout string `json:"navigation_timeout,omitempty" yaml:"navigation_timeout,omitempty"`
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by
// extension (.yaml/.yml, anything else is JSON).
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	cfg := fc.Config
	if fc.NavigationTimeout != "" {
		d, err := time.ParseDuration(fc.NavigationTimeout)
		if err != nil {
			return nil, fmt.Errorf("config error: invalid 'navigation_timeout' %q: %w", fc.NavigationTimeout, err)
		}
		cfg.NavigationTimeout = d
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables. NAV_TIMEOUT
// accepts a Go duration ("45s") or whole seconds ("45").
func FromEnv() (*Config, error) {
	cfg := &Config{
		APIKey:            os.Getenv("GEMINI_API_KEY"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SQLitePath:        os.Getenv("SQLITE_PATH"),
		Port:              os.Getenv("PORT"),
		BrowserDriver:     strings.ToLower(strings.TrimSpace(os.Getenv("BROWSER_DRIVER"))),
		BrowserPath:       os.Getenv("BROWSER_PATH"),
		BrowserControlURL: os.Getenv("BROWSER_CONTROL_URL"),
	}

	if v := strings.TrimSpace(os.Getenv("NAV_TIMEOUT")); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return nil, fmt.Errorf("config error: invalid NAV_TIMEOUT %q: %w", v, err)
		}
		cfg.NavigationTimeout = d
	}

	return cfg, nil
}

func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// Defaults returns the built-in defaults.
func Defaults() Config {
	return Config{
		Port:              DefaultPort,
		BrowserDriver:     DriverChrome,
		NavigationTimeout: DefaultNavigationTimeout,
	}
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	switch c.BrowserDriver {
	case "", DriverChrome, DriverRod:
	default:
		return fmt.Errorf("config error: 'browser_driver' must be %q or %q, got %q", DriverChrome, DriverRod, c.BrowserDriver)
	}

	if c.BrowserControlURL != "" {
		u, err := url.Parse(c.BrowserControlURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			return fmt.Errorf("config error: 'browser_control_url' must be a ws:// or wss:// URL, got %q", c.BrowserControlURL)
		}
		if c.BrowserPath != "" {
			return fmt.Errorf("config error: 'browser_path' and 'browser_control_url' are mutually exclusive")
		}
	}

	if c.NavigationTimeout < 0 {
		return fmt.Errorf("config error: 'navigation_timeout' must be non-negative")
	}

	if c.Port != "" {
		port, err := strconv.Atoi(c.Port)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("config error: 'port' must be a number between 1 and 65535, got %q", c.Port)
		}
	}

	if c.MemoryStore && (c.DatabaseURL != "" || c.SQLitePath != "") {
		return fmt.Errorf("config error: 'memory_store' and a database are mutually exclusive")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SQLitePath == "" {
		result.SQLitePath = defaults.SQLitePath
	}
	if result.Port == "" {
		result.Port = defaults.Port
	}
	if result.BrowserDriver == "" {
		result.BrowserDriver = defaults.BrowserDriver
	}
	if result.BrowserPath == "" {
		result.BrowserPath = defaults.BrowserPath
	}
	if result.BrowserControlURL == "" {
		result.BrowserControlURL = defaults.BrowserControlURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}

	if result.NavigationTimeout == 0 {
		result.NavigationTimeout = defaults.NavigationTimeout
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
