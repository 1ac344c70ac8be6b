package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache for config to avoid repeated file reads.
var (
	cacheMutex    sync.RWMutex
	cachedConfig  *Config
	cachedPath    string
	cachedModTime time.Time
)

// Config holds the application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Ignore   IgnoreConfig   `yaml:"ignore"`
	Search   SearchConfig   `yaml:"search"`
	Hook     HookConfig     `yaml:"hook"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to SQLite database file
}

// IgnoreConfig holds patterns for commands that are never recorded.
type IgnoreConfig struct {
	Patterns []string `yaml:"patterns"` // Regex patterns (e.g., "^ls$", "^cd ")
}

// SearchConfig holds search-related configuration.
type SearchConfig struct {
	Limit int `yaml:"limit"` // Max results per interactive query
}

// HookConfig holds shell integration configuration.
type HookConfig struct {
	Keybinding string `yaml:"keybinding"` // Interactive search binding, ctrl-X format
}

// Default returns the default configuration.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is unavailable
		home = "."
	}
	dbPath := filepath.Join(home, ".corvus", "history.db")

	return &Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Ignore: IgnoreConfig{
			Patterns: []string{
				// Noise commands not worth recalling
				"^ls$",
				"^cd$",
				"^pwd$",
				"^exit$",
				"^clear$",
			},
		},
		Search: SearchConfig{
			Limit: 200,
		},
		Hook: HookConfig{
			Keybinding: "ctrl-r",
		},
	}
}

// Load loads configuration from file, falling back to defaults.
// Uses a cache to avoid repeated file reads if the file hasn't changed.
func Load(path string) (*Config, error) {
	// Check cache first
	cacheMutex.RLock()
	if cachedConfig != nil && cachedPath == path {
		if stat, err := os.Stat(path); err == nil {
			if stat.ModTime().Equal(cachedModTime) {
				defer cacheMutex.RUnlock()
				return cachedConfig, nil
			}
		}
	}
	cacheMutex.RUnlock()

	// Cache miss or file changed - load from disk
	cacheMutex.Lock()
	defer cacheMutex.Unlock()

	// Start with defaults
	cfg := Default()

	// If file doesn't exist, cache and return defaults
	stat, err := os.Stat(path)
	if os.IsNotExist(err) {
		cachedConfig = cfg
		cachedPath = path
		cachedModTime = time.Time{} // Zero time for non-existent file
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Update cache
	cachedConfig = cfg
	cachedPath = path
	cachedModTime = stat.ModTime()

	return cfg, nil
}

// LoadDefault loads configuration from the default path (~/.corvus/config.yaml)
func LoadDefault() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(home, ".corvus", "config.yaml")
	return Load(configPath)
}

// ClearCache clears the configuration cache, forcing a reload on next Load()
func ClearCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	cachedConfig = nil
	cachedPath = ""
	cachedModTime = time.Time{}
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if c.Search.Limit < 0 {
		return fmt.Errorf("search limit cannot be negative")
	}

	for _, pat := range c.Ignore.Patterns {
		if _, err := regexp.Compile(pat); err != nil {
			return fmt.Errorf("invalid ignore pattern %q: %w", pat, err)
		}
	}

	return nil
}

// GetDatabasePath returns the configured database path.
// CORVUS_DB_PATH overrides the config file.
func (c *Config) GetDatabasePath() string {
	if env := os.Getenv("CORVUS_DB_PATH"); env != "" {
		return env
	}
	return c.Database.Path
}

// GetKeybinding returns the configured interactive search keybinding
func (c *Config) GetKeybinding() string {
	if c.Hook.Keybinding == "" {
		return "ctrl-r"
	}
	return c.Hook.Keybinding
}
