package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config is the persistent application configuration
type Config struct {
	// Batching of container changes into widget transactions
	Batch BatchConfig `json:"batch"`

	// Snapshot persistence
	Store StoreConfig `json:"store"`

	// Logging and event log
	Log LogConfig `json:"log"`

	// UI Preferences
	UI UIConfig `json:"ui"`
}

// BatchConfig controls the update batcher
type BatchConfig struct {
	SettleDelayMs int `json:"settle_delay_ms"` // Wait before the deferred reload transaction
}

// StoreConfig controls where and how snapshots are kept
type StoreConfig struct {
	Path     string `json:"path"`     // SQLite file; ":memory:" keeps nothing
	Format   string `json:"format"`   // json, yaml or proto
	Snapshot string `json:"snapshot"` // Name the board is saved under
	Autosave bool   `json:"autosave"`
}

// LogConfig controls the file logger and the JSONL event log
type LogConfig struct {
	Level  string `json:"level"`
	Dir    string `json:"dir,omitempty"`   // Empty uses ~/.datasources/logs
	Events bool   `json:"events"`          // Write the JSONL event log
	Trace  bool   `json:"trace,omitempty"` // One event per UI message
}

// UIConfig holds UI preferences
type UIConfig struct {
	Theme       string `json:"theme"`        // "dark" or "light"
	DensityMode string `json:"density_mode"` // "comfortable" or "compact"
	ShowDebug   bool   `json:"show_debug"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Batch: BatchConfig{
			SettleDelayMs: 100,
		},
		Store: StoreConfig{
			Path:     filepath.Join(Dir(), "datasources.db"),
			Format:   "json",
			Snapshot: "board",
			Autosave: true,
		},
		Log: LogConfig{
			Level:  "info",
			Events: true,
		},
		UI: UIConfig{
			Theme:       "dark",
			DensityMode: "comfortable",
		},
	}
}

// SettleDelay returns the batch settle delay as a duration.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Batch.SettleDelayMs) * time.Millisecond
}

// Dir returns the application directory
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".datasources")
}

// ConfigPath returns the path to the config file. DATASOURCES_CONFIG overrides it.
func ConfigPath() string {
	if p := os.Getenv("DATASOURCES_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path. A missing file yields defaults; fields
// the file leaves out keep their defaults. Environment overrides apply last.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.AutoPopulateFromEnv()
	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to path
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// AutoPopulateFromEnv applies DATASOURCES_* overrides
func (c *Config) AutoPopulateFromEnv() {
	if v := os.Getenv("DATASOURCES_SETTLE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			c.Batch.SettleDelayMs = ms
		}
	}
	if v := os.Getenv("DATASOURCES_STORE"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("DATASOURCES_FORMAT"); v != "" {
		c.Store.Format = v
	}
	if v := os.Getenv("DATASOURCES_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DATASOURCES_LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
	if v := os.Getenv("DATASOURCES_TRACE"); v != "" {
		c.Log.Trace = v != "0"
	}
	if v := os.Getenv("DATASOURCES_THEME"); v != "" {
		c.UI.Theme = v
	}
}
