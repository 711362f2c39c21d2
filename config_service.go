package main

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds persistent user preferences.
// Stored as TOML at ~/.poof/config.toml.
type Config struct {
	Sound           bool    `toml:"sound"`
	Volume          float64 `toml:"volume"`            // 0..1
	Hotkey          string  `toml:"hotkey"`            // e.g. "ctrl+option+p"; "none" disables
	StartupDelay    string  `toml:"startup_delay"`     // Go duration, e.g. "30s"
	PromptForAccess bool    `toml:"prompt_for_access"` // show the system trust prompt on first check
	LogLevel        string  `toml:"log_level"`         // "info" or "debug"
	LogFile         string  `toml:"log_file,omitempty"`
}

const defaultStartupDelay = 30 * time.Second

// defaultConfig returns factory defaults.
func defaultConfig() Config {
	return Config{
		Sound:           true,
		Volume:          0.6,
		Hotkey:          "ctrl+option+p",
		StartupDelay:    defaultStartupDelay.String(),
		PromptForAccess: true,
		LogLevel:        "info",
	}
}

// StartupDelayDuration parses StartupDelay, falling back to the default
// for anything unparseable or negative.
func (c Config) StartupDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.StartupDelay)
	if err != nil || d < 0 {
		return defaultStartupDelay
	}
	return d
}

// ConfigService loads and saves user configuration.
type ConfigService struct {
	path string
}

// NewConfigService creates a ConfigService pointing to the standard config path.
func NewConfigService() *ConfigService {
	home, _ := os.UserHomeDir()
	return &ConfigService{
		path: filepath.Join(home, ".poof", "config.toml"),
	}
}

// newConfigServiceAt creates a ConfigService with a custom path (tests and --config).
func newConfigServiceAt(path string) *ConfigService {
	return &ConfigService{path: path}
}

func (c *ConfigService) Path() string { return c.path }

// Load reads config from disk. Returns defaults if the file doesn't exist.
// If the file is corrupt it logs the error and writes fresh defaults.
// Keys missing from the file keep their default values.
func (c *ConfigService) Load() Config {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultConfig()
	}
	if err != nil {
		log.Printf("config: read error: %v — using defaults", err)
		return defaultConfig()
	}
	cfg := defaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		log.Printf("config: parse error: %v — resetting to defaults", err)
		defaults := defaultConfig()
		_ = c.Save(defaults) // overwrite corrupt file
		return defaults
	}
	d := defaultConfig()
	if cfg.Hotkey == "" {
		cfg.Hotkey = d.Hotkey
	}
	if cfg.StartupDelay == "" {
		cfg.StartupDelay = d.StartupDelay
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = d.LogLevel
	}
	if cfg.Volume < 0 || cfg.Volume > 1 {
		log.Printf("config: volume %.2f out of range — using %.2f", cfg.Volume, d.Volume)
		cfg.Volume = d.Volume
	}
	return cfg
}

// Save writes the config to disk atomically (write to temp, then rename).
func (c *ConfigService) Save(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
