// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all contacts configuration.
type Config struct {
	Storage Storage `yaml:"storage"`
	Log     Log     `yaml:"log"`
	UI      UI      `yaml:"ui"`
}

// Storage selects the key-value backend and where it keeps data.
type Storage struct {
	Backend    string `yaml:"backend"`     // "file" | "sqlite" | "memory"
	Dir        string `yaml:"dir"`         // Data directory; "~" expands to $HOME
	SQLiteFile string `yaml:"sqlite_file"` // Database file, relative to Dir unless absolute
	OnCorrupt  string `yaml:"on_corrupt"`  // "fail" | "reset"
}

// Log holds logger settings.
type Log struct {
	Level string `yaml:"level"` // "debug" | "info" | "warn" | "error"
	File  string `yaml:"file"`  // Log file; "" means <dir>/contacts.log, "stderr" and "off" are special
}

// UI holds presentation settings.
type UI struct {
	Locale string `yaml:"locale"` // Catalog language, e.g. "en" or "vi"
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Storage: Storage{
			Backend:    "file",
			Dir:        "~/.local/share/contacts",
			SQLiteFile: "contacts.db",
			OnCorrupt:  "fail",
		},
		Log: Log{
			Level: "info",
		},
		UI: UI{
			Locale: "en",
		},
	}
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files and empty paths are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "sqlite", "memory":
		// valid
	default:
		return fmt.Errorf("config: storage.backend must be \"file\", \"sqlite\" or \"memory\", got %q", c.Storage.Backend)
	}
	if c.Storage.Backend != "memory" && c.Storage.Dir == "" {
		return errors.New("config: storage.dir cannot be empty")
	}
	if c.Storage.Backend == "sqlite" && c.Storage.SQLiteFile == "" {
		return errors.New("config: storage.sqlite_file cannot be empty")
	}
	switch c.Storage.OnCorrupt {
	case "fail", "reset":
		// valid
	default:
		return fmt.Errorf("config: storage.on_corrupt must be \"fail\" or \"reset\", got %q", c.Storage.OnCorrupt)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("config: log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.UI.Locale == "" {
		return errors.New("config: ui.locale cannot be empty")
	}
	if strings.ContainsAny(c.UI.Locale, `/\.`) {
		return fmt.Errorf("config: ui.locale must be a language code, got %q", c.UI.Locale)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: CONTACTS_BACKEND, CONTACTS_DATA_DIR, CONTACTS_ON_CORRUPT,
// CONTACTS_LOCALE, CONTACTS_LOG_LEVEL, CONTACTS_LOG_FILE.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CONTACTS_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("CONTACTS_DATA_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("CONTACTS_ON_CORRUPT"); v != "" {
		c.Storage.OnCorrupt = v
	}
	if v := os.Getenv("CONTACTS_LOCALE"); v != "" {
		c.UI.Locale = v
	}
	if v := os.Getenv("CONTACTS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CONTACTS_LOG_FILE"); v != "" {
		c.Log.File = v
	}
}

// DataDir returns Storage.Dir with a leading "~" expanded to the home directory.
func (c *Config) DataDir() (string, error) {
	return expandHome(c.Storage.Dir)
}

// LogPath returns the resolved log destination: a file path, "stderr", or "" when logging is off.
func (c *Config) LogPath() (string, error) {
	switch c.Log.File {
	case "off":
		return "", nil
	case "stderr":
		return "stderr", nil
	case "":
		dir, err := c.DataDir()
		if err != nil {
			return "", err
		}
		if dir == "" {
			return "stderr", nil
		}
		return filepath.Join(dir, "contacts.log"), nil
	default:
		return expandHome(c.Log.File)
	}
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Storage *rawStorage `yaml:"storage"`
	Log     *rawLog     `yaml:"log"`
	UI      *rawUI      `yaml:"ui"`
}

type rawStorage struct {
	Backend    *string `yaml:"backend"`
	Dir        *string `yaml:"dir"`
	SQLiteFile *string `yaml:"sqlite_file"`
	OnCorrupt  *string `yaml:"on_corrupt"`
}

type rawLog struct {
	Level *string `yaml:"level"`
	File  *string `yaml:"file"`
}

type rawUI struct {
	Locale *string `yaml:"locale"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if s := layer.Storage; s != nil {
		if s.Backend != nil {
			c.Storage.Backend = *s.Backend
		}
		if s.Dir != nil {
			c.Storage.Dir = *s.Dir
		}
		if s.SQLiteFile != nil {
			c.Storage.SQLiteFile = *s.SQLiteFile
		}
		if s.OnCorrupt != nil {
			c.Storage.OnCorrupt = *s.OnCorrupt
		}
	}
	if l := layer.Log; l != nil {
		if l.Level != nil {
			c.Log.Level = *l.Level
		}
		if l.File != nil {
			c.Log.File = *l.File
		}
	}
	if u := layer.UI; u != nil {
		if u.Locale != nil {
			c.UI.Locale = *u.Locale
		}
	}
}
