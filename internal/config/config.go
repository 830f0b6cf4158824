package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"eventcsv/internal/model"
)

// ICSConfig describes a calendar feed whose events are folded into the
// export as single events.
type ICSConfig struct {
	// URL is an http(s) feed URL or a local .ics path.
	URL string `yaml:"url" json:"url" validate:"required"`
	// ID is an internal identifier used for caching and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`

	// Defaults applied to every imported event; ICS has no equivalent fields.
	EventType model.EventType `yaml:"event_type,omitempty" json:"event_type,omitempty" validate:"omitempty,eventtype"`
	Capacity  int             `yaml:"capacity,omitempty" json:"capacity,omitempty" validate:"min=0"`
	Staff     []string        `yaml:"staff,omitempty" json:"staff,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen" validate:"required"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn warning error"`

	// DefaultTimezone is applied to records that leave their timezone blank.
	DefaultTimezone string `yaml:"default_timezone" json:"default_timezone" validate:"required,zone"`

	// DefaultWeeks is applied to patterns that leave their week count unset.
	DefaultWeeks int `yaml:"default_weeks" json:"default_weeks" validate:"min=1,max=52"`

	// Strict rejects documents with incomplete records or timezones outside
	// the registry instead of exporting them best-effort.
	Strict bool `yaml:"strict" json:"strict"`

	// Input is the schedule document used by scheduled refreshes.
	Input string `yaml:"input" json:"input"`

	// Output is where scheduled refreshes write the CSV. "-" writes no file;
	// the CLI prints the CSV to stdout instead.
	Output string `yaml:"output" json:"output"`

	// ICSOutput optionally receives an iCalendar rendering of the same instances.
	ICSOutput string `yaml:"ics_output,omitempty" json:"ics_output,omitempty"`

	// ICSSeries writes one recurring event per pattern to ICSOutput instead
	// of one event per date.
	ICSSeries bool `yaml:"ics_series,omitempty" json:"ics_series,omitempty"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// for periodic re-export in serve mode. Empty disables it.
	RefreshCron string `yaml:"refresh" json:"refresh" validate:"omitempty,cronspec"`

	// HorizonDays bounds how far ahead recurring ICS events are expanded.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days" validate:"min=1,max=366"`

	// CacheDir stores ICS feed bodies and HTTP cache metadata.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// ICS is the list of imported calendar feeds.
	ICS []ICSConfig `yaml:"ics" json:"ics" validate:"dive"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "America/New_York"
	defaultHorizonDays = 56
	defaultCacheDir    = "./var/ics-cache"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          defaultListen,
		LogLevel:        "info",
		DefaultTimezone: defaultTimezone,
		DefaultWeeks:    model.DefaultWeeks,
		Strict:          false,
		Output:          "events.csv",
		HorizonDays:     defaultHorizonDays,
		CacheDir:        defaultCacheDir,
		ICS:             []ICSConfig{},
		BasicAuth:       nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DefaultTimezone == "" {
		c.DefaultTimezone = defaultTimezone
	}
	if c.DefaultWeeks <= 0 || c.DefaultWeeks > model.MaxWeeks {
		c.DefaultWeeks = model.DefaultWeeks
	}
	if c.Output == "" {
		c.Output = "events.csv"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		if c.ICS[i].ID == "" {
			if c.ICS[i].Name != "" {
				c.ICS[i].ID = c.ICS[i].Name
			} else {
				c.ICS[i].ID = c.ICS[i].URL
			}
		}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// The parent directory is created (0700) and the YAML is written to a temp
// file in the same directory, then renamed over path with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, 0o600)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eventcsv-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
