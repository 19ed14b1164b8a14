// Package config loads and saves showtrack's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/mmcdole/showtrack/internal/log"
)

const appName = "showtrack"

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Session SessionConfig `mapstructure:"session"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging log.Config    `mapstructure:"logging"`
}

// ServerConfig holds tracking server configuration
type ServerConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// SessionConfig identifies the signed-in account and selected profile
type SessionConfig struct {
	AccountID int `mapstructure:"account_id"`
	ProfileID int `mapstructure:"profile_id"`
}

// SyncConfig tunes staleness checks and the API client
type SyncConfig struct {
	Freshness     time.Duration `mapstructure:"freshness"`      // snapshot and idle window
	Interval      time.Duration `mapstructure:"interval"`       // periodic check
	ReloadTimeout time.Duration `mapstructure:"reload_timeout"` // background reload bound
	RateLimit     float64       `mapstructure:"rate_limit"`     // requests per second
	Retries       uint          `mapstructure:"retries"`
}

// StorageConfig holds the durable store location
type StorageConfig struct {
	Path string `mapstructure:"path"` // empty keeps the session in memory only
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Sync: SyncConfig{
			Freshness:     30 * time.Minute,
			Interval:      5 * time.Minute,
			ReloadTimeout: 30 * time.Second,
			RateLimit:     10,
			Retries:       3,
		},
		Storage: StorageConfig{
			Path: filepath.Join(dataDir(), "session.db"),
		},
		Logging: log.Config{
			File:       filepath.Join(dataDir(), appName+".log"),
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// IsConfigured returns true if the server URL and token are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Token != ""
}

// HasSession returns true if an account and profile are selected
func (c *Config) HasSession() bool {
	return c.Session.AccountID != 0 && c.Session.ProfileID != 0
}

// dataDir returns the default data directory for the current OS
func dataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName)
	}
}

// DefaultPath returns the default config file path for the current OS
func DefaultPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName, "config.yaml")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName, "config.yaml")
	}
}

// Manager reads and writes one config file through an afero filesystem.
type Manager struct {
	v    *viper.Viper
	fs   afero.Fs
	path string
}

// NewManager creates a manager for the file at path. An empty path uses
// DefaultPath; a nil fs uses the OS filesystem.
func NewManager(fs afero.Fs, path string) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if path == "" {
		path = DefaultPath()
	}
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Environment variable overrides, e.g. SHOWTRACK_SERVER_TOKEN
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())
	return &Manager{v: v, fs: fs, path: path}
}

// Path returns the config file location
func (m *Manager) Path() string { return m.path }

// setDefaults registers every key so env overrides reach Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.token", cfg.Server.Token)
	v.SetDefault("session.account_id", cfg.Session.AccountID)
	v.SetDefault("session.profile_id", cfg.Session.ProfileID)
	v.SetDefault("sync.freshness", cfg.Sync.Freshness)
	v.SetDefault("sync.interval", cfg.Sync.Interval)
	v.SetDefault("sync.reload_timeout", cfg.Sync.ReloadTimeout)
	v.SetDefault("sync.rate_limit", cfg.Sync.RateLimit)
	v.SetDefault("sync.retries", cfg.Sync.Retries)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", cfg.Logging.MaxAgeDays)
	v.SetDefault("logging.console", cfg.Logging.Console)
}

// Load reads the config file if it exists and applies env overrides
func (m *Manager) Load() (*Config, error) {
	exists, err := afero.Exists(m.fs, m.path)
	if err != nil {
		return nil, fmt.Errorf("error checking config file: %w", err)
	}
	if exists {
		if err := m.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := m.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to the config file
func (m *Manager) Save(cfg *Config) error {
	m.v.Set("server.url", cfg.Server.URL)
	m.v.Set("server.token", cfg.Server.Token)
	m.v.Set("session.account_id", cfg.Session.AccountID)
	m.v.Set("session.profile_id", cfg.Session.ProfileID)
	m.v.Set("sync.freshness", cfg.Sync.Freshness.String())
	m.v.Set("sync.interval", cfg.Sync.Interval.String())
	m.v.Set("sync.reload_timeout", cfg.Sync.ReloadTimeout.String())
	m.v.Set("sync.rate_limit", cfg.Sync.RateLimit)
	m.v.Set("sync.retries", cfg.Sync.Retries)
	m.v.Set("storage.path", cfg.Storage.Path)
	m.v.Set("logging.file", cfg.Logging.File)
	m.v.Set("logging.level", cfg.Logging.Level)
	m.v.Set("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	m.v.Set("logging.max_backups", cfg.Logging.MaxBackups)
	m.v.Set("logging.max_age_days", cfg.Logging.MaxAgeDays)
	m.v.Set("logging.console", cfg.Logging.Console)
	return m.write()
}

// ClearSession removes the token and the selected account and profile
// while preserving other settings
func (m *Manager) ClearSession() error {
	m.v.Set("server.token", "")
	m.v.Set("session.account_id", 0)
	m.v.Set("session.profile_id", 0)
	return m.write()
}

func (m *Manager) write() error {
	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := m.v.WriteConfigAs(m.path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
