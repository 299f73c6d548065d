package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	homedir "github.com/mitchellh/go-homedir"
)

const (
	BaseDirName      = ".fossil"
	ConfigFile       = "config"
	SettingsFile     = "fossil.yaml"
	ProfilesDir      = "profiles"
	SnapshotsDir     = "snapshots"
	BufferDir        = "buffer"
	CatalogFile      = "catalog.db"
	LockFile         = "fossil.lock"
	IgnoreFile       = "ignore"
	ManifestExt      = ".manifest"
	ArchiveExt       = ".archive"
	DefaultProfile   = "current_profile"
	SnapshotManifest = "manifest.json"
)

const (
	DefaultHash        = "xxh3" // "xxh3" | "sha256"
	DefaultCompression = "gzip" // "gzip" | "none"
	DefaultLogLevel    = "info"
)

// Config is constructed once at process start and passed to every component.
type Config struct {
	BaseDir     string      `yaml:"base_dir" env:"FOSSIL_BASE_DIR"`
	HomeDir     string      `yaml:"home_dir" env:"FOSSIL_HOME"`
	Hash        string      `yaml:"hash" env:"FOSSIL_HASH"`
	Workers     int         `yaml:"workers" env:"FOSSIL_WORKERS"`
	Compression string      `yaml:"compression" env:"FOSSIL_COMPRESSION"`
	LogLevel    string      `yaml:"log_level" env:"FOSSIL_LOG_LEVEL"`
	Watch       WatchConfig `yaml:"watch"`
}

// WatchConfig holds the defaults used by `fossil watch`.
type WatchConfig struct {
	Interval time.Duration `yaml:"interval" env:"FOSSIL_WATCH_INTERVAL"`
	Debounce time.Duration `yaml:"debounce" env:"FOSSIL_WATCH_DEBOUNCE"`
}

// Default returns a Config rooted at the current user's home directory.
func Default() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("resolve home dir: %w", err)
	}
	return DefaultAt(home), nil
}

// DefaultAt returns a Config using home as the home root and <home>/.fossil as the base dir.
func DefaultAt(home string) *Config {
	return &Config{
		BaseDir:     filepath.Join(home, BaseDirName),
		HomeDir:     home,
		Hash:        DefaultHash,
		Workers:     runtime.NumCPU(),
		Compression: DefaultCompression,
		LogLevel:    DefaultLogLevel,
		Watch: WatchConfig{
			Interval: time.Hour,
			Debounce: 2 * time.Second,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.BaseDir, validation.Required, validation.By(absolute)),
		validation.Field(&c.HomeDir, validation.Required, validation.By(absolute)),
		validation.Field(&c.Hash, validation.Required, validation.In("xxh3", "sha256")),
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
		validation.Field(&c.Compression, validation.Required, validation.In("gzip", "none")),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "warning", "error")),
	); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Interval, validation.Min(time.Duration(0))),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// Layout returns the on-disk layout rooted at BaseDir.
func (c *Config) Layout() Layout {
	return Layout{Base: c.BaseDir}
}

func absolute(value any) error {
	s, _ := value.(string)
	if s != "" && !filepath.IsAbs(s) {
		return errors.New("must be an absolute path")
	}
	return nil
}
