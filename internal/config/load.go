package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load decodes a YAML file with environment variable expansion into target.
func Load[T any](fsys afero.Fs, filename string, target *T) error {
	data, err := afero.ReadFile(fsys, filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	return nil
}

// ParseEnv overlays FOSSIL_* environment variables on target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Resolve builds the process configuration: defaults, then the settings file
// (explicit path, or <base>/fossil.yaml when present), then the environment.
// The result is validated.
func Resolve(fsys afero.Fs, cfg *Config, explicit string) (*Config, error) {
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}

	path := explicit
	if path == "" {
		path = cfg.Layout().SettingsFile()
	}
	_, err := fsys.Stat(path)
	switch {
	case err == nil:
		if err := Load(fsys, path, cfg); err != nil {
			return nil, err
		}
		// the environment wins over the file
		if err := ParseEnv(cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist) && explicit == "":
	default:
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if v, ok := any(cfg).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	return cfg, nil
}
