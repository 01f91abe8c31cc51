package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfigPath names the env var holding the config file path.
const EnvConfigPath = "ROLLBOOK_CONFIG"

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
//
// The file path is explicitPath if non-empty, else ROLLBOOK_CONFIG, else
// the default under the user config directory. A missing file is an error
// only when the path was given explicitly.
func Load(explicitPath string) (*Config, error) {
	var cfg Config

	path, explicit := explicitPath, explicitPath != ""
	if !explicit {
		if p := os.Getenv(EnvConfigPath); p != "" {
			path, explicit = p, true
		} else {
			path = DefaultConfigPath()
		}
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		// No file, load from ENV + defaults only.
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	if cfg.Storage.Path == "" {
		p, err := DefaultStoragePath(cfg.Storage.Backend)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		cfg.Storage.Path = p
	}

	return &cfg, nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/rollbook/config.yaml, falling
// back to ~/.config. Returns "" when no home directory is known.
func DefaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "rollbook", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rollbook", "config.yaml")
}

// DataDir returns $XDG_DATA_HOME/rollbook, falling back to
// ~/.local/share/rollbook.
func DataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "rollbook"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "rollbook"), nil
}

// DefaultStoragePath returns the default location for backend: a database
// file for sqlite, a directory for badger.
func DefaultStoragePath(backend string) (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	switch backend {
	case BackendSQLite:
		return filepath.Join(dir, "rollbook.db"), nil
	case BackendBadger:
		return filepath.Join(dir, "badger"), nil
	default:
		return "", errors.New("unknown storage backend " + backend)
	}
}
