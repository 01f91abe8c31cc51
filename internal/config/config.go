// Package config loads rollbook settings from an optional YAML file
// overlaid with environment variables.
package config

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config is the root configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects where the record snapshot lives.
// An empty Path resolves to a per-backend default under the data directory.
type StorageConfig struct {
	Backend string `yaml:"backend" env:"ROLLBOOK_STORE"   env-default:"sqlite" validate:"oneof=sqlite badger"`
	Path    string `yaml:"path"    env:"ROLLBOOK_DB_PATH"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"ROLLBOOK_LOG_LEVEL"  env-default:"warn" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"ROLLBOOK_LOG_FORMAT" env-default:"text" validate:"oneof=text json"`
}
