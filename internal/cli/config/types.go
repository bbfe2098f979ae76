// Package config provides configuration management for the calckit CLI.
//
// Values are layered with koanf in this order (highest wins):
// flags > CALCKIT_* environment variables > calckit.yaml > defaults.
package config

// Config holds all CLI configuration options.
type Config struct {
	OutputFormat string        `koanf:"output"`
	Verbose      bool          `koanf:"verbose"`
	LogLevel     string        `koanf:"log_level"`
	Precision    int           `koanf:"precision"`
	Workers      int           `koanf:"workers"`
	History      HistoryConfig `koanf:"history"`
	Server       ServerConfig  `koanf:"server"`

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string `koanf:"-"`
}

// HistoryConfig controls the evaluation history store.
type HistoryConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Port int `koanf:"port"`
}

// Default configuration values.
const (
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel    = "warn"
	DefaultPrecision   = 6
	DefaultWorkers     = 4
	DefaultHistoryPath = ".calckit/history.db"
	DefaultServerPort  = 8787
)

// Config file names searched in the working directory.
const (
	ConfigFileName    = "calckit.yaml"
	ConfigFileNameAlt = "calckit.yml"
)

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		Precision:    DefaultPrecision,
		Workers:      DefaultWorkers,
		History: HistoryConfig{
			Path: DefaultHistoryPath,
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
		},
	}
}
