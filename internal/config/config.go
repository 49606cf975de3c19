// Package config loads pipeline configuration from environment variables
// with an optional YAML overlay file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Pipeline   PipelineConfig   `yaml:"pipeline" envconfig:"PIPELINE"`
	Mappings   MappingsConfig   `yaml:"mappings" envconfig:"MAPPINGS"`
	OpenFIGI   OpenFIGIConfig   `yaml:"openfigi" envconfig:"OPENFIGI"`
	Mindicador MindicadorConfig `yaml:"mindicador" envconfig:"MINDICADOR"`
}

// LoggingConfig controls the slog setup.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains the file system layout.
type PathsConfig struct {
	InputDir  string `yaml:"input_dir" envconfig:"INPUT_DIR"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
}

// PipelineConfig bounds the per-bank worker pool and stage timeouts.
type PipelineConfig struct {
	Workers     int           `yaml:"workers" envconfig:"WORKERS"`
	BankTimeout time.Duration `yaml:"bank_timeout" envconfig:"BANK_TIMEOUT"`
}

// MappingsConfig locates the encrypted account-mapping workbook. The
// passphrase only ever travels in this value; it is never persisted.
type MappingsConfig struct {
	File       string `yaml:"file" envconfig:"FILE"`
	Passphrase string `yaml:"-" envconfig:"PASSPHRASE"`
}

// OpenFIGIConfig configures the identifier-lookup client used by banks whose
// files carry ambiguous or missing identifiers.
type OpenFIGIConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`
	APIKey  string `yaml:"-" envconfig:"API_KEY"`
}

// MindicadorConfig configures the currency/index reference client.
type MindicadorConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`
}

// defaultConfig is the baseline every load starts from. Defaults live here
// rather than in envconfig tags so the YAML overlay is not clobbered by
// default values when the corresponding env var is unset.
func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/preprocess.log",
		},
		Paths: PathsConfig{
			InputDir:  "data/input_files",
			OutputDir: "data/output",
		},
		Pipeline: PipelineConfig{
			Workers:     4,
			BankTimeout: 5 * time.Minute,
		},
		Mappings:   MappingsConfig{File: "Mappings.xlsx.enc"},
		OpenFIGI:   OpenFIGIConfig{BaseURL: "https://api.openfigi.com/v3/mapping"},
		Mindicador: MindicadorConfig{BaseURL: "https://mindicador.cl/api"},
	}
}

// Load builds the configuration in ascending precedence: built-in defaults,
// then the YAML file named by BANKFEED_CONFIG (if set), then BANKFEED_*
// environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()
	if path := os.Getenv("BANKFEED_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := envconfig.Process("BANKFEED", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be >= 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.BankTimeout <= 0 {
		return fmt.Errorf("bank timeout must be positive, got %s", c.Pipeline.BankTimeout)
	}
	return nil
}
