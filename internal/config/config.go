package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Tracing TracingConfig `yaml:"tracing" envconfig:"TRACING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/run.log"`
}

// TracingConfig controls the per-step trace spans.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/trace.jsonl"`
}

// PathsConfig overrides the directory layout. Relative entries resolve
// against the executable directory.
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ConfigsDir string `yaml:"configs_dir" envconfig:"CONFIGS_DIR" default:"configs"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

var validate = validator.New()

// Load loads configuration from environment variables and, when present,
// a config file. Environment variables take precedence.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SHIFT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := findConfigFile(); configFile != "" {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = merge(*fileCfg, cfg)
	}

	applyDefaults(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge overlays env config on top of file config; empty env fields fall
// back to the file values.
func merge(file, env Config) Config {
	if env.Logging.Level == "" {
		env.Logging.Level = file.Logging.Level
	}
	if env.Logging.Format == "" {
		env.Logging.Format = file.Logging.Format
	}
	if env.Logging.Output == "" {
		env.Logging.Output = file.Logging.Output
	}
	if env.Logging.FilePath == "" {
		env.Logging.FilePath = file.Logging.FilePath
	}
	if !env.Tracing.Enabled {
		env.Tracing.Enabled = file.Tracing.Enabled
	}
	if env.Tracing.FilePath == "" {
		env.Tracing.FilePath = file.Tracing.FilePath
	}
	if env.Paths.DataDir == "" {
		env.Paths.DataDir = file.Paths.DataDir
	}
	if env.Paths.ConfigsDir == "" {
		env.Paths.ConfigsDir = file.Paths.ConfigsDir
	}
	if env.Paths.LogsDir == "" {
		env.Paths.LogsDir = file.Paths.LogsDir
	}
	return env
}

func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	// JSON is the only supported log format.
	cfg.Logging.Format = "json"
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "both"
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = "logs/run.log"
	}
	if cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = "logs/trace.jsonl"
	}
	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = "data"
	}
	if cfg.Paths.ConfigsDir == "" {
		cfg.Paths.ConfigsDir = "configs"
	}
	if cfg.Paths.LogsDir == "" {
		cfg.Paths.LogsDir = "logs"
	}
}

// findConfigFile returns the path of the config file, checking common
// locations relative to the working directory.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/run.log",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			FilePath: "logs/trace.jsonl",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ConfigsDir: "configs",
			LogsDir:    "logs",
		},
	}
}
