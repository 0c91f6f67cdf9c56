package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	IFMap2JSON ToolConfig `yaml:"ifmap2json"`
}

// ToolConfig is the project configuration.
type ToolConfig struct {
	Conversion ConversionConfig `yaml:"conversion"`
	Output     OutputConfig     `yaml:"output"`
	Rules      RulesConfig      `yaml:"rules"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ConversionConfig controls how poll responses become events.
type ConversionConfig struct {
	// Chain keeps notifications of every document after the first.
	Chain bool `yaml:"chain" env:"IFMAP2JSON_CHAIN"`
	// ListFields replaces the built-in list of always-sequence elements.
	ListFields []string `yaml:"list_fields" env:"IFMAP2JSON_LIST_FIELDS" env-separator:","`
	// Indent of the JSON output; "none" writes compact JSON.
	Indent string `yaml:"indent" env:"IFMAP2JSON_INDENT"`
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	Dir string `yaml:"dir" env:"IFMAP2JSON_OUTPUT_DIR"`
	Dot bool   `yaml:"dot" env:"IFMAP2JSON_OUTPUT_DOT"`
}

// RulesConfig controls Sigma exclusion rules.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled" env:"IFMAP2JSON_RULES_ENABLED"`
	Path    string `yaml:"path" env:"IFMAP2JSON_RULES_PATH"`
}

// MetricsConfig controls the run statistics file.
type MetricsConfig struct {
	File string `yaml:"file" env:"IFMAP2JSON_METRICS_FILE"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled" env:"IFMAP2JSON_LOG_ENABLED"`
	Level   string `yaml:"level" env:"IFMAP2JSON_LOG_LEVEL"`
	File    string `yaml:"file" env:"IFMAP2JSON_LOG_FILE"`
	Console bool   `yaml:"console" env:"IFMAP2JSON_LOG_CONSOLE"`
	Format  string `yaml:"format" env:"IFMAP2JSON_LOG_FORMAT"` // console|json
}

// LoadConfig reads and parses a YAML config file. A missing file yields an
// empty configuration.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDotEnv loads variables from a .env file when one exists. Variables
// already set in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides configured values with IFMAP2JSON_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := cleanenv.ReadEnv(&cfg.IFMap2JSON); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}

// Load reads .env, the YAML file and the environment, in that order.
func Load(path, dotEnvPath string) (*Config, error) {
	if err := LoadDotEnv(dotEnvPath); err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
