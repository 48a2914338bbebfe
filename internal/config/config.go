package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Index   IndexConfig   `yaml:"index"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Log     LogConfig     `yaml:"log"`
}

// ConvertConfig holds conversion run configuration.
type ConvertConfig struct {
	RecordsDir   string `yaml:"records_dir" envconfig:"RECORDS_DIR"`
	CSVPath      string `yaml:"csv_path" envconfig:"CSV_PATH"`
	MediaMapPath string `yaml:"media_map_path" envconfig:"MEDIA_MAP_PATH"`
	MediaDir     string `yaml:"media_dir" envconfig:"MEDIA_DIR"`
	MaxSkips     int    `yaml:"max_skips" envconfig:"MAX_SKIPS"`
	Schedule     string `yaml:"schedule" envconfig:"CONVERT_SCHEDULE"`
}

// IndexConfig holds the SQLite archive index configuration. An empty path
// disables indexing.
type IndexConfig struct {
	Path string `yaml:"path" envconfig:"INDEX_PATH"`
}

// ViewerConfig holds the dataset viewer HTTP server configuration.
type ViewerConfig struct {
	Host         string        `yaml:"host" envconfig:"VIEWER_HOST"`
	Port         int           `yaml:"port" envconfig:"VIEWER_PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"VIEWER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"VIEWER_WRITE_TIMEOUT"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level" envconfig:"LOG_LEVEL"`
}

func defaultConfig() *Config {
	return &Config{
		Convert: ConvertConfig{
			CSVPath:  "tweets.csv",
			MaxSkips: 10,
		},
		Viewer: ViewerConfig{
			Host:         "127.0.0.1",
			Port:         8750,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: time.Minute,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads configuration from defaults, file, and environment variables,
// in that order. Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := defaultConfig()

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are consistent.
func (c *Config) Validate() error {
	if c.Convert.CSVPath == "" {
		return fmt.Errorf("CSV_PATH is required")
	}
	if c.Convert.MaxSkips < 0 {
		return fmt.Errorf("MAX_SKIPS must not be negative")
	}
	if c.Viewer.Port <= 0 || c.Viewer.Port > 65535 {
		return fmt.Errorf("VIEWER_PORT %d out of range", c.Viewer.Port)
	}
	return nil
}

// Address returns the viewer address in host:port format.
func (c *ViewerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
