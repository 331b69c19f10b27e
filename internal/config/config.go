package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete builder configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http" envconfig:"HTTP"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Sources SourcesConfig `yaml:"sources" envconfig:"SOURCES"`
}

// HTTPConfig contains settings for outbound archive downloads.
type HTTPConfig struct {
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"60s" validate:"gt=0"`
	RequestInterval time.Duration `yaml:"request_interval" envconfig:"REQUEST_INTERVAL" default:"500ms" validate:"gte=0"`
	UserAgent       string        `yaml:"user_agent" envconfig:"USER_AGENT" default:"factorcli/1.0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/builder.log"`
}

// PathsConfig contains output directory configuration. Relative paths are
// resolved against the working directory the builder is launched from.
type PathsConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data" validate:"required"`
	MetaDir string `yaml:"meta_dir" envconfig:"META_DIR" default:"meta" validate:"required"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs" validate:"required"`
}

// SourcesConfig allows overriding the archive base URL, primarily so tests
// and mirrors can point the builder at a local server. Dataset definitions
// join their archive file names onto this base.
type SourcesConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL" default:"https://mba.tuck.dartmouth.edu/pages/faculty/ken.french/ftp" validate:"required,url"`
}

// Load loads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("FACTOR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence).
func mergeConfigs(fileCfg, envCfg Config) Config {
	if envCfg.HTTP.Timeout == 0 {
		envCfg.HTTP.Timeout = fileCfg.HTTP.Timeout
	}
	if envCfg.HTTP.RequestInterval == 0 {
		envCfg.HTTP.RequestInterval = fileCfg.HTTP.RequestInterval
	}
	if envCfg.HTTP.UserAgent == "" {
		envCfg.HTTP.UserAgent = fileCfg.HTTP.UserAgent
	}
	if envCfg.Logging.Level == "" {
		envCfg.Logging.Level = fileCfg.Logging.Level
	}
	if envCfg.Logging.Output == "" {
		envCfg.Logging.Output = fileCfg.Logging.Output
	}
	if envCfg.Logging.FilePath == "" {
		envCfg.Logging.FilePath = fileCfg.Logging.FilePath
	}
	if envCfg.Paths.DataDir == "" {
		envCfg.Paths.DataDir = fileCfg.Paths.DataDir
	}
	if envCfg.Paths.MetaDir == "" {
		envCfg.Paths.MetaDir = fileCfg.Paths.MetaDir
	}
	if envCfg.Paths.LogsDir == "" {
		envCfg.Paths.LogsDir = fileCfg.Paths.LogsDir
	}
	if envCfg.Sources.BaseURL == "" {
		envCfg.Sources.BaseURL = fileCfg.Sources.BaseURL
	}
	return envCfg
}

// validate checks the configuration against its struct tags.
func (c *Config) validate() error {
	return validator.New().Struct(c)
}

// getConfigFilePath returns the path of the optional config file.
func getConfigFilePath() string {
	if path := os.Getenv("FACTOR_CONFIG_FILE"); path != "" {
		return path
	}
	return "factorcli.yaml"
}
