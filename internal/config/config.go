// ABOUTME: Configuration loading and parsing for the doku share gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete share-gateway configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Share    ShareConfig    `yaml:"share"`
	Assets   AssetsConfig   `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// BaseURL is the externally visible URL prefix used when minting
	// signed asset URLs, e.g. "https://doku.example.com".
	BaseURL string `yaml:"base_url"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds owner authentication configuration.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// ShareConfig holds share lifecycle policy. The durations are policy
// values, not invariants; defaults match the shipped behavior.
type ShareConfig struct {
	SessionTTL    time.Duration `yaml:"-"`
	SweepInterval time.Duration `yaml:"-"`
	SlugLength    int           `yaml:"slug_length"`
	SlugRetries   int           `yaml:"slug_retries"`

	// Raw string values for YAML unmarshaling
	SessionTTLRaw    string `yaml:"session_ttl"`
	SweepIntervalRaw string `yaml:"sweep_interval"`
}

// AssetsConfig holds signed asset URL configuration.
type AssetsConfig struct {
	Secret string        `yaml:"secret"`
	Dir    string        `yaml:"dir"`
	URLTTL time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	URLTTLRaw string `yaml:"url_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Assets.Secret == "" {
		return fmt.Errorf("assets.secret is required")
	}
	if c.Assets.Dir == "" {
		return fmt.Errorf("assets.dir is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Share.SessionTTLRaw != "" {
		cfg.Share.SessionTTL, err = time.ParseDuration(cfg.Share.SessionTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session_ttl %q: %w", cfg.Share.SessionTTLRaw, err)
		}
	}

	if cfg.Share.SweepIntervalRaw != "" {
		cfg.Share.SweepInterval, err = time.ParseDuration(cfg.Share.SweepIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing sweep_interval %q: %w", cfg.Share.SweepIntervalRaw, err)
		}
	}

	if cfg.Assets.URLTTLRaw != "" {
		cfg.Assets.URLTTL, err = time.ParseDuration(cfg.Assets.URLTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing url_ttl %q: %w", cfg.Assets.URLTTLRaw, err)
		}
	}

	return nil
}
