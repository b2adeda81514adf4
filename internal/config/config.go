// Package config loads CLI configuration from a YAML file, with .env support
// for local development. The SDK itself takes explicit options and never
// reads configuration on its own.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete CLI configuration
type Config struct {
	APIKey      string        `yaml:"api_key"`
	BearerToken string        `yaml:"bearer_token"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Poll        PollConfig    `yaml:"poll"`
	Logging     LoggingConfig `yaml:"logging"`
}

// PollConfig holds job polling settings
type PollConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay"`
	Multiplier   float64       `yaml:"multiplier"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		BaseURL: "https://api.invoiceiq.fr",
		Timeout: 30 * time.Second,
		Poll: PollConfig{
			InitialDelay: 1 * time.Second,
			Multiplier:   2.0,
			MaxDelay:     30 * time.Second,
			Timeout:      120 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// LoadDotenv loads a .env file into the process environment if one exists.
func LoadDotenv() {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()
}

// Load reads and parses the configuration file, applying defaults for unset
// fields.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides fields from INVOICEIQ_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("INVOICEIQ_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("INVOICEIQ_BEARER_TOKEN"); v != "" {
		c.BearerToken = v
	}
	if v := os.Getenv("INVOICEIQ_BASE_URL"); v != "" {
		c.BaseURL = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}

	if c.Poll.InitialDelay <= 0 {
		return fmt.Errorf("poll initial_delay must be greater than 0")
	}
	if c.Poll.Multiplier < 1 {
		return fmt.Errorf("poll multiplier must be at least 1")
	}
	if c.Poll.MaxDelay < c.Poll.InitialDelay {
		return fmt.Errorf("poll max_delay must be at least initial_delay")
	}
	if c.Poll.Timeout <= 0 {
		return fmt.Errorf("poll timeout must be greater than 0")
	}

	return nil
}
