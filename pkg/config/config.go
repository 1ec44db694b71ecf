// Package config provides configuration management for the clockify CLI.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/clockify-client/pkg/client"
	"github.com/Sternrassler/clockify-client/pkg/logging"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Environment variables that override values from the config file.
const (
	EnvURL      = "CLOCKIFY_URL"
	EnvAPIKey   = "CLOCKIFY_API_KEY"
	EnvLogLevel = "CLOCKIFY_LOG_LEVEL"
	EnvProxy    = "CLOCKIFY_PROXY"
)

// DefaultConfigDir returns the default config directory (~/.clockify).
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".clockify"), nil
}

// DefaultConfigPath returns the default config file path (~/.clockify/config.yml).
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// Config holds the CLI configuration.
type Config struct {
	URL      string        `yaml:"url,omitempty"`
	APIKey   string        `yaml:"api_key,omitempty"`
	LogLevel string        `yaml:"log_level,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	ProxyURL string        `yaml:"proxy_url,omitempty"`
}

// Default returns a configuration pointing at the public API.
func Default() *Config {
	return &Config{
		URL:      client.DefaultBaseURL,
		LogLevel: string(logging.LevelWarn),
		Timeout:  client.DefaultTimeout,
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.URL == "" {
		result = multierror.Append(result, errors.New("url is required"))
	} else if u, err := url.Parse(c.URL); err != nil || u.Scheme == "" || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("url must be an absolute URL, got %q", c.URL))
	}

	if c.APIKey == "" {
		result = multierror.Append(result, errors.New("api_key is required"))
	}

	if !validLogLevel(c.LogLevel) {
		result = multierror.Append(result, fmt.Errorf("log_level %q is not one of debug, info, warn, error, disabled", c.LogLevel))
	}

	if c.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}

	if c.ProxyURL != "" {
		u, err := url.Parse(c.ProxyURL)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("proxy_url: %w", err))
		case u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "socks5":
			result = multierror.Append(result, fmt.Errorf("proxy_url scheme %q is not one of http, https, socks5", u.Scheme))
		}
	}

	return result.ErrorOrNil()
}

func validLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "", "debug", "info", "warn", "warning", "error", "disabled", "off", "none":
		return true
	}
	return false
}

// ApplyEnv overrides fields with the CLOCKIFY_* environment variables that
// are set and non-empty.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvURL); v != "" {
		c.URL = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvProxy); v != "" {
		c.ProxyURL = v
	}
}

// ServerConfig returns the client configuration for c.
func (c *Config) ServerConfig() client.ServerConfig {
	cfg := client.DefaultServerConfig(c.URL)
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}
	cfg.ProxyURL = c.ProxyURL
	return cfg
}

// LoggingConfig returns the logger configuration for c.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	if c.LogLevel != "" {
		cfg.Level = logging.LogLevel(c.LogLevel)
	}
	return cfg
}

// Load reads the configuration from the given path on top of Default.
// If the file does not exist, the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// LoadDefault loads the configuration from the default path.
func LoadDefault() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Save writes the configuration to the given path, creating directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// The file holds the API key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// SaveDefault saves the configuration to the default path.
func (c *Config) SaveDefault() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.Save(path)
}
