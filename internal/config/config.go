package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName   string `mapstructure:"app_name"`
	Env       string `mapstructure:"app_env"`
	LogLevel  string `mapstructure:"log_level"`
	UserAgent string `mapstructure:"user_agent"`
	Accept    string `mapstructure:"accept"`

	BaseURL               string        `mapstructure:"base_url"`
	ResourcesDir          string        `mapstructure:"resources_dir"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`
	MaxRedirects          int           `mapstructure:"max_redirects"`

	StorageType         string        `mapstructure:"storage_type"`
	BundlePath          string        `mapstructure:"bundle_path"`
	BundleMaxAgeSeconds int64         `mapstructure:"bundle_max_age_seconds"`
	BundleMaxAge        time.Duration `mapstructure:"-"`

	PublishersFile string `mapstructure:"publishers_file"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-asset-loader")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("user_agent", "samvad-asset-loader/1.0")
	v.SetDefault("accept", "")
	v.SetDefault("base_url", "")
	v.SetDefault("resources_dir", "./resources/")
	v.SetDefault("request_timeout_seconds", 0) // no timeout; callers bound requests with ctx
	v.SetDefault("max_redirects", 10)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bundle_path", "./data/bundle.db")
	v.SetDefault("bundle_max_age_seconds", 0)
	v.SetDefault("publishers_file", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("invalid request_timeout_seconds (must be zero or positive seconds)")
	}
	c.RequestTimeout = time.Duration(c.RequestTimeoutSeconds) * time.Second

	if c.MaxRedirects < 0 {
		return fmt.Errorf("invalid max_redirects (must be zero or positive)")
	}

	if c.BundleMaxAgeSeconds < 0 {
		return fmt.Errorf("invalid bundle_max_age_seconds (must be zero or positive seconds)")
	}
	c.BundleMaxAge = time.Duration(c.BundleMaxAgeSeconds) * time.Second

	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.ResourcesDir = strings.TrimSpace(c.ResourcesDir)
	c.PublishersFile = strings.TrimSpace(c.PublishersFile)
	return nil
}

// Headers returns the request headers every HTTP fetch carries (skips empty values).
func (c *Config) Headers() map[string]string {
	headers := make(map[string]string, 2)
	if c == nil {
		return headers
	}
	if v := strings.TrimSpace(c.UserAgent); v != "" {
		headers["User-Agent"] = v
	}
	if v := strings.TrimSpace(c.Accept); v != "" {
		headers["Accept"] = v
	}
	return headers
}
