package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the portal server.
// Tags use mapstructure for Viper unmarshalling.
type Config struct {
	HTTPPort        string `mapstructure:"HTTP_PORT"`
	PublicURL       string `mapstructure:"PUBLIC_URL"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	LogPretty       bool   `mapstructure:"LOG_PRETTY"`
	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Google OAuth client used for sign-in.
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`

	// Session token signing.
	SessionSecret  string `mapstructure:"SESSION_SECRET"`
	SessionTTLHour int    `mapstructure:"SESSION_TTL_HOUR"`

	// Base HR platform integration.
	BaseDomain        string `mapstructure:"BASE_DOMAIN"`
	BaseClientSession string `mapstructure:"BASE_CLIENT_SESSION"`
	BaseTimeoutSec    int    `mapstructure:"BASE_TIMEOUT_SEC"`

	// Credential cache. Memory-backed unless REDIS_ADDR is set.
	RedisAddr   string `mapstructure:"REDIS_ADDR"`
	CacheTTLMin int    `mapstructure:"CACHE_TTL_MIN"`
}

// Load reads configuration from file, environment variables, and defaults,
// then validates it. Missing required values abort startup here rather than
// failing at first use.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/basegate/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("OTEL_SERVICE_NAME", "basegate")
	v.SetDefault("SESSION_TTL_HOUR", 12)
	v.SetDefault("BASE_TIMEOUT_SEC", 10)
	v.SetDefault("CACHE_TTL_MIN", 5)

	// Required keys have no defaults but must still be declared so
	// AutomaticEnv picks them up during Unmarshal.
	for _, key := range []string{
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET",
		"SESSION_SECRET", "BASE_DOMAIN", "BASE_CLIENT_SESSION", "REDIS_ADDR",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; env vars and defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required values and value shapes.
func (c *Config) Validate() error {
	if c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}
	if c.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.BaseDomain == "" {
		return fmt.Errorf("BASE_DOMAIN is required")
	}
	u, err := url.Parse(c.BaseDomain)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BASE_DOMAIN must be an absolute URL, got %q", c.BaseDomain)
	}
	if c.SessionTTLHour <= 0 {
		return fmt.Errorf("SESSION_TTL_HOUR must be positive")
	}
	if c.BaseTimeoutSec <= 0 {
		return fmt.Errorf("BASE_TIMEOUT_SEC must be positive")
	}
	if c.CacheTTLMin <= 0 {
		return fmt.Errorf("CACHE_TTL_MIN must be positive")
	}
	return nil
}
