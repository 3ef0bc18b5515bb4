package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the main structure mapping the entire application configuration.
// This struct uses mapstructure tags to map YAML/JSON keys to Go struct fields.
type Config struct {
	// Server configuration section containing HTTP server settings
	Server struct {
		Port    int    `mapstructure:"port"`     // HTTP server port (default: 3000)
		BaseURL string `mapstructure:"base_url"` // Base URL used when building short URLs returned to clients
	} `mapstructure:"server"`

	// Database configuration section for SQLite settings
	Database struct {
		Name string `mapstructure:"name"` // SQLite database file name
	} `mapstructure:"database"`

	// Analytics configuration for asynchronous visit tracking
	Analytics struct {
		BufferSize          int    `mapstructure:"buffer_size"`           // Size of the visit event channel buffer
		WorkerCount         int    `mapstructure:"worker_count"`          // Number of worker goroutines processing visits
		GeoIPEndpoint       string `mapstructure:"geoip_endpoint"`        // Base URL of the Geo-IP lookup service
		GeoIPTimeoutSeconds int    `mapstructure:"geoip_timeout_seconds"` // Budget for a single Geo-IP lookup
	} `mapstructure:"analytics"`

	// Auth configuration for token issuance and password hashing
	Auth struct {
		JWTSecret        string `mapstructure:"jwt_secret"`
		AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
		RefreshTTLHours  int    `mapstructure:"refresh_ttl_hours"`
		BcryptCost       int    `mapstructure:"bcrypt_cost"`
	} `mapstructure:"auth"`

	// Redis configuration for the redirect-path link cache.
	// An empty addr disables caching entirely.
	Redis struct {
		Addr            string `mapstructure:"addr"`
		Password        string `mapstructure:"password"`
		CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
	} `mapstructure:"redis"`

	// Cleanup configuration for the expired-link sweeper
	Cleanup struct {
		CronSpec   string `mapstructure:"cron_spec"`   // Cron expression for sweep scheduling
		GraceHours int    `mapstructure:"grace_hours"` // How long expired links stay resolvable as 410 before removal
	} `mapstructure:"cleanup"`

	// Log configuration for the zap logger
	Log struct {
		Level      string `mapstructure:"level"`
		Path       string `mapstructure:"path"` // Empty path means console-only logging
		MaxSize    int    `mapstructure:"max_size"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAge     int    `mapstructure:"max_age"`
		Compress   bool   `mapstructure:"compress"`
	} `mapstructure:"log"`
}

// GeoIPTimeout returns the Geo-IP lookup budget as a duration.
func (c *Config) GeoIPTimeout() time.Duration {
	return time.Duration(c.Analytics.GeoIPTimeoutSeconds) * time.Second
}

// AccessTTL returns the access token lifetime as a duration.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.Auth.AccessTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh token lifetime as a duration.
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.Auth.RefreshTTLHours) * time.Hour
}

// CacheTTL returns the redirect cache entry lifetime as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

// GracePeriod returns how long an expired link survives before the sweeper removes it.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Cleanup.GraceHours) * time.Hour
}

// LoadConfig loads the application configuration using Viper.
// It supports environment variable overrides and YAML configuration files.
// Returns a populated Config struct or an error if configuration loading fails.
func LoadConfig() (*Config, error) {
	// Enable automatic environment variable binding
	// This allows config values to be overridden via environment variables
	viper.AutomaticEnv()

	// Replace dots with underscores in environment variable names
	// e.g., "server.port" becomes "SERVER_PORT"
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Specify the directory path where Viper should look for config files
	viper.AddConfigPath("./configs")

	// Specify the name of the config file (without the extension)
	viper.SetConfigName("config")

	// Specify the type/format of the config file (YAML in this case)
	viper.SetConfigType("yaml")

	// Set default values for all configuration options
	// These will be used if no config file is found or if specific keys are missing
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.base_url", "http://localhost:3000")
	viper.SetDefault("database.name", "url_shortener.db")
	viper.SetDefault("analytics.buffer_size", 1000)
	viper.SetDefault("analytics.worker_count", 5)
	viper.SetDefault("analytics.geoip_endpoint", "http://ip-api.com/json")
	viper.SetDefault("analytics.geoip_timeout_seconds", 2)
	viper.SetDefault("auth.jwt_secret", "change-me-in-production")
	viper.SetDefault("auth.access_ttl_minutes", 15)
	viper.SetDefault("auth.refresh_ttl_hours", 168)
	viper.SetDefault("auth.bcrypt_cost", 10)
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.cache_ttl_seconds", 3600)
	viper.SetDefault("cleanup.cron_spec", "*/10 * * * *")
	viper.SetDefault("cleanup.grace_hours", 24)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.path", "")
	viper.SetDefault("log.max_size", 10)
	viper.SetDefault("log.max_backups", 5)
	viper.SetDefault("log.max_age", 7)
	viper.SetDefault("log.compress", false)

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		// Check if the error is specifically "config file not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Any other error (permissions, malformed YAML, etc.) is fatal
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// A missing config file is not fatal - defaults cover every key
	}

	// Unmarshal the loaded configuration into our Config structure
	// This converts the Viper configuration into our strongly-typed struct
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
