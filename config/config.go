package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Wallapop  WallapopConfig
	Matching  MatchingConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// WallapopConfig holds Wallapop API configuration
type WallapopConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	ItemBaseURL    string        `mapstructure:"item_base_url"`
	UserBaseURL    string        `mapstructure:"user_base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	BackoffBase    time.Duration `mapstructure:"backoff_base"`
	BackoffMax     time.Duration `mapstructure:"backoff_max"`
	MaxPages       int           `mapstructure:"max_pages"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
}

// MatchingConfig holds fuzzy matching thresholds (0-100 scale)
type MatchingConfig struct {
	TitleThreshold       int `mapstructure:"title_threshold"`
	DescriptionThreshold int `mapstructure:"description_threshold"`
	ExcludedThreshold    int `mapstructure:"excluded_threshold"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds inbound rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/wallascan/")

	// Environment variable settings
	v.SetEnvPrefix("WALLASCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Wallapop defaults
	v.SetDefault("wallapop.base_url", "https://api.wallapop.com/api/v3/search")
	v.SetDefault("wallapop.item_base_url", "https://es.wallapop.com/item")
	v.SetDefault("wallapop.user_base_url", "https://es.wallapop.com/user")
	v.SetDefault("wallapop.request_timeout", "15s")
	v.SetDefault("wallapop.max_retries", 3)
	v.SetDefault("wallapop.backoff_base", "500ms")
	v.SetDefault("wallapop.backoff_max", "8s")
	v.SetDefault("wallapop.max_pages", 50)
	v.SetDefault("wallapop.requests_per_sec", 2.0)

	// Matching thresholds
	v.SetDefault("matching.title_threshold", 75)
	v.SetDefault("matching.description_threshold", 65)
	v.SetDefault("matching.excluded_threshold", 85)

	// Cache defaults
	v.SetDefault("cache.ttl", "5m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Wallapop.BaseURL == "" {
		return fmt.Errorf("wallapop base URL is required")
	}

	if config.Wallapop.MaxRetries < 1 {
		return fmt.Errorf("wallapop max_retries must be at least 1, got: %d", config.Wallapop.MaxRetries)
	}

	if config.Wallapop.MaxPages < 1 {
		return fmt.Errorf("wallapop max_pages must be at least 1, got: %d", config.Wallapop.MaxPages)
	}

	for _, t := range []struct {
		name  string
		value int
	}{
		{"title_threshold", config.Matching.TitleThreshold},
		{"description_threshold", config.Matching.DescriptionThreshold},
		{"excluded_threshold", config.Matching.ExcludedThreshold},
	} {
		if t.value < 0 || t.value > 100 {
			return fmt.Errorf("matching %s must be between 0 and 100, got: %d", t.name, t.value)
		}
	}

	return nil
}
