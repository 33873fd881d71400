package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Search    SearchConfig    `mapstructure:"search"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// FetchConfig holds page fetcher configuration
type FetchConfig struct {
	UserAgent      string        `mapstructure:"user_agent"`
	AcceptLanguage string        `mapstructure:"accept_language"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxBodySize    int           `mapstructure:"max_body_size"`
}

// SearchConfig holds web search API configuration
type SearchConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	APIKey     string `mapstructure:"api_key"`
	EngineID   string `mapstructure:"engine_id"`
	BaseURL    string `mapstructure:"base_url"`
	MaxResults int    `mapstructure:"max_results"`
	Candidates int    `mapstructure:"candidates"`
	Burst      int    `mapstructure:"burst"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// AuditConfig holds audit pipeline configuration
type AuditConfig struct {
	StorefrontDomain string   `mapstructure:"storefront_domain"`
	BrandTokens      []string `mapstructure:"brand_tokens"`
	ModelPattern     string   `mapstructure:"model_pattern"`
	PreferredDomains []string `mapstructure:"preferred_domains"`
	MaxConcurrency   int      `mapstructure:"max_concurrency"`
	MaxURLs          int      `mapstructure:"max_urls"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // only "memory" for now
	TTL  time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP  int `mapstructure:"per_ip"` // requests per minute per client IP
	Search int `mapstructure:"search"` // search API requests per minute
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// SearchConfigured reports whether reference lookups can run
func (c SearchConfig) SearchConfigured() bool {
	return c.Enabled && c.APIKey != "" && c.EngineID != ""
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pdpaudit/")

	// Environment variable settings: search.api_key -> PDPAUDIT_SEARCH_API_KEY
	v.SetEnvPrefix("PDPAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
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
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*", "http://localhost:3000"})

	// Fetch defaults
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.accept_language", "en;q=0.9")
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.max_body_size", 10*1024*1024)

	// Search defaults
	v.SetDefault("search.enabled", true)
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.engine_id", "")
	v.SetDefault("search.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.candidates", 3)
	v.SetDefault("search.burst", 5)
	v.SetDefault("search.max_retries", 2)

	// Audit defaults
	v.SetDefault("audit.storefront_domain", "fepy.com")
	v.SetDefault("audit.brand_tokens", []string{})
	v.SetDefault("audit.model_pattern", "")
	v.SetDefault("audit.preferred_domains", []string{})
	v.SetDefault("audit.max_concurrency", 8)
	v.SetDefault("audit.max_urls", 50)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.search", 60)

	// Logging defaults
	v.SetDefault("logging.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'memory', got: %s", config.Cache.Type)
	}

	if config.Audit.MaxURLs <= 0 {
		return fmt.Errorf("audit.max_urls must be positive, got: %d", config.Audit.MaxURLs)
	}

	if config.Audit.ModelPattern != "" {
		if _, err := regexp.Compile(config.Audit.ModelPattern); err != nil {
			return fmt.Errorf("audit.model_pattern does not compile: %w", err)
		}
	}

	if config.Fetch.MaxBodySize <= 0 {
		return fmt.Errorf("fetch.max_body_size must be positive, got: %d", config.Fetch.MaxBodySize)
	}

	if config.Audit.MaxConcurrency < 0 {
		return fmt.Errorf("audit.max_concurrency must not be negative, got: %d", config.Audit.MaxConcurrency)
	}

	return nil
}
