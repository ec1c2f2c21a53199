package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	RallyHere RallyHereConfig `mapstructure:"rallyhere"`
	Request   RequestConfig   `mapstructure:"request"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Items     ItemsConfig     `mapstructure:"items"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// RallyHereConfig holds the RallyHere API connection details
type RallyHereConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// RequestConfig controls pacing, retries and pagination
type RequestConfig struct {
	RateLimitDelay time.Duration `mapstructure:"rate_limit_delay"`
	MaxRetries     int           `mapstructure:"max_retries"`
	BaseRetryDelay time.Duration `mapstructure:"base_retry_delay"`
	MaxRetryDelay  time.Duration `mapstructure:"max_retry_delay"`
	PageSize       int           `mapstructure:"page_size"`
	MaxMatches     int           `mapstructure:"max_matches"`
}

// CacheConfig selects and tunes the response cache
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds the connection details of the redis cache backend
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// ItemsConfig points at the item reference table
type ItemsConfig struct {
	Path string `mapstructure:"path"`
}

// FilterConfig contains named filter expressions. Viper lower-cases the
// preset names.
type FilterConfig struct {
	Presets map[string]string `mapstructure:"presets"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// Cache backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)
