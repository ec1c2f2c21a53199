package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envAliases binds the plain variable names used by existing deployments
var envAliases = map[string]string{
	"rallyhere.client_id":     "CLIENT_ID",
	"rallyhere.client_secret": "CLIENT_SECRET",
	"rallyhere.base_url":      "RH_BASE_URL",
	"logging.level":           "LOG_LEVEL",
	"cache.enabled":           "CACHE_ENABLED",
}

// Load loads the configuration from file, a .env file in the working
// directory and the environment. Without an explicit path a missing config
// file is not an error.
func Load(configPath string) (*Config, error) {
	return load(configPath, ".env")
}

func load(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading %s: %w", envFile, err)
		}
	}

	v := viper.New()

	// Set default values
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".s2match"))
		}

		// Check /etc
		v.AddConfigPath("/etc/s2match/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && configPath == "":
		case errors.As(err, &notFound):
			return nil, fmt.Errorf("config file not found: %w", err)
		default:
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// RallyHere defaults
	v.SetDefault("rallyhere.timeout", "30s")

	// Request defaults
	v.SetDefault("request.rate_limit_delay", "0s")
	v.SetDefault("request.max_retries", 3)
	v.SetDefault("request.base_retry_delay", "1s")
	v.SetDefault("request.max_retry_delay", "60s")
	v.SetDefault("request.page_size", 10)
	v.SetDefault("request.max_matches", 100)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("cache.max_size", 0)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "s2match:")

	v.SetDefault("items.path", "items.json")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// bindEnv maps S2MATCH_SECTION_KEY variables onto every key. Keys without
// a default are bound explicitly so Unmarshal sees them, together with the
// plain aliases.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix("S2MATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	keys := []string{
		"rallyhere.client_id",
		"rallyhere.client_secret",
		"rallyhere.base_url",
		"cache.redis.addr",
		"cache.redis.password",
		"logging.level",
		"cache.enabled",
	}
	for _, key := range keys {
		input := []string{key, "S2MATCH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
		if alias, ok := envAliases[key]; ok {
			input = append(input, alias)
		}
		if err := v.BindEnv(input...); err != nil {
			return fmt.Errorf("error binding %s: %w", key, err)
		}
	}
	return nil
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.RallyHere.ClientID == "" {
		return fmt.Errorf("rallyhere.client_id is required")
	}
	if cfg.RallyHere.ClientSecret == "" {
		return fmt.Errorf("rallyhere.client_secret is required")
	}
	if cfg.RallyHere.BaseURL == "" {
		return fmt.Errorf("rallyhere.base_url is required")
	}
	if u, err := url.Parse(cfg.RallyHere.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("rallyhere.base_url must be an absolute URL: %s", cfg.RallyHere.BaseURL)
	}

	if cfg.Request.MaxRetries < 0 {
		return fmt.Errorf("request.max_retries must not be negative")
	}
	if cfg.Request.RateLimitDelay < 0 || cfg.Request.BaseRetryDelay < 0 || cfg.Request.MaxRetryDelay < 0 {
		return fmt.Errorf("request delays must not be negative")
	}
	if cfg.Request.MaxRetryDelay > 0 && cfg.Request.BaseRetryDelay > cfg.Request.MaxRetryDelay {
		return fmt.Errorf("request.base_retry_delay must not exceed request.max_retry_delay")
	}
	if cfg.Request.PageSize < 0 {
		return fmt.Errorf("request.page_size must not be negative")
	}

	switch cfg.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if cfg.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid cache.backend: %s (must be '%s' or '%s')", cfg.Cache.Backend, BackendMemory, BackendRedis)
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
