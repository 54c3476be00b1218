package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ClientConfig holds the admin client configuration.
type ClientConfig struct {
	API         APIConfig
	SessionPath string
	Logger      LoggerConfig
}

// APIConfig describes how the client reaches the shop API.
type APIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	CacheTTL   time.Duration
	CacheSize  int
	MaxRetries int
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// Load loads the client configuration from environment variables.
func Load() (*ClientConfig, error) {
	cfg := &ClientConfig{
		API: APIConfig{
			BaseURL:    getEnv("ADMIN_API_BASE_URL", "http://localhost:8080"),
			Timeout:    getEnvAsDuration("ADMIN_API_TIMEOUT", 20*time.Second),
			CacheTTL:   getEnvAsDuration("ADMIN_CACHE_TTL", 5*time.Minute),
			CacheSize:  getEnvAsInt("ADMIN_CACHE_SIZE", 256),
			MaxRetries: getEnvAsInt("ADMIN_MAX_RETRIES", 2),
		},
		SessionPath: getEnv("ADMIN_SESSION_PATH", defaultSessionPath()),
		Logger:      loadLogger("warn", "console"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %q", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API base URL must use http or https: %q", c.API.BaseURL)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("API timeout must be positive")
	}

	if c.API.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must not be negative")
	}

	if c.API.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative")
	}

	if c.API.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}

	if c.SessionPath == "" {
		return fmt.Errorf("session path is required")
	}

	return c.Logger.Validate()
}

// Validate validates the logger configuration.
func (c LoggerConfig) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}

	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Format)
	}

	return nil
}

func loadLogger(level, format string) LoggerConfig {
	return LoggerConfig{
		Level:  strings.ToLower(getEnv("LOG_LEVEL", level)),
		Format: strings.ToLower(getEnv("LOG_FORMAT", format)),
	}
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".shop-admin", "session.db")
	}
	return filepath.Join(dir, "shop-admin", "session.db")
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration syntax ("15s") or whole seconds ("15").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
