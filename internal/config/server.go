package config

import (
	"fmt"
	"time"
)

// ServerConfig is the configuration of the development shop API.
type ServerConfig struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Operator OperatorConfig
	S3       S3Config
	Seed     SeedConfig
	Kafka    KafkaConfig
}

// HTTPConfig holds listener configuration.
type HTTPConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration. When Enabled is
// false the API keeps its data in memory.
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// OperatorConfig is the single operator account the API accepts.
type OperatorConfig struct {
	Username string
	Password string
	Email    string
	TokenTTL time.Duration
}

// S3Config locates the seed catalog in S3.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "seed/")
}

// SeedConfig selects the demo catalog loaded at startup.
type SeedConfig struct {
	Path string // local gzip JSON file; empty uses the built-in catalog
}

// KafkaConfig enables order-status change events.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether events should be published.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// LoadServer loads the development API configuration from environment variables.
func LoadServer() (*ServerConfig, error) {
	cfg := &ServerConfig{
		HTTP: HTTPConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Enabled:         getEnvAsBool("DB_ENABLED", false),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "shopadmin"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: loadLogger("info", "json"),
		Operator: OperatorConfig{
			Username: getEnv("OPERATOR_USERNAME", "admin"),
			Password: getEnv("OPERATOR_PASSWORD", ""),
			Email:    getEnv("OPERATOR_EMAIL", "admin@example.com"),
			TokenTTL: getEnvAsDuration("OPERATOR_TOKEN_TTL", 8*time.Hour),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "seed/"),
		},
		Seed: SeedConfig{
			Path: getEnv("SEED_PATH", ""),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "order-status-changed"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *ServerConfig) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.HTTP.Port)
	}

	if c.Database.Enabled {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}

	if c.Operator.Username == "" {
		return fmt.Errorf("operator username is required")
	}

	if c.Operator.Password == "" {
		return fmt.Errorf("operator password is required")
	}

	if c.Operator.TokenTTL <= 0 {
		return fmt.Errorf("operator token TTL must be positive")
	}

	if err := c.Logger.Validate(); err != nil {
		return err
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}

	return nil
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the listen address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
