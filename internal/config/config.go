package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the bounce handler service.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	SNS         SNSConfig         `yaml:"sns"`
	Suppression SuppressionConfig `yaml:"suppression"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GetHost returns the listen host, with container detection.
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// DatabaseConfig holds the PostgreSQL account store connection settings.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds settings for the duplicate-delivery guard.
type RedisConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	DedupeTTL int    `yaml:"dedupe_ttl_seconds"`
}

// TTL returns the dedupe key lifetime as a duration.
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.DedupeTTL) * time.Second
}

// SNSConfig holds inbound notification verification settings.
type SNSConfig struct {
	// TopicArn, when set, restricts processing to envelopes from this topic.
	TopicArn              string `yaml:"topic_arn"`
	CertTimeoutSeconds    int    `yaml:"cert_timeout_seconds"`
	ConfirmTimeoutSeconds int    `yaml:"confirm_timeout_seconds"`
	ConfirmRetries        int    `yaml:"confirm_retries"`
}

// CertTimeout returns the signing-certificate fetch timeout.
func (c SNSConfig) CertTimeout() time.Duration {
	return time.Duration(c.CertTimeoutSeconds) * time.Second
}

// ConfirmTimeout returns the subscription-confirmation fetch timeout.
func (c SNSConfig) ConfirmTimeout() time.Duration {
	return time.Duration(c.ConfirmTimeoutSeconds) * time.Second
}

// SuppressionConfig holds SES account-level suppression sync settings.
type SuppressionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Region  string `yaml:"region"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether PII redaction is on. Defaults to true.
func (c LoggingConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.DedupeTTL == 0 {
		cfg.Redis.DedupeTTL = 3600
	}
	if cfg.SNS.CertTimeoutSeconds == 0 {
		cfg.SNS.CertTimeoutSeconds = 10
	}
	if cfg.SNS.ConfirmTimeoutSeconds == 0 {
		cfg.SNS.ConfirmTimeoutSeconds = 10
	}
	if cfg.SNS.ConfirmRetries == 0 {
		cfg.SNS.ConfirmRetries = 2
	}
	if cfg.Suppression.Region == "" {
		cfg.Suppression.Region = "us-west-2"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets
// can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}
	if arn := os.Getenv("SNS_TOPIC_ARN"); arn != "" {
		cfg.SNS.TopicArn = arn
	}
	if region := os.Getenv("AWS_SES_REGION"); region != "" {
		cfg.Suppression.Region = region
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	return cfg, nil
}
