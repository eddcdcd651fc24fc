package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
	Security  SecurityConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig selects the storage backend and holds its connection settings
type DatabaseConfig struct {
	Driver string // surrealdb or postgres

	// SurrealDB
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string

	// PostgreSQL
	PostgresURL string
	MaxConns    int32
}

// JWTConfig holds JWT signing settings
type JWTConfig struct {
	Secret         string
	Issuer         string
	ExpirationMins int
}

// RedisConfig enables the shared rate limiter when URL is set
type RedisConfig struct {
	URL    string
	Prefix string
}

// RabbitMQConfig enables event publishing when URL is set
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	Rate   int
	Window time.Duration
	Burst  int
}

// JobsConfig holds background job schedules
type JobsConfig struct {
	RetentionSchedule   string
	RequestLogRetention time.Duration
}

// SecurityConfig holds password hashing and write replay settings
type SecurityConfig struct {
	BcryptCost     int
	IdempotencyTTL time.Duration
}

const (
	minBcryptCost = 4
	maxBcryptCost = 31
	minSecretLen  = 32
)

// ConfigFileEnv names the optional configuration file. Environment variables
// override values read from it.
const ConfigFileEnv = "LENDING_CONFIG_FILE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("DB_DRIVER", "surrealdb")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "8000")
	v.SetDefault("DB_NAMESPACE", "lending")
	v.SetDefault("DB_DATABASE", "main")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "root")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNS", 10)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "lending.forgo.software")
	v.SetDefault("JWT_EXPIRATION_MINS", 60)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_PREFIX", "lending:rate_limit")

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "lending.events")

	v.SetDefault("RATE_LIMIT_RATE", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	v.SetDefault("RETENTION_JOB_SCHEDULE", "0 3 * * *") // At 03:00 every day
	v.SetDefault("REQUEST_LOG_RETENTION", 30*24*time.Hour)

	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("IDEMPOTENCY_TTL", 24*time.Hour)
}

// Load reads configuration from the environment, layered over an optional
// config file and defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			Env:             v.GetString("SERVER_ENV"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			AllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Driver:      strings.ToLower(v.GetString("DB_DRIVER")),
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Namespace:   v.GetString("DB_NAMESPACE"),
			Database:    v.GetString("DB_DATABASE"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			PostgresURL: v.GetString("DATABASE_URL"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			Secret:         v.GetString("JWT_SECRET"),
			Issuer:         v.GetString("JWT_ISSUER"),
			ExpirationMins: v.GetInt("JWT_EXPIRATION_MINS"),
		},
		Redis: RedisConfig{
			URL:    v.GetString("REDIS_URL"),
			Prefix: v.GetString("REDIS_PREFIX"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
		RateLimit: RateLimitConfig{
			Rate:   v.GetInt("RATE_LIMIT_RATE"),
			Window: v.GetDuration("RATE_LIMIT_WINDOW"),
			Burst:  v.GetInt("RATE_LIMIT_BURST"),
		},
		Jobs: JobsConfig{
			RetentionSchedule:   v.GetString("RETENTION_JOB_SCHEDULE"),
			RequestLogRetention: v.GetDuration("REQUEST_LOG_RETENTION"),
		},
		Security: SecurityConfig{
			BcryptCost:     v.GetInt("BCRYPT_COST"),
			IdempotencyTTL: v.GetDuration("IDEMPOTENCY_TTL"),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// UsesPostgres reports whether PostgreSQL is the selected backend
func (c *Config) UsesPostgres() bool {
	return c.Database.Driver == "postgres"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SERVER_SHUTDOWN_TIMEOUT must be positive"))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	// Database validation
	switch c.Database.Driver {
	case "surrealdb":
		if c.Database.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.Database.Port == "" {
			errs = append(errs, errors.New("DB_PORT is required"))
		}
		if c.Database.Namespace == "" {
			errs = append(errs, errors.New("DB_NAMESPACE is required"))
		}
		if c.Database.Database == "" {
			errs = append(errs, errors.New("DB_DATABASE is required"))
		}
	case "postgres":
		if c.Database.PostgresURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DB_DRIVER is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be 'surrealdb' or 'postgres', got '%s'", c.Database.Driver))
	}

	// JWT validation
	if len(c.JWT.Secret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen))
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}

	// Rate limit validation
	if c.RateLimit.Rate <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RATE must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must not be negative"))
	}

	// Jobs validation
	if c.Jobs.RetentionSchedule == "" {
		errs = append(errs, errors.New("RETENTION_JOB_SCHEDULE is required"))
	}
	if c.Jobs.RequestLogRetention <= 0 {
		errs = append(errs, errors.New("REQUEST_LOG_RETENTION must be positive"))
	}

	// Security validation
	if c.Security.BcryptCost < minBcryptCost || c.Security.BcryptCost > maxBcryptCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", minBcryptCost, maxBcryptCost))
	}
	if c.IsProduction() && c.Security.BcryptCost < 10 {
		errs = append(errs, errors.New("BCRYPT_COST must be at least 10 in production"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
