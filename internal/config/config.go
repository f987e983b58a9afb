package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const defaultCardNumberSecret = "rapidpay-development-card-secret"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	Ledger   LedgerConfig
	Env      string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
}

// RedisConfig holds the optional Redis connection used for idempotency replay.
// An empty URL disables Redis and falls back to Postgres.
type RedisConfig struct {
	URL            string
	IdempotencyTTL time.Duration
}

// KafkaConfig holds the optional event publisher configuration.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSigningKey string
	Disabled      bool
}

// LedgerConfig holds card ledger settings
type LedgerConfig struct {
	CardNumberSecret   string
	VelocityWindow     time.Duration
	InitialBalanceMax  decimal.Decimal
	FeeUpdateSchedule  string
	FeeReadinessPoll   time.Duration
	ConflictRetryLimit int
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level string // debug, info, warn, error
}

// Load loads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env is optional

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", "30s"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "rapidpay"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		Redis: RedisConfig{
			URL:            getEnv("REDIS_URL", ""),
			IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", "24h"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "rapidpay.card-events"),
		},
		Auth: AuthConfig{
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", ""),
			Disabled:      getEnvAsBool("AUTH_DISABLED", false),
		},
		Ledger: LedgerConfig{
			CardNumberSecret:   getEnv("CARD_NUMBER_SECRET", ""),
			VelocityWindow:     getEnvAsDuration("AUTH_VELOCITY_WINDOW", "5s"),
			InitialBalanceMax:  getEnvAsDecimal("INITIAL_BALANCE_MAX", decimal.NewFromInt(2147483647)),
			FeeUpdateSchedule:  getEnv("FEE_UPDATE_SCHEDULE", "@every 1h"),
			FeeReadinessPoll:   getEnvAsDuration("FEE_READINESS_POLL", "5s"),
			ConflictRetryLimit: getEnvAsInt("CONFLICT_RETRY_LIMIT", 3),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.Ledger.CardNumberSecret == "" && cfg.IsDevelopment() {
		cfg.Ledger.CardNumberSecret = defaultCardNumberSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the process runs with development defaults
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "test"
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name cannot be empty")
	}

	if c.Ledger.CardNumberSecret == "" {
		return fmt.Errorf("CARD_NUMBER_SECRET must be set outside development")
	}
	if len(c.Ledger.CardNumberSecret) < 16 {
		return fmt.Errorf("card number secret must be at least 16 bytes")
	}

	if !c.Auth.Disabled && c.Auth.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY must be set unless AUTH_DISABLED=true")
	}

	if c.Ledger.VelocityWindow < 0 {
		return fmt.Errorf("velocity window cannot be negative")
	}
	if !c.Ledger.InitialBalanceMax.IsPositive() {
		return fmt.Errorf("initial balance max must be positive, got %s", c.Ledger.InitialBalanceMax)
	}
	if c.Ledger.FeeReadinessPoll <= 0 {
		return fmt.Errorf("fee readiness poll interval must be positive")
	}
	if c.Ledger.ConflictRetryLimit < 1 {
		return fmt.Errorf("conflict retry limit must be at least 1, got %d", c.Ledger.ConflictRetryLimit)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to parsing the default if provided value is invalid
		duration, err = time.ParseDuration(defaultValue)
		if err != nil {
			return 0
		}
	}
	return duration
}
