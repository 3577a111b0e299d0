package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Secrets  SecretsConfig
	Refresh  RefreshConfig
	Logger   LoggerConfig

	// RulesPath points at the YAML rule catalog; empty uses the embedded default
	RulesPath string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host        string
	Port        int `validate:"gt=0,lt=65536"`
	MetricsPort int `validate:"gt=0,lt=65536"`

	// CronSecret authenticates POST /cron/refresh-first-sales
	CronSecret string `validate:"required"`

	RateLimitRPS   float64 `validate:"gt=0"`
	RateLimitBurst int     `validate:"gt=0"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `validate:"required"`
	Port     int    `validate:"gt=0"`
	User     string `validate:"required"`
	Password string `validate:"required_without=PasswordSecret"`
	// PasswordSecret is resolved through the secrets backend at startup
	PasswordSecret string
	Database       string `validate:"required"`
	SSLMode        string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns       int32  `validate:"gt=0"`
	MinConns       int32  `validate:"gte=0,ltefield=MaxConns"`
}

// RedisConfig holds the first-sale store settings. With Enabled false the
// table is kept in process memory only.
type RedisConfig struct {
	Enabled        bool
	Host           string `validate:"required_if=Enabled true"`
	Port           string `validate:"required_if=Enabled true"`
	Password       string
	PasswordSecret string
	DB             int `validate:"gte=0"`
	Key            string
	TTL            time.Duration `validate:"gte=0"`
}

// SecretsConfig selects where credentials come from
type SecretsConfig struct {
	Backend string `validate:"oneof=env aws vault"`

	// env backend: files under Dir back up missing variables
	Dir string

	AWSRegion   string `validate:"required_if=Backend aws"`
	AWSProfile  string
	AWSEndpoint string

	VaultAddress    string `validate:"required_if=Backend vault"`
	VaultAuthMethod string
	VaultToken      string
	VaultRoleID     string
	VaultSecretID   string
	VaultMountPath  string
	VaultKVVersion  string

	CacheTTL time.Duration
}

// RefreshConfig tunes the first-sale rebuild
type RefreshConfig struct {
	// Interval between scheduled rebuilds; zero disables the ticker
	Interval    time.Duration `validate:"gte=0"`
	PageSize    int32         `validate:"gt=0"`
	MaxAttempts int           `validate:"gt=0"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string `validate:"oneof=debug info warn error"`
	Development bool
}

// LoadFromEnv loads configuration from environment variables. A .env file in
// the working directory is applied first when present; real variables win.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
			CronSecret:     getEnv("CRON_SECRET", ""),
			RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
			RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Database: databaseFromEnv(),
		Redis: RedisConfig{
			Enabled:        getEnvAsBool("REDIS_ENABLED", true),
			Host:           getEnv("REDIS_HOST", "localhost"),
			Port:           getEnv("REDIS_PORT", "6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			PasswordSecret: getEnv("REDIS_PASSWORD_SECRET", ""),
			DB:             getEnvAsInt("REDIS_DB", 0),
			Key:            getEnv("REDIS_FIRST_SALE_KEY", "mcf:first_sales:v1"),
			TTL:            getEnvAsDuration("REDIS_FIRST_SALE_TTL", 48*time.Hour),
		},
		Secrets: SecretsConfig{
			Backend:         getEnv("SECRETS_BACKEND", "env"),
			Dir:             getEnv("SECRETS_DIR", ""),
			AWSRegion:       getEnv("AWS_REGION", ""),
			AWSProfile:      getEnv("AWS_PROFILE", ""),
			AWSEndpoint:     getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress:    getEnv("VAULT_ADDR", ""),
			VaultAuthMethod: getEnv("VAULT_AUTH_METHOD", "token"),
			VaultToken:      getEnv("VAULT_TOKEN", ""),
			VaultRoleID:     getEnv("VAULT_ROLE_ID", ""),
			VaultSecretID:   getEnv("VAULT_SECRET_ID", ""),
			VaultMountPath:  getEnv("VAULT_MOUNT_PATH", "secret"),
			VaultKVVersion:  getEnv("VAULT_KV_VERSION", "v2"),
			CacheTTL:        getEnvAsDuration("SECRETS_CACHE_TTL", 5*time.Minute),
		},
		Refresh: RefreshConfig{
			Interval:    getEnvAsDuration("FIRST_SALE_REFRESH_INTERVAL", 15*time.Minute),
			PageSize:    int32(getEnvAsInt("FIRST_SALE_PAGE_SIZE", 5000)),
			MaxAttempts: getEnvAsInt("FIRST_SALE_MAX_ATTEMPTS", 4),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		RulesPath: getEnv("RULES_PATH", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabaseFromEnv loads and validates only the PostgreSQL settings, for
// tools such as cmd/migrate that never start the HTTP server
func LoadDatabaseFromEnv() (*DatabaseConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	db := databaseFromEnv()
	if err := validateStruct(&db); err != nil {
		return nil, err
	}
	return &db, nil
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           getEnvAsInt("DB_PORT", 5432),
		User:           getEnv("DB_USER", "postgres"),
		Password:       getEnv("DB_PASSWORD", ""),
		PasswordSecret: getEnv("DB_PASSWORD_SECRET", ""),
		Database:       getEnv("DB_NAME", "mcf_insight_hub"),
		SSLMode:        getEnv("DB_SSL_MODE", "disable"),
		MaxConns:       int32(getEnvAsInt("DB_MAX_CONNS", 25)),
		MinConns:       int32(getEnvAsInt("DB_MIN_CONNS", 5)),
	}
}

// Validate checks struct constraints and reports the first failing env field
func (c *Config) Validate() error {
	return validateStruct(c)
}

func validateStruct(v interface{}) error {
	if err := validator.New().Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid configuration: %s failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
