package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkt918/nagoya-parking-map/backend/pkg/secrets"
)

// Lot store backends
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Data      DataConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	Station   StationConfig
	Feedback  FeedbackConfig
	Import    ImportConfig
	OTEL      OTELConfig
}

// AppConfig holds application metadata
type AppConfig struct {
	Name     string
	Env      string
	LogLevel string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DataConfig selects where the lot collection is loaded from
type DataConfig struct {
	Source     string
	FilePath   string
	SQLitePath string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool

	// KeyPrefix namespaces every key this service writes
	KeyPrefix string
	PoolSize  int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL     string
	APIKey  string
	Enabled bool
}

// StationConfig is the point lot distances are measured from
type StationConfig struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// FeedbackConfig builds the issue-tracker link for data corrections
type FeedbackConfig struct {
	IssueURL   string
	IssueTitle string
	IssueBody  string
}

// ImportConfig tunes the data import tools
type ImportConfig struct {
	ResolveDelay time.Duration
	UserAgent    string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load reads .env and .env.local (the latter overriding), then the Vault
// secret when VAULT_ENABLED is set, and then the environment
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	vaultCfg := secrets.VaultConfigFromEnv()
	ctx, cancel := context.WithTimeout(context.Background(), vaultCfg.Timeout)
	_, err := secrets.ApplyVault(ctx, vaultCfg)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets from vault: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "nagoya-parking-map"),
			Env:  getEnv("APP_ENV", "development"),

			LogLevel: getEnv("LOG_LEVEL", ""),
		},
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Data: DataConfig{
			Source:     getEnv("DATA_SOURCE", SourceFile),
			FilePath:   getEnv("DATA_FILE", "parking_data.json"),
			SQLitePath: getEnv("SQLITE_PATH", "parking.db"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "nagoya_parking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),

			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "npm:"),
			PoolSize:  getEnvAsInt("REDIS_POOL_SIZE", 10),
		},
		Typesense: TypesenseConfig{
			URL:     getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:  getEnv("TYPESENSE_API_KEY", "xyz"),
			Enabled: getEnvAsBool("TYPESENSE_ENABLED", false),
		},
		Station: StationConfig{
			Name:      getEnv("STATION_NAME", "名古屋駅"),
			Latitude:  getEnvAsFloat("STATION_LAT", 35.1706),
			Longitude: getEnvAsFloat("STATION_LNG", 136.8817),
		},
		Feedback: FeedbackConfig{
			IssueURL:   getEnv("FEEDBACK_ISSUE_URL", "https://github.com/mkt918/nagoya-parking-map/issues/new"),
			IssueTitle: getEnv("FEEDBACK_ISSUE_TITLE", "情報修正の提案"),
			IssueBody:  getEnv("FEEDBACK_ISSUE_BODY", "駐車場情報の修正・追加の提案をこちらに記入してください。"),
		},
		Import: ImportConfig{
			ResolveDelay: getEnvAsDuration("IMPORT_RESOLVE_DELAY", time.Second),
			UserAgent:    getEnv("IMPORT_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "nagoya-parking-map"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	switch cfg.Data.Source {
	case SourceFile, SourcePostgres, SourceSQLite:
	default:
		return nil, fmt.Errorf("DATA_SOURCE must be one of %s, %s, %s; got %q", SourceFile, SourcePostgres, SourceSQLite, cfg.Data.Source)
	}

	return cfg, nil
}

// IsDevelopment reports whether the app runs with development defaults
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
