// Package config provides configuration for the application
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Logging    LoggingConfig
	Admin      AdminConfig
	Session    SessionConfig
	Storage    StorageConfig
	Migrations MigrationsConfig
}

// DatabaseConfig holds database connection settings.
// Either URL or the discrete fields may be set; both empty means no database.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port               int
	RateLimitPerMinute int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// AdminConfig holds the single admin credential pair
type AdminConfig struct {
	Login    string
	Password string
}

// SessionConfig holds session cookie settings
type SessionConfig struct {
	Secret       string
	SecureCookie bool
	RedisURL     string
}

// StorageConfig holds upload storage settings
type StorageConfig struct {
	Driver      string
	BasePath    string
	BaseURL     string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	S3PublicURL string
}

// MigrationsConfig holds migration settings
type MigrationsConfig struct {
	Path string
}

// Load reads configuration from environment variables.
// A .env file is optional.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Database configuration. Missing settings leave the site running without a database.
	cfg.Database.URL = os.Getenv("DATABASE_URL")
	cfg.Database.Host = os.Getenv("DB_HOST")
	cfg.Database.User = os.Getenv("DB_USER")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.DBName = os.Getenv("DB_NAME")

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		dbPortStr = "5432"
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	cfg.Database.SSLMode = os.Getenv("DB_SSLMODE")
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "require"
	}

	// Server configuration
	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort

	rateLimit, err := intEnv("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return nil, err
	}
	if rateLimit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	cfg.Server.RateLimitPerMinute = rateLimit

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	cfg.Logging.Level = logLevel

	// Admin configuration
	cfg.Admin.Login = os.Getenv("ADMIN_LOGIN")
	if cfg.Admin.Login == "" {
		return nil, fmt.Errorf("ADMIN_LOGIN is required")
	}
	cfg.Admin.Password = os.Getenv("ADMIN_PASSWORD")
	if cfg.Admin.Password == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD is required")
	}

	// Session configuration
	cfg.Session.Secret = os.Getenv("SESSION_SECRET")
	if cfg.Session.Secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	secureCookie, err := boolEnv("SESSION_SECURE_COOKIE", false)
	if err != nil {
		return nil, err
	}
	cfg.Session.SecureCookie = secureCookie
	cfg.Session.RedisURL = os.Getenv("REDIS_URL")

	// Storage configuration
	cfg.Storage.Driver = strings.ToLower(os.Getenv("STORAGE_DRIVER"))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "local"
	}
	cfg.Storage.BasePath = os.Getenv("MEDIA_BASE_PATH")
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./uploads"
	}
	cfg.Storage.BaseURL = os.Getenv("MEDIA_BASE_URL")
	if cfg.Storage.BaseURL == "" {
		cfg.Storage.BaseURL = "/uploads"
	}

	switch cfg.Storage.Driver {
	case "local":
	case "s3":
		cfg.Storage.S3Endpoint = os.Getenv("S3_ENDPOINT")
		if cfg.Storage.S3Endpoint == "" {
			return nil, fmt.Errorf("S3_ENDPOINT is required")
		}
		cfg.Storage.S3AccessKey = os.Getenv("S3_ACCESS_KEY")
		if cfg.Storage.S3AccessKey == "" {
			return nil, fmt.Errorf("S3_ACCESS_KEY is required")
		}
		cfg.Storage.S3SecretKey = os.Getenv("S3_SECRET_KEY")
		if cfg.Storage.S3SecretKey == "" {
			return nil, fmt.Errorf("S3_SECRET_KEY is required")
		}
		cfg.Storage.S3Bucket = os.Getenv("S3_BUCKET")
		if cfg.Storage.S3Bucket == "" {
			cfg.Storage.S3Bucket = "images"
		}
		useSSL, err := boolEnv("S3_USE_SSL", true)
		if err != nil {
			return nil, err
		}
		cfg.Storage.S3UseSSL = useSSL
		cfg.Storage.S3PublicURL = os.Getenv("S3_PUBLIC_URL")
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER: %q", cfg.Storage.Driver)
	}

	// Migrations configuration
	cfg.Migrations.Path = os.Getenv("MIGRATIONS_PATH")
	if cfg.Migrations.Path == "" {
		cfg.Migrations.Path = "file://migrations"
	}

	return cfg, nil
}

// HasDatabase reports whether enough settings are present to connect to Postgres
func (c *Config) HasDatabase() bool {
	if c.Database.URL != "" {
		return true
	}
	return c.Database.Host != "" && c.Database.User != "" && c.Database.DBName != ""
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Database.User, c.Database.Password),
		Host:   fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:   c.Database.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", c.Database.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
