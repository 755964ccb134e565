package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the configuration for integration tests from TEST_* variables.
// If no test database is configured, the returned Config has no database and HasDatabase reports false.
func LoadTestConfig() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist - it's optional)
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Logging.Level = "debug"
	cfg.Admin.Login = "admin"
	cfg.Admin.Password = "admin-password"
	cfg.Session.Secret = "integration-secret"
	cfg.Storage.Driver = "local"
	cfg.Storage.BaseURL = "/uploads"
	cfg.Migrations.Path = "file://../../migrations"
	cfg.Database.SSLMode = "disable"

	cfg.Database.URL = os.Getenv("TEST_DATABASE_URL")
	if cfg.Database.URL != "" {
		return cfg, nil
	}

	cfg.Database.Host = os.Getenv("TEST_DB_HOST")
	if cfg.Database.Host == "" {
		return cfg, nil
	}

	dbPortStr := os.Getenv("TEST_DB_PORT")
	if dbPortStr == "" {
		dbPortStr = "5432"
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	cfg.Database.User = os.Getenv("TEST_DB_USER")
	cfg.Database.Password = os.Getenv("TEST_DB_PASSWORD")
	cfg.Database.DBName = os.Getenv("TEST_DB_NAME")
	if sslMode := os.Getenv("TEST_DB_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	return cfg, nil
}
