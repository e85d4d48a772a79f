package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	LogLevel                  string
	DataDir                   string
	JWTSecret                 string
	JWTRefreshSecret          string
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	SeedDefaultAccounts       bool
	DefaultTaxPercent         float64
	Database                  DatabaseConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dataDir := getEnv("DATA_DIR", "data")

	dbConfig := DatabaseConfig{
		Driver:   strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		Path:     getEnv("DB_PATH", filepath.Join(dataDir, "hospital.db")),
		Host:     getEnv("DB_HOST", "localhost"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hospital"),
	}

	// Build DSN (Data Source Name) for the selected driver
	switch dbConfig.Driver {
	case "sqlite":
		dbConfig.DSN = dbConfig.Path + "?_busy_timeout=5000&_foreign_keys=on"
	case "mysql":
		dbConfig.Port = getEnv("DB_PORT", "3306")
		dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)
	case "postgres":
		dbConfig.Port = getEnv("DB_PORT", "5432")
		dbConfig.DSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbConfig.Host, dbConfig.Port, dbConfig.Username, dbConfig.Password, dbConfig.Name)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", dbConfig.Driver)
	}

	jwtExpMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %w", err)
	}

	jwtRefreshExpHours, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168")) // 7 days
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_HOURS: %w", err)
	}

	seed, err := strconv.ParseBool(getEnv("SEED_DEFAULT_ACCOUNTS", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_DEFAULT_ACCOUNTS: %w", err)
	}

	tax, err := strconv.ParseFloat(getEnv("DEFAULT_TAX_PERCENT", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TAX_PERCENT: %w", err)
	}
	if tax < 0 || tax > 100 {
		return nil, fmt.Errorf("DEFAULT_TAX_PERCENT must be between 0 and 100, got %v", tax)
	}

	return &Config{
		Port:                      getEnv("PORT", "3001"),
		Origin:                    getEnv("ORIGIN", "http://localhost:4200"),
		Environment:               getEnv("APP_ENV", "development"),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		DataDir:                   dataDir,
		JWTSecret:                 getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTRefreshSecret:          getEnv("JWT_REFRESH_SECRET", "default_refresh_secret"),
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,
		SeedDefaultAccounts:       seed,
		DefaultTaxPercent:         tax,
		Database:                  dbConfig,
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
