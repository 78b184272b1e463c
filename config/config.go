package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port           string
	BaseURL        string
	Environment    string
	LoggingConfig  LoggingConfig
	StorageConfig  StorageConfig
	PostgresConfig PostgresConfig
	RedisConfig    RedisConfig
	ShareConfig    ShareConfig
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// StorageConfig selects and parameterizes the dataset store
type StorageConfig struct {
	Backend      string // "fs" or "postgres"
	DataDir      string // base directory for fs datasets and share metadata
	AirportsFile string // airport reference CSV path
	AirportsURL  string // optional download URL when the file is missing
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the optional share-view cache configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ShareConfig holds share lifecycle configuration
type ShareConfig struct {
	DefaultTTLDays int
	IDLength       int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	loggingConfig := LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}

	storageConfig := StorageConfig{
		Backend:      strings.ToLower(getEnv("STORAGE_BACKEND", "fs")),
		DataDir:      getEnv("DATA_DIR", "data"),
		AirportsFile: getEnv("AIRPORTS_FILE", "data/airports.csv"),
		AirportsURL:  getEnv("AIRPORTS_URL", ""),
	}

	postgresConfig := PostgresConfig{
		Host:     getEnv("DB_HOST", "postgres"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "sendy"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "sendy"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	cacheEnabled, _ := strconv.ParseBool(getEnv("REDIS_CACHE_ENABLED", "false"))
	cacheTTL, err := time.ParseDuration(getEnv("REDIS_CACHE_TTL", "5m"))
	if err != nil {
		cacheTTL = 5 * time.Minute
	}
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	redisConfig := RedisConfig{
		Host:         getEnv("REDIS_HOST", "redis"),
		Port:         getEnv("REDIS_PORT", "6379"),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           redisDB,
		CacheEnabled: cacheEnabled,
		CacheTTL:     cacheTTL,
	}

	ttlDays, _ := strconv.Atoi(getEnv("SHARE_TTL_DAYS", "30"))
	if ttlDays < 0 {
		ttlDays = 30
	}
	idLength, _ := strconv.Atoi(getEnv("SHARE_ID_LENGTH", "8"))
	if idLength < 4 {
		idLength = 8
	}
	shareConfig := ShareConfig{
		DefaultTTLDays: ttlDays,
		IDLength:       idLength,
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LoggingConfig:  loggingConfig,
		StorageConfig:  storageConfig,
		PostgresConfig: postgresConfig,
		RedisConfig:    redisConfig,
		ShareConfig:    shareConfig,
	}, nil
}

// TestConfig returns a default test configuration
func TestConfig() *Config {
	return &Config{
		Port:        "8080",
		BaseURL:     "http://localhost:8080",
		Environment: "test",
		LoggingConfig: LoggingConfig{
			Level:  "error",
			Format: "text",
		},
		StorageConfig: StorageConfig{
			Backend: "fs",
			DataDir: os.TempDir(),
		},
		ShareConfig: ShareConfig{
			DefaultTTLDays: 30,
			IDLength:       8,
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if len(strings.TrimSpace(value)) == 0 {
		return defaultValue
	}
	return strings.TrimSpace(value)
}
