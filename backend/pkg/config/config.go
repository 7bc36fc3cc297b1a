package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "neo4j-connector/backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Neo4j data source
	Neo4jHost      string
	Neo4jPort      int
	Neo4jUser      string
	Neo4jPassword  string
	Neo4jEncrypted bool
	Neo4jDatabase  string

	// Connector behaviour
	Debug          bool
	QueryTimeout   time.Duration // Per-statement deadline, 0 disables
	PingTimeout    time.Duration
	ConnectTimeout time.Duration

	// DataSourcesFile optionally points at a YAML file declaring several data sources
	DataSourcesFile string
	// DataSource selects which entry of DataSourcesFile the server exposes
	DataSource      string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		Neo4jHost:       getEnv("NEO4J_HOST", "localhost"),
		Neo4jPort:       getEnvInt("NEO4J_PORT", 7687),
		Neo4jUser:       getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:   getEnv("NEO4J_PASSWORD", "password"),
		Neo4jEncrypted:  getEnvBool("NEO4J_ENCRYPTED", false),
		Neo4jDatabase:   getEnv("NEO4J_DATABASE", ""),
		Debug:           getEnvBool("CONNECTOR_DEBUG", false),
		QueryTimeout:    getEnvMillis("QUERY_TIMEOUT_MS", 30*time.Second),
		PingTimeout:     getEnvMillis("PING_TIMEOUT_MS", 5*time.Second),
		ConnectTimeout:  getEnvMillis("CONNECT_TIMEOUT_MS", 10*time.Second),
		DataSourcesFile: getEnv("DATASOURCES_FILE", ""),
		DataSource:      getEnv("DATASOURCE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Neo4jHost == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_HOST")
	}
	if c.Neo4jPort <= 0 || c.Neo4jPort > 65535 {
		return apperrors.NewConfigValidationFailed("NEO4J_PORT", fmt.Sprintf("out of range: %d", c.Neo4jPort))
	}
	if c.Neo4jUser == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_USER")
	}
	if c.PingTimeout <= 0 {
		return apperrors.NewConfigValidationFailed("PING_TIMEOUT_MS", "must be positive")
	}
	if c.DataSource != "" && c.DataSourcesFile == "" {
		return apperrors.NewConfigValidationFailed("DATASOURCE", "requires DATASOURCES_FILE")
	}
	// NEO4J_PASSWORD may be empty for stores running without auth
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
