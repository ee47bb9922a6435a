package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Scrape   ScrapeConfig
	Virtual  VirtualConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string

	// Password unlocks the encrypted columns. Empty means the vault stays
	// locked and credential/session operations fail until it is set.
	Password string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// ScrapeConfig holds fetch-orchestration configuration. Changes are picked
// up on the next request; nothing caches this struct across fetches.
type ScrapeConfig struct {
	// UpdateCooldown is the minimum interval between successful position
	// fetches of the same entity. Other features have no cooldown.
	UpdateCooldown time.Duration

	// EnabledEntities restricts fetching to the listed entity IDs.
	// Empty means every registered entity is enabled.
	EnabledEntities map[string]bool

	// AdapterTimeout bounds every single adapter call.
	AdapterTimeout time.Duration

	// CronSpec schedules the periodic fetch-all run. Empty disables it.
	CronSpec string
}

// VirtualConfig holds the spreadsheet-import configuration.
type VirtualConfig struct {
	// ImportDir is the directory scanned for sheet files and their mapping
	// descriptors. Empty disables virtual imports.
	ImportDir string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cooldown, err := getEnvSeconds("SCRAPE_UPDATE_COOLDOWN", 3600)
	if err != nil {
		return nil, err
	}

	adapterTimeout, err := getEnvSeconds("SCRAPE_ADAPTER_TIMEOUT", 120)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path:     getEnv("DB_PATH", "./data/finsync.db"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Scrape: ScrapeConfig{
			UpdateCooldown:  cooldown,
			EnabledEntities: parseEntitySet(os.Getenv("SCRAPE_ENABLED_ENTITIES")),
			AdapterTimeout:  adapterTimeout,
			CronSpec:        os.Getenv("SCRAPE_CRON"),
		},
		Virtual: VirtualConfig{
			ImportDir: os.Getenv("VIRTUAL_IMPORT_DIR"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// EntityEnabled reports whether fetching is enabled for the given entity.
func (c ScrapeConfig) EntityEnabled(entityID string) bool {
	if len(c.EnabledEntities) == 0 {
		return true
	}
	return c.EnabledEntities[entityID]
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvSeconds parses an integer-seconds environment variable.
func getEnvSeconds(key string, defaultSeconds int) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return time.Duration(defaultSeconds) * time.Second, nil
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(seconds) * time.Second, nil
}

// parseEntitySet parses a comma-separated list of entity IDs.
func parseEntitySet(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			set[id] = true
		}
	}
	return set
}
