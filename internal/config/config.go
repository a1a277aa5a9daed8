package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultLevelUpInterval is the number of translation requests per
// level. Historical deployments also ran with 3.
const DefaultLevelUpInterval = 10

// Config holds all application configuration
type Config struct {
	Port            string
	AppSecret       string
	ValidationToken string
	PageAccessToken string
	ServerURL       string
	BackendEndpoint string
	AssetsDir       string
	LevelUpInterval int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "5000"),
		AppSecret:       os.Getenv("MESSENGER_APP_SECRET"),
		ValidationToken: os.Getenv("MESSENGER_VALIDATION_TOKEN"),
		PageAccessToken: os.Getenv("MESSENGER_PAGE_ACCESS_TOKEN"),
		ServerURL:       os.Getenv("SERVER_URL"),
		BackendEndpoint: os.Getenv("BACKEND_ENDPOINT"),
		AssetsDir:       getEnv("ASSETS_DIR", "public/assets"),
		LevelUpInterval: getEnvInt("LEVEL_UP_INTERVAL", DefaultLevelUpInterval),
	}

	// Validate required fields
	if cfg.AppSecret == "" {
		return nil, fmt.Errorf("MESSENGER_APP_SECRET is required")
	}
	if cfg.ValidationToken == "" {
		return nil, fmt.Errorf("MESSENGER_VALIDATION_TOKEN is required")
	}
	if cfg.PageAccessToken == "" {
		return nil, fmt.Errorf("MESSENGER_PAGE_ACCESS_TOKEN is required")
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("SERVER_URL is required")
	}
	if cfg.BackendEndpoint == "" {
		return nil, fmt.Errorf("BACKEND_ENDPOINT is required")
	}
	if cfg.LevelUpInterval < 1 {
		return nil, fmt.Errorf("LEVEL_UP_INTERVAL must be at least 1")
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
