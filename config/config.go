package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken    string
	DiscordClientID string

	// Database configuration
	DatabaseURL string

	// System-wide fallbacks for the configuration cascade
	DefaultLocale   string
	DefaultTimezone string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from a .env file (if present) and the environment
func load() (*Config, error) {
	// Missing .env is fine; real deployments use plain environment variables
	_ = godotenv.Load()

	config := &Config{
		DiscordToken:    os.Getenv("DISCORD_TOKEN"),
		DiscordClientID: os.Getenv("DISCORD_CLIENT_ID"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DefaultLocale:   os.Getenv("DEFAULT_LOCALE"),
		DefaultTimezone: os.Getenv("DEFAULT_TIMEZONE"),
		Environment:     os.Getenv("ENVIRONMENT"),
	}

	if config.DefaultLocale == "" {
		config.DefaultLocale = "en"
	}
	if config.DefaultTimezone == "" {
		config.DefaultTimezone = "UTC"
	}
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
