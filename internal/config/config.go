// Package config содержит логику чтения конфигурации трекера пожертвований.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mmeshcher/impact-tracker/internal/impact"
)

const (
	defaultRunAddress = "localhost:8080"
	defaultStateDir   = "data"
	defaultPublicURL  = "http://localhost:8080/impact"
)

// Config содержит параметры конфигурации трекера.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURI string `env:"DATABASE_URI"`
	StateDir    string `env:"STATE_DIR"`
	PublicURL   string `env:"PUBLIC_URL"`
	ShareState  string `env:"SHARE_STATE"`

	Rates impact.Rates
}

// Parse считывает конфигурацию из .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envStateDir := cfg.StateDir
	envPublicURL := cfg.PublicURL
	envShareState := cfg.ShareState

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.StateDir, "f", defaultStateDir, "directory for file state storage")
	flag.StringVar(&cfg.PublicURL, "u", defaultPublicURL, "public URL used to build share links")
	flag.StringVar(&cfg.ShareState, "s", "", "encoded shared state to start from")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envStateDir != "" {
		cfg.StateDir = envStateDir
	}
	if envPublicURL != "" {
		cfg.PublicURL = envPublicURL
	}
	if envShareState != "" {
		cfg.ShareState = envShareState
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.StateDir == "" {
		cfg.StateDir = defaultStateDir
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = defaultPublicURL
	}

	return cfg, nil
}
