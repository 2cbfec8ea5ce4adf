// Package config loads the application configuration from the
// environment, with an optional .env file for development setups.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Defaults for the directory settings.
const (
	DefaultDataDir = "data"
	DefaultSaveDir = "saves"
)

// Config holds the application configuration.
type Config struct {
	// DataDir is where the YAML content catalogs live.
	DataDir string
	// SaveDir is where named save slots are written.
	SaveDir string
	// GeminiAPIKey enables the generative journal narrator. Empty
	// means the built-in narrator is used instead.
	GeminiAPIKey string
}

// LoadConfig reads configuration from the environment. A .env file in
// the working directory is folded in first when present; it never
// overrides variables already set.
func LoadConfig() (*Config, error) {
	// Ignore a missing .env; the environment alone is a complete
	// configuration source.
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:      envOr("TROUBLES_DATA_DIR", DefaultDataDir),
		SaveDir:      envOr("TROUBLES_SAVE_DIR", DefaultSaveDir),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
