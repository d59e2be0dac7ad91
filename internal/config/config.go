// Package config loads harness configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the full configuration surface of the harness.
type Config struct {
	AnthropicKey  string // required for live runs
	PerplexityKey string // optional; supplier research degrades without it
	DBPath        string
	Location      string // demand-analysis context
	Seed          int64
	MaxActions    int
	ContextTokens int
}

// Load reads environment variables (optionally from the provided .env
// file) and materializes a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		AnthropicKey:  os.Getenv("ANTHROPIC_API_KEY"),
		PerplexityKey: os.Getenv("PERPLEXITY_API_KEY"),
		DBPath:        getenvWithDefault("VENDSIM_DB_PATH", "vending_simulation.db"),
		Location:      getenvWithDefault("VENDSIM_LOCATION", "Standard office building vending machine"),
		Seed:          getenvInt64("VENDSIM_SEED", 42),
		MaxActions:    getenvInt("VENDSIM_ACTIONS", 100),
		ContextTokens: getenvInt("VENDSIM_CONTEXT_TOKENS", 30000),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures required fields are populated and bounds are sane.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.AnthropicKey == "" {
		return errors.New("ANTHROPIC_API_KEY must be provided")
	}
	if c.DBPath == "" {
		return errors.New("VENDSIM_DB_PATH must not be empty")
	}
	if c.MaxActions <= 0 {
		return errors.New("VENDSIM_ACTIONS must be positive")
	}
	if c.ContextTokens <= 0 {
		return errors.New("VENDSIM_CONTEXT_TOKENS must be positive")
	}
	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
