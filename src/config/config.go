// Package config provides configuration management for the stub runner.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables read by LoadFromEnv.
const (
	EnvContracts = "STUBRUNNER_CONTRACTS"
	EnvEnabled   = "STUBRUNNER_ENABLED"
	EnvLogLevel  = "STUBRUNNER_LOG_LEVEL"
	EnvBrokers   = "REDPANDA_BROKERS"
	EnvDatabase  = "DATABASE_URL"
)

// Config holds the application configuration.
type Config struct {
	// ContractsPath is a contract file or a directory of contract files.
	ContractsPath string

	// RedpandaBrokers lists the seed brokers. Empty selects the in-memory broker.
	RedpandaBrokers []string

	// DatabaseURL enables the Postgres event journal when set.
	DatabaseURL string

	// Enabled turns flow registration on or off.
	Enabled bool

	// LogLevel is one of info, debug or silent.
	LogLevel string
}

// UseRedpanda reports whether a real broker is configured.
func (c *Config) UseRedpanda() bool {
	return len(c.RedpandaBrokers) > 0
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg, err := LoadBrokerFromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.ContractsPath == "" {
		return nil, fmt.Errorf("%s environment variable is required", EnvContracts)
	}
	return cfg, nil
}

// LoadBrokerFromEnv loads configuration like LoadFromEnv but leaves the
// contracts path optional, for commands that only talk to the broker.
func LoadBrokerFromEnv() (*Config, error) {
	contracts := strings.TrimSpace(os.Getenv(EnvContracts))

	enabled := true
	if raw := strings.TrimSpace(os.Getenv(EnvEnabled)); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be a boolean, got %q", EnvEnabled, raw)
		}
		enabled = v
	}

	level := strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel)))
	if level == "" {
		level = "info"
	}

	return &Config{
		ContractsPath:   contracts,
		RedpandaBrokers: SplitBrokers(os.Getenv(EnvBrokers)),
		DatabaseURL:     strings.TrimSpace(os.Getenv(EnvDatabase)),
		Enabled:         enabled,
		LogLevel:        level,
	}, nil
}

// SplitBrokers parses a comma separated broker list, dropping blanks.
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
