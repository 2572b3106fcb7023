// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, codec, throttles) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// MinSecretLength is the shortest HMAC signing secret the server accepts.
const MinSecretLength = 32

// # Configuration Schema

// Config holds all runtime configuration for the Quizdesk API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Token signing
	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTTTL    time.Duration `env:"JWT_TTL"    envDefault:"24h"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"quizdesk.app"`

	// Strict throttle for credential endpoints
	AuthThrottleCeiling int           `env:"AUTH_THROTTLE_CEILING" envDefault:"5"`
	AuthThrottleWindow  time.Duration `env:"AUTH_THROTTLE_WINDOW"  envDefault:"1m"`

	// General throttle for the remaining API
	APIThrottleCeiling int           `env:"API_THROTTLE_CEILING" envDefault:"100"`
	APIThrottleWindow  time.Duration `env:"API_THROTTLE_WINDOW"  envDefault:"15m"`

	// ThrottleSweepInterval is how often idle throttle subjects are forgotten.
	ThrottleSweepInterval time.Duration `env:"THROTTLE_SWEEP_INTERVAL" envDefault:"1m"`

	// VerificationTokenTTL bounds how long an email verification link stays valid.
	VerificationTokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"24h"`

	// Cross-Origin Resource Sharing (comma separated suffixes)
	ExtraOrigins string `env:"EXTRA_ORIGINS"`

	// TrustedProxies lists the CIDR blocks or addresses of reverse proxies
	// whose X-Real-IP and X-Forwarded-For headers are believed. Empty trusts
	// no one and the peer address is always the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate reports every setting the server cannot start with.
func (c *Config) Validate() error {
	var problems []error

	if len(c.JWTSecret) < MinSecretLength {
		problems = append(problems, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretLength))
	}
	if c.JWTTTL <= 0 {
		problems = append(problems, errors.New("JWT_TTL must be positive"))
	}
	if c.AuthThrottleCeiling < 1 || c.AuthThrottleWindow <= 0 {
		problems = append(problems, errors.New("AUTH_THROTTLE_CEILING and AUTH_THROTTLE_WINDOW must be positive"))
	}
	if c.APIThrottleCeiling < 1 || c.APIThrottleWindow <= 0 {
		problems = append(problems, errors.New("API_THROTTLE_CEILING and API_THROTTLE_WINDOW must be positive"))
	}
	if c.ThrottleSweepInterval <= 0 {
		problems = append(problems, errors.New("THROTTLE_SWEEP_INTERVAL must be positive"))
	}
	if c.VerificationTokenTTL <= 0 {
		problems = append(problems, errors.New("VERIFICATION_TOKEN_TTL must be positive"))
	}
	for _, entry := range c.TrustedProxies {
		if !validProxyEntry(strings.TrimSpace(entry)) {
			problems = append(problems, fmt.Errorf("TRUSTED_PROXIES entry %q is not a CIDR block or IP address", entry))
		}
	}

	return errors.Join(problems...)
}

func validProxyEntry(entry string) bool {
	if entry == "" {
		return true
	}
	if strings.Contains(entry, "/") {
		_, _, err := net.ParseCIDR(entry)
		return err == nil
	}
	return net.ParseIP(entry) != nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the trimmed, non-empty EXTRA_ORIGINS entries.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
