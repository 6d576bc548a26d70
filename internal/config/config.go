// Package config loads process-wide settings once at startup.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"expenses.db"`

	Auth      AuthConfig
	Bootstrap BootstrapConfig
}

// AuthConfig contains token and password settings.
type AuthConfig struct {
	JWTSecret    string        `env:"JWT_SECRET"`
	JWTAlgorithm string        `env:"JWT_ALGORITHM" envDefault:"HS256"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"60m"`
	BcryptCost   int           `env:"BCRYPT_COST" envDefault:"10"`

	// RequireAuthOnMutations puts the edit and delete statement routes
	// behind the bearer check and scopes them to the caller.
	RequireAuthOnMutations bool `env:"REQUIRE_AUTH_ON_MUTATIONS" envDefault:"false"`
}

// BootstrapConfig seeds a first account when the users table is empty.
type BootstrapConfig struct {
	Username string `env:"ADMIN_USER"`
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// Load reads an optional .env file from the working directory and then
// parses the environment. Variables already set in the environment win over
// the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks critical settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}
	switch c.Auth.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("JWT_ALGORITHM %q is not supported, use HS256, HS384 or HS512", c.Auth.JWTAlgorithm)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Port)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, DB: %s, Auth: {Alg: %s, TTL: %s, Secret: *** (masked) ***, RequireAuthOnMutations: %t}}",
		c.Port, maskDSN(c.DatabaseURL), c.Auth.JWTAlgorithm, c.Auth.TokenTTL, c.Auth.RequireAuthOnMutations)
}

// maskDSN hides the password of a URL-style connection string.
func maskDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return dsn
	}
	return scheme + "://" + user + ":***@" + host
}
