// Package config loads the process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// minKeyLength keeps HS256 keys at least as long as the digest.
const minKeyLength = 32

type Config struct {
	Env             string        `env:"APP_ENV,default=production"`
	HTTPAddr        string        `env:"HTTP_ADDR,default=:8081"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	Database        Database
	JWT             JWT
	Admin           Admin
	RateLimit       RateLimit
}

type Database struct {
	Driver string `env:"DB_DRIVER,default=sqlite"`
	// ConnectionString is a file path for sqlite and a DSN for postgres.
	ConnectionString string `env:"SQL_CONNECTION,default=sales.db"`
}

type JWT struct {
	Issuer   string        `env:"JWT_ISSUER"`
	Audience string        `env:"JWT_AUDIENCE"`
	Key      string        `env:"JWT_KEY"`
	TTL      time.Duration `env:"JWT_TTL,default=24h"`
}

type Admin struct {
	Username string `env:"ADMIN_USERNAME,default=admin"`
	Email    string `env:"ADMIN_EMAIL,default=admin@domain.com"`
	Password string `env:"ADMIN_PASSWORD"`
}

// RateLimit is per client. A non-positive RPS disables limiting.
type RateLimit struct {
	RPS   float64 `env:"RATE_LIMIT_RPS,default=20"`
	Burst int     `env:"RATE_LIMIT_BURST,default=40"`
}

func (c Config) Development() bool {
	return c.Env == "development"
}

// Load reads an optional .env file, decodes the environment and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	cfg.normalize()

	if problems := cfg.validate(); len(problems) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Env = strings.TrimSpace(c.Env)
	c.HTTPAddr = strings.TrimSpace(c.HTTPAddr)
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Database.ConnectionString = strings.TrimSpace(c.Database.ConnectionString)
	c.JWT.Issuer = strings.TrimSpace(c.JWT.Issuer)
	c.JWT.Audience = strings.TrimSpace(c.JWT.Audience)
	c.Admin.Username = strings.TrimSpace(c.Admin.Username)
	c.Admin.Email = strings.TrimSpace(c.Admin.Email)
}

// validate collects every problem so a misconfigured deploy fails once with the full list.
func (c Config) validate() []string {
	var problems []string
	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Database.ConnectionString == "" {
			problems = append(problems, "SQL_CONNECTION is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("DB_DRIVER %q is not one of memory, sqlite, postgres", c.Database.Driver))
	}
	if c.JWT.Issuer == "" {
		problems = append(problems, "JWT_ISSUER is required")
	}
	if c.JWT.Audience == "" {
		problems = append(problems, "JWT_AUDIENCE is required")
	}
	if len(c.JWT.Key) < minKeyLength {
		problems = append(problems, fmt.Sprintf("JWT_KEY must be at least %d bytes", minKeyLength))
	}
	if c.JWT.TTL <= 0 {
		problems = append(problems, "JWT_TTL must be positive")
	}
	if c.Admin.Username == "" {
		problems = append(problems, "ADMIN_USERNAME is required")
	}
	if n := len(c.Admin.Password); n < 8 || n > 72 {
		problems = append(problems, "ADMIN_PASSWORD must be 8 to 72 bytes")
	}
	// A zero burst bucket never admits a request.
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		problems = append(problems, "RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_RPS is positive")
	}
	return problems
}
