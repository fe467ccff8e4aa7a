package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"

	devJWTSecret = "forms-builder-dev-secret"
)

// Config holds everything the process needs at start-up. It is built once in
// main and passed down; handlers never read the environment themselves.
type Config struct {
	Environment string `env:"GO_ENV" envDefault:"development"`
	Port        string `env:"APP_PORT" envDefault:"3000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"mongo"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DB" envDefault:"FormsBuilderDB"`

	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`

	RedisURI          string        `env:"REDIS_URI"`
	TagPruneGrace     time.Duration `env:"TAG_PRUNE_GRACE" envDefault:"1h"`
	WorkerConcurrency int           `env:"WORKER_CONCURRENCY" envDefault:"2"`

	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`

	// AdminEmail, when set, is created or promoted to admin at start-up.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	SeedSamples   bool   `env:"SEED_SAMPLE_TEMPLATES" envDefault:"false"`
}

// Load reads .env (outside production) and then the process environment.
func Load() (*Config, error) {
	if os.Getenv("GO_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	switch c.StorageDriver {
	case StorageMongo, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.AdminEmail != "" && len(c.AdminPassword) < 6 {
		return errors.New("ADMIN_PASSWORD of at least 6 characters must be set with ADMIN_EMAIL")
	}
	if c.SeedSamples && c.AdminEmail == "" {
		return errors.New("SEED_SAMPLE_TEMPLATES needs ADMIN_EMAIL to own the samples")
	}
	if c.WorkerConcurrency < 1 {
		c.WorkerConcurrency = 1
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Origins splits ALLOWED_ORIGINS into the comma separated form fiber's cors
// middleware expects, dropping blanks.
func (c *Config) Origins() string {
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}
