// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port          string `env:"PORT,default=8080"`
	Debug         bool   `env:"DEBUG,default=false"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
	FrontendURL   string `env:"FRONTEND_URL,default=http://localhost:3000"`

	Store StoreConfig
	Auth  AuthConfig
	SMTP  SMTPConfig
	Login RateConfig
}

type StoreConfig struct {
	Driver            string        `env:"STORE_DRIVER,default=sqlite"`
	DatabasePath      string        `env:"DATABASE_PATH,default=socialfeed.db"`
	MongoURI          string        `env:"MONGO_URI,default=mongodb://localhost:27017"`
	MongoDatabase     string        `env:"MONGO_DATABASE,default=socialfeed"`
	MongoTransactions bool          `env:"MONGO_TRANSACTIONS,default=false"`
	Timeout           time.Duration `env:"STORE_TIMEOUT,default=5s"`
	MediaTimeout      time.Duration `env:"MEDIA_TIMEOUT,default=15s"`
}

type AuthConfig struct {
	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,default=168h"`
	BcryptCost   int           `env:"BCRYPT_COST,default=12"`
	CookieSecure bool          `env:"COOKIE_SECURE,default=false"`
}

// SMTPConfig configures outgoing mail. An empty Host logs mail instead.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,default=587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM,default=no-reply@socialfeed.local"`
}

// RateConfig bounds unauthenticated credential endpoints per client IP.
type RateConfig struct {
	PerSecond float64 `env:"LOGIN_RATE,default=0.2"`
	Burst     int     `env:"LOGIN_BURST,default=5"`
}

// Load reads the given .env files (missing files are ignored), decodes
// the environment into a Config and validates it.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:" + cfg.Port
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be set and at least 32 characters"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.Auth.BcryptCost))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	switch c.Store.Driver {
	case DriverSQLite, DriverMongo:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMongo, c.Store.Driver))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Login.Burst < 1 {
		errs = append(errs, errors.New("LOGIN_BURST must be at least 1"))
	}
	return errors.Join(errs...)
}

// SlogLevel parses LOG_LEVEL.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
