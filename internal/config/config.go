// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"eventhub"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"20"`
	MinConns int32  `env:"DB_MIN_CONNS" envDefault:"2"`
}

// DSN builds a libpq-compatible connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Auth holds session token and cookie settings.
type Auth struct {
	Secret       string        `env:"AUTH_SECRET"`
	Issuer       string        `env:"AUTH_ISSUER" envDefault:"eventhub"`
	TokenTTL     time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`
	CookieName   string        `env:"AUTH_COOKIE_NAME" envDefault:"eventhub_session"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
}

// CSRF holds form-post protection settings. Protection is off when Key is empty.
type CSRF struct {
	Key            string   `env:"CSRF_KEY"`
	TrustedOrigins []string `env:"CSRF_TRUSTED_ORIGINS" envSeparator:"," envDefault:"localhost:8080,127.0.0.1:8080"`
}

// Config is the full service configuration.
type Config struct {
	Port       string        `env:"PORT" envDefault:"8080"`
	WebDir     string        `env:"WEB_DIR" envDefault:"./web"`
	MessageTTL time.Duration `env:"MESSAGE_TTL" envDefault:"5s"`
	LogLevel   string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string        `env:"LOG_FORMAT" envDefault:"text"`

	Database Database
	Auth     Auth
	CSRF     CSRF
}

// Load reads a .env file when one exists and then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from environment variables only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe default.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("AUTH_SECRET is required")
	}
	if len(c.Auth.Secret) < 32 {
		return errors.New("AUTH_SECRET must be at least 32 bytes")
	}
	if c.CSRF.Key != "" && len(c.CSRF.Key) != 32 {
		return errors.New("CSRF_KEY must be exactly 32 bytes")
	}
	if c.MessageTTL <= 0 {
		return errors.New("MESSAGE_TTL must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("AUTH_TOKEN_TTL must be positive")
	}
	return nil
}

// NewLogger builds the process logger from the configured level and format.
func (c Config) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
