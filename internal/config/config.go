package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	BaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	DBDSN      string `env:"DB_DSN"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName     string `env:"DB_NAME" envDefault:"shopapi"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	SessionKey string `env:"SESSION_KEY" envDefault:"dev-insecure"`

	StaffEmails []string `env:"STAFF_ALLOWED_EMAILS" envSeparator:","`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`
	StripeAPIBase   string `env:"STRIPE_API_BASE" envDefault:"https://api.stripe.com"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// DSN returns DB_DSN verbatim when set, otherwise assembles one from the
// individual DB_* parts.
func (c Config) DSN() string {
	if strings.TrimSpace(c.DBDSN) != "" {
		return c.DBDSN
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// StaffAllowed reports whether the email is on the staff allowlist.
func (c Config) StaffAllowed(email string) bool {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return false
	}
	for _, s := range c.StaffEmails {
		if strings.ToLower(strings.TrimSpace(s)) == e {
			return true
		}
	}
	return false
}
