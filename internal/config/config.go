// Package config loads application configuration from environment
// variables.
package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string `env:"SERVER_ADDR" envDefault:"0.0.0.0"`
	ServerPort int    `env:"SERVER_PORT" envDefault:"8080"`
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// Database
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName     string `env:"DB_NAME" envDefault:"shelfmark"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// JWT
	JWTSecret       string        `env:"JWT_SECRET,required"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"shelfmark"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	// Two-factor auth
	TOTPIssuer string `env:"TOTP_ISSUER" envDefault:"Shelfmark"`
	TOTPWindow int    `env:"TOTP_WINDOW" envDefault:"1"`

	// Hex-encoded 32-byte key for encrypting TOTP secrets at rest.
	// Optional; secrets are stored raw when unset.
	SecretEncryptionKey string `env:"SECRET_ENCRYPTION_KEY"`

	// Lockout policy
	MaxFailedLogins int           `env:"MAX_FAILED_LOGINS" envDefault:"5"`
	LockoutDuration time.Duration `env:"LOCKOUT_DURATION" envDefault:"30m"`

	// Email verification
	RequireEmailVerification bool          `env:"REQUIRE_EMAIL_VERIFICATION" envDefault:"true"`
	EmailVerificationTTL     time.Duration `env:"EMAIL_VERIFICATION_TTL" envDefault:"24h"`

	// SMTP (optional; verification mail is skipped when unset)
	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	SMTPFrom string `env:"SMTP_FROM"`

	// Rate limiting
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if _, err := cfg.EncryptionKey(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EncryptionKey decodes the TOTP secret encryption key. Returns nil
// when no key is configured.
func (c *Config) EncryptionKey() ([]byte, error) {
	if c.SecretEncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.SecretEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("SECRET_ENCRYPTION_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("SECRET_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// HasSMTP returns true if outbound mail is configured.
func (c *Config) HasSMTP() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}
