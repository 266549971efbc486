package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	minJWTKeyLen             = 32
	minSuperAdminPasswordLen = 6
)

type Config struct {
	//App
	Env   string `env:"ENV, default=dev"` // dev / staging / prod
	Store string `env:"STORE, default=postgres"`
	//HTTP
	HTTPAddr         string        `env:"HTTP_ADDR, default=:8080"`
	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT, default=10s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT, default=30s"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT, default=60s"`

	JWT   JWTConfig
	Email EmailConfig
	SMTP  SMTPConfig

	// Infrastructure
	DBAddr    string `env:"DB_ADDR"`
	DBMigrate bool   `env:"DB_MIGRATE, default=true"`
	DBDebug   bool   `env:"DB_DEBUG, default=false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB, default=0"`

	RabbitURL      string `env:"RABBIT_URL"`
	RabbitExchange string `env:"RABBIT_EXCHANGE, default=identity.events"`

	// Purpose tokens (email confirmation / password reset)
	ConfirmTokenTTL time.Duration `env:"CONFIRM_TOKEN_TTL, default=24h"`
	ResetTokenTTL   time.Duration `env:"RESET_TOKEN_TTL, default=30m"`

	SuperAdminUserName string `env:"SUPER_ADMIN_USERNAME, default=admin@sample.com"`
	// Outside dev the super admin is created on first start when this is set.
	SuperAdminPassword string `env:"SUPER_ADMIN_PASSWORD"`
}

type JWTConfig struct {
	Key           string `env:"JWT_KEY"`
	Issuer        string `env:"JWT_ISSUER, default=http://localhost:8080"`
	ExpiresInDays int    `env:"JWT_EXPIRES_IN_DAYS, default=15"`
	ClientURL     string `env:"JWT_CLIENT_URL, default=http://localhost:4200"`
}

type EmailConfig struct {
	ConfirmPath     string `env:"EMAIL_CONFIRM_PATH, default=account/confirm-email"`
	ResetPath       string `env:"EMAIL_RESET_PATH, default=account/reset-password"`
	ApplicationName string `env:"EMAIL_APPLICATION_NAME, default=Identity App"`
	From            string `env:"EMAIL_FROM, default=no-reply@localhost"`
	Transport       string `env:"EMAIL_TRANSPORT, default=log"` // smtp / rabbitmq / log
}

type SMTPConfig struct {
	Host     string        `env:"SMTP_HOST"`
	Port     int           `env:"SMTP_PORT, default=587"`
	Username string        `env:"SMTP_USERNAME"`
	Password string        `env:"SMTP_PASSWORD"`
	Insecure bool          `env:"SMTP_INSECURE, default=false"`
	Timeout  time.Duration `env:"SMTP_TIMEOUT, default=10s"`
}

// SessionTTL is the lifetime of issued session tokens.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.JWT.ExpiresInDays) * 24 * time.Hour
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(context.Background(), envconfig.OsLookuper())
}

// LoadFrom decodes and validates configuration from any lookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.Email.Transport = strings.ToLower(strings.TrimSpace(c.Email.Transport))

	if c.JWT.Key == "" {
		return missing("JWT_KEY")
	}
	if len(c.JWT.Key) < minJWTKeyLen {
		return fmt.Errorf("JWT_KEY must be at least %d bytes", minJWTKeyLen)
	}
	if c.JWT.ExpiresInDays <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN_DAYS must be positive")
	}
	if c.JWT.ClientURL == "" {
		return missing("JWT_CLIENT_URL")
	}
	c.JWT.ClientURL = strings.TrimRight(c.JWT.ClientURL, "/")

	switch c.Store {
	case "postgres":
		if c.DBAddr == "" {
			return missing("DB_ADDR")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid STORE %q (want postgres or memory)", c.Store)
	}

	switch c.Email.Transport {
	case "smtp":
		if c.SMTP.Host == "" {
			return missing("SMTP_HOST")
		}
	case "rabbitmq":
		if c.RabbitURL == "" {
			return missing("RABBIT_URL")
		}
	case "log":
	default:
		return fmt.Errorf("invalid EMAIL_TRANSPORT %q (want smtp, rabbitmq or log)", c.Email.Transport)
	}

	if c.ConfirmTokenTTL <= 0 || c.ResetTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.SuperAdminPassword != "" && len(c.SuperAdminPassword) < minSuperAdminPasswordLen {
		return fmt.Errorf("SUPER_ADMIN_PASSWORD must be at least %d characters", minSuperAdminPasswordLen)
	}
	return nil
}

func missing(key string) error {
	return fmt.Errorf("missing required env var: %s", key)
}
