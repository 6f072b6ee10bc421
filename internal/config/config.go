package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const minSecretLen = 16

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"social_feed"`
	ServerAddr  string `env:"SERVER_ADDR"  envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`

	DBDriver    string `env:"DB_DRIVER"    envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret      string        `env:"JWT_SECRET"`
	JWTTTL         time.Duration `env:"JWT_TTL"         envDefault:"15m"`
	PasswordHasher string        `env:"PASSWORD_HASHER" envDefault:"bcrypt"`
	SecureCookies  bool          `env:"SECURE_COOKIES"  envDefault:"true"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	ESURL      string `env:"ES_URL"`
	ESUser     string `env:"ES_USER"`
	ESPassword string `env:"ES_PASSWORD"`
	ESIndex    string `env:"ES_INDEX" envDefault:"posts"`
}

// Load reads .env if present and then the process environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		slog.Info("env_file_not_loaded", "files", files, "reason", err.Error())
	}
	return Parse()
}

func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.PasswordHasher = strings.ToLower(strings.TrimSpace(c.PasswordHasher))
	c.ESURL = strings.TrimSpace(c.ESURL)

	brokers := c.KafkaBrokers[:0]
	for _, b := range c.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.KafkaBrokers = brokers
}

func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
		}
	case "sqlite":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for sqlite (file path or :memory:)"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver))
	}

	if len(c.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}

	switch c.PasswordHasher {
	case "bcrypt", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("PASSWORD_HASHER must be bcrypt or argon2id, got %q", c.PasswordHasher))
	}

	if c.ESUser != "" && c.ESURL == "" {
		errs = append(errs, errors.New("ES_USER is set but ES_URL is empty"))
	}

	return errors.Join(errs...)
}

func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

func (c *Config) SearchEnabled() bool { return c.ESURL != "" }
