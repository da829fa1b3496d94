package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"
)

// Supported storage backends.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds the application configuration.
type Config struct {
	ServerPort      int           `env:"PORT" env-default:"8080"`
	Environment     string        `env:"APP_ENV" env-default:"development"`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" env-default:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
	BcryptCost      int           `env:"BCRYPT_COST" env-default:"10"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	HealthSchedule  string        `env:"HEALTH_CHECK_SCHEDULE" env-default:"@every 30s"`

	Database Database
}

// Database selects and configures the storage backend.
type Database struct {
	Driver   string `env:"DATABASE_DRIVER" env-default:"sqlite"`
	Path     string `env:"DATABASE_PATH" env-default:"./techinsight.db"`
	URL      string `env:"DATABASE_URL"`
	MaxConns int    `env:"DATABASE_MAX_CONNS" env-default:"10"`
	MongoURI string `env:"MONGO_URI"`
	MongoDB  string `env:"MONGO_DATABASE" env-default:"techinsight"`
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.ServerPort))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
	}
	if _, err := cron.ParseStandard(c.HealthSchedule); err != nil {
		errs = append(errs, fmt.Errorf("HEALTH_CHECK_SCHEDULE: %w", err))
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
		if c.Database.MaxConns <= 0 {
			errs = append(errs, errors.New("DATABASE_MAX_CONNS must be positive"))
		}
	case DriverMongo:
		if c.Database.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo driver"))
		}
		if c.Database.MongoDB == "" {
			errs = append(errs, errors.New("MONGO_DATABASE is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
