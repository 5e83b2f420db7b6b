// Package config loads service settings from the environment and an optional .env file.
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

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"reservations.db"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	StrictConflicts    bool `env:"CONFLICTS_STRICT" envDefault:"false"`
	SerializeApprovals bool `env:"APPROVALS_SERIALIZED" envDefault:"false"`
	RejectPastDates    bool `env:"RESERVATIONS_REJECT_PAST_DATES" envDefault:"true"`

	ExpirePendingSchedule string        `env:"JOB_EXPIRE_PENDING_SCHEDULE" envDefault:"@daily"`
	ShutdownTimeout       time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads envFiles (missing files are skipped) and then parses the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL not set")
		}
	case "sqlite":
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("SQLITE_PATH not set")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// DSN returns the connection string for the configured store driver.
func (c Config) DSN() string {
	switch c.StoreDriver {
	case "postgres":
		return c.DatabaseURL
	case "sqlite":
		return c.SQLitePath
	default:
		return ""
	}
}

// ExpirePendingEnabled reports whether the expired pending reservations job should be scheduled.
// JOB_EXPIRE_PENDING_SCHEDULE=off disables it.
func (c Config) ExpirePendingEnabled() bool {
	s := strings.TrimSpace(c.ExpirePendingSchedule)
	return s != "" && !strings.EqualFold(s, "off")
}

func (c Config) Addr() string {
	return ":" + c.Port
}
