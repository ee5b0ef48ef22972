// Package config loads process configuration from the environment and the
// seed document used to initialise an empty database.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"lidercheck/internal/compliance"
)

// Config is the process configuration. Every variable is prefixed with
// LIDERCHECK_.
type Config struct {
	Addr          string        `env:"LIDERCHECK_ADDR" envDefault:":3000"`
	DBDriver      string        `env:"LIDERCHECK_DB_DRIVER" envDefault:"sqlite3"`
	DBDSN         string        `env:"LIDERCHECK_DB_DSN" envDefault:"./lidercheck.db"`
	SessionSecret string        `env:"LIDERCHECK_SESSION_SECRET"`
	SessionIdle   time.Duration `env:"LIDERCHECK_SESSION_IDLE" envDefault:"30m"`
	SecureCookies bool          `env:"LIDERCHECK_SECURE_COOKIES" envDefault:"false"`
	CSRFKey       string        `env:"LIDERCHECK_CSRF_KEY"`
	UTCOffset     time.Duration `env:"LIDERCHECK_UTC_OFFSET" envDefault:"-4h"`
	TieBreak      string        `env:"LIDERCHECK_TIE_BREAK" envDefault:"first"`
	LogLevel      string        `env:"LIDERCHECK_LOG_LEVEL" envDefault:"info"`
	LogLimit      int           `env:"LIDERCHECK_LOG_LIMIT" envDefault:"1000"`
	MeetingLimit  int           `env:"LIDERCHECK_MEETING_LIMIT" envDefault:"500"`
	BackupDir     string        `env:"LIDERCHECK_BACKUP_DIR" envDefault:"./backups"`
	SeedFile      string        `env:"LIDERCHECK_SEED_FILE"`
}

// ParseEnv parses environment variables into the provided struct.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the optional dotenv files, then the environment. Variables
// already set in the environment win over dotenv values.
func Load(dotenv ...string) (Config, error) {
	for _, path := range dotenv {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that the environment parser cannot.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("config: unsupported db driver %q", c.DBDriver)
	}
	if _, err := compliance.ParseTieBreak(c.TieBreak); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.CSRFKey != "" && len(c.CSRFKey) != 32 {
		return errors.New("config: csrf key must be 32 bytes")
	}
	if c.UTCOffset <= -24*time.Hour || c.UTCOffset >= 24*time.Hour {
		return fmt.Errorf("config: utc offset %s out of range", c.UTCOffset)
	}
	if c.SessionIdle <= 0 {
		return errors.New("config: session idle must be positive")
	}
	return nil
}

// RequireSessionSecret fails when the server would sign cookies with an
// empty or short key.
func (c Config) RequireSessionSecret() error {
	if len(c.SessionSecret) < 16 {
		return errors.New("config: LIDERCHECK_SESSION_SECRET must be at least 16 bytes")
	}
	return nil
}

// Tie returns the parsed tie-break.
func (c Config) Tie() compliance.TieBreak {
	tb, _ := compliance.ParseTieBreak(c.TieBreak)
	return tb
}
