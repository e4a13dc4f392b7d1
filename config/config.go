// Package config loads runtime configuration from the environment.
//
// Variables use the LICENSES_ prefix, e.g. LICENSES_DATA_SOURCE=fixture.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/warp/license-registry/generic"
	"github.com/warp/license-registry/license"
)

const Prefix = "LICENSES"

const (
	DataSourceSQLite  = "sqlite"
	DataSourceFixture = "fixture"
)

// Config holds runtime configuration for the server.
type Config struct {
	Addr         string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`

	// DataSource is chosen once at startup. There is no fallback.
	DataSource  string `envconfig:"DATA_SOURCE" default:"sqlite"`
	DBPath      string `envconfig:"DB_PATH" default:"licenses.db"`
	FixturePath string `envconfig:"FIXTURE_PATH" default:"fixtures/licenses.json"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	Locale             string   `envconfig:"LOCALE" default:"ar"`
	AllowedOrigins     []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:8080"`
	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"300"`
	RecentLimit        int      `envconfig:"RECENT_LIMIT" default:"10"`

	FullDayLimit     int     `envconfig:"FULL_DAY_LIMIT" default:"3"`
	ShortLimit       int     `envconfig:"SHORT_LIMIT" default:"4"`
	MaxHoursPerMonth float64 `envconfig:"MAX_HOURS_PER_MONTH" default:"12"`
}

// Load reads .env (if any) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.DataSource {
	case DataSourceSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite data source"))
		}
	case DataSourceFixture:
		if strings.TrimSpace(c.FixturePath) == "" {
			errs = append(errs, errors.New("FIXTURE_PATH is required for the fixture data source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATA_SOURCE %q (want %s or %s)", c.DataSource, DataSourceSQLite, DataSourceFixture))
	}
	if c.Locale != "ar" && c.Locale != "en" {
		errs = append(errs, fmt.Errorf("unknown LOCALE %q (want ar or en)", c.Locale))
	}
	if c.FullDayLimit <= 0 || c.ShortLimit <= 0 || c.MaxHoursPerMonth <= 0 {
		errs = append(errs, errors.New("monthly limits must be positive"))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must not be negative"))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q (want text or json)", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Limits converts the configured quotas.
func (c *Config) Limits() license.Limits {
	return license.Limits{
		FullDayLicenses:  c.FullDayLimit,
		ShortLicenses:    c.ShortLimit,
		MaxHoursPerMonth: generic.Hours(c.MaxHoursPerMonth),
	}
}

// Logger builds the process logger. Validate has already checked the level.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
