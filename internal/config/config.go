// Package config loads the fieldsync configuration.
//
// Values are resolved in order: built-in defaults, the YAML file, then
// FIELDSYNC_* environment variables. A .env file is read into the
// environment first without overriding variables that are already set.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FIELDSYNC_"

// Config holds runtime settings for the CLI and the sync client.
type Config struct {
	// Database is the SQLite file path.
	Database string `yaml:"database"`

	// GraphQLURL is the backend endpoint. A provisioned QR config takes
	// precedence when present.
	GraphQLURL string `yaml:"graphql_url"`

	// AuthToken is sent as a bearer token on remote requests.
	AuthToken string `yaml:"auth_token"`

	CompanyID int64 `yaml:"company_id"`

	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// PhoneRegion is the ISO 3166 region used to normalize phone numbers of
	// customers added on the device.
	PhoneRegion string `yaml:"phone_region"`

	// CreatedByID is stamped on order bookings made from this device.
	CreatedByID string `yaml:"created_by_id"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Database:    "fieldsync.db",
		HTTPTimeout: 30 * time.Second,
		PhoneRegion: "PK",
		LogLevel:    "info",
	}
}

// Options controls where Load looks.
type Options struct {
	// Path is the YAML file. A missing file is an error only when Required.
	Path     string
	Required bool

	// EnvFile is the dotenv file; empty means ".env". A missing file is ignored.
	EnvFile string
}

// Load resolves the configuration.
func Load(opts Options) (Config, error) {
	cfg := Default()

	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !opts.Required:
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := decodeYAML(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", opts.Path, err)
			}
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown keys
	return dec.Decode(cfg)
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	str("DB", &cfg.Database)
	str("GRAPHQL_URL", &cfg.GraphQLURL)
	str("AUTH_TOKEN", &cfg.AuthToken)
	str("PHONE_REGION", &cfg.PhoneRegion)
	str("CREATED_BY_ID", &cfg.CreatedByID)
	str("LOG_LEVEL", &cfg.LogLevel)

	if v, ok := os.LookupEnv(EnvPrefix + "COMPANY_ID"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sCOMPANY_ID %q: %w", EnvPrefix, v, err)
		}
		cfg.CompanyID = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "HTTP_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sHTTP_TIMEOUT %q: %w", EnvPrefix, v, err)
		}
		cfg.HTTPTimeout = d
	}
	return nil
}

// Validate checks value ranges. Remote settings may be empty until the
// device is provisioned.
func (c Config) Validate() error {
	if c.Database == "" {
		return errors.New("config: database path is required")
	}
	if c.CompanyID < 0 {
		return fmt.Errorf("config: company_id must not be negative, got %d", c.CompanyID)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("config: http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	return level, nil
}
