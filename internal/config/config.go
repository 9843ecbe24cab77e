// Package config loads the optional YAML configuration file and merges it
// with command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/storage/postgres"
	"github.com/julianstephens/habitt/internal/utils"
)

// Config is the on-disk configuration
type Config struct {
	// Store is a file path for sqlite/json/badger or a PostgreSQL DSN
	Store    string  `yaml:"store" validate:"required_unless=Backend postgres"`
	Backend  string  `yaml:"backend,omitempty" validate:"omitempty,oneof=sqlite postgres json badger"`
	Timezone string  `yaml:"timezone" validate:"tz"`
	Debug    bool    `yaml:"debug"`
	Backups  Backups `yaml:"backups"`
}

// Backups controls the snapshot backups taken before destructive commands
type Backups struct {
	Disabled bool `yaml:"disabled"`
	Max      int  `yaml:"max" validate:"gte=1,lte=365"`
}

// Overrides carries command-line values; empty fields leave the file value alone
type Overrides struct {
	Store    string
	Backend  string
	Timezone string
	Debug    bool
}

var validate = newValidator()

// newValidator registers "tz", which unlike the built-in timezone tag accepts
// "Local" and the empty string.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("tz", func(fl validator.FieldLevel) bool {
		return utils.ValidateTimezone(fl.Field().String())
	})
	return v
}

// Default returns the configuration used when no file exists
func Default() Config {
	return Config{
		Store:    constants.DefaultStorePath,
		Timezone: constants.DefaultTimezone,
		Backups: Backups{
			Max: constants.MaxBackups,
		},
	}
}

// Load reads the YAML file at path on top of the defaults. A missing file is
// not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Write stores cfg as YAML, creating the parent directory
func Write(path string, cfg Config) error {
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Apply merges command-line overrides into the configuration
func (c Config) Apply(o Overrides) Config {
	if o.Store != "" {
		c.Store = o.Store
	}
	if o.Backend != "" {
		c.Backend = o.Backend
	}
	if o.Timezone != "" {
		c.Timezone = o.Timezone
	}
	if o.Debug {
		c.Debug = true
	}
	return c
}

// Validate checks the configuration and the consistency of store and backend
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}

	if c.ResolvedBackend() == constants.BackendPostgres && postgres.IsURL(c.Store) {
		if _, err := postgres.ValidateConnString(c.Store); err != nil {
			return fmt.Errorf("invalid store: %w", err)
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_unless":
		return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", strings.ToLower(fe.Field()), fe.Param(), fe.Value())
	case "tz":
		return fmt.Sprintf("unknown timezone %q", fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
	}
}

// ResolvedBackend returns the explicit backend or infers one from Store
func (c Config) ResolvedBackend() string {
	if c.Backend != "" {
		return c.Backend
	}
	return DetectBackend(c.Store)
}

// DetectBackend infers the storage backend from a store path or DSN
func DetectBackend(store string) string {
	s := strings.TrimSpace(store)
	switch {
	case postgres.IsURL(s), strings.Contains(s, "host="):
		return constants.BackendPostgres
	case strings.EqualFold(filepath.Ext(s), ".json"):
		return constants.BackendJSON
	case strings.EqualFold(filepath.Ext(s), ".badger"):
		return constants.BackendBadger
	default:
		return constants.BackendSQLite
	}
}

// StorePath returns Store with a leading ~ expanded. DSNs are returned as-is.
func (c Config) StorePath() string {
	if c.ResolvedBackend() == constants.BackendPostgres {
		return c.Store
	}
	return ExpandPath(c.Store)
}

// Location loads the configured timezone
func (c Config) Location() (*time.Location, error) {
	loc, err := utils.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Dir returns the directory holding logs and backups. For a PostgreSQL store
// it falls back to the default config directory.
func (c Config) Dir() string {
	if c.ResolvedBackend() == constants.BackendPostgres {
		return ExpandPath(constants.DefaultConfigDir)
	}
	return filepath.Dir(c.StorePath())
}

// ExpandPath replaces a leading ~ with the user's home directory
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
