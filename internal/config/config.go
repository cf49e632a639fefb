// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads authstore configuration.
//
// Sources are layered, later ones winning:
//
//  1. flag defaults
//  2. the YAML config file
//  3. environment variables
//  4. flags set on the command line
//
// Without an explicit path, $XDG_CONFIG_HOME/authstore/config.yaml is read
// if it exists.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/authstore/internal/auth/columns"
	"github.com/holomush/authstore/internal/threading"
	"github.com/holomush/authstore/internal/xdg"
)

// Defaults.
const (
	DefaultConnectAttempts = 5
	DefaultConnectBackoff  = 500 * time.Millisecond
	DefaultLogFormat       = "json"
	DefaultLogLevel        = "info"
)

// Config is the complete authstore configuration.
type Config struct {
	Database     DatabaseConfig    `koanf:"database" yaml:"database"`
	Table        string            `koanf:"table" yaml:"table"`
	Columns      map[string]string `koanf:"columns" yaml:"columns,omitempty"`
	Log          LogConfig         `koanf:"log" yaml:"log"`
	ThreadSafety string            `koanf:"thread_safety" yaml:"thread_safety"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL             string        `koanf:"url" yaml:"url"`
	ConnectAttempts int           `koanf:"connect_attempts" yaml:"connect_attempts"`
	ConnectBackoff  time.Duration `koanf:"connect_backoff" yaml:"connect_backoff"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format" yaml:"format"`
	Level  string `koanf:"level" yaml:"level"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"database-url":     "database.url",
	"connect-attempts": "database.connect_attempts",
	"connect-backoff":  "database.connect_backoff",
	"table":            "table",
	"log-format":       "log.format",
	"log-level":        "log.level",
	"thread-safety":    "thread_safety",
}

// RegisterFlags adds the configuration flags to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.Int("connect-attempts", DefaultConnectAttempts, "database ping attempts at startup")
	flags.Duration("connect-backoff", DefaultConnectBackoff, "initial delay between database ping attempts")
	flags.String("table", columns.DefaultTable, "account table name")
	flags.String("log-format", DefaultLogFormat, "log format (json or text)")
	flags.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("thread-safety", string(threading.ModeWarn), "foreground call policy (off, warn, strict)")
}

// envOverrides holds values read from the environment. Nil fields are unset.
type envOverrides struct {
	DatabaseURL  *string `env:"AUTHSTORE_DATABASE_URL"`
	FallbackURL  *string `env:"DATABASE_URL"`
	Table        *string `env:"AUTHSTORE_TABLE"`
	LogFormat    *string `env:"AUTHSTORE_LOG_FORMAT"`
	LogLevel     *string `env:"AUTHSTORE_LOG_LEVEL"`
	ThreadSafety *string `env:"AUTHSTORE_THREAD_SAFETY"`
}

// Loader loads configuration.
type Loader struct {
	// Environ is the environment; nil means the process environment.
	Environ map[string]string
}

// Load reads the config file at path, applies the environment, then the
// flags in flags. An empty path means the XDG default file, skipped if it
// does not exist.
func (l Loader) Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	environ := l.environ()

	if path == "" {
		path = defaultPath(environ)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if err := applyEnv(k, environ); err != nil {
		return nil, err
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode config").Wrap(err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Load is Loader{}.Load.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	return Loader{}.Load(path, flags)
}

func (l Loader) environ() map[string]string {
	if l.Environ != nil {
		return l.Environ
	}
	return processEnviron()
}

// defaultPath returns the XDG config file if it exists.
func defaultPath(environ map[string]string) string {
	path := xdg.ConfigFile(func(key string) string { return environ[key] })
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return path
}

func applyEnv(k *koanf.Koanf, environ map[string]string) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: environ}); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("source", "environment").Wrap(err)
	}

	url := o.DatabaseURL
	if url == nil {
		url = o.FallbackURL
	}
	for key, v := range map[string]*string{
		"database.url":  url,
		"table":         o.Table,
		"log.format":    o.LogFormat,
		"log.level":     o.LogLevel,
		"thread_safety": o.ThreadSafety,
	} {
		if v == nil {
			continue
		}
		if err := k.Set(key, *v); err != nil {
			return oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}
	return nil
}

func processEnviron() map[string]string {
	environ := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}
	return environ
}

func (c *Config) applyDefaults() {
	if c.Table == "" {
		c.Table = columns.DefaultTable
	}
	if c.Database.ConnectAttempts <= 0 {
		c.Database.ConnectAttempts = DefaultConnectAttempts
	}
	if c.Database.ConnectBackoff <= 0 {
		c.Database.ConnectBackoff = DefaultConnectBackoff
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks settings that do not need a database.
func (c *Config) Validate() error {
	if _, err := c.ThreadSafetyMode(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").
			With("log.format", c.Log.Format).
			Errorf("log format must be json or text, got %q", c.Log.Format)
	}
	for id := range c.Columns {
		if !knownColumn(columns.ID(id)) {
			return oops.Code("CONFIG_INVALID").
				With("column", id).
				Errorf("unknown column %q", id)
		}
	}
	return nil
}

// RequireDatabase checks that a database URL is configured.
func (c *Config) RequireDatabase() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database url is required (set --database-url, database.url, or AUTHSTORE_DATABASE_URL)")
	}
	return nil
}

// ThreadSafetyMode parses the thread safety setting.
func (c *Config) ThreadSafetyMode() (threading.Mode, error) {
	return threading.ParseMode(c.ThreadSafety)
}

// ColumnsConfig returns the table layout for the column handler.
func (c *Config) ColumnsConfig() columns.Config {
	cfg := columns.Config{Table: c.Table}
	if len(c.Columns) > 0 {
		cfg.Names = make(map[columns.ID]string, len(c.Columns))
		for id, name := range c.Columns {
			cfg.Names[columns.ID(id)] = name
		}
	}
	return cfg
}

// Redacted returns a copy safe to print, with the database password hidden.
func (c *Config) Redacted() *Config {
	out := *c
	out.Database.URL = redactURL(c.Database.URL)
	return &out
}

func knownColumn(id columns.ID) bool {
	for _, f := range columns.All {
		if f.ID() == id {
			return true
		}
	}
	return false
}
