// Package config loads epwmerge settings from defaults, an optional YAML
// file, EPWMERGE_* environment variables and command-line flags, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/couchcryptid/epw-merge/internal/domain"
)

// EnvPrefix is the prefix of environment overrides, e.g. EPWMERGE_LIMIT_UTCI.
const EnvPrefix = "EPWMERGE_"

// DefaultConfigFile is read from the working directory when no --config is given.
const DefaultConfigFile = "epwmerge.yaml"

// File error policies.
const (
	OnFileErrorAbort = "abort"
	OnFileErrorSkip  = "skip"
)

// Config holds all settings of a run.
type Config struct {
	Inputs          []string      `koanf:"inputs"`
	Output          string        `koanf:"output"`
	Strict          bool          `koanf:"strict"`
	LimitUTCI       bool          `koanf:"limit_utci"`
	EmitTabularCopy bool          `koanf:"emit_tabular_copy"`
	Workers         int           `koanf:"workers" validate:"gte=0,lte=256"`
	OnFileError     string        `koanf:"on_file_error" validate:"oneof=abort skip"`
	LogLevel        string        `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat       string        `koanf:"log_format" validate:"oneof=json text"`
	MetricsAddr     string        `koanf:"metrics_addr"`
	MetricsTextfile string        `koanf:"metrics_textfile"`
	KafkaBrokers    string        `koanf:"kafka_brokers"`
	KafkaTopic      string        `koanf:"kafka_topic" validate:"required_with=KafkaBrokers"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

var validate = validator.New()

func defaults() map[string]any {
	return map[string]any{
		"workers":          0,
		"on_file_error":    OnFileErrorAbort,
		"log_level":        "info",
		"log_format":       "text",
		"kafka_topic":      "epw-datasets",
		"shutdown_timeout": "10s",
	}
}

// Load builds a Config. cfgFile may be empty, in which case epwmerge.yaml is
// used when present. Only flags the user explicitly set override other
// sources; flag names map to keys by replacing '-' with '_'.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else if cfgFile != "" {
		return nil, fmt.Errorf("config file %s not found", cfgFile)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.OnFileError = strings.ToLower(cfg.OnFileError)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// Validate checks field constraints and reports the first offending key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid config %s: %q fails %s", keyOf(fe.StructField()), fmt.Sprint(fe.Value()), fe.Tag())
	}
	return fmt.Errorf("invalid config: %w", err)
}

// keyOf maps a Config field name to its koanf key.
func keyOf(field string) string {
	keys := map[string]string{
		"Workers":         "workers",
		"OnFileError":     "on_file_error",
		"LogLevel":        "log_level",
		"LogFormat":       "log_format",
		"KafkaTopic":      "kafka_topic",
		"ShutdownTimeout": "shutdown_timeout",
	}
	if k, ok := keys[field]; ok {
		return k
	}
	return field
}

// Options returns the immutable run options.
func (c *Config) Options() domain.Options {
	return domain.Options{
		Strict:          c.Strict,
		LimitUTCI:       c.LimitUTCI,
		EmitTabularCopy: c.EmitTabularCopy,
	}
}

// SkipInvalidFiles reports whether unreadable files are skipped instead of
// failing the run.
func (c *Config) SkipInvalidFiles() bool { return c.OnFileError == OnFileErrorSkip }

// Brokers returns the Kafka bootstrap servers, or nil when notification is
// disabled.
func (c *Config) Brokers() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(c.KafkaBrokers)
}
