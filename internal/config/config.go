// Package config assembles the runtime configuration from, in
// ascending precedence: built-in defaults, an optional YAML file,
// MEMODECK_-prefixed environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/memodeck/memodeck/internal/fsrs"
)

const envPrefix = "MEMODECK_"

// Config is the full runtime configuration.
type Config struct {
	DBPath     string          `koanf:"db_path" validate:"required"`
	ListenAddr string          `koanf:"listen_addr" validate:"required"`
	ReposDir   string          `koanf:"repos_dir" validate:"required"`
	Scheduler  SchedulerConfig `koanf:"scheduler"`
}

// SchedulerConfig configures the scheduling engine. An empty weights
// list means the engine's built-in default vector; a non-empty one
// must carry exactly the contracted number of entries.
type SchedulerConfig struct {
	RequestRetention float64   `koanf:"request_retention" validate:"gt=0,lt=1"`
	MaximumInterval  float64   `koanf:"maximum_interval" validate:"gte=1"`
	Weights          []float64 `koanf:"weights" validate:"omitempty,len=19,dive,gte=0"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DBPath:     "memodeck.db",
		ListenAddr: ":8686",
		ReposDir:   "repos",
		Scheduler: SchedulerConfig{
			RequestRetention: 0.9,
			MaximumInterval:  36500,
		},
	}
}

// Load builds the configuration. path may be empty (no file); flags
// may be nil (no flag overrides). The merged result is validated
// before it is returned.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Defaults()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// MEMODECK_DB_PATH → db_path, MEMODECK_SCHEDULER__REQUEST_RETENTION
	// → scheduler.request_retention.
	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			key = strings.ReplaceAll(key, "__", ".")
			return key, value
		},
	}), nil)
	if err != nil {
		return cfg, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return cfg, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SchedulerSettings converts the scheduler section into the engine's
// config shape.
func (c Config) SchedulerSettings() fsrs.Config {
	return fsrs.Config{
		RequestRetention: c.Scheduler.RequestRetention,
		MaximumInterval:  c.Scheduler.MaximumInterval,
		W:                c.Scheduler.Weights,
	}
}
