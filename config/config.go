// Package config holds the fixed parameters of one benchmark sweep.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/weiihann/strbench/grid"
	"github.com/weiihann/strbench/harness"
)

const envPrefix = "STRBENCH"

// Config is the process-wide configuration of a sweep. It is read
// once at startup and never changed afterwards.
type Config struct {
	PoolSize         int           `mapstructure:"pool_size"`
	Grid             grid.Grid     `mapstructure:"grid"`
	ConfidenceTarget int           `mapstructure:"confidence"`
	Compiler         string        `mapstructure:"compiler"`
	Source           string        `mapstructure:"source"`
	Flags            []string      `mapstructure:"flags"`
	Variants         []string      `mapstructure:"variants"`
	TaskTimeout      time.Duration `mapstructure:"task_timeout"`
}

// Default returns the configuration of the reference sweep.
func Default() Config {
	return Config{
		PoolSize: 8,
		Grid: grid.Grid{
			Haystack: grid.Axis{Min: 0, Max: 128 * 1024, Count: 10},
			Needle:   grid.Axis{Min: 1, Max: 12, Count: 6},
		},
		ConfidenceTarget: 5,
		Compiler:         "gcc",
		Source:           "src/strstrbench.c",
		Flags:            harness.DefaultFlags(),
		Variants:         []string{"memmem", "sz_find"},
	}
}

// Load layers Default, the optional YAML file at path and STRBENCH_*
// environment variables, then validates the result. A .env file in
// the working directory is loaded first when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("pool_size", d.PoolSize)
	v.SetDefault("grid.haystack.min", d.Grid.Haystack.Min)
	v.SetDefault("grid.haystack.max", d.Grid.Haystack.Max)
	v.SetDefault("grid.haystack.count", d.Grid.Haystack.Count)
	v.SetDefault("grid.needle.min", d.Grid.Needle.Min)
	v.SetDefault("grid.needle.max", d.Grid.Needle.Max)
	v.SetDefault("grid.needle.count", d.Grid.Needle.Count)
	v.SetDefault("confidence", d.ConfidenceTarget)
	v.SetDefault("compiler", d.Compiler)
	v.SetDefault("source", d.Source)
	v.SetDefault("flags", d.Flags)
	v.SetDefault("variants", d.Variants)
	v.SetDefault("task_timeout", d.TaskTimeout)
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error

	if c.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("pool_size %d must be at least 1", c.PoolSize))
	}

	if err := c.Grid.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("grid: %w", err))
	}

	if c.ConfidenceTarget < 1 || c.ConfidenceTarget > 100 {
		errs = append(errs, fmt.Errorf("confidence %d must be in [1, 100]", c.ConfidenceTarget))
	}

	if c.Compiler == "" {
		errs = append(errs, errors.New("compiler must be set"))
	}

	if c.Source == "" {
		errs = append(errs, errors.New("source must be set"))
	}

	if len(c.Variants) == 0 {
		errs = append(errs, errors.New("at least one variant is required"))
	}

	for _, v := range c.Variants {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, errors.New("variant names must not be empty"))

			break
		}
	}

	if c.TaskTimeout < 0 {
		errs = append(errs, fmt.Errorf("task_timeout %s is negative", c.TaskTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	return nil
}

// HarnessCompiler returns the compiler described by c.
func (c Config) HarnessCompiler() harness.Compiler {
	return harness.Compiler{
		Path:   c.Compiler,
		Source: c.Source,
		Flags:  c.Flags,
	}
}
