// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads retry and logging settings from layered sources
// using koanf.
//
// Sources are applied in order of increasing priority:
//
//  1. Built-in defaults, matching retry.DefaultConfig.
//  2. An optional YAML file (WithFile).
//  3. Environment variables with the prefix HTTPRETRY_ (WithEnvPrefix).
//
// Environment variable names map onto configuration keys by dropping
// the prefix, lowercasing, and replacing underscores with dots, so
// HTTPRETRY_RETRY_MAXATTEMPTS sets retry.maxattempts. List values are
// comma-separated:
//
//	HTTPRETRY_RETRY_STATUSCODES=429,502,503,504
//	HTTPRETRY_RETRY_BACKOFFFACTOR=250ms
//
// The equivalent YAML file is:
//
//	retry:
//	  statuscodes: [429, 502, 503, 504]
//	  backofffactor: 250ms
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gogama/httpretry/retry"
)

// DefaultEnvPrefix is the prefix of environment variables read by Load.
const DefaultEnvPrefix = "HTTPRETRY_"

// Config is the root configuration.
type Config struct {
	Retry RetryConfig `koanf:"retry" json:"retry" yaml:"retry"`
	Log   LogConfig   `koanf:"log" json:"log" yaml:"log"`
}

// RetryConfig mirrors retry.Config in a form suited to files and
// environment variables.
type RetryConfig struct {
	MaxAttempts    int           `koanf:"maxattempts" json:"maxattempts" yaml:"maxattempts"`
	BackoffFactor  time.Duration `koanf:"backofffactor" json:"backofffactor" yaml:"backofffactor"`
	MaxBackoffWait time.Duration `koanf:"maxbackoffwait" json:"maxbackoffwait" yaml:"maxbackoffwait"`
	Methods        []string      `koanf:"methods" json:"methods" yaml:"methods"`
	StatusCodes    []int         `koanf:"statuscodes" json:"statuscodes" yaml:"statuscodes"`
	// Jitter is "full" or "partial".
	Jitter      string  `koanf:"jitter" json:"jitter" yaml:"jitter"`
	JitterRatio float64 `koanf:"jitterratio" json:"jitterratio" yaml:"jitterratio"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// An Option customizes Load.
type Option func(*options)

type options struct {
	file      string
	envPrefix string
	defaults  map[string]any
}

// WithFile loads the YAML file at path on top of the defaults. Unlike
// the other sources, a file that is named but cannot be read is an
// error.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithEnvPrefix changes the prefix of the environment variables read.
// An empty prefix disables environment variables.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithDefaults overrides individual built-in defaults. Keys are
// dotted configuration paths such as "retry.maxattempts".
func WithDefaults(defaults map[string]any) Option {
	return func(o *options) {
		for k, v := range defaults {
			o.defaults[k] = v
		}
	}
}

// Defaults returns the built-in defaults as a flat map of dotted keys.
func Defaults() map[string]any {
	c := retry.DefaultConfig()
	return map[string]any{
		"retry.maxattempts":    c.MaxAttempts,
		"retry.backofffactor":  c.BackoffFactor.String(),
		"retry.maxbackoffwait": c.MaxBackoffWait.String(),
		"retry.methods":        c.RetryableMethods,
		"retry.statuscodes":    c.RetryableStatusCodes,
		"retry.jitter":         c.Jitter.String(),
		"retry.jitterratio":    c.JitterRatio,

		"log.level":  "info",
		"log.pretty": false,
	}
}

// Load loads configuration from multiple sources with priority:
//  1. Environment variables (highest priority)
//  2. YAML configuration file, if one is given
//  3. Default values (lowest priority)
//
// The result is validated before it is returned.
func Load(opts ...Option) (*Config, error) {
	o := options{envPrefix: DefaultEnvPrefix, defaults: Defaults()}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(o.defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("httpretry/config: failed to load defaults: %w", err)
	}

	if o.file != "" {
		if err := k.Load(file.Provider(o.file), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("httpretry/config: failed to load %s: %w", o.file, err)
		}
	}

	if o.envPrefix != "" {
		prefix := o.envPrefix
		if err := k.Load(envprovider.Provider(prefix, ".", func(s string) string {
			// Convert PREFIX_UPPER_CASE to upper.case for koanf
			return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, prefix)), "_", ".")
		}), nil); err != nil {
			return nil, fmt.Errorf("httpretry/config: failed to load environment variables: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf(&cfg)); err != nil {
		return nil, fmt.Errorf("httpretry/config: failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("httpretry/config: invalid configuration: %w", err)
	}

	return &cfg, nil
}

// unmarshalConf splits comma-separated environment values into lists
// and parses duration strings.
func unmarshalConf(cfg *Config) koanf.UnmarshalConf {
	return koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           cfg,
			WeaklyTypedInput: true,
			TagName:          "koanf",
		},
	}
}

var validate = validator.New()

// Validate checks the log settings and that the retry settings make a
// valid retry.Config.
func Validate(cfg *Config) error {
	if err := validate.Struct(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if _, err := cfg.Retry.ToRetry(); err != nil {
		return fmt.Errorf("retry config: %w", err)
	}
	return nil
}

// ToRetry converts c into a validated retry.Config.
func (c *RetryConfig) ToRetry() (retry.Config, error) {
	jitter, err := retry.ParseJitterMode(c.Jitter)
	if err != nil {
		return retry.Config{}, err
	}
	rc := retry.Config{
		MaxAttempts:          c.MaxAttempts,
		BackoffFactor:        c.BackoffFactor,
		MaxBackoffWait:       c.MaxBackoffWait,
		RetryableMethods:     c.Methods,
		RetryableStatusCodes: c.StatusCodes,
		Jitter:               jitter,
		JitterRatio:          c.JitterRatio,
	}
	if err = rc.Validate(); err != nil {
		return retry.Config{}, err
	}
	return rc, nil
}

// Policy builds the Standard retry policy described by the retry
// settings.
func (c *Config) Policy(opts ...retry.Option) (*retry.Standard, error) {
	rc, err := c.Retry.ToRetry()
	if err != nil {
		return nil, err
	}
	return retry.New(rc, opts...)
}
