// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package cli implements the httpretry command line.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"

	"github.com/gogama/httpretry"
	"github.com/gogama/httpretry/config"
	"github.com/gogama/httpretry/logging"
	"github.com/gogama/httpretry/otelretry"
)

// Options holds the flags shared by every request command.
type Options struct {
	ConfigFile  string
	EnvFile     string
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
	HTTP2       bool
	LogLevel    string
	Pretty      bool
	Timeout     time.Duration
	Headers     []string
	Include     bool
}

// NewRootCommand creates the httpretry root command with its request
// subcommands.
func NewRootCommand(version string) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "httpretry",
		Short: "Send HTTP requests with automatic retries",
		Long: `Sends one HTTP request through a retrying transport and prints the response.

Throttled and temporarily failing requests (429, 502, 503 and 504 by default)
are retried with exponential backoff, honoring any Retry-After header. Retry
settings come from a YAML file, HTTPRETRY_ environment variables (which may be
placed in a .env file) and flags, with flags taking precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&opts.ConfigFile, "config", "c", "", "YAML configuration file")
	f.StringVar(&opts.EnvFile, "env-file", ".env", "Environment file to load if present")
	f.IntVar(&opts.MaxAttempts, "max-attempts", 0, "Maximum number of retries")
	f.DurationVar(&opts.Backoff, "backoff", 0, "Base backoff wait")
	f.DurationVar(&opts.MaxBackoff, "max-backoff", 0, "Maximum backoff wait")
	f.BoolVar(&opts.HTTP2, "http2", false, "Enable HTTP/2 on the underlying transport")
	f.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	f.BoolVar(&opts.Pretty, "pretty", false, "Human readable log output")
	f.DurationVar(&opts.Timeout, "timeout", 0, "Overall timeout including retries (0 for none)")
	f.StringArrayVarP(&opts.Headers, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	f.BoolVarP(&opts.Include, "include", "i", false, "Print response headers")

	cmd.AddCommand(
		newGetCommand(opts),
		newHeadCommand(opts),
		newDoCommand(opts),
	)

	return cmd
}

// loadConfig loads the configuration and applies the flags the user
// set explicitly.
func loadConfig(cmd *cobra.Command, opts *Options) (*config.Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", opts.EnvFile, err)
		}
	}

	var loadOpts []config.Option
	if opts.ConfigFile != "" {
		loadOpts = append(loadOpts, config.WithFile(opts.ConfigFile))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("max-attempts") {
		cfg.Retry.MaxAttempts = opts.MaxAttempts
	}
	if flags.Changed("backoff") {
		cfg.Retry.BackoffFactor = opts.Backoff
	}
	if flags.Changed("max-backoff") {
		cfg.Retry.MaxBackoffWait = opts.MaxBackoff
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.LogLevel
	}
	if flags.Changed("pretty") {
		cfg.Log.Pretty = opts.Pretty
	}
	if err = config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// newClient builds the retrying client, logging retries to stderr.
func newClient(cmd *cobra.Command, opts *Options) (*http.Client, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	p, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Pretty, cmd.ErrOrStderr())
	handlers := &httpretry.HandlerGroup{}
	logging.Install(handlers, logger)
	if err = otelretry.Install(handlers); err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	inner := http.DefaultTransport.(*http.Transport).Clone()
	if opts.HTTP2 {
		if err = http2.ConfigureTransport(inner); err != nil {
			return nil, fmt.Errorf("failed to enable HTTP/2: %w", err)
		}
	}

	return &http.Client{
		Transport: &httpretry.ContextTransport{
			Inner:    inner,
			Policy:   p,
			Handlers: handlers,
		},
		Timeout: opts.Timeout,
	}, nil
}
