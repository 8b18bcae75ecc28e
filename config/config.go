// Copyright 2025 The Velox Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads application configuration with layered precedence:
// explicit options override environment variables, which override a YAML
// file, which overrides built-in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's runtime settings. Env var names take the
// VELOX_ prefix, e.g. VELOX_PORT, VELOX_LOG_LEVEL.
type Config struct {
	// Host is the listen address; empty binds all interfaces.
	Host string `yaml:"host" envconfig:"HOST"`

	// Port is the HTTP listen port.
	Port int `yaml:"port" envconfig:"PORT" default:"8080"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL" default:"info"`

	// Development enables human-oriented output: colored status codes in
	// the access log and the startup banner.
	Development bool `yaml:"development" envconfig:"DEVELOPMENT"`

	// BodyLimit caps JSON and form bodies in bytes. Zero keeps the
	// framework default.
	BodyLimit int64 `yaml:"body_limit" envconfig:"BODY_LIMIT"`

	// ReadTimeout and WriteTimeout bound the HTTP server's per-request IO.
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Option defines functional options for configuration loading.
type Option func(*loader)

type loader struct {
	file      string
	envPrefix string
	overrides []func(*Config)
}

// WithFile loads the named YAML file as the file layer. A missing file is an
// error; use WithFileIfExists for optional files.
func WithFile(path string) Option {
	return func(l *loader) { l.file = path }
}

// WithEnvPrefix replaces the default VELOX env var prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *loader) { l.envPrefix = prefix }
}

// WithPort explicitly sets the port, overriding every other layer.
func WithPort(port int) Option {
	return func(l *loader) {
		l.overrides = append(l.overrides, func(c *Config) { c.Port = port })
	}
}

// WithDevelopment explicitly toggles development mode.
func WithDevelopment(enabled bool) Option {
	return func(l *loader) {
		l.overrides = append(l.overrides, func(c *Config) { c.Development = enabled })
	}
}

// WithOverride applies an arbitrary explicit override, the highest-precedence
// layer.
func WithOverride(fn func(*Config)) Option {
	return func(l *loader) {
		if fn != nil {
			l.overrides = append(l.overrides, fn)
		}
	}
}

// Load builds the configuration. Layers apply lowest to highest: defaults,
// YAML file, environment, explicit options.
func Load(opts ...Option) (*Config, error) {
	l := &loader{envPrefix: "VELOX"}
	for _, opt := range opts {
		opt(l)
	}

	cfg := &Config{}

	// envconfig applies struct defaults even when no env vars are set, so
	// defaults and environment resolve in one pass after the file layer is
	// read into place.
	if l.file != "" {
		raw, err := os.ReadFile(l.file)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", l.file, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", l.file, err)
		}
	}

	fileLayer := *cfg
	if err := envconfig.Process(l.envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	restoreFileValues(cfg, &fileLayer, l.envPrefix)

	for _, override := range l.overrides {
		override(cfg)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: invalid port %d", cfg.Port)
	}

	return cfg, nil
}

// MustLoad is Load that panics on error, for program entry points.
func MustLoad(opts ...Option) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config.MustLoad: %v", err))
	}

	return cfg
}

// restoreFileValues re-applies file-layer values that envconfig's struct
// defaults clobbered. An env var that is actually set still wins over the
// file; only defaults lose to it.
func restoreFileValues(cfg, file *Config, prefix string) {
	if file.Port != 0 && !envSet(prefix, "PORT") {
		cfg.Port = file.Port
	}
	if file.LogLevel != "" && !envSet(prefix, "LOG_LEVEL") {
		cfg.LogLevel = file.LogLevel
	}
	if file.ReadTimeout != 0 && !envSet(prefix, "READ_TIMEOUT") {
		cfg.ReadTimeout = file.ReadTimeout
	}
	if file.WriteTimeout != 0 && !envSet(prefix, "WRITE_TIMEOUT") {
		cfg.WriteTimeout = file.WriteTimeout
	}
	if file.ShutdownTimeout != 0 && !envSet(prefix, "SHUTDOWN_TIMEOUT") {
		cfg.ShutdownTimeout = file.ShutdownTimeout
	}
}

func envSet(prefix, key string) bool {
	_, ok := os.LookupEnv(prefix + "_" + key)

	return ok
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
