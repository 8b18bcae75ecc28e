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

// Package app assembles a Velox application: it wires the DI container,
// scans registered controllers into a route table, mounts them on a router
// and runs the HTTP server with graceful shutdown.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/velox-web/velox/config"
	"github.com/velox-web/velox/container"
	"github.com/velox-web/velox/controller"
	"github.com/velox-web/velox/middleware/metrics"
	"github.com/velox-web/velox/router"
)

// Option defines functional options for application configuration.
type Option func(*App)

// App is the application orchestrator. Construction order at boot:
// providers register into the container, controllers are scanned (which
// instantiates them through the container), and the scanned metadata mounts
// onto the router. Any failure in that sequence fails the boot; the app
// never starts partially wired.
type App struct {
	name      string
	cfg       *config.Config
	logger    *slog.Logger
	registry  *controller.Registry
	container *container.Container
	cors      *router.CORSConfig
	global    []router.HandlerFunc

	metrics     *metrics.Recorder
	metricsPath string

	router     *router.Router
	handler    http.Handler
	routeCount int
	banner     bool
}

// New creates an application with the given name.
func New(name string, opts ...Option) (*App, error) {
	a := &App{
		name:      name,
		registry:  controller.NewRegistry(),
		container: container.New(),
		banner:    true,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		a.cfg = cfg
	}
	if a.logger == nil {
		a.logger = defaultLogger(a.cfg)
	}

	return a, nil
}

// MustNew creates an application and panics on configuration errors.
func MustNew(name string, opts ...Option) *App {
	a, err := New(name, opts...)
	if err != nil {
		panic(fmt.Sprintf("app.MustNew: %v", err))
	}

	return a
}

// WithConfig supplies a pre-loaded configuration instead of loading one from
// the environment.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) { a.cfg = cfg }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithCORS sets the cross-origin policy for the router.
func WithCORS(cfg *router.CORSConfig) Option {
	return func(a *App) { a.cors = cfg }
}

// WithMiddleware appends global middleware applied to every request.
func WithMiddleware(mw ...router.HandlerFunc) Option {
	return func(a *App) { a.global = append(a.global, mw...) }
}

// WithMetrics installs the recorder's middleware on every request and serves
// its Prometheus scrape endpoint at /metrics alongside the application
// routes.
//
// Example:
//
//	a := app.MustNew("api", app.WithMetrics(metrics.New()))
func WithMetrics(rec *metrics.Recorder) Option {
	return WithMetricsAt("/metrics", rec)
}

// WithMetricsAt is WithMetrics with a custom scrape path.
func WithMetricsAt(path string, rec *metrics.Recorder) Option {
	return func(a *App) {
		if rec != nil && path != "" {
			a.metrics = rec
			a.metricsPath = path
		}
	}
}

// WithBanner toggles the startup banner (on by default, printed only in
// development mode).
func WithBanner(enabled bool) Option {
	return func(a *App) { a.banner = enabled }
}

// Container exposes the DI container for provider registration.
func (a *App) Container() *container.Container {
	return a.container
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Provide registers a value in the DI container under the given key,
// available to controller constructors and middleware references. Duplicate
// keys are a boot error.
func (a *App) Provide(key string, value any) error {
	return a.container.Register(key, value)
}

// MustProvide registers a value and panics on duplicate keys.
func (a *App) MustProvide(key string, value any) {
	a.container.MustRegister(key, value)
}

// Register adds a controller constructor under a unique name. Controllers
// are instantiated once, at boot.
func (a *App) Register(name string, ctor controller.Constructor) error {
	return a.registry.Register(name, ctor)
}

// MustRegister adds a controller constructor and panics on duplicate names.
func (a *App) MustRegister(name string, ctor controller.Constructor) {
	if err := a.registry.Register(name, ctor); err != nil {
		panic(fmt.Sprintf("app.MustRegister: %v", err))
	}
}

// boot scans controllers and mounts them. Called once from Run; separate so
// tests can boot without binding a listener.
func (a *App) boot() error {
	metas, err := controller.Scan(a.registry, a.container, controller.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("app %q: %w", a.name, err)
	}

	opts := []router.Option{
		router.WithLogger(a.logger),
		router.WithContainer(a.container),
		router.WithColoredStatus(a.cfg.Development),
	}
	if a.cors != nil {
		opts = append(opts, router.WithCORS(a.cors))
	}
	if a.cfg.BodyLimit > 0 {
		opts = append(opts, router.WithBodyLimit(a.cfg.BodyLimit))
	}

	r, err := router.New(opts...)
	if err != nil {
		return fmt.Errorf("app %q: %w", a.name, err)
	}
	if a.metrics != nil {
		r.Use(a.metrics.Middleware())
	}
	r.Use(a.global...)

	if err := r.Mount(metas...); err != nil {
		return fmt.Errorf("app %q: %w", a.name, err)
	}
	a.router = r
	a.handler = r
	if a.metrics != nil {
		// The scrape endpoint lives beside the application routes, outside
		// the middleware chain, so scrapes are never rate limited or counted.
		mux := http.NewServeMux()
		mux.Handle(a.metricsPath, a.metrics.Handler())
		mux.Handle("/", r)
		a.handler = mux
	}
	a.routeCount = 0
	for _, meta := range metas {
		a.routeCount += len(meta.Routes)
	}

	return nil
}

// defaultLogger builds a slog logger honoring the configured level. Text
// output in development, JSON otherwise.
func defaultLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Development {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
