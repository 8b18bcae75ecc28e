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

package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/velox-web/velox/container"
)

// ErrNoControllers is returned when the registry holds no controllers.
// Starting a server with an empty route table is a configuration error,
// not a degraded mode.
var ErrNoControllers = errors.New("controller: no controllers registered")

// Metadata is the scanned, immutable description of one controller: the
// singleton instance, its normalized base path and its routes sorted by
// priority. One Metadata per registered controller, living for the process
// lifetime.
type Metadata struct {
	Name       string
	Instance   Controller
	BasePath   string
	Routes     []*Route
	Middleware []Middleware
}

// ScanOption configures the scanner.
type ScanOption func(*scanConfig)

type scanConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for the one-time startup route listing.
func WithLogger(l *slog.Logger) ScanOption {
	return func(c *scanConfig) { c.logger = l }
}

// Scan builds the route table: it instantiates every registered controller
// once, resolves base paths, sorts routes by priority (stable — declaration
// order breaks ties) and computes each route's full path. Run once at boot.
//
// Returns ErrNoControllers when the registry is empty: the boot sequence
// must fail rather than start a server with no routes.
func Scan(reg *Registry, c *container.Container, opts ...ScanOption) ([]*Metadata, error) {
	cfg := &scanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	registrations := reg.snapshot()
	if len(registrations) == 0 {
		return nil, ErrNoControllers
	}

	metas := make([]*Metadata, 0, len(registrations))
	for _, registration := range registrations {
		instance, err := registration.ctor(c)
		if err != nil {
			return nil, fmt.Errorf("controller: constructing %q: %w", registration.name, err)
		}

		base := instance.BasePath()
		if base == "" {
			base = "/"
		}

		declared := instance.Routes()
		routes := make([]*Route, len(declared))
		copy(routes, declared)
		sort.SliceStable(routes, func(i, j int) bool {
			return routes[i].Priority < routes[j].Priority
		})

		for _, route := range routes {
			if route.Handler == nil {
				return nil, fmt.Errorf("controller: %q route %s %s has no handler",
					registration.name, route.Method, route.Path)
			}
			route.FullPath = JoinPath(base, route.Path)
		}

		meta := &Metadata{
			Name:     registration.name,
			Instance: instance,
			BasePath: base,
			Routes:   routes,
		}
		if provider, ok := instance.(MiddlewareProvider); ok {
			meta.Middleware = provider.Middleware()
		}
		metas = append(metas, meta)
	}

	if cfg.logger != nil {
		logRouteTable(cfg.logger, metas)
	}

	return metas, nil
}

// logRouteTable emits the one-time startup listing of controllers and
// routes. Diagnostic only.
func logRouteTable(logger *slog.Logger, metas []*Metadata) {
	for _, meta := range metas {
		logger.Info("controller mounted",
			"controller", meta.Name,
			"base_path", meta.BasePath,
			"routes", len(meta.Routes),
		)
		for _, route := range meta.Routes {
			logger.Info("route registered",
				"controller", meta.Name,
				"method", route.Method,
				"path", route.FullPath,
				"handler", route.Name,
				"priority", route.Priority,
			)
		}
	}
}

// JoinPath concatenates a base path and a route path, collapsing the doubled
// slash at the seam and stripping a single trailing slash. The root path
// normalizes to "/".
func JoinPath(base, path string) string {
	joined := base
	if !strings.HasPrefix(path, "/") && path != "" {
		joined += "/"
	}
	joined += path

	// Collapse the doubled slash produced by base "/x/" + path "/y".
	joined = strings.ReplaceAll(joined, "//", "/")

	if len(joined) > 1 {
		joined = strings.TrimSuffix(joined, "/")
	}
	if joined == "" {
		joined = "/"
	}

	return joined
}
