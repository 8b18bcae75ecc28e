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

// Package requestid attaches a unique request ID to every request for log
// correlation and tracing.
package requestid

import (
	"context"

	"github.com/google/uuid"

	"github.com/velox-web/velox/router"
)

// contextKey keys the request ID in the request context, so lookups work
// whatever header name the middleware was configured with.
type contextKey struct{}

// Option defines functional options for requestid middleware configuration.
type Option func(*config)

type config struct {
	headerName    string
	generator     func() string
	allowClientID bool
}

func defaultConfig() *config {
	return &config{
		headerName:    "X-Request-Id",
		generator:     func() string { return uuid.NewString() },
		allowClientID: true,
	}
}

// WithHeader sets the header name the ID is read from and written to.
func WithHeader(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.headerName = name
		}
	}
}

// WithGenerator replaces the default UUIDv4 generator.
func WithGenerator(fn func() string) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.generator = fn
		}
	}
}

// WithAllowClientID controls whether an ID already present on the request is
// trusted and echoed back, or always regenerated.
func WithAllowClientID(allow bool) Option {
	return func(cfg *config) { cfg.allowClientID = allow }
}

// New returns middleware that ensures every request carries an ID in the
// configured header (default X-Request-Id). An incoming client ID is reused
// when allowed; otherwise a fresh UUIDv4 is generated. The ID is always set
// on the response.
//
// Example:
//
//	r.Use(requestid.New())
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context) {
		id := ""
		if cfg.allowClientID {
			id = c.Request.Header.Get(cfg.headerName)
		}
		if id == "" {
			id = cfg.generator()
		}

		c.Request.Header.Set(cfg.headerName, id)
		c.Response.Header().Set(cfg.headerName, id)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), contextKey{}, id))

		c.Next()
	}
}

// FromContext returns the request ID carried by the request, or "" when the
// middleware did not run.
func FromContext(c *router.Context) string {
	id, _ := c.Request.Context().Value(contextKey{}).(string)

	return id
}
