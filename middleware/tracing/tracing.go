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

// Package tracing opens an OpenTelemetry span per request. Spans are named
// after the matched route pattern and carry standard HTTP attributes.
package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/velox-web/velox/router"
)

// Option defines functional options for tracing middleware configuration.
type Option func(*config)

type config struct {
	tracerName string
	provider   trace.TracerProvider
}

func defaultConfig() *config {
	return &config{
		tracerName: "github.com/velox-web/velox",
		provider:   otel.GetTracerProvider(),
	}
}

// WithTracerName sets the instrumentation scope name.
func WithTracerName(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.tracerName = name
		}
	}
}

// WithTracerProvider uses a specific provider instead of the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		if tp != nil {
			cfg.provider = tp
		}
	}
}

// New returns middleware that wraps each request in a span. The span status
// follows the response: 5xx marks the span as an error.
//
// Example:
//
//	r.Use(tracing.New())
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	tracer := cfg.provider.Tracer(cfg.tracerName)

	return func(c *router.Context) {
		name := c.Request.Method + " " + c.RoutePattern()
		ctx, span := tracer.Start(c.Request.Context(), name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("http.route", c.RoutePattern()),
				attribute.String("url.path", c.Request.URL.Path),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Response.StatusCode()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, "")
		}
	}
}
