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

// Package metrics records per-request Prometheus metrics: a request counter
// and a latency histogram, both labeled by method, route pattern and status.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/velox-web/velox/router"
)

// Option defines functional options for metrics middleware configuration.
type Option func(*config)

type config struct {
	namespace string
	registry  *prometheus.Registry
	buckets   []float64
}

func defaultConfig() *config {
	return &config{
		namespace: "velox",
		registry:  prometheus.NewRegistry(),
		buckets:   prometheus.DefBuckets,
	}
}

// WithNamespace sets the metric namespace prefix (default "velox").
func WithNamespace(ns string) Option {
	return func(cfg *config) {
		if ns != "" {
			cfg.namespace = ns
		}
	}
}

// WithRegistry uses an existing Prometheus registry instead of a private one.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(cfg *config) {
		if reg != nil {
			cfg.registry = reg
		}
	}
}

// WithBuckets overrides the latency histogram buckets (seconds).
func WithBuckets(buckets []float64) Option {
	return func(cfg *config) {
		if len(buckets) > 0 {
			cfg.buckets = buckets
		}
	}
}

// Recorder is the metrics middleware plus its scrape handler.
type Recorder struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates the metrics recorder. Its Middleware method returns the
// per-request recording middleware, and Handler serves the scrape endpoint.
//
// Example:
//
//	rec := metrics.New()
//	r.Use(rec.Middleware())
//	mux.Handle("/metrics", rec.Handler())
func New(opts ...Option) *Recorder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	rec := &Recorder{
		registry: cfg.registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed, by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds, by method, route and status.",
			Buckets:   cfg.buckets,
		}, []string{"method", "route", "status"}),
	}
	cfg.registry.MustRegister(rec.requests, rec.duration)

	return rec
}

// Middleware returns the recording middleware. The route label is the
// matched pattern, not the raw path, to keep cardinality bounded.
func (rec *Recorder) Middleware() router.HandlerFunc {
	return func(c *router.Context) {
		start := time.Now()

		c.Next()

		route := c.RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Response.StatusCode())

		rec.requests.WithLabelValues(c.Request.Method, route, status).Inc()
		rec.duration.WithLabelValues(c.Request.Method, route, status).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus scrape endpoint for the recorder's registry.
func (rec *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(rec.registry, promhttp.HandlerOpts{})
}
