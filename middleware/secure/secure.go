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

// Package secure sets common security response headers.
package secure

import (
	"strconv"

	"github.com/velox-web/velox/router"
)

// Option defines functional options for secure middleware configuration.
type Option func(*config)

type config struct {
	contentTypeNosniff    string
	frameOptions          string
	xssProtection         string
	referrerPolicy        string
	contentSecurityPolicy string
	hstsMaxAge            int
	hstsIncludeSubdomains bool
}

func defaultConfig() *config {
	return &config{
		contentTypeNosniff: "nosniff",
		frameOptions:       "DENY",
		xssProtection:      "1; mode=block",
		referrerPolicy:     "strict-origin-when-cross-origin",
	}
}

// WithFrameOptions sets the X-Frame-Options value (default DENY).
func WithFrameOptions(value string) Option {
	return func(cfg *config) { cfg.frameOptions = value }
}

// WithReferrerPolicy sets the Referrer-Policy value.
func WithReferrerPolicy(value string) Option {
	return func(cfg *config) { cfg.referrerPolicy = value }
}

// WithContentSecurityPolicy sets the Content-Security-Policy header. Empty
// by default; policies are application-specific.
func WithContentSecurityPolicy(policy string) Option {
	return func(cfg *config) { cfg.contentSecurityPolicy = policy }
}

// WithHSTS enables Strict-Transport-Security with the given max-age in
// seconds.
func WithHSTS(maxAge int, includeSubdomains bool) Option {
	return func(cfg *config) {
		cfg.hstsMaxAge = maxAge
		cfg.hstsIncludeSubdomains = includeSubdomains
	}
}

// New returns middleware that sets security headers on every response.
//
// Example:
//
//	r.Use(secure.New(secure.WithHSTS(31536000, true)))
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	hsts := ""
	if cfg.hstsMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(cfg.hstsMaxAge)
		if cfg.hstsIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
	}

	return func(c *router.Context) {
		header := c.Response.Header()

		if cfg.contentTypeNosniff != "" {
			header.Set("X-Content-Type-Options", cfg.contentTypeNosniff)
		}
		if cfg.frameOptions != "" {
			header.Set("X-Frame-Options", cfg.frameOptions)
		}
		if cfg.xssProtection != "" {
			header.Set("X-XSS-Protection", cfg.xssProtection)
		}
		if cfg.referrerPolicy != "" {
			header.Set("Referrer-Policy", cfg.referrerPolicy)
		}
		if cfg.contentSecurityPolicy != "" {
			header.Set("Content-Security-Policy", cfg.contentSecurityPolicy)
		}
		if hsts != "" {
			header.Set("Strict-Transport-Security", hsts)
		}

		c.Next()
	}
}
