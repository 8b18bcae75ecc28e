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

package ratelimit

import "time"

// Option defines functional options for rate limiter configuration.
type Option func(*config)

type config struct {
	requestsPerSecond int
	burst             int
	cleanupInterval   time.Duration
	limiterTTL        time.Duration
	keyFunc           KeyFunc
}

func defaultConfig() *config {
	return &config{
		requestsPerSecond: 100,
		burst:             20,
		cleanupInterval:   time.Minute,
		limiterTTL:        5 * time.Minute,
		keyFunc:           clientIP,
	}
}

// WithRequestsPerSecond sets the sustained request rate per client.
func WithRequestsPerSecond(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.requestsPerSecond = n
		}
	}
}

// WithBurst sets the maximum burst size per client.
func WithBurst(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.burst = n
		}
	}
}

// WithKeyFunc sets the function that derives the rate-limit key, e.g. per
// user instead of per IP.
func WithKeyFunc(fn KeyFunc) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.keyFunc = fn
		}
	}
}

// WithCleanupInterval sets how often idle client buckets are scanned for
// eviction.
func WithCleanupInterval(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.cleanupInterval = d
		}
	}
}

// WithTTL sets how long an idle client bucket survives before eviction.
func WithTTL(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.limiterTTL = d
		}
	}
}
