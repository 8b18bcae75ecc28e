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

// Package ratelimit provides token-bucket rate limiting middleware keyed by
// client, built on golang.org/x/time/rate.
package ratelimit

import (
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/velox-web/velox/httperror"
	"github.com/velox-web/velox/router"
)

// KeyFunc derives the rate-limit key for a request. The default keys by
// client IP.
type KeyFunc func(*router.Context) string

// New creates a per-client token-bucket rate limiter middleware.
// Defaults: 100 requests/second with a burst of 20, keyed by client IP.
//
// Requests over the limit receive 429 with a Retry-After header. Idle
// client buckets are evicted during request handling, at most once per
// cleanup interval, so the limiter's memory stays proportional to active
// clients without a background goroutine.
//
// Example:
//
//	r.Use(ratelimit.New(
//	    ratelimit.WithRequestsPerSecond(50),
//	    ratelimit.WithBurst(10),
//	))
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	lim := &limiter{
		cfg:       cfg,
		clients:   map[string]*client{},
		lastSweep: time.Now(),
	}

	return lim.handle
}

// client pairs a token bucket with its last-seen time for eviction.
type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

type limiter struct {
	cfg *config

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

func (l *limiter) handle(c *router.Context) {
	key := l.cfg.keyFunc(c)
	now := time.Now()

	l.mu.Lock()
	l.evictIdle(now)
	entry, ok := l.clients[key]
	if !ok {
		entry = &client{bucket: rate.NewLimiter(rate.Limit(l.cfg.requestsPerSecond), l.cfg.burst)}
		l.clients[key] = entry
	}
	entry.lastSeen = now
	allowed := entry.bucket.Allow()
	l.mu.Unlock()

	if !allowed {
		c.Response.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(l.cfg.requestsPerSecond)))
		c.Error(httperror.TooManyRequests("Rate limit exceeded"))

		return
	}

	c.Next()
}

// retryAfterSeconds is the whole-second wait until the bucket refills one
// token, never below 1.
func retryAfterSeconds(requestsPerSecond int) int {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}

	wait := time.Second / time.Duration(requestsPerSecond)
	secs := int(wait / time.Second)
	if secs < 1 {
		secs = 1
	}

	return secs
}

// evictIdle drops buckets idle longer than the TTL, at most once per cleanup
// interval. Sweeping inline keeps the limiter free of background goroutines;
// a fresh bucket is full, so eviction never grants extra tokens to a
// returning client. Callers must hold l.mu.
func (l *limiter) evictIdle(now time.Time) {
	if now.Sub(l.lastSweep) < l.cfg.cleanupInterval {
		return
	}
	l.lastSweep = now

	cutoff := now.Add(-l.cfg.limiterTTL)
	for key, entry := range l.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// clientIP extracts the client address, stripping the port when present.
func clientIP(c *router.Context) string {
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}

	return host
}
