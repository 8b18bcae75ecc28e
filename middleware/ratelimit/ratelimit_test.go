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

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/velox-web/velox/httperror"
	"github.com/velox-web/velox/router"
)

func runOnce(mw router.HandlerFunc, remoteAddr string) *router.Context {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr

	c := router.NewContext(httptest.NewRecorder(), req)
	c.SetHandlers([]router.HandlerFunc{mw})
	c.Next()

	return c
}

func TestRateLimitAllowsWithinBurst(t *testing.T) {
	t.Parallel()

	mw := New(WithRequestsPerSecond(1), WithBurst(3))

	for range 3 {
		c := runOnce(mw, "10.0.0.1:1234")
		assert.NoError(t, c.Err())
	}
}

func TestRateLimitRejectsOverBurst(t *testing.T) {
	t.Parallel()

	mw := New(WithRequestsPerSecond(1), WithBurst(2))

	runOnce(mw, "10.0.0.2:1234")
	runOnce(mw, "10.0.0.2:1234")
	c := runOnce(mw, "10.0.0.2:1234")

	err := c.Err()
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, httperror.StatusOf(err, 0))
	// At 1 request/second the client should come back after one second,
	// expressed in whole seconds as the header requires.
	assert.Equal(t, "1", c.Response.Header().Get("Retry-After"))
}

func TestRetryAfterWholeSeconds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, retryAfterSeconds(1))
	assert.Equal(t, 1, retryAfterSeconds(100))
	assert.Equal(t, 1, retryAfterSeconds(0))
}

func TestRateLimitEvictsIdleClients(t *testing.T) {
	t.Parallel()

	lim := &limiter{
		cfg:     defaultConfig(),
		clients: map[string]*client{},
		// An old sweep mark so the next request triggers eviction.
		lastSweep: time.Now().Add(-2 * time.Minute),
	}
	lim.clients["stale"] = &client{
		bucket:   rate.NewLimiter(rate.Limit(1), 1),
		lastSeen: time.Now().Add(-10 * time.Minute),
	}

	c := runOnce(lim.handle, "10.0.0.5:1234")
	require.NoError(t, c.Err())

	lim.mu.Lock()
	defer lim.mu.Unlock()
	assert.NotContains(t, lim.clients, "stale")
	assert.Contains(t, lim.clients, "10.0.0.5")
}

func TestRateLimitKeysByClient(t *testing.T) {
	t.Parallel()

	mw := New(WithRequestsPerSecond(1), WithBurst(1))

	// Exhaust one client's bucket.
	runOnce(mw, "10.0.0.3:1111")
	blocked := runOnce(mw, "10.0.0.3:2222") // same IP, different port
	other := runOnce(mw, "10.0.0.4:1111")

	assert.Error(t, blocked.Err())
	assert.NoError(t, other.Err())
}

func TestRateLimitCustomKeyFunc(t *testing.T) {
	t.Parallel()

	mw := New(
		WithRequestsPerSecond(1),
		WithBurst(1),
		WithKeyFunc(func(c *router.Context) string {
			return c.Request.Header.Get("X-API-Key")
		}),
	)

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.Header.Set("X-API-Key", "team-a")
	c1 := router.NewContext(httptest.NewRecorder(), first)
	c1.SetHandlers([]router.HandlerFunc{mw})
	c1.Next()
	require.NoError(t, c1.Err())

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.Header.Set("X-API-Key", "team-a")
	c2 := router.NewContext(httptest.NewRecorder(), second)
	c2.SetHandlers([]router.HandlerFunc{mw})
	c2.Next()
	assert.Error(t, c2.Err())
}
