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

package secure

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/velox-web/velox/router"
)

func run(mw router.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c := router.NewContext(w, httptest.NewRequest(http.MethodGet, "/", nil))
	c.SetHandlers([]router.HandlerFunc{mw})
	c.Next()

	return w
}

func TestSecureDefaults(t *testing.T) {
	t.Parallel()

	w := run(New())

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))
}

func TestSecureHSTS(t *testing.T) {
	t.Parallel()

	w := run(New(WithHSTS(31536000, true)))

	assert.Equal(t, "max-age=31536000; includeSubDomains",
		w.Header().Get("Strict-Transport-Security"))
}

func TestSecureCustomPolicy(t *testing.T) {
	t.Parallel()

	w := run(New(
		WithFrameOptions("SAMEORIGIN"),
		WithContentSecurityPolicy("default-src 'self'"),
	))

	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
}
