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
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerbConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		route *Route
		want  string
	}{
		{"GET", GET("/x", "x", okHandler), http.MethodGet},
		{"POST", POST("/x", "x", okHandler), http.MethodPost},
		{"PUT", PUT("/x", "x", okHandler), http.MethodPut},
		{"PATCH", PATCH("/x", "x", okHandler), http.MethodPatch},
		{"DELETE", DELETE("/x", "x", okHandler), http.MethodDelete},
		{"HEAD", HEAD("/x", "x", okHandler), http.MethodHead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.route.Method)
			assert.Equal(t, "/x", tt.route.Path)
			assert.Equal(t, "x", tt.route.Name)
		})
	}
}

func TestParamOptionsAssignPositions(t *testing.T) {
	t.Parallel()

	r := POST("/:id", "update", okHandler,
		PathParam("id"),
		Body(),
		QueryField("verbose"),
		Request(),
		Response(),
		CookieField("session"),
	)

	require.Len(t, r.Params, 6)

	assert.Equal(t, Param{Index: 0, Source: SourcePath, Key: "id"}, r.Params[0])
	assert.Equal(t, Param{Index: 1, Source: SourceBody, Key: ""}, r.Params[1])
	assert.Equal(t, Param{Index: 2, Source: SourceQuery, Key: "verbose"}, r.Params[2])
	assert.Equal(t, Param{Index: 3, Source: SourceRequest, Key: ""}, r.Params[3])
	assert.Equal(t, Param{Index: 4, Source: SourceResponse, Key: ""}, r.Params[4])
	assert.Equal(t, Param{Index: 5, Source: SourceCookie, Key: "session"}, r.Params[5])
}

func TestRouteOptions(t *testing.T) {
	t.Parallel()

	r := GET("/csv", "export", okHandler,
		WithPriority(5),
		WithStatus(http.StatusAccepted),
		WithHeader("Content-Disposition", "attachment"),
		WithHeader("X-Export", "v1"),
	)

	assert.Equal(t, 5, r.Priority)
	assert.Equal(t, http.StatusAccepted, r.Status)
	assert.Equal(t, map[string]string{
		"Content-Disposition": "attachment",
		"X-Export":            "v1",
	}, r.Headers)
}

func TestWithMiddlewareAccumulates(t *testing.T) {
	t.Parallel()

	r := GET("/x", "x", okHandler,
		WithMiddleware(Ref("auth")),
		WithMiddleware(Ref("audit"), Ref("throttle")),
	)

	require.Len(t, r.Middleware, 3)
	assert.Equal(t, Ref("auth"), r.Middleware[0])
}

func TestSourceString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "body", SourceBody.String())
	assert.Equal(t, "query", SourceQuery.String())
	assert.Equal(t, "path", SourcePath.String())
	assert.Equal(t, "request", SourceRequest.String())
	assert.Equal(t, "response", SourceResponse.String())
	assert.Equal(t, "cookie", SourceCookie.String())
}
