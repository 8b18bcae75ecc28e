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

// Package controller provides the declarative route metadata surface:
// controllers describe their routes, parameter sources, validation schemas,
// middleware and response shaping once, at construction time, and the
// scanner turns those declarations into the immutable route table the
// dispatcher matches against.
package controller

import (
	"net/http"

	"github.com/velox-web/velox/validation"
)

// Handler is the uniform route handler entry point: it receives the
// positional arguments assembled by the parameter injector and returns a
// result for the executor to serialize, or an error for the dispatcher to
// map to a response.
type Handler func(args ...any) (any, error)

// Middleware is a type alias for middleware values carried in route
// metadata. In practice entries are router.HandlerFunc values or [Ref]
// container keys; using any here avoids an import cycle with the router
// package. Entries are validated and resolved once at mount time.
type Middleware = any

// Ref names a middleware registered in the DI container. The reference is
// resolved exactly once during mounting; an unregistered key is a fatal
// configuration error.
type Ref string

// Source identifies where one handler argument is extracted from.
type Source int

// Parameter source kinds.
const (
	SourceBody Source = iota
	SourceQuery
	SourcePath
	SourceRequest
	SourceResponse
	SourceCookie
)

// String returns the source name for diagnostics.
func (s Source) String() string {
	switch s {
	case SourceBody:
		return "body"
	case SourceQuery:
		return "query"
	case SourcePath:
		return "path"
	case SourceRequest:
		return "request"
	case SourceResponse:
		return "response"
	case SourceCookie:
		return "cookie"
	default:
		return "unknown"
	}
}

// Param describes how to extract one positional handler argument from the
// request. Immutable after registration.
type Param struct {
	// Index is the argument position, assigned in declaration order.
	Index int

	// Source selects the container the value comes from.
	Source Source

	// Key optionally extracts a single named field from the source
	// container. Empty means the whole container is passed.
	Key string
}

// Route is one declared route: method, path pattern, handler and its
// response/parameter metadata. Created at registration time and immutable
// after the scanner has computed FullPath.
type Route struct {
	// Method is the HTTP method this route answers to.
	Method string

	// Path is the declared pattern relative to the controller base path,
	// e.g. "/users/:id" or "/files/:name([a-z]+)".
	Path string

	// FullPath is base path + Path, normalized. Computed by the scanner.
	FullPath string

	// Name identifies the handler in diagnostics and the startup listing.
	Name string

	// Priority orders routes within a controller: lower values match
	// first, ties broken by declaration order.
	Priority int

	// Params are the declared parameter descriptors in positional order.
	// Empty means the auto-merge fallback applies.
	Params []Param

	// Handler is the invocation entry point built at registration time.
	Handler Handler

	// Status is the response status used when the handler returns a value
	// without writing the response itself. Zero means 200.
	Status int

	// Headers are static response headers applied before serialization.
	Headers map[string]string

	// Middleware is the route-level middleware list.
	Middleware []Middleware

	// Schema optionally validates (and coerces) the parsed body before
	// the handler runs.
	Schema *validation.Schema
}

// RouteOption configures a route at declaration time.
type RouteOption func(*Route)

// GET declares a GET route.
func GET(path, name string, h Handler, opts ...RouteOption) *Route {
	return newRoute(http.MethodGet, path, name, h, opts)
}

// POST declares a POST route.
func POST(path, name string, h Handler, opts ...RouteOption) *Route {
	return newRoute(http.MethodPost, path, name, h, opts)
}

// PUT declares a PUT route.
func PUT(path, name string, h Handler, opts ...RouteOption) *Route {
	return newRoute(http.MethodPut, path, name, h, opts)
}

// PATCH declares a PATCH route.
func PATCH(path, name string, h Handler, opts ...RouteOption) *Route {
	return newRoute(http.MethodPatch, path, name, h, opts)
}

// DELETE declares a DELETE route.
func DELETE(path, name string, h Handler, opts ...RouteOption) *Route {
	return newRoute(http.MethodDelete, path, name, h, opts)
}

// HEAD declares a HEAD route.
func HEAD(path, name string, h Handler, opts ...RouteOption) *Route {
	return newRoute(http.MethodHead, path, name, h, opts)
}

func newRoute(method, path, name string, h Handler, opts []RouteOption) *Route {
	r := &Route{
		Method:  method,
		Path:    path,
		Name:    name,
		Handler: h,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// WithPriority sets the route priority. Lower values match first; the
// default is 0 with declaration order as the tiebreak.
func WithPriority(p int) RouteOption {
	return func(r *Route) { r.Priority = p }
}

// WithStatus sets the response status used when the handler returns a value.
func WithStatus(code int) RouteOption {
	return func(r *Route) { r.Status = code }
}

// WithHeader adds a static response header applied before serialization.
func WithHeader(key, value string) RouteOption {
	return func(r *Route) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithMiddleware appends route-level middleware. Entries may be
// router.HandlerFunc values or [Ref] container keys.
func WithMiddleware(mw ...Middleware) RouteOption {
	return func(r *Route) { r.Middleware = append(r.Middleware, mw...) }
}

// WithSchema declares a validation schema for the parsed request body.
func WithSchema(s *validation.Schema) RouteOption {
	return func(r *Route) { r.Schema = s }
}

// Body declares a positional argument carrying the whole parsed body map.
func Body() RouteOption { return param(SourceBody, "") }

// BodyField declares a positional argument carrying one body field.
func BodyField(key string) RouteOption { return param(SourceBody, key) }

// Query declares a positional argument carrying the whole query map.
func Query() RouteOption { return param(SourceQuery, "") }

// QueryField declares a positional argument carrying one query parameter.
func QueryField(key string) RouteOption { return param(SourceQuery, key) }

// PathParam declares a positional argument carrying one route parameter.
func PathParam(key string) RouteOption { return param(SourcePath, key) }

// PathParams declares a positional argument carrying the whole route
// parameter map.
func PathParams() RouteOption { return param(SourcePath, "") }

// Request declares a positional argument carrying the raw *http.Request.
func Request() RouteOption { return param(SourceRequest, "") }

// Response declares a positional argument carrying the fluent response
// writer. Handlers receiving it may terminate the response themselves.
func Response() RouteOption { return param(SourceResponse, "") }

// Cookies declares a positional argument carrying the whole cookie map.
func Cookies() RouteOption { return param(SourceCookie, "") }

// CookieField declares a positional argument carrying one cookie value.
func CookieField(key string) RouteOption { return param(SourceCookie, key) }

func param(src Source, key string) RouteOption {
	return func(r *Route) {
		r.Params = append(r.Params, Param{Index: len(r.Params), Source: src, Key: key})
	}
}
