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

// Package router implements the request-dispatch pipeline: route matching
// against the scanned route table, the ordered middleware chain, parameter
// injection, content-type aware body parsing with size caps, handler
// execution and error-to-response mapping.
package router

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/velox-web/velox/binding"
	"github.com/velox-web/velox/container"
	"github.com/velox-web/velox/controller"
)

// noopLogger is the singleton no-op logger used when none is configured.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// DefaultSlowThreshold flags request completions slower than this in the
// access log.
const DefaultSlowThreshold = time.Second

// Option defines functional options for router configuration.
type Option func(*Router)

// Router matches HTTP requests against the scanned route table and executes
// the middleware chain and handler for the first matching route.
//
// Matching is linear and ordered: controllers in registration order, routes
// in priority order within each controller. The first route whose pattern
// and method both match wins; the search never continues past it.
//
// The Router is safe for concurrent use once mounted; the route table is
// immutable after boot.
type Router struct {
	controllers []*mountedController
	global      []HandlerFunc

	container     *container.Container
	cors          *CORSConfig
	logger        *slog.Logger
	slowThreshold time.Duration
	limits        binding.Limits
	colorStatus   bool
}

// mountedController pairs scanned metadata with its resolved middleware
// chains. Built once at mount time; immutable afterwards.
type mountedController struct {
	meta       *controller.Metadata
	middleware []HandlerFunc
	routes     []*mountedRoute
}

type mountedRoute struct {
	def        *controller.Route
	middleware []HandlerFunc
}

// New creates a router.
func New(opts ...Option) (*Router, error) {
	r := &Router{
		logger:        noopLogger,
		slowThreshold: DefaultSlowThreshold,
		limits:        binding.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// MustNew creates a router and panics on configuration errors.
func MustNew(opts ...Option) *Router {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("router.MustNew: %v", err))
	}

	return r
}

// WithLogger sets the logger for request completion and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCORS sets the cross-origin policy applied before routing.
func WithCORS(cfg *CORSConfig) Option {
	return func(r *Router) { r.cors = cfg }
}

// WithContainer sets the DI container middleware references resolve against.
func WithContainer(c *container.Container) Option {
	return func(r *Router) { r.container = c }
}

// WithSlowThreshold sets the duration above which request completions are
// flagged as slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(r *Router) { r.slowThreshold = d }
}

// WithBodyLimit caps JSON and form bodies in bytes.
func WithBodyLimit(n int64) Option {
	return func(r *Router) { r.limits.Body = n }
}

// WithFileLimit caps one multipart file in bytes.
func WithFileLimit(n int64) Option {
	return func(r *Router) { r.limits.File = n }
}

// WithMultipartLimit caps a whole multipart payload in bytes.
func WithMultipartLimit(n int64) Option {
	return func(r *Router) { r.limits.Multipart = n }
}

// WithColoredStatus styles status codes in the completion log for terminal
// output. Off by default; enabled by the app in development mode.
func WithColoredStatus(enabled bool) Option {
	return func(r *Router) { r.colorStatus = enabled }
}

// Use appends global middleware, which runs before controller-level and
// route-level middleware on every matched request.
func (r *Router) Use(mw ...HandlerFunc) {
	r.global = append(r.global, mw...)
}

// Mount installs scanned controller metadata into the route table, resolving
// middleware references through the DI container. Resolution failure for an
// unregistered key is a configuration error that fails the boot — never a
// silent fallback.
func (r *Router) Mount(metas ...*controller.Metadata) error {
	for _, meta := range metas {
		ctrlMW, err := r.resolveMiddleware(meta.Middleware)
		if err != nil {
			return fmt.Errorf("router: controller %q: %w", meta.Name, err)
		}

		mounted := &mountedController{meta: meta, middleware: ctrlMW}
		for _, def := range meta.Routes {
			routeMW, err := r.resolveMiddleware(def.Middleware)
			if err != nil {
				return fmt.Errorf("router: route %s %s: %w", def.Method, def.FullPath, err)
			}
			mounted.routes = append(mounted.routes, &mountedRoute{def: def, middleware: routeMW})
		}
		r.controllers = append(r.controllers, mounted)
	}

	return nil
}

// resolveMiddleware converts declared middleware entries into concrete
// HandlerFuncs. Ref entries resolve through the container exactly once,
// here at mount time.
func (r *Router) resolveMiddleware(declared []controller.Middleware) ([]HandlerFunc, error) {
	if len(declared) == 0 {
		return nil, nil
	}

	resolved := make([]HandlerFunc, 0, len(declared))
	for _, entry := range declared {
		switch mw := entry.(type) {
		case HandlerFunc:
			resolved = append(resolved, mw)
		case func(*Context):
			resolved = append(resolved, mw)
		case controller.Ref:
			if r.container == nil {
				return nil, fmt.Errorf("middleware ref %q: no container configured", string(mw))
			}
			instance, err := r.container.Resolve(string(mw))
			if err != nil {
				return nil, fmt.Errorf("middleware ref %q: %w", string(mw), err)
			}
			fn, ok := instance.(HandlerFunc)
			if !ok {
				if raw, rawOK := instance.(func(*Context)); rawOK {
					fn, ok = raw, true
				}
			}
			if !ok {
				return nil, fmt.Errorf("middleware ref %q: %T is not a router.HandlerFunc", string(mw), instance)
			}
			resolved = append(resolved, fn)
		default:
			return nil, fmt.Errorf("unsupported middleware type %T", entry)
		}
	}

	return resolved, nil
}

// findRoute walks the route table in order and returns the first route whose
// pattern and method both match. Matching never continues past the first
// structural+method hit.
func (r *Router) findRoute(method, path string) (*mountedController, *mountedRoute, map[string]string) {
	for _, ctrl := range r.controllers {
		for _, route := range ctrl.routes {
			params, ok := Match(route.def.FullPath, path)
			if !ok || route.def.Method != method {
				continue
			}

			return ctrl, route, params
		}
	}

	return nil, nil, nil
}
