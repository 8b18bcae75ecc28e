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

package router

import (
	"log/slog"
	"net/http"

	"github.com/velox-web/velox/binding"
)

// HandlerFunc is the middleware signature. Middleware receive the request
// context and decide whether and when to advance the chain by calling
// c.Next(); not calling it halts the chain there. Terminating the response
// directly (writing through c.Response) also ends processing — the
// dispatcher never writes twice.
type HandlerFunc func(*Context)

// Context is the per-request state threaded through the middleware chain.
//
// Context is NOT safe for concurrent use: it belongs to the goroutine
// handling the request. All fields are request-scoped and discarded after
// the response is sent.
type Context struct {
	Request  *http.Request
	Response *Response

	// Parsed request data, populated by the terminal dispatch step before
	// argument injection. Nil until body parsing has run.
	Query   map[string]any
	Body    map[string]any
	Cookies map[string]string
	Files   []*UploadedFile

	handlers []HandlerFunc
	index    int
	aborted  bool
	errs     []error

	params       map[string]string
	routePattern string
	logger       *slog.Logger
}

// UploadedFile aliases binding.File so middleware and handlers can reference
// uploads without importing the binding package.
type UploadedFile = binding.File

// NewContext creates a context for the given request and response with an
// unstarted chain. Primarily useful in tests; in normal operation the
// dispatcher builds contexts itself.
func NewContext(w http.ResponseWriter, r *http.Request) *Context {
	return &Context{
		Request:  r,
		Response: NewResponse(w),
		index:    -1,
		params:   map[string]string{},
	}
}

// SetHandlers replaces the context's handler chain. Useful in tests that
// drive the chain directly.
func (c *Context) SetHandlers(handlers []HandlerFunc) {
	c.handlers = handlers
	c.index = -1
}

// Next executes the next handler in the chain. Advancement is explicit: a
// handler that returns without calling Next halts the chain there, and
// handlers further down never run. The index moves monotonically, so a
// middleware calling Next more than once cannot replay the chain — the
// second call lands past the already-executed suffix and no-ops.
func (c *Context) Next() {
	c.index++
	if c.index >= len(c.handlers) {
		return
	}
	if c.aborted || c.Response.Ended() {
		return
	}
	c.handlers[c.index](c)
}

// Abort stops the chain from executing any further handlers. Handlers that
// already ran are unaffected.
func (c *Context) Abort() {
	c.aborted = true
}

// IsAborted reports whether the chain has been aborted.
func (c *Context) IsAborted() bool {
	return c.aborted
}

// Error records an error for the dispatcher to map to a response once the
// chain unwinds, and aborts the chain. Middleware use this instead of
// writing error responses by hand.
func (c *Context) Error(err error) {
	if err != nil {
		c.errs = append(c.errs, err)
		c.aborted = true
	}
}

// Err returns the first recorded error, or nil.
func (c *Context) Err() error {
	if len(c.errs) == 0 {
		return nil
	}

	return c.errs[0]
}

// Param returns the named route parameter, or "".
func (c *Context) Param(key string) string {
	return c.params[key]
}

// Params returns the route parameter map. Never nil once a route matched.
func (c *Context) Params() map[string]string {
	return c.params
}

// RoutePattern returns the matched route's full pattern, e.g. "/users/:id".
func (c *Context) RoutePattern() string {
	return c.routePattern
}

// Logger returns the request-scoped logger.
func (c *Context) Logger() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}

	return c.logger
}
