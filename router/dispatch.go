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
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/velox-web/velox/binding"
)

// Status color styles for the completion log, used only when colored output
// is enabled.
var (
	statusStyle2xx = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statusStyle3xx = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	statusStyle4xx = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	statusStyle5xx = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// ServeHTTP is the per-request orchestrator. The request moves through CORS
// application, preflight short-circuit, route search, the middleware chain,
// body parsing and validation, argument injection and handler execution;
// failures from any stage after route search funnel into a single
// error-to-response mapping step.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	res := NewResponse(w)
	start := time.Now()

	defer func() {
		if recovered := recover(); recovered != nil {
			// Hard aborts ride the net/http abort mechanism untouched.
			if err, ok := recovered.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(recovered)
			}
			r.logger.Debug("panic during request handling",
				"method", req.Method,
				"path", req.URL.Path,
				"panic", fmt.Sprintf("%v", recovered),
				"stack", string(debug.Stack()),
			)
			HandleError(errors.New("internal server error"), res, http.StatusInternalServerError, r.logger)
		}
		r.logCompletion(req, res, time.Since(start))
	}()

	if r.cors != nil {
		r.cors.apply(req, res)
	}
	// Preflight short-circuits before routing: no route search, no
	// middleware, no body parsing.
	if req.Method == http.MethodOptions {
		res.NoContent(http.StatusNoContent)
		return
	}

	path := normalizePath(req.URL.Path)

	ctrl, route, params := r.findRoute(req.Method, path)
	if route == nil {
		Handle404(res)
		return
	}

	c := &Context{
		Request:      req,
		Response:     res,
		index:        -1,
		params:       params,
		routePattern: route.def.FullPath,
		logger:       r.logger,
	}

	chain := make([]HandlerFunc, 0, len(r.global)+len(ctrl.middleware)+len(route.middleware)+1)
	chain = append(chain, r.global...)
	chain = append(chain, ctrl.middleware...)
	chain = append(chain, route.middleware...)
	chain = append(chain, r.terminal(route))
	c.handlers = chain

	c.Next()

	if err := c.Err(); err != nil {
		r.fail(c, err)
	}
}

// terminal is the chain's final action: parse query, cookies and body,
// validate against the declared schema, assemble arguments and execute the
// handler. Reached only if every middleware called Next.
func (r *Router) terminal(route *mountedRoute) HandlerFunc {
	return func(c *Context) {
		c.Query = binding.ParseQuery(c.Request.URL.Query())
		c.Cookies = binding.ParseCookies(c.Request)

		if bodyBearing(c.Request.Method) {
			fields, files, err := binding.ParseBody(c.Request, r.limits)
			if err != nil {
				c.Error(err)
				return
			}
			c.Body = fields
			c.Files = files
		} else {
			c.Body = map[string]any{}
		}

		if schema := route.def.Schema; schema != nil {
			coerced, err := schema.Apply(c.Body)
			if err != nil {
				c.Error(err)
				return
			}
			c.Body = coerced
		}

		args := buildArguments(route.def.Params, c)
		if err := executeRoute(route.def, args, c.Response); err != nil {
			c.Error(err)
		}
	}
}

// bodyBearing reports whether the method carries a request body worth
// parsing.
func bodyBearing(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// fail maps a recorded pipeline error to a response. Hard body-cap
// violations destroy the connection instead of completing an HTTP
// transaction; buffering further for a polite 413 would defeat the
// protection.
func (r *Router) fail(c *Context, err error) {
	if errors.Is(err, binding.ErrBodyTooLarge) || errors.Is(err, binding.ErrUploadTooLarge) {
		r.logger.Warn("destroying connection: body size cap exceeded",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err.Error(),
		)
		destroyConnection(c.Response)
		return
	}

	HandleError(err, c.Response, http.StatusInternalServerError, r.logger)
}

// destroyConnection forcibly closes the client connection. When the writer
// cannot be hijacked (HTTP/2, test recorders) it falls back to the net/http
// abort panic, which also tears the stream down without a response.
func destroyConnection(res *Response) {
	conn, _, err := res.Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	_ = conn.Close()
	res.ended = true
}

// logCompletion emits the request completion line with method, path, status
// and duration; durations above the slow threshold are flagged.
func (r *Router) logCompletion(req *http.Request, res *Response, duration time.Duration) {
	slow := r.slowThreshold > 0 && duration >= r.slowThreshold

	fields := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"status", r.statusLabel(res.StatusCode()),
		"duration_ms", duration.Milliseconds(),
		"bytes_sent", res.Size(),
	}
	if slow {
		fields = append(fields, "slow", true)
	}

	switch {
	case res.StatusCode() >= 500:
		r.logger.Error("request completed", fields...)
	case res.StatusCode() >= 400 || slow:
		r.logger.Warn("request completed", fields...)
	default:
		r.logger.Info("request completed", fields...)
	}
}

// statusLabel renders the status code, styled for terminals when colored
// output is enabled.
func (r *Router) statusLabel(status int) any {
	if !r.colorStatus {
		return status
	}

	label := fmt.Sprintf("%d", status)
	switch {
	case status >= 500:
		return statusStyle5xx.Render(label)
	case status >= 400:
		return statusStyle4xx.Render(label)
	case status >= 300:
		return statusStyle3xx.Render(label)
	default:
		return statusStyle2xx.Render(label)
	}
}
