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
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrResponseEnded is returned by terminal writes after the response has
// already been ended.
var ErrResponseEnded = errors.New("router: response already ended")

// ErrNotHijackable is returned when the underlying writer cannot hijack the
// connection.
var ErrNotHijackable = errors.New("router: response writer does not support hijacking")

// Response wraps http.ResponseWriter with the fluent status/json/send/cookie
// surface handlers and middleware write through. Exactly one terminal write
// happens per request: status code first, then body serialization, then the
// stream ends. Subsequent terminal writes are rejected, and the Ended guard
// suppresses error-path writes after a middleware has already answered.
type Response struct {
	http.ResponseWriter

	status      int
	size        int64
	wroteHeader bool
	ended       bool
}

// NewResponse wraps w.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{ResponseWriter: w}
}

// Status sets the status code for the next terminal write and returns the
// response for chaining.
func (res *Response) Status(code int) *Response {
	if !res.wroteHeader {
		res.status = code
	}

	return res
}

// StatusCode returns the status code written (or staged), defaulting to 200.
func (res *Response) StatusCode() int {
	if res.status == 0 {
		return http.StatusOK
	}

	return res.status
}

// Size returns the number of body bytes written.
func (res *Response) Size() int64 {
	return res.size
}

// Ended reports whether a terminal write has happened. Checked before every
// error-path write.
func (res *Response) Ended() bool {
	return res.ended
}

// SetCookie adds a Set-Cookie header. Must be called before the terminal
// write.
func (res *Response) SetCookie(cookie *http.Cookie) {
	if !res.wroteHeader {
		http.SetCookie(res.ResponseWriter, cookie)
	}
}

// JSON serializes v as the response body with application/json and ends the
// response.
func (res *Response) JSON(v any) error {
	if res.ended {
		return ErrResponseEnded
	}

	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("router: encoding JSON response: %w", err)
	}

	res.Header().Set("Content-Type", "application/json; charset=utf-8")
	res.WriteHeader(res.StatusCode())
	_, err = res.Write(body)
	res.ended = true

	return err
}

// Send writes a raw body and ends the response. Accepts string or []byte;
// anything else is coerced via fmt.Sprint.
func (res *Response) Send(body any) error {
	if res.ended {
		return ErrResponseEnded
	}

	var raw []byte
	switch b := body.(type) {
	case nil:
		raw = nil
	case []byte:
		raw = b
	case string:
		raw = []byte(b)
	default:
		raw = fmt.Appendf(nil, "%v", b)
	}

	res.WriteHeader(res.StatusCode())
	_, err := res.Write(raw)
	res.ended = true

	return err
}

// NoContent writes an empty response with the given status and ends it.
func (res *Response) NoContent(code int) {
	if res.ended {
		return
	}
	res.status = code
	res.WriteHeader(code)
	res.ended = true
}

// WriteHeader records the status code and suppresses duplicate calls.
func (res *Response) WriteHeader(code int) {
	if res.wroteHeader {
		return
	}
	res.status = code
	res.wroteHeader = true
	res.ResponseWriter.WriteHeader(code)
}

// Write sends body bytes, defaulting the status to the staged code. Writing
// directly marks the response as ended: a middleware that answers a request
// this way suppresses all later writes for it.
func (res *Response) Write(b []byte) (int, error) {
	if !res.wroteHeader {
		res.WriteHeader(res.StatusCode())
	}
	n, err := res.ResponseWriter.Write(b)
	res.size += int64(n)
	res.ended = true

	return n, err
}

// Hijack exposes the underlying connection when supported. Used for hard
// aborts on body-cap violations.
func (res *Response) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := res.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}

	return nil, nil, ErrNotHijackable
}

// Flush implements http.Flusher when the underlying writer does.
func (res *Response) Flush() {
	if flusher, ok := res.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
