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

// Package httperror defines the error taxonomy shared by the framework.
//
// Client errors (4xx) are recoverable per request: they produce a structured
// response and do not affect subsequent requests. Server errors (5xx) are
// logged with full detail while the client receives a sanitized message.
//
// Every error response has the uniform shape:
//
//	{statusCode, error?, message?, details?, timestamp}
package httperror

import (
	"fmt"
	"net/http"
)

// Error is an HTTP-mapped error carrying a status code and optional
// field-level details. It implements the HTTPStatus and Details capability
// interfaces the dispatcher uses when mapping errors to responses.
type Error struct {
	Status  int
	Message string
	Fields  map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}

	return e.Status
}

// Details returns field-level error details, or nil.
func (e *Error) Details() map[string]any { return e.Fields }

// WithDetails returns a copy of the error with field-level details attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	clone := *e
	clone.Fields = details

	return &clone
}

// Wrap returns a copy of the error wrapping cause.
func (e *Error) Wrap(cause error) *Error {
	clone := *e
	clone.Err = cause

	return &clone
}

// New creates an Error with the given status and message.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// NotFound creates a 404 error.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// PayloadTooLarge creates a 413 error.
func PayloadTooLarge(message string) *Error {
	return New(http.StatusRequestEntityTooLarge, message)
}

// TooManyRequests creates a 429 error.
func TooManyRequests(message string) *Error {
	return New(http.StatusTooManyRequests, message)
}

// Internal creates a 500 error.
func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

// StatusOf extracts an HTTP status from err. Errors exposing an
// HTTPStatus() int capability report their own status; everything else maps
// to fallback.
func StatusOf(err error, fallback int) int {
	type statuser interface{ HTTPStatus() int }
	var s statuser
	if ok := asCapability(err, &s); ok {
		return s.HTTPStatus()
	}

	return fallback
}

// DetailsOf extracts field-level details from err, or nil.
func DetailsOf(err error) map[string]any {
	type detailer interface{ Details() map[string]any }
	var d detailer
	if ok := asCapability(err, &d); ok {
		return d.Details()
	}

	return nil
}

// asCapability walks the Unwrap chain looking for a capability interface.
// Mirrors errors.As without requiring a reflect round trip for the common
// single-level case.
func asCapability[T any](err error, target *T) bool {
	for err != nil {
		if t, ok := err.(T); ok {
			*target = t
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}

	return false
}
