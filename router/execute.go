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
	"encoding/json"
	"log/slog"
	"net/http"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/velox-web/velox/controller"
	"github.com/velox-web/velox/httperror"
)

// executeRoute invokes the matched handler with the assembled arguments and
// serializes its result.
//
// A handler that already ended the response (through an injected Response
// argument) wins: the executor does nothing further. Otherwise static route
// headers are applied, the declared status resolves (default 200), and the
// result is serialized — structured values as JSON, everything else coerced
// to a string body.
func executeRoute(def *controller.Route, args []any, res *Response) error {
	result, err := def.Handler(args...)
	if err != nil {
		return err
	}

	if res.Ended() {
		return nil
	}

	for key, value := range def.Headers {
		res.Header().Set(key, value)
	}

	status := def.Status
	if status == 0 {
		status = http.StatusOK
	}
	res.Status(status)

	if isStructured(result) {
		return res.JSON(result)
	}

	return res.Send(result)
}

// isStructured reports whether a handler result should be JSON-encoded.
// Maps, structs, slices and pointers to them are structured; strings, byte
// slices and other scalars are sent raw.
func isStructured(v any) bool {
	switch v.(type) {
	case nil, string, []byte:
		return false
	}

	kind := reflect.TypeOf(v).Kind()
	if kind == reflect.Pointer {
		kind = reflect.TypeOf(v).Elem().Kind()
	}

	switch kind {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

// HandleError maps an error to the uniform response shape
// {statusCode, error?, message?, details?, timestamp}. A response that has
// already ended suppresses the write entirely.
//
// The status comes from the error's own HTTP status when it carries one,
// else defaultStatus. A message that is itself a JSON-encoded object is
// merged into the body, which lets structured errors travel as plain error
// values. Internal (5xx) errors log the full detail at debug level; the
// client sees only a sanitized message.
func HandleError(err error, res *Response, defaultStatus int, logger *slog.Logger) {
	if res.Ended() {
		return
	}
	if logger == nil {
		logger = noopLogger
	}

	status := httperror.StatusOf(err, defaultStatus)

	message := err.Error()
	if status >= 500 {
		logger.Debug("internal error",
			"error", message,
			"stack", string(debug.Stack()),
		)
		message = "Internal server error"
	}

	body := map[string]any{}
	var payload map[string]any
	if json.Unmarshal([]byte(message), &payload) == nil && len(payload) > 0 {
		for k, v := range payload {
			body[k] = v
		}
	} else {
		body["message"] = message
	}

	if details := httperror.DetailsOf(err); details != nil {
		body["details"] = details
	}

	// statusCode and timestamp are always present, even when a merged
	// payload carried its own.
	body["statusCode"] = status
	body["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	_ = res.Status(status).JSON(body)
}

// Handle404 writes the fixed route-not-found response.
func Handle404(res *Response) {
	_ = res.Status(http.StatusNotFound).JSON(map[string]any{
		"statusCode": http.StatusNotFound,
		"error":      "Route not found",
	})
}
