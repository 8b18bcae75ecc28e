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

package binding

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/velox-web/velox/httperror"
)

// Content types the body parser understands. Anything else on a
// body-bearing request falls back to JSON, matching the default branch.
const (
	ContentTypeJSON      = "application/json"
	ContentTypeForm      = "application/x-www-form-urlencoded"
	ContentTypeMultipart = "multipart/form-data"
)

// ParseBody decodes the request body according to its Content-Type into a
// normalized field map, plus uploaded files for multipart payloads.
//
// A request without a body yields an empty map. Hard cap violations surface
// as [ErrBodyTooLarge] or [ErrUploadTooLarge]; everything else that goes
// wrong is a soft *httperror the dispatcher turns into a 4xx response.
func ParseBody(r *http.Request, limits Limits) (map[string]any, []*File, error) {
	if r.Body == nil || r.ContentLength == 0 && r.Header.Get("Transfer-Encoding") == "" && r.Header.Get("Content-Type") == "" {
		return map[string]any{}, nil, nil
	}

	mediaType, params := contentType(r)

	switch mediaType {
	case ContentTypeForm:
		fields, err := parseForm(r, limits)
		return fields, nil, err

	case ContentTypeMultipart:
		return parseMultipart(r, params["boundary"], limits)

	default:
		// JSON is the default for absent or unrecognized content types.
		fields, err := parseJSON(r, limits)
		return fields, nil, err
	}
}

// contentType parses the Content-Type header, tolerating its absence.
func contentType(r *http.Request) (string, map[string]string) {
	header := r.Header.Get("Content-Type")
	if header == "" {
		return ContentTypeJSON, nil
	}

	mediaType, params, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(header)), nil
	}

	return mediaType, params
}

// parseJSON buffers the body under the hard cap and decodes a JSON object
// into the field map. An empty body is an empty map; a non-object body is a
// client error since fields must be addressable by name.
func parseJSON(r *http.Request, limits Limits) (map[string]any, error) {
	raw, err := readCapped(r.Body, limits.Body, ErrBodyTooLarge)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, httperror.BadRequest("malformed JSON body").Wrap(err)
	}

	return fields, nil
}

// parseForm buffers the body under the hard cap and decodes
// application/x-www-form-urlencoded fields. Plus-as-space decoding and
// repeated-key collapsing follow url.ParseQuery semantics: single values
// stay scalar, repeats become []string.
func parseForm(r *http.Request, limits Limits) (map[string]any, error) {
	raw, err := readCapped(r.Body, limits.Body, ErrBodyTooLarge)
	if err != nil {
		return nil, err
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, httperror.BadRequest("malformed form body").Wrap(err)
	}

	return ParseQuery(values), nil
}

// MergeShallow merges the given maps left to right: later maps override
// earlier ones on key collision. Used for the auto-merge parameter fallback.
func MergeShallow(maps ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}

	return out
}

// mergeField adds a form field value, collapsing repeated names into a
// []string the same way repeated query keys collapse.
func mergeField(fields map[string]any, name, value string) {
	existing, ok := fields[name]
	if !ok {
		fields[name] = value
		return
	}

	switch prev := existing.(type) {
	case string:
		fields[name] = []string{prev, value}
	case []string:
		fields[name] = append(prev, value)
	default:
		fields[name] = fmt.Sprintf("%v", value)
	}
}
