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

// Package binding turns a raw HTTP request into the per-request data bag the
// parameter injector draws from: query parameters, cookies, body fields and
// uploaded files. Body decoding is content-type aware and enforces size caps
// incrementally as chunks arrive.
//
// Two failure classes exist. Soft failures (malformed JSON, a single file
// over its cap) are *httperror values that become structured 4xx responses.
// Hard failures ([ErrBodyTooLarge], [ErrUploadTooLarge]) mean the client is
// pushing more bytes than the server is willing to buffer; the dispatcher
// destroys the connection instead of completing an HTTP transaction.
package binding

import (
	"errors"
	"io"
	"net/http"
	"net/url"
)

// Default size caps. JSON and form bodies are buffered whole, so the cap is
// a hard ceiling on per-request memory.
const (
	// DefaultBodyLimit caps JSON and urlencoded-form bodies.
	DefaultBodyLimit int64 = 1 << 20 // 1 MiB

	// DefaultFileLimit caps one multipart file part.
	DefaultFileLimit int64 = 10 << 20 // 10 MiB

	// DefaultMultipartLimit caps a whole multipart payload.
	DefaultMultipartLimit int64 = 32 << 20 // 32 MiB
)

// ErrBodyTooLarge reports a JSON/form body exceeding the hard cap.
// The connection must be destroyed, not answered.
var ErrBodyTooLarge = errors.New("binding: request body exceeds size limit")

// ErrUploadTooLarge reports a multipart payload exceeding the cumulative
// hard cap. The connection must be destroyed, not answered.
var ErrUploadTooLarge = errors.New("binding: multipart payload exceeds size limit")

// Limits carries the body size caps for one parse.
type Limits struct {
	Body      int64 // JSON/form cap
	File      int64 // per multipart file cap
	Multipart int64 // cumulative multipart cap
}

// DefaultLimits returns the default size caps.
func DefaultLimits() Limits {
	return Limits{
		Body:      DefaultBodyLimit,
		File:      DefaultFileLimit,
		Multipart: DefaultMultipartLimit,
	}
}

// File is one uploaded multipart file, fully buffered. Owned by the request
// context and discarded after handler execution.
type File struct {
	FieldName   string
	Name        string
	ContentType string
	Size        int64
	Content     []byte
}

// ParseQuery flattens url.Values into the query map: a key seen once stays a
// scalar string, repeated keys collapse into a []string.
func ParseQuery(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) == 1 {
			out[key] = vals[0]
			continue
		}
		out[key] = append([]string(nil), vals...)
	}

	return out
}

// ParseCookies extracts request cookies into a name→value map.
// Duplicate cookie names keep the first value, matching header order.
func ParseCookies(r *http.Request) map[string]string {
	cookies := r.Cookies()
	out := make(map[string]string, len(cookies))
	for _, c := range cookies {
		if _, seen := out[c.Name]; !seen {
			out[c.Name] = c.Value
		}
	}

	return out
}

// readCapped buffers the reader in chunks, failing with hard as soon as the
// running total passes limit. The cap is checked per chunk, not against
// Content-Length, so chunked and lying clients are caught the same way.
func readCapped(r io.Reader, limit int64, hard error) ([]byte, error) {
	var (
		buf   []byte
		total int64
		chunk = make([]byte, 32<<10)
	)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > limit {
				return nil, hard
			}
			buf = append(buf, chunk[:n]...)
		}
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
