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
	"regexp"
	"strings"
	"sync"
)

// constraintCache holds compiled inline parameter patterns keyed by the raw
// pattern text. Patterns are tiny and come from route declarations, so the
// cache is bounded by the route table.
var constraintCache sync.Map // string -> *regexp.Regexp

// Match compares a defined route pattern against a request path, segment by
// segment. It returns the captured parameters and true on a match; a
// parameterless exact match returns an empty but non-nil map — map presence
// signals "matched", not "has params".
//
// Defined segments starting with ':' are parameters and may carry an inline
// anchored constraint using the ":name(pattern)" syntax. Both paths are
// split on '/' with empty segments discarded, so leading and trailing
// slashes are insignificant.
func Match(definedPath, requestPath string) (map[string]string, bool) {
	defined := splitSegments(definedPath)
	request := splitSegments(requestPath)

	if len(defined) != len(request) {
		return nil, false
	}

	params := make(map[string]string)
	for i, segment := range defined {
		if !strings.HasPrefix(segment, ":") {
			if segment != request[i] {
				return nil, false
			}
			continue
		}

		name, pattern, ok := splitConstraint(segment[1:])
		if !ok {
			return nil, false
		}
		if pattern != "" {
			re, err := constraintRegexp(pattern)
			if err != nil || !re.MatchString(request[i]) {
				return nil, false
			}
		}
		params[name] = request[i]
	}

	return params, true
}

// splitSegments splits a path on '/', discarding empty segments.
func splitSegments(path string) []string {
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}

	return segments
}

// splitConstraint separates "name(pattern)" into its parts. A segment
// without an opening parenthesis has no constraint; one that opens a
// constraint without closing it is malformed and reports ok=false rather
// than silently matching as an unconstrained parameter.
func splitConstraint(segment string) (name, pattern string, ok bool) {
	open := strings.IndexByte(segment, '(')
	if open < 0 {
		return segment, "", true
	}
	if !strings.HasSuffix(segment, ")") {
		return "", "", false
	}

	return segment[:open], segment[open+1 : len(segment)-1], true
}

// constraintRegexp compiles (and caches) an inline pattern, anchored so the
// request segment must match fully.
func constraintRegexp(pattern string) (*regexp.Regexp, error) {
	if cached, ok := constraintCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		return nil, err
	}
	constraintCache.Store(pattern, re)

	return re, nil
}

// normalizePath strips a single trailing slash and defaults to "/".
func normalizePath(path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "" {
		path = "/"
	}

	return path
}
