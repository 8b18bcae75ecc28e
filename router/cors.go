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
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig describes the cross-origin policy applied before routing.
//
// Origin selection, in precedence order:
//   - ReflectOrigin echoes the requesting Origin header (required for
//     credentialed cross-origin requests, since "*" is disallowed with
//     credentials)
//   - Origin is a single fixed allowed origin, always emitted
//   - Origins is a whitelist checked against the request's Origin header;
//     on a miss the header is omitted entirely — never a fallback to "*"
//   - with none of the above set, the policy defaults to "*"
//
// Whitelist misses are silent: browsers are the enforcement point, so no
// explicit rejection status is sent.
type CORSConfig struct {
	ReflectOrigin  bool
	Origin         string
	Origins        []string
	Methods        []string
	AllowedHeaders []string
	Credentials    bool
	MaxAge         int
}

// Default CORS header values.
var (
	defaultCORSMethods = []string{
		http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch,
		http.MethodPost, http.MethodDelete, http.MethodOptions,
	}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", "X-Requested-With"}
)

// apply computes and sets the CORS headers for one request.
func (cfg *CORSConfig) apply(r *http.Request, res *Response) {
	allowed := cfg.allowedOrigin(r.Header.Get("Origin"))
	header := res.Header()

	if allowed != "" {
		header.Set("Access-Control-Allow-Origin", allowed)
	}

	methods := cfg.Methods
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	header.Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))

	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = defaultCORSHeaders
	}
	header.Set("Access-Control-Allow-Headers", strings.Join(allowedHeaders, ", "))

	if cfg.Credentials {
		header.Set("Access-Control-Allow-Credentials", "true")
	}
	if cfg.MaxAge > 0 {
		header.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
	}
}

// allowedOrigin resolves the Access-Control-Allow-Origin value for a
// request, or "" when the header must be omitted.
func (cfg *CORSConfig) allowedOrigin(requestOrigin string) string {
	switch {
	case cfg.ReflectOrigin:
		return requestOrigin
	case cfg.Origin != "":
		return cfg.Origin
	case len(cfg.Origins) > 0:
		if slices.Contains(cfg.Origins, requestOrigin) {
			return requestOrigin
		}

		return ""
	default:
		return "*"
	}
}
