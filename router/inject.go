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
	"github.com/velox-web/velox/binding"
	"github.com/velox-web/velox/controller"
)

// buildArguments assembles the positional argument array for a handler from
// its declared parameter descriptors.
//
// With no descriptors the auto-merge fallback applies: query parameters,
// body fields and route parameters shallow-merge into one map (later sources
// override earlier on key collision) passed as the sole argument.
func buildArguments(params []controller.Param, c *Context) []any {
	if len(params) == 0 {
		routeParams := make(map[string]any, len(c.params))
		for k, v := range c.params {
			routeParams[k] = v
		}

		return []any{binding.MergeShallow(c.Query, c.Body, routeParams)}
	}

	args := make([]any, len(params))
	for _, p := range params {
		args[p.Index] = argumentFor(p, c)
	}

	return args
}

// argumentFor selects the source container for one descriptor and extracts
// the keyed field when a key is declared and the container is non-nil;
// otherwise the whole container is passed.
func argumentFor(p controller.Param, c *Context) any {
	switch p.Source {
	case controller.SourceBody:
		if p.Key != "" && c.Body != nil {
			return c.Body[p.Key]
		}

		return c.Body

	case controller.SourceQuery:
		if p.Key != "" && c.Query != nil {
			return c.Query[p.Key]
		}

		return c.Query

	case controller.SourcePath:
		if p.Key != "" && c.params != nil {
			return c.params[p.Key]
		}

		return c.params

	case controller.SourceRequest:
		return c.Request

	case controller.SourceResponse:
		return c.Response

	case controller.SourceCookie:
		if p.Key != "" && c.Cookies != nil {
			return c.Cookies[p.Key]
		}

		return c.Cookies

	default:
		return nil
	}
}
