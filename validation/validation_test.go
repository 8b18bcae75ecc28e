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

package validation

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createTodo struct {
	Title string `json:"title" validate:"required,min=3"`
	Done  bool   `json:"done"`
	Count int    `json:"count" validate:"omitempty,gte=0"`
}

func TestSchemaApplyValid(t *testing.T) {
	t.Parallel()

	schema := SchemaFor[createTodo]()

	out, err := schema.Apply(map[string]any{
		"title": "write tests",
		"done":  true,
	})
	require.NoError(t, err)

	assert.Equal(t, "write tests", out["title"])
	assert.Equal(t, true, out["done"])
}

func TestSchemaApplyCoercesScalars(t *testing.T) {
	t.Parallel()

	schema := SchemaFor[createTodo]()

	out, err := schema.Apply(map[string]any{
		"title": "coerce me",
		"count": "42",
		"done":  "true",
	})
	require.NoError(t, err)

	// The coerced values replace the raw strings under their json names.
	assert.Equal(t, float64(42), out["count"])
	assert.Equal(t, true, out["done"])
}

func TestSchemaApplyMissingRequired(t *testing.T) {
	t.Parallel()

	schema := SchemaFor[createTodo]()

	_, err := schema.Apply(map[string]any{"done": true})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrValidation)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, http.StatusBadRequest, verr.HTTPStatus())
	assert.Contains(t, verr.Fields, "title")
}

func TestSchemaApplyRuleWithParam(t *testing.T) {
	t.Parallel()

	schema := SchemaFor[createTodo]()

	_, err := schema.Apply(map[string]any{"title": "ab"})

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, `failed on the "min" rule (3)`, verr.Fields["title"])
}

func TestSchemaApplyUndecodableField(t *testing.T) {
	t.Parallel()

	schema := SchemaFor[createTodo]()

	_, err := schema.Apply(map[string]any{
		"title": "ok here",
		"count": map[string]any{"nested": true},
	})

	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.NotEmpty(t, verr.Fields)
	// The failure is keyed by the offending field, not a generic bucket.
	assert.Contains(t, verr.Fields, "count")
}

func TestSchemaApplyMultipleUndecodableFields(t *testing.T) {
	t.Parallel()

	schema := SchemaFor[createTodo]()

	_, err := schema.Apply(map[string]any{
		"title": map[string]any{"bad": 1},
		"count": []any{"also", "bad"},
	})

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "count")
}

func TestSchemaName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "createTodo", SchemaFor[createTodo]().Name())
}

func TestErrorDetails(t *testing.T) {
	t.Parallel()

	verr := &Error{Fields: map[string]any{"email": "failed on the \"email\" rule"}}

	assert.Equal(t, verr.Fields, verr.Details())
	assert.Contains(t, verr.Error(), "email")
	assert.True(t, errors.Is(verr, ErrValidation))
}

func TestSchemaUnknownFieldsDropped(t *testing.T) {
	t.Parallel()

	schema := SchemaFor[createTodo]()

	out, err := schema.Apply(map[string]any{
		"title":   "keep me",
		"sneaky":  "extra",
		"another": 1,
	})
	require.NoError(t, err)

	// The coerced map carries only prototype fields.
	assert.NotContains(t, out, "sneaky")
	assert.NotContains(t, out, "another")
	assert.Equal(t, "keep me", out["title"])
}
