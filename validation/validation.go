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

// Package validation validates parsed request bodies against declared
// schemas. A schema is a Go struct prototype: the body map is decoded into a
// fresh instance with weakly-typed coercion, checked against its `validate`
// struct tags, and — on success — the coerced data replaces the raw body
// fields. Failures carry per-field details suitable for a 400 response.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// ErrValidation is the sentinel wrapped by every schema failure.
var ErrValidation = errors.New("validation failed")

// Error is a schema validation failure with per-field details.
// It exposes the HTTPStatus/Details capabilities the dispatcher maps to a
// 400 response with a structured details object.
type Error struct {
	Fields map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}

	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(names, ", "))
}

// Unwrap lets errors.Is(err, ErrValidation) hold for schema failures.
func (e *Error) Unwrap() error { return ErrValidation }

// HTTPStatus maps validation failures to 400.
func (e *Error) HTTPStatus() int { return 400 }

// Details returns the per-field failure messages.
func (e *Error) Details() map[string]any { return e.Fields }

// Package-level validator shared by all schemas. Field names in error
// details follow the json tag, matching what clients actually sent.
var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func sharedValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			tag := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if tag == "" || tag == "-" {
				return field.Name
			}

			return tag
		})
	})

	return validate
}

// Schema validates a parsed body map against a struct prototype.
// Schemas are declared once per route and are safe for concurrent use.
type Schema struct {
	name  string
	apply func(body map[string]any) (map[string]any, error)
}

// Name returns the prototype type name, for diagnostics.
func (s *Schema) Name() string { return s.name }

// Apply decodes body into a fresh prototype instance, coercing compatible
// scalar types, validates it, and returns the coerced field map. On failure
// it returns an *Error carrying field-level details; the body is left
// untouched.
func (s *Schema) Apply(body map[string]any) (map[string]any, error) {
	return s.apply(body)
}

// SchemaFor declares a schema from a struct prototype T. Validation rules
// come from `validate` struct tags; field names from `json` tags.
//
// Example:
//
//	type CreateTodo struct {
//	    Title string `json:"title" validate:"required,min=1"`
//	    Done  bool   `json:"done"`
//	}
//
//	route := controller.POST("/todos", "create", h,
//	    controller.WithSchema(validation.SchemaFor[CreateTodo]()),
//	)
func SchemaFor[T any]() *Schema {
	var prototype T
	name := reflect.TypeOf(prototype).Name()

	return &Schema{
		name: name,
		apply: func(body map[string]any) (map[string]any, error) {
			var value T
			if err := decodeBody(body, &value); err != nil {
				return nil, err
			}

			if err := sharedValidator().Struct(&value); err != nil {
				return nil, toFieldErrors(err)
			}

			coerced, err := structToMap(&value)
			if err != nil {
				return nil, fmt.Errorf("validation: encoding coerced body: %w", err)
			}

			return coerced, nil
		},
	}
}

// decodeBody decodes the raw body map into the prototype with weak typing,
// so "42" satisfies an int field the way the validated data is expected to
// be coerced. Decode failures are reported per field.
func decodeBody(body map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("validation: building decoder: %w", err)
	}

	if err := decoder.Decode(body); err != nil {
		fields := make(map[string]any)
		collectDecodeErrors(err, fields)
		if len(fields) == 0 {
			fields["body"] = err.Error()
		}

		return &Error{Fields: fields}
	}

	return nil
}

// collectDecodeErrors walks the (possibly joined) decode error tree and keys
// each field's failure by its name. mapstructure reports per-field failures
// as DecodeError values joined together.
func collectDecodeErrors(err error, fields map[string]any) {
	switch e := err.(type) {
	case *mapstructure.DecodeError:
		fields[e.Name()] = e.Error()
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			collectDecodeErrors(inner, fields)
		}
	case interface{ Unwrap() error }:
		collectDecodeErrors(e.Unwrap(), fields)
	}
}

// toFieldErrors converts validator.ValidationErrors into the framework's
// field-keyed details map.
func toFieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Fields: map[string]any{"body": err.Error()}}
	}

	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = failureMessage(fe)
	}

	return &Error{Fields: fields}
}

// failureMessage renders one rule failure in client-facing form.
func failureMessage(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("failed on the %q rule (%s)", fe.Tag(), fe.Param())
	}

	return fmt.Sprintf("failed on the %q rule", fe.Tag())
}

// structToMap round-trips the validated struct through JSON so the coerced
// values replace the raw body fields under their json names.
func structToMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}

	return out, nil
}
