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

// Package container provides a minimal dependency-injection container: a
// keyed registry of singleton instances constructed once and shared for the
// process lifetime.
//
// Resolution of an unregistered key is a configuration error, never a silent
// default-construction fallback. Callers that cannot proceed without a
// dependency should use [Container.MustResolve] so the failure surfaces at
// boot instead of mid-request.
package container

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotRegistered is returned when a key has no registered instance.
var ErrNotRegistered = errors.New("container: key not registered")

// ErrDuplicateKey is returned when a key is registered twice.
var ErrDuplicateKey = errors.New("container: key already registered")

// Container is a keyed map of constructed singleton instances.
// It is safe for concurrent use. Instances are registered during boot and
// resolved at any point afterwards; the container never constructs values
// on its own.
type Container struct {
	mu        sync.RWMutex
	instances map[string]any
}

// New creates an empty container.
func New() *Container {
	return &Container{instances: make(map[string]any)}
}

// Register stores a singleton instance under key.
// Registering the same key twice is an error: silently replacing an instance
// would mask a wiring mistake.
func (c *Container) Register(key string, instance any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.instances[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	c.instances[key] = instance

	return nil
}

// MustRegister stores a singleton instance under key and panics on duplicate
// registration. Intended for boot-time wiring where a duplicate key is a
// programming error.
func (c *Container) MustRegister(key string, instance any) {
	if err := c.Register(key, instance); err != nil {
		panic(fmt.Sprintf("container.MustRegister: %v", err))
	}
}

// Resolve returns the instance registered under key.
// Returns ErrNotRegistered if the key is unknown.
func (c *Container) Resolve(key string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	instance, ok := c.instances[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, key)
	}

	return instance, nil
}

// MustResolve returns the instance registered under key and panics if the
// key is unknown. Use during boot where a missing registration must abort
// startup.
func (c *Container) MustResolve(key string) any {
	instance, err := c.Resolve(key)
	if err != nil {
		panic(fmt.Sprintf("container.MustResolve: %v", err))
	}

	return instance
}

// Has reports whether key is registered.
func (c *Container) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.instances[key]

	return ok
}

// Keys returns the registered keys. Order is unspecified.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.instances))
	for k := range c.instances {
		keys = append(keys, k)
	}

	return keys
}

// Reset removes all registered instances. Intended for test isolation.
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances = make(map[string]any)
}

// Resolve returns the instance registered under key asserted to type T.
// A type mismatch is reported as an error rather than a panic so callers
// can distinguish "not registered" from "registered with the wrong type".
func Resolve[T any](c *Container, key string) (T, error) {
	var zero T

	instance, err := c.Resolve(key)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("container: key %q holds %T, not %T", key, instance, zero)
	}

	return typed, nil
}
