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

package controller

import (
	"fmt"
	"sync"

	"github.com/velox-web/velox/container"
)

// Controller is implemented by route hosts. Controllers are stateless with
// respect to requests: the scanner instantiates each one exactly once and
// the instance lives for the process lifetime.
type Controller interface {
	// BasePath returns the path prefix shared by the controller's routes.
	// An empty string defaults to "/".
	BasePath() string

	// Routes returns the declared routes in declaration order.
	Routes() []*Route
}

// MiddlewareProvider is optionally implemented by controllers that declare
// controller-level middleware, which runs after global and before
// route-level middleware.
type MiddlewareProvider interface {
	Middleware() []Middleware
}

// Constructor builds a controller instance, resolving its dependencies from
// the container. Called exactly once per controller at scan time.
type Constructor func(c *container.Container) (Controller, error)

type registration struct {
	name string
	ctor Constructor
}

// Registry holds controller constructors in registration order. It is
// process-scoped, explicitly created and passed into the scanner at boot —
// not an ambient global — so tests can build and discard registries freely.
type Registry struct {
	mu            sync.Mutex
	registrations []registration
}

// NewRegistry creates an empty controller registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a controller constructor under a unique diagnostic name.
// Registration order is matching order: earlier controllers win route
// conflicts against later ones. A duplicate name is a configuration error.
func (r *Registry) Register(name string, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.registrations {
		if existing.name == name {
			return fmt.Errorf("controller: %q already registered", name)
		}
	}
	r.registrations = append(r.registrations, registration{name: name, ctor: ctor})

	return nil
}

// Len returns the number of registered controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.registrations)
}

// Reset removes all registrations. Intended for test isolation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations = nil
}

func (r *Registry) snapshot() []registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]registration, len(r.registrations))
	copy(out, r.registrations)

	return out
}
