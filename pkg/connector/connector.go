// Package connector defines the contract between the host workflow engine
// and an external execution backend: submit a job, poll its canonical
// phase, cancel it. All continuation state lives in the Handle, so one
// Connector instance safely serves many jobs concurrently.
package connector

import (
	"context"
	"fmt"
	"sync"
)

// Resource is the observed state of a remote job: its canonical phase plus,
// on terminal phases, optional outputs and a best-effort human-readable
// failure message.
type Resource struct {
	Phase   Phase          `json:"phase"`
	Outputs map[string]any `json:"outputs,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Connector adapts one external execution backend to the canonical job
// lifecycle.
//
// Create submits exactly one job per call and never retries on its own;
// callers needing submit-once semantics must dedupe above this layer.
// Get is a pure read, idempotent and safe to call at any polling cadence.
// Delete requests best-effort cancellation and is idempotent: cancelling an
// already-terminal job is not an error.
type Connector interface {
	Create(ctx context.Context, req Request) (Handle, error)
	Get(ctx context.Context, handle Handle) (*Resource, error)
	Delete(ctx context.Context, handle Handle) error
}

// Registry maps connector names to implementations so surfaces (HTTP
// service, CLI) can route by backend name.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]Connector)}
}

// Register adds a connector under the given name, replacing any previous
// registration.
func (r *Registry) Register(name string, c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[name] = c
}

// Get returns the connector registered under name.
func (r *Registry) Get(name string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[name]
	if !ok {
		return nil, fmt.Errorf("no connector registered for %q", name)
	}
	return c, nil
}

// Names returns the registered connector names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		names = append(names, name)
	}
	return names
}
