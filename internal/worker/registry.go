package worker

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownCapability indicates no factory is registered for a capability.
var ErrUnknownCapability = errors.New("unknown capability")

// Registry maps capability names to worker factories and pools at most one
// live worker per capability for the lifetime of the process.
//
// A Registry is an explicit value constructed at startup and handed to the
// orchestrator, so tests can build isolated instances. It is safe for
// concurrent use.
type Registry struct {
	// factories maps capability name to the registered factory.
	factories map[string]Factory
	// pool maps capability name to the single live worker instance.
	pool map[string]Worker
	// mu protects factories and pool.
	mu sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		pool:      make(map[string]Worker),
	}
}

// Register adds a factory for the given capability. Registration fails fast
// on an empty capability name, a nil factory, or a capability that is
// already registered, so bad wiring surfaces at startup rather than at
// dispatch time.
func (r *Registry) Register(capability string, factory Factory) error {
	if capability == "" {
		return errors.New("register worker: empty capability")
	}
	if factory == nil {
		return fmt.Errorf("register worker %q: nil factory", capability)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[capability]; exists {
		return fmt.Errorf("register worker %q: already registered", capability)
	}
	r.factories[capability] = factory
	return nil
}

// Spawn constructs a fresh worker for the capability without pooling it.
func (r *Registry) Spawn(capability string) (Worker, error) {
	r.mu.RLock()
	factory, ok := r.factories[capability]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("spawn worker for %q: %w", capability, ErrUnknownCapability)
	}
	return factory(capability + "_worker"), nil
}

// Ensure returns the pooled worker for the capability, spawning and pooling
// one on first use. At most one worker instance exists per capability.
func (r *Registry) Ensure(capability string) (Worker, error) {
	r.mu.RLock()
	if w, ok := r.pool[capability]; ok {
		r.mu.RUnlock()
		return w, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock, another caller may have won.
	if w, ok := r.pool[capability]; ok {
		return w, nil
	}

	factory, ok := r.factories[capability]
	if !ok {
		return nil, fmt.Errorf("ensure worker for %q: %w", capability, ErrUnknownCapability)
	}

	w := factory(capability + "_worker")
	r.pool[capability] = w
	return w, nil
}

// Capabilities returns the names of all registered capabilities.
func (r *Registry) Capabilities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make([]string, 0, len(r.factories))
	for capability := range r.factories {
		caps = append(caps, capability)
	}
	return caps
}

// Has reports whether a factory is registered for the capability.
func (r *Registry) Has(capability string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[capability]
	return ok
}
