package flow

import (
	"context"
	"sync"

	"stubrunner-agent/src/broker"
	"stubrunner-agent/src/contracts"
	"stubrunner-agent/src/router"
)

// Flow pairs one Router with the subscriptions that feed it.
type Flow struct {
	Name          string
	Stub          contracts.StubIdentity
	Destination   string
	Router        *router.Router
	Subscriptions []*broker.Container
}

// Registry maps flow names to flows. It is filled once by the Builder and only
// read afterwards.
type Registry struct {
	mu      sync.RWMutex
	flows   map[string]*Flow
	order   []string
	started bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{flows: make(map[string]*Flow)}
}

// Get returns the flow registered under name.
func (r *Registry) Get(name string) (*Flow, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flows[name]
	return f, ok
}

// Names returns flow names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Flows returns flows in registration order.
func (r *Registry) Flows() []*Flow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Flow, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.flows[name])
	}
	return out
}

// Len returns the number of registered flows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ForDestination returns the flows listening on destination.
func (r *Registry) ForDestination(destination string) []*Flow {
	var out []*Flow
	for _, f := range r.Flows() {
		if f.Destination == destination {
			out = append(out, f)
		}
	}
	return out
}

// Started reports whether Start completed successfully and Stop has not been called.
func (r *Registry) Started() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.started
}

func (r *Registry) has(name string) bool {
	_, ok := r.flows[name]
	return ok
}

func (r *Registry) add(f *Flow) {
	r.flows[f.Name] = f
	r.order = append(r.order, f.Name)
}

// Start opens every subscription. If any fails, the ones already opened are
// stopped, the registry is emptied and a ConfigurationError is returned.
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	var opened []*broker.Container
	for _, name := range r.order {
		for _, c := range r.flows[name].Subscriptions {
			if err := c.Start(ctx); err != nil {
				for _, o := range opened {
					o.Stop()
				}
				r.flows = make(map[string]*Flow)
				r.order = nil
				return &ConfigurationError{Reason: "flow " + name + " could not subscribe", Err: err}
			}
			opened = append(opened, c)
		}
	}

	r.started = true
	return nil
}

// Stop closes every subscription.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		for _, c := range r.flows[name].Subscriptions {
			c.Stop()
		}
	}
	r.started = false
}
