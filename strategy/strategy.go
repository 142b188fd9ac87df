package strategy

import (
	"roachrace/game"
	"roachrace/meta"
	"sort"
	"sync"
)

// Factory builds a fresh strategy instance for the cockroach at the given index.
type Factory func(agent int) game.Strategy

// Registry maps strategy names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(meta.DEFAULT_STRATEGY, func(int) game.Strategy { return DefaultStrategy{} })
	return r
}

// Default returns a registry holding every built-in strategy.
func Default() *Registry {
	r := NewRegistry()
	r.Register(MY_STRATEGY, func(int) game.Strategy { return NewMyStrategy() })
	r.Register(JITTER, func(agent int) game.Strategy { return NewJitter(uint64(agent) + 1) })
	return r
}

// Register binds name to factory, replacing any previous binding.
func (r *Registry) Register(name string, factory Factory) {
	if factory == nil {
		panic("strategy factory cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Resolve returns the factory for name, or the default strategy's factory
// if name is not registered. The boolean reports whether name was found.
func (r *Registry) Resolve(name string) (Factory, bool) {
	if f, ok := r.Lookup(name); ok {
		return f, true
	}
	f, _ := r.Lookup(meta.DEFAULT_STRATEGY)
	return f, false
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
