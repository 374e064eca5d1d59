// Package mount attaches the medium a session navigates. Mounters are
// looked up by the configured mount type.
package mount

import (
	"fmt"
	"sync"

	"github.com/brettbedarf/treenav"
	"github.com/brettbedarf/treenav/config"
)

// Factory builds a Mounter for a session about to start.
type Factory func(cfg *config.Config) treenav.Mounter

// Registry maps mount type names to factories. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register ties a factory to a mount type. The first registration of a
// type wins; later ones are ignored and reported as false.
func (r *Registry) Register(mountType string, f Factory) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[mountType]; ok {
		return false
	}
	r.factories[mountType] = f
	return true
}

// GetFactory returns the factory registered for mountType.
func (r *Registry) GetFactory(mountType string) (Factory, error) {
	r.mu.RLock()
	f, ok := r.factories[mountType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no mounter for type %q", mountType)
	}
	return f, nil
}

// NewMounter builds the Mounter selected by cfg.Type.
func (r *Registry) NewMounter(cfg *config.Config) (treenav.Mounter, error) {
	f, err := r.GetFactory(cfg.Type)
	if err != nil {
		return nil, err
	}
	return f(cfg), nil
}

// Types returns the registered mount type names.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	return types
}
