package provider

import (
	"sync"
)

var (
	// Ensure implements
	_ Provider = (*Registry)(nil)
)

// Registry is an explicitly populated in-memory provider. It is a primary
// content source, not a cache: entries appear only through Set and are
// returned exactly as stored, so holding non-string values is possible and
// left to the caller to interpret.
type Registry struct {
	sync.RWMutex

	// data maps fetch paths to their stored content.
	data map[string]interface{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		data: make(map[string]interface{}),
	}
}

// Set stores value under path, replacing any previous entry.
func (r *Registry) Set(path string, value interface{}) {
	r.Lock()
	defer r.Unlock()

	r.data[path] = value
}

// Fetch returns the value stored under path, or ErrNotFound.
func (r *Registry) Fetch(path string) (interface{}, error) {
	r.RLock()
	defer r.RUnlock()

	value, ok := r.data[path]
	if !ok {
		return nil, ErrNotFound
	}
	return value, nil
}

// Delete removes the entry stored under path.
func (r *Registry) Delete(path string) {
	r.Lock()
	defer r.Unlock()

	delete(r.data, path)
}

// Reset clears all stored entries.
func (r *Registry) Reset() {
	r.Lock()
	defer r.Unlock()

	for k := range r.data {
		delete(r.data, k)
	}
}

// Stringer interface.
func (r *Registry) String() string {
	return "registry"
}
