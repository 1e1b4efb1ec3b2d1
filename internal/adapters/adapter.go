// Package adapters implements the Language Adapter Registry (spec.md §4.2):
// a thread-safe, extension-keyed map from file to the Adapter(s) capable of
// parsing it. Adapters are registered declaratively through RegisterBuiltins
// so new languages join the registry without touching the orchestrator.
package adapters

import (
	"sync"

	"github.com/mikeparcewski/wicked-search/internal/types"
)

// Adapter extracts top-level structural Symbols and RawReferences from a
// single file. Implementations never panic on malformed input: Parse
// returns (nil, nil) and the caller marks parsed_ok=false (spec.md §4.2
// failure policy).
type Adapter interface {
	ID() string
	Extensions() []string
	Parse(filePath string, content []byte) ([]types.Symbol, []types.RawReference)
}

// Registry is the thread-safe adapter lookup table. Reads (For) happen on
// every discovered file; writes (Register) happen only at startup, so a
// single RWMutex is enough.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string][]Adapter
	byID  map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{
		byExt: make(map[string][]Adapter),
		byID:  make(map[string]Adapter),
	}
}

// Register adds an adapter under each of its declared extensions.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[a.ID()] = a
	for _, ext := range a.Extensions() {
		r.byExt[ext] = append(r.byExt[ext], a)
	}
}

// For returns the adapters registered for ext (e.g. ".go"), in registration
// order. A file may have more than one matching adapter (e.g. a generic
// fallback alongside a precise one); callers try them in order.
func (r *Registry) For(ext string) []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Adapter, len(r.byExt[ext]))
	copy(out, r.byExt[ext])
	return out
}

// Get looks up a registered adapter by id.
func (r *Registry) Get(id string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// Extensions returns every extension with at least one registered adapter.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	return out
}
