// Package tool holds the static catalog of invocable actions. The catalog is
// populated once at startup; the dispatcher resolves every call against it
// and refuses names it does not contain.
package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/caldera-ai/concierge/internal/domain"
)

// Registry maps tool names to their definitions.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]domain.ToolDefinition
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]domain.ToolDefinition),
	}
}

// Register adds a tool definition. Registering the same name twice is a
// programming error.
func (r *Registry) Register(def domain.ToolDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool.Registry.Register(%q): %w", def.Name, domain.ErrConflict)
	}

	r.tools[def.Name] = def
	return nil
}

// MustRegister is Register for startup wiring, panicking on duplicates.
func (r *Registry) MustRegister(def domain.ToolDefinition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get returns the definition for a tool name, or false if not registered.
func (r *Registry) Get(name string) (domain.ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.tools[name]
	return def, ok
}

// List returns all registered definitions sorted by name.
func (r *Registry) List() []domain.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]domain.ToolDefinition, 0, len(r.tools))
	for _, def := range r.tools {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	return defs
}
