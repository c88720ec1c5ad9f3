package commands

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Registry maps command names and aliases to commands.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Command // primary names only
	byAlias map[string]Command // primary names and aliases
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]Command),
		byAlias: make(map[string]Command),
	}
}

// Register adds a command. A name or alias may only be taken once.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := append([]string{c.Name()}, c.Aliases()...)
	for _, k := range keys {
		if other, exists := r.byAlias[k]; exists {
			return fmt.Errorf("command %q: name %q already used by %q", c.Name(), k, other.Name())
		}
	}

	r.byName[c.Name()] = c
	for _, k := range keys {
		r.byAlias[k] = c
	}
	return nil
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byAlias[name]
	return cmd, ok
}

// All returns the commands sorted by primary name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Command, 0, len(r.byName))
	for _, name := range slices.Sorted(maps.Keys(r.byName)) {
		result = append(result, r.byName[name])
	}
	return result
}

// Suggest returns the primary names whose name or alias starts with prefix.
func (r *Registry) Suggest(prefix string) []string {
	if prefix == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for k, c := range r.byAlias {
		if strings.HasPrefix(k, prefix) {
			seen[c.Name()] = true
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// DefaultRegistry is the global command registry.
var DefaultRegistry = NewRegistry()

// Register adds a command to the default registry.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
