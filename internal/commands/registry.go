package commands

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Registry maps command names and aliases to commands.
type Registry struct {
	mu   sync.RWMutex
	cmds map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]Command)}
}

// Register adds c under its name and aliases. Nothing is added if any of
// them is taken.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := append([]string{c.Name()}, c.Aliases()...)
	if taken, ok := lo.Find(keys, func(k string) bool {
		_, exists := r.cmds[k]
		return exists
	}); ok {
		return fmt.Errorf("command name already registered: %s", taken)
	}

	for _, k := range keys {
		r.cmds[k] = c
	}
	return nil
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.cmds[name]
	return cmd, ok
}

// All returns each registered command once, sorted by primary name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := lo.UniqBy(lo.Values(r.cmds), func(c Command) string { return c.Name() })
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })
	return cmds
}

// DefaultRegistry holds the commands registered from init functions.
var DefaultRegistry = NewRegistry()

// Register adds a command to the default registry, panicking on a clash.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
