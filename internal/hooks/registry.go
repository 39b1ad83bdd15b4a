// Package hooks stores the command lists that run before and after named
// commands. Registries are scoped: a session registry is parented to the
// global one and a window registry to its session's, so lookups fall back
// outward on a miss.
package hooks

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/asheshgoplani/muxd/internal/cmdq"
	"github.com/asheshgoplani/muxd/internal/logging"
)

var hookLog = logging.ForComponent(logging.CompHooks)

// Registry maps hook names ("before-<command>", "after-<command>") to command
// lists. It holds one list reference per entry and implements
// cmdq.HookSource.
type Registry struct {
	parent *Registry

	mu sync.RWMutex
	m  map[string]*cmdq.List
}

// NewRegistry creates a registry. parent may be nil for the global scope.
func NewRegistry(parent *Registry) *Registry {
	return &Registry{parent: parent, m: make(map[string]*cmdq.List)}
}

// Set registers list under name, replacing (and releasing) any previous
// entry. The registry takes its own reference on list.
func (r *Registry) Set(name string, list *cmdq.List) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.m[name]; ok {
		old.Release()
	}
	list.Retain()
	r.m[name] = list
	hookLog.Debug("hook_set", slog.String("hook", name))
}

// Remove unregisters name and releases its list. Removing an absent name is
// a no-op.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.m[name]; ok {
		old.Release()
		delete(r.m, name)
		hookLog.Debug("hook_removed", slog.String("hook", name))
	}
}

// Find returns the list registered under name, consulting parents on a miss.
// Returns nil when no scope has the hook.
func (r *Registry) Find(name string) *cmdq.List {
	r.mu.RLock()
	list, ok := r.m[name]
	r.mu.RUnlock()

	if ok {
		return list
	}
	if r.parent != nil {
		return r.parent.Find(name)
	}
	return nil
}

// Names returns the hook names registered in this scope only, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear releases every entry. Used when reloading from file.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, list := range r.m {
		list.Release()
		delete(r.m, name)
	}
}
