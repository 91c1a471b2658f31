// Package shortcuts provides the centralized shortcut registry. Any
// subsystem that consumes global input registers its tokens here so that
// trigger ownership is visible across the application and conflicts are
// arbitrated in one place instead of inside each consumer.
package shortcuts

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry tracks which owner holds which trigger token. Arbitration is
// first-registration-wins.
type Registry struct {
	mu        sync.Mutex
	byTrigger map[string]string   // trigger -> owner
	byOwner   map[string][]string // owner -> triggers
	logger    *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byTrigger: make(map[string]string),
		byOwner:   make(map[string][]string),
		logger:    logger.With("component", "shortcut_registry"),
	}
}

// Register claims trigger for owner. It returns false when another owner
// already holds the trigger; re-registration by the same owner succeeds.
func (r *Registry) Register(trigger, owner string) bool {
	if trigger == "" || owner == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byTrigger[trigger]; ok {
		if existing == owner {
			return true
		}
		r.logger.Warn("shortcut conflict",
			"trigger", trigger,
			"owner", existing,
			"rejected", owner,
		)
		return false
	}

	r.byTrigger[trigger] = owner
	r.byOwner[owner] = append(r.byOwner[owner], trigger)
	return true
}

// Release gives up a single trigger held by owner.
func (r *Registry) Release(trigger, owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byTrigger[trigger] != owner {
		return
	}
	delete(r.byTrigger, trigger)
	held := r.byOwner[owner]
	for i, t := range held {
		if t == trigger {
			r.byOwner[owner] = append(held[:i], held[i+1:]...)
			break
		}
	}
}

// Unregister releases every trigger held by owner.
func (r *Registry) Unregister(owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, trigger := range r.byOwner[owner] {
		delete(r.byTrigger, trigger)
	}
	delete(r.byOwner, owner)
}

// Owner reports who holds trigger.
func (r *Registry) Owner(trigger string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.byTrigger[trigger]
	return owner, ok
}

// Held returns the triggers held by owner, sorted.
func (r *Registry) Held(owner string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string{}, r.byOwner[owner]...)
	sort.Strings(out)
	return out
}
