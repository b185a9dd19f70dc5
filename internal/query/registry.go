package query

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/corvusmail/corvus/internal/bridge"
)

// Rule maps one backend event name to the cache keys it invalidates.
// Invalidation is deliberately coarse-grained: the whole list key goes
// stale, never a payload-selected subset. Redundant re-fetches are the price
// of never missing an update.
type Rule struct {
	Event string   `yaml:"event"`
	Keys  []string `yaml:"keys"`
}

// DefaultRules is the built-in event-to-key table covering every entity the
// backend announces changes for.
func DefaultRules() []Rule {
	return []Rule{
		{Event: "account:created", Keys: []string{"accounts"}},
		{Event: "account:updated", Keys: []string{"accounts"}},
		{Event: "account:deleted", Keys: []string{"accounts"}},
		{Event: "folder:created", Keys: []string{"folders"}},
		{Event: "folder:updated", Keys: []string{"folders"}},
		{Event: "folder:deleted", Keys: []string{"folders"}},
		{Event: "label:created", Keys: []string{"labels"}},
		{Event: "label:updated", Keys: []string{"labels"}},
		{Event: "label:deleted", Keys: []string{"labels"}},
		{Event: "view:created", Keys: []string{"views"}},
		{Event: "view:updated", Keys: []string{"views"}},
		{Event: "view:deleted", Keys: []string{"views"}},
		{Event: "email:created", Keys: []string{"conversations", "emails"}},
		{Event: "email:updated", Keys: []string{"conversations", "emails"}},
		{Event: "email:deleted", Keys: []string{"conversations", "emails"}},
		{Event: "email:moved", Keys: []string{"conversations", "emails"}},
		{Event: "contact:created", Keys: []string{"contacts"}},
		{Event: "contact:updated", Keys: []string{"contacts"}},
		{Event: "contact:deleted", Keys: []string{"contacts"}},
		{Event: "sync:completed", Keys: []string{"folders", "conversations", "emails"}},
	}
}

type registryState int

const (
	registryUninitialized registryState = iota
	registryInitializing
	registryActive
	registryTornDown
)

// Registry owns the event subscriptions that keep the cache consistent with
// backend-pushed change notifications. It is constructed once at startup and
// driven through explicit Setup/Teardown lifecycle calls; Setup is
// at-most-once no matter how many callers race it, and Teardown returns the
// registry to a state from which Setup may run again.
type Registry struct {
	mu     sync.Mutex
	state  registryState
	bridge *bridge.Bridge
	cache  *Cache
	rules  []Rule
	unsubs map[string]func()
	logger *log.Logger
}

// NewRegistry builds a registry over the given rule table.
func NewRegistry(b *bridge.Bridge, cache *Cache, rules []Rule, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		bridge: b,
		cache:  cache,
		rules:  rules,
		unsubs: map[string]func(){},
		logger: logger,
	}
}

// Setup registers one listener per declared event. A second call while
// active (or a concurrent call during setup) is a no-op. Individual listen
// failures are logged and skipped so one bad event name cannot take down the
// rest of the table; Setup only errors when nothing registered at all.
func (r *Registry) Setup() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case registryInitializing, registryActive:
		return nil
	}
	r.state = registryInitializing

	failed := 0
	for _, rule := range r.rules {
		if _, dup := r.unsubs[rule.Event]; dup {
			// Two rules claiming the same event usually means two features
			// both think they own it; keep the first and say so.
			r.logger.Printf("invalidation: duplicate rule for %q dropped", rule.Event)
			continue
		}
		keys := append([]string(nil), rule.Keys...)
		unsub, err := r.bridge.Listen(rule.Event, func(json.RawMessage) {
			for _, key := range keys {
				r.cache.InvalidateType(key)
			}
		})
		if err != nil {
			failed++
			r.logger.Printf("invalidation: listen %q: %v", rule.Event, err)
			continue
		}
		r.unsubs[rule.Event] = unsub
	}

	if len(r.unsubs) == 0 && failed > 0 {
		r.state = registryUninitialized
		return fmt.Errorf("invalidation registry: all %d event registrations failed", failed)
	}
	r.state = registryActive
	return nil
}

// Teardown unsubscribes every listener and clears the table. The registry
// may be set up again afterwards (hot navigation in tests relies on this).
func (r *Registry) Teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = map[string]func(){}
	r.state = registryTornDown
}

// Active reports whether the registry currently holds live subscriptions.
func (r *Registry) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == registryActive
}
