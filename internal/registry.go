package internal

import (
	"sort"
	"sync"
	"time"
)

// Registry maps display names to their connections. A name maps to at most
// one connection; registering it again replaces the previous owner. Entries
// stay after their connection closes.
type Registry struct {
	mu       sync.Mutex
	users    map[string]*Connection
	lastSeen map[string]time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		users:    make(map[string]*Connection),
		lastSeen: make(map[string]time.Time),
	}
}

// Register binds name to c, overwriting any previous binding.
func (r *Registry) Register(name string, c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[name] = c
}

// Lookup returns the connection registered under name.
func (r *Registry) Lookup(name string) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.users[name]
	if !ok {
		return nil, &LookupError{Name: name}
	}
	return c, nil
}

// MarkDeparted records when name was last seen. The name stays registered.
func (r *Registry) MarkDeparted(name string, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSeen[name] = t
}

// LastSeen returns the last departure time recorded for name.
func (r *Registry) LastSeen(name string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.lastSeen[name]
	return t, ok
}

// Names lists every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.users))
	for name := range r.users {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names
}
