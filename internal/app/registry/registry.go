package registry

import (
	"sync"

	"github.com/Viargos/Backend-sub000/internal/core/contracts"
)

// Registry is the in-memory connection table: user id → current client.
// A single mutex guards the map and is never held across I/O; closing a
// displaced connection is always the caller's job.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]contracts.Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]contracts.Client),
	}
}

// Register installs c as the sole connection for its user. The swap is
// atomic under the lock, so there is no window where two handles are
// both current for the same user.
func (r *Registry) Register(c contracts.Client) contracts.Client {
	userID := c.UserID()
	r.mu.Lock()
	defer r.mu.Unlock()
	replaced := r.clients[userID]
	if replaced == c {
		return nil
	}
	r.clients[userID] = c
	return replaced
}

// Unregister removes the mapping only when c is still the registered
// handle. A disconnect racing a reconnect is a no-op here.
func (r *Registry) Unregister(c contracts.Client) bool {
	userID := c.UserID()
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.clients[userID]
	if !ok || current != c {
		return false
	}
	delete(r.clients, userID)
	return true
}

func (r *Registry) Lookup(userID string) (contracts.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Registry) OnlineIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}
