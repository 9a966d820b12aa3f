// Package realtime keeps track of live socket connections and pushes chat
// events to them.
package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/pkg/metrics"
)

// Conn is a live connection as seen by the registry.
type Conn interface {
	Send(frame []byte) error
	Close() error
}

// Entry is one registered connection.
type Entry struct {
	ID     string
	UserID string
	Role   string
	Conn   Conn
}

// Registry maps a user id to at most one live connection. The last
// registration for an id wins; the registry never closes connections.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register stores conn under userID and returns the new entry together with
// the entry it replaced, if any. Closing the replaced connection is up to the
// caller.
func (r *Registry) Register(userID, role string, conn Conn) (*Entry, *Entry) {
	entry := &Entry{
		ID:     uuid.NewString(),
		UserID: userID,
		Role:   role,
		Conn:   conn,
	}

	r.mu.Lock()
	prev := r.entries[userID]
	r.entries[userID] = entry
	r.mu.Unlock()

	if prev != nil {
		metrics.SocketConnections.WithLabelValues(prev.Role).Dec()
	}
	metrics.SocketConnections.WithLabelValues(role).Inc()
	return entry, prev
}

// Lookup returns the current entry for userID.
func (r *Registry) Lookup(userID string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[userID]
	return e, ok
}

// Unregister drops whatever entry userID currently has.
func (r *Registry) Unregister(userID string) {
	r.mu.Lock()
	prev, ok := r.entries[userID]
	if ok {
		delete(r.entries, userID)
	}
	r.mu.Unlock()

	if ok {
		metrics.SocketConnections.WithLabelValues(prev.Role).Dec()
	}
}

// Remove drops entry only while it is still the current one for its user, so
// a closing connection cannot evict the connection that replaced it.
func (r *Registry) Remove(entry *Entry) bool {
	r.mu.Lock()
	cur, ok := r.entries[entry.UserID]
	removed := ok && cur.ID == entry.ID
	if removed {
		delete(r.entries, entry.UserID)
	}
	r.mu.Unlock()

	if removed {
		metrics.SocketConnections.WithLabelValues(entry.Role).Dec()
	}
	return removed
}

// Admins returns a snapshot of every registered admin connection.
func (r *Registry) Admins() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.Role == domain.RoleAdmin {
			out = append(out, e)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// CloseAll closes and drops every connection. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*Entry)
	r.mu.Unlock()

	for _, e := range entries {
		metrics.SocketConnections.WithLabelValues(e.Role).Dec()
		_ = e.Conn.Close()
	}
}
