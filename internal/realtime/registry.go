package realtime

import (
	"sync"

	"github.com/smallbiznis/procura/internal/observability/metrics"
)

// Key identifies one slice of server state a connection may subscribe to.
// ResourceID "all" is a wildcard matching every id of the resource type.
type Key struct {
	ResourceType string
	ResourceID   string
}

// WildcardID matches every resource id of a type.
const WildcardID = "all"

// Wildcard returns the wildcard key for a resource type.
func Wildcard(resourceType string) Key {
	return Key{ResourceType: resourceType, ResourceID: WildcardID}
}

// Registry tracks live connections and their subscription keys. It is an
// explicitly constructed instance, not a process-wide singleton, so the
// distribution layer stays testable in isolation. All state is in-memory;
// a missing key or connection is a no-op, never an error, because
// subscriptions legitimately race with disconnects.
type Registry struct {
	mu      sync.RWMutex
	conns   map[*Conn]struct{}
	byKey   map[Key]map[*Conn]struct{}
	byActor map[string]map[*Conn]struct{}

	metrics *metrics.RealtimeMetrics
}

// NewRegistry constructs an empty registry. Metrics may be nil.
func NewRegistry(m *metrics.RealtimeMetrics) *Registry {
	return &Registry{
		conns:   make(map[*Conn]struct{}),
		byKey:   make(map[Key]map[*Conn]struct{}),
		byActor: make(map[string]map[*Conn]struct{}),
		metrics: m,
	}
}

// Register adds a connection under its initial subscription key.
func (r *Registry) Register(conn *Conn, initial Key) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	if _, ok := r.conns[conn]; ok {
		r.mu.Unlock()
		return
	}
	r.conns[conn] = struct{}{}
	r.addKeyLocked(conn, initial)
	if conn.actorID != "" {
		set, ok := r.byActor[conn.actorID]
		if !ok {
			set = make(map[*Conn]struct{})
			r.byActor[conn.actorID] = set
		}
		set[conn] = struct{}{}
	}
	r.mu.Unlock()

	r.metrics.ConnectionOpened()
}

// AddSubscription attaches a key to a registered connection. Idempotent; a
// no-op for unknown connections.
func (r *Registry) AddSubscription(conn *Conn, key Key) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[conn]; !ok {
		return
	}
	r.addKeyLocked(conn, key)
}

// RemoveSubscription detaches a key from a connection. Idempotent.
func (r *Registry) RemoveSubscription(conn *Conn, key Key) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.byKey[key]; ok {
		if _, held := set[conn]; held {
			delete(set, conn)
			if len(set) == 0 {
				delete(r.byKey, key)
			}
			conn.dropKey(key)
			r.metrics.SubscriptionRemoved()
		}
	}
}

// Unregister removes a connection from every key set it belongs to. Safe to
// call more than once and safe to call concurrently with an in-flight
// broadcast: the broadcast operates on a snapshot and a send to a torn-down
// connection fails silently.
func (r *Registry) Unregister(conn *Conn) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	if _, ok := r.conns[conn]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, conn)
	for _, key := range conn.keys() {
		if set, ok := r.byKey[key]; ok {
			delete(set, conn)
			if len(set) == 0 {
				delete(r.byKey, key)
			}
			r.metrics.SubscriptionRemoved()
		}
	}
	if conn.actorID != "" {
		if set, ok := r.byActor[conn.actorID]; ok {
			delete(set, conn)
			if len(set) == 0 {
				delete(r.byActor, conn.actorID)
			}
		}
	}
	r.mu.Unlock()

	r.metrics.ConnectionClosed()
}

// ConnectionsFor returns a read-only snapshot of the connections holding the
// exact key. Broadcast iteration never holds the registry lock.
func (r *Registry) ConnectionsFor(key Key) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.byKey[key])
}

// ConnectionsForResource returns the union of exact and wildcard subscribers
// for a resource, deduplicated.
func (r *Registry) ConnectionsForResource(resourceType, resourceID string) []*Conn {
	exact := Key{ResourceType: resourceType, ResourceID: resourceID}
	wild := Wildcard(resourceType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if resourceID == WildcardID {
		return snapshot(r.byKey[wild])
	}
	seen := make(map[*Conn]struct{}, len(r.byKey[exact])+len(r.byKey[wild]))
	out := make([]*Conn, 0, len(r.byKey[exact])+len(r.byKey[wild]))
	for conn := range r.byKey[exact] {
		if _, dup := seen[conn]; !dup {
			seen[conn] = struct{}{}
			out = append(out, conn)
		}
	}
	for conn := range r.byKey[wild] {
		if _, dup := seen[conn]; !dup {
			seen[conn] = struct{}{}
			out = append(out, conn)
		}
	}
	return out
}

// ConnectionsForActor returns connections registered under the actor id.
func (r *Registry) ConnectionsForActor(actorID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.byActor[actorID])
}

// AllConnections returns a snapshot of every live connection.
func (r *Registry) AllConnections() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.conns)
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) addKeyLocked(conn *Conn, key Key) {
	if key.ResourceType == "" {
		return
	}
	set, ok := r.byKey[key]
	if !ok {
		set = make(map[*Conn]struct{})
		r.byKey[key] = set
	}
	if _, held := set[conn]; held {
		return
	}
	set[conn] = struct{}{}
	conn.addKey(key)
	r.metrics.SubscriptionAdded()
}

func snapshot(set map[*Conn]struct{}) []*Conn {
	out := make([]*Conn, 0, len(set))
	for conn := range set {
		out = append(out, conn)
	}
	return out
}
