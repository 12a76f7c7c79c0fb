package game

import "sync"

// Registry tracks which rooms each live connection belongs to, so a
// disconnect can fan out departure processing without scanning the store.
// Entries vanish on disconnect; there is no persistence.
// All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[string]struct{} // conn id → set of canonical room names
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]map[string]struct{}),
	}
}

// OnConnect registers a live connection with no room memberships.
func (g *Registry) OnConnect(connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conns[connID] == nil {
		g.conns[connID] = make(map[string]struct{})
	}
}

// OnDisconnect removes the connection and returns the rooms it belonged
// to, for cascading departure processing.
//
// Postcondition: the connection is no longer tracked.
func (g *Registry) OnDisconnect(connID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	rooms := make([]string, 0, len(g.conns[connID]))
	for name := range g.conns[connID] {
		rooms = append(rooms, name)
	}
	delete(g.conns, connID)
	return rooms
}

// Track records that a connection is a member of a room.
func (g *Registry) Track(connID, roomName string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conns[connID] == nil {
		g.conns[connID] = make(map[string]struct{})
	}
	g.conns[connID][roomName] = struct{}{}
}

// Untrack removes a room membership for a connection, if present.
func (g *Registry) Untrack(connID, roomName string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.conns[connID], roomName)
}

// Rooms returns the rooms a connection currently belongs to.
func (g *Registry) Rooms(connID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.conns[connID]))
	for name := range g.conns[connID] {
		out = append(out, name)
	}
	return out
}
