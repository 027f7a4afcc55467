// Package runtime hosts the realtime messaging core: the presence registry,
// the delivery router, and the per-connection session protocol handler.
// It coordinates connections without containing storage or transport logic.
package runtime

import (
	"match-mate/contract"
	"sync"
)

// Registry maps a user identity to the set of its live connections. A
// connection appears in at most one user entry at a time; an entry is removed
// as soon as its last connection leaves, so the map never grows unbounded.
//
// One RWMutex covers the whole registry. The expected population is hundreds
// to low thousands of connections, where a single lock domain is cheaper than
// per-entry locking.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]contract.EventSink // userID -> connID -> sink
	owners   map[string]string                        // connID -> userID
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]map[string]contract.EventSink),
		owners:   make(map[string]string),
	}
}

// Join registers a connection under userID. Joining twice with the same
// connection is idempotent. A connection already bound to another user is
// rebound: removed from the old entry, added to the new (last-join-wins).
func (r *Registry) Join(userID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.owners[sink.ID()]; ok {
		if prev == userID {
			return
		}
		r.removeLocked(prev, sink.ID())
	}

	if _, ok := r.sessions[userID]; !ok {
		r.sessions[userID] = make(map[string]contract.EventSink)
	}
	r.sessions[userID][sink.ID()] = sink
	r.owners[sink.ID()] = userID
}

// Leave removes a connection from whichever entry holds it. It is a no-op for
// a connection that never joined and safe to call more than once; the
// transport layer defers it on every exit path.
func (r *Registry) Leave(sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[sink.ID()]
	if !ok {
		return
	}
	r.removeLocked(userID, sink.ID())
}

func (r *Registry) removeLocked(userID, connID string) {
	delete(r.owners, connID)
	conns, ok := r.sessions[userID]
	if !ok {
		return
	}
	delete(conns, connID)

	// If no connection is left for the user, remove the entry entirely
	if len(conns) == 0 {
		delete(r.sessions, userID)
	}
}

// ConnectionsFor returns a snapshot of the live connections for userID,
// possibly empty. It never blocks beyond the read lock.
func (r *Registry) ConnectionsFor(userID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.sessions[userID]
	if !ok {
		return nil
	}
	snapshot := make([]contract.EventSink, 0, len(conns))
	for _, sink := range conns {
		snapshot = append(snapshot, sink)
	}
	return snapshot
}
