// Package broker owns the subscriber bookkeeping and the fan-out of
// committed events to live connections. Subscriptions are keyed by
// session id, not identity, so one participant can hold several
// connections and each receives its own copy.
package broker

import (
	"sync"

	"peerchat/contract"
	"peerchat/domain"
)

type set map[string]struct{}

// Registry maps rooms to the sessions currently subscribed to them.
// It is the single owner of that state; subscribe/unsubscribe are tied
// to connection lifecycle events by the coordinator.
type Registry struct {
	mu           sync.RWMutex
	sessions     map[string]contract.EventSink // session id -> sink
	roomMembers  map[domain.RoomID]set         // room -> session ids
	sessionRooms map[string]map[domain.RoomID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:     make(map[string]contract.EventSink),
		roomMembers:  make(map[domain.RoomID]set),
		sessionRooms: make(map[string]map[domain.RoomID]struct{}),
	}
}

// SinksForRoom returns a snapshot of the sinks currently subscribed to
// the room. The snapshot is taken under a read lock; delivery happens
// without any lock, so a session joining mid-publish may miss that one
// event and catches up via an explicit fetch.
func (r *Registry) SinksForRoom(roomID domain.RoomID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for sessionID := range members {
		if sink, exists := r.sessions[sessionID]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// Subscribe registers a session's sink and adds it to the room. The
// room entry is created on first use.
func (r *Registry) Subscribe(sessionID string, roomID domain.RoomID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sessionID] = sink

	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(set)
	}
	r.roomMembers[roomID][sessionID] = struct{}{}

	if _, ok := r.sessionRooms[sessionID]; !ok {
		r.sessionRooms[sessionID] = make(map[domain.RoomID]struct{})
	}
	r.sessionRooms[sessionID][roomID] = struct{}{}
}

// Unsubscribe removes the session from one room, dropping the sink
// entirely once no subscription is left. Empty room entries are
// removed so the maps do not grow with dead rooms.
func (r *Registry) Unsubscribe(sessionID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unsubscribeLocked(sessionID, roomID)
}

// UnsubscribeAll removes a disconnecting session from every room it
// subscribed to.
func (r *Registry) UnsubscribeAll(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.sessionRooms[sessionID] {
		r.unsubscribeLocked(sessionID, roomID)
	}
}

func (r *Registry) unsubscribeLocked(sessionID string, roomID domain.RoomID) {
	if members, ok := r.roomMembers[roomID]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.roomMembers, roomID)
		}
	}

	if rooms, ok := r.sessionRooms[sessionID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(r.sessionRooms, sessionID)
			delete(r.sessions, sessionID)
		}
	}
}
