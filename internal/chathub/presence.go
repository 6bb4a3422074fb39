package chathub

import (
	"context"
	"sort"
	"sync"
)

// Participant is one live connection's membership record inside one room.
type Participant struct {
	ConnID   string `json:"connId"`
	UserID   int64  `json:"userId"`
	UserCode string `json:"userCode"`
	Nickname string `json:"nickname"`
}

// PresenceStore tracks who is in which room right now. Implementations
// must keep the room membership and the per-connection reverse index
// consistent with each other after any sequence of operations.
//
// The in-memory variant is the default; a Redis-backed variant exists so
// the store can later be shared between processes without changing the
// Coordinator's contract.
type PresenceStore interface {
	// Join records p in roomKey and roomKey in p's reverse index, then
	// returns the number of distinct users present. Joining a room the
	// connection already occupies is a no-op for the count.
	Join(ctx context.Context, roomKey string, p Participant) (int, error)

	// Leave removes the participant matching connID from roomKey, or from
	// every room in its reverse index when roomKey is empty. It returns
	// the affected room keys. Leaving a room the connection never joined
	// is a safe no-op.
	Leave(ctx context.Context, connID, roomKey string) ([]string, error)

	// ActiveUsers returns the number of distinct users in the room,
	// 0 for an unknown room.
	ActiveUsers(ctx context.Context, roomKey string) (int, error)

	// Connections returns the connection IDs present in the room, for
	// transport fan-out.
	Connections(ctx context.Context, roomKey string) ([]string, error)
}

// MemoryPresence is the in-process PresenceStore. A single RWMutex guards
// both maps, so every mutation observes and preserves the room/reverse
// index consistency in one critical section.
type MemoryPresence struct {
	mu        sync.RWMutex
	rooms     map[string]map[string]Participant // roomKey -> connID -> participant
	connRooms map[string]map[string]struct{}    // connID -> occupied roomKeys
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{
		rooms:     make(map[string]map[string]Participant),
		connRooms: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryPresence) Join(_ context.Context, roomKey string, p Participant) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomKey]
	if !ok {
		room = make(map[string]Participant)
		s.rooms[roomKey] = room
	}
	if _, ok := room[p.ConnID]; !ok {
		room[p.ConnID] = p
	}

	idx, ok := s.connRooms[p.ConnID]
	if !ok {
		idx = make(map[string]struct{})
		s.connRooms[p.ConnID] = idx
	}
	idx[roomKey] = struct{}{}

	return distinctUsers(room), nil
}

func (s *MemoryPresence) Leave(_ context.Context, connID, roomKey string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if roomKey != "" {
		delete(s.rooms[roomKey], connID)
		if idx, ok := s.connRooms[connID]; ok {
			delete(idx, roomKey)
			if len(idx) == 0 {
				delete(s.connRooms, connID)
			}
		}
		return []string{roomKey}, nil
	}

	// Connection teardown: clear the whole reverse index in one step so no
	// dangling participant survives without an index entry.
	var affected []string
	for rk := range s.connRooms[connID] {
		delete(s.rooms[rk], connID)
		affected = append(affected, rk)
	}
	delete(s.connRooms, connID)
	sort.Strings(affected)
	return affected, nil
}

func (s *MemoryPresence) ActiveUsers(_ context.Context, roomKey string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return distinctUsers(s.rooms[roomKey]), nil
}

func (s *MemoryPresence) Connections(_ context.Context, roomKey string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room := s.rooms[roomKey]
	conns := make([]string, 0, len(room))
	for connID := range room {
		conns = append(conns, connID)
	}
	sort.Strings(conns)
	return conns, nil
}

// distinctUsers counts users, not connections: two sockets held by the
// same user in the same room are one membership.
func distinctUsers(room map[string]Participant) int {
	seen := make(map[int64]struct{}, len(room))
	for _, p := range room {
		seen[p.UserID] = struct{}{}
	}
	return len(seen)
}
