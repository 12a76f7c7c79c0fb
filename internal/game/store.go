package game

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNameTaken means a room with the same canonical name already exists.
	ErrNameTaken = errors.New("room ID already exists")
	// ErrNotFound means no room exists under the canonical name.
	ErrNotFound = errors.New("room ID not found")
	// ErrRoomFull means the room already holds MaxPlayers members.
	ErrRoomFull = errors.New("room is full")
	// ErrIncorrectPassword means a private-room secret did not match.
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrPasswordRequired means a private room was joined with no secret,
	// distinguished from ErrIncorrectPassword so clients can tell "asked
	// for nothing" from "asked wrong".
	ErrPasswordRequired = errors.New("password required")
)

// Store is the authoritative keyed collection of rooms.
// At most one room exists per canonical name.
// All methods are safe for concurrent use, though in practice the
// Coordinator serializes every mutation behind its own lock.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*Room),
	}
}

// Create adds a room under the canonical form of name, seeded with the
// creator as its sole member.
//
// Precondition: creator.ConnID must be non-empty; secretHash non-empty iff private.
// Postcondition: Returns the room in StatusAwaiting with one player, or ErrNameTaken.
func (s *Store) Create(name string, creator Player, private bool, secretHash []byte, now time.Time) (*Room, error) {
	key := CanonicalName(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[key]; exists {
		return nil, ErrNameTaken
	}

	r := &Room{
		Name:         key,
		Players:      []Player{creator},
		Private:      private,
		SecretHash:   secretHash,
		Status:       StatusAwaiting,
		Scores:       map[string]int{creator.ConnID: 0},
		ResetVotes:   make(map[string]struct{}),
		LastActivity: now,
	}
	s.rooms[key] = r
	return r, nil
}

// Get looks up a room by name (canonicalized).
func (s *Store) Get(name string) (*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[CanonicalName(name)]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// Delete removes a room. Idempotent.
func (s *Store) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, CanonicalName(name))
}

// List returns a summary of every room. Output is sorted by name purely
// for deterministic logs and tests; consumers must not rely on ordering.
func (s *Store) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r.summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of rooms.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
