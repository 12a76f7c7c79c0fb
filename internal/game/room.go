package game

import (
	"strings"
	"time"
)

// Status is a room's position in its lifecycle.
type Status string

const (
	// StatusAwaiting means the room has one player and is waiting for a second.
	StatusAwaiting Status = "awaiting"
	// StatusActive means two players are present and a game is in progress.
	StatusActive Status = "active"
	// StatusConcluded means the game reached a win or a draw.
	StatusConcluded Status = "concluded"
)

// DrawMarker is the winner value recorded when a game ends in a draw.
const DrawMarker = "draw"

// MaxPlayers is the room membership cap.
const MaxPlayers = 2

// Player is a connection's membership record within one room.
type Player struct {
	// ConnID is the transport-assigned connection identifier.
	ConnID string `json:"id"`
	// Name is the free-text display name; not unique.
	Name string `json:"name"`
	// Symbol is the mark assigned by admission order.
	Symbol Symbol `json:"symbol"`
}

// Room is one isolated match instance.
//
// Invariant: len(Players) <= MaxPlayers; order determines turns and symbols.
// Invariant: SecretHash is non-empty iff Private is true.
// Invariant: ResetVotes is empty unless Status is StatusConcluded.
// All fields are owned by the Coordinator; nothing else mutates them.
type Room struct {
	// Name is the canonical uppercase room name, also the store key.
	Name    string
	Players []Player
	Board   Board
	// TurnIdx indexes Players for whose turn it is.
	TurnIdx int
	Private bool
	// SecretHash is the bcrypt hash of the room secret; never exposed.
	SecretHash []byte
	Status     Status
	// Winner is the winning player's display name, DrawMarker, or empty.
	Winner string
	// Scores maps connection id to win count for the room's lifetime.
	Scores map[string]int
	// ResetVotes is the set of connection ids that agreed to a rematch.
	ResetVotes map[string]struct{}
	// LastActivity is the time of the last accepted operation on the room.
	LastActivity time.Time
}

// Summary is the directory view of a room.
type Summary struct {
	Name      string `json:"name"`
	Players   int    `json:"players"`
	IsPrivate bool   `json:"isPrivate"`
	Status    Status `json:"status"`
}

// Snapshot is the full room state sent to clients. It has no secret field,
// so no outbound message can carry one.
type Snapshot struct {
	Name               string         `json:"name"`
	Players            []Player       `json:"players"`
	Board              Board          `json:"board"`
	CurrentPlayerIndex int            `json:"currentPlayerIndex"`
	IsPrivate          bool           `json:"isPrivate"`
	Status             Status         `json:"status"`
	Winner             string         `json:"winner"`
	Scores             map[string]int `json:"scores"`
	ResetVotes         []string       `json:"resetVotes"`
}

// CanonicalName normalizes a client-supplied room name to its storage key.
// Applied identically on create, join, and link join so lookups succeed
// regardless of input casing.
func CanonicalName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// memberIndex returns the index of the player with the given connection id,
// or -1 when the connection is not a member.
func (r *Room) memberIndex(connID string) int {
	for i, p := range r.Players {
		if p.ConnID == connID {
			return i
		}
	}
	return -1
}

// memberIDs returns the connection ids of all current members.
func (r *Room) memberIDs() []string {
	ids := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		ids = append(ids, p.ConnID)
	}
	return ids
}

// touch records activity on the room.
func (r *Room) touch(now time.Time) {
	r.LastActivity = now
}

// restart clears the in-game state while keeping membership and scores.
func (r *Room) restart() {
	r.Board.Clear()
	r.TurnIdx = 0
	r.Winner = ""
	r.ResetVotes = make(map[string]struct{})
}

// snapshot builds the outbound view of the room. Slices and maps are
// copied so the caller can hand the result to the transport after the
// coordinator releases its lock.
func (r *Room) snapshot() *Snapshot {
	players := make([]Player, len(r.Players))
	copy(players, r.Players)

	scores := make(map[string]int, len(r.Scores))
	for id, wins := range r.Scores {
		scores[id] = wins
	}

	votes := make([]string, 0, len(r.ResetVotes))
	for _, p := range r.Players {
		if _, ok := r.ResetVotes[p.ConnID]; ok {
			votes = append(votes, p.ConnID)
		}
	}

	return &Snapshot{
		Name:               r.Name,
		Players:            players,
		Board:              r.Board,
		CurrentPlayerIndex: r.TurnIdx,
		IsPrivate:          r.Private,
		Status:             r.Status,
		Winner:             r.Winner,
		Scores:             scores,
		ResetVotes:         votes,
	}
}

// summary builds the directory view of the room.
func (r *Room) summary() Summary {
	return Summary{
		Name:      r.Name,
		Players:   len(r.Players),
		IsPrivate: r.Private,
		Status:    r.Status,
	}
}
