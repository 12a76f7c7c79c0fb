package game

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Update describes what an operation changed, so the caller can perform
// the fan-out. State mutation stays here; transport stays out.
type Update struct {
	// Err is a failure to report to the requester only. When set, all
	// other fields are zero.
	Err error
	// Snapshot is the room state to deliver, nil when nothing changed.
	Snapshot *Snapshot
	// Recipients are the connection ids that receive the snapshot.
	Recipients []string
	// Created routes the snapshot as a creation acknowledgement rather
	// than a room update.
	Created bool
	// Directory is true when membership or status changed and the room
	// list must be re-broadcast to everyone.
	Directory bool
	// Notice is an out-of-band message for Recipients (room expiry).
	Notice string
}

// errUpdate builds a requester-only failure Update.
func errUpdate(err error) Update {
	return Update{Err: err}
}

// Coordinator is the session engine: it owns every room mutation and is
// the only component allowed to touch Room fields.
//
// A single mutex serializes every operation end to end, reproducing a
// single-threaded event model: an event runs to completion, including its
// terminal evaluation and update construction, before the next one starts.
// Coarse by design; room count and message rate are both small.
type Coordinator struct {
	mu       sync.Mutex
	store    *Store
	registry *Registry
	logger   *zap.Logger
	now      func() time.Time
}

// NewCoordinator creates a Coordinator over the given store and registry.
//
// Precondition: store, registry, and logger must be non-nil.
func NewCoordinator(store *Store, registry *Registry, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:    store,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// ListRooms returns the current directory.
func (c *Coordinator) ListRooms() []Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.List()
}

// Connect registers a new live connection.
func (c *Coordinator) Connect(connID string) {
	c.registry.OnConnect(connID)
}

// CreateRoom creates a room with the requester as its first player.
//
// Postcondition: On success the room is in StatusAwaiting with one player
// holding SymbolX and a zero score entry.
func (c *Coordinator) CreateRoom(connID, roomName, playerName string, private bool, secret string) Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	if private && secret == "" {
		return errUpdate(ErrPasswordRequired)
	}

	var secretHash []byte
	if private {
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return errUpdate(fmt.Errorf("hashing room secret: %w", err))
		}
		secretHash = hash
	}

	creator := Player{ConnID: connID, Name: playerName, Symbol: SymbolX}
	room, err := c.store.Create(roomName, creator, private, secretHash, c.now())
	if err != nil {
		return errUpdate(err)
	}
	c.registry.Track(connID, room.Name)

	c.logger.Info("room created",
		zap.String("room", room.Name),
		zap.String("conn_id", connID),
		zap.Bool("private", private),
	)

	return Update{
		Snapshot:   room.snapshot(),
		Recipients: []string{connID},
		Created:    true,
		Directory:  true,
	}
}

// Join admits a connection into an existing room as its second player.
// linkJoin skips the secret check for direct-link admission; it is a
// trusted capability of the request, not a security boundary.
//
// Postcondition: On success the room holds two players and is StatusActive.
func (c *Coordinator) Join(connID, roomName, playerName, secret string, linkJoin bool) Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.store.Get(roomName)
	if err != nil {
		return errUpdate(err)
	}
	if room.memberIndex(connID) >= 0 {
		// Already a member; a duplicate Player under the same connection
		// id would wedge memberIndex and the turn pointer.
		c.logger.Debug("join from existing member", zap.String("room", room.Name), zap.String("conn_id", connID))
		return Update{}
	}
	if len(room.Players) >= MaxPlayers {
		return errUpdate(ErrRoomFull)
	}
	if room.Private && !linkJoin {
		if secret == "" {
			return errUpdate(ErrPasswordRequired)
		}
		if bcrypt.CompareHashAndPassword(room.SecretHash, []byte(secret)) != nil {
			return errUpdate(ErrIncorrectPassword)
		}
	}

	player := Player{ConnID: connID, Name: playerName, Symbol: nextSymbol(room)}
	room.Players = append(room.Players, player)
	room.Scores[connID] = 0
	if len(room.Players) == MaxPlayers {
		room.Status = StatusActive
	}
	room.touch(c.now())
	c.registry.Track(connID, room.Name)

	c.logger.Info("player admitted",
		zap.String("room", room.Name),
		zap.String("conn_id", connID),
		zap.String("symbol", string(player.Symbol)),
	)

	return Update{
		Snapshot:   room.snapshot(),
		Recipients: room.memberIDs(),
		Directory:  true,
	}
}

// ApplyMove writes the acting player's symbol into a cell.
//
// Invalid moves (wrong room, not active, out of turn, index out of range,
// occupied cell) are silent no-ops: a stale client retrying a move on a
// now-filled cell is a harmless race, not a fault.
//
// Postcondition: On an accepted move the cell holds the player's symbol
// and either the turn pointer toggled or the room concluded.
func (c *Coordinator) ApplyMove(connID, roomName string, cellIdx int) Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.store.Get(roomName)
	if err != nil {
		c.logger.Debug("move for unknown room", zap.String("room", roomName), zap.String("conn_id", connID))
		return Update{}
	}
	if room.Status != StatusActive {
		c.logger.Debug("move outside active game", zap.String("room", room.Name), zap.String("conn_id", connID))
		return Update{}
	}
	idx := room.memberIndex(connID)
	if idx != room.TurnIdx {
		c.logger.Debug("move out of turn", zap.String("room", room.Name), zap.String("conn_id", connID))
		return Update{}
	}
	if cellIdx < 0 || cellIdx >= BoardSize || room.Board[cellIdx] != Empty {
		c.logger.Debug("move on unplayable cell",
			zap.String("room", room.Name),
			zap.String("conn_id", connID),
			zap.Int("cell", cellIdx),
		)
		return Update{}
	}

	mover := room.Players[idx]
	room.Board[cellIdx] = mover.Symbol
	room.touch(c.now())

	verdict := Evaluate(room.Board)
	c.assertConsistentWinners(room)

	switch {
	case verdict.Winner != Empty:
		room.Status = StatusConcluded
		room.Winner = mover.Name
		room.Scores[connID]++
		c.logger.Info("game concluded",
			zap.String("room", room.Name),
			zap.String("winner", mover.Name),
			zap.Int("score", room.Scores[connID]),
		)
	case verdict.Draw:
		room.Status = StatusConcluded
		room.Winner = DrawMarker
		c.logger.Info("game drawn", zap.String("room", room.Name))
	default:
		// Exactly two members exist while active, so the pointer toggles.
		room.TurnIdx = 1 - room.TurnIdx
	}

	return Update{
		Snapshot:   room.snapshot(),
		Recipients: room.memberIDs(),
		Directory:  verdict.Done, // conclusion is a status change the directory shows
	}
}

// VoteReset records a member's consent to a rematch. Votes from unknown
// rooms, non-members, or rooms that have not concluded are ignored so
// stale clients stay harmless. When every member has voted, the room
// restarts within this same step: board cleared, StatusActive, turn
// pointer at index 0, winner and votes cleared.
func (c *Coordinator) VoteReset(connID, roomName string) Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.store.Get(roomName)
	if err != nil {
		return Update{}
	}
	if room.memberIndex(connID) < 0 {
		c.logger.Debug("reset vote from non-member", zap.String("room", room.Name), zap.String("conn_id", connID))
		return Update{}
	}
	if room.Status != StatusConcluded {
		// The consent set must stay empty outside StatusConcluded.
		c.logger.Debug("reset vote before conclusion", zap.String("room", room.Name), zap.String("conn_id", connID))
		return Update{}
	}

	room.ResetVotes[connID] = struct{}{}
	room.touch(c.now())

	directory := false
	if len(room.ResetVotes) == len(room.Players) {
		room.restart()
		room.Status = StatusActive
		directory = true
		c.logger.Info("rematch started", zap.String("room", room.Name))
	}

	return Update{
		Snapshot:   room.snapshot(),
		Recipients: room.memberIDs(),
		Directory:  directory,
	}
}

// Depart removes a connection from one room. An emptied room is destroyed;
// a room left with one player restarts fresh in StatusAwaiting rather than
// keeping a half-played board for a future second player.
func (c *Coordinator) Depart(connID, roomName string) Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.departLocked(connID, roomName)
}

// Disconnect runs departure processing for every room the registry lists
// the connection in. The scan never assumes a connection sits in at most
// one room.
func (c *Coordinator) Disconnect(connID string) []Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	rooms := c.registry.OnDisconnect(connID)
	updates := make([]Update, 0, len(rooms))
	for _, name := range rooms {
		updates = append(updates, c.departLocked(connID, name))
	}
	return updates
}

func (c *Coordinator) departLocked(connID, roomName string) Update {
	room, err := c.store.Get(roomName)
	if err != nil {
		return Update{}
	}
	idx := room.memberIndex(connID)
	if idx < 0 {
		return Update{}
	}

	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
	c.registry.Untrack(connID, room.Name)

	if len(room.Players) == 0 {
		c.store.Delete(room.Name)
		c.logger.Info("room destroyed", zap.String("room", room.Name))
		return Update{Directory: true}
	}

	room.restart()
	room.Status = StatusAwaiting
	room.touch(c.now())
	c.logger.Info("player departed",
		zap.String("room", room.Name),
		zap.String("conn_id", connID),
	)

	return Update{
		Snapshot:   room.snapshot(),
		Recipients: room.memberIDs(),
		Directory:  true,
	}
}

// SweepIdle destroys awaiting rooms whose last activity predates the TTL.
// Evicted members receive the Notice. Rooms with a game in progress or
// concluded are never reaped; their members are present and accountable
// for leaving.
func (c *Coordinator) SweepIdle(ttl time.Duration) []Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-ttl)
	var updates []Update
	for _, s := range c.store.List() {
		if s.Status != StatusAwaiting {
			continue
		}
		room, err := c.store.Get(s.Name)
		if err != nil || !room.LastActivity.Before(cutoff) {
			continue
		}

		members := room.memberIDs()
		for _, id := range members {
			c.registry.Untrack(id, room.Name)
		}
		c.store.Delete(room.Name)
		c.logger.Info("idle room reaped",
			zap.String("room", room.Name),
			zap.Time("last_activity", room.LastActivity),
		)
		updates = append(updates, Update{
			Recipients: members,
			Directory:  true,
			Notice:     "Room expired due to inactivity",
		})
	}
	return updates
}

// nextSymbol returns the symbol no current member holds. Membership count
// alone is not enough: after the first-admitted player departs, the
// survivor may hold SymbolO, and the next admission must take SymbolX.
func nextSymbol(r *Room) Symbol {
	for _, p := range r.Players {
		if p.Symbol == SymbolX {
			return SymbolO
		}
	}
	return SymbolX
}

// assertConsistentWinners flags the impossible case of two complete lines
// carrying different symbols. Single-cell alternating moves cannot produce
// it; if it ever shows up the move application itself is broken.
func (c *Coordinator) assertConsistentWinners(room *Room) {
	winners := lineWinners(room.Board)
	if len(winners) < 2 {
		return
	}
	for _, w := range winners[1:] {
		if w != winners[0] {
			c.logger.DPanic("winning lines disagree on symbol",
				zap.String("room", room.Name),
			)
			return
		}
	}
}
