package game

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxIDAttempts = 64

// Connection ties a transport connection to its seat in a game.
type Connection struct {
	GameID   string
	PlayerID string
	Role     Role
}

// Seat is where a connection sits after CreateGame or JoinGame. Player and
// Players are only set for joins.
type Seat struct {
	Connection
	Player   Player
	Players  []Player
	Previous *Departure
}

// Departure describes what happened when a connection left.
type Departure struct {
	GameID    string
	PlayerID  string
	Role      Role
	GameEnded bool
	Players   []Player
}

type entry struct {
	mu     sync.Mutex
	game   *Game
	closed bool
}

// Registry owns every live game. Operations on one game are serialized by a
// per-game lock; different games never contend beyond the map lookup.
//
// Lock order: an entry lock may be held while taking mu, never the reverse.
type Registry struct {
	mu    sync.RWMutex
	games map[string]*entry
	conns map[string]Connection
	newID func() (string, error)
	now   func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		games: make(map[string]*entry),
		conns: make(map[string]Connection),
		newID: newGameID,
		now:   timeNowUTC,
	}
}

// CreateGame opens a lobby hosted by connectionID. A connection holds one
// seat at a time: any seat it held before is released once the lobby exists
// and reported in Seat.Previous.
func (r *Registry) CreateGame(connectionID string, difficulty Difficulty) (Seat, error) {
	hostID := uuid.NewString()
	r.mu.Lock()
	var (
		seat Seat
		prev Connection
		had  bool
	)
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := r.newID()
		if err != nil {
			r.mu.Unlock()
			return Seat{}, err
		}
		if _, taken := r.games[id]; taken {
			continue
		}
		r.games[id] = &entry{game: NewGame(id, hostID, connectionID, difficulty, r.now())}
		prev, had = r.conns[connectionID]
		seat.Connection = Connection{GameID: id, PlayerID: hostID, Role: RoleHost}
		r.conns[connectionID] = seat.Connection
		break
	}
	r.mu.Unlock()
	if seat.GameID == "" {
		return Seat{}, newError(CodeCapacity, "Could not allocate a game code")
	}
	if had {
		seat.Previous = r.vacate(prev)
	}
	return seat, nil
}

// JoinGame adds a player and returns their seat with the full roster. A
// failed join leaves the connection where it was; a successful one releases
// the connection's previous seat and reports it in Seat.Previous.
func (r *Registry) JoinGame(gameID, name, connectionID string) (Seat, error) {
	var (
		seat Seat
		prev Connection
		had  bool
	)
	err := r.Update(gameID, func(game *Game) error {
		r.mu.RLock()
		current, seated := r.conns[connectionID]
		r.mu.RUnlock()
		if seated && current.GameID == gameID {
			return newError(CodeInvalidState, "Already joined this game")
		}
		joined, err := game.AddPlayer(uuid.NewString(), name, connectionID)
		if err != nil {
			return err
		}
		seat.Connection = Connection{GameID: gameID, PlayerID: joined.ID, Role: RolePlayer}
		r.mu.Lock()
		prev, had = r.conns[connectionID]
		r.conns[connectionID] = seat.Connection
		r.mu.Unlock()
		seat.Player = joined
		seat.Players = game.Roster()
		return nil
	})
	if err != nil {
		return Seat{}, err
	}
	if had {
		seat.Previous = r.vacate(prev)
	}
	return seat, nil
}

// Update runs fn with exclusive access to the game. fn must not call back
// into the Registry for the same game except through the connection map.
func (r *Registry) Update(gameID string, fn func(game *Game) error) error {
	e := r.lookup(gameID)
	if e == nil {
		return newError(CodeNotFound, "Game not found")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return newError(CodeNotFound, "Game not found")
	}
	return fn(e.game)
}

// View runs fn with exclusive access for reading.
func (r *Registry) View(gameID string, fn func(game *Game)) error {
	return r.Update(gameID, func(game *Game) error {
		fn(game)
		return nil
	})
}

// RemoveByConnection handles a departing connection. A host leaving tears the
// game down; a player leaving is dropped from the roster. Unknown connections
// return ok=false.
func (r *Registry) RemoveByConnection(connectionID string) (Departure, bool) {
	r.mu.RLock()
	conn, known := r.conns[connectionID]
	r.mu.RUnlock()
	if !known {
		return Departure{}, false
	}
	departure := r.vacate(conn)
	r.mu.Lock()
	if r.conns[connectionID] == conn {
		delete(r.conns, connectionID)
	}
	r.mu.Unlock()
	if departure == nil {
		return Departure{}, false
	}
	return *departure, true
}

// vacate frees the seat described by conn. It returns nil when the game is
// already gone. The caller owns the connection mapping of a player seat.
func (r *Registry) vacate(conn Connection) *Departure {
	e := r.lookup(conn.GameID)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	departure := &Departure{
		GameID:   conn.GameID,
		PlayerID: conn.PlayerID,
		Role:     conn.Role,
	}
	if conn.Role == RoleHost {
		r.closeLocked(conn.GameID, e)
		departure.GameEnded = true
		return departure
	}
	e.game.RemovePlayer(conn.PlayerID)
	departure.Players = e.game.Roster()
	return departure
}

// Remove drops a game and all of its connections. It must not be called from
// inside Update for the same game.
func (r *Registry) Remove(gameID string) bool {
	e := r.lookup(gameID)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	r.closeLocked(gameID, e)
	return true
}

// Connection resolves a transport connection.
func (r *Registry) Connection(connectionID string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connectionID]
	return conn, ok
}

func (r *Registry) Exists(gameID string) bool {
	return r.lookup(gameID) != nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// Summaries lists live games, oldest first.
func (r *Registry) Summaries() []Summary {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.games))
	for _, e := range r.games {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	list := make([]Summary, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.closed {
			list = append(list, e.game.Summary())
		}
		e.mu.Unlock()
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (r *Registry) lookup(gameID string) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.games[gameID]
}

// closeLocked expects e.mu to be held.
func (r *Registry) closeLocked(gameID string, e *entry) {
	e.closed = true
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.games[gameID] == e {
		delete(r.games, gameID)
	}
	for id, conn := range r.conns {
		if conn.GameID == gameID {
			delete(r.conns, id)
		}
	}
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
