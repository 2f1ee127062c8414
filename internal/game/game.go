package game

import (
	"math/rand/v2"
	"sort"
	"time"
)

// Game is one session's live state. It is not safe for concurrent use; the
// Registry serializes every access.
type Game struct {
	ID               string
	HostID           string
	HostConnectionID string
	Status           Status
	Difficulty       Difficulty
	TimeLimitSeconds int
	Players          []Player
	Tracks           []Track
	CurrentRound     int
	TotalRounds      int
	ActiveTrack      *Track
	RoundStartedAt   time.Time
	CreatedAt        time.Time
	EndedAt          time.Time

	revealed bool
}

func NewGame(id, hostID, hostConnectionID string, difficulty Difficulty, at time.Time) *Game {
	return &Game{
		ID:               id,
		HostID:           hostID,
		HostConnectionID: hostConnectionID,
		Status:           StatusLobby,
		Difficulty:       difficulty,
		TimeLimitSeconds: difficulty.TimeLimit(),
		CreatedAt:        at,
	}
}

// AddPlayer appends a new player to the lobby roster.
func (g *Game) AddPlayer(id, name, connectionID string) (Player, error) {
	if g.Status != StatusLobby {
		return Player{}, newError(CodeInvalidState, "Game already started")
	}
	if len(g.Players) >= MaxPlayers {
		return Player{}, newError(CodeCapacity, "Game is full")
	}
	player := Player{
		ID:           id,
		Name:         name,
		Role:         RolePlayer,
		Color:        pickPlayerColor(len(g.Players)),
		ConnectionID: connectionID,
	}
	g.Players = append(g.Players, player)
	return player, nil
}

// RemovePlayer drops a player from the roster. Their tracks stay in the pool.
func (g *Game) RemovePlayer(playerID string) bool {
	for i := range g.Players {
		if g.Players[i].ID == playerID {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			return true
		}
	}
	return false
}

func (g *Game) FindPlayer(playerID string) (*Player, bool) {
	for i := range g.Players {
		if g.Players[i].ID == playerID {
			return &g.Players[i], true
		}
	}
	return nil, false
}

// IsParticipant reports whether id is the host or a player of this game.
func (g *Game) IsParticipant(id string) bool {
	if id != "" && id == g.HostID {
		return true
	}
	_, ok := g.FindPlayer(id)
	return ok
}

// AddTrack puts a track into the pool on behalf of a participant.
func (g *Game) AddTrack(track Track, playerID string) ([]Track, error) {
	if g.Status != StatusLobby {
		return nil, newError(CodeInvalidState, "Cannot add tracks after game started")
	}
	if !g.IsParticipant(playerID) {
		return nil, newError(CodeNotFound, "Player not found")
	}
	added := 0
	for _, existing := range g.Tracks {
		if existing.AddedBy == playerID {
			added++
		}
	}
	if added >= MaxTracksPerPlayer {
		return nil, newError(CodeCapacity, "Maximum tracks per player reached")
	}
	track.AddedBy = playerID
	g.Tracks = append(g.Tracks, track)
	return g.TrackPool(), nil
}

// TrackPool returns a copy of the pool.
func (g *Game) TrackPool() []Track {
	return append([]Track(nil), g.Tracks...)
}

// SetReady updates a player's ready flag and returns the ids of ready players.
func (g *Game) SetReady(playerID string, ready bool) ([]string, error) {
	if g.Status != StatusLobby {
		return nil, newError(CodeInvalidState, "Game already started")
	}
	player, ok := g.FindPlayer(playerID)
	if !ok {
		return nil, newError(CodeNotFound, "Player not found")
	}
	player.Ready = ready
	return g.ReadyPlayers(), nil
}

func (g *Game) ReadyPlayers() []string {
	ready := make([]string, 0, len(g.Players))
	for _, player := range g.Players {
		if player.Ready {
			ready = append(ready, player.ID)
		}
	}
	return ready
}

// ShouldAutoStart reports whether every player in a big enough lobby is ready.
func (g *Game) ShouldAutoStart() bool {
	if g.Status != StatusLobby || len(g.Players) < MinPlayers {
		return false
	}
	for _, player := range g.Players {
		if !player.Ready {
			return false
		}
	}
	return true
}

// Start shuffles the pool and moves the game to playing. A nil rng uses the
// package-level source.
func (g *Game) Start(rng *rand.Rand) error {
	if g.Status != StatusLobby {
		return newError(CodeInvalidState, "Game already started")
	}
	if len(g.Players) < MinPlayers {
		return newError(CodeInsufficientPlayers, "Need at least 2 players to start")
	}
	swap := func(i, j int) {
		g.Tracks[i], g.Tracks[j] = g.Tracks[j], g.Tracks[i]
	}
	if rng != nil {
		rng.Shuffle(len(g.Tracks), swap)
	} else {
		rand.Shuffle(len(g.Tracks), swap)
	}
	g.TotalRounds = min(len(g.Tracks), MaxRounds)
	g.CurrentRound = 0
	g.Status = StatusPlaying
	return nil
}

// AdvanceRound moves to the next track. When no rounds are left it returns
// finished=true and leaves the game untouched; the caller then calls Finish.
func (g *Game) AdvanceRound(at time.Time) (Round, bool, error) {
	if g.Status != StatusPlaying {
		return Round{}, false, newError(CodeInvalidState, "Game is not in progress")
	}
	if g.CurrentRound >= g.TotalRounds {
		return Round{}, true, nil
	}
	g.CurrentRound++
	track := g.Tracks[g.CurrentRound-1]
	g.ActiveTrack = &track
	g.RoundStartedAt = at
	g.revealed = false
	for i := range g.Players {
		g.Players[i].CurrentGuess = nil
		g.Players[i].GuessElapsed = 0
	}
	return g.CurrentRoundView(), false, nil
}

// CurrentRoundView is the client-safe view of the active round.
func (g *Game) CurrentRoundView() Round {
	round := Round{
		Info:      g.RoundInfo(),
		TimeLimit: g.TimeLimitSeconds,
		StartedAt: g.RoundStartedAt,
	}
	if g.ActiveTrack != nil {
		round.Track = g.ActiveTrack.Hidden()
	}
	return round
}

func (g *Game) RoundInfo() RoundInfo {
	return RoundInfo{Current: g.CurrentRound, Total: g.TotalRounds}
}

// EffectiveTimeLimit is the base limit plus the difficulty grace window.
func (g *Game) EffectiveTimeLimit() int {
	return g.TimeLimitSeconds + g.Difficulty.GraceSeconds()
}

// SubmitGuess scores a player's single guess for the active round.
func (g *Game) SubmitGuess(playerID, text string, at time.Time) (GuessResult, error) {
	if g.Status != StatusPlaying || g.ActiveTrack == nil {
		return GuessResult{}, newError(CodeInvalidState, "No round in progress")
	}
	player, ok := g.FindPlayer(playerID)
	if !ok {
		return GuessResult{}, newError(CodeNotFound, "Player not found")
	}
	if player.HasGuessed() {
		return GuessResult{}, newError(CodeAlreadyGuessed, "Already submitted guess for this round")
	}
	elapsed := at.Sub(g.RoundStartedAt).Seconds()
	if elapsed > float64(g.EffectiveTimeLimit()) {
		return GuessResult{}, newError(CodeTimeExceeded, "Time limit exceeded")
	}

	guess := text
	player.CurrentGuess = &guess
	player.GuessElapsed = elapsed

	score := ScoreGuess(text, *g.ActiveTrack)
	points := Points(score.Total, elapsed, g.TimeLimitSeconds)
	player.Score += points
	if score.Correct() {
		player.CorrectGuesses++
	}
	return GuessResult{
		PlayerID: player.ID,
		Guess:    text,
		Correct:  score.Correct(),
		Points:   points,
		NewScore: player.Score,
		Elapsed:  elapsed,
		Score:    score,
	}, nil
}

// AllGuessed reports whether every player has used their guess this round.
func (g *Game) AllGuessed() bool {
	if g.ActiveTrack == nil || len(g.Players) == 0 {
		return false
	}
	for _, player := range g.Players {
		if !player.HasGuessed() {
			return false
		}
	}
	return true
}

// RevealRound returns the active track the first time it is called for round.
// Later calls, or calls for a round that is no longer current, report false.
func (g *Game) RevealRound(round int) (Track, bool) {
	if g.Status != StatusPlaying || g.ActiveTrack == nil || g.CurrentRound != round || g.revealed {
		return Track{}, false
	}
	g.revealed = true
	return *g.ActiveTrack, true
}

// Leaderboard ranks players by score; ties keep roster order.
func (g *Game) Leaderboard() []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(g.Players))
	for _, player := range g.Players {
		entries = append(entries, LeaderboardEntry{
			ID:             player.ID,
			Name:           player.Name,
			Score:          player.Score,
			CorrectGuesses: player.CorrectGuesses,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

// Finish ends a game in progress and returns the final leaderboard.
func (g *Game) Finish(at time.Time) ([]LeaderboardEntry, error) {
	if g.Status != StatusPlaying {
		return nil, newError(CodeInvalidState, "Game is not in progress")
	}
	g.Status = StatusFinished
	g.ActiveTrack = nil
	g.EndedAt = at
	return g.Leaderboard(), nil
}

// Roster returns a copy of the players in join order.
func (g *Game) Roster() []Player {
	return append([]Player(nil), g.Players...)
}

func (g *Game) Summary() Summary {
	return Summary{
		ID:          g.ID,
		Status:      g.Status,
		Difficulty:  g.Difficulty,
		Players:     len(g.Players),
		Tracks:      len(g.Tracks),
		Round:       g.CurrentRound,
		TotalRounds: g.TotalRounds,
		CreatedAt:   g.CreatedAt,
	}
}
