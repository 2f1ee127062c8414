package server

import (
	"encoding/json"

	"tune-guesser/internal/game"
)

// Inbound event types.
const (
	eventCreateGame  = "createGame"
	eventJoinGame    = "joinGame"
	eventAddTrack    = "addTrack"
	eventSetReady    = "setReady"
	eventStartGame   = "startGame"
	eventSubmitGuess = "submitGuess"
	eventNextRound   = "nextRound"
	eventLeaveGame   = "leaveGame"
)

// Outbound event types.
const (
	eventGameCreated        = "gameCreated"
	eventPlayerJoined       = "playerJoined"
	eventPlayerListUpdate   = "playerListUpdate"
	eventTrackAdded         = "trackAdded"
	eventReadyPlayersUpdate = "readyPlayersUpdate"
	eventGameStarted        = "gameStarted"
	eventNewRound           = "newRound"
	eventGuessResult        = "guessResult"
	eventLeaderboardUpdate  = "leaderboardUpdate"
	eventRoundComplete      = "roundComplete"
	eventTimeUpdate         = "timeUpdate"
	eventGameEnd            = "gameEnd"
	eventGameEnded          = "gameEnded"
	eventError              = "error"
)

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wsEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type createGamePayload struct {
	Difficulty string `json:"difficulty" binding:"omitempty,difficulty"`
}

type joinGamePayload struct {
	GameID     string `json:"gameId" binding:"required"`
	PlayerName string `json:"playerName" binding:"required,name"`
}

type addTrackPayload struct {
	GameID   string      `json:"gameId" binding:"required"`
	PlayerID string      `json:"playerId" binding:"required"`
	Track    *game.Track `json:"track"`
	TrackID  string      `json:"trackId"`
}

type setReadyPayload struct {
	GameID   string `json:"gameId" binding:"required"`
	PlayerID string `json:"playerId" binding:"required"`
	IsReady  *bool  `json:"isReady" binding:"required"`
}

type gamePayload struct {
	GameID string `json:"gameId" binding:"required"`
}

type submitGuessPayload struct {
	GameID   string `json:"gameId" binding:"required"`
	PlayerID string `json:"playerId" binding:"required"`
	Guess    string `json:"guess" binding:"required,guess"`
}

type leaveGamePayload struct {
	GameID   string `json:"gameId" binding:"required"`
	PlayerID string `json:"playerId" binding:"required"`
}

type gameCreatedEvent struct {
	GameID string `json:"gameId"`
	HostID string `json:"hostId"`
}

type playerJoinedEvent struct {
	PlayerID string        `json:"playerId"`
	GameID   string        `json:"gameId"`
	Players  []game.Player `json:"players"`
	Player   game.Player   `json:"player"`
}

type playersEvent struct {
	Players []game.Player `json:"players"`
}

type tracksEvent struct {
	Tracks []game.Track `json:"tracks"`
}

type readyPlayersEvent struct {
	ReadyPlayers []string `json:"readyPlayers"`
}

type gameStartedEvent struct {
	RoundInfo game.RoundInfo `json:"roundInfo"`
}

type newRoundEvent struct {
	Track     game.RoundTrack `json:"track"`
	RoundInfo game.RoundInfo  `json:"roundInfo"`
	TimeLimit int             `json:"timeLimit"`
	LastTrack *game.Track     `json:"lastTrack,omitempty"`
}

type leaderboardEvent struct {
	Leaderboard []game.LeaderboardEntry `json:"leaderboard"`
}

type roundCompleteEvent struct {
	Track     game.Track     `json:"track"`
	RoundInfo game.RoundInfo `json:"roundInfo"`
}

type timeUpdateEvent struct {
	TimeLeft int `json:"timeLeft"`
}

type gameEndEvent struct {
	FinalLeaderboard []game.LeaderboardEntry `json:"finalLeaderboard"`
	LastTrack        *game.Track             `json:"lastTrack,omitempty"`
}

type messageEvent struct {
	Message string `json:"message"`
}

// EventPayload is the jsonb body stored with each recorded game event.
type EventPayload struct {
	GameID      string  `json:"game_id,omitempty"`
	PlayerID    string  `json:"player_id,omitempty"`
	PlayerName  string  `json:"player,omitempty"`
	Status      string  `json:"status,omitempty"`
	Difficulty  string  `json:"difficulty,omitempty"`
	TotalRounds int     `json:"total_rounds,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	Guess       string  `json:"guess,omitempty"`
	Correct     bool    `json:"correct,omitempty"`
	Points      int     `json:"points,omitempty"`
	NewScore    int     `json:"new_score,omitempty"`
	ArtistScore float64 `json:"artist_score,omitempty"`
	TrackScore  float64 `json:"track_score,omitempty"`
	Elapsed     float64 `json:"elapsed,omitempty"`
}
