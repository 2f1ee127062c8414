package game

import (
	"strings"
	"time"
)

type Status string

const (
	StatusLobby    Status = "lobby"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

const (
	MaxPlayers         = 8
	MinPlayers         = 2
	MaxTracksPerPlayer = 10
	MaxRounds          = 20
	CorrectThreshold   = 0.8
	hardGraceSeconds   = 5
)

// ParseDifficulty maps free text to a difficulty; unknown values are medium.
func ParseDifficulty(raw string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(raw))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// TimeLimit is the base round length in seconds.
func (d Difficulty) TimeLimit() int {
	switch d {
	case DifficultyEasy:
		return 30
	case DifficultyHard:
		return 5
	default:
		return 15
	}
}

// GraceSeconds is added to the base limit when accepting guesses.
func (d Difficulty) GraceSeconds() int {
	if d == DifficultyHard {
		return hardGraceSeconds
	}
	return 0
}

type Artist struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type Album struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	PreviewURL string   `json:"preview_url"`
	DurationMs int      `json:"duration_ms"`
	Popularity int      `json:"popularity,omitempty"`
	AddedBy    string   `json:"added_by,omitempty"`
}

// ArtistNames joins the artist names for display and storage.
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, artist := range t.Artists {
		if artist.Name != "" {
			names = append(names, artist.Name)
		}
	}
	return strings.Join(names, ", ")
}

// Hidden strips everything that would give the answer away.
func (t Track) Hidden() RoundTrack {
	return RoundTrack{
		ID:         t.ID,
		PreviewURL: t.PreviewURL,
		Album:      Album{ID: t.Album.ID, Images: t.Album.Images},
	}
}

// RoundTrack is the part of a track clients may see while it is guessable.
type RoundTrack struct {
	ID         string `json:"id"`
	PreviewURL string `json:"preview_url"`
	Album      Album  `json:"album"`
}

type Player struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Role           Role    `json:"role"`
	Color          string  `json:"color"`
	Score          int     `json:"score"`
	CorrectGuesses int     `json:"correct_guesses"`
	Ready          bool    `json:"ready"`
	ConnectionID   string  `json:"-"`
	CurrentGuess   *string `json:"-"`
	GuessElapsed   float64 `json:"-"`
}

// HasGuessed reports whether the player used their guess this round.
func (p Player) HasGuessed() bool {
	return p.CurrentGuess != nil
}

type RoundInfo struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Round is the public view of the active round.
type Round struct {
	Info      RoundInfo  `json:"roundInfo"`
	Track     RoundTrack `json:"track"`
	TimeLimit int        `json:"timeLimit"`
	StartedAt time.Time  `json:"startedAt"`
}

type GuessResult struct {
	PlayerID string  `json:"playerId"`
	Guess    string  `json:"guess"`
	Correct  bool    `json:"correct"`
	Points   int     `json:"points"`
	NewScore int     `json:"newScore"`
	Elapsed  float64 `json:"elapsed"`
	Score    Score   `json:"score"`
}

type LeaderboardEntry struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Score          int    `json:"score"`
	CorrectGuesses int    `json:"correct_guesses"`
}

type Summary struct {
	ID          string     `json:"id"`
	Status      Status     `json:"status"`
	Difficulty  Difficulty `json:"difficulty"`
	Players     int        `json:"players"`
	Tracks      int        `json:"tracks"`
	Round       int        `json:"round"`
	TotalRounds int        `json:"total_rounds"`
	CreatedAt   time.Time  `json:"created_at"`
}
