package server

import (
	"errors"
	"net/http"
	"time"

	"tune-guesser/internal/db"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type gameURI struct {
	GameID string `uri:"gameID" binding:"required"`
}

type playerURI struct {
	PlayerID string `uri:"playerID" binding:"required,uuid"`
}

type recentGamesQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

type playerRecord struct {
	ID             string    `json:"id"`
	GameID         uint      `json:"game_id"`
	Name           string    `json:"name"`
	Score          int       `json:"score"`
	CorrectGuesses int       `json:"correct_guesses"`
	JoinedAt       time.Time `json:"joined_at"`
}

type gameRecord struct {
	ID          uint           `json:"id"`
	Code        string         `json:"code"`
	HostID      string         `json:"host_id"`
	Status      string         `json:"status"`
	Difficulty  string         `json:"difficulty"`
	TotalRounds int            `json:"total_rounds"`
	CreatedAt   time.Time      `json:"created_at"`
	EndedAt     *time.Time     `json:"ended_at"`
	Players     []playerRecord `json:"players"`
}

func (s *Server) requireDB(c *gin.Context) bool {
	if s.db == nil {
		writeError(c, http.StatusServiceUnavailable, "Database not configured.")
		return false
	}
	return true
}

func (s *Server) handleRecentGames(c *gin.Context) {
	if !s.requireDB(c) {
		return
	}
	var query recentGamesQuery
	if !bindQuery(c, &query, bindMessages{
		"Limit": {"min": "limit must be a positive number"},
	}, "invalid limit") {
		return
	}
	games, err := db.RecentGames(s.db.WithContext(c.Request.Context()), query.Limit)
	if err != nil {
		writeGameError(c, err, "Failed to get games.")
		return
	}
	records := make([]gameRecord, 0, len(games))
	for _, game := range games {
		records = append(records, toGameRecord(game))
	}
	c.JSON(http.StatusOK, gin.H{"games": records})
}

func (s *Server) handleGameRecord(c *gin.Context) {
	if !s.requireDB(c) {
		return
	}
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	game, err := db.LatestGameByCode(s.db.WithContext(c.Request.Context()), uri.GameID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(c, http.StatusNotFound, "Game not found")
		return
	}
	if err != nil {
		writeGameError(c, err, "Failed to get game.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": toGameRecord(game)})
}

func (s *Server) handleGameLeaderboard(c *gin.Context) {
	if !s.requireDB(c) {
		return
	}
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	players, err := db.GameLeaderboard(s.db.WithContext(c.Request.Context()), uri.GameID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(c, http.StatusNotFound, "Game not found")
		return
	}
	if err != nil {
		writeGameError(c, err, "Failed to get leaderboard.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": toPlayerRecords(players)})
}

func (s *Server) handlePlayerHistory(c *gin.Context) {
	if !s.requireDB(c) {
		return
	}
	var uri playerURI
	if !bindURI(c, &uri) {
		return
	}
	player, history, err := db.PlayerHistory(s.db.WithContext(c.Request.Context()), uri.PlayerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(c, http.StatusNotFound, "Player not found")
		return
	}
	if err != nil {
		writeGameError(c, err, "Failed to get player stats.")
		return
	}
	response := gin.H{
		"player":  toPlayerRecord(player),
		"history": toPlayerRecords(history),
	}
	if player.Game != nil {
		response["game"] = gin.H{
			"code":       player.Game.Code,
			"status":     player.Game.Status,
			"created_at": player.Game.CreatedAt,
			"ended_at":   player.Game.EndedAt,
		}
	}
	c.JSON(http.StatusOK, response)
}

func toGameRecord(game db.Game) gameRecord {
	return gameRecord{
		ID:          game.ID,
		Code:        game.Code,
		HostID:      game.HostID,
		Status:      game.Status,
		Difficulty:  game.Difficulty,
		TotalRounds: game.TotalRounds,
		CreatedAt:   game.CreatedAt,
		EndedAt:     game.EndedAt,
		Players:     toPlayerRecords(game.Players),
	}
}

func toPlayerRecords(players []db.Player) []playerRecord {
	records := make([]playerRecord, 0, len(players))
	for _, player := range players {
		records = append(records, toPlayerRecord(player))
	}
	return records
}

func toPlayerRecord(player db.Player) playerRecord {
	return playerRecord{
		ID:             player.ID,
		GameID:         player.GameID,
		Name:           player.Name,
		Score:          player.Score,
		CorrectGuesses: player.CorrectGuesses,
		JoinedAt:       player.JoinedAt,
	}
}
