package server

import (
	"net/http"

	"tune-guesser/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleHome(c *gin.Context) {
	templ.Handler(web.Home(s.homeSummaries())).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"games":  s.games.Len(),
	})
}

func (s *Server) handleLiveGames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": s.homeSummaries()})
}

func (s *Server) homeSummaries() []web.GameSummary {
	summaries := make([]web.GameSummary, 0)
	for _, game := range s.games.Summaries() {
		summaries = append(summaries, web.GameSummary{
			ID:          game.ID,
			Status:      string(game.Status),
			Difficulty:  string(game.Difficulty),
			Players:     game.Players,
			Tracks:      game.Tracks,
			Round:       game.Round,
			TotalRounds: game.TotalRounds,
			CreatedAt:   game.CreatedAt,
		})
	}
	return summaries
}
