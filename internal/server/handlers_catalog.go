package server

import (
	"net/http"
	"strings"

	"tune-guesser/internal/catalog"

	"github.com/gin-gonic/gin"
)

type searchQuery struct {
	Q     string `form:"q"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

type popularQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type trackURI struct {
	TrackID string `uri:"trackID" binding:"required"`
}

type recommendationsRequest struct {
	SeedTracks []string `json:"seed_tracks" binding:"max=5"`
	Limit      int      `json:"limit" binding:"omitempty,min=1,max=50"`
}

func (s *Server) handleTrackSearch(c *gin.Context) {
	var query searchQuery
	if !bindQuery(c, &query, bindMessages{
		"Limit": {"min": "limit must be between 1 and 50", "max": "limit must be between 1 and 50"},
	}, "invalid search") {
		return
	}
	q := strings.TrimSpace(query.Q)
	if q == "" {
		writeError(c, http.StatusBadRequest, "Search query is required")
		return
	}
	result, err := s.catalog.Search(c.Request.Context(), q, query.Limit)
	if err != nil {
		writeGameError(c, err, "Failed to search tracks.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tracks": result.Tracks,
		"total":  result.Total,
		"query":  q,
	})
}

func (s *Server) handleTrack(c *gin.Context) {
	var uri trackURI
	if !bindURI(c, &uri) {
		return
	}
	track, err := s.catalog.Track(c.Request.Context(), uri.TrackID)
	if err != nil {
		writeGameError(c, err, "Failed to get track.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"track": track})
}

func (s *Server) handlePopularTracks(c *gin.Context) {
	var query popularQuery
	if !bindQuery(c, &query, bindMessages{
		"Limit": {"min": "limit must be between 1 and 100", "max": "limit must be between 1 and 100"},
	}, "invalid limit") {
		return
	}
	tracks, err := s.catalog.Popular(c.Request.Context(), query.Limit)
	if err != nil {
		writeGameError(c, err, "Failed to get popular tracks.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

func (s *Server) handleRecommendations(c *gin.Context) {
	var req recommendationsRequest
	if !bindJSON(c, &req, bindMessages{
		"SeedTracks": {"max": "at most 5 seed tracks are allowed"},
	}, "invalid recommendations request") {
		return
	}
	limit := req.Limit
	if limit == 0 {
		limit = catalog.DefaultSearchLimit
	}
	tracks, err := s.catalog.Recommendations(c.Request.Context(), req.SeedTracks, limit)
	if err != nil {
		writeGameError(c, err, "Failed to get recommendations.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

func (s *Server) handleCatalogStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"configured": s.cfg.DeezerBaseURL != "",
		"api":        "Deezer",
		"status":     "Ready",
	})
}
