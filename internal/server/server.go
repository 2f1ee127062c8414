package server

import (
	"maps"
	"net/http"
	"strings"
	"time"

	"tune-guesser/internal/catalog"
	"tune-guesser/internal/config"
	"tune-guesser/internal/game"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	games     *game.Registry
	scheduler *game.Scheduler
	ws        *wsHub
	handlers  map[string]wsHandler
	catalog   catalog.Provider
	recorder  *Recorder
	db        *gorm.DB
	cfg       config.Config
	now       func() time.Time
}

// New wires the live game state to its collaborators. conn and provider may be
// nil; history endpoints then answer 503 and tracks must be sent in full.
func New(conn *gorm.DB, provider catalog.Provider, cfg config.Config) *Server {
	registerValidators()
	if provider == nil {
		provider = catalog.NewFallback()
	}
	s := &Server{
		games:    game.NewRegistry(),
		ws:       newWSHub(),
		handlers: maps.Clone(wsHandlers),
		catalog:  provider,
		recorder: NewRecorder(conn, cfg.PersistQueueSize),
		db:       conn,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.scheduler = game.NewScheduler(cfg.TickInterval(), s.roundTick, s.roundExpired)
	return s
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(s.cfg.ClientURL),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/", s.handleHome)
	router.GET("/ws", s.handleWebsocket)

	api := router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/games", s.handleLiveGames)

	history := api.Group("/game")
	history.GET("/", s.handleRecentGames)
	history.GET("/:gameID", s.handleGameRecord)
	history.GET("/:gameID/leaderboard", s.handleGameLeaderboard)
	history.GET("/player/:playerID", s.handlePlayerHistory)

	tracks := api.Group("/deezer")
	tracks.GET("/search", s.handleTrackSearch)
	tracks.GET("/track/:trackID", s.handleTrack)
	tracks.GET("/popular", s.handlePopularTracks)
	tracks.POST("/recommendations", s.handleRecommendations)
	tracks.GET("/status", s.handleCatalogStatus)

	return router
}

// Close stops every countdown and flushes pending history writes.
func (s *Server) Close() {
	s.scheduler.Stop()
	s.recorder.Close()
}

func allowedOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = append(origins, "http://localhost:3000")
	}
	return origins
}
