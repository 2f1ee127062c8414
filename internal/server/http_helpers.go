package server

import (
	"errors"
	"log"
	"net/http"

	"tune-guesser/internal/game"

	"github.com/gin-gonic/gin"
)

func statusForError(err error) int {
	switch game.CodeOf(err) {
	case game.CodeNotFound:
		return http.StatusNotFound
	case game.CodeInvalidState, game.CodeCapacity, game.CodeInsufficientPlayers, game.CodeAlreadyGuessed:
		return http.StatusConflict
	case game.CodeTimeExceeded:
		return http.StatusUnprocessableEntity
	case game.CodeCatalogUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// writeGameError answers with the user-facing message of a game error, or a
// generic message for anything else.
func writeGameError(c *gin.Context, err error, fallback string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed path=%s error=%v", c.FullPath(), err)
		writeError(c, status, fallback)
		return
	}
	writeError(c, status, err.Error())
}

// userMessage picks what a websocket client is told about err.
func userMessage(err error, action string) string {
	var gameErr *game.Error
	if errors.As(err, &gameErr) {
		return gameErr.Error()
	}
	var reqErr requestError
	if errors.As(err, &reqErr) {
		return reqErr.Error()
	}
	return "Failed to " + action + ". Please try again."
}
