package web

import (
	"strconv"
	"time"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format("15:04")
}

func roundLabel(game GameSummary) string {
	switch game.Status {
	case "lobby":
		return "Lobby"
	case "playing":
		return "Round " + itoa(game.Round) + " of " + itoa(game.TotalRounds)
	default:
		return "Finished"
	}
}
