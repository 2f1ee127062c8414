package web

import "time"

type GameSummary struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Difficulty  string    `json:"difficulty"`
	Players     int       `json:"players"`
	Tracks      int       `json:"tracks"`
	Round       int       `json:"round"`
	TotalRounds int       `json:"total_rounds"`
	CreatedAt   time.Time `json:"created_at"`
}
