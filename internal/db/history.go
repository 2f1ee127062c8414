package db

import (
	"gorm.io/gorm"
)

const (
	DefaultRecentGames = 10
	MaxRecentGames     = 50
)

func playersByScore(tx *gorm.DB) *gorm.DB {
	return tx.Order("score DESC").Order("joined_at ASC")
}

// LatestGameByCode returns the most recent game that used code, with players.
func LatestGameByCode(conn *gorm.DB, code string) (Game, error) {
	var game Game
	err := conn.Preload("Players", playersByScore).
		Where("code = ?", code).
		Order("created_at DESC").
		First(&game).Error
	return game, err
}

// RecentGames lists the newest games first.
func RecentGames(conn *gorm.DB, limit int) ([]Game, error) {
	if limit <= 0 {
		limit = DefaultRecentGames
	}
	if limit > MaxRecentGames {
		limit = MaxRecentGames
	}
	var games []Game
	err := conn.Preload("Players", playersByScore).
		Order("created_at DESC").
		Limit(limit).
		Find(&games).Error
	return games, err
}

// GameLeaderboard ranks the players of the latest game using code.
func GameLeaderboard(conn *gorm.DB, code string) ([]Player, error) {
	game, err := LatestGameByCode(conn, code)
	if err != nil {
		return nil, err
	}
	return game.Players, nil
}

// PlayerHistory returns a player and earlier entries recorded under the same name.
func PlayerHistory(conn *gorm.DB, playerID string) (Player, []Player, error) {
	var player Player
	if err := conn.Preload("Game").Where("id = ?", playerID).First(&player).Error; err != nil {
		return Player{}, nil, err
	}
	var history []Player
	err := conn.Where("name = ? AND id <> ?", player.Name, player.ID).
		Order("created_at DESC").
		Find(&history).Error
	return player, history, err
}
