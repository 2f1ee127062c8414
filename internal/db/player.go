package db

import "time"

type Player struct {
	ID             string    `gorm:"primaryKey;size:36"`
	GameID         uint      `gorm:"index;not null"`
	Name           string    `gorm:"size:64;not null;index"`
	Score          int       `gorm:"not null;default:0"`
	CorrectGuesses int       `gorm:"not null;default:0"`
	JoinedAt       time.Time `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
	Game           *Game     `gorm:"foreignKey:GameID"`
}
