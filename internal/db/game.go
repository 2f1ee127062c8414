package db

import "time"

type Game struct {
	ID          uint       `gorm:"primaryKey"`
	Code        string     `gorm:"size:12;index;not null"`
	HostID      string     `gorm:"size:36;not null"`
	Status      string     `gorm:"size:32;not null"`
	Difficulty  string     `gorm:"size:16;not null"`
	TotalRounds int        `gorm:"not null;default:0"`
	EndedAt     *time.Time `gorm:"index"`
	CreatedAt   time.Time  `gorm:"not null;index"`
	UpdatedAt   time.Time  `gorm:"not null"`
	Players     []Player
	Events      []Event
}
