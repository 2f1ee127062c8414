package db

import (
	"time"

	"gorm.io/datatypes"
)

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	GameID    uint           `gorm:"index;not null"`
	PlayerID  *string        `gorm:"size:36;index"`
	Round     int            `gorm:"not null;default:0"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
