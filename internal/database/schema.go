package database

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"size:255;not null;uniqueIndex"`
	Email        string    `gorm:"size:255;not null;index"`
	CreationTime time.Time `gorm:"autoCreateTime"`
}
