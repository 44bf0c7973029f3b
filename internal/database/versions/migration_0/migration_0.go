package migration_0

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Profile struct {
	Id    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name  string    `gorm:"size:255;not null;uniqueIndex"`
	Email string    `gorm:"size:255;not null"`
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&Profile{}); err != nil {
		return fmt.Errorf("error creating profiles table: %w", err)
	}
	return nil
}
