package migration_1

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Profile struct {
	Email        string    `gorm:"size:255;not null;index"`
	CreationTime time.Time `gorm:"autoCreateTime"`
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().AddColumn(&Profile{}, "CreationTime"); err != nil {
		return fmt.Errorf("error adding CreationTime column: %w", err)
	}

	if err := db.Migrator().CreateIndex(&Profile{}, "Email"); err != nil {
		return fmt.Errorf("error creating email index: %w", err)
	}

	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropIndex(&Profile{}, "Email"); err != nil {
		return fmt.Errorf("error dropping email index: %w", err)
	}

	if err := db.Migrator().DropColumn(&Profile{}, "CreationTime"); err != nil {
		return fmt.Errorf("error dropping CreationTime column: %w", err)
	}

	return nil
}
