package database

import (
	"ai-terminal/internal/database/versions/migration_0"
	"ai-terminal/internal/database/versions/migration_1"
	"log"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func GetMigrator(db *gorm.DB) *gormigrate.Gormigrate {
	migrator := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID:      "0",
			Migrate: migration_0.Migration,
		},
		{
			ID:       "1",
			Migrate:  migration_1.Migration,
			Rollback: migration_1.Rollback,
		},
	})

	migrator.InitSchema(func(txn *gorm.DB) error {
		// Run by the migrator when no previous migration is detected, so a
		// clean database is created directly in its latest state.
		log.Println("clean database detected, running full schema initialization")

		return txn.AutoMigrate(&Profile{})
	})

	return migrator
}
