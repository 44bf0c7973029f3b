package database

import (
	"ai-terminal/pkg/models"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileStore keeps profiles in a database the service connects to directly,
// as an alternative to going through PostgREST.
type ProfileStore struct {
	db *gorm.DB
}

func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Insert(ctx context.Context, profile models.Profile) error {
	row := Profile{Id: profile.Id, Name: profile.Name, Email: profile.Email}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %w", models.ErrDuplicateProfile, err)
		}
		return fmt.Errorf("error inserting profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) FindByName(ctx context.Context, name string) (*models.Profile, error) {
	return s.findOne(ctx, "name = ?", name)
}

func (s *ProfileStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *ProfileStore) findOne(ctx context.Context, query string, arg any) (*models.Profile, error) {
	var row Profile
	if err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrProfileNotFound
		}
		return nil, fmt.Errorf("error querying profile: %w", err)
	}
	return &models.Profile{Id: row.Id, Name: row.Name, Email: row.Email}, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
