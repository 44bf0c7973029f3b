package models

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrDuplicateProfile = errors.New("profile already exists")
)

// Profile is the application-level user record. It shares its id with the
// identity held by the auth service.
type Profile struct {
	Id    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}
