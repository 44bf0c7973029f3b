package validation

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const SpecialCharacters = `!@#$%^&*(),.?":{}|<>`

const MinPasswordLength = 8

var (
	ErrMissingFields    = errors.New("All fields are required.")
	ErrPasswordMismatch = errors.New("Passwords do not match.")
	ErrPasswordLength   = errors.New("Password must be at least 8 characters long.")
	ErrNoUppercase      = errors.New("Password must contain at least one uppercase letter.")
	ErrNoLowercase      = errors.New("Password must contain at least one lowercase letter.")
	ErrNoDigit          = errors.New("Password must contain at least one number.")
	ErrNoSpecial        = errors.New("Password must contain at least one special character.")
)

// Placeholders used when only a password needs checking.
const (
	placeholderUsername = "placeholder"
	placeholderEmail    = "placeholder@example.com"
)

// ValidateRegistration applies the registration rules in order and returns the
// first one that fails, or nil if the payload is acceptable.
func ValidateRegistration(username, email, password, confirmPassword string) error {
	if username == "" || email == "" || password == "" || confirmPassword == "" {
		return ErrMissingFields
	}

	if password != confirmPassword {
		return ErrPasswordMismatch
	}

	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordLength
	}

	if !containsFunc(password, unicode.IsUpper) {
		return ErrNoUppercase
	}

	if !containsFunc(password, unicode.IsLower) {
		return ErrNoLowercase
	}

	if !containsFunc(password, unicode.IsDigit) {
		return ErrNoDigit
	}

	if !strings.ContainsAny(password, SpecialCharacters) {
		return ErrNoSpecial
	}

	return nil
}

// ValidatePassword checks a bare password (e.g. during a reset) with the same
// rules as registration.
func ValidatePassword(password, confirmPassword string) error {
	return ValidateRegistration(placeholderUsername, placeholderEmail, password, confirmPassword)
}

func containsFunc(s string, f func(rune) bool) bool {
	return strings.IndexFunc(s, f) >= 0
}
