package auth

import (
	"ai-terminal/pkg/models"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

type Kind int

const (
	KindUnclassified Kind = iota
	KindUnavailable
	KindValidation
	KindDuplicateAccount
	KindInvalidCredentials
	KindRateLimited
	KindMissingResetToken
	KindExpiredToken
	KindSamePassword
	KindRegistrationFailed
	KindResetRequestFailed
	KindUpdateFailed
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindValidation:
		return "validation"
	case KindDuplicateAccount:
		return "duplicate_account"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindRateLimited:
		return "rate_limited"
	case KindMissingResetToken:
		return "missing_reset_token"
	case KindExpiredToken:
		return "expired_token"
	case KindSamePassword:
		return "same_password"
	case KindRegistrationFailed:
		return "registration_failed"
	case KindResetRequestFailed:
		return "reset_request_failed"
	case KindUpdateFailed:
		return "update_failed"
	default:
		return "unclassified"
	}
}

// Error is the only error type the gateway returns. Error() is safe to show
// to the user.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnavailable:
		return "Database not available. Please contact support."
	case KindValidation:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "Invalid input."
	case KindDuplicateAccount:
		return "An account with this username or email already exists."
	case KindInvalidCredentials:
		return "Invalid username or password."
	case KindRateLimited:
		return "Too many attempts. Please wait a moment before trying again."
	case KindMissingResetToken:
		return "Invalid or missing reset token. Please request a new password reset link."
	case KindExpiredToken:
		return "Your password reset link has expired. Please request a new one."
	case KindSamePassword:
		return "New password must be different from your current password."
	case KindRegistrationFailed:
		return "Registration failed: " + e.rawMessage()
	case KindResetRequestFailed:
		return "Failed to send password reset email. Please try again later."
	case KindUpdateFailed:
		return "Failed to update password. Please try again."
	default:
		return "An unexpected error occurred: " + e.rawMessage() + ". Please contact support."
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) rawMessage() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func KindOf(err error) Kind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindUnclassified
}

// HTTPStatus maps a kind onto the status used by JSON endpoints.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindMissingResetToken, KindSamePassword:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindExpiredToken:
		return http.StatusUnauthorized
	case KindDuplicateAccount:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type statusCoder interface {
	StatusCode() int
}

type errorCoder interface {
	ErrorCode() string
}

// Upstream error codes, matched before falling back to message text.
var codeKinds = map[string]Kind{
	"23505":                      KindDuplicateAccount,
	"user_already_exists":        KindDuplicateAccount,
	"email_exists":               KindDuplicateAccount,
	"over_email_send_rate_limit": KindRateLimited,
	"over_request_rate_limit":    KindRateLimited,
	"over_sms_send_rate_limit":   KindRateLimited,
	"invalid_credentials":        KindInvalidCredentials,
	"same_password":              KindSamePassword,
	"bad_jwt":                    KindExpiredToken,
	"session_expired":            KindExpiredToken,
	"session_not_found":          KindExpiredToken,
	"refresh_token_not_found":    KindExpiredToken,
	"refresh_token_already_used": KindExpiredToken,
	"otp_expired":                KindExpiredToken,
}

// Message fragments, lower-cased, checked in order.
var textKinds = []struct {
	fragment string
	kind     Kind
}{
	{"duplicate key", KindDuplicateAccount},
	{"unique constraint", KindDuplicateAccount},
	{"already registered", KindDuplicateAccount},
	{"already exists", KindDuplicateAccount},
	{"for security purposes, you can only request this", KindRateLimited},
	{"rate limit", KindRateLimited},
	{"should be different from the old password", KindSamePassword},
	{"same password", KindSamePassword},
	{"invalid login credentials", KindInvalidCredentials},
	{"expired", KindExpiredToken},
	{"invalid jwt", KindExpiredToken},
	{"invalid refresh token", KindExpiredToken},
}

// Classify maps an upstream error onto a Kind. It is the only place that
// inspects upstream codes and message text; fallback is returned when nothing
// matches.
func Classify(err error, fallback Kind) Kind {
	if err == nil {
		return fallback
	}

	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}

	if errors.Is(err, models.ErrDuplicateProfile) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return KindDuplicateAccount
	}

	var coder errorCoder
	if errors.As(err, &coder) {
		if kind, ok := codeKinds[coder.ErrorCode()]; ok {
			return kind
		}
	}

	var status statusCoder
	if errors.As(err, &status) && status.StatusCode() == http.StatusTooManyRequests {
		return KindRateLimited
	}

	msg := strings.ToLower(err.Error())
	for _, tk := range textKinds {
		if strings.Contains(msg, tk.fragment) {
			return tk.kind
		}
	}

	return fallback
}

func classified(err error, fallback Kind) *Error {
	return newError(Classify(err, fallback), err)
}

func unavailable(op string) *Error {
	return newError(KindUnavailable, fmt.Errorf("%s: identity provider is not configured", op))
}
