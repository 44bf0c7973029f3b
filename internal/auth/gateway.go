package auth

import (
	"ai-terminal/pkg/models"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// IdentityProvider is the external auth service holding credentials.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	SetSession(ctx context.Context, accessToken, refreshToken string) (string, error)
	UpdatePassword(ctx context.Context, accessToken, password string) error
	DeleteUser(ctx context.Context, userID string) error
}

type ProfileStore interface {
	Insert(ctx context.Context, profile models.Profile) error
	FindByName(ctx context.Context, name string) (*models.Profile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

var (
	ErrMissingResetToken = errors.New("access token and refresh token are required")
	ErrEmailRequired     = errors.New("Email is required.")
	ErrCredentials       = errors.New("Username and password are required.")
)

// Gateway normalizes the identity provider and profile store into a small set
// of account operations. A Gateway without an identity provider is
// unconfigured and fails every operation with KindUnavailable.
type Gateway struct {
	idp             IdentityProvider
	profiles        ProfileStore
	resetRedirectTo string
}

func NewGateway(idp IdentityProvider, profiles ProfileStore, resetRedirectTo string) *Gateway {
	return &Gateway{idp: idp, profiles: profiles, resetRedirectTo: resetRedirectTo}
}

func (g *Gateway) Available() bool {
	return g != nil && g.idp != nil && g.profiles != nil
}

// SignUp creates the auth identity and then the profile. The two steps are
// not atomic; if the profile insert fails the identity is deleted again when
// the provider allows it.
func (g *Gateway) SignUp(ctx context.Context, username, email, password string) (uuid.UUID, error) {
	if !g.Available() {
		return uuid.Nil, unavailable("sign up")
	}

	if _, err := g.profiles.FindByName(ctx, username); err == nil {
		return uuid.Nil, newError(KindDuplicateAccount, fmt.Errorf("username '%s' is taken", username))
	} else if !errors.Is(err, models.ErrProfileNotFound) {
		slog.Error("error checking username availability", "username", username, "error", err)
		return uuid.Nil, classified(err, KindRegistrationFailed)
	}

	rawID, err := g.idp.SignUp(ctx, email, password)
	if err != nil {
		return uuid.Nil, classified(err, KindRegistrationFailed)
	}

	userID, err := uuid.Parse(rawID)
	if err != nil {
		g.compensate(ctx, rawID)
		return uuid.Nil, newError(KindRegistrationFailed, fmt.Errorf("invalid user id '%s' returned by identity provider: %w", rawID, err))
	}

	profile := models.Profile{Id: userID, Name: username, Email: email}
	if err := g.profiles.Insert(ctx, profile); err != nil {
		slog.Error("error inserting profile after sign up", "user_id", userID, "error", err)
		g.compensate(ctx, rawID)
		return uuid.Nil, classified(err, KindRegistrationFailed)
	}

	slog.Info("registered new user", "user_id", userID, "username", username)
	return userID, nil
}

func (g *Gateway) compensate(ctx context.Context, userID string) {
	if err := g.idp.DeleteUser(ctx, userID); err != nil {
		slog.Error("unable to remove auth identity after failed sign up, identity is orphaned", "user_id", userID, "error", err)
		return
	}
	slog.Info("removed auth identity after failed sign up", "user_id", userID)
}

// SignIn resolves the username to an email and authenticates. An unknown
// username and a wrong password yield the same error.
func (g *Gateway) SignIn(ctx context.Context, username, password string) (*models.Profile, error) {
	if !g.Available() {
		return nil, unavailable("sign in")
	}

	if username == "" || password == "" {
		return nil, newError(KindValidation, ErrCredentials)
	}

	profile, err := g.profiles.FindByName(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			return nil, newError(KindInvalidCredentials, err)
		}
		slog.Error("error looking up profile", "username", username, "error", err)
		return nil, classified(err, KindUnclassified)
	}

	userID, err := g.idp.SignIn(ctx, profile.Email, password)
	if err != nil {
		switch kind := Classify(err, KindInvalidCredentials); kind {
		case KindRateLimited, KindUnavailable:
			return nil, newError(kind, err)
		default:
			return nil, newError(KindInvalidCredentials, err)
		}
	}

	if userID == profile.Id.String() {
		return profile, nil
	}

	// Only the authenticated identity's own profile is returned.
	slog.Warn("authenticated user id does not match profile id", "user_id", userID, "profile_id", profile.Id)
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, newError(KindInvalidCredentials, fmt.Errorf("invalid user id '%s' returned by identity provider: %w", userID, err))
	}

	owned, err := g.profiles.FindByID(ctx, id)
	if err != nil {
		slog.Error("no profile for authenticated user", "user_id", id, "error", err)
		return nil, newError(KindInvalidCredentials, err)
	}

	return owned, nil
}

// RequestPasswordReset never reveals whether the email belongs to an account.
func (g *Gateway) RequestPasswordReset(ctx context.Context, email string) error {
	if !g.Available() {
		return unavailable("password reset")
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return newError(KindValidation, ErrEmailRequired)
	}

	if err := g.idp.ResetPasswordForEmail(ctx, email, g.resetRedirectTo); err != nil {
		slog.Error("error requesting password reset email", "error", err)
		return newError(KindResetRequestFailed, err)
	}

	return nil
}

// CheckResetSession reports whether a reset token pair is present at all.
func CheckResetSession(accessToken, refreshToken string) error {
	if accessToken == "" || refreshToken == "" {
		return newError(KindMissingResetToken, ErrMissingResetToken)
	}
	return nil
}

func (g *Gateway) UpdatePassword(ctx context.Context, accessToken, refreshToken, newPassword string) error {
	if err := CheckResetSession(accessToken, refreshToken); err != nil {
		return err
	}

	if !g.Available() {
		return unavailable("password update")
	}

	token, err := g.idp.SetSession(ctx, accessToken, refreshToken)
	if err != nil {
		return classified(err, KindUpdateFailed)
	}

	if err := g.idp.UpdatePassword(ctx, token, newPassword); err != nil {
		return classified(err, KindUpdateFailed)
	}

	return nil
}
