package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v4"
)

const requestTimeout = 30 * time.Second

// Access tokens this close to expiry are refreshed rather than reused.
const expiryMargin = 10 * time.Second

type Config struct {
	URL            string
	Key            string
	ServiceRoleKey string
}

// Client talks to a Supabase project's GoTrue (auth) and PostgREST (rest)
// endpoints.
type Client struct {
	auth  *resty.Client
	rest  *resty.Client
	admin *resty.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, ErrNotConfigured
	}

	base := strings.TrimRight(cfg.URL, "/")

	client := &Client{
		auth: newRestyClient(base+"/auth/v1", cfg.Key, ""),
		rest: newRestyClient(base+"/rest/v1", cfg.Key, cfg.Key),
	}

	if cfg.ServiceRoleKey != "" {
		client.admin = newRestyClient(base+"/auth/v1/admin", cfg.ServiceRoleKey, cfg.ServiceRoleKey)
	}

	return client, nil
}

func newRestyClient(baseURL, apiKey, bearer string) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("apikey", apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if bearer != "" {
		client.SetAuthToken(bearer)
	}
	return client
}

type user struct {
	ID         string            `json:"id"`
	Email      string            `json:"email"`
	Identities []json.RawMessage `json:"identities"`
}

type session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *user  `json:"user"`
}

// signUpResponse is either a bare user (email confirmation pending) or a
// session wrapping the user (auto-confirm).
type signUpResponse struct {
	user
	User *user `json:"user"`
}

func (c *Client) do(req *resty.Request, method, path string) (*resty.Response, error) {
	res, err := req.Execute(method, path)
	if err != nil {
		slog.Error("supabase request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("supabase request failed: %w", err)
	}

	if !res.IsSuccess() {
		apiErr := newAPIError(res)
		slog.Warn("supabase returned error", "method", method, "path", path, "status_code", apiErr.Status, "code", apiErr.Code)
		return nil, apiErr
	}

	return res, nil
}

// SignUp creates an auth identity and returns its user id.
func (c *Client) SignUp(ctx context.Context, email, password string) (string, error) {
	var body signUpResponse
	_, err := c.do(c.auth.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&body), http.MethodPost, "/signup")
	if err != nil {
		return "", err
	}

	u := &body.user
	if body.User != nil {
		u = body.User
	}

	// With email confirmation enabled GoTrue answers a repeated sign-up with
	// an obfuscated user that has no identities.
	if u.Identities != nil && len(u.Identities) == 0 {
		return "", &APIError{Status: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered"}
	}

	if u.ID == "" {
		return "", &APIError{Status: http.StatusBadGateway, Message: "sign up response did not include a user id"}
	}

	return u.ID, nil
}

// SignIn authenticates with email and password and returns the user id.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	var body session
	_, err := c.do(c.auth.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&body), http.MethodPost, "/token")
	if err != nil {
		return "", err
	}

	if body.User == nil || body.User.ID == "" {
		return "", &APIError{Status: http.StatusBadGateway, Message: "sign in response did not include a user"}
	}

	return body.User.ID, nil
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	req := c.auth.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email})
	if redirectTo != "" {
		req.SetQueryParam("redirect_to", redirectTo)
	}

	_, err := c.do(req, http.MethodPost, "/recover")
	return err
}

// SetSession turns a reset-link token pair into a usable access token. A
// still-valid access token is checked against GoTrue; an expired one is
// exchanged using the refresh token.
func (c *Client) SetSession(ctx context.Context, accessToken, refreshToken string) (string, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return "", &APIError{Status: http.StatusUnauthorized, Code: "bad_jwt", Message: "invalid JWT: unable to parse access token"}
	}

	if claims.ExpiresAt != nil && time.Until(claims.ExpiresAt.Time) > expiryMargin {
		var u user
		_, err := c.do(c.auth.R().
			SetContext(ctx).
			SetAuthToken(accessToken).
			SetResult(&u), http.MethodGet, "/user")
		if err != nil {
			return "", err
		}
		return accessToken, nil
	}

	var body session
	_, err := c.do(c.auth.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "refresh_token").
		SetBody(map[string]string{"refresh_token": refreshToken}).
		SetResult(&body), http.MethodPost, "/token")
	if err != nil {
		return "", err
	}

	if body.AccessToken == "" {
		return "", &APIError{Status: http.StatusUnauthorized, Code: "session_expired", Message: "session expired"}
	}

	return body.AccessToken, nil
}

func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) error {
	_, err := c.do(c.auth.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(map[string]string{"password": password}), http.MethodPut, "/user")
	return err
}

// DeleteUser removes an auth identity through the admin API. It needs the
// service role key.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	if c.admin == nil {
		return ErrAdminUnavailable
	}

	_, err := c.do(c.admin.R().
		SetContext(ctx).
		SetPathParam("id", userID), http.MethodDelete, "/users/{id}")
	return err
}

func (c *Client) Profiles() *ProfileTable {
	return &ProfileTable{client: c}
}
