package api_test

import (
	backend "ai-terminal/internal/api"
	"ai-terminal/internal/auth"
	"ai-terminal/internal/database"
	"ai-terminal/internal/supabase"
	"ai-terminal/pkg/api"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentityProvider struct {
	users     map[string]string // email -> password
	ids       map[string]string // email -> user id
	updates   []string
	sessions  int
	resetErr  error
	updateErr error
}

func newFakeIdentityProvider() *fakeIdentityProvider {
	return &fakeIdentityProvider{users: map[string]string{}, ids: map[string]string{}}
}

func (f *fakeIdentityProvider) SignUp(ctx context.Context, email, password string) (string, error) {
	if _, ok := f.users[email]; ok {
		return "", &supabase.APIError{Status: 422, Code: "user_already_exists", Message: "User already registered"}
	}
	id := uuid.NewString()
	f.users[email] = password
	f.ids[email] = id
	return id, nil
}

func (f *fakeIdentityProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	if pw, ok := f.users[email]; !ok || pw != password {
		return "", &supabase.APIError{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	return f.ids[email], nil
}

func (f *fakeIdentityProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return f.resetErr
}

func (f *fakeIdentityProvider) SetSession(ctx context.Context, accessToken, refreshToken string) (string, error) {
	f.sessions++
	return accessToken, nil
}

func (f *fakeIdentityProvider) UpdatePassword(ctx context.Context, accessToken, password string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, password)
	return nil
}

func (f *fakeIdentityProvider) DeleteUser(ctx context.Context, userID string) error {
	return nil
}

type authFixture struct {
	router   chi.Router
	idp      *fakeIdentityProvider
	sessions *backend.Sessions
}

func newAuthFixture(t *testing.T) *authFixture {
	db, err := database.NewDatabase("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)

	idp := newFakeIdentityProvider()
	gateway := auth.NewGateway(idp, database.NewProfileStore(db), "http://localhost/reset-password")

	pages, err := backend.NewPages()
	require.NoError(t, err)

	sessions := backend.NewSessions([]byte("test-secret"), time.Hour, false)

	router := chi.NewRouter()
	backend.NewAuthService(gateway, sessions, pages).AddRoutes(router)

	return &authFixture{router: router, idp: idp, sessions: sessions}
}

func (f *authFixture) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *authFixture) login(t *testing.T, username, password string) (*httptest.ResponseRecorder, api.LoginResponse) {
	body, err := json.Marshal(api.LoginRequest{Username: username, Password: password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/login_user", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var res api.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return rec, res
}

func registrationForm(username, email, password string) url.Values {
	return url.Values{
		"username":         {username},
		"email":            {email},
		"password":         {password},
		"confirm_password": {password},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.postForm("/register", registrationForm("bob", "bob@example.com", "Aa1!aaaa"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registration successful!")

	rec, res := f.login(t, "bob", "Aa1!aaaa")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, res.Success)
	require.NotNil(t, res.User)
	assert.Equal(t, "bob", res.User.Name)
	assert.Equal(t, "bob@example.com", res.User.Email)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, backend.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	user, err := f.sessions.User(req)
	require.NoError(t, err)
	assert.Equal(t, *res.User, *user)
}

func TestRegisterValidationError(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.postForm("/register", registrationForm("bob", "bob@example.com", "short1!"))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Password must be at least 8 characters long.")
	assert.Contains(t, body, `value="bob@example.com"`)
	assert.Empty(t, f.idp.users)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newAuthFixture(t)

	f.postForm("/register", registrationForm("bob", "bob@example.com", "Aa1!aaaa"))
	rec := f.postForm("/register", registrationForm("bob", "other@example.com", "Aa1!aaaa"))

	assert.Contains(t, rec.Body.String(), "An account with this username or email already exists.")
	assert.Len(t, f.idp.users, 1)
}

func TestLoginUserFailures(t *testing.T) {
	f := newAuthFixture(t)
	f.postForm("/register", registrationForm("bob", "bob@example.com", "Aa1!aaaa"))

	unknownRec, unknown := f.login(t, "alice", "Aa1!aaaa")
	wrongRec, wrong := f.login(t, "bob", "Bb2@bbbb")

	assert.Equal(t, http.StatusUnauthorized, unknownRec.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongRec.Code)
	assert.False(t, unknown.Success)
	assert.Equal(t, "Invalid username or password.", unknown.Error)
	assert.Equal(t, unknown.Error, wrong.Error)
	assert.Empty(t, wrongRec.Result().Cookies())

	emptyRec, empty := f.login(t, "", "")
	assert.Equal(t, http.StatusBadRequest, emptyRec.Code)
	assert.False(t, empty.Success)
}

func TestLoginUserUnavailable(t *testing.T) {
	pages, err := backend.NewPages()
	require.NoError(t, err)

	router := chi.NewRouter()
	backend.NewAuthService(auth.NewGateway(nil, nil, ""), backend.NewSessions([]byte("s"), time.Hour, false), pages).AddRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/login_user", strings.NewReader(`{"username":"bob","password":"Aa1!aaaa"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var res api.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Database not available. Please contact support.", res.Error)
}

func TestLogoutClearsSession(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, backend.SessionCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestForgotPassword(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.postForm("/forgot-password", url.Values{"email": {"bob@example.com"}})
	assert.Contains(t, rec.Body.String(), "If an account exists for that email")

	f.idp.resetErr = &supabase.APIError{Status: 500, Message: "smtp down"}
	rec = f.postForm("/forgot-password", url.Values{"email": {"bob@example.com"}})
	assert.Contains(t, rec.Body.String(), "Failed to send password reset email. Please try again later.")
	assert.NotContains(t, rec.Body.String(), "smtp down")
}

func TestResetPasswordPageCarriesTokens(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/reset-password?access_token=abc&refresh_token=def", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="access_token" value="abc"`)
	assert.Contains(t, rec.Body.String(), `name="refresh_token" value="def"`)
}

func TestResetPassword(t *testing.T) {
	f := newAuthFixture(t)

	form := url.Values{
		"access_token":     {"abc"},
		"refresh_token":    {"def"},
		"password":         {"Bb2@bbbb"},
		"confirm_password": {"Bb2@bbbb"},
	}
	rec := f.postForm("/reset-password", form)

	assert.Contains(t, rec.Body.String(), "Your password has been updated.")
	assert.Equal(t, []string{"Bb2@bbbb"}, f.idp.updates)
}

func TestResetPasswordMissingToken(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.postForm("/reset-password", url.Values{
		"password":         {"Bb2@bbbb"},
		"confirm_password": {"Bb2@bbbb"},
	})

	assert.Contains(t, rec.Body.String(), "Invalid or missing reset token.")
	assert.Zero(t, f.idp.sessions)
	assert.Empty(t, f.idp.updates)
}

func TestResetPasswordErrors(t *testing.T) {
	f := newAuthFixture(t)

	form := url.Values{
		"access_token":     {"abc"},
		"refresh_token":    {"def"},
		"password":         {"Bb2@bbbb"},
		"confirm_password": {"Bb2@bbbc"},
	}
	rec := f.postForm("/reset-password", form)
	assert.Contains(t, rec.Body.String(), "Passwords do not match.")
	assert.Zero(t, f.idp.sessions)

	form.Set("confirm_password", "Bb2@bbbb")
	f.idp.updateErr = &supabase.APIError{Status: 422, Code: "same_password", Message: "New password should be different from the old password."}
	rec = f.postForm("/reset-password", form)
	assert.Contains(t, rec.Body.String(), "New password must be different from your current password.")
}
