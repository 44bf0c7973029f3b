package api_test

import (
	backend "ai-terminal/internal/api"
	"ai-terminal/pkg/api"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageRouter(t *testing.T, sessions *backend.Sessions) chi.Router {
	pages, err := backend.NewPages()
	require.NoError(t, err)

	router := chi.NewRouter()
	backend.NewPageService(pages, sessions, defaultRegistry(t)).AddRoutes(router)
	return router
}

func TestIndexPage(t *testing.T) {
	router := pageRouter(t, backend.NewSessions([]byte("secret"), time.Hour, false))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `<option value="deepseek" selected>deepseek</option>`)
	assert.Contains(t, body, `<option value="gemini">gemini</option>`)
	assert.Contains(t, body, `href="/login"`)
}

func TestIndexPageWithSession(t *testing.T) {
	sessions := backend.NewSessions([]byte("secret"), time.Hour, false)
	router := pageRouter(t, sessions)

	login := httptest.NewRecorder()
	require.NoError(t, sessions.Issue(login, api.User{Id: uuid.New(), Name: "bob", Email: "bob@example.com"}))

	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	req.AddCookie(login.Result().Cookies()[0])
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<span class="user">bob</span>`)
	assert.Contains(t, rec.Body.String(), `href="/logout"`)
}

func TestSessionRejectsTampering(t *testing.T) {
	sessions := backend.NewSessions([]byte("secret"), time.Hour, false)
	other := backend.NewSessions([]byte("other-secret"), time.Hour, false)

	rec := httptest.NewRecorder()
	require.NoError(t, other.Issue(rec, api.User{Id: uuid.New(), Name: "mallory"}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	_, err := sessions.User(req)
	assert.Error(t, err)

	_, err = sessions.User(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, backend.ErrNoSession)
}

func TestSessionExpired(t *testing.T) {
	secret := []byte("secret")
	sessions := backend.NewSessions(secret, time.Hour, false)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString(secret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: backend.SessionCookieName, Value: token})
	_, err = sessions.User(req)
	assert.Error(t, err)
}
