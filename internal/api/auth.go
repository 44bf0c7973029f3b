package api

import (
	"ai-terminal/internal/auth"
	"ai-terminal/internal/validation"
	"ai-terminal/pkg/api"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const (
	registeredMessage    = "Registration successful! Please check your email to confirm your account, then log in."
	resetSentMessage     = "If an account exists for that email, a password reset link has been sent."
	passwordResetMessage = "Your password has been updated. Please log in with your new password."
)

// AuthService serves registration, login and password reset. Form pages are
// re-rendered with status 200 and the error in the page; only /login_user
// reports failures through the status code.
type AuthService struct {
	gateway  *auth.Gateway
	sessions *Sessions
	pages    *Pages
}

func NewAuthService(gateway *auth.Gateway, sessions *Sessions, pages *Pages) *AuthService {
	return &AuthService{gateway: gateway, sessions: sessions, pages: pages}
}

func (s *AuthService) AddRoutes(r chi.Router) {
	r.Get("/register", s.RegisterPage)
	r.Post("/register", s.Register)
	r.Get("/login", s.LoginPage)
	r.Post("/login_user", s.LoginUser)
	r.Get("/logout", s.Logout)
	r.Get("/forgot-password", s.ForgotPasswordPage)
	r.Post("/forgot-password", s.ForgotPassword)
	r.Get("/reset-password", s.ResetPasswordPage)
	r.Post("/reset-password", s.ResetPassword)
}

func (s *AuthService) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.pages.Render(w, http.StatusOK, PageRegister, PageData{Title: "Register"})
}

func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	form, err := ParseRequestForm[api.RegisterForm](r)
	if err != nil {
		s.pages.Render(w, http.StatusBadRequest, PageRegister, PageData{Title: "Register", Error: err.Error()})
		return
	}

	page := PageData{Title: "Register", Username: form.Username, Email: form.Email}

	if err := validation.ValidateRegistration(form.Username, form.Email, form.Password, form.ConfirmPassword); err != nil {
		page.Error = err.Error()
		s.pages.Render(w, http.StatusOK, PageRegister, page)
		return
	}

	if _, err := s.gateway.SignUp(r.Context(), form.Username, form.Email, form.Password); err != nil {
		slog.Warn("registration failed", "username", form.Username, "kind", auth.KindOf(err), "error", errors.Unwrap(err))
		page.Error = err.Error()
		s.pages.Render(w, http.StatusOK, PageRegister, page)
		return
	}

	s.pages.Render(w, http.StatusOK, PageLogin, PageData{Title: "Log in", Success: registeredMessage})
}

func (s *AuthService) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.pages.Render(w, http.StatusOK, PageLogin, PageData{Title: "Log in"})
}

func (s *AuthService) LoginUser(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest[api.LoginRequest](r)
	if err != nil {
		WriteJsonResponseWithStatus(w, http.StatusBadRequest, api.LoginResponse{Error: err.Error()})
		return
	}

	profile, err := s.gateway.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		kind := auth.KindOf(err)
		slog.Info("login failed", "username", req.Username, "kind", kind)
		WriteJsonResponseWithStatus(w, kind.HTTPStatus(), api.LoginResponse{Error: err.Error()})
		return
	}

	user := api.User{Id: profile.Id, Name: profile.Name, Email: profile.Email}
	if err := s.sessions.Issue(w, user); err != nil {
		slog.Error("error issuing session", "user_id", user.Id, "error", err)
		WriteJsonResponseWithStatus(w, http.StatusInternalServerError, api.LoginResponse{Error: "Unable to start session. Please try again."})
		return
	}

	WriteJsonResponse(w, api.LoginResponse{Success: true, User: &user})
}

func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *AuthService) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	s.pages.Render(w, http.StatusOK, PageForgotPassword, PageData{Title: "Forgot password"})
}

func (s *AuthService) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	form, err := ParseRequestForm[api.ForgotPasswordForm](r)
	if err != nil {
		s.pages.Render(w, http.StatusBadRequest, PageForgotPassword, PageData{Title: "Forgot password", Error: err.Error()})
		return
	}

	page := PageData{Title: "Forgot password", Email: form.Email}
	if err := s.gateway.RequestPasswordReset(r.Context(), form.Email); err != nil {
		page.Error = err.Error()
	} else {
		page.Success = resetSentMessage
	}

	s.pages.Render(w, http.StatusOK, PageForgotPassword, page)
}

func (s *AuthService) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	params, err := ParseRequestForm[api.ResetPasswordParams](r)
	if err != nil {
		s.pages.Render(w, http.StatusBadRequest, PageResetPassword, PageData{Title: "Reset password", Error: err.Error()})
		return
	}

	s.pages.Render(w, http.StatusOK, PageResetPassword, PageData{
		Title:        "Reset password",
		AccessToken:  params.AccessToken,
		RefreshToken: params.RefreshToken,
	})
}

func (s *AuthService) ResetPassword(w http.ResponseWriter, r *http.Request) {
	form, err := ParseRequestForm[api.ResetPasswordForm](r)
	if err != nil {
		s.pages.Render(w, http.StatusBadRequest, PageResetPassword, PageData{Title: "Reset password", Error: err.Error()})
		return
	}

	page := PageData{Title: "Reset password", AccessToken: form.AccessToken, RefreshToken: form.RefreshToken}

	if err := auth.CheckResetSession(form.AccessToken, form.RefreshToken); err != nil {
		page.Error = err.Error()
		s.pages.Render(w, http.StatusOK, PageResetPassword, page)
		return
	}

	if err := validation.ValidatePassword(form.Password, form.ConfirmPassword); err != nil {
		page.Error = err.Error()
		s.pages.Render(w, http.StatusOK, PageResetPassword, page)
		return
	}

	if err := s.gateway.UpdatePassword(r.Context(), form.AccessToken, form.RefreshToken, form.Password); err != nil {
		slog.Warn("password update failed", "kind", auth.KindOf(err), "error", errors.Unwrap(err))
		page.Error = err.Error()
		s.pages.Render(w, http.StatusOK, PageResetPassword, page)
		return
	}

	s.pages.Render(w, http.StatusOK, PageLogin, PageData{Title: "Log in", Success: passwordResetMessage})
}
