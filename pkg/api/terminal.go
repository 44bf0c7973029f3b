package api

import "github.com/google/uuid"

type CommandRequest struct {
	Command string `json:"command"`
	Model   string `json:"model"`
}

type CommandResponse struct {
	Success   bool   `json:"success"`
	Response  string `json:"response,omitempty"`
	ModelUsed string `json:"model_used,omitempty"`
	Error     string `json:"error,omitempty"`
}

type ModelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type User struct {
	Id    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Error   string `json:"error,omitempty"`
}

type RegisterForm struct {
	Username        string `schema:"username"`
	Email           string `schema:"email"`
	Password        string `schema:"password"`
	ConfirmPassword string `schema:"confirm_password"`
}

type ForgotPasswordForm struct {
	Email string `schema:"email"`
}

type ResetPasswordParams struct {
	AccessToken  string `schema:"access_token"`
	RefreshToken string `schema:"refresh_token"`
}

type ResetPasswordForm struct {
	AccessToken     string `schema:"access_token"`
	RefreshToken    string `schema:"refresh_token"`
	Password        string `schema:"password"`
	ConfirmPassword string `schema:"confirm_password"`
}
