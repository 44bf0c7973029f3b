package api

import (
	"ai-terminal/internal/llm"
	"ai-terminal/pkg/api"
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const (
	PageIndex          = "index"
	PageAbout          = "about"
	PageRegister       = "register"
	PageLogin          = "login"
	PageForgotPassword = "forgot_password"
	PageResetPassword  = "reset_password"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData is everything a template may read.
type PageData struct {
	Title   string
	User    *api.User
	Error   string
	Success string

	Username string
	Email    string

	AccessToken  string
	RefreshToken string

	Models       []string
	DefaultModel string
}

type Pages struct {
	templates map[string]*template.Template
}

func NewPages() (*Pages, error) {
	pages := &Pages{templates: make(map[string]*template.Template)}
	for _, name := range []string{PageIndex, PageAbout, PageRegister, PageLogin, PageForgotPassword, PageResetPassword} {
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("error parsing template '%s': %w", name, err)
		}
		pages.templates[name] = tmpl
	}
	return pages, nil
}

func (p *Pages) Render(w http.ResponseWriter, status int, page string, data PageData) {
	tmpl, ok := p.templates[page]
	if !ok {
		slog.Error("unknown page", "page", page)
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		slog.Error("error rendering page", "page", page, "error", err)
		http.Error(w, "error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("error writing page", "page", page, "error", err)
	}
}

// PageService serves the terminal and the about page.
type PageService struct {
	pages    *Pages
	sessions *Sessions
	registry *llm.Registry
}

func NewPageService(pages *Pages, sessions *Sessions, registry *llm.Registry) *PageService {
	return &PageService{pages: pages, sessions: sessions, registry: registry}
}

func (s *PageService) AddRoutes(r chi.Router) {
	r.Get("/", s.Index)
	r.Get("/about", s.About)
}

func (s *PageService) currentUser(r *http.Request) *api.User {
	user, err := s.sessions.User(r)
	if err != nil {
		return nil
	}
	return user
}

func (s *PageService) Index(w http.ResponseWriter, r *http.Request) {
	s.pages.Render(w, http.StatusOK, PageIndex, PageData{
		Title:        "Terminal",
		User:         s.currentUser(r),
		Models:       s.registry.Aliases(),
		DefaultModel: s.registry.Default().Alias,
	})
}

func (s *PageService) About(w http.ResponseWriter, r *http.Request) {
	s.pages.Render(w, http.StatusOK, PageAbout, PageData{Title: "About", User: s.currentUser(r)})
}
