package main

import (
	"ai-terminal/cmd"
	"ai-terminal/internal/api"
	"ai-terminal/internal/config"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	log.Println("Starting AI Terminal server...")

	configPath := cmd.LoadEnvFile()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	registry, err := cmd.NewModelRegistry(cfg)
	if err != nil {
		log.Fatalf("Failed to build model registry: %v", err)
	}

	completer, err := cmd.NewCompleter(cfg)
	if err != nil {
		log.Fatalf("Failed to create completion client: %v", err)
	}

	gateway, err := cmd.NewAuthGateway(cfg)
	if err != nil {
		log.Fatalf("Failed to create auth gateway: %v", err)
	}

	pages, err := api.NewPages()
	if err != nil {
		log.Fatalf("Failed to load page templates: %v", err)
	}

	sessions := api.NewSessions(cmd.SessionSecret(cfg), api.DefaultSessionTTL, strings.HasPrefix(cfg.SiteURL, "https://"))

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", api.RestHandler(func(r *http.Request) (any, error) { return nil, nil }))

	api.NewPageService(pages, sessions, registry).AddRoutes(r)
	api.NewCommandService(registry, completer, cmd.SystemPrompt(cfg)).AddRoutes(r)
	api.NewAuthService(gateway, sessions, pages).AddRoutes(r)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("AI Terminal listening on port %s (model engine %s, default model %s, accounts available: %t)",
		cfg.Port, cfg.LLMEngine, registry.Default().Alias, gateway.Available())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.Port, err)
	}

	log.Println("Server stopped.")
}
