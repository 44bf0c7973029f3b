package main

import (
	"ai-terminal/cmd"
	"ai-terminal/internal/api"
	"ai-terminal/internal/config"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// LocalConfig holds the settings that only apply when running on a developer
// machine. Everything else comes from config.Load.
type LocalConfig struct {
	Root string `env:"ROOT" envDefault:"./ai-terminal"`
	Port int    `env:"LOCAL_PORT" envDefault:"3001"`
}

// useLocalProfileStore points the profile store at a sqlite file under root
// unless PROFILE_STORE or DATABASE_URL already chose one. Without Supabase
// credentials accounts are unavailable and no database is created.
func useLocalProfileStore(cfg *config.Config, root string) bool {
	if !cfg.SupabaseConfigured() {
		slog.Warn("supabase is not configured, accounts are unavailable and no local profile database is created")
		return false
	}

	if _, ok := os.LookupEnv("PROFILE_STORE"); ok || cfg.ProfileStore != config.ProfileStoreSupabase || cfg.DatabaseURL != "" {
		return false
	}

	path := filepath.Join(root, "db", "ai-terminal.db")
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	cfg.ProfileStore = config.ProfileStoreSqlite
	cfg.DatabaseURL = path
	return true
}

func createServer(cfg *config.Config, port int) *http.Server {
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

	sessions := api.NewSessions(cmd.SessionSecret(cfg), api.DefaultSessionTTL, false)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  func(r *http.Request, origin string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", api.RestHandler(func(r *http.Request) (any, error) { return nil, nil }))

	api.NewPageService(pages, sessions, registry).AddRoutes(r)
	api.NewCommandService(registry, completer, cmd.SystemPrompt(cfg)).AddRoutes(r)
	api.NewAuthService(gateway, sessions, pages).AddRoutes(r)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}

func main() {
	configPath := cmd.LoadEnvFile()

	var localCfg LocalConfig
	if err := env.Parse(&localCfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(localCfg.Root, os.ModePerm); err != nil {
		log.Fatalf("error creating directory for log file: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(localCfg.Root, "terminal.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(f, os.Stderr))

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	useLocalProfileStore(cfg, localCfg.Root)

	slog.Info("starting local terminal", "root", localCfg.Root, "port", localCfg.Port, "profile_store", cfg.ProfileStore, "llm_engine", cfg.LLMEngine)

	server := createServer(cfg, localCfg.Port)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("server started", "port", localCfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", localCfg.Port, err)
	}

	slog.Info("server stopped")
}
