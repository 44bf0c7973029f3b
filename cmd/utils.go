package cmd

import (
	"ai-terminal/internal/auth"
	"ai-terminal/internal/config"
	"ai-terminal/internal/database"
	"ai-terminal/internal/llm"
	"ai-terminal/internal/supabase"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFile parses the command line flags, loads the dotenv file named by
// -env if any, and returns the path given by -config.
func LoadEnvFile() string {
	var envPath, configPath string

	flag.StringVar(&envPath, "env", "", "path to load env from")
	flag.StringVar(&configPath, "config", "config.yaml", "path to an optional yaml config file")
	flag.Parse()

	if envPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return configPath
	}

	log.Printf("loading env from file %s", envPath)
	if err := godotenv.Load(envPath); err != nil {
		log.Fatalf("error loading .env file '%s': %v", envPath, err)
	}

	return configPath
}

func NewModelRegistry(cfg *config.Config) (*llm.Registry, error) {
	if len(cfg.Models) == 0 {
		return llm.NewRegistry(llm.DefaultModels(), cfg.DefaultModel)
	}
	return llm.NewRegistryFromMap(cfg.Models, cfg.DefaultModel)
}

func NewCompleter(cfg *config.Config) (llm.Completer, error) {
	if cfg.OpenRouterAPIKey == "" {
		slog.Warn("OPENROUTER_API_KEY is not set, terminal commands will report that the AI service is not configured")
	}

	return llm.NewCompleter(cfg.LLMEngine, llm.ClientOptions{
		BaseURL:  cfg.OpenRouterBaseURL,
		APIKey:   cfg.OpenRouterAPIKey,
		SiteURL:  cfg.SiteURL,
		SiteName: cfg.SiteName,
	})
}

func SystemPrompt(cfg *config.Config) string {
	if cfg.DisableSystemPrompt {
		return ""
	}
	return llm.CodingAssistantPrompt
}

func passwordResetRedirect(cfg *config.Config) string {
	if cfg.PasswordResetRedirectURL != "" {
		return cfg.PasswordResetRedirectURL
	}
	if cfg.SiteURL != "" {
		return strings.TrimRight(cfg.SiteURL, "/") + "/reset-password"
	}
	return ""
}

// NewAuthGateway builds the gateway from config. Missing Supabase credentials
// yield an unconfigured gateway rather than an error.
func NewAuthGateway(cfg *config.Config) (*auth.Gateway, error) {
	client, err := supabase.NewClient(supabase.Config{
		URL:            cfg.SupabaseURL,
		Key:            cfg.SupabaseKey,
		ServiceRoleKey: cfg.SupabaseServiceRoleKey,
	})
	if errors.Is(err, supabase.ErrNotConfigured) {
		slog.Warn("SUPABASE_URL or SUPABASE_KEY is not set, account operations are unavailable")
		return auth.NewGateway(nil, nil, ""), nil
	}
	if err != nil {
		return nil, fmt.Errorf("error creating supabase client: %w", err)
	}

	if cfg.SupabaseServiceRoleKey == "" {
		slog.Warn("SUPABASE_SERVICE_ROLE_KEY is not set, failed sign ups cannot be rolled back")
	}

	var profiles auth.ProfileStore
	switch cfg.ProfileStore {
	case config.ProfileStorePostgres, config.ProfileStoreSqlite:
		db, err := database.NewDatabase(cfg.ProfileStore, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("error connecting to profile database: %w", err)
		}
		profiles = database.NewProfileStore(db)
	default:
		profiles = client.Profiles()
	}

	return auth.NewGateway(client, profiles, passwordResetRedirect(cfg)), nil
}

// SessionSecret returns the configured secret key, or a random one that only
// lives as long as the process.
func SessionSecret(cfg *config.Config) []byte {
	if cfg.SecretKey != "" {
		return []byte(cfg.SecretKey)
	}

	slog.Warn("SECRET_KEY is not set, generating a temporary key; sessions will not survive a restart")
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		log.Fatalf("unable to generate session secret: %v", err)
	}
	return secret
}
