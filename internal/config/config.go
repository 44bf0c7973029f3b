package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

const (
	ProfileStoreSupabase = "supabase"
	ProfileStorePostgres = "postgres"
	ProfileStoreSqlite   = "sqlite"
)

// Config is read from the environment first. A YAML file, when present, is
// decoded over it so that keys set in the file take precedence.
type Config struct {
	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY" yaml:"openrouter_api_key"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1" yaml:"openrouter_base_url"`

	SecretKey string `env:"SECRET_KEY" yaml:"secret_key"`

	SupabaseURL            string `env:"SUPABASE_URL" yaml:"supabase_url"`
	SupabaseKey            string `env:"SUPABASE_KEY" yaml:"supabase_key"`
	SupabaseServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY" yaml:"supabase_service_role_key"`

	ProfileStore string `env:"PROFILE_STORE" envDefault:"supabase" yaml:"profile_store"`
	DatabaseURL  string `env:"DATABASE_URL" yaml:"database_url"`

	Port           string        `env:"PORT" envDefault:"5000" yaml:"port"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s" yaml:"request_timeout"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," yaml:"allowed_origins"`

	LLMEngine           string            `env:"LLM_ENGINE" envDefault:"openai" yaml:"llm_engine"`
	DefaultModel        string            `env:"DEFAULT_MODEL" envDefault:"deepseek" yaml:"default_model"`
	Models              map[string]string `env:"MODELS" yaml:"models"`
	DisableSystemPrompt bool              `env:"DISABLE_SYSTEM_PROMPT" yaml:"disable_system_prompt"`

	SiteURL                  string `env:"SITE_URL" yaml:"site_url"`
	SiteName                 string `env:"SITE_NAME" envDefault:"AI Terminal" yaml:"site_name"`
	PasswordResetRedirectURL string `env:"PASSWORD_RESET_REDIRECT_URL" yaml:"password_reset_redirect_url"`
}

// Load parses the environment and overlays the YAML file at path. An empty
// path or a missing file leaves the environment values as they are.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			slog.Info("config file not found, using environment only", "path", path)
		case err != nil:
			return nil, fmt.Errorf("error reading config file '%s': %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("error parsing config file '%s': %w", path, err)
			}
			slog.Info("loaded config file", "path", path)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	c.ProfileStore = strings.ToLower(strings.TrimSpace(c.ProfileStore))
	switch c.ProfileStore {
	case ProfileStoreSupabase:
	case ProfileStorePostgres, ProfileStoreSqlite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when PROFILE_STORE is '%s'", c.ProfileStore)
		}
	default:
		return fmt.Errorf("invalid PROFILE_STORE '%s': expected supabase, postgres or sqlite", c.ProfileStore)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}

	return nil
}

// SupabaseConfigured reports whether the auth gateway can be built.
func (c *Config) SupabaseConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}
