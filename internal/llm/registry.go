package llm

import (
	"fmt"
	"log/slog"
	"sort"
)

const DefaultAlias = "deepseek"

type Model struct {
	Alias string
	ID    string
}

// Registry maps short user-facing aliases to upstream model identifiers. It
// is built once at startup and never mutated afterwards.
type Registry struct {
	models       map[string]Model
	aliases      []string
	defaultAlias string
}

func DefaultModels() []Model {
	return []Model{
		{Alias: "deepseek", ID: "deepseek/deepseek-chat-v3.1:free"},
		{Alias: "llama", ID: "meta-llama/llama-3.3-70b-instruct:free"},
		{Alias: "gemini", ID: "google/gemini-2.0-flash-exp:free"},
	}
}

func NewRegistry(models []Model, defaultAlias string) (*Registry, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("model registry requires at least one model")
	}

	registry := &Registry{
		models:       make(map[string]Model, len(models)),
		aliases:      make([]string, 0, len(models)),
		defaultAlias: defaultAlias,
	}

	for _, m := range models {
		if m.Alias == "" {
			return nil, fmt.Errorf("model alias cannot be empty")
		}
		if m.ID == "" {
			return nil, fmt.Errorf("model alias '%s' has an empty model id", m.Alias)
		}
		if _, exists := registry.models[m.Alias]; exists {
			return nil, fmt.Errorf("duplicate model alias '%s'", m.Alias)
		}
		registry.models[m.Alias] = m
		registry.aliases = append(registry.aliases, m.Alias)
	}

	if _, ok := registry.models[defaultAlias]; !ok {
		return nil, fmt.Errorf("default model alias '%s' is not in the registry", defaultAlias)
	}

	return registry, nil
}

// NewRegistryFromMap builds a registry from an alias -> id mapping, as read
// from configuration. Aliases are listed in sorted order.
func NewRegistryFromMap(mapping map[string]string, defaultAlias string) (*Registry, error) {
	aliases := make([]string, 0, len(mapping))
	for alias := range mapping {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	models := make([]Model, 0, len(aliases))
	for _, alias := range aliases {
		models = append(models, Model{Alias: alias, ID: mapping[alias]})
	}
	return NewRegistry(models, defaultAlias)
}

// Resolve always succeeds: an empty alias selects the default, and an unknown
// alias selects the default with a warning.
func (r *Registry) Resolve(alias string) Model {
	if alias == "" {
		return r.Default()
	}

	if m, ok := r.models[alias]; ok {
		return m
	}

	slog.Warn("model alias not found, using default model", "alias", alias, "default", r.defaultAlias)
	return r.Default()
}

func (r *Registry) Default() Model {
	return r.models[r.defaultAlias]
}

func (r *Registry) Aliases() []string {
	aliases := make([]string, len(r.aliases))
	copy(aliases, r.aliases)
	return aliases
}
