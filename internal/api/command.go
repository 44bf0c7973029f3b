package api

import (
	"ai-terminal/internal/llm"
	"ai-terminal/pkg/api"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const (
	notConfiguredMessage = "AI service is not configured. Please contact support."
	requestFailedPrefix  = "AI request failed: "
)

// CommandService forwards terminal commands to the completion backend.
type CommandService struct {
	registry     *llm.Registry
	completer    llm.Completer
	systemPrompt string
}

func NewCommandService(registry *llm.Registry, completer llm.Completer, systemPrompt string) *CommandService {
	return &CommandService{registry: registry, completer: completer, systemPrompt: systemPrompt}
}

func (s *CommandService) AddRoutes(r chi.Router) {
	r.Post("/execute_command", RestHandler(s.ExecuteCommand))
	r.Get("/models", RestHandler(s.ListModels))
}

// ExecuteCommand always answers with 200. Failures are reported through the
// success flag and error field of the body.
func (s *CommandService) ExecuteCommand(r *http.Request) (any, error) {
	req, err := ParseRequest[api.CommandRequest](r)
	if err != nil {
		return api.CommandResponse{Success: false, Error: err.Error()}, nil
	}

	model := s.registry.Resolve(req.Model)

	text, err := s.completer.Complete(r.Context(), s.systemPrompt, req.Command, model.ID)
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			slog.Error("completion requested but no api key is configured")
			return api.CommandResponse{Success: false, Error: notConfiguredMessage}, nil
		}

		msg := err.Error()
		var upstream *llm.UpstreamError
		if errors.As(err, &upstream) && upstream.Message != "" {
			msg = upstream.Message
		}
		slog.Error("error executing command", "model", model.Alias, "error", err)
		return api.CommandResponse{Success: false, Error: requestFailedPrefix + msg}, nil
	}

	return api.CommandResponse{Success: true, Response: text, ModelUsed: model.Alias}, nil
}

func (s *CommandService) ListModels(r *http.Request) (any, error) {
	return api.ModelsResponse{Models: s.registry.Aliases(), Default: s.registry.Default().Alias}, nil
}
