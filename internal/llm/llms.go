package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

const DefaultBaseURL = "https://openrouter.ai/api/v1"

var ErrMissingAPIKey = errors.New("llm api key is not configured")

// Completer runs a single stateless completion: an optional system turn
// followed by one user turn.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt, modelID string) (string, error)
}

type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream request failed: %s", e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

type ClientOptions struct {
	BaseURL  string
	APIKey   string
	SiteURL  string
	SiteName string
}

func (o ClientOptions) baseURL() string {
	base := o.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

type OpenAI struct {
	client     openai.Client
	configured bool
}

func NewOpenAI(opts ClientOptions) *OpenAI {
	requestOpts := []option.RequestOption{
		option.WithBaseURL(opts.baseURL()),
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.SiteURL != "" {
		requestOpts = append(requestOpts, option.WithHeader("HTTP-Referer", opts.SiteURL))
	}
	if opts.SiteName != "" {
		requestOpts = append(requestOpts, option.WithHeader("X-Title", opts.SiteName))
	}

	return &OpenAI{
		client:     openai.NewClient(requestOpts...),
		configured: opts.APIKey != "",
	}
}

func (o *OpenAI) Complete(ctx context.Context, systemPrompt, userPrompt, modelID string) (string, error) {
	if !o.configured {
		return "", ErrMissingAPIKey
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)

	if len(systemPrompt) > 0 {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	res, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    modelID,
	})
	if err != nil {
		slog.Error("chat completion failed", "model", modelID, "error", err)
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{Status: apiErr.StatusCode, Message: apiErr.Error(), Err: err}
		}
		return "", &UpstreamError{Message: err.Error(), Err: err}
	}

	if len(res.Choices) == 0 {
		slog.Error("chat completion returned no choices", "model", modelID)
		return "", &UpstreamError{Message: "no completion choices returned"}
	}

	return res.Choices[0].Message.Content, nil
}

// LangChain is an alternate engine backed by langchaingo's OpenAI-compatible
// client. It shares the same contract as OpenAI.
type LangChain struct {
	llm *lcopenai.LLM
}

func NewLangChain(opts ClientOptions) (*LangChain, error) {
	if opts.APIKey == "" {
		return &LangChain{}, nil
	}

	client, err := lcopenai.New(
		lcopenai.WithToken(opts.APIKey),
		lcopenai.WithBaseURL(opts.baseURL()),
		lcopenai.WithModel(DefaultModels()[0].ID),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create langchain client: %w", err)
	}

	return &LangChain{llm: client}, nil
}

func (l *LangChain) Complete(ctx context.Context, systemPrompt, userPrompt, modelID string) (string, error) {
	if l.llm == nil {
		return "", ErrMissingAPIKey
	}

	messages := make([]llms.MessageContent, 0, 2)
	if len(systemPrompt) > 0 {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userPrompt))

	resp, err := l.llm.GenerateContent(ctx, messages, llms.WithModel(modelID))
	if err != nil {
		slog.Error("langchain completion failed", "model", modelID, "error", err)
		return "", &UpstreamError{Message: err.Error(), Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Message: "no completion choices returned"}
	}

	return resp.Choices[0].Content, nil
}

// NewCompleter selects the engine by name. Unknown engine names are a
// configuration error.
func NewCompleter(engine string, opts ClientOptions) (Completer, error) {
	switch engine {
	case "", "openai":
		return NewOpenAI(opts), nil
	case "langchain":
		return NewLangChain(opts)
	default:
		return nil, fmt.Errorf("unknown llm engine '%s'", engine)
	}
}
