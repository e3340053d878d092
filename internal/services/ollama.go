package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/storysounds/internal/shared"
)

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type ollamaChatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// OllamaClient implements [Completer] against a local Ollama server.
type OllamaClient struct {
	api   *apiClient
	model string
}

func NewOllamaClient(cfg shared.OllamaConfig, opts ...Option) (*OllamaClient, error) {
	if cfg.BaseURL == "" || cfg.Model == "" {
		return nil, fmt.Errorf("%w: ollama base_url and model", shared.ErrMissingConfig)
	}
	return &OllamaClient{api: newAPIClient(providerOllama, cfg.BaseURL, opts...), model: cfg.Model}, nil
}

func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	body := ollamaChatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}

	var resp ollamaChatResponse
	if err := c.api.postJSON(ctx, "/api/chat", body, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", fmt.Errorf("%s: %w: empty completion", providerOllama, shared.ErrParseFailure)
	}
	return resp.Message.Content, nil
}

// NewCompleter returns the recommendation provider selected by pipeline.provider.
func NewCompleter(cfg *shared.Config, opts ...Option) (Completer, error) {
	opts = append([]Option{WithTimeout(cfg.Pipeline.RequestTimeout)}, opts...)
	switch cfg.Pipeline.Provider {
	case providerOllama:
		return NewOllamaClient(cfg.Credentials.Ollama, opts...)
	case providerOpenAI, "":
		return NewOpenAIClient(cfg.Credentials.OpenAI, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", shared.ErrInvalidConfig, cfg.Pipeline.Provider)
	}
}
