package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/storysounds/internal/shared"
)

const systemPrompt = "You are a music curator. Reply with only the JSON or labels requested, no commentary."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// OpenAIClient implements [Completer] with chat completions and [Transcriber] with the audio API.
type OpenAIClient struct {
	api                *apiClient
	model              string
	transcriptionModel string
	temperature        float64
}

func NewOpenAIClient(cfg shared.OpenAIConfig, opts ...Option) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai api_key", shared.ErrMissingCredentials)
	}

	c := &OpenAIClient{
		api:                newAPIClient(providerOpenAI, cfg.BaseURL, opts...),
		model:              cfg.Model,
		transcriptionModel: cfg.TranscriptionModel,
		temperature:        cfg.Temperature,
	}
	key := cfg.APIKey
	c.api.authorize = func(_ context.Context, req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+key)
		return nil
	}
	return c, nil
}

// Complete sends prompt as a single user message.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature,
	}

	var resp chatResponse
	if err := c.api.postJSON(ctx, "/chat/completions", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%s: %w: empty completion", providerOpenAI, shared.ErrParseFailure)
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe uploads audio and returns the recognized text.
func (c *OpenAIClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if filename == "" {
		filename = "audio.webm"
	}
	fields := map[string]string{
		"model":           c.transcriptionModel,
		"response_format": "json",
		"temperature":     "0",
	}

	var resp transcriptionResponse
	if err := c.api.postMultipart(ctx, "/audio/transcriptions", fields, "file", filename, audio, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
