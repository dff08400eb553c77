package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// openAIProvider serves both OpenAI and Groq, which speak the same chat
// completions protocol.
type openAIProvider struct {
	id          Identity
	model       string
	client      *openai.Client
	httpClient  *http.Client
	temperature float32
	maxTokens   int
}

func newOpenAICompatible(id Identity, s Settings) (Provider, error) {
	if err := requireKey(id, s.APIKey); err != nil {
		return nil, err
	}

	cfg := openai.DefaultConfig(s.APIKey)
	switch {
	case s.BaseURL != "":
		cfg.BaseURL = strings.TrimRight(s.BaseURL, "/")
	case id == Groq:
		cfg.BaseURL = GroqBaseURL
	}
	if s.HTTPClient != nil {
		cfg.HTTPClient = s.HTTPClient
	}

	return &openAIProvider{
		id:          id,
		model:       s.Model,
		client:      openai.NewClientWithConfig(cfg),
		httpClient:  s.HTTPClient,
		temperature: float32(s.Temperature),
		maxTokens:   s.MaxTokens,
	}, nil
}

func (p *openAIProvider) Name() Identity { return p.id }
func (p *openAIProvider) Model() string  { return p.model }

func (p *openAIProvider) SendPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", p.id, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", p.id, ErrEmptyResponse)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *openAIProvider) Close() error {
	if p.httpClient != nil {
		p.httpClient.CloseIdleConnections()
	}
	return nil
}
