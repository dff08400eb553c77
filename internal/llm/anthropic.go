package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicProvider struct {
	client      anthropic.Client
	httpClient  *http.Client
	model       string
	temperature float64
	maxTokens   int64
}

func newAnthropic(id Identity, s Settings) (Provider, error) {
	if err := requireKey(id, s.APIKey); err != nil {
		return nil, err
	}

	// retries are owned by the analyzer
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	if s.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(s.HTTPClient))
	}

	return &anthropicProvider{
		client:      anthropic.NewClient(opts...),
		httpClient:  s.HTTPClient,
		model:       s.Model,
		temperature: s.Temperature,
		maxTokens:   int64(s.MaxTokens),
	}, nil
}

func (p *anthropicProvider) Name() Identity { return Anthropic }
func (p *anthropicProvider) Model() string  { return p.model }

func (p *anthropicProvider) SendPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Temperature: anthropic.Float(p.temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return strings.TrimSpace(sb.String()), nil
}

func (p *anthropicProvider) Close() error {
	if p.httpClient != nil {
		p.httpClient.CloseIdleConnections()
	}
	return nil
}
