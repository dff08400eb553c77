package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const (
	geminiTopP = 0.9
	geminiTopK = 40
)

type geminiProvider struct {
	client      *genai.Client
	httpClient  *http.Client
	model       string
	temperature float32
	maxTokens   int32
}

func newGemini(id Identity, s Settings) (Provider, error) {
	if err := requireKey(id, s.APIKey); err != nil {
		return nil, err
	}

	cc := &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: s.BaseURL,
		},
	}
	if s.HTTPClient != nil {
		cc.HTTPClient = s.HTTPClient
	}

	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, err
	}

	return &geminiProvider{
		client:      client,
		httpClient:  s.HTTPClient,
		model:       s.Model,
		temperature: float32(s.Temperature),
		maxTokens:   int32(s.MaxTokens),
	}, nil
}

func (p *geminiProvider) Name() Identity { return Gemini }
func (p *geminiProvider) Model() string  { return p.model }

// SendPrompt folds the system prompt into the user turn.
func (p *geminiProvider) SendPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](p.temperature),
		MaxOutputTokens: p.maxTokens,
		TopP:            genai.Ptr[float32](geminiTopP),
		TopK:            genai.Ptr[float32](geminiTopK),
	}

	res, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(systemPrompt+"\n\n"+userPrompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}

	return strings.TrimSpace(sb.String()), nil
}

func (p *geminiProvider) Close() error {
	if p.httpClient != nil {
		p.httpClient.CloseIdleConnections()
	}
	return nil
}
