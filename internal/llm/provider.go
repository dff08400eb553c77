// Package llm selects one LLM backend from the configured credentials and
// exposes it as a plain text-in, text-out Provider.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"sentiment-aura/internal/common/config"
	apperrors "sentiment-aura/internal/common/errors"
	commonhttp "sentiment-aura/internal/common/http"
)

// Identity names a provider backend.
type Identity string

const (
	Groq      Identity = "groq"
	OpenAI    Identity = "openai"
	Anthropic Identity = "anthropic"
	Gemini    Identity = "gemini"
	None      Identity = "none"
)

// Priority is the order in which providers are considered.
var Priority = []Identity{Groq, OpenAI, Anthropic, Gemini}

// ErrEmptyResponse is returned by adapters when the backend reply carries no
// message at all. An empty message text is returned as "" without error.
var ErrEmptyResponse = errors.New("empty response from provider")

// Provider sends one prompt to a backend and returns its raw text reply.
type Provider interface {
	Name() Identity
	Model() string
	SendPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Availability flags a boolean per provider.
type Availability map[Identity]bool

// Select picks the first provider in Priority order that has both a
// credential and a compiled-in adapter.
func Select(creds, sdks Availability) Identity {
	for _, id := range Priority {
		if creds[id] && sdks[id] {
			return id
		}
	}
	return None
}

// Settings configures a single adapter.
type Settings struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
}

type constructor func(id Identity, s Settings) (Provider, error)

var adapters = map[Identity]constructor{
	Groq:      newOpenAICompatible,
	OpenAI:    newOpenAICompatible,
	Anthropic: newAnthropic,
	Gemini:    newGemini,
}

// SDKAvailability reports which adapters are compiled in.
func SDKAvailability() Availability {
	out := Availability{}
	for id := range adapters {
		out[id] = true
	}
	return out
}

// Credentials derives credential flags from configured API keys.
func Credentials(cfg config.LLMConfig) Availability {
	out := Availability{}
	for _, id := range Priority {
		out[id] = cfg.HasKey(string(id))
	}
	return out
}

type options struct {
	httpClient *http.Client
	sdks       Availability
}

// Option customizes New.
type Option func(*options)

// WithHTTPClient sets the HTTP client handed to the provider SDK.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithSDKAvailability overrides the compiled-in adapter flags.
func WithSDKAvailability(sdks Availability) Option {
	return func(o *options) { o.sdks = sdks }
}

// New selects a provider from cfg and constructs its adapter. It returns a
// CONFIGURATION_ERROR when no provider is usable.
func New(cfg config.LLMConfig, opts ...Option) (Provider, error) {
	o := &options{sdks: SDKAvailability()}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = commonhttp.NewClient(0).Standard()
	}

	id := Select(Credentials(cfg), o.sdks)
	if id == None {
		return nil, apperrors.NewConfigurationError("no provider configured: set one of GROQ_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY")
	}

	s := settingsFor(cfg, id)
	s.HTTPClient = o.httpClient

	p, err := adapters[id](id, s)
	if err != nil {
		return nil, fmt.Errorf("initialize %s provider: %w", id, err)
	}
	return p, nil
}

func settingsFor(cfg config.LLMConfig, id Identity) Settings {
	s := Settings{
		Model:       cfg.ModelFor(string(id)),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
	switch id {
	case Groq:
		s.APIKey, s.BaseURL = cfg.GroqAPIKey, cfg.GroqBaseURL
	case OpenAI:
		s.APIKey, s.BaseURL = cfg.OpenAIAPIKey, cfg.OpenAIBaseURL
	case Anthropic:
		s.APIKey, s.BaseURL = cfg.AnthropicAPIKey, cfg.AnthropicURL
	case Gemini:
		s.APIKey, s.BaseURL = cfg.GeminiAPIKey, cfg.GeminiBaseURL
	}
	return s
}

// Close releases the provider's resources when it has any.
func Close(p Provider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func requireKey(id Identity, key string) error {
	if key == "" {
		return apperrors.NewConfigurationError(fmt.Sprintf("%s API key is empty", id))
	}
	return nil
}
