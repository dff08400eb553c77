// internal/common/config/config.go
package config

import "strings"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	LLM           LLMConfig               `mapstructure:"llm"`
	Request       RequestConfig           `mapstructure:"request"`
	Cache         CacheConfig             `mapstructure:"cache"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
}

// LLMConfig holds provider credentials and the analyze retry policy.
type LLMConfig struct {
	GroqAPIKey      string  `mapstructure:"groq_api_key"`
	OpenAIAPIKey    string  `mapstructure:"openai_api_key"`
	AnthropicAPIKey string  `mapstructure:"anthropic_api_key"`
	GeminiAPIKey    string  `mapstructure:"gemini_api_key"`
	GroqModel       string  `mapstructure:"groq_model"`
	OpenAIModel     string  `mapstructure:"openai_model"`
	AnthropicModel  string  `mapstructure:"anthropic_model"`
	GeminiModel     string  `mapstructure:"gemini_model"`
	GroqBaseURL     string  `mapstructure:"groq_base_url"`
	OpenAIBaseURL   string  `mapstructure:"openai_base_url"`
	AnthropicURL    string  `mapstructure:"anthropic_base_url"`
	GeminiBaseURL   string  `mapstructure:"gemini_base_url"`
	Temperature     float64 `mapstructure:"temperature"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	Timeout         int     `mapstructure:"timeout"`      // milliseconds, per attempt
	MaxRetries      int     `mapstructure:"max_retries"`  // total attempts
	BackoffUnit     int     `mapstructure:"backoff_unit"` // milliseconds
	MaxInputLength  int     `mapstructure:"max_input_length"`
}

// ActiveProvider reports the provider the analyzer will pick from the
// configured keys, or "none".
func (c LLMConfig) ActiveProvider() string {
	switch {
	case c.GroqAPIKey != "":
		return "groq"
	case c.OpenAIAPIKey != "":
		return "openai"
	case c.AnthropicAPIKey != "":
		return "anthropic"
	case c.GeminiAPIKey != "":
		return "gemini"
	}
	return "none"
}

// ModelFor returns the configured model name for a provider.
func (c LLMConfig) ModelFor(provider string) string {
	switch provider {
	case "groq":
		return c.GroqModel
	case "openai":
		return c.OpenAIModel
	case "anthropic":
		return c.AnthropicModel
	case "gemini":
		return c.GeminiModel
	}
	return ""
}

// HasKey reports whether a credential is configured for the provider.
func (c LLMConfig) HasKey(provider string) bool {
	switch provider {
	case "groq":
		return c.GroqAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "gemini":
		return c.GeminiAPIKey != ""
	}
	return false
}

type RequestConfig struct {
	MinTextLength int `mapstructure:"min_text_length"`
	MaxTextLength int `mapstructure:"max_text_length"`
}

type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	TTL       int    `mapstructure:"ttl"` // milliseconds
	KeyPrefix string `mapstructure:"key_prefix"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
}

// Redacted returns a loggable view of the configuration with credentials masked.
func (c *Config) Redacted() map[string]interface{} {
	return map[string]interface{}{
		"environment":     c.App.Environment,
		"debug":           c.App.Debug,
		"host":            c.Server.Host,
		"port":            c.Server.Port,
		"corsOrigins":     strings.Join(c.Server.CORSOrigins, ","),
		"activeProvider":  c.LLM.ActiveProvider(),
		"groqApiKey":      mask(c.LLM.GroqAPIKey),
		"openaiApiKey":    mask(c.LLM.OpenAIAPIKey),
		"anthropicApiKey": mask(c.LLM.AnthropicAPIKey),
		"geminiApiKey":    mask(c.LLM.GeminiAPIKey),
		"timeoutMs":       c.LLM.Timeout,
		"maxRetries":      c.LLM.MaxRetries,
		"cacheEnabled":    c.Cache.Enabled,
		"camundaEnabled":  c.Camunda.Enabled,
		"logLevel":        c.Logging.Level,
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-2:]
}
