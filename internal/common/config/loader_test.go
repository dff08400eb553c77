package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"GROQ_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "REDIS_ADDRESS", "ZEEBE_ADDRESS"} {
		t.Setenv(name, "")
	}
}

// ==========================
// Loading
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	clearProviderEnv(t)
	path := writeConfig(t, "app:\n  environment: test\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Sentiment Aura API", cfg.App.Name)
	assert.Equal(t, "1.0.0", cfg.App.Version)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 10000, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 1000, cfg.LLM.BackoffUnit)
	assert.Equal(t, 3000, cfg.LLM.MaxInputLength)
	assert.Equal(t, 0.3, cfg.LLM.Temperature)
	assert.Equal(t, 150, cfg.LLM.MaxTokens)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.OpenAIModel)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.GroqModel)
	assert.Equal(t, 5000, cfg.Request.MaxTextLength)
	assert.Equal(t, "sentiment:", cfg.Cache.KeyPrefix)
	assert.Equal(t, "none", cfg.LLM.ActiveProvider())
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test-openai")
	path := writeConfig(t, "llm:\n  openai_api_key: ${OPENAI_API_KEY}\n  groq_api_key: ${GROQ_API_KEY}\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-test-openai", cfg.LLM.OpenAIAPIKey)
	assert.Empty(t, cfg.LLM.GroqAPIKey, "unset placeholder must not survive as a literal")
	assert.Equal(t, "openai", cfg.LLM.ActiveProvider())
}

func TestLoadFromFile_FallsBackToProviderEnv(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GEMINI_API_KEY", "gm-key")
	path := writeConfig(t, "app:\n  name: x\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "gm-key", cfg.LLM.GeminiAPIKey)
	assert.True(t, cfg.LLM.HasKey("gemini"))
	assert.False(t, cfg.LLM.HasKey("openai"))
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

// ==========================
// Validation
// ==========================

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "port out of range",
			body:    "server:\n  port: 70000\n",
			wantErr: "server.port",
		},
		{
			name:    "temperature out of range",
			body:    "llm:\n  temperature: 2.5\n",
			wantErr: "llm.temperature",
		},
		{
			name:    "negative timeout",
			body:    "llm:\n  timeout: -5\n",
			wantErr: "llm.timeout",
		},
		{
			name:    "min length not below max",
			body:    "request:\n  min_text_length: 100\n  max_text_length: 50\n",
			wantErr: "request.min_text_length",
		},
		{
			name:    "cache without redis",
			body:    "cache:\n  enabled: true\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "camunda without broker",
			body:    "camunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearProviderEnv(t)
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// ==========================
// Helpers
// ==========================

func TestLLMConfig_ActiveProviderPriority(t *testing.T) {
	cfg := LLMConfig{OpenAIAPIKey: "o", AnthropicAPIKey: "a", GeminiAPIKey: "g"}
	assert.Equal(t, "openai", cfg.ActiveProvider())

	cfg.GroqAPIKey = "q"
	assert.Equal(t, "groq", cfg.ActiveProvider())

	assert.Equal(t, "", cfg.ModelFor("none"))
}

func TestRedacted_MasksKeys(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{OpenAIAPIKey: "sk-1234567890abcdef"}}
	view := cfg.Redacted()

	assert.Equal(t, "sk-1***ef", view["openaiApiKey"])
	assert.Equal(t, "", view["groqApiKey"])
	assert.Equal(t, "openai", view["activeProvider"])
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"analyze-sentiment": {Enabled: false, MaxJobsActive: 2}}}

	assert.Equal(t, 2, GetWorkerConfig(cfg, "analyze-sentiment").MaxJobsActive)
	assert.False(t, IsWorkerEnabled(cfg, "analyze-sentiment"))
	assert.True(t, IsWorkerEnabled(cfg, "other"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "other").MaxJobsActive)
}
