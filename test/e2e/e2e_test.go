// test/e2e/e2e_test.go
package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-aura/internal/common/config"
	"sentiment-aura/internal/common/database"
	"sentiment-aura/internal/common/logger"
	"sentiment-aura/internal/handlers"
	"sentiment-aura/internal/sentiment"
)

// ==========================
// Fake upstream
// ==========================

type upstream struct {
	mu      sync.Mutex
	prompts []string
	hits    atomic.Int32
	status  int
	delay   time.Duration
	content string
}

func (u *upstream) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)

		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Messages) == 2 {
			u.mu.Lock()
			u.prompts = append(u.prompts, req.Messages[1].Content)
			u.mu.Unlock()
		}

		if u.delay > 0 {
			select {
			case <-time.After(u.delay):
			case <-r.Context().Done():
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if u.status != 0 && u.status != http.StatusOK {
			w.WriteHeader(u.status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-e2e",
			"object":  "chat.completion",
			"created": 1,
			"model":   "llama-3.3-70b-versatile",
			"choices": []map[string]interface{}{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": u.content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ==========================
// Service under test
// ==========================

type service struct {
	url      string
	analyzer *sentiment.Analyzer
}

func startService(t *testing.T, up *upstream, withCache bool, tune func(*config.LLMConfig)) *service {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}

	cfg, err := config.LoadFromFile("../../configs/config.yaml")
	require.NoError(t, err)

	upSrv := up.server(t)
	cfg.LLM.GroqAPIKey = "test-key"
	cfg.LLM.OpenAIAPIKey = ""
	cfg.LLM.AnthropicAPIKey = ""
	cfg.LLM.GeminiAPIKey = ""
	cfg.LLM.GroqBaseURL = upSrv.URL + "/openai/v1"
	cfg.LLM.Timeout = 500
	cfg.LLM.BackoffUnit = 10
	if tune != nil {
		tune(&cfg.LLM)
	}

	log := logger.NewTestLogger(t)
	extra := []sentiment.Option{sentiment.WithStats(sentiment.NewStats())}

	deps := handlers.Dependencies{Config: cfg, Logger: log}
	if withCache {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)

		rdb, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
		require.NoError(t, err)
		t.Cleanup(func() { _ = rdb.Close() })

		extra = append(extra, sentiment.WithCache(
			sentiment.NewRedisCache(rdb, config.GetDuration(cfg.Cache.TTL), cfg.Cache.KeyPrefix)))
		deps.Cache = rdb
	}

	analyzer, err := sentiment.NewFromConfig(cfg.LLM, log, nil, extra...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = analyzer.Close() })
	deps.Analyzer = analyzer

	h, err := handlers.NewHandler(deps)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(handlers.NewRouter(h))
	t.Cleanup(srv.Close)

	return &service{url: srv.URL, analyzer: analyzer}
}

func (s *service) post(t *testing.T, text string) (*http.Response, map[string]interface{}) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"text": text})
	resp, err := http.Post(s.url+"/process_text", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (s *service) get(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	resp, err := http.Get(s.url + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ==========================
// Scenarios
// ==========================

func TestE2E_AnalyzeWithCache(t *testing.T) {
	up := &upstream{content: "Here you go:\n```json\n{\"sentiment\":{\"score\":0.92,\"type\":\"positive\",\"intensity\":\"strong\"},\"keywords\":[\"Launch\",\"Team\"]}\n```"}
	svc := startService(t, up, true, nil)

	for i := 0; i < 2; i++ {
		resp, out := svc.post(t, "The launch went great, the team nailed it!")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, map[string]interface{}{
			"score":     0.92,
			"type":      "positive",
			"intensity": "strong",
		}, out["sentiment"])
		assert.Equal(t, []interface{}{"launch", "team"}, out["keywords"])
	}
	assert.Equal(t, int32(1), up.hits.Load())

	health := svc.get(t, "/health")
	assert.Equal(t, "healthy", health["status"])
	services := health["services"].(map[string]interface{})
	assert.Equal(t, "operational", services["cache"])
	assert.Equal(t, "operational", services["llm"])

	stats := svc.get(t, "/api/stats")
	assert.Equal(t, float64(2), stats["total_requests"])
	assert.Equal(t, "groq", stats["provider"])

	models := svc.get(t, "/api/models")
	assert.Equal(t, "groq", models["active_provider"])
	assert.Equal(t, "llama-3.3-70b-versatile", models["active_model"])
}

func TestE2E_UpstreamFailureIsReported(t *testing.T) {
	up := &upstream{status: http.StatusInternalServerError}
	svc := startService(t, up, false, func(c *config.LLMConfig) { c.MaxRetries = 2 })

	resp, out := svc.post(t, "anything")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, float64(500), out["status_code"])
	assert.True(t, strings.HasPrefix(out["error"].(string), "Failed to analyze sentiment: "), out["error"])
	assert.Equal(t, int32(2), up.hits.Load())
}

func TestE2E_UpstreamTimeout(t *testing.T) {
	up := &upstream{delay: 2 * time.Second, content: "{}"}
	svc := startService(t, up, false, func(c *config.LLMConfig) {
		c.Timeout = 50
		c.MaxRetries = 2
	})

	start := time.Now()
	resp, out := svc.post(t, "slow day")

	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	assert.Equal(t, "Request timeout - the analysis took too long. Please try again.", out["error"])
	assert.Less(t, time.Since(start), time.Second)
}

func TestE2E_InvalidInputNeverReachesUpstream(t *testing.T) {
	up := &upstream{content: "{}"}
	svc := startService(t, up, false, nil)

	resp, out := svc.post(t, " \n\t ")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Text cannot be empty or just whitespace", out["error"])

	resp, _ = svc.post(t, strings.Repeat("x", 5001))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, int32(0), up.hits.Load())
}

func TestE2E_LongInputIsTruncatedBeforeSending(t *testing.T) {
	up := &upstream{content: `{"sentiment":{"score":0.5},"keywords":[]}`}
	svc := startService(t, up, false, nil)

	resp, out := svc.post(t, strings.Repeat("y", 4000))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "neutral", out["sentiment"].(map[string]interface{})["type"])
	assert.Equal(t, []interface{}{}, out["keywords"])

	require.Len(t, up.prompts, 1)
	assert.Contains(t, up.prompts[0], strings.Repeat("y", 3000)+"...")
	assert.NotContains(t, up.prompts[0], strings.Repeat("y", 3001))
}
