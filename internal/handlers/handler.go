// Package handlers exposes the analyzer over HTTP.
package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"sentiment-aura/internal/common/config"
	apperrors "sentiment-aura/internal/common/errors"
	"sentiment-aura/internal/common/logger"
	"sentiment-aura/internal/common/validation"
	"sentiment-aura/internal/llm"
	"sentiment-aura/internal/sentiment"
)

// BuildDate is stamped at link time.
var BuildDate = "2024-01-15"

// Analyzer is the part of *sentiment.Analyzer the handlers use.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*sentiment.Result, error)
	Provider() llm.Identity
	Model() string
	Stats() *sentiment.Stats
}

// StatusChecker reports "operational" or "degraded" for a backing service.
type StatusChecker interface {
	Status(ctx context.Context) string
}

// Dependencies are the collaborators of Handler. Analyzer, Cache and
// Workflow may be nil.
type Dependencies struct {
	Config   *config.Config
	Analyzer Analyzer
	Cache    StatusChecker
	Workflow StatusChecker
	Logger   logger.Logger
}

type Handler struct {
	cfg       *config.Config
	analyzer  Analyzer
	cache     StatusChecker
	workflow  StatusChecker
	validator *validation.Validator
	logger    logger.Logger
}

func NewHandler(deps Dependencies) (*Handler, error) {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	v, err := validation.NewTextValidator(deps.Config.Request.MinTextLength, deps.Config.Request.MaxTextLength)
	if err != nil {
		return nil, err
	}

	return &Handler{
		cfg:       deps.Config,
		analyzer:  deps.Analyzer,
		cache:     deps.Cache,
		workflow:  deps.Workflow,
		validator: v,
		logger:    log.With(map[string]interface{}{"component": "http"}),
	}, nil
}

// ==========================
// Response types
// ==========================

type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Timestamp  string `json:"timestamp"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}

type StatsResponse struct {
	sentiment.StatsSnapshot
	Provider  string `json:"provider"`
	Timestamp string `json:"timestamp"`
}

type ModelInfo struct {
	Provider    string `json:"provider"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

type ModelsResponse struct {
	Models         []ModelInfo `json:"models"`
	ActiveModel    string      `json:"active_model"`
	ActiveProvider string      `json:"active_provider"`
}

type Language struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Supported bool   `json:"supported"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	stdErr := apperrors.Normalize(err)
	status := apperrors.HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"code":      string(stdErr.Code),
		"status":    status,
		"details":   stdErr.Details,
		"requestId": c.GetString(requestIDKey),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
	} else {
		h.logger.Warn("request rejected", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:      stdErr.PublicMessage(),
		StatusCode: status,
		Timestamp:  timestamp(),
	})
}

// ==========================
// Endpoints
// ==========================

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    h.cfg.App.Name,
		"version": h.cfg.App.Version,
		"status":  "running",
		"endpoints": gin.H{
			"health":  "/health",
			"process": "/process_text",
			"metrics": "/metrics",
		},
	})
}

func (h *Handler) Health(c *gin.Context) {
	res := HealthResponse{
		Status:    "healthy",
		Timestamp: timestamp(),
		Version:   h.cfg.App.Version,
		Services: map[string]string{
			"api":      "operational",
			"llm":      "operational",
			"cache":    "disabled",
			"workflow": "disabled",
		},
	}
	if h.analyzer == nil {
		res.Services["llm"] = "unavailable"
		res.Status = "degraded"
	}
	if h.cache != nil {
		res.Services["cache"] = h.cache.Status(c.Request.Context())
	}
	if h.workflow != nil {
		res.Services["workflow"] = h.workflow.Status(c.Request.Context())
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Ready(c *gin.Context) {
	if h.analyzer == nil {
		h.writeError(c, apperrors.NewServiceUnavailableError("no analyzer configured"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *Handler) ProcessText(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.writeError(c, apperrors.NewInternalError(err))
		return
	}

	if res := h.validator.ValidateJSON(body); !res.Valid {
		h.logger.Warn("invalid request body", map[string]interface{}{
			"errors":    res.GetErrorMessages(),
			"requestId": c.GetString(requestIDKey),
		})
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Error:      "Invalid request: " + strings.Join(res.GetErrorMessages(), "; "),
			StatusCode: http.StatusBadRequest,
			Timestamp:  timestamp(),
		})
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := binding.JSON.BindBody(body, &req); err != nil {
		h.writeError(c, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		h.writeError(c, apperrors.NewInvalidInputError("text is empty after trimming whitespace"))
		return
	}
	if h.analyzer == nil {
		h.writeError(c, apperrors.NewServiceUnavailableError("no analyzer configured"))
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetStats(c *gin.Context) {
	res := StatsResponse{Provider: string(llm.None), Timestamp: timestamp()}

	var stats *sentiment.Stats
	if h.analyzer != nil {
		res.Provider = string(h.analyzer.Provider())
		stats = h.analyzer.Stats()
	}
	if stats == nil {
		stats = sentiment.NewStats()
	}
	res.StatsSnapshot = stats.Snapshot()

	c.JSON(http.StatusOK, res)
}

func (h *Handler) Batch(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotImplemented, ErrorResponse{
		Error:      "Batch processing not yet implemented",
		StatusCode: http.StatusNotImplemented,
		Timestamp:  timestamp(),
	})
}

func (h *Handler) SupportedLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": []Language{
			{Code: "en", Name: "English", Supported: true},
			{Code: "es", Name: "Spanish"},
			{Code: "fr", Name: "French"},
			{Code: "de", Name: "German"},
			{Code: "zh", Name: "Chinese"},
			{Code: "ja", Name: "Japanese"},
		},
		"default": "en",
		"note":    "Multi-language support coming soon",
	})
}

var modelDescriptions = map[llm.Identity]string{
	llm.Groq:      "Low latency hosted Llama model",
	llm.OpenAI:    "Fast and efficient for sentiment analysis",
	llm.Anthropic: "Balanced performance and accuracy",
	llm.Gemini:    "Google's latest model",
}

func (h *Handler) Models(c *gin.Context) {
	res := ModelsResponse{ActiveProvider: string(llm.None)}
	for _, id := range llm.Priority {
		res.Models = append(res.Models, ModelInfo{
			Provider:    string(id),
			Name:        h.cfg.LLM.ModelFor(string(id)),
			Description: modelDescriptions[id],
			Available:   h.cfg.LLM.HasKey(string(id)),
		})
	}
	if h.analyzer != nil {
		res.ActiveModel = h.analyzer.Model()
		res.ActiveProvider = string(h.analyzer.Provider())
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":     h.cfg.App.Version,
		"api_version": "v1",
		"build_date":  BuildDate,
		"features": gin.H{
			"sentiment_analysis": true,
			"keyword_extraction": true,
			"batch_processing":   false,
			"multi_language":     false,
			"custom_models":      false,
		},
	})
}
