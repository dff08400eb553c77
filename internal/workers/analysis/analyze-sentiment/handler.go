// internal/workers/analysis/analyze-sentiment/handler.go
package analyzesentiment

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"sentiment-aura/internal/common/errors"
	"sentiment-aura/internal/common/logger"
	"sentiment-aura/internal/common/validation"
	"sentiment-aura/internal/llm"
	"sentiment-aura/internal/sentiment"
)

const (
	TaskType = "analyze-sentiment"
)

// Analyzer is satisfied by *sentiment.Analyzer.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*sentiment.Result, error)
	Provider() llm.Identity
}

type Handler struct {
	config       *Config
	analyzer     Analyzer
	validator    *validation.Validator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, analyzer Analyzer, log logger.Logger) (*Handler, error) {
	v, err := validation.NewTextValidator(config.MinTextLength, config.MaxTextLength)
	if err != nil {
		return nil, fmt.Errorf("build input schema: %w", err)
	}

	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		analyzer:     analyzer,
		validator:    v,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	vars, err := job.GetVariablesAsMap()
	if err != nil {
		err = errors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.Execute(ctx, vars)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	return h.completeJob(ctx, client, job, output)
}

// Execute validates the job variables and runs one analysis.
func (h *Handler) Execute(ctx context.Context, vars map[string]interface{}) (*Output, error) {
	if res := h.validator.ValidateInput(vars); !res.Valid {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("invalid variables: %v", res.GetErrorMessages()))
	}
	if h.analyzer == nil {
		return nil, errors.NewServiceUnavailableError("no analyzer configured")
	}

	input := Input{Text: vars["text"].(string)}

	result, err := h.analyzer.Analyze(ctx, input.Text)
	if err != nil {
		return nil, err
	}

	h.logger.Info("sentiment analyzed", map[string]interface{}{
		"type":     string(result.Sentiment.Type),
		"score":    result.Sentiment.Score,
		"keywords": len(result.Keywords),
	})

	return &Output{
		Sentiment: result.Sentiment,
		Keywords:  result.Keywords,
		Provider:  string(h.analyzer.Provider()),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}
	return nil
}
