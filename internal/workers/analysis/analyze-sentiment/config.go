// internal/workers/analysis/analyze-sentiment/config.go
package analyzesentiment

import (
	"time"

	"sentiment-aura/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	MaxJobsActive int
	MinTextLength int
	MaxTextLength int
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)

	c := &Config{
		Timeout:       config.GetDuration(wc.Timeout),
		MaxJobsActive: wc.MaxJobsActive,
		MinTextLength: cfg.Request.MinTextLength,
		MaxTextLength: cfg.Request.MaxTextLength,
	}
	if c.Timeout <= 0 {
		c.Timeout = 45 * time.Second
	}
	if c.MaxJobsActive <= 0 {
		c.MaxJobsActive = 5
	}
	if c.MinTextLength <= 0 {
		c.MinTextLength = 1
	}
	return c
}
