// internal/workers/analysis/analyze-sentiment/models.go
package analyzesentiment

import "sentiment-aura/internal/sentiment"

type Input struct {
	Text string `json:"text"`
}

type Output struct {
	Sentiment sentiment.Sentiment `json:"sentiment"`
	Keywords  []string            `json:"keywords"`
	Provider  string              `json:"provider"`
}
