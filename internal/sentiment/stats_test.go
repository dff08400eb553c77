package sentiment

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_EmptySnapshot(t *testing.T) {
	snap := NewStats().Snapshot()

	assert.Equal(t, 0, snap.TotalRequests)
	assert.Equal(t, 0.5, snap.AverageScore)
	assert.Empty(t, snap.MostCommonKeywords)
	assert.Equal(t, map[string]int{"positive": 0, "negative": 0, "neutral": 0}, snap.ByType)
	assert.False(t, snap.Since.IsZero())
}

func TestStats_Aggregates(t *testing.T) {
	s := NewStats()
	s.RecordSuccess(Result{Sentiment: Sentiment{Score: 0.9, Type: Positive}, Keywords: []string{"sun", "beach"}})
	s.RecordSuccess(Result{Sentiment: Sentiment{Score: 0.1, Type: Negative}, Keywords: []string{"rain", "sun"}})
	s.RecordSuccess(Result{Sentiment: Sentiment{Score: 0.5, Type: Neutral}, Keywords: []string{"sun", "rain", "a", "b", "c"}})
	s.RecordFailure("PROVIDER_TIMEOUT")

	snap := s.Snapshot()
	assert.Equal(t, 4, snap.TotalRequests)
	assert.Equal(t, 3, snap.Successful)
	assert.Equal(t, 1, snap.Failed)
	assert.InDelta(t, 0.5, snap.AverageScore, 1e-9)
	assert.Equal(t, []string{"sun", "rain", "a", "b", "beach"}, snap.MostCommonKeywords)
	assert.Equal(t, 1, snap.ByType["positive"])
	assert.Equal(t, 1, snap.Failures["PROVIDER_TIMEOUT"])
}

func TestStats_SnapshotIsACopy(t *testing.T) {
	s := NewStats()
	s.RecordFailure("INVALID_INPUT")

	snap := s.Snapshot()
	snap.Failures["INVALID_INPUT"] = 99

	assert.Equal(t, 1, s.Snapshot().Failures["INVALID_INPUT"])
}

func TestStats_Concurrent(t *testing.T) {
	s := NewStats()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.RecordSuccess(DefaultResult())
		}()
		go func() {
			defer wg.Done()
			s.RecordFailure("PROVIDER_ERROR")
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, 100, snap.TotalRequests)
	assert.Equal(t, 50, snap.Successful)
	assert.Equal(t, 50, snap.Failed)
}
