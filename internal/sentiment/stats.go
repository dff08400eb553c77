package sentiment

import (
	"sort"
	"sync"
	"time"
)

// Stats aggregates analyze outcomes in memory.
type Stats struct {
	mu        sync.Mutex
	total     int
	succeeded int
	failed    int
	scoreSum  float64
	byType    map[Type]int
	failures  map[string]int
	keywords  map[string]int
	startedAt time.Time
}

func NewStats() *Stats {
	return &Stats{
		byType:    map[Type]int{},
		failures:  map[string]int{},
		keywords:  map[string]int{},
		startedAt: time.Now().UTC(),
	}
}

func (s *Stats) RecordSuccess(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.succeeded++
	s.scoreSum += r.Sentiment.Score
	s.byType[r.Sentiment.Type]++
	for _, k := range r.Keywords {
		s.keywords[k]++
	}
}

func (s *Stats) RecordFailure(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.failed++
	s.failures[code]++
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	TotalRequests      int            `json:"total_requests"`
	Successful         int            `json:"successful"`
	Failed             int            `json:"failed"`
	AverageScore       float64        `json:"average_sentiment_score"`
	MostCommonKeywords []string       `json:"most_common_keywords"`
	ByType             map[string]int `json:"by_type"`
	Failures           map[string]int `json:"failures"`
	Since              time.Time      `json:"since"`
}

const topKeywordCount = 5

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		TotalRequests:      s.total,
		Successful:         s.succeeded,
		Failed:             s.failed,
		AverageScore:       0.5,
		MostCommonKeywords: topKeywords(s.keywords, topKeywordCount),
		ByType: map[string]int{
			string(Positive): s.byType[Positive],
			string(Negative): s.byType[Negative],
			string(Neutral):  s.byType[Neutral],
		},
		Failures: make(map[string]int, len(s.failures)),
		Since:    s.startedAt,
	}
	if s.succeeded > 0 {
		snap.AverageScore = s.scoreSum / float64(s.succeeded)
	}
	for code, n := range s.failures {
		snap.Failures[code] = n
	}
	return snap
}

// topKeywords orders by count, then alphabetically.
func topKeywords(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
