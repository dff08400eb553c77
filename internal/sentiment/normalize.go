package sentiment

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Strategy names the extraction step that produced the parsed object.
type Strategy string

const (
	StrategyDirect  Strategy = "direct"
	StrategyFenced  Strategy = "fenced"
	StrategyBraces  Strategy = "braces"
	StrategyDefault Strategy = "default"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```(?:json)?\n(.*?)\n```")
	braceSpan   = regexp.MustCompile(`(?s)\{.*\}`)
)

type extractor struct {
	name Strategy
	fn   func(raw string) (map[string]interface{}, bool)
}

// extractors run in order; the first to yield a JSON object wins.
var extractors = []extractor{
	{StrategyDirect, extractDirect},
	{StrategyFenced, extractFenced},
	{StrategyBraces, extractBraces},
}

func extractDirect(raw string) (map[string]interface{}, bool) {
	return decodeObject(raw)
}

func extractFenced(raw string) (map[string]interface{}, bool) {
	m := fencedBlock.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	return decodeObject(m[1])
}

func extractBraces(raw string) (map[string]interface{}, bool) {
	span := braceSpan.FindString(raw)
	if span == "" {
		return nil, false
	}
	return decodeObject(span)
}

// decodeObject keeps numbers as json.Number so an out-of-range score does not
// reject the whole object.
func decodeObject(s string) (map[string]interface{}, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return obj, true
}

// Extract returns the first JSON object found in raw and the strategy that
// found it. It returns nil and StrategyDefault when none applies.
func Extract(raw string) (map[string]interface{}, Strategy) {
	if raw == "" {
		return nil, StrategyDefault
	}
	for _, ex := range extractors {
		if obj, ok := ex.fn(raw); ok {
			return obj, ex.name
		}
	}
	return nil, StrategyDefault
}

// Normalize turns any provider reply into a valid Result. It never fails.
func Normalize(raw string) Result {
	obj, _ := Extract(raw)
	return Repair(obj)
}

// Repair coerces a decoded object into a valid Result field by field. A nil
// object yields DefaultResult; a missing sentiment object keeps the default
// sentiment.
func Repair(obj map[string]interface{}) Result {
	res := DefaultResult()
	if obj == nil {
		return res
	}

	if sent, ok := obj["sentiment"].(map[string]interface{}); ok {
		res.Sentiment = repairSentiment(sent)
	}

	if list, ok := obj["keywords"].([]interface{}); ok {
		res.Keywords = cleanKeywords(list)
	}

	return res
}

func repairSentiment(sent map[string]interface{}) Sentiment {
	res := DefaultResult()

	if f, ok := toFloat(sent["score"]); ok {
		res.Sentiment.Score = clamp(f)
	}

	if t, ok := sent["type"].(string); ok && validType(t) {
		res.Sentiment.Type = Type(t)
	} else {
		res.Sentiment.Type = DeriveType(res.Sentiment.Score)
	}

	if i, ok := sent["intensity"].(string); ok && validIntensity(i) {
		res.Sentiment.Intensity = Intensity(i)
	} else {
		res.Sentiment.Intensity = DeriveIntensity(res.Sentiment.Score)
	}

	return res.Sentiment
}

// cleanKeywords filters before truncating so dropped entries do not use up
// slots.
func cleanKeywords(list []interface{}) []string {
	out := make([]string, 0, MaxKeywords)
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}

// toFloat accepts JSON numbers and numeric strings. Values beyond float64
// range come back as ±Inf and are clamped by the caller.
func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case json.Number:
		parsed, ok := parseFloat(string(n))
		if !ok {
			return 0, false
		}
		f = parsed
	case string:
		parsed, ok := parseFloat(strings.TrimSpace(n))
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}

func clamp(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
