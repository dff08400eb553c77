package sentiment

// Type is the coarse polarity label.
type Type string

const (
	Positive Type = "positive"
	Negative Type = "negative"
	Neutral  Type = "neutral"
)

// Intensity buckets how far a score lies from neutral.
type Intensity string

const (
	Weak     Intensity = "weak"
	Moderate Intensity = "moderate"
	Strong   Intensity = "strong"
)

// MaxKeywords caps the keyword list.
const MaxKeywords = 7

type Sentiment struct {
	Score     float64   `json:"score"`
	Type      Type      `json:"type"`
	Intensity Intensity `json:"intensity"`
}

// Result is the normalized analysis. Every field is within its domain.
type Result struct {
	Sentiment Sentiment `json:"sentiment"`
	Keywords  []string  `json:"keywords"`
}

// DefaultResult is returned when nothing usable can be extracted.
func DefaultResult() Result {
	return Result{
		Sentiment: Sentiment{Score: 0.5, Type: Neutral, Intensity: Moderate},
		Keywords:  []string{},
	}
}

// DeriveType maps a score to a label: above 0.66 positive, below 0.33
// negative, neutral otherwise.
func DeriveType(score float64) Type {
	switch {
	case score > 0.66:
		return Positive
	case score < 0.33:
		return Negative
	default:
		return Neutral
	}
}

// DeriveIntensity buckets |score-0.5|: below 0.17 weak, below 0.34
// moderate, strong otherwise.
func DeriveIntensity(score float64) Intensity {
	distance := score - 0.5
	if distance < 0 {
		distance = -distance
	}
	switch {
	case distance < 0.17:
		return Weak
	case distance < 0.34:
		return Moderate
	default:
		return Strong
	}
}

func validType(t string) bool {
	switch Type(t) {
	case Positive, Negative, Neutral:
		return true
	}
	return false
}

func validIntensity(i string) bool {
	switch Intensity(i) {
	case Weak, Moderate, Strong:
		return true
	}
	return false
}
