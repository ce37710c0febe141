package entities

// SentimentCategory is the coarse display bucket of a sentiment score
type SentimentCategory string

const (
	SentimentPositive SentimentCategory = "positive"
	SentimentNeutral  SentimentCategory = "neutral"
	SentimentNegative SentimentCategory = "negative"
)

const (
	// NeutralSentimentPercentage is shown when an analysis carries no score.
	NeutralSentimentPercentage = 50.0

	positiveAbove = 60.0
	negativeBelow = 40.0
)

var sentimentLabels = map[SentimentCategory]string{
	SentimentPositive: "Positive",
	SentimentNegative: "Needs Attention",
	SentimentNeutral:  "Neutral",
}

// Label returns the human readable label of the category
func (c SentimentCategory) Label() string {
	return sentimentLabels[c]
}

// Sentiment is the display classification derived from a score
type Sentiment struct {
	Percentage float64
	Category   SentimentCategory
	Label      string
}

// NeedsAttention reports whether the advisory notice should be shown
func (s Sentiment) NeedsAttention() bool {
	return s.Category == SentimentNegative
}

// SentimentPercentage maps a score in [-1, 1] linearly onto [0, 100].
// Scores outside the nominal range are not clamped. A nil score is neutral.
func SentimentPercentage(score *float64) float64 {
	if score == nil {
		return NeutralSentimentPercentage
	}
	return (*score + 1) * 50
}

// CategoryForPercentage buckets a percentage. Both boundaries are neutral.
func CategoryForPercentage(percentage float64) SentimentCategory {
	switch {
	case percentage > positiveAbove:
		return SentimentPositive
	case percentage < negativeBelow:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// NewSentiment classifies score for display
func NewSentiment(score *float64) Sentiment {
	pct := SentimentPercentage(score)
	cat := CategoryForPercentage(pct)
	return Sentiment{
		Percentage: pct,
		Category:   cat,
		Label:      cat.Label(),
	}
}
