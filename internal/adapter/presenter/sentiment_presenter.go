package presenter

import (
	"strconv"

	"github.com/johnquangdev/networking/internal/domain/entities"
)

// SentimentView feeds the sentiment meter widget
type SentimentView struct {
	Percentage     float64
	Value          string // attribute form of Percentage
	Category       string
	Label          string
	NeedsAttention bool
}

// ToSentimentView classifies score for display; nil renders as neutral
func ToSentimentView(score *float64) SentimentView {
	s := entities.NewSentiment(score)
	return SentimentView{
		Percentage:     s.Percentage,
		Value:          strconv.FormatFloat(s.Percentage, 'f', -1, 64),
		Category:       string(s.Category),
		Label:          s.Label,
		NeedsAttention: s.NeedsAttention(),
	}
}
