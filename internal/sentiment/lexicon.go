package sentiment

import (
	"context"
	"strings"

	"github.com/jonreiter/govader"
)

// Analyzer scores free text with a compound polarity in [-1, 1].
type Analyzer interface {
	Polarity(ctx context.Context, texts []string) ([]float64, error)
}

// LexiconAnalyzer scores headlines with the VADER compound polarity.
type LexiconAnalyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{vader: govader.NewSentimentIntensityAnalyzer()}
}

func (a *LexiconAnalyzer) Polarity(ctx context.Context, texts []string) ([]float64, error) {
	out := make([]float64, len(texts))
	for i, text := range texts {
		out[i] = a.Compound(text)
	}
	return out, nil
}

// Compound returns 0 for blank text.
func (a *LexiconAnalyzer) Compound(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	return a.vader.PolarityScores(text).Compound
}
