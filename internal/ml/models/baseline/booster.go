// Package baseline fits an untuned boo gradient-boosting classifier used as a
// benchmark for the tuned ensemble.
package baseline

import (
	"errors"
	"math"

	"github.com/rmera/boo"
	"github.com/rmera/boo/utils"
)

type Options struct {
	Rounds       int
	LearningRate float64
	MaxDepth     int
}

func DefaultOptions() Options {
	return Options{Rounds: 40, LearningRate: 0.08, MaxDepth: 4}
}

type Booster struct {
	model *boo.MultiClass
}

// Fit trains on binary labels (>= 0.5 is positive). Both classes must be present.
func Fit(x [][]float64, y []float64, featureNames []string, opts Options) (*Booster, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, errors.New("invalid baseline dataset")
	}
	if len(featureNames) != len(x[0]) {
		return nil, errors.New("feature names do not match feature vectors")
	}
	labels := make([]int, len(y))
	var pos int
	for i, v := range y {
		if v >= 0.5 {
			labels[i] = 1
			pos++
		}
	}
	if pos == 0 || pos == len(y) {
		return nil, errors.New("baseline requires two classes")
	}
	d := DefaultOptions()
	if opts.Rounds <= 0 {
		opts.Rounds = d.Rounds
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = d.LearningRate
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = d.MaxDepth
	}

	o := boo.DefaultXOptions()
	o.Rounds = opts.Rounds
	o.LearningRate = opts.LearningRate
	o.MaxDepth = opts.MaxDepth
	o.Verbose = false
	o.EarlyStop = 0

	model := boo.NewMultiClass(&utils.DataBunch{Data: x, Labels: labels, Keys: featureNames}, o)
	if model == nil {
		return nil, errors.New("boo returned no model")
	}
	return &Booster{model: model}, nil
}

// PredictProba returns the probability of class 1.
func (b *Booster) PredictProba(x []float64) float64 {
	if b == nil || b.model == nil {
		return 0.5
	}
	probs := b.model.PredictSingle(x)
	for i, label := range b.model.ClassLabels() {
		if label == 1 && i < len(probs) {
			return clamp01(probs[i])
		}
	}
	if len(probs) == 0 {
		return 0.5
	}
	return clamp01(probs[len(probs)-1])
}

func (b *Booster) PredictBatch(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i := range rows {
		out[i] = b.PredictProba(rows[i])
	}
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	return math.Max(0, math.Min(1, v))
}
