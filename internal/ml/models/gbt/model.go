// Package gbt implements a binary logistic gradient-boosted tree ensemble
// whose trees are plain data, so predictions can be attributed per feature
// with TreeSHAP.
package gbt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const leafFeature = -1

// Params are the boosting hyperparameters.
type Params struct {
	NumTrees       int     `json:"n_estimators"`
	MaxDepth       int     `json:"max_depth"`
	LearningRate   float64 `json:"learning_rate"`
	Subsample      float64 `json:"subsample"`
	ColSample      float64 `json:"colsample_bytree"`
	ScalePosWeight float64 `json:"scale_pos_weight"`
	Lambda         float64 `json:"reg_lambda"`
	MinChildWeight float64 `json:"min_child_weight"`
	Seed           int64   `json:"seed"`
}

func DefaultParams() Params {
	return Params{
		NumTrees:       100,
		MaxDepth:       4,
		LearningRate:   0.1,
		Subsample:      1.0,
		ColSample:      1.0,
		ScalePosWeight: 1.0,
		Lambda:         1.0,
		MinChildWeight: 1e-3,
		Seed:           42,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.NumTrees <= 0 {
		p.NumTrees = d.NumTrees
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.LearningRate <= 0 {
		p.LearningRate = d.LearningRate
	}
	if p.Subsample <= 0 || p.Subsample > 1 {
		p.Subsample = d.Subsample
	}
	if p.ColSample <= 0 || p.ColSample > 1 {
		p.ColSample = d.ColSample
	}
	if p.ScalePosWeight <= 0 {
		p.ScalePosWeight = d.ScalePosWeight
	}
	if p.Lambda < 0 {
		p.Lambda = d.Lambda
	}
	if p.MinChildWeight <= 0 {
		p.MinChildWeight = d.MinChildWeight
	}
	return p
}

// Node is a tree node. Leaves have Feature == -1. A sample goes left when
// its feature value is <= Threshold. Cover is the number of training rows
// that reached the node.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Cover     float64 `json:"cover"`
}

func (n Node) IsLeaf() bool { return n.Feature == leafFeature }

// Tree stores nodes in a flat slice; index 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t Tree) leafValue(x []float64) float64 {
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.IsLeaf() {
			return n.Value
		}
		idx = n.next(x)
	}
}

func (n Node) next(x []float64) int {
	if goesLeft(x[n.Feature], n.Threshold) {
		return n.Left
	}
	return n.Right
}

func goesLeft(v, threshold float64) bool {
	return v <= threshold || math.IsNaN(v)
}

// Model is a trained ensemble. The margin of a sample is BaseMargin plus the
// sum of its leaf values.
type Model struct {
	FeatureNames []string `json:"feature_names"`
	BaseMargin   float64  `json:"base_margin"`
	Trees        []Tree   `json:"trees"`
	Params       Params   `json:"params"`
}

var ErrDimension = errors.New("feature vector has wrong dimension")

func (m *Model) NumFeatures() int { return len(m.FeatureNames) }

func (m *Model) checkDim(x []float64) error {
	if len(x) != len(m.FeatureNames) {
		return fmt.Errorf("%w: got %d want %d", ErrDimension, len(x), len(m.FeatureNames))
	}
	return nil
}

// Margin returns the raw log-odds for x.
func (m *Model) Margin(x []float64) (float64, error) {
	if m == nil {
		return 0, errors.New("nil model")
	}
	if err := m.checkDim(x); err != nil {
		return 0, err
	}
	return m.margin(x), nil
}

func (m *Model) margin(x []float64) float64 {
	out := m.BaseMargin
	for i := range m.Trees {
		out += m.Trees[i].leafValue(x)
	}
	return out
}

// PredictProba returns the probability of the positive class.
func (m *Model) PredictProba(x []float64) (float64, error) {
	margin, err := m.Margin(x)
	if err != nil {
		return 0, err
	}
	return sigmoid(margin), nil
}

// PredictBatch returns positive-class probabilities; rows of the wrong
// dimension yield 0.5.
func (m *Model) PredictBatch(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, x := range rows {
		p, err := m.PredictProba(x)
		if err != nil {
			p = 0.5
		}
		out[i] = p
	}
	return out
}

func (m *Model) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	return json.Marshal(m)
}

func UnmarshalBinary(blob []byte) (*Model, error) {
	if len(blob) == 0 {
		return nil, errors.New("empty artifact")
	}
	var m Model
	if err := json.Unmarshal(blob, &m); err != nil {
		return nil, err
	}
	if len(m.FeatureNames) == 0 {
		return nil, errors.New("artifact has no feature names")
	}
	for ti, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return nil, fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni, n := range t.Nodes {
			if n.IsLeaf() {
				continue
			}
			if n.Feature < 0 || n.Feature >= len(m.FeatureNames) ||
				n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return nil, fmt.Errorf("tree %d node %d is malformed", ti, ni)
			}
		}
	}
	return &m, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
