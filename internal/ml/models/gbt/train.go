package gbt

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// Train fits an ensemble on binary labels (>= 0.5 is positive). Positive rows
// are weighted by Params.ScalePosWeight.
func Train(x [][]float64, y []float64, featureNames []string, params Params) (*Model, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, errors.New("invalid training dataset")
	}
	nf := len(x[0])
	if nf == 0 {
		return nil, errors.New("empty feature vectors")
	}
	for i := range x {
		if len(x[i]) != nf {
			return nil, errors.New("ragged feature matrix")
		}
	}
	if len(featureNames) != nf {
		return nil, errors.New("feature names do not match feature vectors")
	}
	params = params.withDefaults()

	labels := make([]float64, len(y))
	weights := make([]float64, len(y))
	for i, v := range y {
		weights[i] = 1
		if v >= 0.5 {
			labels[i] = 1
			weights[i] = params.ScalePosWeight
		}
	}

	b := &builder{
		x:       x,
		params:  params,
		grad:    make([]float64, len(x)),
		hess:    make([]float64, len(x)),
		rng:     rand.New(rand.NewSource(params.Seed)),
		numFeat: nf,
	}
	model := &Model{
		FeatureNames: append([]string(nil), featureNames...),
		Params:       params,
		Trees:        make([]Tree, 0, params.NumTrees),
	}
	margins := make([]float64, len(x))
	for i := range margins {
		margins[i] = model.BaseMargin
	}

	for round := 0; round < params.NumTrees; round++ {
		for i := range x {
			p := sigmoid(margins[i])
			b.grad[i] = weights[i] * (p - labels[i])
			b.hess[i] = weights[i] * math.Max(p*(1-p), 1e-16)
		}
		tree := b.buildTree()
		for i := range x {
			margins[i] += tree.leafValue(x[i])
		}
		model.Trees = append(model.Trees, tree)
	}
	return model, nil
}

type builder struct {
	x       [][]float64
	params  Params
	grad    []float64
	hess    []float64
	rng     *rand.Rand
	numFeat int

	nodes    []Node
	features []int
}

func (b *builder) buildTree() Tree {
	rows := b.sampleRows()
	b.features = b.sampleFeatures()
	b.nodes = make([]Node, 0, 1<<(b.params.MaxDepth+1))
	b.grow(rows, 0)
	return Tree{Nodes: b.nodes}
}

func (b *builder) sampleRows() []int {
	n := len(b.x)
	if b.params.Subsample >= 1 {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	k := int(math.Round(b.params.Subsample * float64(n)))
	if k < 1 {
		k = 1
	}
	rows := b.rng.Perm(n)[:k]
	sort.Ints(rows)
	return rows
}

func (b *builder) sampleFeatures() []int {
	if b.params.ColSample >= 1 {
		out := make([]int, b.numFeat)
		for i := range out {
			out[i] = i
		}
		return out
	}
	k := int(math.Round(b.params.ColSample * float64(b.numFeat)))
	if k < 1 {
		k = 1
	}
	out := b.rng.Perm(b.numFeat)[:k]
	sort.Ints(out)
	return out
}

// grow appends the subtree for rows and returns its root index.
func (b *builder) grow(rows []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leafFeature, Cover: float64(len(rows))})

	var g, h float64
	for _, r := range rows {
		g += b.grad[r]
		h += b.hess[r]
	}
	leaf := -g / (h + b.params.Lambda) * b.params.LearningRate

	if depth >= b.params.MaxDepth || len(rows) < 2 {
		b.nodes[idx].Value = leaf
		return idx
	}
	split, ok := b.bestSplit(rows, g, h)
	if !ok {
		b.nodes[idx].Value = leaf
		return idx
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, r := range rows {
		if goesLeft(b.x[r][split.feature], split.threshold) {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx].Feature = split.feature
	b.nodes[idx].Threshold = split.threshold
	b.nodes[idx].Left = l
	b.nodes[idx].Right = r
	return idx
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

func (b *builder) bestSplit(rows []int, g, h float64) (split, bool) {
	lambda := b.params.Lambda
	parent := g * g / (h + lambda)
	best := split{gain: 1e-12}
	found := false

	order := make([]int, len(rows))
	for _, f := range b.features {
		copy(order, rows)
		sort.SliceStable(order, func(i, j int) bool { return b.x[order[i]][f] < b.x[order[j]][f] })

		var gl, hl float64
		for i := 0; i < len(order)-1; i++ {
			r := order[i]
			gl += b.grad[r]
			hl += b.hess[r]
			cur, next := b.x[r][f], b.x[order[i+1]][f]
			if cur == next {
				continue
			}
			gr, hr := g-gl, h-hl
			if hl < b.params.MinChildWeight || hr < b.params.MinChildWeight {
				continue
			}
			gain := gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parent
			if gain > best.gain {
				best = split{feature: f, threshold: (cur + next) / 2, gain: gain}
				found = true
			}
		}
	}
	return best, found
}
