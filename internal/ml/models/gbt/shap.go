package gbt

import "errors"

// ExpectedValue is the cover-weighted mean margin of the ensemble, the base
// value SHAP attributions are measured against.
func (m *Model) ExpectedValue() float64 {
	out := m.BaseMargin
	for _, t := range m.Trees {
		out += t.expectedValue(0)
	}
	return out
}

func (t Tree) expectedValue(idx int) float64 {
	n := t.Nodes[idx]
	if n.IsLeaf() {
		return n.Value
	}
	if n.Cover <= 0 {
		return 0
	}
	l, r := t.Nodes[n.Left], t.Nodes[n.Right]
	return (l.Cover*t.expectedValue(n.Left) + r.Cover*t.expectedValue(n.Right)) / n.Cover
}

// SHAP returns exact path-dependent TreeSHAP attributions of the margin for
// x, one per feature. The attributions plus ExpectedValue sum to the margin.
func (m *Model) SHAP(x []float64) ([]float64, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	if err := m.checkDim(x); err != nil {
		return nil, err
	}
	phi := make([]float64, len(x))
	for _, t := range m.Trees {
		t.shap(x, phi, 0, 0, nil, 1, 1, leafFeature)
	}
	return phi, nil
}

type pathElem struct {
	feature int
	zero    float64
	one     float64
	weight  float64
}

func (t Tree) shap(x, phi []float64, idx, depth int, parent []pathElem, parentZero, parentOne float64, parentFeature int) {
	path := make([]pathElem, depth+1)
	copy(path, parent)
	extendPath(path, depth, parentZero, parentOne, parentFeature)

	n := t.Nodes[idx]
	if n.IsLeaf() {
		for i := 1; i <= depth; i++ {
			w := unwoundPathSum(path, depth, i)
			el := path[i]
			phi[el.feature] += w * (el.one - el.zero) * n.Value
		}
		return
	}

	hot, cold := n.Right, n.Left
	if goesLeft(x[n.Feature], n.Threshold) {
		hot, cold = n.Left, n.Right
	}
	hotZero := t.Nodes[hot].Cover / n.Cover
	coldZero := t.Nodes[cold].Cover / n.Cover
	incomingZero, incomingOne := 1.0, 1.0

	for i := 0; i <= depth; i++ {
		if path[i].feature == n.Feature {
			incomingZero = path[i].zero
			incomingOne = path[i].one
			unwindPath(path, depth, i)
			depth--
			path = path[:depth+1]
			break
		}
	}

	t.shap(x, phi, hot, depth+1, path, hotZero*incomingZero, incomingOne, n.Feature)
	t.shap(x, phi, cold, depth+1, path, coldZero*incomingZero, 0, n.Feature)
}

func extendPath(path []pathElem, depth int, zero, one float64, feature int) {
	path[depth] = pathElem{feature: feature, zero: zero, one: one}
	if depth == 0 {
		path[depth].weight = 1
	}
	d := float64(depth + 1)
	for i := depth - 1; i >= 0; i-- {
		path[i+1].weight += one * path[i].weight * float64(i+1) / d
		path[i].weight = zero * path[i].weight * float64(depth-i) / d
	}
}

func unwindPath(path []pathElem, depth, pathIndex int) {
	one := path[pathIndex].one
	zero := path[pathIndex].zero
	next := path[depth].weight
	d := float64(depth + 1)
	for i := depth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := path[i].weight
			path[i].weight = next * d / (float64(i+1) * one)
			next = tmp - path[i].weight*zero*float64(depth-i)/d
		} else {
			path[i].weight = path[i].weight * d / (zero * float64(depth-i))
		}
	}
	for i := pathIndex; i < depth; i++ {
		path[i].feature = path[i+1].feature
		path[i].zero = path[i+1].zero
		path[i].one = path[i+1].one
	}
}

func unwoundPathSum(path []pathElem, depth, pathIndex int) float64 {
	one := path[pathIndex].one
	zero := path[pathIndex].zero
	next := path[depth].weight
	d := float64(depth + 1)
	var total float64
	for i := depth - 1; i >= 0; i-- {
		switch {
		case one != 0:
			tmp := next * d / (float64(i+1) * one)
			total += tmp
			next = path[i].weight - tmp*zero*float64(depth-i)/d
		case zero != 0:
			total += path[i].weight / zero / (float64(depth-i) / d)
		}
	}
	return total
}
