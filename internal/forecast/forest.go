package forecast

import (
	"math"
	"math/rand"
	"sort"
)

// ─────────────────────────── Regression forest ─────────────────────────

const (
	forestSize     = 50
	maxTreeDepth   = 8
	minLeafSamples = 3
	forestSeed     = 42
)

type treeNode struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Value     float64   `json:"value"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

func (n *treeNode) leaf() bool { return n.Left == nil }

func (n *treeNode) predict(x []float64) float64 {
	for !n.leaf() {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// Forest is a bagged ensemble of regression trees. Training is seeded so
// the same inputs always produce the same model.
type Forest struct {
	Features []string    `json:"features"`
	Trees    []*treeNode `json:"trees"`
}

// Fit trains a forest on the feature matrix x against target y.
func Fit(x [][]float64, y []float64) *Forest {
	rng := rand.New(rand.NewSource(forestSeed))
	f := &Forest{Features: FeatureNames, Trees: make([]*treeNode, 0, forestSize)}
	for t := 0; t < forestSize; t++ {
		idx := make([]int, len(x))
		for i := range idx {
			idx[i] = rng.Intn(len(x))
		}
		f.Trees = append(f.Trees, growTree(x, y, idx, 0))
	}
	return f
}

// Predict returns the ensemble mean for one feature vector.
func (f *Forest) Predict(x []float64) float64 {
	var sum float64
	for _, t := range f.Trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.Trees))
}

func growTree(x [][]float64, y []float64, idx []int, depth int) *treeNode {
	node := &treeNode{Value: meanAt(y, idx)}
	if depth >= maxTreeDepth || len(idx) < 2*minLeafSamples {
		return node
	}

	feature, threshold, ok := bestSplit(x, y, idx)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < minLeafSamples || len(right) < minLeafSamples {
		return node
	}

	node.Feature = feature
	node.Threshold = threshold
	node.Left = growTree(x, y, left, depth+1)
	node.Right = growTree(x, y, right, depth+1)
	return node
}

// bestSplit scans every feature for the threshold with the lowest weighted
// variance across the two sides.
func bestSplit(x [][]float64, y []float64, idx []int) (feature int, threshold float64, ok bool) {
	best := math.Inf(1)
	for f := 0; f < len(x[idx[0]]); f++ {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, x[i][f])
		}
		sort.Float64s(values)

		for v := 0; v < len(values)-1; v++ {
			if values[v] == values[v+1] {
				continue
			}
			cut := (values[v] + values[v+1]) / 2

			var ls, lss, rs, rss float64
			var ln, rn int
			for _, i := range idx {
				if x[i][f] <= cut {
					ls += y[i]
					lss += y[i] * y[i]
					ln++
				} else {
					rs += y[i]
					rss += y[i] * y[i]
					rn++
				}
			}
			if ln == 0 || rn == 0 {
				continue
			}
			score := (lss - ls*ls/float64(ln)) + (rss - rs*rs/float64(rn))
			if score < best {
				best, feature, threshold, ok = score, f, cut, true
			}
		}
	}
	return feature, threshold, ok
}

func meanAt(y []float64, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

// ──────────────────────────── Error metrics ────────────────────────────

// MAE is the mean absolute error between predictions and truth.
func MAE(pred, truth []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	var sum float64
	for i := range pred {
		sum += math.Abs(pred[i] - truth[i])
	}
	return sum / float64(len(pred))
}

// RMSE is the root mean squared error between predictions and truth.
func RMSE(pred, truth []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	var sum float64
	for i := range pred {
		d := pred[i] - truth[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(pred)))
}
