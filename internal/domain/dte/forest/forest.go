// Package forest implements a bounded-depth regression-tree ensemble used
// as the trained DTE regressor. Hyperparameters are fixed, training is
// seeded, and the fitted model serializes to JSON for artifact storage.
package forest

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Fixed hyperparameters. Not tunable per call.
const (
	numTrees        = 100
	maxDepth        = 5
	minSamplesSplit = 2
	seed            = 42
)

// Node is one regression-tree node. Leaves carry the mean target of the
// samples that reached them.
type Node struct {
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      *Node   `json:"left,omitempty"`
	Right     *Node   `json:"right,omitempty"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

// Forest is a fitted ensemble. The zero value is unfitted; Predict on it
// returns an error.
type Forest struct {
	Trees       []*Node `json:"trees"`
	NumFeatures int     `json:"num_features"`
}

// New returns an unfitted forest.
func New() *Forest {
	return &Forest{}
}

// Fit trains the ensemble on feature rows X against targets y, replacing
// any previous fit wholesale. Each tree sees a bootstrap resample of the
// training set drawn from a fixed seed, so fitting is deterministic.
func (f *Forest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("training set mismatch: %d feature rows, %d targets", len(X), len(y))
	}
	width := len(X[0])
	if width == 0 {
		return fmt.Errorf("empty feature rows")
	}
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("feature row %d has %d features, want %d", i, len(row), width)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	trees := make([]*Node, numTrees)
	for t := range trees {
		idx := make([]int, len(X))
		for i := range idx {
			idx[i] = rng.Intn(len(X))
		}
		trees[t] = buildTree(X, y, idx, 0)
	}

	f.Trees = trees
	f.NumFeatures = width
	return nil
}

// Validate checks the structural integrity of a forest, typically one
// deserialized from an artifact. Every non-leaf node must carry both
// children and an in-range split feature; a truncated or hand-edited
// artifact fails here instead of panicking during Predict.
func (f *Forest) Validate() error {
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	if f.NumFeatures <= 0 {
		return fmt.Errorf("forest has invalid feature width %d", f.NumFeatures)
	}
	for i, tree := range f.Trees {
		if err := validateNode(tree, f.NumFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func validateNode(n *Node, width int) error {
	if n == nil {
		return fmt.Errorf("nil node")
	}
	if n.Leaf {
		return nil
	}
	if n.Feature < 0 || n.Feature >= width {
		return fmt.Errorf("split feature %d out of range [0,%d)", n.Feature, width)
	}
	if n.Left == nil || n.Right == nil {
		return fmt.Errorf("split node missing children")
	}
	if err := validateNode(n.Left, width); err != nil {
		return err
	}
	return validateNode(n.Right, width)
}

// Predict returns the ensemble mean for one feature vector.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, fmt.Errorf("forest is not fitted")
	}
	if len(x) != f.NumFeatures {
		return 0, fmt.Errorf("feature vector has %d features, want %d", len(x), f.NumFeatures)
	}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("non-finite feature value %v", v)
		}
	}

	sum := 0.0
	for _, tree := range f.Trees {
		sum += evaluate(tree, x)
	}
	return sum / float64(len(f.Trees)), nil
}

func evaluate(n *Node, x []float64) float64 {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

func buildTree(X [][]float64, y []float64, idx []int, depth int) *Node {
	if depth >= maxDepth || len(idx) < minSamplesSplit {
		return &Node{Leaf: true, Value: meanAt(y, idx)}
	}

	feature, threshold, ok := bestSplit(X, y, idx)
	if !ok {
		return &Node{Leaf: true, Value: meanAt(y, idx)}
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &Node{Leaf: true, Value: meanAt(y, idx)}
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(X, y, left, depth+1),
		Right:     buildTree(X, y, right, depth+1),
	}
}

// bestSplit scans every feature and candidate threshold (midpoints between
// adjacent distinct values) for the split minimizing weighted child
// variance.
func bestSplit(X [][]float64, y []float64, idx []int) (int, float64, bool) {
	bestScore := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	width := len(X[idx[0]])
	values := make([]float64, 0, len(idx))

	for feature := 0; feature < width; feature++ {
		values = values[:0]
		for _, i := range idx {
			values = append(values, X[i][feature])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2

			score := splitScore(X, y, idx, feature, threshold)
			if score < bestScore {
				bestScore = score
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// splitScore is the total squared deviation of both children from their
// own means. Lower is better.
func splitScore(X [][]float64, y []float64, idx []int, feature int, threshold float64) float64 {
	var leftSum, rightSum float64
	var leftN, rightN int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			leftSum += y[i]
			leftN++
		} else {
			rightSum += y[i]
			rightN++
		}
	}
	if leftN == 0 || rightN == 0 {
		return math.Inf(1)
	}

	leftMean := leftSum / float64(leftN)
	rightMean := rightSum / float64(rightN)

	score := 0.0
	for _, i := range idx {
		var d float64
		if X[i][feature] <= threshold {
			d = y[i] - leftMean
		} else {
			d = y[i] - rightMean
		}
		score += d * d
	}
	return score
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}
