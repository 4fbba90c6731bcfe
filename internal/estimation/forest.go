package estimation

import (
	"fmt"
	"math/rand"
)

// Forest is a bagged ensemble of regression trees. The bootstrap draws are
// seeded, so a fit is reproducible.
type Forest struct {
	NTrees   int
	MaxDepth int
	Seed     int64

	trees []*RegressionTree
}

// NewForest creates an unfitted forest
func NewForest(nTrees, maxDepth int, seed int64) *Forest {
	return &Forest{NTrees: nTrees, MaxDepth: maxDepth, Seed: seed}
}

// Fit grows NTrees trees on bootstrap samples of (x, y)
func (f *Forest) Fit(x [][]float64, y []float64) error {
	n := len(y)
	if n == 0 || len(x) != n {
		return fmt.Errorf("forest fit: %d rows for %d targets", len(x), n)
	}
	if f.NTrees < 1 {
		return fmt.Errorf("forest fit: need at least one tree, got %d", f.NTrees)
	}

	rng := rand.New(rand.NewSource(f.Seed))
	f.trees = make([]*RegressionTree, f.NTrees)
	sample := make([]int, n)

	for i := range f.trees {
		for j := range sample {
			sample[j] = rng.Intn(n)
		}
		tree := &RegressionTree{MaxDepth: f.MaxDepth, MinSamplesLeaf: 1}
		tree.fit(x, y, sample)
		f.trees[i] = tree
	}
	return nil
}

// Predict averages the trees' predictions
func (f *Forest) Predict(x [][]float64) []float64 {
	out := make([]float64, len(x))
	if len(f.trees) == 0 {
		return out
	}
	for i, row := range x {
		s := 0.0
		for _, t := range f.trees {
			s += t.predict(row)
		}
		out[i] = s / float64(len(f.trees))
	}
	return out
}
