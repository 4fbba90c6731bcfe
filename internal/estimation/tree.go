package estimation

import (
	"sort"
)

type treeNode struct {
	feature     int
	threshold   float64
	left, right int // -1 for a leaf
	value       float64
}

// RegressionTree is a CART tree minimising squared error
type RegressionTree struct {
	MaxDepth       int
	MinSamplesLeaf int

	nodes []treeNode
}

// fit grows the tree on the given row indices of x and y
func (t *RegressionTree) fit(x [][]float64, y []float64, rows []int) {
	if t.MinSamplesLeaf < 1 {
		t.MinSamplesLeaf = 1
	}
	t.nodes = t.nodes[:0]
	t.grow(x, y, rows, 0)
}

func (t *RegressionTree) grow(x [][]float64, y []float64, rows []int, depth int) int {
	sum := 0.0
	for _, i := range rows {
		sum += y[i]
	}

	idx := len(t.nodes)
	t.nodes = append(t.nodes, treeNode{left: -1, right: -1, value: sum / float64(len(rows))})

	if depth >= t.MaxDepth || len(rows) < 2*t.MinSamplesLeaf {
		return idx
	}

	feature, threshold, ok := t.bestSplit(x, y, rows, sum)
	if !ok {
		return idx
	}

	var left, right []int
	for _, i := range rows {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := t.grow(x, y, left, depth+1)
	r := t.grow(x, y, right, depth+1)

	t.nodes[idx].feature = feature
	t.nodes[idx].threshold = threshold
	t.nodes[idx].left = l
	t.nodes[idx].right = r
	return idx
}

// bestSplit maximises sumL²/nL + sumR²/nR, which minimises the children's SSE
func (t *RegressionTree) bestSplit(x [][]float64, y []float64, rows []int, total float64) (int, float64, bool) {
	n := len(rows)
	parentScore := total * total / float64(n)
	bestScore := parentScore + 1e-12*(1+parentScore)
	bestFeature, bestThreshold, found := -1, 0.0, false

	sorted := make([]int, n)
	for f := 0; f < len(x[rows[0]]); f++ {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(a, b int) bool { return x[sorted[a]][f] < x[sorted[b]][f] })

		leftSum := 0.0
		for k := 1; k < n; k++ {
			leftSum += y[sorted[k-1]]
			if k < t.MinSamplesLeaf || n-k < t.MinSamplesLeaf {
				continue
			}
			lo, hi := x[sorted[k-1]][f], x[sorted[k]][f]
			if lo == hi {
				continue
			}
			rightSum := total - leftSum
			score := leftSum*leftSum/float64(k) + rightSum*rightSum/float64(n-k)
			if score > bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}

// predict returns the leaf value for one row
func (t *RegressionTree) predict(row []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.left < 0 {
			return n.value
		}
		if row[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}
