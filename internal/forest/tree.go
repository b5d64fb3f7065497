package forest

import (
	"sort"
)

// Node is one node of a regression tree. Leaves carry the prediction in
// Value; internal nodes send a row left when row[Feature] <= Threshold.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
	Leaf      bool
}

// Tree is a regression tree stored as a flat node slice rooted at index 0.
type Tree struct {
	Nodes []Node
}

func (t *Tree) Predict(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Leaf {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

type treeBuilder struct {
	x      [][]float64
	y      []float64
	params Params
	nodes  []Node
}

// buildTree grows a CART regression tree over the rows listed in idx.
// Rows may repeat, which is how bootstrap weights are expressed.
func buildTree(x [][]float64, y []float64, idx []int, params Params) Tree {
	b := &treeBuilder{x: x, y: y, params: params}
	b.build(idx, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int, depth int) int {
	sum, sumSq := b.moments(idx)
	n := float64(len(idx))
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Leaf: true, Value: sum / n})

	if len(idx) < b.params.MinSamplesSplit || len(idx) < 2*b.params.MinSamplesLeaf {
		return id
	}
	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return id
	}
	parentSSE := sumSq - sum*sum/n
	if parentSSE <= 1e-12 {
		return id
	}

	feature, threshold, ok := b.bestSplit(idx, parentSSE)
	if !ok {
		return id
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[id] = Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      l,
		Right:     r,
		Value:     sum / n,
	}
	return id
}

func (b *treeBuilder) moments(idx []int) (sum, sumSq float64) {
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	return sum, sumSq
}

// bestSplit scans every feature for the threshold with the lowest summed
// squared error of the two children. A split must beat the parent.
func (b *treeBuilder) bestSplit(idx []int, parentSSE float64) (int, float64, bool) {
	minLeaf := b.params.MinSamplesLeaf
	total, totalSq := b.moments(idx)
	n := len(idx)

	bestFeature, bestThreshold, bestSSE := -1, 0.0, parentSSE
	sorted := make([]int, n)

	for f := 0; f < len(b.x[idx[0]]); f++ {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})

		var leftSum, leftSq float64
		for k := 1; k < n; k++ {
			yv := b.y[sorted[k-1]]
			leftSum += yv
			leftSq += yv * yv

			lo, hi := b.x[sorted[k-1]][f], b.x[sorted[k]][f]
			if lo == hi || k < minLeaf || n-k < minLeaf {
				continue
			}

			nl, nr := float64(k), float64(n-k)
			rightSum, rightSq := total-leftSum, totalSq-leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < bestSSE {
				bestFeature, bestSSE = f, sse
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi {
					bestThreshold = lo
				}
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}
