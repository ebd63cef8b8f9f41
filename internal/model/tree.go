package model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// TreeConfig holds decision-tree hyperparameters. MaxDepth of zero means
// unlimited depth; Mtry of zero considers every feature at each split.
type TreeConfig struct {
	MaxDepth       int
	MinNodeSize    int
	CostComplexity float64
	Mtry           int
	Seed           int64
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	leaf      bool
	samples   int
	positives int
}

func (n *treeNode) probability() float64 {
	return float64(n.positives) / float64(n.samples)
}

// DecisionTree is a fitted CART classifier with gini splits and
// weakest-link cost-complexity pruning
type DecisionTree struct {
	root     *treeNode
	features int
}

type treeBuilder struct {
	X   *mat.Dense
	y   []bool
	cfg TreeConfig
	rng *rand.Rand
	d   int
}

// FitTree grows a CART tree and prunes it at the configured
// cost-complexity threshold
func FitTree(X *mat.Dense, y []bool, cfg TreeConfig) (*DecisionTree, error) {
	n, d := X.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("tree: %d rows for %d labels", n, len(y))
	}
	if n == 0 {
		return nil, fmt.Errorf("tree: empty training data")
	}
	if cfg.Mtry > d {
		return nil, fmt.Errorf("tree: mtry %d exceeds feature count %d", cfg.Mtry, d)
	}
	if cfg.CostComplexity < 0 {
		return nil, fmt.Errorf("tree: negative cost-complexity %v", cfg.CostComplexity)
	}
	if cfg.MinNodeSize <= 0 {
		cfg.MinNodeSize = 1
	}

	b := &treeBuilder{X: X, y: y, cfg: cfg, d: d}
	if cfg.Mtry > 0 && cfg.Mtry < d {
		b.rng = rand.New(rand.NewSource(cfg.Seed))
	}

	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	tree := &DecisionTree{root: b.grow(rows, 0), features: d}
	tree.pruneWeakestLink(cfg.CostComplexity)
	return tree, nil
}

func (b *treeBuilder) grow(rows []int, depth int) *treeNode {
	pos := 0
	for _, r := range rows {
		if b.y[r] {
			pos++
		}
	}
	node := &treeNode{samples: len(rows), positives: pos, leaf: true}

	if pos == 0 || pos == len(rows) {
		return node
	}
	if b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth {
		return node
	}
	if len(rows) < 2*b.cfg.MinNodeSize {
		return node
	}

	feature, threshold, ok := b.bestSplit(rows, pos)
	if !ok {
		return node
	}

	var left, right []int
	for _, r := range rows {
		if b.X.At(r, feature) <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	node.leaf = false
	node.feature = feature
	node.threshold = threshold
	node.left = b.grow(left, depth+1)
	node.right = b.grow(right, depth+1)
	return node
}

// bestSplit scans candidate thresholds per feature for the lowest
// weighted gini impurity. Strict comparisons keep the lowest feature
// index and threshold on ties.
func (b *treeBuilder) bestSplit(rows []int, pos int) (int, float64, bool) {
	features := make([]int, 0, b.d)
	if b.rng != nil {
		perm := b.rng.Perm(b.d)
		features = append(features, perm[:b.cfg.Mtry]...)
		sort.Ints(features)
	} else {
		for f := 0; f < b.d; f++ {
			features = append(features, f)
		}
	}

	n := len(rows)
	parent := gini(pos, n)
	bestImpurity := parent - 1e-12
	bestFeature := -1
	bestThreshold := 0.0

	values := make([]float64, n)
	labels := make([]bool, n)
	order := make([]int, n)
	for _, f := range features {
		for i, r := range rows {
			values[i] = b.X.At(r, f)
			order[i] = i
		}
		sort.SliceStable(order, func(a, c int) bool {
			return values[order[a]] < values[order[c]]
		})
		for i, idx := range order {
			labels[i] = b.y[rows[idx]]
		}

		leftPos := 0
		for i := 0; i < n-1; i++ {
			if labels[i] {
				leftPos++
			}
			v, next := values[order[i]], values[order[i+1]]
			if v == next {
				continue
			}
			leftN := i + 1
			rightN := n - leftN
			if leftN < b.cfg.MinNodeSize || rightN < b.cfg.MinNodeSize {
				continue
			}
			weighted := (float64(leftN)*gini(leftPos, leftN) +
				float64(rightN)*gini(pos-leftPos, rightN)) / float64(n)
			if weighted < bestImpurity {
				bestImpurity = weighted
				bestFeature = f
				bestThreshold = (v + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func gini(pos, n int) float64 {
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

// pruneWeakestLink repeatedly collapses the internal node whose removal
// costs the least per pruned leaf, while that cost stays within alpha
func (t *DecisionTree) pruneWeakestLink(alpha float64) {
	total := t.root.samples
	for {
		node, g := weakest(t.root, total)
		if node == nil || g > alpha {
			return
		}
		node.leaf = true
		node.left = nil
		node.right = nil
	}
}

// weakest returns the internal node with the smallest per-leaf error
// increase. Preorder traversal with strict comparison keeps the
// shallowest node on ties.
func weakest(nd *treeNode, total int) (*treeNode, float64) {
	if nd.leaf {
		return nil, math.Inf(1)
	}

	leaves, subtreeErr := subtreeStats(nd)
	nodeErr := nd.positives
	if other := nd.samples - nd.positives; other < nodeErr {
		nodeErr = other
	}
	bestG := (float64(nodeErr) - float64(subtreeErr)) / float64(total) / float64(leaves-1)
	best := nd

	if node, g := weakest(nd.left, total); g < bestG {
		best, bestG = node, g
	}
	if node, g := weakest(nd.right, total); g < bestG {
		best, bestG = node, g
	}
	return best, bestG
}

func subtreeStats(nd *treeNode) (leaves, errSum int) {
	if nd.leaf {
		misclassified := nd.positives
		if other := nd.samples - nd.positives; other < misclassified {
			misclassified = other
		}
		return 1, misclassified
	}
	leftLeaves, leftErr := subtreeStats(nd.left)
	rightLeaves, rightErr := subtreeStats(nd.right)
	return leftLeaves + rightLeaves, leftErr + rightErr
}

// Predict returns the majority class of the leaf each row lands in
func (t *DecisionTree) Predict(X *mat.Dense) []bool {
	scores := t.Score(X)
	out := make([]bool, len(scores))
	for i, s := range scores {
		out[i] = s >= 0.5
	}
	return out
}

// Score returns the positive fraction of the leaf each row lands in
func (t *DecisionTree) Score(X *mat.Dense) []float64 {
	n, _ := X.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		nd := t.root
		for !nd.leaf {
			if X.At(i, nd.feature) <= nd.threshold {
				nd = nd.left
			} else {
				nd = nd.right
			}
		}
		out[i] = nd.probability()
	}
	return out
}

// Depth returns the maximum depth of the fitted tree, zero for a stump
func (t *DecisionTree) Depth() int {
	return nodeDepth(t.root)
}

func nodeDepth(nd *treeNode) int {
	if nd.leaf {
		return 0
	}
	left := nodeDepth(nd.left)
	right := nodeDepth(nd.right)
	if right > left {
		left = right
	}
	return left + 1
}

// TreeGrid crosses cost-complexity {0, 0.05, 0.10, 0.15} with maximum
// depth {1, 5, 10}
func TreeGrid() []Params {
	costs := []float64{0, 0.05, 0.10, 0.15}
	depths := []float64{1, 5, 10}
	grid := make([]Params, 0, len(costs)*len(depths))
	for _, cost := range costs {
		for _, depth := range depths {
			grid = append(grid, Params{"cost_complexity": cost, "tree_depth": depth})
		}
	}
	return grid
}

// TreeFitFunc adapts FitTree to the grid-search contract with the fixed
// minimum node size of 5
func TreeFitFunc() FitFunc {
	return func(X *mat.Dense, y []bool, p Params) (Classifier, error) {
		return FitTree(X, y, TreeConfig{
			MaxDepth:       int(p["tree_depth"]),
			MinNodeSize:    5,
			CostComplexity: p["cost_complexity"],
		})
	}
}
