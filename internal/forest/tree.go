package forest

import (
	"math/rand"
	"sort"
)

// Node is one decision node in a tree. Leaf nodes have Feature == -1 and
// carry the class distribution of their training samples.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      int       `json:"left,omitempty"`
	Right     int       `json:"right,omitempty"`
	Dist      []float64 `json:"dist,omitempty"`
}

// Tree is a single CART tree stored as a flat node array rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

type treeBuilder struct {
	samples    [][]float64
	labels     []int
	numClasses int
	mtry       int
	rng        *rand.Rand
	nodes      []Node
}

func growTree(samples [][]float64, labels []int, idx []int, numClasses, mtry int, rng *rand.Rand) Tree {
	b := &treeBuilder{
		samples:    samples,
		labels:     labels,
		numClasses: numClasses,
		mtry:       mtry,
		rng:        rng,
	}
	b.build(idx)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int) int {
	dist := b.distribution(idx)
	if len(idx) < 2 || isPure(dist) {
		return b.leaf(dist)
	}
	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return b.leaf(dist)
	}

	var left, right []int
	for _, i := range idx {
		if b.samples[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.leaf(dist)
	}

	nodeID := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: feature, Threshold: threshold})
	leftID := b.build(left)
	rightID := b.build(right)
	b.nodes[nodeID].Left = leftID
	b.nodes[nodeID].Right = rightID
	return nodeID
}

func (b *treeBuilder) leaf(dist []float64) int {
	b.nodes = append(b.nodes, Node{Feature: -1, Dist: dist})
	return len(b.nodes) - 1
}

func (b *treeBuilder) distribution(idx []int) []float64 {
	dist := make([]float64, b.numClasses)
	for _, i := range idx {
		dist[b.labels[i]]++
	}
	total := float64(len(idx))
	if total > 0 {
		for c := range dist {
			dist[c] /= total
		}
	}
	return dist
}

// bestSplit searches a random subset of features for the threshold with the
// lowest weighted Gini impurity. Candidate thresholds are midpoints between
// consecutive distinct values.
func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold float64, ok bool) {
	numFeatures := len(b.samples[0])
	perm := b.rng.Perm(numFeatures)
	candidates := perm[:b.mtry]

	bestGini := gini(b.distribution(idx))
	for _, f := range candidates {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, b.samples[i][f])
		}
		sort.Float64s(values)

		for vi := 1; vi < len(values); vi++ {
			if values[vi] == values[vi-1] {
				continue
			}
			mid := (values[vi] + values[vi-1]) / 2
			g := b.splitGini(idx, f, mid)
			if g < bestGini {
				bestGini = g
				feature = f
				threshold = mid
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func (b *treeBuilder) splitGini(idx []int, feature int, threshold float64) float64 {
	leftCounts := make([]float64, b.numClasses)
	rightCounts := make([]float64, b.numClasses)
	var leftN, rightN float64
	for _, i := range idx {
		if b.samples[i][feature] <= threshold {
			leftCounts[b.labels[i]]++
			leftN++
		} else {
			rightCounts[b.labels[i]]++
			rightN++
		}
	}
	total := leftN + rightN
	g := 0.0
	if leftN > 0 {
		for c := range leftCounts {
			leftCounts[c] /= leftN
		}
		g += (leftN / total) * gini(leftCounts)
	}
	if rightN > 0 {
		for c := range rightCounts {
			rightCounts[c] /= rightN
		}
		g += (rightN / total) * gini(rightCounts)
	}
	return g
}

func gini(dist []float64) float64 {
	g := 1.0
	for _, p := range dist {
		g -= p * p
	}
	return g
}

func isPure(dist []float64) bool {
	for _, p := range dist {
		if p == 1 {
			return true
		}
	}
	return false
}

func (t Tree) proba(x []float64) []float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Dist
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
