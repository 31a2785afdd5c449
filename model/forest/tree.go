// Copyright 2026 readmit Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package forest

import (
	"sort"

	"github.com/readmit-io/readmit/base"
	"gonum.org/v1/gonum/mat"
)

// Node is a node of a classification tree. Leaves have Feature -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int32
	Right     int32
	Value     float64 // fraction of positive samples, set on leaves
}

// Tree is a CART classification tree stored as a flat node list rooted at 0.
type Tree struct {
	Nodes []Node
}

// Predict returns the positive fraction of the leaf x falls into.
func (t *Tree) Predict(x []float64) float64 {
	n := &t.Nodes[0]
	for n.Feature >= 0 {
		if x[n.Feature] <= n.Threshold {
			n = &t.Nodes[n.Left]
		} else {
			n = &t.Nodes[n.Right]
		}
	}
	return n.Value
}

// treeBuilder grows one tree on a bootstrap sample.
type treeBuilder struct {
	x           *mat.Dense
	y           []bool
	mtry        int
	minNodeSize int
	rng         base.RandomGenerator
	candidates  []int
	importance  []float64
	tree        Tree
}

func gini(positives, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(positives) / float64(n)
	return 2 * p * (1 - p)
}

func countPositives(y []bool, samples []int) int {
	var count int
	for _, i := range samples {
		if y[i] {
			count++
		}
	}
	return count
}

// split is the best threshold found for a node.
type split struct {
	feature   int
	threshold float64
	decrease  float64
}

// grow appends the subtree for samples and returns its node index.
func (b *treeBuilder) grow(samples []int) int32 {
	id := int32(len(b.tree.Nodes))
	positives := countPositives(b.y, samples)
	b.tree.Nodes = append(b.tree.Nodes, Node{Feature: -1, Value: float64(positives) / float64(len(samples))})
	if positives == 0 || positives == len(samples) || len(samples) <= b.minNodeSize {
		return id
	}
	best, ok := b.bestSplit(samples, positives)
	if !ok {
		return id
	}
	b.importance[best.feature] += best.decrease
	var left, right []int
	for _, i := range samples {
		if b.x.At(i, best.feature) <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left)
	r := b.grow(right)
	b.tree.Nodes[id].Feature = best.feature
	b.tree.Nodes[id].Threshold = best.threshold
	b.tree.Nodes[id].Left = l
	b.tree.Nodes[id].Right = r
	return id
}

// bestSplit searches mtry randomly chosen features for the split with the
// largest size-weighted decrease in Gini impurity.
func (b *treeBuilder) bestSplit(samples []int, positives int) (split, bool) {
	n := len(samples)
	parent := float64(n) * gini(positives, n)
	best := split{feature: -1}
	sorted := make([]int, n)
	for _, j := range b.rng.PartialShuffle(b.candidates, b.mtry) {
		copy(sorted, samples)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.x.At(sorted[a], j) < b.x.At(sorted[c], j)
		})
		leftPositives := 0
		for k := 0; k < n-1; k++ {
			if b.y[sorted[k]] {
				leftPositives++
			}
			current, next := b.x.At(sorted[k], j), b.x.At(sorted[k+1], j)
			if current == next {
				continue
			}
			nl, nr := k+1, n-k-1
			decrease := parent - float64(nl)*gini(leftPositives, nl) - float64(nr)*gini(positives-leftPositives, nr)
			if decrease > best.decrease {
				threshold := current + (next-current)/2
				if threshold >= next {
					threshold = current
				}
				best = split{feature: j, threshold: threshold, decrease: decrease}
			}
		}
	}
	return best, best.feature >= 0
}
