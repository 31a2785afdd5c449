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

package boost

import (
	"math"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
)

// rtEps is the smallest loss change accepted as a split.
const rtEps = 1e-6

// Node is a node of a regression tree. Leaves have Feature -1. Rows with
// x < Threshold go left; missing values follow DefaultLeft.
type Node struct {
	Feature     int
	Threshold   float64
	DefaultLeft bool
	Left        int32
	Right       int32
	Weight      float64 // leaf output, shrinkage applied
}

// Tree is a regression tree on the logit scale stored as a flat node list.
type Tree struct {
	Nodes []Node
}

func (t *Tree) Predict(x []float64) float64 {
	n := &t.Nodes[0]
	for n.Feature >= 0 {
		v := x[n.Feature]
		var left bool
		if math.IsNaN(v) {
			left = n.DefaultLeft
		} else {
			left = v < n.Threshold
		}
		if left {
			n = &t.Nodes[n.Left]
		} else {
			n = &t.Nodes[n.Right]
		}
	}
	return n.Weight
}

type treeParams struct {
	maxDepth       int
	lambda         float64
	gamma          float64
	minChildWeight float64
	learningRate   float64
}

// columns holds, per feature, the rows with a present value sorted by value.
type columns struct {
	x      *mat.Dense
	sorted [][]int
}

func newColumns(x *mat.Dense) *columns {
	rows, cols := x.Dims()
	c := &columns{x: x, sorted: make([][]int, cols)}
	for j := 0; j < cols; j++ {
		present := make([]int, 0, rows)
		for i := 0; i < rows; i++ {
			if !math.IsNaN(x.At(i, j)) {
				present = append(present, i)
			}
		}
		sort.SliceStable(present, func(a, b int) bool {
			return x.At(present[a], j) < x.At(present[b], j)
		})
		c.sorted[j] = present
	}
	return c
}

// candidate is the best split found for a node so far.
type candidate struct {
	gain        float64
	feature     int
	threshold   float64
	defaultLeft bool
}

// leafGain is the structure score of a node, G^2 / (H + lambda).
func (p treeParams) leafGain(g, h float64) float64 {
	return g * g / (h + p.lambda)
}

// splitGain is the loss reduction of splitting a node into left and right,
// 1/2 [GL^2/(HL+lambda) + GR^2/(HR+lambda) - G^2/(H+lambda)]. It is compared
// with gamma directly.
func (p treeParams) splitGain(gl, hl, gr, hr float64) float64 {
	return (p.leafGain(gl, hl) + p.leafGain(gr, hr) - p.leafGain(gl+gr, hl+hr)) / 2
}

func (p treeParams) leafWeight(g, h float64) float64 {
	return -g / (h + p.lambda) * p.learningRate
}

// buildTree grows a tree level by level with the exact greedy algorithm over
// gradient and hessian statistics. It returns the tree and the loss change
// of each split credited to its feature.
func buildTree(cols *columns, grad, hess []float64, params treeParams, gains []float64) Tree {
	rows, nFeatures := cols.x.Dims()
	var tree Tree
	tree.Nodes = append(tree.Nodes, Node{Feature: -1})
	// position maps each row to the node it currently sits in
	position := make([]int, rows)
	sumG := []float64{0}
	sumH := []float64{0}
	sumN := []int{rows}
	for i := 0; i < rows; i++ {
		sumG[0] += grad[i]
		sumH[0] += hess[i]
	}
	frontier := []int{0}
	for depth := 0; depth < params.maxDepth && len(frontier) > 0; depth++ {
		// index of each frontier node, -1 elsewhere
		slot := make([]int, len(tree.Nodes))
		for k := range slot {
			slot[k] = -1
		}
		for k, id := range frontier {
			slot[id] = k
		}
		best := make([]candidate, len(frontier))
		for k := range best {
			best[k].feature = -1
		}
		presentG := make([]float64, len(frontier))
		presentH := make([]float64, len(frontier))
		presentN := make([]int, len(frontier))
		leftG := make([]float64, len(frontier))
		leftH := make([]float64, len(frontier))
		last := make([]float64, len(frontier))
		seen := make([]bool, len(frontier))
		for j := 0; j < nFeatures; j++ {
			for k := range frontier {
				presentG[k], presentH[k], presentN[k], leftG[k], leftH[k], seen[k] = 0, 0, 0, 0, 0, false
			}
			for _, i := range cols.sorted[j] {
				if k := slotOf(slot, position[i]); k >= 0 {
					presentG[k] += grad[i]
					presentH[k] += hess[i]
					presentN[k]++
				}
			}
			for _, i := range cols.sorted[j] {
				k := slotOf(slot, position[i])
				if k < 0 {
					continue
				}
				v := cols.x.At(i, j)
				if seen[k] && v != last[k] {
					threshold := last[k] + (v-last[k])/2
					if threshold <= last[k] {
						threshold = v
					}
					id := frontier[k]
					hasMissing := presentN[k] < sumN[id]
					params.evaluate(&best[k], j, threshold, hasMissing, sumG[id], sumH[id], presentG[k], presentH[k], leftG[k], leftH[k])
				}
				leftG[k] += grad[i]
				leftH[k] += hess[i]
				last[k] = v
				seen[k] = true
			}
			// every present value left, missing values right
			for k, id := range frontier {
				if seen[k] && presentN[k] < sumN[id] {
					threshold := math.Nextafter(last[k], math.Inf(1))
					gl, hl := presentG[k], presentH[k]
					gr, hr := sumG[id]-gl, sumH[id]-hl
					if hl >= params.minChildWeight && hr >= params.minChildWeight {
						gain := params.splitGain(gl, hl, gr, hr)
						if gain > best[k].gain {
							best[k] = candidate{gain: gain, feature: j, threshold: threshold, defaultLeft: false}
						}
					}
				}
			}
		}

		// expand nodes whose best split clears gamma
		var next []int
		for k, id := range frontier {
			c := best[k]
			if c.feature < 0 || c.gain <= rtEps || c.gain < params.gamma {
				continue
			}
			gains[c.feature] += c.gain
			left, right := int32(len(tree.Nodes)), int32(len(tree.Nodes)+1)
			tree.Nodes = append(tree.Nodes, Node{Feature: -1}, Node{Feature: -1})
			sumG = append(sumG, 0, 0)
			sumH = append(sumH, 0, 0)
			sumN = append(sumN, 0, 0)
			tree.Nodes[id] = Node{Feature: c.feature, Threshold: c.threshold, DefaultLeft: c.defaultLeft, Left: left, Right: right}
			next = append(next, int(left), int(right))
		}
		if len(next) == 0 {
			break
		}
		for i := 0; i < rows; i++ {
			node := tree.Nodes[position[i]]
			if node.Feature < 0 {
				continue
			}
			v := cols.x.At(i, node.Feature)
			var child int32
			if math.IsNaN(v) {
				child = lo.Ternary(node.DefaultLeft, node.Left, node.Right)
			} else {
				child = lo.Ternary(v < node.Threshold, node.Left, node.Right)
			}
			position[i] = int(child)
			sumG[child] += grad[i]
			sumH[child] += hess[i]
			sumN[child]++
		}
		frontier = next
	}
	for id := range tree.Nodes {
		if tree.Nodes[id].Feature < 0 {
			tree.Nodes[id].Weight = params.leafWeight(sumG[id], sumH[id])
		}
	}
	return tree
}

// evaluate scores a threshold with missing values sent right and then left.
func (p treeParams) evaluate(best *candidate, feature int, threshold float64, hasMissing bool, g, h, presentG, presentH, leftG, leftH float64) {
	missingG, missingH := g-presentG, h-presentH
	// missing right
	gl, hl := leftG, leftH
	gr, hr := g-gl, h-hl
	if hl >= p.minChildWeight && hr >= p.minChildWeight {
		if gain := p.splitGain(gl, hl, gr, hr); gain > best.gain {
			*best = candidate{gain: gain, feature: feature, threshold: threshold, defaultLeft: false}
		}
	}
	if !hasMissing {
		return
	}
	// missing left
	gl, hl = leftG+missingG, leftH+missingH
	gr, hr = g-gl, h-hl
	if hl >= p.minChildWeight && hr >= p.minChildWeight {
		if gain := p.splitGain(gl, hl, gr, hr); gain > best.gain {
			*best = candidate{gain: gain, feature: feature, threshold: threshold, defaultLeft: true}
		}
	}
}

func slotOf(slot []int, node int) int {
	if node >= len(slot) {
		return -1
	}
	return slot[node]
}
