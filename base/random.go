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

package base

import (
	"math/rand"
)

// RandomGenerator is the seeded random generator shared by splitters and trainers.
type RandomGenerator struct {
	*rand.Rand
}

// NewRandomGenerator creates a RandomGenerator.
func NewRandomGenerator(seed int64) RandomGenerator {
	return RandomGenerator{rand.New(rand.NewSource(seed))}
}

// NormalVector64 makes a vec filled with normal random floats.
func (rng RandomGenerator) NormalVector64(size int, mean, stdDev float64) []float64 {
	ret := make([]float64, size)
	for i := 0; i < len(ret); i++ {
		ret[i] = rng.NormFloat64()*stdDev + mean
	}
	return ret
}

// ShuffleInts shuffles a in place.
func (rng RandomGenerator) ShuffleInts(a []int) {
	rng.Shuffle(len(a), func(i, j int) {
		a[i], a[j] = a[j], a[i]
	})
}

// Bootstrap draws n indices in [0, n) with replacement.
func (rng RandomGenerator) Bootstrap(n int) []int {
	ret := make([]int, n)
	for i := range ret {
		ret[i] = rng.Intn(n)
	}
	return ret
}

// PartialShuffle moves k uniformly chosen elements of a to its front and
// returns them. a is reused across calls to avoid allocation.
func (rng RandomGenerator) PartialShuffle(a []int, k int) []int {
	if k > len(a) {
		k = len(a)
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(a)-i)
		a[i], a[j] = a[j], a[i]
	}
	return a[:k]
}

// Seeds draws n child seeds. Work units seeded this way stay reproducible
// regardless of the order they are scheduled in.
func (rng RandomGenerator) Seeds(n int) []int64 {
	ret := make([]int64, n)
	for i := range ret {
		ret[i] = rng.Int63()
	}
	return ret
}
