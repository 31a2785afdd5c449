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

package dataset

import (
	"math"
	"sort"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base"
)

// ErrTooFewToStratify is returned when a class is too small to appear on both
// sides of a split.
var ErrTooFewToStratify = errors.New("too few rows to stratify")

// classIndices groups row indices by label: negatives first, then positives.
func classIndices(labels []bool) [2][]int {
	var classes [2][]int
	for i, label := range labels {
		if label {
			classes[1] = append(classes[1], i)
		} else {
			classes[0] = append(classes[0], i)
		}
	}
	return classes
}

// StratifiedSplit splits rows into train and test so both keep the class
// balance of labels. Each class is shuffled and round(fraction * size) of its
// rows go to train. Both returned index sets are sorted.
func StratifiedSplit(labels []bool, fraction float64, seed int64) (train, test []int, err error) {
	if !(fraction > 0 && fraction < 1) {
		return nil, nil, errors.Errorf("train fraction must be in (0, 1), got %v", fraction)
	}
	rng := base.NewRandomGenerator(seed)
	for class, indices := range classIndices(labels) {
		if len(indices) == 0 {
			continue
		}
		n := int(math.Round(fraction * float64(len(indices))))
		if n == 0 || n == len(indices) {
			return nil, nil, errors.Annotatef(ErrTooFewToStratify, "class %v has %d rows", class == 1, len(indices))
		}
		shuffled := append([]int(nil), indices...)
		rng.ShuffleInts(shuffled)
		train = append(train, shuffled[:n]...)
		test = append(test, shuffled[n:]...)
	}
	if len(train) == 0 {
		return nil, nil, errors.Annotate(ErrTooFewToStratify, "no rows")
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// StratifiedKFold partitions rows into k folds of near-equal size with the class
// balance of labels. Fold i holds the sorted indices held out in round i.
func StratifiedKFold(labels []bool, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, errors.Errorf("number of folds must be at least 2, got %d", k)
	}
	if len(labels) < k {
		return nil, errors.Annotatef(ErrTooFewToStratify, "%d rows for %d folds", len(labels), k)
	}
	rng := base.NewRandomGenerator(seed)
	folds := make([][]int, k)
	next := 0
	for _, indices := range classIndices(labels) {
		shuffled := append([]int(nil), indices...)
		rng.ShuffleInts(shuffled)
		// deal rows round-robin, continuing across classes to balance fold sizes
		for _, i := range shuffled {
			folds[next] = append(folds[next], i)
			next = (next + 1) % k
		}
	}
	for _, fold := range folds {
		sort.Ints(fold)
	}
	return folds, nil
}

// Complement returns the sorted indices in [0, n) that are not in fold.
func Complement(n int, fold []int) []int {
	held := make([]bool, n)
	for _, i := range fold {
		held[i] = true
	}
	rest := make([]int, 0, n-len(fold))
	for i := 0; i < n; i++ {
		if !held[i] {
			rest = append(rest, i)
		}
	}
	return rest
}
