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

package model

import (
	"math"
	"sort"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Curve is a receiver operating characteristic curve. Points are ordered by
// decreasing threshold, so FPR and TPR are non-decreasing and run from (0,0)
// to (1,1).
type Curve struct {
	FPR        []float64
	TPR        []float64
	Thresholds []float64
}

// ROC computes the ROC curve of scores against labels. Every distinct score is
// a threshold, so tied scores move the curve diagonally.
func ROC(scores []float64, labels []bool) (Curve, error) {
	if len(scores) != len(labels) {
		return Curve{}, errors.Annotatef(ErrDimension, "%d scores but %d labels", len(scores), len(labels))
	}
	var pos int
	for i, score := range scores {
		if math.IsNaN(score) {
			return Curve{}, errors.Annotatef(ErrMissingValue, "score %d", i)
		}
		if labels[i] {
			pos++
		}
	}
	if pos == 0 || pos == len(labels) {
		return Curve{}, errors.Annotatef(ErrSingleClass, "%d positives among %d rows", pos, len(labels))
	}
	y := make([]float64, len(scores))
	copy(y, scores)
	classes := make([]bool, len(labels))
	copy(classes, labels)
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, thresholds := stat.ROC(nil, y, classes, nil)
	if !sort.Float64sAreSorted(fpr) {
		return Curve{}, errors.New("false positive rates are not monotone")
	}
	return Curve{FPR: fpr, TPR: tpr, Thresholds: thresholds}, nil
}

// Area integrates the curve with the trapezoidal rule.
func (c Curve) Area() float64 {
	return integrate.Trapezoidal(c.FPR, c.TPR)
}

// AUC is the area under the ROC curve of scores against labels, the probability
// that a random positive is scored above a random negative. It fails instead of
// returning a placeholder when only one class is present.
func AUC(scores []float64, labels []bool) (float64, error) {
	curve, err := ROC(scores, labels)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return curve.Area(), nil
}

// Score is the evaluation of a fitted model on labelled rows.
type Score struct {
	AUC   float64
	Curve Curve
}

// BetterThan reports whether score has a strictly higher AUC than s. Ties are
// left to the caller.
func (score Score) BetterThan(s Score) bool {
	return score.AUC > s.AUC
}
