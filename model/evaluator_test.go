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
	"testing"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base"
	"github.com/stretchr/testify/assert"
)

// mannWhitney counts ordered positive/negative pairs, ties count one half.
func mannWhitney(scores []float64, labels []bool) float64 {
	var sum, pairs float64
	for i := range scores {
		if !labels[i] {
			continue
		}
		for j := range scores {
			if labels[j] {
				continue
			}
			pairs++
			if scores[i] > scores[j] {
				sum++
			} else if scores[i] == scores[j] {
				sum += 0.5
			}
		}
	}
	return sum / pairs
}

func TestAUC(t *testing.T) {
	scores := []float64{0, 3, 5, 6, 7.5, 8}
	labels := []bool{false, true, false, true, true, true}
	auc, err := AUC(scores, labels)
	assert.NoError(t, err)
	assert.InDelta(t, 0.875, auc, 1e-12)
}

func TestAUC_Perfect(t *testing.T) {
	scores := []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9}
	labels := []bool{false, false, false, true, true, true}
	auc, err := AUC(scores, labels)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, auc)
	// reversed ranking
	reversed := []bool{true, true, true, false, false, false}
	auc, err = AUC(scores, reversed)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, auc)
}

func TestAUC_MonotoneInvariance(t *testing.T) {
	rng := base.NewRandomGenerator(1)
	scores := rng.NormalVector64(300, 0, 1)
	labels := make([]bool, len(scores))
	for i := range labels {
		labels[i] = scores[i]+rng.NormFloat64() > 0
	}
	auc, err := AUC(scores, labels)
	assert.NoError(t, err)
	rescaled := make([]float64, len(scores))
	for i, s := range scores {
		rescaled[i] = math.Exp(3*s) + 10
	}
	aucRescaled, err := AUC(rescaled, labels)
	assert.NoError(t, err)
	assert.InDelta(t, auc, aucRescaled, 1e-12)
}

func TestAUC_MatchesMannWhitney(t *testing.T) {
	rng := base.NewRandomGenerator(2)
	scores := make([]float64, 200)
	labels := make([]bool, 200)
	for i := range scores {
		// coarse scores produce many ties
		scores[i] = float64(rng.Intn(10))
		labels[i] = rng.Float64() < 0.3+0.04*scores[i]
	}
	auc, err := AUC(scores, labels)
	assert.NoError(t, err)
	assert.InDelta(t, mannWhitney(scores, labels), auc, 1e-9)
}

func TestAUC_Uninformative(t *testing.T) {
	rng := base.NewRandomGenerator(3)
	scores := rng.NormalVector64(5000, 0, 1)
	labels := make([]bool, len(scores))
	for i := range labels {
		labels[i] = rng.Float64() < 0.2
	}
	auc, err := AUC(scores, labels)
	assert.NoError(t, err)
	assert.InDelta(t, 0.5, auc, 0.03)
	// constant scores sit on the diagonal
	constant := make([]float64, len(scores))
	auc, err = AUC(constant, labels)
	assert.NoError(t, err)
	assert.InDelta(t, 0.5, auc, 1e-12)
}

func TestAUC_Degenerate(t *testing.T) {
	_, err := AUC([]float64{0.1, 0.2}, []bool{true, true})
	assert.True(t, errors.Is(err, ErrSingleClass))
	_, err = AUC([]float64{0.1, 0.2}, []bool{false, false})
	assert.True(t, errors.Is(err, ErrSingleClass))
	_, err = AUC([]float64{0.1}, []bool{true, false})
	assert.True(t, errors.Is(err, ErrDimension))
	_, err = AUC([]float64{0.1, math.NaN()}, []bool{true, false})
	assert.True(t, errors.Is(err, ErrMissingValue))
}

func TestROC(t *testing.T) {
	curve, err := ROC([]float64{0.9, 0.8, 0.4, 0.1}, []bool{true, false, true, false})
	assert.NoError(t, err)
	assert.Equal(t, 0.0, curve.FPR[0])
	assert.Equal(t, 0.0, curve.TPR[0])
	assert.Equal(t, 1.0, curve.FPR[len(curve.FPR)-1])
	assert.Equal(t, 1.0, curve.TPR[len(curve.TPR)-1])
	assert.Len(t, curve.FPR, 5)
	assert.InDelta(t, 0.75, curve.Area(), 1e-12)
}

func TestScore_BetterThan(t *testing.T) {
	assert.True(t, Score{AUC: 0.81}.BetterThan(Score{AUC: 0.8}))
	assert.False(t, Score{AUC: 0.8}.BetterThan(Score{AUC: 0.81}))
	assert.False(t, Score{AUC: 0.8}.BetterThan(Score{AUC: 0.8}))
}
