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

package pipeline

import (
	"context"
	"io"
	"testing"

	"github.com/readmit-io/readmit/model"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

// constantClassifier scores a row by one of its features.
type constantClassifier struct {
	kind    model.Kind
	feature int
	sign    float64
}

func (c *constantClassifier) Kind() model.Kind   { return c.kind }
func (c *constantClassifier) Features() []string { return []string{"a", "b"} }
func (c *constantClassifier) Predict(x []float64) float64 {
	return c.sign * x[c.feature]
}
func (c *constantClassifier) FeatureImportance() map[string]float64 { return nil }
func (c *constantClassifier) Marshal(io.Writer) error               { return nil }
func (c *constantClassifier) Unmarshal(io.Reader) error             { return nil }

func scoreOf(kind model.Kind, auc float64) ModelScore {
	return ModelScore{Kind: kind, Score: model.Score{AUC: auc}}
}

func TestSelect(t *testing.T) {
	// maximum wins
	assert.Equal(t, 2, Select([]ModelScore{
		scoreOf(model.Linear, 0.7), scoreOf(model.Forest, 0.8), scoreOf(model.Boost, 0.9),
	}))
	assert.Equal(t, 0, Select([]ModelScore{
		scoreOf(model.Linear, 0.9), scoreOf(model.Forest, 0.8), scoreOf(model.Boost, 0.7),
	}))
	// ties prefer the simpler model regardless of order
	assert.Equal(t, 1, Select([]ModelScore{
		scoreOf(model.Boost, 0.8), scoreOf(model.Linear, 0.8), scoreOf(model.Forest, 0.8),
	}))
	assert.Equal(t, 2, Select([]ModelScore{
		scoreOf(model.Boost, 0.8), scoreOf(model.Linear, 0.7), scoreOf(model.Forest, 0.8+1e-13),
	}))
	// differences above the tolerance count
	assert.Equal(t, 0, Select([]ModelScore{
		scoreOf(model.Boost, 0.8+1e-9), scoreOf(model.Linear, 0.8),
	}))
}

func TestEvaluate(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		0.1, 0.4,
		0.2, 0.3,
		0.8, 0.2,
		0.9, 0.1,
	})
	y := []bool{false, false, true, true}
	models := []model.Classifier{
		&constantClassifier{kind: model.Linear, feature: 1, sign: 1},
		&constantClassifier{kind: model.Forest, feature: 0, sign: 1},
		&constantClassifier{kind: model.Boost, feature: 1, sign: -1},
	}
	evaluation, err := Evaluate(context.Background(), models, x, y, 2)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, evaluation.Scores[0].Score.AUC)
	assert.Equal(t, 1.0, evaluation.Scores[1].Score.AUC)
	assert.Equal(t, 1.0, evaluation.Scores[2].Score.AUC)
	// forest and boost tie, forest is simpler
	assert.Equal(t, 1, evaluation.Selected)
	assert.Equal(t, model.Forest, evaluation.Best().Kind)

	_, err = Evaluate(context.Background(), nil, x, y, 1)
	assert.Error(t, err)
}
