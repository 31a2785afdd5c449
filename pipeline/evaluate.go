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
	"math"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/model"
	"gonum.org/v1/gonum/mat"
)

// aucTolerance is the margin under which two AUCs count as equal.
const aucTolerance = 1e-12

// ModelScore is the test evaluation of one fitted model.
type ModelScore struct {
	Kind  model.Kind
	Score model.Score
}

// Evaluation holds the test scores of every model and the selected one.
type Evaluation struct {
	Scores   []ModelScore
	Selected int
}

// Best returns the score of the selected model.
func (e *Evaluation) Best() ModelScore {
	return e.Scores[e.Selected]
}

// better reports whether a should be selected over b. Equal AUCs prefer the
// simpler kind.
func better(a, b ModelScore) bool {
	if math.Abs(a.Score.AUC-b.Score.AUC) <= aucTolerance {
		return a.Kind.Complexity() < b.Kind.Complexity()
	}
	return a.Score.BetterThan(b.Score)
}

// Select returns the index of the best score.
func Select(scores []ModelScore) int {
	selected := 0
	for i := 1; i < len(scores); i++ {
		if better(scores[i], scores[selected]) {
			selected = i
		}
	}
	return selected
}

// Evaluate scores every model on labelled rows and selects the one with the
// largest AUC.
func Evaluate(ctx context.Context, models []model.Classifier, x *mat.Dense, y []bool, jobs int) (*Evaluation, error) {
	if len(models) == 0 {
		return nil, errors.New("no model to evaluate")
	}
	evaluation := &Evaluation{Scores: make([]ModelScore, len(models))}
	for i, m := range models {
		predictions, err := model.PredictBatch(ctx, m, x, jobs)
		if err != nil {
			return nil, errors.Annotatef(err, "predict %s", m.Kind())
		}
		curve, err := model.ROC(predictions, y)
		if err != nil {
			return nil, errors.Annotatef(err, "evaluate %s", m.Kind())
		}
		evaluation.Scores[i] = ModelScore{Kind: m.Kind(), Score: model.Score{AUC: curve.Area(), Curve: curve}}
	}
	evaluation.Selected = Select(evaluation.Scores)
	return evaluation, nil
}
