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
	"context"
	"fmt"
	"io"
	"math"

	"github.com/c-bata/goptuna"
	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base/encoding"
	"github.com/readmit-io/readmit/base/log"
	"github.com/readmit-io/readmit/base/progress"
	"github.com/readmit-io/readmit/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func init() {
	model.Register(model.Boost, func() model.Classifier { return new(GBDT) })
}

// GBDT is a gradient boosted tree classifier with the binary logistic
// objective. Each round fits a regression tree to the gradient and hessian of
// the log loss. Missing values are allowed and learn a default direction at
// every split.
type GBDT struct {
	model.BaseModel
	// hyper parameters
	nRounds int
	tree    treeParams
	// fitted
	features  []string
	BaseScore float64 // initial margin
	Trees     []Tree
	Gain      []float64 // total split gain per feature
}

func NewGBDT(params model.Params) *GBDT {
	gbdt := new(GBDT)
	gbdt.SetParams(params)
	return gbdt
}

func (gbdt *GBDT) SetParams(params model.Params) {
	gbdt.BaseModel.SetParams(params)
	gbdt.nRounds = gbdt.Params.GetInt(model.NRounds, 200)
	gbdt.tree = treeParams{
		maxDepth:       gbdt.Params.GetInt(model.MaxDepth, 6),
		lambda:         gbdt.Params.GetFloat64(model.Lambda, 1),
		gamma:          gbdt.Params.GetFloat64(model.Gamma, 0),
		minChildWeight: gbdt.Params.GetFloat64(model.MinChildWeight, 1),
		learningRate:   gbdt.Params.GetFloat64(model.LearningRate, 0.3),
	}
}

func (gbdt *GBDT) SuggestParams(trial goptuna.Trial) model.Params {
	return model.Params{
		model.LearningRate: lo.Must(trial.SuggestLogFloat(string(model.LearningRate), 0.01, 0.5)),
		model.MaxDepth:     lo.Must(trial.SuggestInt(string(model.MaxDepth), 2, 10)),
		model.NRounds:      lo.Must(trial.SuggestInt(string(model.NRounds), 50, 400)),
	}
}

func (gbdt *GBDT) Kind() model.Kind {
	return model.Boost
}

func (gbdt *GBDT) Features() []string {
	return gbdt.features
}

// Margin returns the raw log-odds of x.
func (gbdt *GBDT) Margin(x []float64) float64 {
	margin := gbdt.BaseScore
	for i := range gbdt.Trees {
		margin += gbdt.Trees[i].Predict(x)
	}
	return margin
}

func (gbdt *GBDT) Predict(x []float64) float64 {
	return 1 / (1 + math.Exp(-gbdt.Margin(x)))
}

// FeatureImportance is the total gain of each feature normalised to sum to one.
func (gbdt *GBDT) FeatureImportance() map[string]float64 {
	total := floats.Sum(gbdt.Gain)
	importance := make(map[string]float64, len(gbdt.features))
	for j, name := range gbdt.features {
		if total > 0 {
			importance[name] = gbdt.Gain[j] / total
		} else {
			importance[name] = 0
		}
	}
	return importance
}

func (gbdt *GBDT) Fit(ctx context.Context, x *mat.Dense, y []bool, features []string, config *model.FitConfig) error {
	config = config.LoadDefaultIfNil()
	if err := model.CheckInput(x, y, features, false); err != nil {
		return errors.Trace(err)
	}
	if gbdt.nRounds < 1 || gbdt.tree.maxDepth < 1 {
		return errors.Errorf("invalid boosting shape: %d rounds of depth %d", gbdt.nRounds, gbdt.tree.maxDepth)
	}
	rows, cols := x.Dims()
	log.Logger().Info("fit gradient boosted trees",
		zap.Int("n_rows", rows),
		zap.Int("n_features", cols),
		zap.Any("params", gbdt.GetParams()))

	labels := make([]float64, rows)
	for i, label := range y {
		if label {
			labels[i] = 1
		}
	}
	columns := newColumns(x)
	margin := make([]float64, rows)
	grad := make([]float64, rows)
	hess := make([]float64, rows)
	gbdt.BaseScore = 0
	gbdt.Trees = make([]Tree, 0, gbdt.nRounds)
	gbdt.Gain = make([]float64, cols)
	_, span := progress.Start(ctx, "boost", gbdt.nRounds)
	for round := 1; round <= gbdt.nRounds; round++ {
		if err := ctx.Err(); err != nil {
			span.Fail(err)
			return errors.Trace(err)
		}
		for i := range margin {
			p := 1 / (1 + math.Exp(-margin[i]))
			grad[i] = p - labels[i]
			hess[i] = math.Max(p*(1-p), 1e-16)
		}
		tree := buildTree(columns, grad, hess, gbdt.tree, gbdt.Gain)
		for i := range margin {
			margin[i] += tree.Predict(x.RawRowView(i))
		}
		gbdt.Trees = append(gbdt.Trees, tree)
		span.Add(1)
		if config.Verbose > 0 && (round%config.Verbose == 0 || round == gbdt.nRounds) {
			log.Logger().Debug(fmt.Sprintf("fit gradient boosted trees %v/%v", round, gbdt.nRounds),
				zap.Float64("train_logloss", logLoss(margin, labels)))
		}
	}
	span.End()
	gbdt.features = features
	return nil
}

func logLoss(margin, labels []float64) float64 {
	var loss float64
	for i, m := range margin {
		loss += math.Max(m, 0) + math.Log1p(math.Exp(-math.Abs(m))) - labels[i]*m
	}
	return loss / float64(len(margin))
}

func (gbdt *GBDT) Marshal(w io.Writer) error {
	if err := encoding.WriteGob(w, gbdt.Params); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, gbdt.features); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteVector(w, []float64{gbdt.BaseScore}); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteVector(w, gbdt.Gain); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoding.WriteGob(w, gbdt.Trees))
}

func (gbdt *GBDT) Unmarshal(r io.Reader) error {
	var params model.Params
	if err := encoding.ReadGob(r, &params); err != nil {
		return errors.Trace(err)
	}
	gbdt.SetParams(params)
	if err := encoding.ReadGob(r, &gbdt.features); err != nil {
		return errors.Trace(err)
	}
	baseScore, err := encoding.ReadVector(r)
	if err != nil {
		return errors.Trace(err)
	}
	if len(baseScore) != 1 {
		return errors.Errorf("expected one base score, got %d", len(baseScore))
	}
	gbdt.BaseScore = baseScore[0]
	if gbdt.Gain, err = encoding.ReadVector(r); err != nil {
		return errors.Trace(err)
	}
	if len(gbdt.Gain) != len(gbdt.features) {
		return errors.Annotatef(model.ErrDimension, "%d features but %d gains", len(gbdt.features), len(gbdt.Gain))
	}
	return errors.Trace(encoding.ReadGob(r, &gbdt.Trees))
}
