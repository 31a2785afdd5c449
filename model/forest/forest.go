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
	"context"
	"fmt"
	"io"

	"github.com/c-bata/goptuna"
	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base"
	"github.com/readmit-io/readmit/base/encoding"
	"github.com/readmit-io/readmit/base/log"
	"github.com/readmit-io/readmit/base/progress"
	"github.com/readmit-io/readmit/common/parallel"
	"github.com/readmit-io/readmit/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

func init() {
	model.Register(model.Forest, func() model.Classifier { return new(RandomForest) })
}

// RandomForest is a bagged ensemble of CART classification trees. Each split
// considers MTry features drawn at random and trees are grown until their
// leaves are pure or no larger than MinNodeSize.
type RandomForest struct {
	model.BaseModel
	// hyper parameters
	nTrees      int
	mtry        int
	minNodeSize int
	// fitted
	features   []string
	Trees      []Tree
	Importance []float64 // mean decrease in Gini impurity
}

func NewRandomForest(params model.Params) *RandomForest {
	rf := new(RandomForest)
	rf.SetParams(params)
	return rf
}

func (rf *RandomForest) SetParams(params model.Params) {
	rf.BaseModel.SetParams(params)
	rf.nTrees = rf.Params.GetInt(model.NTrees, 500)
	rf.mtry = rf.Params.GetInt(model.MTry, 5)
	rf.minNodeSize = rf.Params.GetInt(model.MinNodeSize, 1)
}

func (rf *RandomForest) SuggestParams(trial goptuna.Trial) model.Params {
	return model.Params{
		model.NTrees: lo.Must(trial.SuggestInt(string(model.NTrees), 100, 1000)),
		model.MTry:   lo.Must(trial.SuggestInt(string(model.MTry), 1, 15)),
	}
}

func (rf *RandomForest) Kind() model.Kind {
	return model.Forest
}

func (rf *RandomForest) Features() []string {
	return rf.features
}

// Predict averages the leaf probabilities of all trees.
func (rf *RandomForest) Predict(x []float64) float64 {
	var sum float64
	for i := range rf.Trees {
		sum += rf.Trees[i].Predict(x)
	}
	return sum / float64(len(rf.Trees))
}

func (rf *RandomForest) FeatureImportance() map[string]float64 {
	importance := make(map[string]float64, len(rf.features))
	for j, name := range rf.features {
		importance[name] = rf.Importance[j]
	}
	return importance
}

func (rf *RandomForest) Fit(ctx context.Context, x *mat.Dense, y []bool, features []string, config *model.FitConfig) error {
	config = config.LoadDefaultIfNil()
	if err := model.CheckInput(x, y, features, true); err != nil {
		return errors.Trace(err)
	}
	if rf.nTrees < 1 {
		return errors.Errorf("number of trees must be positive, got %d", rf.nTrees)
	}
	rows, cols := x.Dims()
	mtry := min(max(rf.mtry, 1), cols)
	log.Logger().Info("fit random forest",
		zap.Int("n_rows", rows),
		zap.Int("n_features", cols),
		zap.Int("mtry", mtry),
		zap.Any("params", rf.GetParams()))

	// seeds are drawn before dispatch so trees do not depend on scheduling
	seeds := rf.GetRandomGenerator().Seeds(rf.nTrees)
	trees := make([]Tree, rf.nTrees)
	importance := make([][]float64, rf.nTrees)
	_, span := progress.Start(ctx, "forest", rf.nTrees)
	err := parallel.Parallel(ctx, rf.nTrees, config.Jobs, func(_, t int) error {
		rng := base.NewRandomGenerator(seeds[t])
		builder := &treeBuilder{
			x:           x,
			y:           y,
			mtry:        mtry,
			minNodeSize: rf.minNodeSize,
			rng:         rng,
			candidates:  lo.Range(cols),
			importance:  make([]float64, cols),
		}
		builder.grow(rng.Bootstrap(rows))
		trees[t] = builder.tree
		importance[t] = builder.importance
		span.Add(1)
		if config.Verbose > 0 && span.Count()%config.Verbose == 0 {
			log.Logger().Debug(fmt.Sprintf("fit random forest %v/%v", span.Count(), rf.nTrees))
		}
		return nil
	})
	if err != nil {
		span.Fail(err)
		return errors.Trace(err)
	}
	span.End()

	rf.features = features
	rf.Trees = trees
	rf.Importance = make([]float64, cols)
	for _, imp := range importance {
		for j, v := range imp {
			rf.Importance[j] += v
		}
	}
	for j := range rf.Importance {
		rf.Importance[j] /= float64(rf.nTrees)
	}
	log.Logger().Info("fit random forest complete",
		zap.Int("n_nodes", lo.SumBy(trees, func(t Tree) int { return len(t.Nodes) })))
	return nil
}

func (rf *RandomForest) Marshal(w io.Writer) error {
	if err := encoding.WriteGob(w, rf.Params); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, rf.features); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteVector(w, rf.Importance); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoding.WriteGob(w, rf.Trees))
}

func (rf *RandomForest) Unmarshal(r io.Reader) error {
	var params model.Params
	if err := encoding.ReadGob(r, &params); err != nil {
		return errors.Trace(err)
	}
	rf.SetParams(params)
	if err := encoding.ReadGob(r, &rf.features); err != nil {
		return errors.Trace(err)
	}
	var err error
	if rf.Importance, err = encoding.ReadVector(r); err != nil {
		return errors.Trace(err)
	}
	if len(rf.Importance) != len(rf.features) {
		return errors.Annotatef(model.ErrDimension, "%d features but %d importance scores", len(rf.features), len(rf.Importance))
	}
	return errors.Trace(encoding.ReadGob(r, &rf.Trees))
}
