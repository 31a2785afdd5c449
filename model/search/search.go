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

package search

import (
	"context"
	"sort"
	"sync"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base/log"
	"github.com/readmit-io/readmit/dataset"
	"github.com/readmit-io/readmit/model"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Tunable is a model that can suggest its own hyper-parameters.
type Tunable interface {
	model.Model
	SuggestParams(trial goptuna.Trial) model.Params
}

type ModelCreator func(params model.Params) Tunable

// Result is the best trial of a search.
type Result struct {
	Kind   model.Kind
	Params model.Params
	AUC    float64
	Trials int
}

// ModelSearch scores hyper-parameter suggestions by validation AUC. The
// validation rows are a stratified split of the training rows, so the test
// split used for model selection is never seen while tuning.
type ModelSearch struct {
	ctx      context.Context
	creators map[string]ModelCreator
	kinds    []string
	params   model.Params
	config   *model.FitConfig
	features []string
	xTrain   *mat.Dense
	yTrain   []bool
	xValid   *mat.Dense
	yValid   []bool

	mu     sync.Mutex
	result Result
}

// NewModelSearch holds out 1 - fraction of the rows for validation. params are
// the fixed parameters every trial starts from.
func NewModelSearch(ctx context.Context, creators map[model.Kind]ModelCreator, x *mat.Dense, y []bool, features []string,
	fraction float64, params model.Params, config *model.FitConfig) (*ModelSearch, error) {
	if len(creators) == 0 {
		return nil, errors.New("no model to search")
	}
	train, valid, err := dataset.StratifiedSplit(y, fraction, params.GetInt64(model.RandomState, 0))
	if err != nil {
		return nil, errors.Trace(err)
	}
	ms := &ModelSearch{
		ctx:      ctx,
		creators: make(map[string]ModelCreator, len(creators)),
		params:   params.Copy(),
		config:   config.LoadDefaultIfNil(),
		features: features,
		xTrain:   model.SelectRows(x, train),
		yTrain:   model.SelectLabels(y, train),
		xValid:   model.SelectRows(x, valid),
		yValid:   model.SelectLabels(y, valid),
	}
	for kind, creator := range creators {
		ms.creators[string(kind)] = creator
		ms.kinds = append(ms.kinds, string(kind))
	}
	sort.Strings(ms.kinds)
	return ms, nil
}

func (ms *ModelSearch) Objective(trial goptuna.Trial) (float64, error) {
	kind, err := trial.SuggestCategorical("Model", ms.kinds)
	if err != nil {
		return 0, errors.Trace(err)
	}
	m := ms.creators[kind](ms.params)
	params := ms.params.Overwrite(m.SuggestParams(trial))
	m.SetParams(params)
	if err = m.Fit(ms.ctx, ms.xTrain, ms.yTrain, ms.features, ms.config); err != nil {
		return 0, errors.Trace(err)
	}
	predictions, err := model.PredictBatch(ms.ctx, m, ms.xValid, ms.config.Jobs)
	if err != nil {
		return 0, errors.Trace(err)
	}
	auc, err := model.AUC(predictions, ms.yValid)
	if err != nil {
		return 0, errors.Trace(err)
	}
	log.Logger().Info("search trial complete",
		zap.String("model", kind),
		zap.String("params", params.ToString()),
		zap.Float64("auc", auc))

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.result.Trials++
	if ms.result.Params == nil || auc > ms.result.AUC {
		ms.result.Kind = model.Kind(kind)
		ms.result.Params = params
		ms.result.AUC = auc
	}
	return auc, nil
}

func (ms *ModelSearch) Result() Result {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.result
}

// Optimize runs nTrials of a TPE study over the search objective.
func Optimize(ms *ModelSearch, name string, nTrials int, seed int64) (Result, error) {
	study, err := goptuna.CreateStudy(name,
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMaximize),
		goptuna.StudyOptionSampler(tpe.NewSampler(tpe.SamplerOptionSeed(seed))))
	if err != nil {
		return Result{}, errors.Trace(err)
	}
	if err = study.Optimize(ms.Objective, nTrials); err != nil {
		return Result{}, errors.Trace(err)
	}
	return ms.Result(), nil
}
