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
	"fmt"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base/log"
	"github.com/readmit-io/readmit/config"
	"github.com/readmit-io/readmit/dataset"
	"github.com/readmit-io/readmit/model"
	"github.com/readmit-io/readmit/model/boost"
	"github.com/readmit-io/readmit/model/forest"
	"github.com/readmit-io/readmit/model/search"
	"go.uber.org/zap"
)

var tunables = map[model.Kind]search.ModelCreator{
	model.Forest: func(params model.Params) search.Tunable {
		return forest.NewRandomForest(params)
	},
	model.Boost: func(params model.Params) search.Tunable {
		return boost.NewGBDT(params)
	},
}

// Tune searches hyper-parameters of the configured model kinds. Only the
// training split is used, so the test split stays unseen.
func Tune(ctx context.Context, cfg *config.Config, ds *dataset.Dataset) (search.Result, error) {
	creators := make(map[model.Kind]search.ModelCreator)
	for _, name := range cfg.Tune.Models {
		creator, exist := tunables[model.Kind(name)]
		if !exist {
			return search.Result{}, errors.NotSupportedf("tuning model %q", name)
		}
		creators[model.Kind(name)] = creator
	}
	prepared, err := Prepare(ds, &cfg.Schema, false)
	if err != nil {
		return search.Result{}, errors.Trace(err)
	}
	train, _, err := dataset.StratifiedSplit(prepared.Y, cfg.Split.TrainFraction, cfg.GetSeed())
	if err != nil {
		return search.Result{}, errors.Trace(err)
	}
	if cfg.Tune.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Tune.Timeout)
		defer cancel()
	}
	seed := cfg.GetSeed()
	params := cfg.Forest.GetParams(seed).Overwrite(cfg.Boost.GetParams(seed))
	ms, err := search.NewModelSearch(ctx, creators, model.SelectRows(prepared.X, train), model.SelectLabels(prepared.Y, train),
		prepared.Features, cfg.Tune.ValidFraction, params, cfg.GetFitConfig())
	if err != nil {
		return search.Result{}, errors.Trace(err)
	}
	result, err := search.Optimize(ms, fmt.Sprintf("readmit-%d", seed), cfg.Tune.Trials, seed)
	if err != nil {
		// a timeout keeps the trials finished so far
		result = ms.Result()
		if ctx.Err() == nil || result.Trials == 0 {
			return search.Result{}, errors.Trace(err)
		}
		log.Logger().Warn("tuning stopped early", zap.Int("trials", result.Trials), zap.Error(err))
	}
	return result, nil
}
