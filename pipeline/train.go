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
	"time"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base/log"
	"github.com/readmit-io/readmit/common/parallel"
	"github.com/readmit-io/readmit/config"
	"github.com/readmit-io/readmit/model"
	"github.com/readmit-io/readmit/model/boost"
	"github.com/readmit-io/readmit/model/forest"
	"github.com/readmit-io/readmit/model/linear"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// NewModel creates an untrained model of a kind with the configured
// hyper-parameters.
func NewModel(kind model.Kind, cfg *config.Config) (model.Model, error) {
	seed := cfg.GetSeed()
	switch kind {
	case model.Linear:
		return linear.NewRidge(cfg.Linear.GetParams(seed)), nil
	case model.Forest:
		return forest.NewRandomForest(cfg.Forest.GetParams(seed)), nil
	case model.Boost:
		return boost.NewGBDT(cfg.Boost.GetParams(seed)), nil
	default:
		return nil, errors.NotSupportedf("model %q", kind)
	}
}

// Train fits one model per kind on the same rows. Trainers run in parallel and
// only read x, so the fitted models do not depend on scheduling.
func Train(ctx context.Context, cfg *config.Config, kinds []model.Kind, x *mat.Dense, y []bool, features []string) ([]model.Model, error) {
	models := make([]model.Model, len(kinds))
	for i, kind := range kinds {
		m, err := NewModel(kind, cfg)
		if err != nil {
			return nil, errors.Trace(err)
		}
		models[i] = m
	}
	fitConfig := cfg.GetFitConfig()
	workers := int(math.Min(float64(cfg.Jobs), float64(len(models))))
	err := parallel.Parallel(ctx, len(models), workers, func(_, i int) error {
		start := time.Now()
		if err := models[i].Fit(ctx, x, y, features, fitConfig); err != nil {
			return errors.Annotatef(err, "fit %s", kinds[i])
		}
		log.Logger().Info("model fitted",
			zap.String("model", string(kinds[i])),
			zap.Duration("elapsed", time.Since(start)))
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return models, nil
}
