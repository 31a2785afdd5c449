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

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base/log"
	"github.com/readmit-io/readmit/config"
	"github.com/readmit-io/readmit/dataset"
	"github.com/readmit-io/readmit/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Audit is the test AUC of the boosted model fitted with and without the
// leakage columns.
type Audit struct {
	Columns []string
	With    float64
	Without float64
}

// AuditLeakage fits the boosted model twice on the same split, once keeping
// the leakage columns and once removing them. On data whose leakage columns
// encode the outcome, removing them must lower the test AUC.
func AuditLeakage(ctx context.Context, cfg *config.Config, ds *dataset.Dataset) (*Audit, error) {
	schema := &cfg.Schema
	columns := lo.Filter(schema.LeakageColumns, func(column string, _ int) bool {
		return ds.HasColumn(column)
	})
	if len(columns) == 0 {
		return nil, errors.NotFoundf("leakage columns %v", schema.LeakageColumns)
	}
	labels, err := ds.Labels(schema.Outcome, schema.PositiveLabel)
	if err != nil {
		return nil, errors.Trace(err)
	}
	train, test, err := dataset.StratifiedSplit(labels, cfg.Split.TrainFraction, cfg.GetSeed())
	if err != nil {
		return nil, errors.Trace(err)
	}
	audit := &Audit{Columns: columns}
	for _, keep := range []bool{true, false} {
		prepared, err := Prepare(ds, schema, keep)
		if err != nil {
			return nil, errors.Trace(err)
		}
		models, err := Train(ctx, cfg, []model.Kind{model.Boost}, model.SelectRows(prepared.X, train),
			model.SelectLabels(prepared.Y, train), prepared.Features)
		if err != nil {
			return nil, errors.Trace(err)
		}
		predictions, err := model.PredictBatch(ctx, models[0], model.SelectRows(prepared.X, test), cfg.Jobs)
		if err != nil {
			return nil, errors.Trace(err)
		}
		auc, err := model.AUC(predictions, model.SelectLabels(prepared.Y, test))
		if err != nil {
			return nil, errors.Trace(err)
		}
		if keep {
			audit.With = auc
		} else {
			audit.Without = auc
		}
	}
	log.Logger().Info("leakage audit complete",
		zap.Strings("columns", columns),
		zap.Float64("auc_with_leakage", audit.With),
		zap.Float64("auc_without_leakage", audit.Without))
	return audit, nil
}
