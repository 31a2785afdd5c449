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

// Apply predicts every hold-out row with a fitted model. Columns removed before
// training are stripped so the hold-out features match the training features
// exactly. The LACE score is never a feature, so it is neither required nor
// recomputed here. A feature column absent from the hold-out set fails with
// ErrSchemaMismatch.
func Apply(ctx context.Context, m model.Classifier, encoder *dataset.Encoder, holdout *dataset.Dataset,
	schema *config.SchemaConfig, jobs int) ([]float64, error) {
	stripped := holdout.Drop(ExcludedColumns(schema, false)...)
	if missing := lo.Filter(encoder.SourceColumns(), func(column string, _ int) bool {
		return !stripped.HasColumn(column)
	}); len(missing) > 0 {
		return nil, errors.Annotatef(dataset.ErrSchemaMismatch, "hold-out set lacks columns %v", missing)
	}
	x, unseen, err := encoder.Transform(stripped)
	if err != nil {
		return nil, errors.Trace(err)
	}
	for column, count := range unseen {
		log.Logger().Warn("unseen category levels encoded as zeros",
			zap.String("column", column), zap.Int("rows", count))
	}
	if !m.Kind().HandlesMissing() {
		if i, j, ok := model.FindMissing(x); ok {
			return nil, errors.Annotatef(model.ErrMissingValue, "hold-out row %d feature %q", i, encoder.Features()[j])
		}
	}
	predictions, err := model.PredictBatch(ctx, m, x, jobs)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return predictions, nil
}
