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
	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base/log"
	"github.com/readmit-io/readmit/config"
	"github.com/readmit-io/readmit/dataset"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Prepared is a labelled dataset encoded for training.
type Prepared struct {
	Encoder  *dataset.Encoder
	X        *mat.Dense
	Y        []bool
	Features []string
	Ids      []string
}

// ExcludedColumns lists the columns that never reach a model: the outcome, the
// identifier, the LACE baseline, configured drops and, unless kept, leakage
// columns.
func ExcludedColumns(schema *config.SchemaConfig, keepLeakage bool) []string {
	excluded := []string{schema.Outcome, schema.LaceColumn}
	if schema.IdColumn != "" {
		excluded = append(excluded, schema.IdColumn)
	}
	excluded = append(excluded, schema.DropColumns...)
	if !keepLeakage {
		excluded = append(excluded, schema.LeakageColumns...)
	}
	return excluded
}

// FeatureColumns returns the columns of ds used as model inputs, in file order.
func FeatureColumns(ds *dataset.Dataset, schema *config.SchemaConfig, keepLeakage bool) []string {
	return lo.Without(ds.Header(), ExcludedColumns(schema, keepLeakage)...)
}

// Ids returns the identifier column of ds, or nil when there is none.
func Ids(ds *dataset.Dataset, schema *config.SchemaConfig) []string {
	if schema.IdColumn == "" || !ds.HasColumn(schema.IdColumn) {
		return nil
	}
	ids, _ := ds.Column(schema.IdColumn)
	return ids
}

// Prepare fits the encoder on the feature columns of ds and encodes them.
func Prepare(ds *dataset.Dataset, schema *config.SchemaConfig, keepLeakage bool) (*Prepared, error) {
	labels, err := ds.Labels(schema.Outcome, schema.PositiveLabel)
	if err != nil {
		return nil, errors.Trace(err)
	}
	columns := FeatureColumns(ds, schema, keepLeakage)
	if len(columns) == 0 {
		return nil, errors.New("no feature columns")
	}
	encoder, err := dataset.FitEncoder(ds, columns)
	if err != nil {
		return nil, errors.Trace(err)
	}
	x, _, err := encoder.Transform(ds)
	if err != nil {
		return nil, errors.Trace(err)
	}
	features := encoder.Features()
	log.Logger().Debug("prepare features",
		zap.Int("rows", ds.Count()),
		zap.Int("columns", len(columns)),
		zap.Int("features", len(features)),
		zap.Bool("keep_leakage", keepLeakage))
	return &Prepared{
		Encoder:  encoder,
		X:        x,
		Y:        labels,
		Features: features,
		Ids:      Ids(ds, schema),
	}, nil
}
