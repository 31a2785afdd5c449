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
	"testing"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/config"
	"github.com/readmit-io/readmit/dataset"
	"github.com/readmit-io/readmit/model"
	"github.com/stretchr/testify/assert"
)

type fitted struct {
	schema   *config.SchemaConfig
	prepared *Prepared
	models   map[model.Kind]model.Model
}

func fitSmall(t *testing.T, opt dataset.SyntheticOptions) fitted {
	cfg := smallConfig(t)
	ds := dataset.GenerateSynthetic(opt)
	prepared, err := Prepare(ds, &cfg.Schema, false)
	assert.NoError(t, err)
	models, err := Train(context.Background(), cfg, model.Kinds, prepared.X, prepared.Y, prepared.Features)
	assert.NoError(t, err)
	f := fitted{schema: &cfg.Schema, prepared: prepared, models: make(map[model.Kind]model.Model)}
	for _, m := range models {
		f.models[m.Kind()] = m
	}
	return f
}

func TestPrepare(t *testing.T) {
	schema := &config.GetDefaultConfig().Schema
	opt := dataset.DefaultSyntheticOptions()
	opt.Leakage = true
	ds := dataset.GenerateSynthetic(opt)

	prepared, err := Prepare(ds, schema, false)
	assert.NoError(t, err)
	sources := prepared.Encoder.SourceColumns()
	for _, excluded := range []string{dataset.SyntheticOutcome, dataset.SyntheticId, dataset.SyntheticLace, dataset.SyntheticLeakage} {
		assert.NotContains(t, sources, excluded)
	}
	assert.Contains(t, sources, dataset.SyntheticMarker)
	assert.Contains(t, prepared.Features, "sex=F")
	rows, cols := prepared.X.Dims()
	assert.Equal(t, ds.Count(), rows)
	assert.Equal(t, len(prepared.Features), cols)
	assert.Len(t, prepared.Ids, ds.Count())

	prepared, err = Prepare(ds, schema, true)
	assert.NoError(t, err)
	assert.Contains(t, prepared.Encoder.SourceColumns(), dataset.SyntheticLeakage)

	// configured drops
	schema.DropColumns = []string{"age"}
	prepared, err = Prepare(ds, schema, false)
	assert.NoError(t, err)
	assert.NotContains(t, prepared.Encoder.SourceColumns(), "age")
}

func TestApply(t *testing.T) {
	opt := dataset.DefaultSyntheticOptions()
	f := fitSmall(t, opt)
	holdout := holdoutOf(opt)
	labels := holdoutLabels(opt)

	for kind, m := range f.models {
		predictions, err := Apply(context.Background(), m, f.prepared.Encoder, holdout, f.schema, 2)
		assert.NoError(t, err)
		assert.Len(t, predictions, holdout.Count())
		auc, err := model.AUC(predictions, labels)
		assert.NoError(t, err)
		assert.Greater(t, auc, 0.95, kind)
	}
}

func TestApply_StripsExcludedColumns(t *testing.T) {
	opt := dataset.DefaultSyntheticOptions()
	f := fitSmall(t, opt)
	m := f.models[model.Boost]
	withExtras := holdoutOf(opt)
	stripped := withExtras.Drop(dataset.SyntheticId, dataset.SyntheticLace)
	leaked, err := withExtras.WithColumn(dataset.SyntheticLeakage, make([]string, withExtras.Count()))
	assert.NoError(t, err)

	expected, err := Apply(context.Background(), m, f.prepared.Encoder, stripped, f.schema, 1)
	assert.NoError(t, err)
	actual, err := Apply(context.Background(), m, f.prepared.Encoder, leaked, f.schema, 1)
	assert.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestApply_SchemaMismatch(t *testing.T) {
	opt := dataset.DefaultSyntheticOptions()
	f := fitSmall(t, opt)
	holdout := holdoutOf(opt).Drop(dataset.SyntheticMarker)
	_, err := Apply(context.Background(), f.models[model.Linear], f.prepared.Encoder, holdout, f.schema, 1)
	assert.True(t, errors.Is(err, dataset.ErrSchemaMismatch))
}

func TestApply_MissingAndUnseen(t *testing.T) {
	opt := dataset.DefaultSyntheticOptions()
	f := fitSmall(t, opt)
	holdout := holdoutOf(opt)
	ages, _ := holdout.Column("age")
	ages = append([]string(nil), ages...)
	ages[3] = "NA"
	withMissing, err := holdout.WithColumn("age", ages)
	assert.NoError(t, err)

	_, err = Apply(context.Background(), f.models[model.Linear], f.prepared.Encoder, withMissing, f.schema, 1)
	assert.True(t, errors.Is(err, model.ErrMissingValue))
	_, err = Apply(context.Background(), f.models[model.Forest], f.prepared.Encoder, withMissing, f.schema, 1)
	assert.True(t, errors.Is(err, model.ErrMissingValue))
	predictions, err := Apply(context.Background(), f.models[model.Boost], f.prepared.Encoder, withMissing, f.schema, 1)
	assert.NoError(t, err)
	assert.Len(t, predictions, holdout.Count())

	sources, _ := holdout.Column("admission_source")
	sources = append([]string(nil), sources...)
	sources[0] = "Helicopter"
	withUnseen, err := holdout.WithColumn("admission_source", sources)
	assert.NoError(t, err)
	predictions, err = Apply(context.Background(), f.models[model.Linear], f.prepared.Encoder, withUnseen, f.schema, 1)
	assert.NoError(t, err)
	assert.Len(t, predictions, holdout.Count())
}

func TestApply_IgnoresLaceComponents(t *testing.T) {
	opt := dataset.DefaultSyntheticOptions()
	f := fitSmall(t, opt)
	holdout := holdoutOf(opt).Drop(dataset.SyntheticLace)
	charlson, _ := holdout.Column("charlson")
	charlson = append([]string(nil), charlson...)
	charlson[0] = "NA"
	holdout, err := holdout.WithColumn("charlson", charlson)
	assert.NoError(t, err)

	predictions, err := Apply(context.Background(), f.models[model.Boost], f.prepared.Encoder, holdout, f.schema, 1)
	assert.NoError(t, err)
	assert.Len(t, predictions, holdout.Count())
	auc, err := model.AUC(predictions, holdoutLabels(opt))
	assert.NoError(t, err)
	assert.Greater(t, auc, 0.95)
}
