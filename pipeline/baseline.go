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
	"math"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/config"
	"github.com/readmit-io/readmit/dataset"
	"github.com/readmit-io/readmit/lace"
	"github.com/readmit-io/readmit/model"
)

// hasLaceComponents reports whether the LACE index can be computed from ds.
func hasLaceComponents(ds *dataset.Dataset, schema *config.SchemaConfig) bool {
	c := schema.LaceComponents
	return c.Complete() &&
		ds.HasColumn(c.LengthOfStay) &&
		ds.HasColumn(c.Acuity) &&
		ds.HasColumn(c.Charlson) &&
		ds.HasColumn(c.EDVisits)
}

func parseCount(cell, column string, row int) (int, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, errors.Annotatef(err, "column %q row %d", column, row)
	}
	if v != math.Trunc(v) || v < 0 {
		return 0, errors.NotValidf("column %q row %d: count %v", column, row, v)
	}
	return int(v), nil
}

// ComputeLace computes the LACE index of every row from its component columns.
// Missing components are an error since the index has no missing level.
func ComputeLace(ds *dataset.Dataset, schema *config.SchemaConfig) ([]float64, error) {
	if !hasLaceComponents(ds, schema) {
		return nil, errors.Annotate(dataset.ErrSchemaMismatch, "LACE component columns not found")
	}
	c := schema.LaceComponents
	stays, err := ds.Float64s(c.LengthOfStay)
	if err != nil {
		return nil, errors.Trace(err)
	}
	acuities, _ := ds.Column(c.Acuity)
	charlsons, _ := ds.Column(c.Charlson)
	visits, _ := ds.Column(c.EDVisits)
	scores := make([]float64, ds.Count())
	for i := range scores {
		if math.IsNaN(stays[i]) || dataset.IsMissing(acuities[i]) ||
			dataset.IsMissing(charlsons[i]) || dataset.IsMissing(visits[i]) {
			return nil, errors.Annotatef(model.ErrMissingValue, "LACE component at row %d", i)
		}
		var components lace.Components
		components.LengthOfStay = stays[i]
		if components.Emergent, err = lace.ParseAcuity(acuities[i]); err != nil {
			return nil, errors.Annotatef(err, "row %d", i)
		}
		if components.Charlson, err = parseCount(charlsons[i], c.Charlson, i); err != nil {
			return nil, errors.Trace(err)
		}
		if components.EDVisits, err = parseCount(visits[i], c.EDVisits, i); err != nil {
			return nil, errors.Trace(err)
		}
		scores[i] = float64(lace.Score(components))
	}
	return scores, nil
}

// LaceScores returns the LACE column of ds, or the index computed from its
// components when the column is absent.
func LaceScores(ds *dataset.Dataset, schema *config.SchemaConfig) ([]float64, error) {
	if !ds.HasColumn(schema.LaceColumn) {
		scores, err := ComputeLace(ds, schema)
		if err != nil {
			return nil, errors.Annotatef(err, "column %q not found", schema.LaceColumn)
		}
		return scores, nil
	}
	scores, err := ds.Float64s(schema.LaceColumn)
	if err != nil {
		return nil, errors.Trace(err)
	}
	for i, score := range scores {
		if math.IsNaN(score) {
			return nil, errors.Annotatef(model.ErrMissingValue, "column %q row %d", schema.LaceColumn, i)
		}
	}
	return scores, nil
}

// WithLace adds the computed LACE column when ds has its components but not
// the column itself.
func WithLace(ds *dataset.Dataset, schema *config.SchemaConfig) (*dataset.Dataset, error) {
	if ds.HasColumn(schema.LaceColumn) || !hasLaceComponents(ds, schema) {
		return ds, nil
	}
	scores, err := ComputeLace(ds, schema)
	if err != nil {
		return nil, errors.Trace(err)
	}
	cells := make([]string, len(scores))
	for i, score := range scores {
		cells[i] = strconv.FormatFloat(score, 'f', -1, 64)
	}
	return ds.WithColumn(schema.LaceColumn, cells)
}

// Baseline evaluates the LACE index against the outcome.
func Baseline(ds *dataset.Dataset, schema *config.SchemaConfig) (model.Score, error) {
	labels, err := ds.Labels(schema.Outcome, schema.PositiveLabel)
	if err != nil {
		return model.Score{}, errors.Trace(err)
	}
	scores, err := LaceScores(ds, schema)
	if err != nil {
		return model.Score{}, errors.Trace(err)
	}
	curve, err := model.ROC(scores, labels)
	if err != nil {
		return model.Score{}, errors.Annotate(err, "baseline")
	}
	return model.Score{AUC: curve.Area(), Curve: curve}, nil
}
