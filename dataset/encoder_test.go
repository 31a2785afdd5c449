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

package dataset

import (
	"bytes"
	"math"
	"testing"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base/encoding"
	"github.com/stretchr/testify/assert"
)

func newEncounters(t *testing.T, records [][]string) *Dataset {
	ds, err := NewDataset([]string{"age", "acuity", "ed_visits"}, records)
	assert.NoError(t, err)
	return ds
}

func TestEncoder(t *testing.T) {
	train := newEncounters(t, [][]string{
		{"70", "Emergent", "1"},
		{"55", "Elective", "NA"},
		{"61", "Urgent", "3"},
	})
	encoder, err := FitEncoder(train, []string{"age", "acuity", "ed_visits"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"age", "acuity=Elective", "acuity=Emergent", "acuity=Urgent", "ed_visits"}, encoder.Features())
	assert.Equal(t, []string{"age", "acuity", "ed_visits"}, encoder.SourceColumns())

	x, unseen, err := encoder.Transform(train)
	assert.NoError(t, err)
	assert.Empty(t, unseen)
	rows, cols := x.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 5, cols)
	assert.Equal(t, []float64{70, 0, 1, 0, 1}, x.RawRowView(0))
	assert.True(t, math.IsNaN(x.At(1, 4)))
	assert.Equal(t, []float64{61, 0, 0, 1, 3}, x.RawRowView(2))
}

func TestEncoder_Unseen(t *testing.T) {
	train := newEncounters(t, [][]string{{"70", "Emergent", "1"}, {"55", "Elective", "2"}})
	encoder, err := FitEncoder(train, []string{"age", "acuity", "ed_visits"})
	assert.NoError(t, err)

	holdout := newEncounters(t, [][]string{{"40", "Newborn", "0"}, {"41", "", "0"}})
	x, unseen, err := encoder.Transform(holdout)
	assert.NoError(t, err)
	assert.Equal(t, map[string]int{"acuity": 1}, unseen)
	assert.Equal(t, []float64{40, 0, 0, 0}, x.RawRowView(0))
	assert.True(t, math.IsNaN(x.At(1, 1)))
	assert.True(t, math.IsNaN(x.At(1, 2)))
}

func TestEncoder_SchemaMismatch(t *testing.T) {
	train := newEncounters(t, [][]string{{"70", "Emergent", "1"}})
	encoder, err := FitEncoder(train, []string{"age", "acuity"})
	assert.NoError(t, err)
	_, _, err = encoder.Transform(train.Drop("acuity"))
	assert.True(t, errors.Is(err, ErrSchemaMismatch))

	_, err = FitEncoder(train, []string{"lace"})
	assert.True(t, errors.Is(err, ErrSchemaMismatch))

	empty := newEncounters(t, [][]string{{"NA", "Emergent", "1"}})
	_, err = FitEncoder(empty, []string{"age"})
	assert.Error(t, err)
}

func TestEncoder_Gob(t *testing.T) {
	train := newEncounters(t, [][]string{{"70", "Emergent", "1"}, {"55", "Elective", "2"}})
	encoder, err := FitEncoder(train, []string{"age", "acuity"})
	assert.NoError(t, err)
	buf := new(bytes.Buffer)
	assert.NoError(t, encoding.WriteGob(buf, encoder))
	var decoded Encoder
	assert.NoError(t, encoding.ReadGob(buf, &decoded))
	assert.Equal(t, encoder.Features(), decoded.Features())
}
