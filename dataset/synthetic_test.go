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
	"strconv"
	"testing"

	"github.com/readmit-io/readmit/lace"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestGenerateSynthetic(t *testing.T) {
	ds := GenerateSynthetic(DefaultSyntheticOptions())
	assert.Equal(t, 1000, ds.Count())
	assert.False(t, ds.HasColumn(SyntheticLeakage))

	labels, err := ds.Labels(SyntheticOutcome, SyntheticPositive)
	assert.NoError(t, err)
	positives := lo.Count(labels, true)
	assert.Greater(t, positives, 200)
	assert.Less(t, positives, 400)

	// the marker separates the classes and never repeats
	markers, err := ds.Float64s(SyntheticMarker)
	assert.NoError(t, err)
	for i, marker := range markers {
		assert.Equal(t, labels[i], marker >= 0.5)
	}
	assert.Len(t, lo.Uniq(markers), len(markers))

	ids, err := ds.Column(SyntheticId)
	assert.NoError(t, err)
	assert.Len(t, lo.Uniq(ids), len(ids))

	// the score column agrees with its components
	scores, _ := ds.Float64s(SyntheticLace)
	stays, _ := ds.Float64s("length_of_stay")
	acuity, _ := ds.Column("acuity")
	charlson, _ := ds.Float64s("charlson")
	visits, _ := ds.Float64s("ed_visits")
	for i := range scores {
		emergent, err := lace.ParseAcuity(acuity[i])
		assert.NoError(t, err)
		expected := lace.Score(lace.Components{
			LengthOfStay: stays[i],
			Emergent:     emergent,
			Charlson:     int(charlson[i]),
			EDVisits:     int(visits[i]),
		})
		assert.Equal(t, strconv.Itoa(expected), strconv.Itoa(int(scores[i])))
	}
}

func TestGenerateSynthetic_Leakage(t *testing.T) {
	opt := DefaultSyntheticOptions()
	opt.Leakage = true
	opt.Separable = false
	ds := GenerateSynthetic(opt)
	labels, err := ds.Labels(SyntheticOutcome, SyntheticPositive)
	assert.NoError(t, err)
	leaked, err := ds.Labels(SyntheticLeakage, "Yes")
	assert.NoError(t, err)
	agree := lo.CountBy(lo.Range(len(labels)), func(i int) bool { return labels[i] == leaked[i] })
	assert.Greater(t, agree, 950)

	// options do not change the shared columns
	plain := GenerateSynthetic(DefaultSyntheticOptions())
	for _, column := range []string{SyntheticId, "age", "admission_source", "length_of_stay", "charlson", SyntheticLace, SyntheticOutcome} {
		a, _ := ds.Column(column)
		b, _ := plain.Column(column)
		assert.Equal(t, a, b, column)
	}
}

func TestGenerateSynthetic_Deterministic(t *testing.T) {
	opt := DefaultSyntheticOptions()
	opt.Seed = 7
	a, _ := GenerateSynthetic(opt).Column(SyntheticMarker)
	b, _ := GenerateSynthetic(opt).Column(SyntheticMarker)
	assert.Equal(t, a, b)
}
