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

package lace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLengthOfStayPoints(t *testing.T) {
	cases := map[float64]int{0: 0, 0.5: 0, 1: 1, 2: 2, 3: 3, 3.9: 3, 4: 4, 6: 4, 7: 5, 13: 5, 14: 7, 40: 7}
	for days, points := range cases {
		assert.Equal(t, points, LengthOfStayPoints(days), "days=%v", days)
	}
}

func TestCharlsonPoints(t *testing.T) {
	assert.Equal(t, 0, CharlsonPoints(0))
	assert.Equal(t, 1, CharlsonPoints(1))
	assert.Equal(t, 3, CharlsonPoints(3))
	assert.Equal(t, 5, CharlsonPoints(4))
	assert.Equal(t, 5, CharlsonPoints(12))
}

func TestEDVisitPoints(t *testing.T) {
	assert.Equal(t, 0, EDVisitPoints(0))
	assert.Equal(t, 3, EDVisitPoints(3))
	assert.Equal(t, 4, EDVisitPoints(4))
	assert.Equal(t, 4, EDVisitPoints(9))
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0, Score(Components{}))
	assert.Equal(t, MaxScore, Score(Components{LengthOfStay: 20, Emergent: true, Charlson: 6, EDVisits: 5}))
	assert.Equal(t, 2+3+1+0, Score(Components{LengthOfStay: 2, Emergent: true, Charlson: 1}))
}

func TestParseAcuity(t *testing.T) {
	for _, s := range []string{"Emergent", "emergency", "1", " E "} {
		emergent, err := ParseAcuity(s)
		assert.NoError(t, err)
		assert.True(t, emergent, s)
	}
	for _, s := range []string{"Elective", "0", "no"} {
		emergent, err := ParseAcuity(s)
		assert.NoError(t, err)
		assert.False(t, emergent, s)
	}
	_, err := ParseAcuity("sometimes")
	assert.Error(t, err)
}
