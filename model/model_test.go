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

package model

import (
	"bytes"
	"context"
	"io"
	"math"
	"testing"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base/encoding"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

const mockKind Kind = "mock"

// mockClassifier scores a row by its first feature.
type mockClassifier struct {
	features []string
	weight   float64
}

func (m *mockClassifier) Kind() Kind         { return mockKind }
func (m *mockClassifier) Features() []string { return m.features }
func (m *mockClassifier) Predict(x []float64) float64 {
	return 1 / (1 + math.Exp(-m.weight*x[0]))
}
func (m *mockClassifier) FeatureImportance() map[string]float64 {
	return map[string]float64{m.features[0]: m.weight}
}
func (m *mockClassifier) Marshal(w io.Writer) error {
	if err := encoding.WriteGob(w, m.features); err != nil {
		return err
	}
	return encoding.WriteVector(w, []float64{m.weight})
}
func (m *mockClassifier) Unmarshal(r io.Reader) error {
	if err := encoding.ReadGob(r, &m.features); err != nil {
		return err
	}
	weight, err := encoding.ReadVector(r)
	if err != nil {
		return err
	}
	m.weight = weight[0]
	return nil
}

func init() {
	Register(mockKind, func() Classifier { return new(mockClassifier) })
}

func TestMarshalModel(t *testing.T) {
	m := &mockClassifier{features: []string{"age", "lace"}, weight: 2}
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, MarshalModel(buf, m))
	copied, err := UnmarshalModel(buf)
	assert.NoError(t, err)
	assert.Equal(t, m, copied)

	buf = bytes.NewBuffer(nil)
	assert.NoError(t, encoding.WriteHeader(buf, encoding.Header{Magic: blobMagic, Version: blobVersion}))
	assert.NoError(t, encoding.WriteString(buf, "unknown"))
	_, err = UnmarshalModel(buf)
	assert.Error(t, err)

	buf = bytes.NewBuffer(nil)
	assert.NoError(t, encoding.WriteString(buf, string(mockKind)))
	_, err = UnmarshalModel(buf)
	assert.Error(t, err)
}

func TestRegisterTwice(t *testing.T) {
	assert.Panics(t, func() {
		Register(mockKind, func() Classifier { return new(mockClassifier) })
	})
}

func TestKind_Complexity(t *testing.T) {
	assert.Less(t, Linear.Complexity(), Forest.Complexity())
	assert.Less(t, Forest.Complexity(), Boost.Complexity())
	assert.Equal(t, len(Kinds), mockKind.Complexity())
}

func TestPredictBatch(t *testing.T) {
	m := &mockClassifier{features: []string{"x"}, weight: 1}
	x := mat.NewDense(5, 1, []float64{-2, -1, 0, 1, 2})
	for _, jobs := range []int{1, 2, 8} {
		predictions, err := PredictBatch(context.Background(), m, x, jobs)
		assert.NoError(t, err)
		assert.Len(t, predictions, 5)
		assert.Equal(t, 0.5, predictions[2])
		for i := 1; i < 5; i++ {
			assert.Greater(t, predictions[i], predictions[i-1])
		}
	}
	_, err := PredictBatch(context.Background(), m, mat.NewDense(2, 2, nil), 1)
	assert.True(t, errors.Is(err, ErrDimension))
}

func TestRankImportance(t *testing.T) {
	ranked := RankImportance(map[string]float64{"b": 1, "a": 1, "c": 3})
	assert.Equal(t, []Importance{{"c", 3}, {"a", 1}, {"b", 1}}, ranked)
}

func TestCheckInput(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	assert.NoError(t, CheckInput(x, []bool{true, false, true}, []string{"a", "b"}, true))
	assert.True(t, errors.Is(CheckInput(x, []bool{true, false}, []string{"a", "b"}, true), ErrDimension))
	assert.True(t, errors.Is(CheckInput(x, []bool{true, false, true}, []string{"a"}, true), ErrDimension))
	assert.True(t, errors.Is(CheckInput(x, []bool{true, true, true}, []string{"a", "b"}, true), ErrSingleClass))
	x.Set(1, 1, math.NaN())
	assert.True(t, errors.Is(CheckInput(x, []bool{true, false, true}, []string{"a", "b"}, true), ErrMissingValue))
	assert.NoError(t, CheckInput(x, []bool{true, false, true}, []string{"a", "b"}, false))
}

func TestKind_HandlesMissing(t *testing.T) {
	assert.False(t, Linear.HandlesMissing())
	assert.False(t, Forest.HandlesMissing())
	assert.True(t, Boost.HandlesMissing())
}

func TestSelectRows(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
	})
	y := []bool{true, false, true}
	selected := SelectRows(x, []int{2, 0})
	assert.Equal(t, []float64{5, 6, 1, 2}, selected.RawMatrix().Data)
	assert.Equal(t, []bool{true, true}, SelectLabels(y, []int{2, 0}))
	// copies do not alias the source
	selected.Set(0, 0, -1)
	assert.Equal(t, 5.0, x.At(2, 0))
}
