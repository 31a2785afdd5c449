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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_Copy(t *testing.T) {
	// Create parameters
	a := Params{
		NTrees:       1,
		LearningRate: 0.1,
		RandomState:  0,
	}
	// Create copy
	b := a.Copy()
	b[NTrees] = 2
	b[LearningRate] = 0.2
	b[RandomState] = 1
	// Check original parameters
	assert.Equal(t, 1, a.GetInt(NTrees, -1))
	assert.Equal(t, 0.1, a.GetFloat64(LearningRate, -0.1))
	assert.Equal(t, int64(0), a.GetInt64(RandomState, -1))
	// Check copy parameters
	assert.Equal(t, 2, b.GetInt(NTrees, -1))
	assert.Equal(t, 0.2, b.GetFloat64(LearningRate, -0.1))
	assert.Equal(t, int64(1), b.GetInt64(RandomState, -1))
}

func TestParams_GetFloat64(t *testing.T) {
	p := Params{}
	// Empty case
	assert.Equal(t, 0.1, p.GetFloat64(LearningRate, 0.1))
	// Normal case
	p[LearningRate] = 1.0
	assert.Equal(t, 1.0, p.GetFloat64(LearningRate, 0.1))
	// Wrong type case
	p[LearningRate] = 1
	assert.Equal(t, 1.0, p.GetFloat64(LearningRate, 0.1))
	p[LearningRate] = "hello"
	assert.Equal(t, 0.1, p.GetFloat64(LearningRate, 0.1))
}

func TestParams_GetInt(t *testing.T) {
	p := Params{}
	// Empty case
	assert.Equal(t, -1, p.GetInt(MTry, -1))
	// Normal case
	p[MTry] = 0
	assert.Equal(t, 0, p.GetInt(MTry, -1))
	// Integral float, as produced by tuners
	p[MTry] = 7.0
	assert.Equal(t, 7, p.GetInt(MTry, -1))
	p[MTry] = 7.5
	assert.Equal(t, -1, p.GetInt(MTry, -1))
	// Wrong type case
	p[MTry] = "hello"
	assert.Equal(t, -1, p.GetInt(MTry, -1))
}

func TestParams_GetInt64(t *testing.T) {
	p := Params{}
	// Empty case
	assert.Equal(t, int64(-1), p.GetInt64(RandomState, -1))
	// Normal case
	p[RandomState] = int64(0)
	assert.Equal(t, int64(0), p.GetInt64(RandomState, -1))
	// Wrong type case
	p[RandomState] = 0
	assert.Equal(t, int64(0), p.GetInt64(RandomState, -1))
	p[RandomState] = "hello"
	assert.Equal(t, int64(-1), p.GetInt64(RandomState, -1))
}

func TestParams_Overwrite(t *testing.T) {
	a := Params{NTrees: 500, MTry: 5}
	b := a.Overwrite(Params{MTry: 3})
	assert.Equal(t, 5, a.GetInt(MTry, 0))
	assert.Equal(t, 3, b.GetInt(MTry, 0))
	assert.Equal(t, 500, b.GetInt(NTrees, 0))
	assert.Equal(t, `{"MTry":3,"NTrees":500}`, b.ToString())
}

func TestParams_Names(t *testing.T) {
	p := Params{NTrees: 500, MTry: 5, LearningRate: 0.3}
	assert.Equal(t, []ParamName{LearningRate, MTry, NTrees}, p.Names())
	assert.Equal(t, map[string]any{"NTrees": 500, "MTry": 5, "LearningRate": 0.3}, p.ToMap())
	assert.Empty(t, Params{}.Names())
}
