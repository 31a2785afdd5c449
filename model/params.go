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
	"encoding/json"
	"math"
	"reflect"
	"sort"

	"github.com/readmit-io/readmit/base/log"
	"go.uber.org/zap"
)

/* ParamName */

// ParamName is the type of hyper-parameter names.
type ParamName string

// Predefined hyper-parameter names
const (
	RandomState    ParamName = "RandomState"    // random state (seed)
	NFolds         ParamName = "NFolds"         // number of cross-validation folds
	NLambda        ParamName = "NLambda"        // length of the regularization path
	LambdaMinRatio ParamName = "LambdaMinRatio" // smallest lambda as a fraction of the largest
	NTrees         ParamName = "NTrees"         // number of trees in a forest
	MTry           ParamName = "MTry"           // candidate features per split
	MinNodeSize    ParamName = "MinNodeSize"    // minimum rows in a leaf
	NRounds        ParamName = "NRounds"        // number of boosting rounds
	LearningRate   ParamName = "LearningRate"   // shrinkage applied to each boosted tree
	MaxDepth       ParamName = "MaxDepth"       // maximum depth of a boosted tree
	Lambda         ParamName = "Lambda"         // L2 penalty on boosted leaf weights
	Gamma          ParamName = "Gamma"          // minimum gain to split
	MinChildWeight ParamName = "MinChildWeight" // minimum hessian sum in a child
)

// Params stores hyper-parameters for a model. It is a map between names
// and values. For example, hyper-parameters for the boosted trees are
// given by:
//
//	model.Params{
//		model.LearningRate: 0.3,
//		model.NRounds:      200,
//		model.MaxDepth:     6,
//	}
type Params map[ParamName]interface{}

// Copy hyper-parameters.
func (parameters Params) Copy() Params {
	newParams := make(Params)
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

// GetInt gets an integer parameter by name. Returns _default if not exists or type doesn't match.
// Integral float64 values are accepted since tuners and decoded configs produce them.
func (parameters Params) GetInt(name ParamName, _default int) int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		case int64:
			return int(val)
		case float64:
			if val == math.Trunc(val) {
				return int(val)
			}
			log.Logger().Error("invalid parameter type",
				zap.String("param", string(name)), zap.Float64("value", val))
		default:
			log.Logger().Error("invalid parameter type",
				zap.String("param", string(name)),
				zap.String("expected", "int"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetInt64 gets a int64 parameter by name. Returns _default if not exists or type doesn't match. The
// type will be converted if given int.
func (parameters Params) GetInt64(name ParamName, _default int64) int64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int64:
			return val
		case int:
			return int64(val)
		default:
			log.Logger().Error("invalid parameter type",
				zap.String("param", string(name)),
				zap.String("expected", "int64"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetFloat64 gets a float64 parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetFloat64(name ParamName, _default float64) float64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case float64:
			return val
		case float32:
			return float64(val)
		case int:
			return float64(val)
		default:
			log.Logger().Error("invalid parameter type",
				zap.String("param", string(name)),
				zap.String("expected", "float64"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// Overwrite returns a copy of parameters with params merged on top.
func (parameters Params) Overwrite(params Params) Params {
	merged := make(Params)
	for k, v := range parameters {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

func (parameters Params) ToString() string {
	b, err := json.Marshal(parameters)
	if err != nil {
		log.Logger().Error("failed to marshal params", zap.Error(err))
		return ""
	}
	return string(b)
}

// Names returns hyper-parameter names in lexical order.
func (parameters Params) Names() []ParamName {
	names := make([]ParamName, 0, len(parameters))
	for name := range parameters {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// ToMap converts hyper-parameters to a string keyed map.
func (parameters Params) ToMap() map[string]any {
	m := make(map[string]any, len(parameters))
	for name, value := range parameters {
		m[string(name)] = value
	}
	return m
}
