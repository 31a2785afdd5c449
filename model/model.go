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
	"context"
	"io"
	"math"
	"sort"
	"sync"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base"
	"github.com/readmit-io/readmit/base/encoding"
	"github.com/readmit-io/readmit/common/parallel"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrMissingValue is returned when a trainer requiring complete rows meets a missing value.
	ErrMissingValue = errors.New("missing value in feature matrix")
	// ErrSingleClass is returned when a metric is undefined because only one class is present.
	ErrSingleClass = errors.New("only one class present")
	// ErrDimension is returned when rows or columns do not line up.
	ErrDimension = errors.New("dimension mismatch")
)

// Kind tags the variant of a fitted model.
type Kind string

const (
	Linear Kind = "linear"
	Forest Kind = "forest"
	Boost  Kind = "boost"
)

// Kinds lists model kinds from the simplest to the most complex.
var Kinds = []Kind{Linear, Forest, Boost}

// Complexity ranks a kind by simplicity, lower is simpler. Unknown kinds rank last.
func (k Kind) Complexity() int {
	for i, kind := range Kinds {
		if kind == k {
			return i
		}
	}
	return len(Kinds)
}

// HandlesMissing reports whether models of the kind accept NaN features.
func (k Kind) HandlesMissing() bool {
	return k == Boost
}

// Classifier is the interface for all fitted readmission models. Any model in the
// model sub-packages should implement it.
type Classifier interface {
	// Kind returns the model variant.
	Kind() Kind
	// Features returns the ordered names of the encoded columns the model was fitted on.
	Features() []string
	// Predict returns the probability of the positive class for one encoded row.
	Predict(x []float64) float64
	// FeatureImportance maps feature names to importance scores.
	FeatureImportance() map[string]float64
	// Marshal writes model weights.
	Marshal(w io.Writer) error
	// Unmarshal reads model weights.
	Unmarshal(r io.Reader) error
}

// Model is a Classifier that can be trained. Fit must not be called twice on
// the same instance.
type Model interface {
	Classifier
	SetParams(params Params)
	GetParams() Params
	// Fit trains the model on the encoded matrix x with labels y. features names
	// the columns of x.
	Fit(ctx context.Context, x *mat.Dense, y []bool, features []string, config *FitConfig) error
}

type FitConfig struct {
	Jobs    int
	Verbose int
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 10,
	}
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

func (config *FitConfig) LoadDefaultIfNil() *FitConfig {
	if config == nil {
		return NewFitConfig()
	}
	return config
}

// BaseModel must be included by every model. Hyper-parameters and the random
// generator are managed by the BaseModel.
type BaseModel struct {
	Params    Params               // Hyper-parameters
	rng       base.RandomGenerator // Random generator
	randState int64                // Random seed
}

// SetParams sets hyper-parameters for the BaseModel model.
func (model *BaseModel) SetParams(params Params) {
	if params == nil {
		params = Params{}
	}
	model.Params = params
	model.randState = model.Params.GetInt64(RandomState, 0)
	model.rng = base.NewRandomGenerator(model.randState)
}

// GetParams returns all hyper-parameters.
func (model *BaseModel) GetParams() Params {
	return model.Params
}

func (model *BaseModel) GetRandomGenerator() base.RandomGenerator {
	return model.rng
}

func (model *BaseModel) GetRandomState() int64 {
	return model.randState
}

// CheckInput validates a training matrix against its labels and feature names.
// NaN cells are rejected when complete is set.
func CheckInput(x *mat.Dense, y []bool, features []string, complete bool) error {
	rows, cols := x.Dims()
	if rows != len(y) {
		return errors.Annotatef(ErrDimension, "%d rows but %d labels", rows, len(y))
	}
	if cols != len(features) {
		return errors.Annotatef(ErrDimension, "%d columns but %d feature names", cols, len(features))
	}
	if complete {
		if i, j, ok := FindMissing(x); ok {
			return errors.Annotatef(ErrMissingValue, "row %d feature %q", i, features[j])
		}
	}
	var pos int
	for _, label := range y {
		if label {
			pos++
		}
	}
	if pos == 0 || pos == len(y) {
		return errors.Trace(ErrSingleClass)
	}
	return nil
}

// FindMissing returns the first NaN cell of x.
func FindMissing(x *mat.Dense) (int, int, bool) {
	rows, _ := x.Dims()
	for i := 0; i < rows; i++ {
		for j, v := range x.RawRowView(i) {
			if math.IsNaN(v) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// PredictBatch predicts every row of x with m, splitting rows among jobs workers.
func PredictBatch(ctx context.Context, m Classifier, x *mat.Dense, jobs int) ([]float64, error) {
	rows, cols := x.Dims()
	if cols != len(m.Features()) {
		return nil, errors.Annotatef(ErrDimension, "model expects %d features but got %d", len(m.Features()), cols)
	}
	predictions := make([]float64, rows)
	if rows == 0 {
		return predictions, nil
	}
	if jobs < 1 {
		jobs = 1
	}
	chunks := parallel.Split(make([]struct{}, rows), jobs)
	offsets := make([]int, len(chunks))
	for i := 1; i < len(chunks); i++ {
		offsets[i] = offsets[i-1] + len(chunks[i-1])
	}
	err := parallel.Parallel(ctx, len(chunks), jobs, func(_, jobId int) error {
		for i := offsets[jobId]; i < offsets[jobId]+len(chunks[jobId]); i++ {
			predictions[i] = m.Predict(x.RawRowView(i))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return predictions, nil
}

// Importance is a named importance score.
type Importance struct {
	Feature string
	Score   float64
}

// RankImportance sorts the importance map from the most to the least important
// feature. Ties are ordered by name so the ranking is stable.
func RankImportance(importance map[string]float64) []Importance {
	ranked := make([]Importance, 0, len(importance))
	for name, score := range importance {
		ranked = append(ranked, Importance{Feature: name, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Feature < ranked[j].Feature
	})
	return ranked
}

var (
	registryMutex sync.RWMutex
	registry      = make(map[Kind]func() Classifier)
)

// Register makes a model kind available to UnmarshalModel. Model packages
// register themselves in init.
func Register(kind Kind, creator func() Classifier) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	if _, exist := registry[kind]; exist {
		panic("model: register called twice for " + string(kind))
	}
	registry[kind] = creator
}

const (
	blobMagic   = "readmit-model"
	blobVersion = 1
)

// MarshalModel writes the blob header and model kind followed by the model weights.
func MarshalModel(w io.Writer, m Classifier) error {
	if err := encoding.WriteHeader(w, encoding.Header{Magic: blobMagic, Version: blobVersion}); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteString(w, string(m.Kind())); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(m.Marshal(w))
}

// UnmarshalModel reads a model written by MarshalModel.
func UnmarshalModel(r io.Reader) (Classifier, error) {
	if _, err := encoding.ReadHeader(r, blobMagic, blobVersion); err != nil {
		return nil, errors.Trace(err)
	}
	header, err := encoding.ReadString(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	registryMutex.RLock()
	creator, exist := registry[Kind(header)]
	registryMutex.RUnlock()
	if !exist {
		return nil, errors.Errorf("unknown model: %v", header)
	}
	m := creator()
	if err = m.Unmarshal(r); err != nil {
		return nil, errors.Trace(err)
	}
	return m, nil
}

// SelectRows copies the given rows of x into a new matrix.
func SelectRows(x *mat.Dense, rows []int) *mat.Dense {
	_, cols := x.Dims()
	selected := mat.NewDense(len(rows), cols, nil)
	for k, i := range rows {
		selected.SetRow(k, x.RawRowView(i))
	}
	return selected
}

// SelectLabels returns the labels of the given rows.
func SelectLabels(y []bool, rows []int) []bool {
	selected := make([]bool, len(rows))
	for k, i := range rows {
		selected[k] = y[i]
	}
	return selected
}
