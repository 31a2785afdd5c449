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

package linear

import (
	"context"
	"io"
	"math"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base/encoding"
	"github.com/readmit-io/readmit/base/log"
	"github.com/readmit-io/readmit/base/progress"
	"github.com/readmit-io/readmit/common/parallel"
	"github.com/readmit-io/readmit/dataset"
	"github.com/readmit-io/readmit/model"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func init() {
	model.Register(model.Linear, func() model.Classifier { return new(Ridge) })
}

// CVResult is the cross-validation table of the regularization path.
type CVResult struct {
	Lambdas    []float64 // decreasing
	CVM        []float64 // mean deviance
	CVSD       []float64 // standard error of CVM
	IndexMin   int       // lambda with the smallest CVM
	IndexOneSE int       // largest lambda within one standard error of the minimum
}

func (r *CVResult) LambdaMin() float64 {
	return r.Lambdas[r.IndexMin]
}

func (r *CVResult) LambdaOneSE() float64 {
	return r.Lambdas[r.IndexOneSE]
}

// selectLambda returns the index of the minimum CVM and the smallest index
// whose CVM is within one standard error of it. Lambdas decrease with the
// index, so the second is the most regularized acceptable penalty.
func selectLambda(cvm, cvsd []float64) (indexMin, indexOneSE int) {
	indexMin = floats.MinIdx(cvm)
	threshold := cvm[indexMin] + cvsd[indexMin]
	for i, v := range cvm {
		if v <= threshold {
			return indexMin, i
		}
	}
	return indexMin, indexMin
}

// Ridge is an L2-penalised logistic regression. The penalty is chosen by
// stratified k-fold cross-validation on binomial deviance with the one
// standard error rule.
type Ridge struct {
	model.BaseModel
	// hyper parameters
	nFolds         int
	nLambda        int
	lambdaMinRatio float64
	// fitted
	features     []string
	Intercept    float64
	Coefficients []float64 // original feature scale
	Standardized []float64 // coefficients of standardized features
	CV           *CVResult
}

func NewRidge(params model.Params) *Ridge {
	ridge := new(Ridge)
	ridge.SetParams(params)
	return ridge
}

func (ridge *Ridge) SetParams(params model.Params) {
	ridge.BaseModel.SetParams(params)
	ridge.nFolds = ridge.Params.GetInt(model.NFolds, 10)
	ridge.nLambda = ridge.Params.GetInt(model.NLambda, 100)
	ridge.lambdaMinRatio = ridge.Params.GetFloat64(model.LambdaMinRatio, 0)
}

func (ridge *Ridge) Kind() model.Kind {
	return model.Linear
}

func (ridge *Ridge) Features() []string {
	return ridge.features
}

func (ridge *Ridge) Predict(x []float64) float64 {
	eta := ridge.Intercept + floats.Dot(ridge.Coefficients, x)
	return 1 / (1 + math.Exp(-eta))
}

// FeatureImportance is the magnitude of the standardized coefficients.
func (ridge *Ridge) FeatureImportance() map[string]float64 {
	importance := make(map[string]float64, len(ridge.features))
	for j, name := range ridge.features {
		importance[name] = math.Abs(ridge.Standardized[j])
	}
	return importance
}

// fit runs the path on a subset of rows using lambdas, or a sequence derived
// from those rows when lambdas is nil.
type fit struct {
	scaler    standardizer
	lambdas   []float64
	solutions []solution
}

func fitPath(x *mat.Dense, y []bool, rows []int, lambdas []float64, nLambda int, ratio float64) (*fit, error) {
	scaler := newStandardizer(x, rows)
	if len(scaler.active) == 0 {
		return nil, errors.New("every feature is constant")
	}
	p := newProblem(scaler.transform(x, rows), y, rows)
	if lambdas == nil {
		_, cols := x.Dims()
		if ratio <= 0 {
			if len(rows) > cols {
				ratio = 1e-4
			} else {
				ratio = 1e-2
			}
		}
		max := p.lambdaMax()
		if max <= 0 {
			max = 1
		}
		lambdas = lambdaSequence(max, ratio, nLambda)
	}
	solutions, err := p.path(lambdas)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &fit{scaler: scaler, lambdas: lambdas, solutions: solutions}, nil
}

// original maps the k-th solution back to the original feature scale.
func (f *fit) original(k, cols int) (intercept float64, coefficients, standardized []float64) {
	sol := f.solutions[k]
	coefficients = make([]float64, cols)
	standardized = make([]float64, cols)
	intercept = sol.b0
	for a, j := range f.scaler.active {
		standardized[j] = sol.beta[a]
		coefficients[j] = sol.beta[a] / f.scaler.scales[j]
		intercept -= coefficients[j] * f.scaler.means[j]
	}
	return
}

// deviance is the mean binomial deviance of the k-th solution on rows.
func (f *fit) deviance(k int, x *mat.Dense, y []bool, rows []int) float64 {
	_, cols := x.Dims()
	intercept, coefficients, _ := f.original(k, cols)
	var total float64
	for _, i := range rows {
		p := 1 / (1 + math.Exp(-(intercept + floats.Dot(coefficients, x.RawRowView(i)))))
		p = math.Min(math.Max(p, 1e-5), 1-1e-5)
		if y[i] {
			total -= 2 * math.Log(p)
		} else {
			total -= 2 * math.Log(1-p)
		}
	}
	return total / float64(len(rows))
}

func (ridge *Ridge) Fit(ctx context.Context, x *mat.Dense, y []bool, features []string, config *model.FitConfig) error {
	config = config.LoadDefaultIfNil()
	if err := model.CheckInput(x, y, features, true); err != nil {
		return errors.Trace(err)
	}
	rows, cols := x.Dims()
	log.Logger().Info("fit ridge logistic regression",
		zap.Int("n_rows", rows),
		zap.Int("n_features", cols),
		zap.Any("params", ridge.GetParams()))
	_, span := progress.Start(ctx, "linear", ridge.nFolds+1)

	// full path defines the lambda sequence shared by the folds
	all := make([]int, rows)
	for i := range all {
		all[i] = i
	}
	full, err := fitPath(x, y, all, nil, ridge.nLambda, ridge.lambdaMinRatio)
	if err != nil {
		span.Fail(err)
		return errors.Trace(err)
	}
	span.Add(1)

	folds, err := dataset.StratifiedKFold(y, ridge.nFolds, ridge.GetRandomState())
	if err != nil {
		span.Fail(err)
		return errors.Trace(err)
	}
	deviances := make([][]float64, len(folds))
	err = parallel.Parallel(ctx, len(folds), config.Jobs, func(_, k int) error {
		train := dataset.Complement(rows, folds[k])
		foldFit, err := fitPath(x, y, train, full.lambdas, ridge.nLambda, 0)
		if err != nil {
			return errors.Annotatef(err, "fold %d", k)
		}
		deviances[k] = make([]float64, len(full.lambdas))
		for l := range full.lambdas {
			deviances[k][l] = foldFit.deviance(l, x, y, folds[k])
		}
		span.Add(1)
		return nil
	})
	if err != nil {
		span.Fail(err)
		return errors.Trace(err)
	}
	ridge.CV = crossValidate(full.lambdas, deviances, folds)

	ridge.features = features
	ridge.Intercept, ridge.Coefficients, ridge.Standardized = full.original(ridge.CV.IndexOneSE, cols)
	span.End()
	log.Logger().Info("fit ridge logistic regression complete",
		zap.Float64("lambda_min", ridge.CV.LambdaMin()),
		zap.Float64("lambda_1se", ridge.CV.LambdaOneSE()),
		zap.Float64("cvm_1se", ridge.CV.CVM[ridge.CV.IndexOneSE]))
	return nil
}

// crossValidate summarises per-fold deviances. CVM weights folds by size and
// CVSD is the standard error of the weighted mean across folds.
func crossValidate(lambdas []float64, deviances [][]float64, folds [][]int) *CVResult {
	result := &CVResult{
		Lambdas: lambdas,
		CVM:     make([]float64, len(lambdas)),
		CVSD:    make([]float64, len(lambdas)),
	}
	var total float64
	for _, fold := range folds {
		total += float64(len(fold))
	}
	for l := range lambdas {
		var mean float64
		for k, fold := range folds {
			mean += deviances[k][l] * float64(len(fold))
		}
		mean /= total
		var variance float64
		for k, fold := range folds {
			d := deviances[k][l] - mean
			variance += d * d * float64(len(fold))
		}
		variance /= total
		result.CVM[l] = mean
		result.CVSD[l] = math.Sqrt(variance / float64(len(folds)-1))
	}
	result.IndexMin, result.IndexOneSE = selectLambda(result.CVM, result.CVSD)
	return result
}

func (ridge *Ridge) Marshal(w io.Writer) error {
	if err := encoding.WriteGob(w, ridge.Params); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, ridge.features); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteVector(w, []float64{ridge.Intercept}); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteVector(w, ridge.Coefficients); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteVector(w, ridge.Standardized); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoding.WriteGob(w, ridge.CV))
}

func (ridge *Ridge) Unmarshal(r io.Reader) error {
	var params model.Params
	if err := encoding.ReadGob(r, &params); err != nil {
		return errors.Trace(err)
	}
	ridge.SetParams(params)
	if err := encoding.ReadGob(r, &ridge.features); err != nil {
		return errors.Trace(err)
	}
	intercept, err := encoding.ReadVector(r)
	if err != nil {
		return errors.Trace(err)
	}
	if len(intercept) != 1 {
		return errors.Errorf("expected one intercept, got %d", len(intercept))
	}
	ridge.Intercept = intercept[0]
	if ridge.Coefficients, err = encoding.ReadVector(r); err != nil {
		return errors.Trace(err)
	}
	if ridge.Standardized, err = encoding.ReadVector(r); err != nil {
		return errors.Trace(err)
	}
	if len(ridge.Coefficients) != len(ridge.features) || len(ridge.Standardized) != len(ridge.features) {
		return errors.Annotatef(model.ErrDimension, "%d features but %d coefficients", len(ridge.features), len(ridge.Coefficients))
	}
	ridge.CV = new(CVResult)
	return errors.Trace(encoding.ReadGob(r, ridge.CV))
}
