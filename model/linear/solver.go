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
	"math"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	maxNewtonIter = 100
	maxBacktrack  = 30
	newtonTol     = 1e-12
	probEpsilon   = 1e-10
)

// standardizer centres and scales columns with the population standard
// deviation. Constant columns have a zero scale and are left inactive.
type standardizer struct {
	means  []float64
	scales []float64
	active []int
}

func newStandardizer(x *mat.Dense, rows []int) standardizer {
	_, cols := x.Dims()
	s := standardizer{means: make([]float64, cols), scales: make([]float64, cols)}
	column := make([]float64, len(rows))
	for j := 0; j < cols; j++ {
		for k, i := range rows {
			column[k] = x.At(i, j)
		}
		s.means[j], s.scales[j] = stat.PopMeanStdDev(column, nil)
		if s.scales[j] > 1e-10*math.Max(1, math.Abs(s.means[j])) {
			s.active = append(s.active, j)
		} else {
			s.scales[j] = 0
		}
	}
	return s
}

// transform returns the standardized active columns of the given rows.
func (s standardizer) transform(x *mat.Dense, rows []int) *mat.Dense {
	z := mat.NewDense(len(rows), len(s.active), nil)
	for k, i := range rows {
		row := x.RawRowView(i)
		out := z.RawRowView(k)
		for a, j := range s.active {
			out[a] = (row[j] - s.means[j]) / s.scales[j]
		}
	}
	return z
}

// solution holds an intercept and standardized coefficients of active columns.
type solution struct {
	b0   float64
	beta []float64
}

func (s solution) clone() solution {
	return solution{b0: s.b0, beta: append([]float64(nil), s.beta...)}
}

// problem is a ridge-penalised logistic regression over standardized columns:
//
//	minimize -(1/n) loglik(b0, beta) + (lambda/2) ||beta||^2
//
// The intercept is not penalised.
type problem struct {
	z *mat.Dense
	y []float64
}

func newProblem(z *mat.Dense, labels []bool, rows []int) *problem {
	y := make([]float64, len(rows))
	for k, i := range rows {
		if labels[i] {
			y[k] = 1
		}
	}
	return &problem{z: z, y: y}
}

func (p *problem) linear(s solution, eta []float64) {
	for i := range eta {
		eta[i] = s.b0 + floats.Dot(p.z.RawRowView(i), s.beta)
	}
}

func (p *problem) objective(s solution, lambda float64, eta []float64) float64 {
	var loss float64
	for i, e := range eta {
		loss += softplus(e) - p.y[i]*e
	}
	loss /= float64(len(eta))
	return loss + lambda/2*floats.Dot(s.beta, s.beta)
}

// lambdaMax is the smallest penalty at which a lasso would zero every
// coefficient, divided by 0.001 as the ridge path starts much higher.
func (p *problem) lambdaMax() float64 {
	n, q := p.z.Dims()
	ybar := stat.Mean(p.y, nil)
	var largest float64
	for j := 0; j < q; j++ {
		var dot float64
		for i := 0; i < n; i++ {
			dot += p.z.At(i, j) * (p.y[i] - ybar)
		}
		largest = math.Max(largest, math.Abs(dot))
	}
	return largest / (float64(n) * 0.001)
}

// null is the intercept-only solution.
func (p *problem) null() solution {
	_, q := p.z.Dims()
	ybar := stat.Mean(p.y, nil)
	ybar = math.Min(math.Max(ybar, probEpsilon), 1-probEpsilon)
	return solution{b0: math.Log(ybar / (1 - ybar)), beta: make([]float64, q)}
}

// solve minimises the objective with damped Newton steps starting from init.
func (p *problem) solve(lambda float64, init solution) (solution, error) {
	n, q := p.z.Dims()
	sol := init.clone()
	eta := make([]float64, n)
	p.linear(sol, eta)
	f := p.objective(sol, lambda, eta)

	grad := mat.NewVecDense(q+1, nil)
	step := mat.NewVecDense(q+1, nil)
	scaled := mat.NewDense(n, q+1, nil)
	for iter := 0; iter < maxNewtonIter; iter++ {
		grad.Zero()
		g := grad.RawVector().Data
		for i := 0; i < n; i++ {
			mu := sigmoid(eta[i])
			r := mu - p.y[i]
			w := math.Sqrt(mu * (1 - mu))
			row := p.z.RawRowView(i)
			out := scaled.RawRowView(i)
			g[0] += r
			out[0] = w
			for j, v := range row {
				g[j+1] += r * v
				out[j+1] = w * v
			}
		}
		floats.Scale(1/float64(n), g)
		for j := 0; j < q; j++ {
			g[j+1] += lambda * sol.beta[j]
		}

		var hessian mat.SymDense
		hessian.SymOuterK(1/float64(n), scaled.T())
		for j := 1; j <= q; j++ {
			hessian.SetSym(j, j, hessian.At(j, j)+lambda)
		}
		hessian.SetSym(0, 0, hessian.At(0, 0)+probEpsilon)
		var chol mat.Cholesky
		if ok := chol.Factorize(&hessian); !ok {
			return sol, errors.Errorf("hessian is not positive definite at lambda %v", lambda)
		}
		if err := chol.SolveVecTo(step, grad); err != nil {
			return sol, errors.Trace(err)
		}

		// backtracking line search along -step
		slope := -mat.Dot(grad, step)
		t := 1.0
		next := sol.clone()
		var fNext float64
		accepted := false
		for k := 0; k < maxBacktrack; k++ {
			next.b0 = sol.b0 - t*step.AtVec(0)
			for j := 0; j < q; j++ {
				next.beta[j] = sol.beta[j] - t*step.AtVec(j+1)
			}
			p.linear(next, eta)
			fNext = p.objective(next, lambda, eta)
			if fNext <= f+1e-4*t*slope {
				accepted = true
				break
			}
			t /= 2
		}
		if !accepted {
			// no descent left at machine precision
			break
		}
		decrease := f - fNext
		sol, f = next, fNext
		if decrease <= newtonTol*(math.Abs(f)+newtonTol) {
			break
		}
	}
	return sol, nil
}

// path fits the problem at every lambda in decreasing order, warm starting
// each fit from the previous solution.
func (p *problem) path(lambdas []float64) ([]solution, error) {
	solutions := make([]solution, len(lambdas))
	current := p.null()
	for k, lambda := range lambdas {
		var err error
		if current, err = p.solve(lambda, current); err != nil {
			return nil, errors.Trace(err)
		}
		solutions[k] = current
	}
	return solutions, nil
}

// lambdaSequence returns n log-spaced penalties from max down to max*ratio.
func lambdaSequence(max, ratio float64, n int) []float64 {
	if n == 1 {
		return []float64{max}
	}
	lambdas := make([]float64, n)
	floats.LogSpan(lambdas, max, max*ratio)
	return lambdas
}

func sigmoid(x float64) float64 {
	p := 1 / (1 + math.Exp(-x))
	return math.Min(math.Max(p, probEpsilon), 1-probEpsilon)
}

func softplus(x float64) float64 {
	return math.Max(x, 0) + math.Log1p(math.Exp(-math.Abs(x)))
}
