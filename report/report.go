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

package report

import (
	"github.com/juju/errors"
	"github.com/readmit-io/readmit/model"
	"github.com/readmit-io/readmit/model/search"
)

// ModelScore is the test AUC of a fitted model.
type ModelScore struct {
	Kind     model.Kind
	AUC      float64
	Selected bool
}

// Reporter presents pipeline results. Implementations must not change them.
type Reporter interface {
	Baseline(score model.Score) error
	Scores(scores []ModelScore) error
	Importance(kind model.Kind, ranked []model.Importance) error
	Audit(with, without float64) error
	Tuning(result search.Result) error
}

// Multi fans results out to several reporters.
type Multi []Reporter

func (m Multi) Baseline(score model.Score) error {
	for _, r := range m {
		if err := r.Baseline(score); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (m Multi) Scores(scores []ModelScore) error {
	for _, r := range m {
		if err := r.Scores(scores); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (m Multi) Importance(kind model.Kind, ranked []model.Importance) error {
	for _, r := range m {
		if err := r.Importance(kind, ranked); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (m Multi) Audit(with, without float64) error {
	for _, r := range m {
		if err := r.Audit(with, without); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (m Multi) Tuning(result search.Result) error {
	for _, r := range m {
		if err := r.Tuning(result); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// SampleCurve picks at most n points of a curve, evenly spaced by index and
// always including both ends.
func SampleCurve(curve model.Curve, n int) model.Curve {
	size := len(curve.FPR)
	if n < 2 || size <= n {
		return curve
	}
	var sampled model.Curve
	for k := 0; k < n; k++ {
		i := k * (size - 1) / (n - 1)
		sampled.FPR = append(sampled.FPR, curve.FPR[i])
		sampled.TPR = append(sampled.TPR, curve.TPR[i])
		sampled.Thresholds = append(sampled.Thresholds, curve.Thresholds[i])
	}
	return sampled
}
