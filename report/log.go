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
	"github.com/readmit-io/readmit/base/log"
	"github.com/readmit-io/readmit/model"
	"github.com/readmit-io/readmit/model/search"
	"go.uber.org/zap"
)

// Log writes results as structured log entries.
type Log struct {
	logger      *zap.Logger
	topFeatures int
}

func NewLog(topFeatures int) *Log {
	return &Log{logger: log.Logger(), topFeatures: topFeatures}
}

// NewLogWith creates a reporter writing to a given logger.
func NewLogWith(logger *zap.Logger, topFeatures int) *Log {
	return &Log{logger: logger, topFeatures: topFeatures}
}

func (l *Log) Baseline(score model.Score) error {
	l.logger.Info("baseline evaluated",
		zap.Float64("auc", score.AUC),
		zap.Int("thresholds", len(score.Curve.Thresholds)))
	return nil
}

func (l *Log) Scores(scores []ModelScore) error {
	for _, score := range scores {
		l.logger.Info("model evaluated",
			zap.String("model", string(score.Kind)),
			zap.Float64("auc", score.AUC),
			zap.Bool("selected", score.Selected))
	}
	return nil
}

func (l *Log) Importance(kind model.Kind, ranked []model.Importance) error {
	if l.topFeatures > 0 && len(ranked) > l.topFeatures {
		ranked = ranked[:l.topFeatures]
	}
	fields := make([]zap.Field, 0, len(ranked)+1)
	fields = append(fields, zap.String("model", string(kind)))
	for _, importance := range ranked {
		fields = append(fields, zap.Float64(importance.Feature, importance.Score))
	}
	l.logger.Info("feature importance", fields...)
	return nil
}

func (l *Log) Audit(with, without float64) error {
	l.logger.Info("leakage audit",
		zap.Float64("auc_with_leakage", with),
		zap.Float64("auc_without_leakage", without),
		zap.Float64("difference", with-without))
	return nil
}

func (l *Log) Tuning(result search.Result) error {
	l.logger.Info("tuning complete",
		zap.String("model", string(result.Kind)),
		zap.Float64("auc", result.AUC),
		zap.Int("trials", result.Trials),
		zap.String("params", result.Params.ToString()))
	return nil
}
