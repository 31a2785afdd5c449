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

package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base/encoding"
	"github.com/readmit-io/readmit/base/log"
	"github.com/readmit-io/readmit/base/progress"
	"github.com/readmit-io/readmit/config"
	"github.com/readmit-io/readmit/dataset"
	"github.com/readmit-io/readmit/model"
	"github.com/readmit-io/readmit/model/search"
	"github.com/readmit-io/readmit/report"
	"github.com/readmit-io/readmit/storage/blob"
	"github.com/readmit-io/readmit/storage/meta"
	"github.com/readmit-io/readmit/storage/predictions"
	"go.uber.org/zap"
)

const (
	ModelFile   = "model.bin"
	EncoderFile = "encoder.bin"
	// TuneResultKey is the registry key of the latest tuning result.
	TuneResultKey = "tune/best"
)

// Pipeline runs the stages of a readmission analysis and records every run in
// the registry.
type Pipeline struct {
	Config   *config.Config
	Store    blob.Store
	Registry meta.Database
	Reporter report.Reporter
	RunId    string
}

// NewPipeline creates a pipeline with a fresh run id. registry and reporter
// may be nil.
func NewPipeline(cfg *config.Config, store blob.Store, registry meta.Database, reporter report.Reporter) *Pipeline {
	if reporter == nil {
		reporter = report.Multi{}
	}
	return &Pipeline{
		Config:   cfg,
		Store:    store,
		Registry: registry,
		Reporter: reporter,
		RunId:    uuid.NewString(),
	}
}

// Result is the outcome of a full run.
type Result struct {
	Baseline    model.Score
	Evaluation  *Evaluation
	Models      []model.Model
	Encoder     *dataset.Encoder
	Predictions []float64
}

// Selected returns the model chosen by the evaluation.
func (r *Result) Selected() model.Model {
	return r.Models[r.Evaluation.Selected]
}

func (p *Pipeline) logger(stage string) *zap.Logger {
	return log.StageLogger(p.RunId, stage)
}

// track records a command in the registry and marks it failed when fn fails.
func (p *Pipeline) track(command string, fn func() error) error {
	start := time.Now()
	if p.Registry != nil {
		if err := p.Registry.StartRun(&meta.Run{
			UUID:      p.RunId,
			Command:   command,
			Seed:      p.Config.GetSeed(),
			Status:    meta.RunRunning,
			StartTime: start,
		}); err != nil {
			return errors.Annotate(err, "record run")
		}
	}
	err := fn()
	status, message := meta.RunSucceeded, ""
	if err != nil {
		status, message = meta.RunFailed, err.Error()
		p.logger(command).Error("run failed", zap.Error(err))
	} else {
		p.logger(command).Info("run complete", zap.Duration("elapsed", time.Since(start)))
	}
	if p.Registry != nil {
		if finishErr := p.Registry.FinishRun(p.RunId, status, message, time.Now()); finishErr != nil {
			if err == nil {
				return errors.Annotate(finishErr, "record run")
			}
			p.logger(command).Error("failed to record run", zap.Error(finishErr))
		}
	}
	return err
}

func (p *Pipeline) loadTrain() (*dataset.Dataset, error) {
	ds, err := dataset.LoadCSV(p.Config.Data.TrainPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	p.logger("load").Info("training data loaded",
		zap.String("path", p.Config.Data.TrainPath),
		zap.Int("rows", ds.Count()),
		zap.Int("columns", len(ds.Header())))
	return WithLace(ds, &p.Config.Schema)
}

// Run executes every stage: baseline, split, training, evaluation and, when a
// hold-out set is configured, prediction of the hold-out rows.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	var result *Result
	err := p.track("run", func() error {
		ds, err := p.loadTrain()
		if err != nil {
			return errors.Trace(err)
		}
		result, err = p.run(ctx, ds)
		return err
	})
	return result, err
}

// RunDataset executes every stage on an already loaded training set.
func (p *Pipeline) RunDataset(ctx context.Context, ds *dataset.Dataset) (*Result, error) {
	var result *Result
	err := p.track("run", func() error {
		var err error
		if ds, err = WithLace(ds, &p.Config.Schema); err != nil {
			return errors.Trace(err)
		}
		result, err = p.run(ctx, ds)
		return err
	})
	return result, err
}

func (p *Pipeline) run(ctx context.Context, ds *dataset.Dataset) (result *Result, err error) {
	cfg := p.Config
	schema := &cfg.Schema
	ctx, span := progress.Start(ctx, "pipeline", 5)
	defer func() {
		if err != nil {
			span.Fail(err)
		} else {
			span.End()
		}
	}()
	result = &Result{}

	// baseline
	if result.Baseline, err = Baseline(ds, schema); err != nil {
		return nil, errors.Trace(err)
	}
	p.logger("baseline").Info("LACE baseline evaluated", zap.Float64("auc", result.Baseline.AUC))
	if err = p.Reporter.Baseline(result.Baseline); err != nil {
		return nil, errors.Trace(err)
	}
	span.Add(1)

	// split
	prepared, err := Prepare(ds, schema, false)
	if err != nil {
		return nil, errors.Trace(err)
	}
	result.Encoder = prepared.Encoder
	train, test, err := dataset.StratifiedSplit(prepared.Y, cfg.Split.TrainFraction, cfg.GetSeed())
	if err != nil {
		return nil, errors.Trace(err)
	}
	p.logger("split").Info("stratified split",
		zap.Int("train", len(train)),
		zap.Int("test", len(test)),
		zap.Int("features", len(prepared.Features)))
	span.Add(1)

	// train
	if result.Models, err = Train(ctx, cfg, model.Kinds, model.SelectRows(prepared.X, train),
		model.SelectLabels(prepared.Y, train), prepared.Features); err != nil {
		return nil, errors.Trace(err)
	}
	span.Add(1)

	// evaluate
	classifiers := make([]model.Classifier, len(result.Models))
	for i, m := range result.Models {
		classifiers[i] = m
	}
	if result.Evaluation, err = Evaluate(ctx, classifiers, model.SelectRows(prepared.X, test),
		model.SelectLabels(prepared.Y, test), cfg.Jobs); err != nil {
		return nil, errors.Trace(err)
	}
	if err = p.recordEvaluation(result); err != nil {
		return nil, errors.Trace(err)
	}
	span.Add(1)

	// apply
	if err = p.save(result.Selected(), result.Encoder); err != nil {
		return nil, errors.Trace(err)
	}
	if cfg.Data.HoldoutPath != "" {
		holdout, err := dataset.LoadCSV(cfg.Data.HoldoutPath)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if result.Predictions, err = p.predict(ctx, result.Selected(), result.Encoder, holdout); err != nil {
			return nil, errors.Trace(err)
		}
	}
	span.Add(1)
	return result, nil
}

func (p *Pipeline) recordEvaluation(result *Result) error {
	evaluation := result.Evaluation
	scores := make([]report.ModelScore, len(evaluation.Scores))
	for i, score := range evaluation.Scores {
		scores[i] = report.ModelScore{Kind: score.Kind, AUC: score.Score.AUC, Selected: i == evaluation.Selected}
		p.logger("evaluate").Info("model evaluated",
			zap.String("model", string(score.Kind)),
			zap.Float64("auc", score.Score.AUC))
		if p.Registry != nil {
			if err := p.Registry.PutScore(&meta.Score{
				RunUUID: p.RunId,
				Model:   string(score.Kind),
				AUC:     score.Score.AUC,
				Params:  result.Models[i].GetParams().ToMap(),
			}); err != nil {
				return errors.Annotate(err, "record score")
			}
		}
	}
	best := evaluation.Best()
	p.logger("evaluate").Info("model selected",
		zap.String("model", string(best.Kind)),
		zap.Float64("auc", best.Score.AUC))
	if p.Registry != nil {
		if err := p.Registry.SelectModel(p.RunId, string(best.Kind)); err != nil {
			return errors.Annotate(err, "record selection")
		}
	}
	if err := p.Reporter.Scores(scores); err != nil {
		return errors.Trace(err)
	}
	for _, m := range result.Models {
		if err := p.Reporter.Importance(m.Kind(), model.RankImportance(m.FeatureImportance())); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// save writes the selected model and its encoder to the store.
func (p *Pipeline) save(m model.Classifier, encoder *dataset.Encoder) error {
	if err := blob.Write(p.Store, ModelFile, func(w io.Writer) error {
		return model.MarshalModel(w, m)
	}); err != nil {
		return errors.Trace(err)
	}
	return blob.Write(p.Store, EncoderFile, func(w io.Writer) error {
		if err := encoding.WriteHeader(w, encoding.Header{Magic: encoderMagic, Version: encoderVersion}); err != nil {
			return errors.Trace(err)
		}
		return encoding.WriteGob(w, encoder)
	})
}

const (
	encoderMagic   = "readmit-encoder"
	encoderVersion = 1
)

// Load reads the model and encoder written by a previous run.
func Load(store blob.Store) (model.Classifier, *dataset.Encoder, error) {
	var (
		m       model.Classifier
		encoder dataset.Encoder
	)
	if err := blob.Read(store, ModelFile, func(r io.Reader) error {
		var err error
		m, err = model.UnmarshalModel(r)
		return err
	}); err != nil {
		return nil, nil, errors.Trace(err)
	}
	if err := blob.Read(store, EncoderFile, func(r io.Reader) error {
		if _, err := encoding.ReadHeader(r, encoderMagic, encoderVersion); err != nil {
			return errors.Trace(err)
		}
		return encoding.ReadGob(r, &encoder)
	}); err != nil {
		return nil, nil, errors.Trace(err)
	}
	return m, &encoder, nil
}

// predict applies the model to the hold-out set and writes the predictions in
// every configured format.
func (p *Pipeline) predict(ctx context.Context, m model.Classifier, encoder *dataset.Encoder, holdout *dataset.Dataset) ([]float64, error) {
	schema := &p.Config.Schema
	probabilities, err := Apply(ctx, m, encoder, holdout, schema, p.Config.Jobs)
	if err != nil {
		return nil, errors.Trace(err)
	}
	rows, err := predictions.New(string(m.Kind()), Ids(holdout, schema), probabilities)
	if err != nil {
		return nil, errors.Trace(err)
	}
	for _, format := range p.Config.Output.Formats {
		if err = blob.Write(p.Store, predictions.FileName(format), func(w io.Writer) error {
			return predictions.Write(w, format, rows)
		}); err != nil {
			return nil, errors.Trace(err)
		}
	}
	p.logger("apply").Info("hold-out predictions written",
		zap.String("model", string(m.Kind())),
		zap.Int("rows", len(rows)),
		zap.Strings("formats", p.Config.Output.Formats))
	return probabilities, nil
}

// Predict scores the hold-out set with the model saved by a previous run.
func (p *Pipeline) Predict(ctx context.Context) ([]float64, error) {
	var probabilities []float64
	err := p.track("predict", func() error {
		if p.Config.Data.HoldoutPath == "" {
			return errors.NotValidf("empty hold-out path")
		}
		m, encoder, err := Load(p.Store)
		if err != nil {
			return errors.Trace(err)
		}
		holdout, err := dataset.LoadCSV(p.Config.Data.HoldoutPath)
		if err != nil {
			return errors.Trace(err)
		}
		probabilities, err = p.predict(ctx, m, encoder, holdout)
		return err
	})
	return probabilities, err
}

// Baseline evaluates the LACE index on the training set.
func (p *Pipeline) Baseline(_ context.Context) (model.Score, error) {
	var score model.Score
	err := p.track("baseline", func() error {
		ds, err := p.loadTrain()
		if err != nil {
			return errors.Trace(err)
		}
		if score, err = Baseline(ds, &p.Config.Schema); err != nil {
			return errors.Trace(err)
		}
		return p.Reporter.Baseline(score)
	})
	return score, err
}

// Audit compares the boosted model with and without the leakage columns.
func (p *Pipeline) Audit(ctx context.Context) (*Audit, error) {
	var audit *Audit
	err := p.track("audit", func() error {
		ds, err := p.loadTrain()
		if err != nil {
			return errors.Trace(err)
		}
		if audit, err = AuditLeakage(ctx, p.Config, ds); err != nil {
			return errors.Trace(err)
		}
		return p.Reporter.Audit(audit.With, audit.Without)
	})
	return audit, err
}

// Tune searches hyper-parameters and stores the best trial in the registry.
func (p *Pipeline) Tune(ctx context.Context) (search.Result, error) {
	var result search.Result
	err := p.track("tune", func() error {
		ds, err := p.loadTrain()
		if err != nil {
			return errors.Trace(err)
		}
		if result, err = Tune(ctx, p.Config, ds); err != nil {
			return errors.Trace(err)
		}
		if p.Registry != nil {
			data, err := json.Marshal(map[string]any{
				"run":    p.RunId,
				"model":  result.Kind,
				"auc":    result.AUC,
				"trials": result.Trials,
				"params": result.Params.ToMap(),
			})
			if err != nil {
				return errors.Trace(err)
			}
			if err = p.Registry.Put(TuneResultKey, string(data)); err != nil {
				return errors.Trace(err)
			}
		}
		return p.Reporter.Tuning(result)
	})
	return result, err
}
