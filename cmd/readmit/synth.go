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

package main

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base/log"
	"github.com/readmit-io/readmit/dataset"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var synthCommand = &cobra.Command{
	Use:   "synth",
	Short: "Generate synthetic training and hold-out encounters",
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
		dir, _ := cmd.Flags().GetString("out-dir")
		opt := dataset.DefaultSyntheticOptions()
		opt.Rows, _ = cmd.Flags().GetInt("rows")
		opt.Seed, _ = cmd.Flags().GetInt64("seed")
		opt.PositiveRate, _ = cmd.Flags().GetFloat64("positive-rate")
		opt.Leakage, _ = cmd.Flags().GetBool("leakage")
		if signal, _ := cmd.Flags().GetFloat64("signal"); cmd.Flags().Changed("signal") {
			opt.Separable = false
			opt.Signal = signal
		}
		holdoutRows, _ := cmd.Flags().GetInt("holdout-rows")
		return errors.Trace(writeSynthetic(dir, opt, holdoutRows))
	},
}

func init() {
	synthCommand.Flags().String("out-dir", "data", "output directory")
	synthCommand.Flags().Int("rows", 1000, "number of labelled encounters")
	synthCommand.Flags().Int("holdout-rows", 200, "number of unlabelled encounters")
	synthCommand.Flags().Int64("seed", 0, "random seed")
	synthCommand.Flags().Float64("positive-rate", 0.3, "fraction of readmissions")
	synthCommand.Flags().Float64("signal", 1, "shift of the risk marker for readmissions (disables the separable marker)")
	synthCommand.Flags().Bool("leakage", false, "add a column that nearly copies the outcome")
}

// writeSynthetic writes encounters.csv and holdout.csv into dir. The hold-out
// set is drawn from the next seed and has no outcome column.
func writeSynthetic(dir string, opt dataset.SyntheticOptions, holdoutRows int) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Trace(err)
	}
	train := dataset.GenerateSynthetic(opt)
	opt.Seed++
	opt.Rows = holdoutRows
	holdout := dataset.GenerateSynthetic(opt).Drop(dataset.SyntheticOutcome)
	for name, ds := range map[string]*dataset.Dataset{"encounters.csv": train, "holdout.csv": holdout} {
		path := filepath.Join(dir, name)
		file, err := os.Create(path)
		if err != nil {
			return errors.Trace(err)
		}
		if err = ds.WriteCSV(file); err != nil {
			_ = file.Close()
			return errors.Annotatef(err, "write %s", path)
		}
		if err = file.Close(); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("synthetic encounters written", zap.String("path", path), zap.Int("rows", ds.Count()))
	}
	return nil
}
