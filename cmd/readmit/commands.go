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
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline and score the hold-out set",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		defer env.Close()
		_, err = env.pipeline.Run(env.ctx)
		return errors.Trace(err)
	},
}

var baselineCommand = &cobra.Command{
	Use:   "baseline",
	Short: "Evaluate the LACE index against the outcome",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		defer env.Close()
		_, err = env.pipeline.Baseline(env.ctx)
		return errors.Trace(err)
	},
}

var auditCommand = &cobra.Command{
	Use:   "audit",
	Short: "Compare boosted trees with and without the leakage columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		defer env.Close()
		_, err = env.pipeline.Audit(env.ctx)
		return errors.Trace(err)
	},
}

var tuneCommand = &cobra.Command{
	Use:   "tune",
	Short: "Search hyper-parameters of the tree ensembles",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		defer env.Close()
		if cmd.Flags().Changed("trials") {
			env.config.Tune.Trials, _ = cmd.Flags().GetInt("trials")
		}
		_, err = env.pipeline.Tune(env.ctx)
		return errors.Trace(err)
	},
}

var predictCommand = &cobra.Command{
	Use:   "predict",
	Short: "Score the hold-out set with the model saved by the last run",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		defer env.Close()
		if cmd.Flags().Changed("holdout") {
			env.config.Data.HoldoutPath, _ = cmd.Flags().GetString("holdout")
		}
		_, err = env.pipeline.Predict(env.ctx)
		return errors.Trace(err)
	},
}

func init() {
	tuneCommand.Flags().Int("trials", 0, "number of trials (overrides tune.trials)")
	predictCommand.Flags().String("holdout", "", "hold-out CSV (overrides data.holdout_path)")
}
