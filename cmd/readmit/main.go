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
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base/log"
	"github.com/readmit-io/readmit/base/progress"
	"github.com/readmit-io/readmit/cmd/version"
	"github.com/readmit-io/readmit/config"
	"github.com/readmit-io/readmit/pipeline"
	"github.com/readmit-io/readmit/report"
	"github.com/readmit-io/readmit/storage"
	"github.com/readmit-io/readmit/storage/blob"
	"github.com/readmit-io/readmit/storage/meta"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "readmit",
	Short: "30-day readmission risk modelling pipeline.",
	Long: "readmit evaluates the LACE index, fits penalised logistic regression, random forest and " +
		"gradient-boosted trees on encounter data, selects the best model by test AUC and scores hold-out encounters.",
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
			fmt.Print(version.BuildInfo())
			return
		}
		_ = cmd.Help()
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().Bool("no-progress", false, "hide progress bars")
	rootCommand.PersistentFlags().Int("top-features", 10, "number of features shown per model")
	rootCommand.Flags().BoolP("version", "v", false, "readmit version")
	rootCommand.AddCommand(runCommand, baselineCommand, auditCommand, tuneCommand, predictCommand,
		synthCommand, versionCommand)
}

// environment holds what every pipeline command needs.
type environment struct {
	config   *config.Config
	registry meta.Database
	pipeline *pipeline.Pipeline
	ctx      context.Context
	cancel   context.CancelFunc
}

func (env *environment) Close() {
	env.cancel()
	if env.registry != nil {
		if err := env.registry.Close(); err != nil {
			log.Logger().Error("failed to close registry", zap.Error(err))
		}
	}
}

// setup configures logging, loads the config and opens the stores.
func setup(cmd *cobra.Command) (*environment, error) {
	flags := cmd.Flags()
	debug, _ := flags.GetBool("debug")
	log.SetLogger(flags, debug)

	configPath, _ := flags.GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Annotate(err, "failed to load config")
	}

	if err = os.MkdirAll(cfg.Output.Dir, os.ModePerm); err != nil {
		return nil, errors.Trace(err)
	}
	registryPath, err := storage.SQLitePath(cfg.Output.Registry)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err = os.MkdirAll(filepath.Dir(registryPath), os.ModePerm); err != nil {
		return nil, errors.Trace(err)
	}
	registry, err := meta.Open(cfg.Output.Registry)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open registry")
	}
	if err = registry.Init(); err != nil {
		_ = registry.Close()
		return nil, errors.Annotate(err, "failed to initialize registry")
	}

	topFeatures, _ := flags.GetInt("top-features")
	reporter := report.Multi{
		report.NewTable(os.Stdout, topFeatures, 11),
		report.NewLog(topFeatures),
	}
	env := &environment{
		config:   cfg,
		registry: registry,
		pipeline: pipeline.NewPipeline(cfg, blob.NewPOSIX(cfg.Output.Dir), registry, reporter),
	}
	env.ctx, env.cancel = signal.NotifyContext(context.Background(), os.Interrupt)
	if hide, _ := flags.GetBool("no-progress"); !hide {
		tracer := progress.NewTracer(env.pipeline.RunId)
		tracer.SetListener(newBarListener(os.Stderr))
		env.ctx = tracer.Attach(env.ctx)
	}
	log.Logger().Info("start run", zap.String("run_id", env.pipeline.RunId), zap.Int64("seed", cfg.GetSeed()))
	return env, nil
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
