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

package config

import (
	"runtime"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/readmit-io/readmit/model"
	"github.com/spf13/viper"
)

// Config is the configuration of a pipeline run.
type Config struct {
	Seed   *int64       `mapstructure:"seed" validate:"required"`
	Jobs   int          `mapstructure:"jobs" validate:"gte=1"`
	Data   DataConfig   `mapstructure:"data"`
	Schema SchemaConfig `mapstructure:"schema"`
	Split  SplitConfig  `mapstructure:"split"`
	Linear LinearConfig `mapstructure:"linear"`
	Forest ForestConfig `mapstructure:"forest"`
	Boost  BoostConfig  `mapstructure:"boost"`
	Output OutputConfig `mapstructure:"output"`
	Tune   TuneConfig   `mapstructure:"tune"`
}

type DataConfig struct {
	TrainPath   string `mapstructure:"train_path" validate:"required"`
	HoldoutPath string `mapstructure:"holdout_path"`
}

type SchemaConfig struct {
	Outcome        string         `mapstructure:"outcome" validate:"required"`
	PositiveLabel  string         `mapstructure:"positive_label" validate:"required"`
	IdColumn       string         `mapstructure:"id_column"`
	LaceColumn     string         `mapstructure:"lace_column" validate:"required"`
	LaceComponents LaceComponents `mapstructure:"lace_components"`
	LeakageColumns []string       `mapstructure:"leakage_columns"`
	DropColumns    []string       `mapstructure:"drop_columns"`
}

// LaceComponents names the columns the LACE index is computed from when the
// dataset has no LACE column.
type LaceComponents struct {
	LengthOfStay string `mapstructure:"length_of_stay"`
	Acuity       string `mapstructure:"acuity"`
	Charlson     string `mapstructure:"charlson"`
	EDVisits     string `mapstructure:"ed_visits"`
}

// Complete reports whether every component column is named.
func (c LaceComponents) Complete() bool {
	return c.LengthOfStay != "" && c.Acuity != "" && c.Charlson != "" && c.EDVisits != ""
}

type SplitConfig struct {
	TrainFraction float64 `mapstructure:"train_fraction" validate:"gt=0,lt=1"`
}

type LinearConfig struct {
	NFolds         int     `mapstructure:"n_folds" validate:"gte=2"`
	NLambda        int     `mapstructure:"n_lambda" validate:"gte=1"`
	LambdaMinRatio float64 `mapstructure:"lambda_min_ratio" validate:"gte=0,lt=1"`
}

func (c *LinearConfig) GetParams(seed int64) model.Params {
	params := model.Params{
		model.RandomState: seed,
		model.NFolds:      c.NFolds,
		model.NLambda:     c.NLambda,
	}
	if c.LambdaMinRatio > 0 {
		params[model.LambdaMinRatio] = c.LambdaMinRatio
	}
	return params
}

type ForestConfig struct {
	NTrees      int `mapstructure:"n_trees" validate:"gte=1"`
	MTry        int `mapstructure:"mtry" validate:"gte=1"`
	MinNodeSize int `mapstructure:"min_node_size" validate:"gte=1"`
}

func (c *ForestConfig) GetParams(seed int64) model.Params {
	return model.Params{
		model.RandomState: seed,
		model.NTrees:      c.NTrees,
		model.MTry:        c.MTry,
		model.MinNodeSize: c.MinNodeSize,
	}
}

type BoostConfig struct {
	NRounds        int     `mapstructure:"n_rounds" validate:"gte=1"`
	LearningRate   float64 `mapstructure:"learning_rate" validate:"gt=0,lte=1"`
	MaxDepth       int     `mapstructure:"max_depth" validate:"gte=1"`
	Lambda         float64 `mapstructure:"lambda" validate:"gte=0"`
	Gamma          float64 `mapstructure:"gamma" validate:"gte=0"`
	MinChildWeight float64 `mapstructure:"min_child_weight" validate:"gte=0"`
}

func (c *BoostConfig) GetParams(seed int64) model.Params {
	return model.Params{
		model.RandomState:    seed,
		model.NRounds:        c.NRounds,
		model.LearningRate:   c.LearningRate,
		model.MaxDepth:       c.MaxDepth,
		model.Lambda:         c.Lambda,
		model.Gamma:          c.Gamma,
		model.MinChildWeight: c.MinChildWeight,
	}
}

type OutputConfig struct {
	Dir      string   `mapstructure:"dir" validate:"required"`
	Registry string   `mapstructure:"registry" validate:"required"`
	Formats  []string `mapstructure:"formats" validate:"min=1,dive,oneof=csv parquet"`
}

type TuneConfig struct {
	Models        []string      `mapstructure:"models" validate:"min=1,dive,oneof=forest boost"`
	Trials        int           `mapstructure:"trials" validate:"gte=1"`
	ValidFraction float64       `mapstructure:"valid_fraction" validate:"gt=0,lt=1"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// GetSeed returns the configured seed.
func (config *Config) GetSeed() int64 {
	if config.Seed == nil {
		return 0
	}
	return *config.Seed
}

// GetFitConfig returns the fit config shared by trainers.
func (config *Config) GetFitConfig() *model.FitConfig {
	return model.NewFitConfig().SetJobs(config.Jobs)
}

// GetDefaultConfig returns the defaults of every optional setting. Seed and
// the training data path have no defaults.
func GetDefaultConfig() *Config {
	return &Config{
		Jobs: runtime.NumCPU(),
		Schema: SchemaConfig{
			Outcome:       "readmitted",
			PositiveLabel: "Readmit",
			IdColumn:      "encounter_id",
			LaceColumn:    "lace_score",
			LaceComponents: LaceComponents{
				LengthOfStay: "length_of_stay",
				Acuity:       "acuity",
				Charlson:     "charlson",
				EDVisits:     "ed_visits",
			},
			LeakageColumns: []string{"followup_readmission"},
		},
		Split: SplitConfig{TrainFraction: 0.8},
		Linear: LinearConfig{
			NFolds:  10,
			NLambda: 100,
		},
		Forest: ForestConfig{
			NTrees:      500,
			MTry:        5,
			MinNodeSize: 1,
		},
		Boost: BoostConfig{
			NRounds:        200,
			LearningRate:   0.3,
			MaxDepth:       6,
			Lambda:         1,
			Gamma:          0,
			MinChildWeight: 1,
		},
		Output: OutputConfig{
			Dir:      "output",
			Registry: "output/readmit.db",
			Formats:  []string{"csv", "parquet"},
		},
		Tune: TuneConfig{
			Models:        []string{"forest", "boost"},
			Trials:        20,
			ValidFraction: 0.8,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	v.SetDefault("jobs", defaultConfig.Jobs)
	// [schema]
	v.SetDefault("schema.outcome", defaultConfig.Schema.Outcome)
	v.SetDefault("schema.positive_label", defaultConfig.Schema.PositiveLabel)
	v.SetDefault("schema.id_column", defaultConfig.Schema.IdColumn)
	v.SetDefault("schema.lace_column", defaultConfig.Schema.LaceColumn)
	v.SetDefault("schema.lace_components.length_of_stay", defaultConfig.Schema.LaceComponents.LengthOfStay)
	v.SetDefault("schema.lace_components.acuity", defaultConfig.Schema.LaceComponents.Acuity)
	v.SetDefault("schema.lace_components.charlson", defaultConfig.Schema.LaceComponents.Charlson)
	v.SetDefault("schema.lace_components.ed_visits", defaultConfig.Schema.LaceComponents.EDVisits)
	v.SetDefault("schema.leakage_columns", defaultConfig.Schema.LeakageColumns)
	v.SetDefault("schema.drop_columns", []string{})
	// [split]
	v.SetDefault("split.train_fraction", defaultConfig.Split.TrainFraction)
	// [linear]
	v.SetDefault("linear.n_folds", defaultConfig.Linear.NFolds)
	v.SetDefault("linear.n_lambda", defaultConfig.Linear.NLambda)
	v.SetDefault("linear.lambda_min_ratio", defaultConfig.Linear.LambdaMinRatio)
	// [forest]
	v.SetDefault("forest.n_trees", defaultConfig.Forest.NTrees)
	v.SetDefault("forest.mtry", defaultConfig.Forest.MTry)
	v.SetDefault("forest.min_node_size", defaultConfig.Forest.MinNodeSize)
	// [boost]
	v.SetDefault("boost.n_rounds", defaultConfig.Boost.NRounds)
	v.SetDefault("boost.learning_rate", defaultConfig.Boost.LearningRate)
	v.SetDefault("boost.max_depth", defaultConfig.Boost.MaxDepth)
	v.SetDefault("boost.lambda", defaultConfig.Boost.Lambda)
	v.SetDefault("boost.gamma", defaultConfig.Boost.Gamma)
	v.SetDefault("boost.min_child_weight", defaultConfig.Boost.MinChildWeight)
	// [output]
	v.SetDefault("output.dir", defaultConfig.Output.Dir)
	v.SetDefault("output.registry", defaultConfig.Output.Registry)
	v.SetDefault("output.formats", defaultConfig.Output.Formats)
	// [tune]
	v.SetDefault("tune.models", defaultConfig.Tune.Models)
	v.SetDefault("tune.trials", defaultConfig.Tune.Trials)
	v.SetDefault("tune.valid_fraction", defaultConfig.Tune.ValidFraction)
	v.SetDefault("tune.timeout", defaultConfig.Tune.Timeout)
}

// bindings lists settings without defaults that can still come from the environment.
var bindings = []string{
	"seed",
	"data.train_path",
	"data.holdout_path",
}

// LoadConfig loads configuration from a TOML file. Every setting can be
// overridden by an environment variable prefixed with READMIT_, for example
// READMIT_FOREST_N_TREES. An empty path reads the environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix("readmit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range bindings {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}
