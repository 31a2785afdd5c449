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
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/readmit-io/readmit/dataset"
	"github.com/readmit-io/readmit/storage/meta"
	"github.com/stretchr/testify/assert"
)

const testConfig = `
seed = 7
jobs = 2

[data]
train_path = "%s"
holdout_path = "%s"

[linear]
n_folds = 5
n_lambda = 20

[forest]
n_trees = 30

[boost]
n_rounds = 20

[output]
dir = "%s"
registry = "%s"
formats = ["csv"]

[tune]
models = ["boost"]
trials = 2
`

func TestWriteSynthetic(t *testing.T) {
	dir := t.TempDir()
	opt := dataset.DefaultSyntheticOptions()
	opt.Rows = 50
	assert.NoError(t, writeSynthetic(dir, opt, 10))
	train, err := dataset.LoadCSV(filepath.Join(dir, "encounters.csv"))
	assert.NoError(t, err)
	assert.Equal(t, 50, train.Count())
	assert.True(t, train.HasColumn(dataset.SyntheticOutcome))
	holdout, err := dataset.LoadCSV(filepath.Join(dir, "holdout.csv"))
	assert.NoError(t, err)
	assert.Equal(t, 10, holdout.Count())
	assert.False(t, holdout.HasColumn(dataset.SyntheticOutcome))
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	outputDir := filepath.Join(dir, "output")
	registryPath := filepath.Join(dir, "registry", "readmit.db")
	rootCommand.SetArgs([]string{"synth", "--out-dir", dataDir, "--rows", "300", "--holdout-rows", "40"})
	assert.NoError(t, rootCommand.Execute())

	configPath := filepath.Join(dir, "config.toml")
	assert.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(testConfig,
		filepath.ToSlash(filepath.Join(dataDir, "encounters.csv")),
		filepath.ToSlash(filepath.Join(dataDir, "holdout.csv")),
		filepath.ToSlash(outputDir),
		filepath.ToSlash(registryPath))), 0o644))

	for _, command := range []string{"run", "baseline", "predict", "tune"} {
		rootCommand.SetArgs([]string{command, "-c", configPath, "--no-progress"})
		assert.NoError(t, rootCommand.Execute(), command)
	}
	for _, name := range []string{"predictions.csv", "model.bin", "encoder.bin"} {
		assert.FileExists(t, filepath.Join(outputDir, name))
	}
	assert.NoFileExists(t, filepath.Join(outputDir, "predictions.parquet"))

	registry, err := meta.Open(registryPath)
	assert.NoError(t, err)
	defer registry.Close()
	runs, err := registry.ListRuns()
	assert.NoError(t, err)
	assert.Len(t, runs, 4)
	for _, run := range runs {
		assert.Equal(t, meta.RunSucceeded, run.Status, run.Command)
		assert.Equal(t, int64(7), run.Seed)
	}

	// audit needs a leakage column
	rootCommand.SetArgs([]string{"audit", "-c", configPath, "--no-progress"})
	assert.Error(t, rootCommand.Execute())
}
