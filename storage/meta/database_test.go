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

package meta

import (
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/suite"
)

type baseTestSuite struct {
	suite.Suite
	Database
}

func (suite *baseTestSuite) TestRuns() {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	err := suite.Database.StartRun(&Run{
		UUID:      "run-1",
		Command:   "run",
		Seed:      42,
		Status:    RunRunning,
		StartTime: start,
	})
	suite.NoError(err)
	err = suite.Database.StartRun(&Run{
		UUID:      "run-2",
		Command:   "audit",
		Seed:      7,
		Status:    RunRunning,
		StartTime: start.Add(time.Hour),
	})
	suite.NoError(err)
	// duplicate uuid
	err = suite.Database.StartRun(&Run{UUID: "run-1", Status: RunRunning, StartTime: start})
	suite.Error(err)

	// running runs have no end time
	run, err := suite.Database.GetRun("run-1")
	suite.NoError(err)
	suite.Equal(RunRunning, run.Status)
	suite.Equal(int64(42), run.Seed)
	suite.True(run.StartTime.Equal(start))
	suite.True(run.EndTime.IsZero())

	// finish runs
	suite.NoError(suite.Database.FinishRun("run-1", RunSucceeded, "", start.Add(time.Minute)))
	suite.NoError(suite.Database.FinishRun("run-2", RunFailed, "schema mismatch", start.Add(2*time.Hour)))
	err = suite.Database.FinishRun("run-3", RunFailed, "", start)
	suite.True(errors.Is(err, errors.NotFound))

	run, err = suite.Database.GetRun("run-2")
	suite.NoError(err)
	suite.Equal(RunFailed, run.Status)
	suite.Equal("schema mismatch", run.Message)
	suite.True(run.EndTime.Equal(start.Add(2 * time.Hour)))

	// newest first
	runs, err := suite.Database.ListRuns()
	suite.NoError(err)
	if suite.Len(runs, 2) {
		suite.Equal("run-2", runs[0].UUID)
		suite.Equal("run-1", runs[1].UUID)
		suite.Equal(RunSucceeded, runs[1].Status)
	}

	_, err = suite.Database.GetRun("run-3")
	suite.True(errors.Is(err, errors.NotFound))
}

func (suite *baseTestSuite) TestScores() {
	suite.NoError(suite.Database.PutScore(&Score{RunUUID: "run-1", Model: "linear", AUC: 0.71}))
	suite.NoError(suite.Database.PutScore(&Score{RunUUID: "run-1", Model: "forest", AUC: 0.74,
		Params: map[string]any{"NTrees": 500, "MTry": 5}}))
	suite.NoError(suite.Database.PutScore(&Score{RunUUID: "run-1", Model: "boost", AUC: 0.70}))
	suite.NoError(suite.Database.PutScore(&Score{RunUUID: "run-2", Model: "boost", AUC: 0.60}))
	// overwrite
	suite.NoError(suite.Database.PutScore(&Score{RunUUID: "run-1", Model: "boost", AUC: 0.73}))

	scores, err := suite.Database.ListScores("run-1")
	suite.NoError(err)
	if suite.Len(scores, 3) {
		suite.Equal("boost", scores[0].Model)
		suite.InDelta(0.73, scores[0].AUC, 1e-12)
		suite.Equal("forest", scores[1].Model)
		suite.Equal(map[string]any{"NTrees": float64(500), "MTry": float64(5)}, scores[1].Params)
		suite.Equal("linear", scores[2].Model)
		suite.Empty(scores[2].Params)
	}

	// nothing selected yet
	_, err = suite.Database.GetSelected("run-1")
	suite.True(errors.Is(err, errors.NotFound))

	suite.NoError(suite.Database.SelectModel("run-1", "boost"))
	suite.NoError(suite.Database.SelectModel("run-1", "forest"))
	selected, err := suite.Database.GetSelected("run-1")
	suite.NoError(err)
	suite.Equal("forest", selected.Model)
	suite.True(selected.Selected)
	err = suite.Database.SelectModel("run-1", "unknown")
	suite.True(errors.Is(err, errors.NotFound))
	selected, err = suite.Database.GetSelected("run-1")
	suite.NoError(err)
	suite.Equal("forest", selected.Model)

	// other runs are untouched
	_, err = suite.Database.GetSelected("run-2")
	suite.True(errors.Is(err, errors.NotFound))
}

func (suite *baseTestSuite) TestKeyValues() {
	err := suite.Database.Put("key1", "value1")
	suite.NoError(err)
	err = suite.Database.Put("key2", "value2")
	suite.NoError(err)
	err = suite.Database.Put("key2", "value3")
	suite.NoError(err)

	value, err := suite.Database.Get("key1")
	suite.NoError(err)
	suite.Equal("value1", *value)

	value, err = suite.Database.Get("key2")
	suite.NoError(err)
	suite.Equal("value3", *value)

	// Test non-existing key
	value, err = suite.Database.Get("non-existing-key")
	suite.NoError(err)
	suite.Nil(value)
}
