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
	"database/sql"
	"encoding/json"
	"time"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/storage"
	"github.com/samber/lo"
	_ "modernc.org/sqlite"
)

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one invocation of a pipeline command.
type Run struct {
	UUID      string
	Command   string
	Seed      int64
	Status    RunStatus
	Message   string
	StartTime time.Time
	EndTime   time.Time
}

// Score is the test AUC of one fitted model within a run.
type Score struct {
	RunUUID  string
	Model    string
	AUC      float64
	Params   map[string]any
	Selected bool
}

// ParamsJSON encodes hyper-parameters for storage.
func (s *Score) ParamsJSON() string {
	if s.Params == nil {
		return "{}"
	}
	return string(lo.Must1(json.Marshal(s.Params)))
}

// Database records pipeline runs, their model scores and the selected model.
type Database interface {
	Close() error
	Init() error
	StartRun(run *Run) error
	FinishRun(uuid string, status RunStatus, message string, endTime time.Time) error
	GetRun(uuid string) (*Run, error)
	ListRuns() ([]*Run, error)
	PutScore(score *Score) error
	ListScores(runUUID string) ([]*Score, error)
	SelectModel(runUUID, model string) error
	GetSelected(runUUID string) (*Score, error)
	Put(key, value string) error
	Get(key string) (*string, error)
}

// Open a connection to a run registry.
func Open(path string) (Database, error) {
	dataSourceName, err := storage.SQLiteDataSource(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	database := new(SQLite)
	if database.db, err = sql.Open("sqlite", dataSourceName); err != nil {
		return nil, errors.Trace(err)
	}
	return database, nil
}
