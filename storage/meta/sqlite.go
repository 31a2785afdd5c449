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
)

type SQLite struct {
	db *sql.DB
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Init() error {
	// Create tables
	if _, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
	uuid TEXT PRIMARY KEY,
	command TEXT,
	seed INTEGER,
	status TEXT,
	message TEXT,
	start_time DATETIME,
	end_time DATETIME
);`); err != nil {
		return errors.Trace(err)
	}
	if _, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS scores (
	run_uuid TEXT,
	model TEXT,
	auc REAL,
	params TEXT,
	selected INTEGER DEFAULT 0,
	PRIMARY KEY (run_uuid, model)
);`); err != nil {
		return errors.Trace(err)
	}
	if _, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS key_values (
	key TEXT PRIMARY KEY,
	value TEXT
);`); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (s *SQLite) StartRun(run *Run) error {
	_, err := s.db.Exec(`
INSERT INTO runs (uuid, command, seed, status, message, start_time)
VALUES (?, ?, ?, ?, ?, ?)
`, run.UUID, run.Command, run.Seed, string(run.Status), run.Message, run.StartTime.UTC())
	return errors.Trace(err)
}

func (s *SQLite) FinishRun(uuid string, status RunStatus, message string, endTime time.Time) error {
	result, err := s.db.Exec(`
UPDATE runs SET status = ?, message = ?, end_time = ? WHERE uuid = ?
`, string(status), message, endTime.UTC(), uuid)
	if err != nil {
		return errors.Trace(err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return errors.Trace(err)
	} else if n == 0 {
		return errors.NotFoundf("run %s", uuid)
	}
	return nil
}

func (s *SQLite) scanRun(scan func(dest ...any) error) (*Run, error) {
	var (
		run     Run
		status  string
		endTime sql.NullTime
	)
	if err := scan(&run.UUID, &run.Command, &run.Seed, &status, &run.Message, &run.StartTime, &endTime); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if endTime.Valid {
		run.EndTime = endTime.Time
	}
	return &run, nil
}

func (s *SQLite) GetRun(uuid string) (*Run, error) {
	row := s.db.QueryRow(`
SELECT uuid, command, seed, status, message, start_time, end_time FROM runs WHERE uuid = ?
`, uuid)
	run, err := s.scanRun(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundf("run %s", uuid)
		}
		return nil, errors.Trace(err)
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *SQLite) ListRuns() ([]*Run, error) {
	rs, err := s.db.Query(`
SELECT uuid, command, seed, status, message, start_time, end_time FROM runs
ORDER BY start_time DESC
`)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rs.Close()
	var runs []*Run
	for rs.Next() {
		run, err := s.scanRun(rs.Scan)
		if err != nil {
			return nil, errors.Trace(err)
		}
		runs = append(runs, run)
	}
	return runs, errors.Trace(rs.Err())
}

func (s *SQLite) PutScore(score *Score) error {
	_, err := s.db.Exec(`
INSERT INTO scores (run_uuid, model, auc, params, selected)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(run_uuid, model) DO UPDATE SET
	auc = excluded.auc,
	params = excluded.params
`, score.RunUUID, score.Model, score.AUC, score.ParamsJSON(), score.Selected)
	return errors.Trace(err)
}

func (s *SQLite) scanScore(scan func(dest ...any) error) (*Score, error) {
	var (
		score  Score
		params string
	)
	if err := scan(&score.RunUUID, &score.Model, &score.AUC, &params, &score.Selected); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &score.Params); err != nil {
		return nil, errors.Trace(err)
	}
	return &score, nil
}

// ListScores returns the scores of a run ordered by model name.
func (s *SQLite) ListScores(runUUID string) ([]*Score, error) {
	rs, err := s.db.Query(`
SELECT run_uuid, model, auc, params, selected FROM scores
WHERE run_uuid = ? ORDER BY model
`, runUUID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rs.Close()
	var scores []*Score
	for rs.Next() {
		score, err := s.scanScore(rs.Scan)
		if err != nil {
			return nil, errors.Trace(err)
		}
		scores = append(scores, score)
	}
	return scores, errors.Trace(rs.Err())
}

// SelectModel marks one scored model of a run as selected and clears the rest.
func (s *SQLite) SelectModel(runUUID, model string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err = tx.Exec(`UPDATE scores SET selected = 0 WHERE run_uuid = ?`, runUUID); err != nil {
		return errors.Trace(err)
	}
	result, err := tx.Exec(`UPDATE scores SET selected = 1 WHERE run_uuid = ? AND model = ?`, runUUID, model)
	if err != nil {
		return errors.Trace(err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return errors.Trace(err)
	} else if n == 0 {
		return errors.NotFoundf("score of %s in run %s", model, runUUID)
	}
	return errors.Trace(tx.Commit())
}

func (s *SQLite) GetSelected(runUUID string) (*Score, error) {
	row := s.db.QueryRow(`
SELECT run_uuid, model, auc, params, selected FROM scores
WHERE run_uuid = ? AND selected = 1
`, runUUID)
	score, err := s.scanScore(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundf("selected model of run %s", runUUID)
		}
		return nil, errors.Trace(err)
	}
	return score, nil
}

func (s *SQLite) Put(key, value string) error {
	_, err := s.db.Exec(`
INSERT INTO key_values (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value
`, key, value)
	return errors.Trace(err)
}

func (s *SQLite) Get(key string) (*string, error) {
	var value string
	err := s.db.QueryRow(`
SELECT value FROM key_values WHERE key = ?
`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // key not found
		}
		return nil, errors.Trace(err)
	}
	return &value, nil
}
