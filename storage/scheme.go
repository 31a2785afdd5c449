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

package storage

import (
	"net/url"
	"strings"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

const SQLitePrefix = "sqlite://"

// AppendURLParams appends query parameters to a data source name.
func AppendURLParams(rawURL string, params []lo.Tuple2[string, string]) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Trace(err)
	}
	q := parsed.Query()
	for _, tuple := range params {
		q.Add(tuple.A, tuple.B)
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// SQLitePath returns the database file of a registry location. Both
// "sqlite://path/to/db" and a bare file path are accepted; other schemes are not.
func SQLitePath(location string) (string, error) {
	path := strings.TrimPrefix(location, SQLitePrefix)
	if path == "" {
		return "", errors.NotValidf("empty sqlite path")
	}
	if scheme, _, found := strings.Cut(path, "://"); found {
		return "", errors.NotSupportedf("registry scheme %q", scheme)
	}
	return path, nil
}

// SQLiteDataSource turns a registry location into a SQLite data source name
// with a busy timeout and WAL journaling.
func SQLiteDataSource(location string) (string, error) {
	path, err := SQLitePath(location)
	if err != nil {
		return "", errors.Trace(err)
	}
	return AppendURLParams(path, []lo.Tuple2[string, string]{
		{A: "_pragma", B: "busy_timeout(10000)"},
		{A: "_pragma", B: "journal_mode(wal)"},
	})
}
