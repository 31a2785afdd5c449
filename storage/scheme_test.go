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
	"testing"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestAppendURLParams(t *testing.T) {
	// test windows path
	url, err := AppendURLParams(`c:\\sqlite.db`, []lo.Tuple2[string, string]{{A: "a", B: "b"}})
	assert.NoError(t, err)
	assert.Equal(t, `c:\\sqlite.db?a=b`, url)
	// test no scheme
	url, err = AppendURLParams(`sqlite.db`, []lo.Tuple2[string, string]{{A: "a", B: "b"}})
	assert.NoError(t, err)
	assert.Equal(t, `sqlite.db?a=b`, url)
}

func TestSQLitePath(t *testing.T) {
	path, err := SQLitePath("sqlite://output/readmit.db")
	assert.NoError(t, err)
	assert.Equal(t, "output/readmit.db", path)
	path, err = SQLitePath("readmit.db")
	assert.NoError(t, err)
	assert.Equal(t, "readmit.db", path)
	_, err = SQLitePath("mysql://root@localhost/readmit")
	assert.True(t, errors.Is(err, errors.NotSupported))
	_, err = SQLitePath("")
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestSQLiteDataSource(t *testing.T) {
	dsn, err := SQLiteDataSource("sqlite://readmit.db")
	assert.NoError(t, err)
	assert.Equal(t, "readmit.db?_pragma=busy_timeout%2810000%29&_pragma=journal_mode%28wal%29", dsn)
	dsn, err = SQLiteDataSource("output/readmit.db")
	assert.NoError(t, err)
	assert.Contains(t, dsn, "output/readmit.db?")
	_, err = SQLiteDataSource(SQLitePrefix)
	assert.True(t, errors.Is(err, errors.NotValid))
}
