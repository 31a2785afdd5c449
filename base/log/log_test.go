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

package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestSetLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readmit.log")
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	assert.NoError(t, flagSet.Parse([]string{"--log-path", path}))

	SetLogger(flagSet, false)
	Logger().Info("hello from test")
	_ = Logger().Sync()

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "hello from test"))
}

func TestSetLoggerWithoutFile(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	assert.NoError(t, flagSet.Parse(nil))
	SetLogger(flagSet, true)
	assert.NotNil(t, Logger())
	assert.NotNil(t, StageLogger("run", "split"))
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("", true)
	assert.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)
	level, err = ParseLevel("", false)
	assert.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)
	level, err = ParseLevel("warn", false)
	assert.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level)
	_, err = ParseLevel("loud", false)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestSetLoggerLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readmit.log")
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	assert.NoError(t, flagSet.Parse([]string{"--log-path", path, "--log-level", "error"}))

	SetLogger(flagSet, false)
	Logger().Info("dropped")
	Logger().Error("kept")
	_ = Logger().Sync()

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "dropped"))
	assert.True(t, strings.Contains(string(data), "kept"))
}
