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

	"github.com/juju/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger *zap.Logger

func init() {
	var err error
	logger, err = zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
}

// Logger get current logger
func Logger() *zap.Logger {
	return logger
}

// StageLogger returns a logger tagged with a pipeline run and stage.
func StageLogger(runId, stage string) *zap.Logger {
	return logger.With(zap.String("run_id", runId), zap.String("stage", stage))
}

// CloseLogger silences everything below fatal. Tests use it to keep output quiet.
func CloseLogger() {
	logger = zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(os.Stderr),
		zap.FatalLevel))
}

func AddFlags(flagSet *pflag.FlagSet) {
	flagSet.String("log-level", "", "minimum log level (debug, info, warn, error); defaults to debug with --debug, info otherwise")
	flagSet.String("log-path", "", "path of log file")
	flagSet.Int("log-max-size", 100, "maximum size in megabytes of the log file")
	flagSet.Int("log-max-age", 0, "maximum number of days to retain old log files")
	flagSet.Int("log-max-backups", 0, "maximum number of old log files to retain")
}

// ParseLevel resolves the effective level. An empty name falls back to the mode default.
func ParseLevel(name string, debug bool) (zapcore.Level, error) {
	if name == "" {
		if debug {
			return zap.DebugLevel, nil
		}
		return zap.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zap.InfoLevel, errors.NotValidf("log level %q", name)
	}
	return level, nil
}

// SetLogger replaces the global logger. Debug mode writes console lines, otherwise JSON.
// Records always go to stderr and, with --log-path, to a rotated file as well.
func SetLogger(flagSet *pflag.FlagSet, debug bool) {
	name, _ := flagSet.GetString("log-level")
	level, err := ParseLevel(name, debug)
	if err != nil {
		logger.Warn("fall back to default log level", zap.Error(err))
		level, _ = ParseLevel("", debug)
	}
	writers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stderr)}
	if flagSet.Changed("log-path") {
		path, _ := flagSet.GetString("log-path")
		maxSize, _ := flagSet.GetInt("log-max-size")
		maxAge, _ := flagSet.GetInt("log-max-age")
		maxBackups, _ := flagSet.GetInt("log-max-backups")
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			MaxAge:     maxAge,
		}))
	}
	logger = zap.New(newCore(debug, level, zap.CombineWriteSyncers(writers...)))
}

func newCore(debug bool, level zapcore.LevelEnabler, sink zapcore.WriteSyncer) zapcore.Core {
	var cfg zapcore.EncoderConfig
	if debug {
		cfg = zap.NewDevelopmentEncoderConfig()
	} else {
		cfg = zap.NewProductionEncoderConfig()
	}
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.999999")
	if debug {
		return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), sink, level)
	}
	return zapcore.NewCore(zapcore.NewJSONEncoder(cfg), sink, level)
}
