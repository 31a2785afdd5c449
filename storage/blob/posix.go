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

package blob

import (
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/readmit-io/readmit/base/log"
	"go.uber.org/zap"
)

type POSIX struct {
	dir string
}

func NewPOSIX(dir string) *POSIX {
	return &POSIX{dir: dir}
}

// Open a file for reading.
func (p *POSIX) Open(name string) (io.ReadCloser, error) {
	fullPath := path.Join(p.dir, name)
	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFoundf("blob %s", name)
		}
		return nil, errors.Trace(err)
	}
	return file, nil
}

// Create a file for writing. Data goes to a temporary file in the same directory
// which is renamed to the final name on Close, so readers never see a partial blob.
func (p *POSIX) Create(name string) (io.WriteCloser, error) {
	fullPath := path.Join(p.dir, name)
	if err := os.MkdirAll(path.Dir(fullPath), os.ModePerm); err != nil {
		return nil, errors.Trace(err)
	}
	file, err := os.CreateTemp(path.Dir(fullPath), "upload-*")
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &posixWriter{file: file, path: fullPath}, nil
}

// List names of files under a prefix, relative to the store root and sorted.
func (p *POSIX) List(prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(p.dir, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && fullPath == p.dir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), "upload-") {
			return nil
		}
		name, err := filepath.Rel(p.dir, fullPath)
		if err != nil {
			return err
		}
		name = filepath.ToSlash(name)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	sort.Strings(names)
	return names, nil
}

func (p *POSIX) Remove(name string) error {
	err := os.Remove(path.Join(p.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Trace(err)
	}
	return nil
}

type posixWriter struct {
	file *os.File
	path string
}

func (w *posixWriter) Write(data []byte) (int, error) {
	return w.file.Write(data)
}

func (w *posixWriter) Close() error {
	if err := w.file.Close(); err != nil {
		_ = os.Remove(w.file.Name())
		return errors.Trace(err)
	}
	if err := os.Rename(w.file.Name(), w.path); err != nil {
		_ = os.Remove(w.file.Name())
		return errors.Trace(err)
	}
	log.Logger().Debug("blob written", zap.String("path", w.path))
	return nil
}

// Abort discards the temporary file.
func (w *posixWriter) Abort() error {
	_ = w.file.Close()
	return errors.Trace(os.Remove(w.file.Name()))
}
