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

	"github.com/juju/errors"
)

// Store keeps run artifacts such as prediction files and model blobs.
type Store interface {
	// Open a blob for reading.
	Open(name string) (io.ReadCloser, error)
	// Create a blob for writing. The blob becomes visible once the writer is closed.
	Create(name string) (io.WriteCloser, error)
	// List names of blobs under a prefix.
	List(prefix string) ([]string, error)
	// Remove a blob. Removing a missing blob is not an error.
	Remove(name string) error
}

// Write creates a blob and fills it with write.
func Write(store Store, name string, write func(w io.Writer) error) error {
	w, err := store.Create(name)
	if err != nil {
		return errors.Trace(err)
	}
	if err = write(w); err != nil {
		if a, ok := w.(interface{ Abort() error }); ok {
			_ = a.Abort()
		} else {
			_ = w.Close()
		}
		return errors.Annotatef(err, "write blob %s", name)
	}
	return errors.Trace(w.Close())
}

// Read opens a blob and passes it to read.
func Read(store Store, name string, read func(r io.Reader) error) error {
	r, err := store.Open(name)
	if err != nil {
		return errors.Trace(err)
	}
	defer r.Close()
	return errors.Annotatef(read(r), "read blob %s", name)
}
