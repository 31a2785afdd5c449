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

package encoding

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"

	"github.com/juju/errors"
)

// WriteVector writes a length-prefixed float64 vector to byte stream.
func WriteVector(w io.Writer, v []float64) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(v))); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(binary.Write(w, binary.LittleEndian, v))
}

// ReadVector reads a length-prefixed float64 vector from byte stream.
func ReadVector(r io.Reader) ([]float64, error) {
	var length int32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, errors.Trace(err)
	}
	if length < 0 {
		return nil, errors.Errorf("negative vector length %d", length)
	}
	v := make([]float64, length)
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		return nil, errors.Trace(err)
	}
	return v, nil
}

// WriteString writes string to byte stream.
func WriteString(w io.Writer, s string) error {
	return WriteBytes(w, []byte(s))
}

// ReadString reads string from byte stream.
func ReadString(r io.Reader) (string, error) {
	data, err := ReadBytes(r)
	return string(data), err
}

// WriteBytes writes length-prefixed bytes to byte stream.
func WriteBytes(w io.Writer, s []byte) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(s))); err != nil {
		return errors.Trace(err)
	}
	if n, err := w.Write(s); err != nil {
		return errors.Trace(err)
	} else if n != len(s) {
		return errors.Errorf("short write: %d of %d bytes", n, len(s))
	}
	return nil
}

// ReadBytes reads length-prefixed bytes from byte stream.
func ReadBytes(r io.Reader) ([]byte, error) {
	var length int32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, errors.Trace(err)
	}
	if length < 0 {
		return nil, errors.Errorf("negative byte length %d", length)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errors.Annotate(err, "read bytes")
	}
	return data, nil
}

// WriteGob writes a gob-encoded object as one length-prefixed frame.
func WriteGob(w io.Writer, v interface{}) error {
	buffer := bytes.NewBuffer(nil)
	if err := gob.NewEncoder(buffer).Encode(v); err != nil {
		return errors.Trace(err)
	}
	return WriteBytes(w, buffer.Bytes())
}

// ReadGob reads an object written by WriteGob.
func ReadGob(r io.Reader, v interface{}) error {
	data, err := ReadBytes(r)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(gob.NewDecoder(bytes.NewReader(data)).Decode(v))
}

// Header opens every persisted artifact so a reader can reject foreign files
// and blobs written by a newer format.
type Header struct {
	Magic   string
	Version uint16
}

func WriteHeader(w io.Writer, header Header) error {
	if err := WriteString(w, header.Magic); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(binary.Write(w, binary.LittleEndian, header.Version))
}

// ReadHeader reads a header and checks its magic and that its version is at most maxVersion.
func ReadHeader(r io.Reader, magic string, maxVersion uint16) (Header, error) {
	var header Header
	var err error
	if header.Magic, err = ReadString(r); err != nil {
		return header, errors.Trace(err)
	}
	if header.Magic != magic {
		return header, errors.NotValidf("header %q, expected %q", header.Magic, magic)
	}
	if err = binary.Read(r, binary.LittleEndian, &header.Version); err != nil {
		return header, errors.Trace(err)
	}
	if header.Version > maxVersion {
		return header, errors.NotSupportedf("%s version %d", magic, header.Version)
	}
	return header, nil
}
