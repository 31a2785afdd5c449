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

package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

type ColumnKind int

const (
	Numeric ColumnKind = iota
	Categorical
)

// EncodedColumn describes how one raw column maps to feature columns.
type EncodedColumn struct {
	Name   string
	Kind   ColumnKind
	Levels []string // categorical levels in lexical order
}

// Width is the number of feature columns produced.
func (c EncodedColumn) Width() int {
	if c.Kind == Categorical {
		return len(c.Levels)
	}
	return 1
}

// Encoder turns raw encounter columns into a dense feature matrix: numeric
// columns are kept as-is and categorical columns expand to one indicator per
// level. It is fitted once on training rows and reused for test and hold-out
// rows so all of them share the same feature layout.
type Encoder struct {
	Columns []EncodedColumn
}

// FitEncoder infers column kinds and levels from ds. A column is numeric when
// every non-missing cell parses as a number.
func FitEncoder(ds *Dataset, columns []string) (*Encoder, error) {
	encoder := &Encoder{Columns: make([]EncodedColumn, 0, len(columns))}
	for _, name := range columns {
		cells, err := ds.Column(name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		numeric := true
		levels := NewLevels()
		for _, cell := range cells {
			levels.Add(cell)
			if numeric && !IsMissing(cell) {
				if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
					numeric = false
				}
			}
		}
		if levels.Len() == 0 {
			return nil, errors.Errorf("column %q has no values", name)
		}
		if numeric {
			encoder.Columns = append(encoder.Columns, EncodedColumn{Name: name, Kind: Numeric})
		} else {
			encoder.Columns = append(encoder.Columns, EncodedColumn{Name: name, Kind: Categorical, Levels: levels.Sorted()})
		}
	}
	return encoder, nil
}

// Features returns the names of the encoded columns. Indicator columns are named
// "column=level".
func (e *Encoder) Features() []string {
	var features []string
	for _, column := range e.Columns {
		if column.Kind == Categorical {
			for _, level := range column.Levels {
				features = append(features, column.Name+"="+level)
			}
		} else {
			features = append(features, column.Name)
		}
	}
	return features
}

// SourceColumns returns the raw columns the encoder reads.
func (e *Encoder) SourceColumns() []string {
	names := make([]string, len(e.Columns))
	for i, column := range e.Columns {
		names[i] = column.Name
	}
	return names
}

// Transform encodes ds. Every fitted column must be present, otherwise
// ErrSchemaMismatch is returned. Missing cells become NaN. Levels not seen at fit
// time encode as all-zero indicators and are counted per column in unseen.
func (e *Encoder) Transform(ds *Dataset) (x *mat.Dense, unseen map[string]int, err error) {
	width := 0
	for _, column := range e.Columns {
		if !ds.HasColumn(column.Name) {
			return nil, nil, errors.Annotatef(ErrSchemaMismatch, "column %q required by the encoder", column.Name)
		}
		width += column.Width()
	}
	rows := ds.Count()
	if rows == 0 || width == 0 {
		return nil, nil, errors.Errorf("cannot encode %d rows into %d features", rows, width)
	}
	x = mat.NewDense(rows, width, nil)
	unseen = make(map[string]int)
	offset := 0
	for _, column := range e.Columns {
		cells, _ := ds.Column(column.Name)
		switch column.Kind {
		case Numeric:
			for i, cell := range cells {
				if IsMissing(cell) {
					x.Set(i, offset, math.NaN())
					continue
				}
				value, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
				if err != nil {
					return nil, nil, errors.Annotatef(err, "column %q row %d", column.Name, i)
				}
				x.Set(i, offset, value)
			}
		case Categorical:
			index := make(map[string]int, len(column.Levels))
			for k, level := range column.Levels {
				index[level] = k
			}
			for i, cell := range cells {
				if IsMissing(cell) {
					for k := range column.Levels {
						x.Set(i, offset+k, math.NaN())
					}
					continue
				}
				if k, exist := index[strings.TrimSpace(cell)]; exist {
					x.Set(i, offset+k, 1)
				} else {
					unseen[column.Name]++
				}
			}
		}
		offset += column.Width()
	}
	return x, unseen, nil
}
