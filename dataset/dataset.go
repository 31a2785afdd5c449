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
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// ErrSchemaMismatch is returned when a required column is absent.
var ErrSchemaMismatch = errors.New("schema mismatch")

var missingTokens = mapset.NewSet("", "NA", "N/A", "NaN", "NULL", "null", "?")

// IsMissing reports whether a raw cell is a missing value.
func IsMissing(s string) bool {
	return missingTokens.Contains(strings.TrimSpace(s))
}

// Dataset is an immutable table of encounters: one record per inpatient stay,
// addressed by row position. Cells are kept as raw strings and typed on demand.
type Dataset struct {
	header  []string
	records [][]string
	index   map[string]int
}

// NewDataset creates a dataset. Every record must have one cell per header column.
func NewDataset(header []string, records [][]string) (*Dataset, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, exist := index[name]; exist {
			return nil, errors.Errorf("duplicate column %q", name)
		}
		index[name] = i
	}
	for i, record := range records {
		if len(record) != len(header) {
			return nil, errors.Errorf("record %d has %d fields, expected %d", i, len(record), len(header))
		}
	}
	return &Dataset{header: header, records: records, index: index}, nil
}

// LoadCSV reads a dataset from a CSV file with a header row.
func LoadCSV(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	ds, err := ReadCSV(file)
	if err != nil {
		return nil, errors.Annotatef(err, "read %s", path)
	}
	return ds, nil
}

// ReadCSV reads a dataset from CSV with a header row.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = false
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Annotate(err, "read header")
	}
	header = lo.Map(header, func(name string, i int) string {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		return strings.TrimSpace(name)
	})
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return NewDataset(header, records)
}

// WriteCSV writes the dataset with its header row.
func (d *Dataset) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(d.header); err != nil {
		return errors.Trace(err)
	}
	if err := writer.WriteAll(d.records); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(writer.Error())
}

// Count returns the number of records.
func (d *Dataset) Count() int {
	return len(d.records)
}

// Header returns the column names.
func (d *Dataset) Header() []string {
	return d.header
}

// HasColumn reports whether the column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, exist := d.index[name]
	return exist
}

// Column returns the raw cells of a column.
func (d *Dataset) Column(name string) ([]string, error) {
	j, exist := d.index[name]
	if !exist {
		return nil, errors.Annotatef(ErrSchemaMismatch, "column %q not found", name)
	}
	values := make([]string, len(d.records))
	for i, record := range d.records {
		values[i] = record[j]
	}
	return values, nil
}

// Float64s parses a numeric column. Missing cells become NaN.
func (d *Dataset) Float64s(name string) ([]float64, error) {
	cells, err := d.Column(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	values := make([]float64, len(cells))
	for i, cell := range cells {
		if IsMissing(cell) {
			values[i] = math.NaN()
			continue
		}
		if values[i], err = strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
			return nil, errors.Annotatef(err, "column %q row %d", name, i)
		}
	}
	return values, nil
}

// Subset returns the records at indices, in the given order.
func (d *Dataset) Subset(indices []int) *Dataset {
	records := make([][]string, len(indices))
	for i, index := range indices {
		records[i] = d.records[index]
	}
	return &Dataset{header: d.header, records: records, index: d.index}
}

// Drop returns a dataset without the named columns. Absent columns are ignored.
func (d *Dataset) Drop(names ...string) *Dataset {
	dropped := mapset.NewSet(names...)
	keep := make([]int, 0, len(d.header))
	for j, name := range d.header {
		if !dropped.Contains(name) {
			keep = append(keep, j)
		}
	}
	if len(keep) == len(d.header) {
		return d
	}
	header := lo.Map(keep, func(j int, _ int) string { return d.header[j] })
	records := make([][]string, len(d.records))
	for i, record := range d.records {
		records[i] = lo.Map(keep, func(j int, _ int) string { return record[j] })
	}
	ds, _ := NewDataset(header, records)
	return ds
}

// WithColumn returns a dataset with an extra column appended, or with the
// column replaced if it already exists.
func (d *Dataset) WithColumn(name string, values []string) (*Dataset, error) {
	if len(values) != len(d.records) {
		return nil, errors.Errorf("column %q has %d values, expected %d", name, len(values), len(d.records))
	}
	if j, exist := d.index[name]; exist {
		records := make([][]string, len(d.records))
		for i, record := range d.records {
			records[i] = append([]string(nil), record...)
			records[i][j] = values[i]
		}
		return &Dataset{header: d.header, records: records, index: d.index}, nil
	}
	header := append(append([]string(nil), d.header...), name)
	records := make([][]string, len(d.records))
	for i, record := range d.records {
		records[i] = append(append(make([]string, 0, len(header)), record...), values[i])
	}
	return NewDataset(header, records)
}

// Labels maps the outcome column to booleans: the positive level is true and every
// other level false. Missing outcomes are an error since the label is required.
func (d *Dataset) Labels(column, positive string) ([]bool, error) {
	cells, err := d.Column(column)
	if err != nil {
		return nil, errors.Trace(err)
	}
	labels := make([]bool, len(cells))
	for i, cell := range cells {
		if IsMissing(cell) {
			return nil, errors.Errorf("missing outcome %q at row %d", column, i)
		}
		labels[i] = strings.TrimSpace(cell) == positive
	}
	return labels, nil
}
