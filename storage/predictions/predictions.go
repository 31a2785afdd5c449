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

package predictions

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/juju/errors"
	"github.com/parquet-go/parquet-go"
)

const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Prediction is the readmission probability of one hold-out encounter.
type Prediction struct {
	Row         int64   `parquet:"row"`
	Id          string  `parquet:"id"`
	Model       string  `parquet:"model"`
	Probability float64 `parquet:"probability"`
}

var csvHeader = []string{"row", "id", "model", "probability"}

// FileName returns the blob name of a prediction file in a format.
func FileName(format string) string {
	return "predictions." + format
}

// New aligns probabilities with hold-out rows. ids may be nil.
func New(model string, ids []string, probabilities []float64) ([]Prediction, error) {
	if ids != nil && len(ids) != len(probabilities) {
		return nil, errors.Errorf("%d ids for %d predictions", len(ids), len(probabilities))
	}
	rows := make([]Prediction, len(probabilities))
	for i, p := range probabilities {
		rows[i] = Prediction{Row: int64(i), Model: model, Probability: p}
		if ids != nil {
			rows[i].Id = ids[i]
		}
	}
	return rows, nil
}

// Write encodes predictions in a format.
func Write(w io.Writer, format string, rows []Prediction) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatParquet:
		return WriteParquet(w, rows)
	default:
		return errors.NotSupportedf("prediction format %q", format)
	}
}

// WriteCSV writes predictions with a header row. Probabilities keep full precision.
func WriteCSV(w io.Writer, rows []Prediction) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return errors.Trace(err)
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			strconv.FormatInt(row.Row, 10),
			row.Id,
			row.Model,
			strconv.FormatFloat(row.Probability, 'g', -1, 64),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	writer.Flush()
	return errors.Trace(writer.Error())
}

// ReadCSV reads predictions written by WriteCSV.
func ReadCSV(r io.Reader) ([]Prediction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(records) == 0 {
		return nil, errors.New("missing header")
	}
	rows := make([]Prediction, 0, len(records)-1)
	for i, record := range records[1:] {
		var row Prediction
		if row.Row, err = strconv.ParseInt(record[0], 10, 64); err != nil {
			return nil, errors.Annotatef(err, "line %d", i+2)
		}
		row.Id = record[1]
		row.Model = record[2]
		if row.Probability, err = strconv.ParseFloat(record[3], 64); err != nil {
			return nil, errors.Annotatef(err, "line %d", i+2)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteParquet writes predictions as a Snappy compressed parquet file.
func WriteParquet(w io.Writer, rows []Prediction) error {
	writer := parquet.NewGenericWriter[Prediction](w,
		parquet.Compression(&parquet.Snappy),
	)
	if _, err := writer.Write(rows); err != nil {
		return errors.Annotate(err, "failed to write parquet rows")
	}
	return errors.Annotate(writer.Close(), "failed to close parquet writer")
}

// ReadParquet reads predictions written by WriteParquet.
func ReadParquet(r io.ReaderAt, size int64) ([]Prediction, error) {
	rows, err := parquet.Read[Prediction](r, size)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return rows, nil
}
