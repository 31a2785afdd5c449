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

package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/readmit-io/readmit/model"
	"github.com/readmit-io/readmit/model/search"
)

// Table renders results as text tables.
type Table struct {
	w           io.Writer
	topFeatures int
	curvePoints int
}

// NewTable creates a table reporter showing the topFeatures most important
// features of every model and curvePoints points of the baseline ROC curve.
func NewTable(w io.Writer, topFeatures, curvePoints int) *Table {
	return &Table{w: w, topFeatures: topFeatures, curvePoints: curvePoints}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func (t *Table) render(header []any, rows [][]string) error {
	table := tablewriter.NewWriter(t.w)
	table.Header(header...)
	if err := table.Bulk(rows); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(table.Render())
}

func (t *Table) Baseline(score model.Score) error {
	if _, err := fmt.Fprintf(t.w, "LACE baseline AUC: %s\n", formatFloat(score.AUC)); err != nil {
		return errors.Trace(err)
	}
	curve := SampleCurve(score.Curve, t.curvePoints)
	rows := make([][]string, len(curve.FPR))
	for i := range curve.FPR {
		rows[i] = []string{formatFloat(curve.Thresholds[i]), formatFloat(curve.FPR[i]), formatFloat(curve.TPR[i])}
	}
	return t.render([]any{"threshold", "fpr", "tpr"}, rows)
}

func (t *Table) Scores(scores []ModelScore) error {
	rows := make([][]string, len(scores))
	for i, score := range scores {
		selected := ""
		if score.Selected {
			selected = "*"
		}
		rows[i] = []string{string(score.Kind), formatFloat(score.AUC), selected}
	}
	return t.render([]any{"model", "test auc", "selected"}, rows)
}

func (t *Table) Importance(kind model.Kind, ranked []model.Importance) error {
	if t.topFeatures > 0 && len(ranked) > t.topFeatures {
		ranked = ranked[:t.topFeatures]
	}
	rows := make([][]string, len(ranked))
	for i, importance := range ranked {
		rows[i] = []string{strconv.Itoa(i + 1), importance.Feature, formatFloat(importance.Score)}
	}
	if _, err := fmt.Fprintf(t.w, "Feature importance (%s)\n", kind); err != nil {
		return errors.Trace(err)
	}
	return t.render([]any{"#", "feature", "importance"}, rows)
}

func (t *Table) Audit(with, without float64) error {
	return t.render([]any{"leakage columns", "test auc"}, [][]string{
		{"kept", formatFloat(with)},
		{"removed", formatFloat(without)},
	})
}

func (t *Table) Tuning(result search.Result) error {
	rows := [][]string{
		{"model", string(result.Kind)},
		{"validation auc", formatFloat(result.AUC)},
		{"trials", strconv.Itoa(result.Trials)},
	}
	for _, name := range result.Params.Names() {
		rows = append(rows, []string{string(name), fmt.Sprint(result.Params[name])})
	}
	return t.render([]any{"best", "value"}, rows)
}
