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
	"sort"
	"strings"
)

// Levels counts the distinct values of a categorical column. Missing cells are
// skipped and surrounding space is ignored.
type Levels struct {
	counts map[string]int
	total  int
}

func NewLevels() *Levels {
	return &Levels{counts: make(map[string]int)}
}

// Add counts one cell.
func (l *Levels) Add(cell string) {
	if IsMissing(cell) {
		return
	}
	l.counts[strings.TrimSpace(cell)]++
	l.total++
}

// Len returns the number of distinct levels.
func (l *Levels) Len() int {
	return len(l.counts)
}

// Total returns the number of non-missing cells counted.
func (l *Levels) Total() int {
	return l.total
}

// Count returns how often level was seen.
func (l *Levels) Count(level string) int {
	return l.counts[level]
}

// Sorted returns the levels in lexical order, which fixes the indicator layout.
func (l *Levels) Sorted() []string {
	sorted := make([]string, 0, len(l.counts))
	for level := range l.counts {
		sorted = append(sorted, level)
	}
	sort.Strings(sorted)
	return sorted
}
