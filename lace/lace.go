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

// Package lace computes the LACE index, a 0 to 19 point score of the risk of
// death or unplanned readmission within 30 days of discharge.
package lace

import (
	"math"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// MaxScore is the highest attainable LACE index.
const MaxScore = 19

// Components are the four inputs of the LACE index.
type Components struct {
	LengthOfStay float64 // days
	Emergent     bool    // acuity of admission
	Charlson     int     // Charlson comorbidity index
	EDVisits     int     // emergency department visits in the previous six months
}

// LengthOfStayPoints scores the length of stay in days.
func LengthOfStayPoints(days float64) int {
	switch {
	case days < 1:
		return 0
	case days < 4:
		return int(math.Floor(days))
	case days < 7:
		return 4
	case days < 14:
		return 5
	default:
		return 7
	}
}

// AcuityPoints scores an emergent admission.
func AcuityPoints(emergent bool) int {
	if emergent {
		return 3
	}
	return 0
}

// CharlsonPoints scores the Charlson comorbidity index.
func CharlsonPoints(charlson int) int {
	switch {
	case charlson <= 0:
		return 0
	case charlson < 4:
		return charlson
	default:
		return 5
	}
}

// EDVisitPoints scores emergency department visits.
func EDVisitPoints(visits int) int {
	switch {
	case visits <= 0:
		return 0
	case visits < 4:
		return visits
	default:
		return 4
	}
}

// Score computes the LACE index.
func Score(c Components) int {
	return LengthOfStayPoints(c.LengthOfStay) +
		AcuityPoints(c.Emergent) +
		CharlsonPoints(c.Charlson) +
		EDVisitPoints(c.EDVisits)
}

// ParseAcuity reads an acuity cell. Numeric cells are flags, anything else
// is matched against the usual emergent spellings.
func ParseAcuity(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v != 0, nil
	}
	switch strings.ToLower(s) {
	case "emergent", "emergency", "urgent", "e", "y", "yes", "true":
		return true, nil
	case "elective", "planned", "n", "no", "false":
		return false, nil
	}
	return false, errors.Errorf("unknown acuity %q", s)
}
