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
	"fmt"
	"math"
	"strconv"

	"github.com/readmit-io/readmit/base"
	"github.com/readmit-io/readmit/lace"
)

// Column names used by synthetic encounters.
const (
	SyntheticId       = "encounter_id"
	SyntheticOutcome  = "readmitted"
	SyntheticLace     = "lace_score"
	SyntheticMarker   = "risk_marker"
	SyntheticLeakage  = "followup_readmission"
	SyntheticPositive = "Readmit"
)

// SyntheticOptions controls GenerateSynthetic.
type SyntheticOptions struct {
	Rows         int
	Seed         int64
	PositiveRate float64
	// Separable makes the risk marker injective and perfectly predictive:
	// positives fall in [0.5, 1) and negatives in [0, 0.5).
	Separable bool
	// Signal shifts the risk marker of positives when Separable is false.
	Signal float64
	// Leakage adds a column that copies the outcome with a few flips.
	Leakage bool
}

// DefaultSyntheticOptions returns the 1,000 row separable scenario.
func DefaultSyntheticOptions() SyntheticOptions {
	return SyntheticOptions{
		Rows:         1000,
		Seed:         0,
		PositiveRate: 0.3,
		Separable:    true,
		Signal:       1,
	}
}

// GenerateSynthetic creates encounters shaped like a discharge extract:
// demographics, comorbidity flags, utilisation counts, LACE components and
// score, the outcome and an identifier. Every column except the risk marker,
// the length of stay and the optional leakage column is independent of the
// outcome.
func GenerateSynthetic(opt SyntheticOptions) *Dataset {
	rng := base.NewRandomGenerator(opt.Seed)
	header := []string{
		SyntheticId, "age", "sex", "admission_source", "num_medications", "prior_admissions",
		"elix_chf", "elix_copd", "elix_diabetes", "elix_renal",
		"length_of_stay", "acuity", "charlson", "ed_visits", SyntheticLace, SyntheticMarker,
	}
	if opt.Leakage {
		header = append(header, SyntheticLeakage)
	}
	header = append(header, SyntheticOutcome)
	sexes := []string{"F", "M"}
	sources := []string{"ED", "Referral", "Transfer"}
	records := make([][]string, opt.Rows)
	for i := range records {
		positive := rng.Float64() < opt.PositiveRate
		// draw every column on every row so the stream does not depend on options
		age := 18 + rng.Intn(78)
		sex := sexes[rng.Intn(len(sexes))]
		source := sources[rng.Intn(len(sources))]
		medications := rng.Intn(31)
		prior := rng.Intn(6)
		flags := make([]string, 4)
		for k := range flags {
			flags[k] = strconv.Itoa(bernoulli(rng, 0.2))
		}
		stay := math.Floor(math.Exp(rng.NormFloat64()*0.6 + 1))
		if positive {
			stay += float64(1 + rng.Intn(4))
		} else {
			rng.Intn(4)
		}
		emergent := rng.Float64() < 0.6
		charlson := rng.Intn(7)
		visits := rng.Intn(6)
		score := lace.Score(lace.Components{LengthOfStay: stay, Emergent: emergent, Charlson: charlson, EDVisits: visits})
		var marker float64
		u, z := rng.Float64(), rng.NormFloat64()
		if opt.Separable {
			marker = u * 0.5
			if positive {
				marker += 0.5
			}
		} else {
			marker = z
			if positive {
				marker += opt.Signal
			}
		}
		flip := rng.Float64() < 0.02

		record := []string{
			fmt.Sprintf("E%06d", i+1),
			strconv.Itoa(age), sex, source, strconv.Itoa(medications), strconv.Itoa(prior),
			flags[0], flags[1], flags[2], flags[3],
			strconv.FormatFloat(stay, 'f', -1, 64), acuityLabel(emergent), strconv.Itoa(charlson),
			strconv.Itoa(visits), strconv.Itoa(score), strconv.FormatFloat(marker, 'g', -1, 64),
		}
		if opt.Leakage {
			record = append(record, yesNo(positive != flip))
		}
		if positive {
			record = append(record, SyntheticPositive)
		} else {
			record = append(record, "No")
		}
		records[i] = record
	}
	ds, err := NewDataset(header, records)
	if err != nil {
		panic(err)
	}
	return ds
}

func bernoulli(rng base.RandomGenerator, p float64) int {
	if rng.Float64() < p {
		return 1
	}
	return 0
}

func acuityLabel(emergent bool) string {
	if emergent {
		return "Emergent"
	}
	return "Elective"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
