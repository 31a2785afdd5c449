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

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the relations between sections.
func (config *Config) Validate() error {
	if err := validate.Struct(config); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			messages := lo.Map(fieldErrors, func(e validator.FieldError, _ int) string {
				return e.Namespace() + " must satisfy " + e.Tag() + formatParam(e.Param())
			})
			return errors.NotValidf("config: %s", strings.Join(messages, "; "))
		}
		return errors.Trace(err)
	}
	protected := []string{config.Schema.Outcome, config.Schema.LaceColumn}
	for _, column := range append(config.Schema.LeakageColumns, config.Schema.DropColumns...) {
		if column == config.Schema.Outcome {
			return errors.NotValidf("config: outcome column %q listed as a non-feature column", column)
		}
	}
	if lo.Contains(protected, config.Schema.IdColumn) {
		return errors.NotValidf("config: id column %q collides with the outcome or LACE column", config.Schema.IdColumn)
	}
	return nil
}

func formatParam(param string) string {
	if param == "" {
		return ""
	}
	return "=" + param
}
