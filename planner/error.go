/*
 * Copyright 2025 The RowPipe Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package planner

import (
	"errors"
	"fmt"
)

// ErrorKind classifies plan compilation failures.
type ErrorKind int

const (
	// ErrSchemaResolution: a referenced field or alias cannot be found.
	ErrSchemaResolution ErrorKind = iota
	// ErrUnsupportedAggregation: an aggregation kind outside the known set.
	ErrUnsupportedAggregation
	// ErrEmptyAggregationSubject: a subject-less aggregate against an empty
	// schema.
	ErrEmptyAggregationSubject
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSchemaResolution:
		return "SCHEMA_RESOLUTION"
	case ErrUnsupportedAggregation:
		return "UNSUPPORTED_AGGREGATION"
	case ErrEmptyAggregationSubject:
		return "EMPTY_AGGREGATION_SUBJECT"
	default:
		return "UNKNOWN"
	}
}

// PlanError is the single failure value of a compilation. No partial plan
// accompanies it; compilation is deterministic and re-invocable with
// corrected input.
type PlanError struct {
	Kind    ErrorKind
	Message string
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func newPlanError(kind ErrorKind, format string, args ...interface{}) *PlanError {
	return &PlanError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind from a compilation error.
func KindOf(err error) (ErrorKind, bool) {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}
