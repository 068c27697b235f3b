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

package query

import (
	"gopkg.in/yaml.v3"

	"github.com/rowpipe/rowpipe/condition"
)

// Predicate is a boolean filter expression, compiled when the Predicate is
// created. Date-to-string conversions inside the expression are extracted
// into temporary fields the planner materializes ahead of the filter and
// drops right after it.
type Predicate struct {
	// Expression is the predicate as written.
	Expression string

	// runtime is the expression with date_to_str calls replaced by
	// references to the temporary fields.
	runtime     string
	conversions []condition.DateConversion
	cond        condition.Condition
}

// NewPredicate compiles an expression into a Predicate. An expression that
// does not compile fails here, before any plan is built.
func NewPredicate(expression string) (*Predicate, error) {
	runtime, conversions := condition.ExtractDateConversions(expression)
	cond, err := condition.New(runtime)
	if err != nil {
		return nil, err
	}
	return &Predicate{
		Expression:  expression,
		runtime:     runtime,
		conversions: conversions,
		cond:        cond,
	}, nil
}

// RuntimeExpression is the expression the emitted filter operator evaluates,
// with date conversions rewritten to their temporary field names.
func (p *Predicate) RuntimeExpression() string {
	return p.runtime
}

// DateConversions lists the date-to-string renderings the predicate needs.
func (p *Predicate) DateConversions() []condition.DateConversion {
	return p.conversions
}

// Condition returns the compiled predicate program.
func (p *Predicate) Condition() condition.Condition {
	return p.cond
}

// IsEmpty reports whether there is no predicate text.
func (p *Predicate) IsEmpty() bool {
	return p == nil || p.Expression == ""
}

// UnmarshalYAML decodes a predicate from its expression string and compiles
// it immediately.
func (p *Predicate) UnmarshalYAML(value *yaml.Node) error {
	var expression string
	if err := value.Decode(&expression); err != nil {
		return err
	}
	compiled, err := NewPredicate(expression)
	if err != nil {
		return err
	}
	*p = *compiled
	return nil
}

// MarshalYAML encodes the predicate as its expression string.
func (p *Predicate) MarshalYAML() (interface{}, error) {
	return p.Expression, nil
}
