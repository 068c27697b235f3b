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

package condition

import (
	"fmt"
	"regexp"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Condition is a compiled boolean predicate over a row environment.
// Compilation happens at plan time; evaluation belongs to the runtime that
// executes the emitted pipeline.
type Condition interface {
	Evaluate(env interface{}) bool
}

type ExprCondition struct {
	program *vm.Program
}

// New compiles a predicate expression. Besides the expr builtins, predicates
// may use like_match(text, pattern) with SQL LIKE wildcards (% and _) and
// date_to_str(field, mask); the latter must be rewritten to a materialized
// string field with ExtractDateConversions before compiling.
func New(expression string) (Condition, error) {
	options := []expr.Option{
		expr.Function("like_match", func(params ...any) (any, error) {
			if len(params) != 2 {
				return false, fmt.Errorf("like_match function requires 2 parameters")
			}
			text, ok1 := params[0].(string)
			pattern, ok2 := params[1].(string)
			if !ok1 || !ok2 {
				return false, fmt.Errorf("like_match function requires string parameters")
			}
			return matchesLikePattern(text, pattern), nil
		}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	}

	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, err
	}
	return &ExprCondition{program: program}, nil
}

func (ec *ExprCondition) Evaluate(env interface{}) bool {
	result, err := expr.Run(ec.program, env)
	if err != nil {
		return false
	}
	return result.(bool)
}

// DateConversion is a date-to-string rendering a predicate needs before it
// can be evaluated. The Result field is temporary and must be dropped once
// the predicate has run.
type DateConversion struct {
	Field  string
	Mask   string
	Result string
}

// date_to_str(field, 'mask') with an identifier argument and a quoted mask.
var dateToStrPattern = regexp.MustCompile(`date_to_str\(\s*([A-Za-z_][A-Za-z0-9_.]*)\s*,\s*'([^']*)'\s*\)`)

// ExtractDateConversions scans an expression for date_to_str calls and
// rewrites each one into a reference to a temporary string field. The same
// field/mask pair always rewrites to the same temporary name, so repeated
// calls in one predicate share a single conversion.
func ExtractDateConversions(expression string) (string, []DateConversion) {
	var conversions []DateConversion
	seen := make(map[string]string)

	rewritten := dateToStrPattern.ReplaceAllStringFunc(expression, func(call string) string {
		groups := dateToStrPattern.FindStringSubmatch(call)
		field, mask := groups[1], groups[2]
		key := field + "\x00" + mask
		if name, ok := seen[key]; ok {
			return name
		}
		name := fmt.Sprintf("tmp_date_to_str_%d", len(conversions))
		seen[key] = name
		conversions = append(conversions, DateConversion{Field: field, Mask: mask, Result: name})
		return name
	})
	return rewritten, conversions
}

// matchesLikePattern implements SQL LIKE semantics: % matches any character
// sequence, _ matches exactly one character.
func matchesLikePattern(text, pattern string) bool {
	return likeMatch(text, pattern, 0, 0)
}

func likeMatch(text, pattern string, textIndex, patternIndex int) bool {
	if patternIndex >= len(pattern) {
		return textIndex >= len(text)
	}

	if textIndex >= len(text) {
		// Only trailing % wildcards can still match.
		for i := patternIndex; i < len(pattern); i++ {
			if pattern[i] != '%' {
				return false
			}
		}
		return true
	}

	patternChar := pattern[patternIndex]

	if patternChar == '%' {
		if likeMatch(text, pattern, textIndex, patternIndex+1) {
			return true
		}
		for i := textIndex; i < len(text); i++ {
			if likeMatch(text, pattern, i+1, patternIndex+1) {
				return true
			}
		}
		return false
	} else if patternChar == '_' {
		return likeMatch(text, pattern, textIndex+1, patternIndex+1)
	}
	if text[textIndex] == patternChar {
		return likeMatch(text, pattern, textIndex+1, patternIndex+1)
	}
	return false
}
