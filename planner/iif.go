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
	"github.com/rowpipe/rowpipe/graph"
	"github.com/rowpipe/rowpipe/query"
	"github.com/rowpipe/rowpipe/schema"
)

// appendIifDiamond expands one conditional expression into four operators: a
// forking filter, a value operator per branch, and a collector merging the
// branches back into one stream carrying the new field. Diamonds chain
// serially after the previous stage.
func (p *Planner) appendIifDiamond(b *graph.Builder, iif *query.IifExpr, outputName string, upstream schema.Schema) (schema.Schema, error) {
	if iif.Condition == nil {
		return upstream, newPlanError(ErrSchemaResolution,
			"conditional expression %q has no predicate", iif.Expression)
	}

	trueName := "TRUE: " + iif.Expression
	falseName := "FALSE: " + iif.Expression

	filter := &graph.Operator{
		Kind: graph.KindFilter,
		Name: iif.Expression,
		Config: &graph.FilterConfig{
			Expression:  iif.Condition.RuntimeExpression(),
			Condition:   iif.Condition.Condition(),
			TrueTarget:  trueName,
			FalseTarget: falseName,
		},
	}
	if _, err := p.append(b, filter); err != nil {
		return upstream, err
	}

	trueOp := branchOperator(trueName, iif.TrueValue, outputName)
	if _, err := b.AppendAfter(trueOp, filter); err != nil {
		return upstream, err
	}

	falseOp := branchOperator(falseName, iif.FalseValue, outputName)
	if _, err := b.AppendAfter(falseOp, filter); err != nil {
		return upstream, err
	}

	collect := &graph.Operator{
		Kind:   graph.KindCollector,
		Name:   "Collect: " + iif.Expression,
		Config: &graph.CollectorConfig{},
	}
	if _, err := b.AppendAfter(collect, trueOp); err != nil {
		return upstream, err
	}
	b.Join(falseOp, collect)

	meta := branchMeta(iif.TrueValue)
	return append(upstream, schema.Field{
		Name:      outputName,
		Type:      meta.Type,
		Length:    meta.Length,
		Precision: meta.Precision,
	}), nil
}

// branchOperator produces the output field on one branch: a copy of a
// source field when the branch value is a reference, an injected literal
// otherwise. Either way the branch value's metadata is preserved.
func branchOperator(name string, value query.IifValue, outputName string) *graph.Operator {
	meta := branchMeta(value)
	if value.IsField() {
		return &graph.Operator{
			Kind: graph.KindDerivedField,
			Name: name,
			Config: &graph.DerivedFieldConfig{
				Field:     outputName,
				Source:    value.Field,
				Type:      meta.Type,
				Length:    meta.Length,
				Precision: meta.Precision,
				Mask:      meta.ConversionMask,
			},
		}
	}

	field := graph.ConstantField{
		Name:      outputName,
		Type:      meta.Type,
		Format:    meta.ConversionMask,
		Length:    meta.Length,
		Precision: meta.Precision,
	}
	if value.Literal != nil {
		field.Value = value.Literal.String()
	}
	return &graph.Operator{
		Kind:   graph.KindConstant,
		Name:   name,
		Config: &graph.ConstantConfig{Fields: []graph.ConstantField{field}},
	}
}

func branchMeta(value query.IifValue) schema.Field {
	meta := value.Meta
	if meta.Type == schema.TypeNone && value.Literal != nil {
		meta.Type = value.Literal.Type
		if meta.Length == 0 {
			meta.Length = value.Literal.Length
		}
		if meta.Precision == 0 {
			meta.Precision = value.Literal.Precision
		}
		if meta.ConversionMask == "" {
			meta.ConversionMask = value.Literal.Mask
		}
	}
	return meta
}
