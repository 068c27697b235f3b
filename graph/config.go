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

package graph

import (
	"fmt"
	"strings"

	"github.com/rowpipe/rowpipe/condition"
	"github.com/rowpipe/rowpipe/schema"
)

// Config is the kind-specific configuration of an operator. The set of
// implementations is closed; the runtime dispatches on the concrete type.
type Config interface {
	Kind() OperatorKind
	// Summary renders a short human-readable description for explain
	// output.
	Summary() string
}

// IngestConfig declares the fields the entry operator accepts.
type IngestConfig struct {
	Fields schema.Schema
}

func (c *IngestConfig) Kind() OperatorKind { return KindIngest }

func (c *IngestConfig) Summary() string {
	return fmt.Sprintf("fields=%s", strings.Join(c.Fields.Names(), ","))
}

// RangeConfig admits only the rows numbered First..Last (1-based,
// inclusive).
type RangeConfig struct {
	First int64
	Last  int64
}

func (c *RangeConfig) Kind() OperatorKind { return KindRangeSample }

func (c *RangeConfig) Summary() string {
	return fmt.Sprintf("rows=%d..%d", c.First, c.Last)
}

// MetaChange re-asserts one field's conversion mask and optionally rewrites
// its type; TypeNone preserves the original type.
type MetaChange struct {
	Name string
	Type schema.FieldType
	Mask string
}

// CoercionConfig applies per-field metadata changes.
type CoercionConfig struct {
	Changes []MetaChange
}

func (c *CoercionConfig) Kind() OperatorKind { return KindTypeCoercion }

func (c *CoercionConfig) Summary() string {
	var widened []string
	for _, ch := range c.Changes {
		if ch.Type != schema.TypeNone {
			widened = append(widened, fmt.Sprintf("%s->%s", ch.Name, ch.Type))
		}
	}
	if len(widened) == 0 {
		return fmt.Sprintf("changes=%d", len(c.Changes))
	}
	return fmt.Sprintf("changes=%d widened=%s", len(c.Changes), strings.Join(widened, ","))
}

// ConstantField is one literal column a constant operator emits.
type ConstantField struct {
	Name      string
	Type      schema.FieldType
	Value     string
	Format    string
	Length    int
	Precision int
	Decimal   string
	Group     string
}

// ConstantConfig injects literal columns into every row.
type ConstantConfig struct {
	Fields []ConstantField
}

func (c *ConstantConfig) Kind() OperatorKind { return KindConstant }

func (c *ConstantConfig) Summary() string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return fmt.Sprintf("fields=%s", strings.Join(names, ","))
}

// FilterConfig evaluates a compiled predicate per row. When TrueTarget and
// FalseTarget are set the filter forks into two named branches; otherwise
// non-matching rows are discarded.
type FilterConfig struct {
	Expression string
	Condition  condition.Condition

	TrueTarget  string
	FalseTarget string
}

func (c *FilterConfig) Kind() OperatorKind { return KindFilter }

func (c *FilterConfig) Summary() string {
	if c.TrueTarget != "" || c.FalseTarget != "" {
		return fmt.Sprintf("expr=%q true->%s false->%s", c.Expression, c.TrueTarget, c.FalseTarget)
	}
	return fmt.Sprintf("expr=%q", c.Expression)
}

// DerivedFieldConfig emits a new column copied from an existing field,
// preserving its value metadata.
type DerivedFieldConfig struct {
	Field     string
	Source    string
	Type      schema.FieldType
	Length    int
	Precision int
	Mask      string
}

func (c *DerivedFieldConfig) Kind() OperatorKind { return KindDerivedField }

func (c *DerivedFieldConfig) Summary() string {
	return fmt.Sprintf("%s=copy(%s)", c.Field, c.Source)
}

// CollectorConfig merges incoming branches into one stream unchanged. Also
// used for the terminal result marker.
type CollectorConfig struct{}

func (c *CollectorConfig) Kind() OperatorKind { return KindCollector }

func (c *CollectorConfig) Summary() string { return "" }

// DateFormatConfig materializes date-to-string renderings as temporary
// string fields.
type DateFormatConfig struct {
	Conversions []condition.DateConversion
}

func (c *DateFormatConfig) Kind() OperatorKind { return KindDateFormat }

func (c *DateFormatConfig) Summary() string {
	parts := make([]string, len(c.Conversions))
	for i, conv := range c.Conversions {
		parts[i] = fmt.Sprintf("%s=str(%s,%s)", conv.Result, conv.Field, conv.Mask)
	}
	return strings.Join(parts, " ")
}

// FieldRemovalConfig drops the named fields from the stream.
type FieldRemovalConfig struct {
	Fields []string
}

func (c *FieldRemovalConfig) Kind() OperatorKind { return KindFieldRemoval }

func (c *FieldRemovalConfig) Summary() string {
	return fmt.Sprintf("drop=%s", strings.Join(c.Fields, ","))
}

// AggregateType enumerates the aggregate computations of the aggregation
// operator. COUNT splits into three variants depending on its target.
type AggregateType int

const (
	AggSum AggregateType = iota
	AggMin
	AggMax
	AggAvg
	// AggCountAny counts rows unconditionally (COUNT(*)).
	AggCountAny
	// AggCountDistinct counts distinct values of the subject field.
	AggCountDistinct
	// AggCountAll counts non-null occurrences of the subject field.
	AggCountAll
)

// String returns the aggregate type name.
func (t AggregateType) String() string {
	switch t {
	case AggSum:
		return "sum"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggAvg:
		return "avg"
	case AggCountAny:
		return "count-any"
	case AggCountDistinct:
		return "count-distinct"
	case AggCountAll:
		return "count-all"
	default:
		return "unknown"
	}
}

// Aggregate is one aggregate computation: subject field in, named result
// out.
type Aggregate struct {
	Subject    string
	Type       AggregateType
	OutputName string
}

// AggregateConfig groups rows on the group fields and computes the listed
// aggregates. AlwaysReturnRow forces one output row even over zero input
// rows, so counting an empty group yields zero instead of nothing.
type AggregateConfig struct {
	GroupFields     []string
	Aggregates      []Aggregate
	AlwaysReturnRow bool
}

func (c *AggregateConfig) Kind() OperatorKind { return KindAggregate }

func (c *AggregateConfig) Summary() string {
	aggs := make([]string, len(c.Aggregates))
	for i, a := range c.Aggregates {
		aggs[i] = fmt.Sprintf("%s=%s(%s)", a.OutputName, a.Type, a.Subject)
	}
	return fmt.Sprintf("group=[%s] aggs=[%s]", strings.Join(c.GroupFields, ","), strings.Join(aggs, ","))
}

// DedupConfig is a hash-based uniqueness pass grouping on every listed field
// with no aggregates.
type DedupConfig struct {
	GroupFields []string
}

func (c *DedupConfig) Kind() OperatorKind { return KindDedup }

func (c *DedupConfig) Summary() string {
	return fmt.Sprintf("group=[%s]", strings.Join(c.GroupFields, ","))
}

// SortField is one sort key.
type SortField struct {
	Name          string
	Ascending     bool
	CaseSensitive bool
}

// SortConfig orders the stream. BufferSize bounds the memory a single sort
// may use.
type SortConfig struct {
	Fields     []SortField
	BufferSize int
}

func (c *SortConfig) Kind() OperatorKind { return KindSort }

func (c *SortConfig) Summary() string {
	parts := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		dir := "desc"
		if f.Ascending {
			dir = "asc"
		}
		parts[i] = f.Name + " " + dir
	}
	return strings.Join(parts, ",")
}

// ProjectConfig selects and renames the final output fields. Names and
// Renames are parallel; an empty rename keeps the original name.
type ProjectConfig struct {
	Names   []string
	Renames []string
}

func (c *ProjectConfig) Kind() OperatorKind { return KindProject }

func (c *ProjectConfig) Summary() string {
	parts := make([]string, len(c.Names))
	for i, n := range c.Names {
		if i < len(c.Renames) && c.Renames[i] != "" && c.Renames[i] != n {
			parts[i] = n + " as " + c.Renames[i]
		} else {
			parts[i] = n
		}
	}
	return strings.Join(parts, ",")
}
