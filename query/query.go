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
	"fmt"

	"github.com/spf13/cast"

	"github.com/rowpipe/rowpipe/schema"
)

// AggregationType names a SQL aggregate function.
type AggregationType string

const (
	Sum   AggregationType = "sum"
	Count AggregationType = "count"
	Avg   AggregationType = "avg"
	Max   AggregationType = "max"
	Min   AggregationType = "min"
)

// FieldKind discriminates the select-field variants.
type FieldKind int

const (
	// FieldPlain is a direct reference to a schema field.
	FieldPlain FieldKind = iota
	// FieldConstant is a literal value in the select list.
	FieldConstant
	// FieldAggregate applies an aggregate function to a field or literal.
	FieldAggregate
	// FieldIif is a conditional (IIF-style) expression.
	FieldIif
)

// Literal is a constant value with its resolved value metadata.
type Literal struct {
	Value     interface{}      `yaml:"value" json:"value"`
	Type      schema.FieldType `yaml:"type" json:"type"`
	Length    int              `yaml:"length,omitempty" json:"length,omitempty"`
	Precision int              `yaml:"precision,omitempty" json:"precision,omitempty"`
	Mask      string           `yaml:"mask,omitempty" json:"mask,omitempty"`
	Decimal   string           `yaml:"decimal,omitempty" json:"decimal,omitempty"`
	Group     string           `yaml:"group,omitempty" json:"group,omitempty"`
}

// String renders the literal value for operator configuration.
func (l *Literal) String() string {
	return cast.ToString(l.Value)
}

// IifValue is one branch outcome of a conditional expression: either a copy
// of an existing field or an injected literal.
type IifValue struct {
	Field   string       `yaml:"field,omitempty"`
	Literal *Literal     `yaml:"literal,omitempty"`
	Meta    schema.Field `yaml:"meta,omitempty"`
}

// IsField reports whether the branch copies an existing field.
func (v IifValue) IsField() bool {
	return v.Field != ""
}

// IifExpr is a conditional select expression: IIF(condition, true, false).
type IifExpr struct {
	// Expression is the original expression text, used to label the
	// operators emitted for this conditional.
	Expression string     `yaml:"expression,omitempty"`
	Condition  *Predicate `yaml:"condition"`
	TrueValue  IifValue   `yaml:"true"`
	FalseValue IifValue   `yaml:"false"`
}

// SelectField is one entry of the select list. Its variant follows from
// which members are set; see Kind.
type SelectField struct {
	Name        string          `yaml:"name,omitempty"`
	Alias       string          `yaml:"alias,omitempty"`
	Aggregation AggregationType `yaml:"aggregation,omitempty"`
	// CountStar and CountDistinct refine a COUNT aggregate.
	CountStar     bool     `yaml:"countStar,omitempty"`
	CountDistinct bool     `yaml:"countDistinct,omitempty"`
	Value         *Literal `yaml:"value,omitempty"`
	Iif           *IifExpr `yaml:"iif,omitempty"`

	// Index is the field's position in the original select list; it is
	// assigned by Query.Normalize and feeds the constant naming scheme.
	Index int `yaml:"-"`
}

// Kind returns the variant of the field.
func (f *SelectField) Kind() FieldKind {
	switch {
	case f.Iif != nil:
		return FieldIif
	case f.Aggregation != "":
		return FieldAggregate
	case f.Value != nil:
		return FieldConstant
	default:
		return FieldPlain
	}
}

// OutputName is the name the field carries in the result set: the alias when
// present, the field name otherwise.
func (f *SelectField) OutputName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// ConstantName is the deterministic name under which a literal field is
// injected into the row stream, so later stages can address it.
func (f *SelectField) ConstantName() string {
	return fmt.Sprintf("Constant_%d_%s", f.Index, f.Name)
}

// IsConstant reports whether the field carries a literal value. This covers
// both constant select fields and aggregates over a literal subject.
func (f *SelectField) IsConstant() bool {
	return f.Value != nil
}

// OrderField is one ORDER BY entry. The name may be a select-list alias; the
// planner resolves it against the upstream row layout. An order field may
// itself be a conditional expression.
type OrderField struct {
	Name      string   `yaml:"name"`
	Alias     string   `yaml:"alias,omitempty"`
	Ascending bool     `yaml:"ascending"`
	Iif       *IifExpr `yaml:"iif,omitempty"`
}

// Limit is a LIMIT/OFFSET clause.
type Limit struct {
	Offset int64 `yaml:"offset"`
	Rows   int64 `yaml:"rows"`
}

// Having is a HAVING clause. Aggregates lists the aggregate fields the
// predicate references, which may include aggregates absent from the select
// list; the planner merges those into the aggregation stage.
type Having struct {
	Predicate  *Predicate    `yaml:"predicate"`
	Aggregates []SelectField `yaml:"aggregates,omitempty"`
}

// Query is a parsed SQL query against a service schema. Parsing itself is an
// external concern; a Query arrives with field references and literals
// already resolved.
type Query struct {
	ServiceName string        `yaml:"service"`
	Statement   string        `yaml:"statement"`
	Fields      []SelectField `yaml:"fields,omitempty"`
	Where       *Predicate    `yaml:"where,omitempty"`
	GroupBy     []string      `yaml:"groupBy,omitempty"`
	Having      *Having       `yaml:"having,omitempty"`
	OrderBy     []OrderField  `yaml:"orderBy,omitempty"`
	Limit       *Limit        `yaml:"limit,omitempty"`
	Distinct    bool          `yaml:"distinct,omitempty"`
}

// Normalize assigns select-list indexes and derives display names that were
// left implicit. It is idempotent; the planner calls it before compiling.
func (q *Query) Normalize() {
	for i := range q.Fields {
		f := &q.Fields[i]
		f.Index = i
		if f.Name == "" && f.Value != nil {
			f.Name = f.Value.String()
		}
		if f.Iif != nil && f.Iif.Expression == "" {
			f.Iif.Expression = iifExpression(f.Iif)
		}
	}
	for i := range q.OrderBy {
		o := &q.OrderBy[i]
		if o.Iif != nil && o.Iif.Expression == "" {
			o.Iif.Expression = iifExpression(o.Iif)
		}
	}
}

func iifExpression(iif *IifExpr) string {
	condText := ""
	if iif.Condition != nil {
		condText = iif.Condition.Expression
	}
	return fmt.Sprintf("IIF(%s;%s;%s)", condText, iifValueText(iif.TrueValue), iifValueText(iif.FalseValue))
}

func iifValueText(v IifValue) string {
	if v.IsField() {
		return v.Field
	}
	if v.Literal != nil {
		return v.Literal.String()
	}
	return ""
}

// ConstantFields returns the fields that carry a literal value, in select
// order. Aggregates over a literal subject are included: their constants
// must be injected before the aggregation stage can consume them.
func (q *Query) ConstantFields() []SelectField {
	var fields []SelectField
	for _, f := range q.Fields {
		if f.IsConstant() && f.Iif == nil {
			fields = append(fields, f)
		}
	}
	return fields
}

// AggregateFields returns the aggregate entries of the select list.
func (q *Query) AggregateFields() []SelectField {
	var fields []SelectField
	for _, f := range q.Fields {
		if f.Kind() == FieldAggregate {
			fields = append(fields, f)
		}
	}
	return fields
}

// IifFields returns the conditional entries of the select list.
func (q *Query) IifFields() []SelectField {
	var fields []SelectField
	for _, f := range q.Fields {
		if f.Kind() == FieldIif {
			fields = append(fields, f)
		}
	}
	return fields
}

// SearchByFieldOrAlias finds a select field by its name or its alias.
func SearchByFieldOrAlias(fields []SelectField, name string) *SelectField {
	for i := range fields {
		if fields[i].Name == name || fields[i].Alias == name {
			return &fields[i]
		}
	}
	return nil
}
