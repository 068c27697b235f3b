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
	"strings"

	"github.com/rowpipe/rowpipe/graph"
	"github.com/rowpipe/rowpipe/logger"
	"github.com/rowpipe/rowpipe/query"
	"github.com/rowpipe/rowpipe/schema"
)

// sortBufferSize bounds the memory a single sort operation may use.
const sortBufferSize = 1000000

// Planner compiles a structured query over a service schema into an
// executable pipeline graph. It is a pure transformation: one Planner, one
// query, one resulting graph.
type Planner struct {
	query         *query.Query
	serviceFields schema.Schema

	// previewRowLimit caps the rows surfaced to the caller without
	// aborting the underlying computation.
	previewRowLimit int64
	// sourceRowLimit caps the raw input consumed from the service,
	// independent of the query's own LIMIT.
	sourceRowLimit int64

	entryName  string
	resultName string
}

// New creates a planner for the query against the service fields.
func New(q *query.Query, serviceFields schema.Schema) *Planner {
	return &Planner{query: q, serviceFields: serviceFields}
}

// SetPreviewRowLimit caps the rows surfaced to the caller. Zero disables the
// cap.
func (p *Planner) SetPreviewRowLimit(n int64) {
	p.previewRowLimit = n
}

// SetSourceRowLimit caps the raw input rows consumed. Zero disables the cap.
func (p *Planner) SetSourceRowLimit(n int64) {
	p.sourceRowLimit = n
}

// EntryName is the handle of the operator the runtime feeds rows into,
// available after Plan.
func (p *Planner) EntryName() string {
	return p.entryName
}

// ResultName is the handle of the operator the runtime reads results from,
// available after Plan.
func (p *Planner) ResultName() string {
	return p.resultName
}

// Plan compiles the query. Clauses are emitted in the fixed order SQL
// semantics mandate, each operating on the output layout of the previous
// stage.
func (p *Planner) Plan() (*graph.Graph, error) {
	q := p.query
	q.Normalize()

	b := graph.NewBuilder(p.graphName())
	upstream := append(schema.Schema{}, p.serviceFields...)

	// Entry point: one declared field per service schema column.
	entry, err := p.append(b, &graph.Operator{
		Kind:   graph.KindIngest,
		Name:   "Input",
		Config: &graph.IngestConfig{Fields: p.serviceFields},
	})
	if err != nil {
		return nil, err
	}
	p.entryName = entry.Name

	if p.sourceRowLimit > 0 {
		if _, err = p.append(b, rangeOperator("Limit input rows", 0, p.sourceRowLimit)); err != nil {
			return nil, err
		}
	}

	if _, err = p.append(b, p.coercionOperator()); err != nil {
		return nil, err
	}

	constants := q.ConstantFields()
	if len(constants) > 0 {
		if _, err = p.append(b, constantsOperator(constants)); err != nil {
			return nil, err
		}
		for _, f := range constants {
			upstream = append(upstream, schema.Field{
				Name:      f.ConstantName(),
				Type:      f.Value.Type,
				Length:    f.Value.Length,
				Precision: f.Value.Precision,
			})
		}
	}

	// Conditional expressions in the select list, one diamond each.
	for _, f := range q.IifFields() {
		upstream, err = p.appendIifDiamond(b, f.Iif, f.OutputName(), upstream)
		if err != nil {
			return nil, err
		}
	}

	if !q.Where.IsEmpty() {
		upstream, err = p.appendFilterBlock(b, q.Where, "Where filter", upstream)
		if err != nil {
			return nil, err
		}
	}

	// The HAVING clause may reference aggregates not otherwise selected;
	// those requirements are merged before the aggregation is emitted.
	aggFields := q.AggregateFields()
	if q.Having != nil {
		aggFields = mergeHavingAggregates(aggFields, q.Having)
	}
	if len(aggFields) > 0 || len(q.GroupBy) > 0 {
		var op *graph.Operator
		op, upstream, err = p.aggregateOperator(aggFields, q.GroupBy, upstream)
		if err != nil {
			return nil, err
		}
		if _, err = p.append(b, op); err != nil {
			return nil, err
		}
	}

	// Conditional expressions appearing only in the ORDER BY list.
	for _, o := range q.OrderBy {
		if o.Iif == nil {
			continue
		}
		outputName := o.Name
		if o.Alias != "" {
			outputName = o.Alias
		}
		upstream, err = p.appendIifDiamond(b, o.Iif, outputName, upstream)
		if err != nil {
			return nil, err
		}
	}

	if q.Having != nil && !q.Having.Predicate.IsEmpty() {
		upstream, err = p.appendFilterBlock(b, q.Having.Predicate, "Having filter", upstream)
		if err != nil {
			return nil, err
		}
	}

	if q.Distinct {
		if _, err = p.append(b, dedupOperator(q.Fields, upstream)); err != nil {
			return nil, err
		}
	}

	if len(q.OrderBy) > 0 {
		var op *graph.Operator
		op, err = p.sortOperator(upstream)
		if err != nil {
			return nil, err
		}
		if _, err = p.append(b, op); err != nil {
			return nil, err
		}
	}

	if len(q.Fields) > 0 {
		if _, err = p.append(b, projectOperator(q.Fields)); err != nil {
			return nil, err
		}
	}

	if q.Limit != nil {
		if _, err = p.append(b, rangeOperator("Limit rows", q.Limit.Offset, q.Limit.Rows)); err != nil {
			return nil, err
		}
	}

	if p.previewRowLimit > 0 {
		if _, err = p.append(b, rangeOperator("Sample rows", 0, p.previewRowLimit)); err != nil {
			return nil, err
		}
	}

	result, err := p.append(b, &graph.Operator{
		Kind:   graph.KindCollector,
		Name:   "RESULT",
		Config: &graph.CollectorConfig{},
	})
	if err != nil {
		return nil, err
	}
	p.resultName = result.Name

	g := b.Graph()
	g.SetEntryName(p.entryName)
	g.SetResultName(p.resultName)
	return g, nil
}

func (p *Planner) append(b *graph.Builder, op *graph.Operator) (*graph.Operator, error) {
	appended, err := b.Append(op)
	if err != nil {
		return nil, err
	}
	logger.Debug("planner: emitted %s operator %q", op.Kind, op.Name)
	return appended, nil
}

// graphName labels the plan with the service name and the query text,
// newlines flattened to spaces.
func (p *Planner) graphName() string {
	text := p.query.ServiceName + " - SQL - " + p.query.Statement
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, text)
}

// rangeOperator admits rows offset+1..offset+count.
func rangeOperator(name string, offset, count int64) *graph.Operator {
	return &graph.Operator{
		Kind:   graph.KindRangeSample,
		Name:   name,
		Config: &graph.RangeConfig{First: offset + 1, Last: offset + count},
	}
}

// coercionOperator re-asserts each field's conversion mask and widens
// integer fields aggregated with AVG to floating, so averaging does not
// truncate. All other fields keep their type.
func (p *Planner) coercionOperator() *graph.Operator {
	changes := make([]graph.MetaChange, len(p.serviceFields))
	for i, f := range p.serviceFields {
		changes[i] = graph.MetaChange{
			Name: f.Name,
			Type: p.coercedType(f),
			Mask: f.ConversionMask,
		}
	}
	return &graph.Operator{
		Kind:   graph.KindTypeCoercion,
		Name:   "Set conversion",
		Config: &graph.CoercionConfig{Changes: changes},
	}
}

func (p *Planner) coercedType(f schema.Field) schema.FieldType {
	if f.Type != schema.TypeInteger {
		return schema.TypeNone
	}
	for _, agg := range p.query.AggregateFields() {
		if agg.Aggregation == query.Avg && !agg.IsConstant() && agg.Name == f.Name {
			return schema.TypeNumber
		}
	}
	return schema.TypeNone
}

func constantsOperator(fields []query.SelectField) *graph.Operator {
	config := &graph.ConstantConfig{Fields: make([]graph.ConstantField, len(fields))}
	for i, f := range fields {
		lit := f.Value
		config.Fields[i] = graph.ConstantField{
			Name:      f.ConstantName(),
			Type:      lit.Type,
			Value:     lit.String(),
			Format:    lit.Mask,
			Length:    lit.Length,
			Precision: lit.Precision,
			Decimal:   lit.Decimal,
			Group:     lit.Group,
		}
	}
	return &graph.Operator{Kind: graph.KindConstant, Name: "Constants", Config: config}
}

// appendFilterBlock emits the predicate filter. Date-to-string conversions
// the predicate needs are materialized first and dropped right after, so the
// temporary fields never leak downstream.
func (p *Planner) appendFilterBlock(b *graph.Builder, pred *query.Predicate, name string, upstream schema.Schema) (schema.Schema, error) {
	conversions := pred.DateConversions()
	if len(conversions) > 0 {
		op := &graph.Operator{
			Kind:   graph.KindDateFormat,
			Name:   name + " - DateToStr",
			Config: &graph.DateFormatConfig{Conversions: conversions},
		}
		if _, err := p.append(b, op); err != nil {
			return upstream, err
		}
		for _, conv := range conversions {
			upstream = append(upstream, schema.Field{Name: conv.Result, Type: schema.TypeString})
		}
	}

	filter := &graph.Operator{
		Kind: graph.KindFilter,
		Name: name,
		Config: &graph.FilterConfig{
			Expression: pred.RuntimeExpression(),
			Condition:  pred.Condition(),
		},
	}
	if _, err := p.append(b, filter); err != nil {
		return upstream, err
	}

	if len(conversions) > 0 {
		names := make([]string, len(conversions))
		for i, conv := range conversions {
			names[i] = conv.Result
		}
		op := &graph.Operator{
			Kind:   graph.KindFieldRemoval,
			Name:   name + " - Remove temporary fields",
			Config: &graph.FieldRemovalConfig{Fields: names},
		}
		if _, err := p.append(b, op); err != nil {
			return upstream, err
		}
		upstream = upstream[:len(upstream)-len(conversions)]
	}
	return upstream, nil
}

// mergeHavingAggregates folds the aggregates a HAVING predicate references
// into the aggregate set, skipping ones already selected.
func mergeHavingAggregates(aggFields []query.SelectField, having *query.Having) []query.SelectField {
	for _, h := range having.Aggregates {
		exists := false
		for _, f := range aggFields {
			if f.OutputName() == h.OutputName() {
				exists = true
				break
			}
		}
		if !exists {
			aggFields = append(aggFields, h)
		}
	}
	return aggFields
}

// aggregateOperator builds the grouping stage and the row layout it leaves
// behind: group keys first, aggregate outputs after.
func (p *Planner) aggregateOperator(aggFields []query.SelectField, groupFields []string, upstream schema.Schema) (*graph.Operator, schema.Schema, error) {
	config := &graph.AggregateConfig{GroupFields: groupFields}
	out := schema.Schema{}

	for _, name := range groupFields {
		f, ok := upstream.Search(name)
		if !ok {
			return nil, nil, newPlanError(ErrSchemaResolution, "unable to find group field: %s", name)
		}
		out = append(out, f)
	}

	for _, f := range aggFields {
		subject, err := p.aggregateSubject(f, upstream)
		if err != nil {
			return nil, nil, err
		}

		var aggType graph.AggregateType
		switch f.Aggregation {
		case query.Sum:
			aggType = graph.AggSum
		case query.Min:
			aggType = graph.AggMin
		case query.Max:
			aggType = graph.AggMax
		case query.Avg:
			aggType = graph.AggAvg
		case query.Count:
			switch {
			case f.CountStar:
				aggType = graph.AggCountAny
			case f.CountDistinct:
				aggType = graph.AggCountDistinct
			default:
				aggType = graph.AggCountAll
			}
			// Counting an empty group must yield zero, not an absent
			// row.
			config.AlwaysReturnRow = true
		default:
			return nil, nil, newPlanError(ErrUnsupportedAggregation, "unhandled aggregation method [%s]", f.Aggregation)
		}

		config.Aggregates = append(config.Aggregates, graph.Aggregate{
			Subject:    subject,
			Type:       aggType,
			OutputName: f.OutputName(),
		})
		out = append(out, schema.Field{
			Name: f.OutputName(),
			Type: aggregateOutputType(f.Aggregation, subject, upstream),
		})
	}

	op := &graph.Operator{Kind: graph.KindAggregate, Name: "Group by", Config: config}
	return op, out, nil
}

// aggregateSubject resolves what an aggregate computes over: its injected
// constant, the first upstream field for a subject-less COUNT(*), or the
// named field.
func (p *Planner) aggregateSubject(f query.SelectField, upstream schema.Schema) (string, error) {
	if f.IsConstant() {
		return f.ConstantName(), nil
	}
	if f.CountStar || f.Name == "" {
		if len(upstream) == 0 {
			return "", newPlanError(ErrEmptyAggregationSubject, "no fields found to aggregate on")
		}
		return upstream[0].Name, nil
	}
	return f.Name, nil
}

func aggregateOutputType(agg query.AggregationType, subject string, upstream schema.Schema) schema.FieldType {
	switch agg {
	case query.Count:
		return schema.TypeInteger
	case query.Avg:
		return schema.TypeNumber
	default:
		if f, ok := upstream.Search(subject); ok {
			return f.Type
		}
		return schema.TypeNone
	}
}

// dedupOperator implements DISTINCT as a uniqueness pass grouped on every
// selected field, preferring an alias when it resolves in the upstream
// layout.
func dedupOperator(fields []query.SelectField, upstream schema.Schema) *graph.Operator {
	keys := make([]string, len(fields))
	for i, f := range fields {
		if f.Alias != "" && upstream.Contains(f.Alias) {
			keys[i] = f.Alias
		} else {
			keys[i] = f.Name
		}
	}
	return &graph.Operator{
		Kind:   graph.KindDedup,
		Name:   "DISTINCT",
		Config: &graph.DedupConfig{GroupFields: keys},
	}
}

// sortOperator resolves each order field against the upstream layout,
// falling back to select-list aliases, and fails when nothing resolves.
func (p *Planner) sortOperator(upstream schema.Schema) (*graph.Operator, error) {
	orderFields := p.query.OrderBy
	selectFields := p.query.Fields

	config := &graph.SortConfig{BufferSize: sortBufferSize}
	for _, o := range orderFields {
		f, ok := upstream.Search(o.Name)
		if !ok {
			// The order name may be an alias; map it back through the
			// select list to the original field name, or try the alias
			// directly.
			if sf := query.SearchByFieldOrAlias(selectFields, o.Name); sf != nil {
				f, ok = upstream.Search(sf.Name)
			} else {
				f, ok = upstream.Search(o.Alias)
			}
		}
		if !ok {
			return nil, newPlanError(ErrSchemaResolution,
				"unable to find field to sort on: %s nor the alias: %s", o.Name, o.Alias)
		}
		config.Fields = append(config.Fields, graph.SortField{
			Name:          f.Name,
			Ascending:     o.Ascending,
			CaseSensitive: true,
		})
	}
	return &graph.Operator{Kind: graph.KindSort, Name: "Sort rows", Config: config}, nil
}

func projectOperator(fields []query.SelectField) *graph.Operator {
	config := &graph.ProjectConfig{
		Names:   make([]string, len(fields)),
		Renames: make([]string, len(fields)),
	}
	for i := range fields {
		f := &fields[i]
		switch f.Kind() {
		case query.FieldAggregate, query.FieldIif:
			// Output names were assigned where the field was produced.
			config.Names[i] = f.OutputName()
		case query.FieldConstant:
			config.Names[i] = f.ConstantName()
			config.Renames[i] = f.OutputName()
		default:
			config.Names[i] = f.Name
			config.Renames[i] = f.Alias
		}
	}
	return &graph.Operator{Kind: graph.KindProject, Name: "Select values", Config: config}
}
