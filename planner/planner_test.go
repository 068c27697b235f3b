package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowpipe/rowpipe/graph"
	"github.com/rowpipe/rowpipe/query"
	"github.com/rowpipe/rowpipe/schema"
)

func salesSchema() schema.Schema {
	return schema.Schema{
		{Name: "state", Type: schema.TypeString, Length: 2},
		{Name: "sales", Type: schema.TypeInteger},
		{Name: "created", Type: schema.TypeDate, ConversionMask: "yyyy-MM-dd"},
	}
}

func mustPredicate(t *testing.T, expression string) *query.Predicate {
	t.Helper()
	p, err := query.NewPredicate(expression)
	require.NoError(t, err)
	return p
}

func compile(t *testing.T, q *query.Query, fields schema.Schema) *graph.Graph {
	t.Helper()
	g, err := New(q, fields).Plan()
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	return g
}

func findConfig(t *testing.T, g *graph.Graph, name string) graph.Config {
	t.Helper()
	op := g.Find(name)
	require.NotNil(t, op, "operator %q not in plan", name)
	return op.Config
}

func TestPlanSimpleSelect(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Statement:   "SELECT state, sales FROM sales",
		Fields:      []query.SelectField{{Name: "state"}, {Name: "sales"}},
	}
	g := compile(t, q, salesSchema())

	assert.Equal(t, []graph.OperatorKind{
		graph.KindIngest,
		graph.KindTypeCoercion,
		graph.KindProject,
		graph.KindCollector,
	}, g.KindSequence())
	assert.NotContains(t, g.KindSequence(), graph.KindAggregate)
	assert.NotContains(t, g.KindSequence(), graph.KindDedup)

	assert.Equal(t, "Input", g.EntryName())
	assert.Equal(t, "RESULT", g.ResultName())

	ingest := findConfig(t, g, "Input").(*graph.IngestConfig)
	assert.Equal(t, []string{"state", "sales", "created"}, ingest.Fields.Names())

	project := findConfig(t, g, "Select values").(*graph.ProjectConfig)
	assert.Equal(t, []string{"state", "sales"}, project.Names)
}

func TestPlanGraphName(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Statement:   "SELECT state\nFROM sales\r\nWHERE sales > 10",
		Fields:      []query.SelectField{{Name: "state"}},
	}
	g := compile(t, q, salesSchema())
	assert.Equal(t, "sales - SQL - SELECT state FROM sales  WHERE sales > 10", g.Name())
}

func TestPlanRowLimits(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields:      []query.SelectField{{Name: "state"}},
		Limit:       &query.Limit{Offset: 10, Rows: 20},
	}
	p := New(q, salesSchema())
	p.SetSourceRowLimit(100)
	p.SetPreviewRowLimit(50)
	g, err := p.Plan()
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	// The source cap sits right after the entry, the preview cap right
	// before the result.
	hops := g.Hops()
	assert.Equal(t, graph.Hop{From: "Input", To: "Limit input rows"}, hops[0])
	assert.Equal(t, graph.Hop{From: "Sample rows", To: "RESULT"}, hops[len(hops)-1])

	source := findConfig(t, g, "Limit input rows").(*graph.RangeConfig)
	assert.Equal(t, &graph.RangeConfig{First: 1, Last: 100}, source)

	limit := findConfig(t, g, "Limit rows").(*graph.RangeConfig)
	assert.Equal(t, &graph.RangeConfig{First: 11, Last: 30}, limit)

	preview := findConfig(t, g, "Sample rows").(*graph.RangeConfig)
	assert.Equal(t, &graph.RangeConfig{First: 1, Last: 50}, preview)
}

func TestPlanAvgWidensIntegerField(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Name: "state"},
			{Name: "sales", Aggregation: query.Avg, Alias: "average"},
		},
		GroupBy: []string{"state"},
	}
	g := compile(t, q, salesSchema())

	coercion := findConfig(t, g, "Set conversion").(*graph.CoercionConfig)
	byName := map[string]graph.MetaChange{}
	for _, ch := range coercion.Changes {
		byName[ch.Name] = ch
	}
	assert.Equal(t, schema.TypeNumber, byName["sales"].Type)
	assert.Equal(t, schema.TypeNone, byName["state"].Type)
	assert.Equal(t, "yyyy-MM-dd", byName["created"].Mask)
}

func TestPlanAvgOnNumberFieldUnchanged(t *testing.T) {
	fields := schema.Schema{
		{Name: "state", Type: schema.TypeString},
		{Name: "sales", Type: schema.TypeNumber},
	}
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Name: "state"},
			{Name: "sales", Aggregation: query.Avg, Alias: "average"},
		},
		GroupBy: []string{"state"},
	}
	g := compile(t, q, fields)

	coercion := findConfig(t, g, "Set conversion").(*graph.CoercionConfig)
	for _, ch := range coercion.Changes {
		assert.Equal(t, schema.TypeNone, ch.Type)
	}
}

func TestPlanWhereFilter(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields:      []query.SelectField{{Name: "state"}},
		Where:       mustPredicate(t, "sales > 10"),
	}
	g := compile(t, q, salesSchema())

	filter := findConfig(t, g, "Where filter").(*graph.FilterConfig)
	assert.Equal(t, "sales > 10", filter.Expression)
	assert.NotNil(t, filter.Condition)
	assert.NotContains(t, g.KindSequence(), graph.KindDateFormat)
	assert.NotContains(t, g.KindSequence(), graph.KindFieldRemoval)
}

func TestPlanWhereDateToStr(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields:      []query.SelectField{{Name: "state"}},
		Where:       mustPredicate(t, `date_to_str(created, 'yyyy') == "2020"`),
	}
	g := compile(t, q, salesSchema())

	// The temporary rendering is materialized before the filter and dropped
	// right after it.
	assert.Equal(t, []graph.OperatorKind{
		graph.KindIngest,
		graph.KindTypeCoercion,
		graph.KindDateFormat,
		graph.KindFilter,
		graph.KindFieldRemoval,
		graph.KindProject,
		graph.KindCollector,
	}, g.KindSequence())

	format := findConfig(t, g, "Where filter - DateToStr").(*graph.DateFormatConfig)
	require.Len(t, format.Conversions, 1)
	assert.Equal(t, "created", format.Conversions[0].Field)
	assert.Equal(t, "yyyy", format.Conversions[0].Mask)
	assert.Equal(t, "tmp_date_to_str_0", format.Conversions[0].Result)

	filter := findConfig(t, g, "Where filter").(*graph.FilterConfig)
	assert.Equal(t, `tmp_date_to_str_0 == "2020"`, filter.Expression)

	removal := findConfig(t, g, "Where filter - Remove temporary fields").(*graph.FieldRemovalConfig)
	assert.Equal(t, []string{"tmp_date_to_str_0"}, removal.Fields)
}

func TestPlanConstants(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Name: "state"},
			{Value: &query.Literal{Value: 1, Type: schema.TypeInteger, Length: 15}},
		},
	}
	g := compile(t, q, salesSchema())

	constants := findConfig(t, g, "Constants").(*graph.ConstantConfig)
	require.Len(t, constants.Fields, 1)
	assert.Equal(t, "Constant_1_1", constants.Fields[0].Name)
	assert.Equal(t, "1", constants.Fields[0].Value)
	assert.Equal(t, schema.TypeInteger, constants.Fields[0].Type)
	assert.Equal(t, 15, constants.Fields[0].Length)

	// The projection restores the display name.
	project := findConfig(t, g, "Select values").(*graph.ProjectConfig)
	assert.Equal(t, []string{"state", "Constant_1_1"}, project.Names)
	assert.Equal(t, []string{"", "1"}, project.Renames)
}

func TestPlanCountStar(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Aggregation: query.Count, CountStar: true, Alias: "cnt"},
		},
	}
	g := compile(t, q, salesSchema())

	agg := findConfig(t, g, "Group by").(*graph.AggregateConfig)
	require.Len(t, agg.Aggregates, 1)
	assert.Equal(t, "state", agg.Aggregates[0].Subject)
	assert.Equal(t, graph.AggCountAny, agg.Aggregates[0].Type)
	assert.Equal(t, "cnt", agg.Aggregates[0].OutputName)
	// Counting zero rows must still produce a zero row.
	assert.True(t, agg.AlwaysReturnRow)
}

func TestPlanCountVariants(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Name: "state"},
			{Name: "sales", Aggregation: query.Count, CountDistinct: true, Alias: "uniq"},
			{Name: "sales", Aggregation: query.Count, Alias: "cnt"},
		},
		GroupBy: []string{"state"},
	}
	g := compile(t, q, salesSchema())

	agg := findConfig(t, g, "Group by").(*graph.AggregateConfig)
	require.Len(t, agg.Aggregates, 2)
	assert.Equal(t, graph.AggCountDistinct, agg.Aggregates[0].Type)
	assert.Equal(t, graph.AggCountAll, agg.Aggregates[1].Type)
	assert.Equal(t, []string{"state"}, agg.GroupFields)
}

func TestPlanAggregateOverConstant(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Aggregation: query.Sum, Value: &query.Literal{Value: 1, Type: schema.TypeInteger}, Alias: "ones"},
		},
	}
	g := compile(t, q, salesSchema())

	// The literal is injected as a constant column first, then aggregated.
	constants := findConfig(t, g, "Constants").(*graph.ConstantConfig)
	require.Len(t, constants.Fields, 1)
	assert.Equal(t, "Constant_0_1", constants.Fields[0].Name)

	agg := findConfig(t, g, "Group by").(*graph.AggregateConfig)
	require.Len(t, agg.Aggregates, 1)
	assert.Equal(t, "Constant_0_1", agg.Aggregates[0].Subject)
	assert.Equal(t, graph.AggSum, agg.Aggregates[0].Type)
}

func TestPlanEmptyAggregationSubject(t *testing.T) {
	q := &query.Query{
		ServiceName: "empty",
		Fields: []query.SelectField{
			{Aggregation: query.Count, CountStar: true, Alias: "cnt"},
		},
	}
	_, err := New(q, schema.Schema{}).Plan()
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrEmptyAggregationSubject, kind)
	assert.Contains(t, err.Error(), "no fields found to aggregate on")
}

func TestPlanUnsupportedAggregation(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Name: "sales", Aggregation: query.AggregationType("median"), Alias: "med"},
		},
	}
	_, err := New(q, salesSchema()).Plan()
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrUnsupportedAggregation, kind)
	assert.Contains(t, err.Error(), "unhandled aggregation method [median]")
}

func TestPlanUnknownGroupField(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Name: "sales", Aggregation: query.Sum, Alias: "total"},
		},
		GroupBy: []string{"nope"},
	}
	_, err := New(q, salesSchema()).Plan()
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrSchemaResolution, kind)
}

func TestPlanHavingMergesAggregates(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Name: "state"},
			{Name: "sales", Aggregation: query.Sum, Alias: "total"},
		},
		GroupBy: []string{"state"},
		Having: &query.Having{
			Predicate: mustPredicate(t, "cnt > 1"),
			Aggregates: []query.SelectField{
				{Name: "sales", Aggregation: query.Count, Alias: "cnt"},
			},
		},
	}
	g := compile(t, q, salesSchema())

	// The count the HAVING needs is computed alongside the selected sum.
	agg := findConfig(t, g, "Group by").(*graph.AggregateConfig)
	require.Len(t, agg.Aggregates, 2)
	assert.Equal(t, "total", agg.Aggregates[0].OutputName)
	assert.Equal(t, "cnt", agg.Aggregates[1].OutputName)
	assert.True(t, agg.AlwaysReturnRow)

	filter := findConfig(t, g, "Having filter").(*graph.FilterConfig)
	assert.Equal(t, "cnt > 1", filter.Expression)

	// The having filter runs on the aggregation's output.
	assert.Contains(t, g.Hops(), graph.Hop{From: "Group by", To: "Having filter"})

	// An aggregate selected and referenced by HAVING is not computed twice.
	q2 := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Name: "state"},
			{Name: "sales", Aggregation: query.Sum, Alias: "total"},
		},
		GroupBy: []string{"state"},
		Having: &query.Having{
			Predicate: mustPredicate(t, "total > 100"),
			Aggregates: []query.SelectField{
				{Name: "sales", Aggregation: query.Sum, Alias: "total"},
			},
		},
	}
	g2 := compile(t, q2, salesSchema())
	agg2 := findConfig(t, g2, "Group by").(*graph.AggregateConfig)
	assert.Len(t, agg2.Aggregates, 1)
}

func TestPlanIifDiamond(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{
				Alias: "bucket",
				Iif: &query.IifExpr{
					Condition:  mustPredicate(t, "sales > 100"),
					TrueValue:  query.IifValue{Literal: &query.Literal{Value: "big", Type: schema.TypeString, Length: 10}},
					FalseValue: query.IifValue{Field: "state"},
				},
			},
		},
	}
	g := compile(t, q, salesSchema())

	// Four operators per conditional: fork, two branches, merge.
	expr := "IIF(sales > 100;big;state)"
	filter := g.Find(expr)
	require.NotNil(t, filter)
	assert.Equal(t, graph.KindFilter, filter.Kind)
	assert.Equal(t, 2, g.Outgoing(expr))

	fc := filter.Config.(*graph.FilterConfig)
	assert.Equal(t, "TRUE: "+expr, fc.TrueTarget)
	assert.Equal(t, "FALSE: "+expr, fc.FalseTarget)

	trueOp := g.Find("TRUE: " + expr)
	require.NotNil(t, trueOp)
	assert.Equal(t, graph.KindConstant, trueOp.Kind)
	cc := trueOp.Config.(*graph.ConstantConfig)
	require.Len(t, cc.Fields, 1)
	assert.Equal(t, "bucket", cc.Fields[0].Name)
	assert.Equal(t, "big", cc.Fields[0].Value)

	falseOp := g.Find("FALSE: " + expr)
	require.NotNil(t, falseOp)
	assert.Equal(t, graph.KindDerivedField, falseOp.Kind)
	dc := falseOp.Config.(*graph.DerivedFieldConfig)
	assert.Equal(t, "bucket", dc.Field)
	assert.Equal(t, "state", dc.Source)

	assert.Equal(t, 2, g.Incoming("Collect: "+expr))

	project := findConfig(t, g, "Select values").(*graph.ProjectConfig)
	assert.Equal(t, []string{"bucket"}, project.Names)
}

func TestPlanIifDiamondsChain(t *testing.T) {
	iif := func(expression string) *query.IifExpr {
		return &query.IifExpr{
			Condition:  mustPredicate(t, expression),
			TrueValue:  query.IifValue{Literal: &query.Literal{Value: "yes", Type: schema.TypeString}},
			FalseValue: query.IifValue{Literal: &query.Literal{Value: "no", Type: schema.TypeString}},
		}
	}
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Alias: "high", Iif: iif("sales > 100")},
			{Alias: "low", Iif: iif("sales < 10")},
		},
	}
	g := compile(t, q, salesSchema())

	// Base chain is 4 operators; each conditional adds exactly 4 more.
	assert.Equal(t, 12, g.Size())

	// Diamonds chain serially: the second fork hangs off the first merge.
	assert.Contains(t, g.Hops(), graph.Hop{
		From: "Collect: IIF(sales > 100;yes;no)",
		To:   "IIF(sales < 10;yes;no)",
	})
}

func TestPlanOrderByIif(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields:      []query.SelectField{{Name: "state"}},
		OrderBy: []query.OrderField{
			{
				Name:      "flag",
				Ascending: true,
				Iif: &query.IifExpr{
					Condition:  mustPredicate(t, "sales > 100"),
					TrueValue:  query.IifValue{Literal: &query.Literal{Value: 1, Type: schema.TypeInteger}},
					FalseValue: query.IifValue{Literal: &query.Literal{Value: 0, Type: schema.TypeInteger}},
				},
			},
		},
	}
	g := compile(t, q, salesSchema())

	// The conditional materializes the sort key ahead of the sort.
	assert.Contains(t, g.KindSequence(), graph.KindSort)
	sort := findConfig(t, g, "Sort rows").(*graph.SortConfig)
	require.Len(t, sort.Fields, 1)
	assert.Equal(t, "flag", sort.Fields[0].Name)
	assert.True(t, sort.Fields[0].Ascending)
}

func TestPlanIifWithoutCondition(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Alias: "bucket", Iif: &query.IifExpr{
				TrueValue:  query.IifValue{Field: "state"},
				FalseValue: query.IifValue{Field: "state"},
			}},
		},
	}
	_, err := New(q, salesSchema()).Plan()
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrSchemaResolution, kind)
}

func TestPlanDistinctPlainSelect(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Name: "state"},
			{Name: "sales", Alias: "amount"},
		},
		Distinct: true,
	}
	g := compile(t, q, salesSchema())

	// The alias does not exist in the row layout ahead of the projection,
	// so the dedup groups on the original names.
	dedup := findConfig(t, g, "DISTINCT").(*graph.DedupConfig)
	assert.Equal(t, []string{"state", "sales"}, dedup.GroupFields)
}

func TestPlanDistinctAfterAggregation(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Name: "state"},
			{Name: "sales", Aggregation: query.Sum, Alias: "total"},
		},
		GroupBy:  []string{"state"},
		Distinct: true,
	}
	g := compile(t, q, salesSchema())

	// Post-aggregation the row carries the alias, so the dedup can use it.
	dedup := findConfig(t, g, "DISTINCT").(*graph.DedupConfig)
	assert.Equal(t, []string{"state", "total"}, dedup.GroupFields)
}

func TestPlanSortAliasResolution(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Name: "state"},
			{Name: "sales", Alias: "total"},
		},
		OrderBy: []query.OrderField{{Name: "total", Ascending: true}},
	}
	g := compile(t, q, salesSchema())

	// Ahead of the projection the row still carries the original name.
	sort := findConfig(t, g, "Sort rows").(*graph.SortConfig)
	require.Len(t, sort.Fields, 1)
	assert.Equal(t, "sales", sort.Fields[0].Name)
	assert.True(t, sort.Fields[0].Ascending)
	assert.True(t, sort.Fields[0].CaseSensitive)
	assert.Equal(t, 1000000, sort.BufferSize)
}

func TestPlanSortOnAggregateAlias(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields: []query.SelectField{
			{Name: "state"},
			{Name: "sales", Aggregation: query.Sum, Alias: "total"},
		},
		GroupBy: []string{"state"},
		OrderBy: []query.OrderField{{Name: "total", Ascending: false}},
	}
	g := compile(t, q, salesSchema())

	sort := findConfig(t, g, "Sort rows").(*graph.SortConfig)
	require.Len(t, sort.Fields, 1)
	assert.Equal(t, "total", sort.Fields[0].Name)
	assert.False(t, sort.Fields[0].Ascending)
}

func TestPlanSortUnknownField(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields:      []query.SelectField{{Name: "state"}},
		OrderBy:     []query.OrderField{{Name: "nope"}},
	}
	_, err := New(q, salesSchema()).Plan()
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrSchemaResolution, kind)
	assert.Contains(t, err.Error(), "unable to find field to sort on")
}

func TestPlanClauseOrder(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Statement:   "SELECT ...",
		Fields: []query.SelectField{
			{Name: "state"},
			{Name: "sales", Aggregation: query.Sum, Alias: "total"},
		},
		Where:   mustPredicate(t, "sales > 0"),
		GroupBy: []string{"state"},
		Having: &query.Having{
			Predicate: mustPredicate(t, "total > 100"),
			Aggregates: []query.SelectField{
				{Name: "sales", Aggregation: query.Sum, Alias: "total"},
			},
		},
		OrderBy:  []query.OrderField{{Name: "total", Ascending: false}},
		Limit:    &query.Limit{Offset: 0, Rows: 10},
		Distinct: true,
	}
	g := compile(t, q, salesSchema())

	assert.Equal(t, []graph.OperatorKind{
		graph.KindIngest,
		graph.KindTypeCoercion,
		graph.KindFilter,
		graph.KindAggregate,
		graph.KindFilter,
		graph.KindDedup,
		graph.KindSort,
		graph.KindProject,
		graph.KindRangeSample,
		graph.KindCollector,
	}, g.KindSequence())
}

func TestPlanDeterministic(t *testing.T) {
	build := func() *graph.Graph {
		q := &query.Query{
			ServiceName: "sales",
			Statement:   "SELECT ...",
			Fields: []query.SelectField{
				{Name: "state"},
				{Name: "sales", Aggregation: query.Sum, Alias: "total"},
			},
			Where:   mustPredicate(t, `date_to_str(created, 'yyyy') == "2020"`),
			GroupBy: []string{"state"},
			OrderBy: []query.OrderField{{Name: "total", Ascending: false}},
			Limit:   &query.Limit{Offset: 5, Rows: 10},
		}
		return compile(t, q, salesSchema())
	}

	first := build()
	second := build()

	assert.Equal(t, first.KindSequence(), second.KindSequence())
	assert.Equal(t, first.Hops(), second.Hops())
	for i, op := range first.Operators() {
		assert.Equal(t, op.Name, second.Operators()[i].Name)
	}
}

func TestPlannerHandles(t *testing.T) {
	q := &query.Query{
		ServiceName: "sales",
		Fields:      []query.SelectField{{Name: "state"}},
	}
	p := New(q, salesSchema())
	assert.Empty(t, p.EntryName())
	assert.Empty(t, p.ResultName())

	g, err := p.Plan()
	require.NoError(t, err)
	assert.Equal(t, "Input", p.EntryName())
	assert.Equal(t, "RESULT", p.ResultName())
	assert.Equal(t, p.EntryName(), g.EntryName())
	assert.Equal(t, p.ResultName(), g.ResultName())
}
