package pushdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"druid-connect/internal/catalog"
	"druid-connect/internal/domain"
	"druid-connect/internal/druid"
	"druid-connect/internal/plan"
)

// testDatasource builds the metadata snapshot shared by the translator
// tests: a web-analytics style datasource with dimensions, metrics, and two
// probabilistic structures.
func testDatasource(t *testing.T) *catalog.Datasource {
	t.Helper()
	return catalog.NewDatasource("events",
		[]*catalog.Column{
			{Name: "__time", Kind: catalog.KindTimeDimension, DruidType: druid.TypeLong},
			{Name: "cityName", Kind: catalog.KindDimension, DruidType: druid.TypeString},
			{Name: "region", Kind: catalog.KindDimension, DruidType: druid.TypeString, NotIndexed: true},
			{Name: "userId", Kind: catalog.KindDimension, DruidType: druid.TypeString, HLLMetric: "userId_hll"},
			{Name: "deviceId", Kind: catalog.KindDimension, DruidType: druid.TypeString, SketchMetric: "deviceId_sketch"},
			{Name: "pageUrl", Kind: catalog.KindDimension, DruidType: druid.TypeString},
			{Name: "signupDate", Kind: catalog.KindDimension, DruidType: druid.TypeString},
			{Name: "revenue", Kind: catalog.KindMetric, DruidType: druid.TypeLong},
			{Name: "price", Kind: catalog.KindMetric, DruidType: druid.TypeDouble},
			{Name: "latency", Kind: catalog.KindMetric, DruidType: druid.TypeFloat},
			{Name: "userId_hll", Kind: catalog.KindMetric, DruidType: druid.TypeHyperUnique},
			{Name: "deviceId_sketch", Kind: catalog.KindMetric, DruidType: druid.TypeThetaSketch},
		},
		map[string]catalog.AggregatorInfo{
			"revenue":         {Type: "longSum", FieldName: "revenue"},
			"price":           {Type: "doubleSum", FieldName: "price"},
			"latency":         {Type: "floatSum", FieldName: "latency"},
			"userId_hll":      {Type: "hyperUnique", FieldName: "userId"},
			"deviceId_sketch": {Type: "thetaSketch", FieldName: "deviceId"},
		})
}

func newTestTranslator() *Translator {
	return NewTranslator("UTC")
}

func col(name string) *plan.ColumnRef { return &plan.ColumnRef{Name: name} }

func agg(kind plan.AggKind, out plan.DataType, args ...plan.Expr) *plan.AggregateExpr {
	return &plan.AggregateExpr{Func: plan.AggFunc{Kind: kind, Args: args, OutputType: out}}
}

func countOne() *plan.AggregateExpr {
	return agg(plan.AggCount, plan.TypeLong, &plan.Literal{Type: plan.LiteralNumber, Value: "1"})
}

func aggregateNode(groupBy []plan.Expr, aggs ...*plan.AggregateExpr) *plan.Aggregate {
	return &plan.Aggregate{
		GroupBy:    groupBy,
		Aggregates: aggs,
		Input:      &plan.Scan{Datasource: "events"},
	}
}

func TestTransformAggregate_CountAndSumOverCity(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	node := aggregateNode(
		[]plan.Expr{col("cityName")},
		countOne(),
		agg(plan.AggSum, plan.TypeLong, col("revenue")),
	)

	out, err := translator.TransformAggregate(qb, node, NewPlanner(translator))
	require.NoError(t, err)
	require.NotNil(t, out)

	require.Len(t, out.DimensionSpecs(), 1)
	dim, ok := out.DimensionSpecs()[0].(*druid.DefaultDimension)
	require.True(t, ok)
	assert.Equal(t, "cityName", dim.Dimension)

	require.Len(t, out.AggregationSpecs(), 2)
	_, ok = out.AggregationSpecs()[0].(*druid.CountAggregation)
	require.True(t, ok)
	sum, ok := out.AggregationSpecs()[1].(*druid.FieldAggregation)
	require.True(t, ok)
	assert.Equal(t, "longSum", sum.Op)
	assert.Equal(t, "revenue", sum.FieldName)

	require.Len(t, out.Bindings(), 3)
	cityBinding, ok := out.Binding("cityName")
	require.True(t, ok)
	assert.Equal(t, plan.TypeString, cityBinding.LogicalType)
}

func TestTransformAggregate_MultiDistinctShapeRefusedBeforeClassification(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	node := &plan.Aggregate{
		GroupBy:    []plan.Expr{col("cityName")},
		Aggregates: []*plan.AggregateExpr{countOne()},
		Input: &plan.Aggregate{
			Input: &plan.Expand{Input: &plan.Scan{Datasource: "events"}},
		},
	}

	out, err := translator.TransformAggregate(qb, node, NewPlanner(translator))
	require.NoError(t, err)
	assert.Nil(t, out)
	// The classifier was never reached: no alias was allocated anywhere.
	assert.Zero(t, qb.AliasCount())
}

func TestTransformAggregate_AnyDistinctAggregateRefused(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	distinct := agg(plan.AggCount, plan.TypeLong, col("userId"))
	distinct.Func.Distinct = true
	node := aggregateNode(nil, distinct)

	out, err := translator.TransformAggregate(qb, node, NewPlanner(translator))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestTransformAggregate_AverageAbortsWholeNode(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	node := aggregateNode(
		[]plan.Expr{col("cityName")},
		countOne(),
		agg(plan.AggAvg, plan.TypeDouble, col("price")),
	)

	out, err := translator.TransformAggregate(qb, node, NewPlanner(translator))
	require.Error(t, err)
	var unsupported *domain.UnsupportedError
	require.ErrorAs(t, err, &unsupported)
	assert.Nil(t, out)
}

func TestTransformAggregate_DeduplicatesAggregates(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	node := aggregateNode(
		nil,
		agg(plan.AggSum, plan.TypeLong, col("revenue")),
		agg(plan.AggSum, plan.TypeLong, col("revenue")),
		countOne(),
	)

	out, err := translator.TransformAggregate(qb, node, NewPlanner(translator))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Len(t, out.AggregationSpecs(), 2)
}

func TestTransformAggregate_ChildSubtreeFailurePropagates(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	node := &plan.Aggregate{
		Aggregates: []*plan.AggregateExpr{countOne()},
		Input:      &plan.Scan{Datasource: "other"},
	}

	out, err := translator.TransformAggregate(qb, node, NewPlanner(translator))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestTransformAggregate_AliasesAreUniqueAndMonotonic(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	node := aggregateNode(
		[]plan.Expr{
			col("cityName"),
			&plan.ScalarFunc{Name: "date_format", Args: []plan.Expr{
				col("__time"),
				&plan.Literal{Type: plan.LiteralString, Value: "yyyy-MM-dd"},
			}},
		},
		countOne(),
		agg(plan.AggSum, plan.TypeLong, col("revenue")),
		agg(plan.AggMax, plan.TypeDouble, col("price")),
		agg(plan.AggApproxCountDistinct, plan.TypeLong, col("pageUrl")),
	)

	out, err := translator.TransformAggregate(qb, node, NewPlanner(translator))
	require.NoError(t, err)
	require.NotNil(t, out)

	names := make(map[string]bool)
	for _, b := range out.Bindings() {
		assert.False(t, names[b.Name], "duplicate output name %q", b.Name)
		names[b.Name] = true
	}
	// One alias for the time group, one per aggregate.
	assert.Equal(t, 5, out.AliasCount())
}

func TestTransformAggregate_ColumnNamedLikeAliasDoesNotCollide(t *testing.T) {
	translator := newTestTranslator()
	ds := catalog.NewDatasource("events",
		[]*catalog.Column{
			{Name: "alias_0", Kind: catalog.KindDimension, DruidType: druid.TypeString},
			{Name: "revenue", Kind: catalog.KindMetric, DruidType: druid.TypeLong},
		},
		map[string]catalog.AggregatorInfo{
			"revenue": {Type: "longSum", FieldName: "revenue"},
		})

	node := aggregateNode(
		[]plan.Expr{col("alias_0")},
		countOne(),
		agg(plan.AggSum, plan.TypeLong, col("revenue")),
	)

	out, err := translator.TransformAggregate(NewQueryBuilder(ds), node, NewPlanner(translator))
	require.NoError(t, err)
	require.NotNil(t, out)

	names := make(map[string]bool)
	for _, b := range out.Bindings() {
		assert.False(t, names[b.Name], "duplicate output name %q", b.Name)
		names[b.Name] = true
	}
	// The generator stepped over the taken name.
	assert.True(t, names["alias_0"])
	assert.True(t, names["alias_1"])
	assert.True(t, names["alias_2"])
}

func TestTransformAggregate_IdempotentAcrossRuns(t *testing.T) {
	translator := newTestTranslator()
	ds := testDatasource(t)

	node := aggregateNode(
		[]plan.Expr{col("cityName")},
		countOne(),
		agg(plan.AggSum, plan.TypeLong, col("revenue")),
	)

	first, err := translator.TransformAggregate(NewQueryBuilder(ds), node, NewPlanner(translator))
	require.NoError(t, err)
	second, err := translator.TransformAggregate(NewQueryBuilder(ds), node, NewPlanner(translator))
	require.NoError(t, err)

	assert.Equal(t, first.DimensionSpecs(), second.DimensionSpecs())
	assert.Equal(t, first.AggregationSpecs(), second.AggregationSpecs())
	assert.Equal(t, first.Bindings(), second.Bindings())
}
