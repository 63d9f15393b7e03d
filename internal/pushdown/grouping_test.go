package pushdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"druid-connect/internal/domain"
	"druid-connect/internal/druid"
	"druid-connect/internal/plan"
)

func TestGroupingSpec_UsableDimension(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	out, err := translator.groupingSpec(qb, col("cityName"))
	require.NoError(t, err)
	require.NotNil(t, out)

	require.Len(t, out.DimensionSpecs(), 1)
	dim, ok := out.DimensionSpecs()[0].(*druid.DefaultDimension)
	require.True(t, ok)
	assert.Equal(t, "cityName", dim.Dimension)
	assert.Equal(t, "cityName", dim.OutputName)

	binding, ok := out.Binding("cityName")
	require.True(t, ok)
	assert.Equal(t, plan.TypeString, binding.LogicalType)
	assert.Equal(t, druid.TypeString, binding.DruidType)
}

func TestGroupingSpec_NotIndexedDimensionIsFatal(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	out, err := translator.groupingSpec(qb, col("region"))
	require.Error(t, err)
	var unsupported *domain.UnsupportedError
	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, unsupported.Message, "region")
	assert.Nil(t, out)
}

func TestGroupingSpec_UnknownColumnFailsSoftly(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	out, err := translator.groupingSpec(qb, col("nope"))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestGroupingSpec_MetricReferenceFailsSoftly(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	out, err := translator.groupingSpec(qb, col("revenue"))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestGroupingSpec_TimeFormatOverTimeColumn(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	expr := &plan.ScalarFunc{Name: "date_format", Args: []plan.Expr{
		col("__time"),
		&plan.Literal{Type: plan.LiteralString, Value: "yyyy-MM-dd"},
	}}

	out, err := translator.groupingSpec(qb, expr)
	require.NoError(t, err)
	require.NotNil(t, out)

	dim, ok := out.DimensionSpecs()[0].(*druid.ExtractionDimension)
	require.True(t, ok)
	assert.Equal(t, "__time", dim.Dimension)

	fn, ok := dim.ExtractionFn.(*druid.TimeFormatExtraction)
	require.True(t, ok)
	assert.Equal(t, "yyyy-MM-dd", fn.Format)
	assert.Equal(t, "UTC", fn.TimeZone)

	binding, ok := out.Binding(dim.OutputName)
	require.True(t, ok)
	assert.Equal(t, plan.TypeTimestamp, binding.LogicalType)
}

func TestGroupingSpec_TimeParseOverStringDimension(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	expr := &plan.ScalarFunc{Name: "date_format", Args: []plan.Expr{
		&plan.ScalarFunc{Name: "parse_time", Args: []plan.Expr{
			col("signupDate"),
			&plan.Literal{Type: plan.LiteralString, Value: "yyyyMMdd"},
		}},
		&plan.Literal{Type: plan.LiteralString, Value: "yyyy-MM"},
	}}

	out, err := translator.groupingSpec(qb, expr)
	require.NoError(t, err)
	require.NotNil(t, out)

	dim, ok := out.DimensionSpecs()[0].(*druid.ExtractionDimension)
	require.True(t, ok)
	assert.Equal(t, "signupDate", dim.Dimension)

	fn, ok := dim.ExtractionFn.(*druid.TimeParsingExtraction)
	require.True(t, ok)
	assert.Equal(t, "yyyyMMdd", fn.TimeFormat)
	assert.Equal(t, "yyyy-MM", fn.ResultFormat)
}

func TestGroupingSpec_TimeParseNeedsGroupableDimension(t *testing.T) {
	translator := newTestTranslator()

	parseExpr := func(column string) plan.Expr {
		return &plan.ScalarFunc{Name: "date_format", Args: []plan.Expr{
			&plan.ScalarFunc{Name: "parse_time", Args: []plan.Expr{
				col(column),
				&plan.Literal{Type: plan.LiteralString, Value: "yyyyMMdd"},
			}},
			&plan.Literal{Type: plan.LiteralString, Value: "yyyy-MM"},
		}}
	}

	t.Run("metric column", func(t *testing.T) {
		qb := NewQueryBuilder(testDatasource(t))
		out, err := translator.groupingSpec(qb, parseExpr("revenue"))
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("not-indexed dimension", func(t *testing.T) {
		qb := NewQueryBuilder(testDatasource(t))
		out, err := translator.groupingSpec(qb, parseExpr("region"))
		require.NoError(t, err)
		assert.Nil(t, out)
	})
}

func TestGroupingSpec_DateTruncOverTimeColumn(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	expr := &plan.ScalarFunc{Name: "date_trunc", Args: []plan.Expr{
		&plan.Literal{Type: plan.LiteralString, Value: "day"},
		col("__time"),
	}}

	out, err := translator.groupingSpec(qb, expr)
	require.NoError(t, err)
	require.NotNil(t, out)

	dim, ok := out.DimensionSpecs()[0].(*druid.ExtractionDimension)
	require.True(t, ok)
	fn, ok := dim.ExtractionFn.(*druid.TimeFormatExtraction)
	require.True(t, ok)
	assert.Equal(t, "yyyy-MM-dd", fn.Format)
}

func TestGroupingSpec_TimeFormatOverPlainDimensionFailsSoftly(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	// No parse format, and cityName is not time-typed.
	expr := &plan.ScalarFunc{Name: "date_format", Args: []plan.Expr{
		col("cityName"),
		&plan.Literal{Type: plan.LiteralString, Value: "yyyy"},
	}}

	out, err := translator.groupingSpec(qb, expr)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestGroupingSpec_GeneratedExtraction(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	expr := &plan.ScalarFunc{Name: "concat", Args: []plan.Expr{
		col("cityName"),
		&plan.Literal{Type: plan.LiteralString, Value: "!"},
	}}

	out, err := translator.groupingSpec(qb, expr)
	require.NoError(t, err)
	require.NotNil(t, out)

	dim, ok := out.DimensionSpecs()[0].(*druid.ExtractionDimension)
	require.True(t, ok)
	assert.Equal(t, "cityName", dim.Dimension)
	assert.Equal(t, "alias_0", dim.OutputName)

	_, ok = dim.ExtractionFn.(*druid.JavascriptExtraction)
	require.True(t, ok)

	binding, ok := out.Binding("alias_0")
	require.True(t, ok)
	assert.Equal(t, plan.TypeString, binding.LogicalType)
}

func TestGroupingSpec_GeneratedExtractionOverMetricFailsSoftly(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	expr := &plan.ScalarFunc{Name: "abs", Args: []plan.Expr{col("revenue")}}

	out, err := translator.groupingSpec(qb, expr)
	require.NoError(t, err)
	assert.Nil(t, out)
}
