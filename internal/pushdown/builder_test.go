package pushdown

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"druid-connect/internal/plan"
)

func TestQueryBuilder_AliasesNeverRepeat(t *testing.T) {
	qb := NewQueryBuilder(testDatasource(t))

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		name := qb.nextAlias()
		assert.False(t, seen[name])
		seen[name] = true
		assert.Equal(t, fmt.Sprintf("alias_%d", i), name)
	}
	assert.Equal(t, 20, qb.AliasCount())
}

func TestQueryBuilder_CloneIsIndependent(t *testing.T) {
	qb := NewQueryBuilder(testDatasource(t))
	qb.bind("a", col("cityName"), plan.TypeString, "STRING")

	next := qb.clone()
	next.bind("b", col("pageUrl"), plan.TypeString, "STRING")

	assert.Len(t, qb.Bindings(), 1)
	assert.Len(t, next.Bindings(), 2)
}

func TestQueryBuilder_GroupByQueryAssembly(t *testing.T) {
	translator := newTestTranslator()
	qb := NewQueryBuilder(testDatasource(t))

	node := aggregateNode(
		[]plan.Expr{col("cityName")},
		countOne(),
	)
	out, err := translator.TransformAggregate(qb, node, NewPlanner(translator))
	require.NoError(t, err)
	require.NotNil(t, out)

	q := out.GroupByQuery(nil)
	assert.Equal(t, "events", q.DataSource)
	assert.Equal(t, "all", q.Granularity)
	require.Len(t, q.Intervals, 1)

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"queryType":"groupBy"`)
	assert.Contains(t, string(data), `"type":"count"`)
}
